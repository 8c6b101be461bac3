// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: editor/errors.go

package editor

import "errors"

// ErrAmbiguousOutput is returned when a worker's SparseEditorOutput sets
// both ByteChanges and Data, or neither. Either case means the worker
// violated the exactly-one-of contract and is reported to the caller as an
// internal loader error, per the host's error handling policy.
var ErrAmbiguousOutput = errors.New("editor: both 'byte_changes' and 'data' returned")

// ErrAlreadyApplied is returned by a second call to SparseEdit.ApplyTo.
var ErrAlreadyApplied = errors.New("editor: sparse edit already applied")
