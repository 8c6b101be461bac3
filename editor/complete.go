// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: editor/complete.go
// Summary: The host-side result of a full (non-sparse) edit request.
// Grounded on original_source/glycin/src/api_editor.rs's Edit struct.

package editor

import (
	"fmt"
	"os"

	"github.com/glycin-go/glycin/wire"
)

// CompleteEdit is the full replacement image a worker produced for an
// apply_complete request.
type CompleteEdit struct {
	Data     *os.File
	Lossless bool
}

// FromCompleteOutput resolves a worker's CompleteEditorOutput against the
// files passed alongside the reply.
func FromCompleteOutput(out wire.CompleteEditorOutput, files []*os.File) (CompleteEdit, error) {
	f, err := out.Data.Resolve(files)
	if err != nil {
		return CompleteEdit{}, fmt.Errorf("editor: resolve replacement image: %w", err)
	}
	return CompleteEdit{Data: f, Lossless: out.Info.Lossless}, nil
}
