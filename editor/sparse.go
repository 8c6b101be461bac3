// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: editor/sparse.go
// Summary: The host-side counterpart of a worker's sparse-or-complete edit
// output, and the byte-patch application law for the sparse case.
// Notes: Grounded on original_source/glycin/src/api_editor.rs's
// SparseEdit/EditOutcome/apply_to; onceFlag replaces the Rust compiler's
// move-semantics enforcement of single ownership with an explicit
// once-only guard checked at runtime.

package editor

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/glycin-go/glycin/wire"
)

// onceFlag guards ApplyTo against being called more than once, mirroring
// the streamer package's single-use write guard.
type onceFlag struct {
	mu      sync.Mutex
	claimed bool
}

func (o *onceFlag) tryClaim() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.claimed {
		return false
	}
	o.claimed = true
	return true
}

// Outcome reports whether ApplyTo actually touched the target file.
type Outcome int

const (
	Unchanged Outcome = iota
	Changed
)

// SparseEdit is the result of an edit operation that may have been
// satisfiable via a handful of byte patches rather than a full rewrite.
// Exactly one of its two backing forms is populated; the zero value is
// invalid and is never returned by FromSparseOutput.
type SparseEdit struct {
	changes  []wire.ByteChange
	data     *os.File
	lossless bool
	applied  onceFlag
}

// IsSparse reports whether this edit carries byte patches rather than a
// full replacement image.
func (s *SparseEdit) IsSparse() bool {
	return s.data == nil
}

// IsLossless reports whether the worker's edit preserved the original
// image data exactly, aside from the requested operations.
func (s *SparseEdit) IsLossless() bool {
	return s.lossless
}

// Data returns the complete replacement image file when this edit is not
// sparse. It is nil for a sparse edit.
func (s *SparseEdit) Data() *os.File {
	return s.data
}

// FromSparseOutput validates a worker's SparseEditorOutput and resolves its
// handle against the files passed alongside the reply. Exactly one of
// ByteChanges or Data must be set; any other combination is reported as
// ErrAmbiguousOutput, matching the host's mapping to InternalLoaderError.
func FromSparseOutput(out wire.SparseEditorOutput, files []*os.File) (*SparseEdit, error) {
	hasChanges := out.ByteChanges != nil
	hasData := out.Data != nil
	if hasChanges == hasData {
		return nil, ErrAmbiguousOutput
	}

	if hasChanges {
		return &SparseEdit{changes: out.ByteChanges.Changes, lossless: out.Info.Lossless}, nil
	}

	f, err := out.Data.Resolve(files)
	if err != nil {
		return nil, fmt.Errorf("editor: resolve replacement image: %w", err)
	}
	return &SparseEdit{data: f, lossless: out.Info.Lossless}, nil
}

// ApplyTo applies this edit to the file at path. For a sparse edit, it
// seeks to each byte change's offset and writes its new value in place,
// returning Changed. For a non-sparse edit, it does nothing and returns
// Unchanged; the caller is responsible for writing Data() to replace the
// file's contents instead. ApplyTo may only be called once.
func (s *SparseEdit) ApplyTo(path string) (Outcome, error) {
	if !s.applied.tryClaim() {
		return Unchanged, ErrAlreadyApplied
	}
	return s.applyTo(path)
}

func (s *SparseEdit) applyTo(path string) (Outcome, error) {
	if !s.IsSparse() {
		return Unchanged, nil
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return Unchanged, fmt.Errorf("editor: open %s: %w", path, err)
	}
	defer f.Close()

	for _, change := range s.changes {
		if _, err := f.Seek(int64(change.Offset), io.SeekStart); err != nil {
			return Unchanged, fmt.Errorf("editor: seek to offset %d: %w", change.Offset, err)
		}
		if _, err := f.Write([]byte{change.NewValue}); err != nil {
			return Unchanged, fmt.Errorf("editor: write byte at offset %d: %w", change.Offset, err)
		}
	}
	return Changed, nil
}
