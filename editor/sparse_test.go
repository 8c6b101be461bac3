// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: editor/sparse_test.go

package editor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/glycin-go/glycin/wire"
)

func TestFromSparseOutputRejectsBothFieldsSet(t *testing.T) {
	h := wire.Handle(0)
	out := wire.SparseEditorOutput{
		ByteChanges: &wire.ByteChanges{Changes: []wire.ByteChange{{Offset: 0, NewValue: 1}}},
		Data:        &h,
	}
	if _, err := FromSparseOutput(out, nil); !errors.Is(err, ErrAmbiguousOutput) {
		t.Fatalf("got %v, want ErrAmbiguousOutput", err)
	}
}

func TestFromSparseOutputRejectsNeitherFieldSet(t *testing.T) {
	if _, err := FromSparseOutput(wire.SparseEditorOutput{}, nil); !errors.Is(err, ErrAmbiguousOutput) {
		t.Fatalf("got %v, want ErrAmbiguousOutput", err)
	}
}

func TestApplyToPatchesBytesInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	if err := os.WriteFile(path, []byte{0, 0, 0, 0}, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	out := wire.SparseEditorOutput{
		ByteChanges: &wire.ByteChanges{Changes: []wire.ByteChange{
			{Offset: 1, NewValue: 0xAB},
			{Offset: 3, NewValue: 0xCD},
		}},
		Info: wire.EditorOutputInfo{Lossless: true},
	}

	edit, err := FromSparseOutput(out, nil)
	if err != nil {
		t.Fatalf("FromSparseOutput: %v", err)
	}
	if !edit.IsSparse() {
		t.Fatalf("expected sparse edit")
	}

	outcome, err := edit.ApplyTo(path)
	if err != nil {
		t.Fatalf("ApplyTo: %v", err)
	}
	if outcome != Changed {
		t.Fatalf("got outcome %v, want Changed", outcome)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := []byte{0, 0xAB, 0, 0xCD}
	if string(got) != string(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestApplyToCalledTwiceFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	if err := os.WriteFile(path, []byte{0}, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	out := wire.SparseEditorOutput{
		ByteChanges: &wire.ByteChanges{Changes: []wire.ByteChange{{Offset: 0, NewValue: 1}}},
	}
	edit, err := FromSparseOutput(out, nil)
	if err != nil {
		t.Fatalf("FromSparseOutput: %v", err)
	}

	if _, err := edit.ApplyTo(path); err != nil {
		t.Fatalf("first ApplyTo: %v", err)
	}
	if _, err := edit.ApplyTo(path); !errors.Is(err, ErrAlreadyApplied) {
		t.Fatalf("got %v, want ErrAlreadyApplied", err)
	}
}

func TestApplyToNonSparseEditIsUnchanged(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "replacement")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	defer f.Close()

	h := wire.Handle(0)
	out := wire.SparseEditorOutput{Data: &h}
	edit, err := FromSparseOutput(out, []*os.File{f})
	if err != nil {
		t.Fatalf("FromSparseOutput: %v", err)
	}
	if edit.IsSparse() {
		t.Fatalf("expected non-sparse edit")
	}

	outcome, err := edit.ApplyTo(filepath.Join(t.TempDir(), "unused.bin"))
	if err != nil {
		t.Fatalf("ApplyTo: %v", err)
	}
	if outcome != Unchanged {
		t.Fatalf("got outcome %v, want Unchanged", outcome)
	}
}
