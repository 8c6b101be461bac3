// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: postprocess/stride_test.go

package postprocess

import (
	"bytes"
	"testing"

	"github.com/glycin-go/glycin/pixfmt"
	"github.com/glycin-go/glycin/wire"
)

func TestRemoveStrideIfNeededCompactsPaddedRows(t *testing.T) {
	// Two 2x1 rows (R8g8b8 = 3 bytes/pixel) padded to a stride of 8.
	mapping := []byte{
		1, 2, 3, 4, 5, 6, 0, 0,
		7, 8, 9, 10, 11, 12, 0, 0,
	}
	frame := &wire.Frame{Width: 2, Height: 2, Stride: 8, MemoryFormat: pixfmt.R8g8b8}

	newLen := removeStrideIfNeeded(mapping, frame)

	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	if newLen != len(want) {
		t.Fatalf("got len %d, want %d", newLen, len(want))
	}
	if !bytes.Equal(mapping[:newLen], want) {
		t.Fatalf("got %v, want %v", mapping[:newLen], want)
	}
	if frame.Stride != 6 {
		t.Fatalf("got stride %d, want 6", frame.Stride)
	}
}

func TestRemoveStrideIfNeededLeavesAlignedPaddingAlone(t *testing.T) {
	// Stride 12 is a multiple of the 3-byte pixel size even though it is
	// larger than width*bpp (6); this is alignment padding, not misaligned
	// rows, and must be left untouched.
	mapping := []byte{
		1, 2, 3, 4, 5, 6, 0, 0, 0, 0, 0, 0,
		7, 8, 9, 10, 11, 12, 0, 0, 0, 0, 0, 0,
	}
	frame := &wire.Frame{Width: 2, Height: 2, Stride: 12, MemoryFormat: pixfmt.R8g8b8}

	newLen := removeStrideIfNeeded(mapping, frame)
	if newLen != len(mapping) {
		t.Fatalf("expected no-op for aligned padding, got len %d", newLen)
	}
	if frame.Stride != 12 {
		t.Fatalf("stride must not change, got %d", frame.Stride)
	}
}

func TestRemoveStrideIfNeededIsIdempotent(t *testing.T) {
	mapping := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	frame := &wire.Frame{Width: 2, Height: 2, Stride: 6, MemoryFormat: pixfmt.R8g8b8}

	newLen := removeStrideIfNeeded(mapping, frame)
	if newLen != len(mapping) {
		t.Fatalf("expected no-op when already packed, got len %d", newLen)
	}

	again := removeStrideIfNeeded(mapping, frame)
	if again != newLen {
		t.Fatalf("second call changed length: got %d, want %d", again, newLen)
	}
}
