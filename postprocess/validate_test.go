// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: postprocess/validate_test.go

package postprocess

import (
	"errors"
	"testing"

	"github.com/glycin-go/glycin/pixfmt"
	"github.com/glycin-go/glycin/wire"
)

func baseFrame() wire.Frame {
	return wire.Frame{
		Width:        4,
		Height:       4,
		Stride:       16,
		MemoryFormat: pixfmt.R8g8b8a8,
	}
}

func TestValidateAcceptsWellFormedFrame(t *testing.T) {
	f := baseFrame()
	if err := Validate(f, 64); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsZeroDimensions(t *testing.T) {
	f := baseFrame()
	f.Width = 0
	if err := Validate(f, 64); !errors.Is(err, ErrWidthOrHeightZero) {
		t.Fatalf("got %v, want ErrWidthOrHeightZero", err)
	}
}

func TestValidateRejectsStrideTooSmall(t *testing.T) {
	f := baseFrame()
	f.Stride = 8
	if err := Validate(f, 64); !errors.Is(err, ErrStrideTooSmall) {
		t.Fatalf("got %v, want ErrStrideTooSmall", err)
	}
}

func TestValidateRejectsTextureTooSmall(t *testing.T) {
	f := baseFrame()
	if err := Validate(f, 32); !errors.Is(err, ErrTextureTooSmall) {
		t.Fatalf("got %v, want ErrTextureTooSmall", err)
	}
}

func TestValidateRejectsOversizedDimensions(t *testing.T) {
	f := baseFrame()
	f.Height = 1 << 30
	f.Stride = 1 << 30
	if err := Validate(f, 0); err == nil {
		t.Fatalf("expected an error for an oversized frame")
	}
}

func TestValidateRejectsWidthBeyondInt32(t *testing.T) {
	// stride*height (3e9) fits under maxTextureBytes, so only the explicit
	// int32 bound on Width catches this.
	f := wire.Frame{Width: 3_000_000_000, Height: 1, Stride: 3_000_000_000, MemoryFormat: pixfmt.G8}
	if err := Validate(f, 3_000_000_000); !errors.Is(err, ErrDimensionOverflow) {
		t.Fatalf("got %v, want ErrDimensionOverflow", err)
	}
}
