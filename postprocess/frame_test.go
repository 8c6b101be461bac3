// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: postprocess/frame_test.go

//go:build linux

package postprocess

import (
	"errors"
	"os"
	"testing"

	"github.com/glycin-go/glycin/memfd"
	"github.com/glycin-go/glycin/pixfmt"
	"github.com/glycin-go/glycin/wire"
)

func newTexture(t *testing.T, data []byte) *os.File {
	t.Helper()
	f, err := memfd.Create("glycin-test-texture")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := memfd.Truncate(f, int64(len(data))); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	return f
}

func TestProcessPlainFrameDefaultsToSrgb(t *testing.T) {
	data := make([]byte, 4*4*4)
	texture := newTexture(t, data)
	defer texture.Close()

	raw := wire.Frame{Width: 4, Height: 4, Stride: 16, MemoryFormat: pixfmt.R8g8b8a8}

	frame, err := Process(raw, texture, nil, Options{}, nil, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	defer frame.Close()

	if frame.ColorState != ColorSrgb {
		t.Fatalf("got color state %v, want ColorSrgb", frame.ColorState)
	}
	if frame.Width != 4 || frame.Height != 4 {
		t.Fatalf("unexpected dimensions: %+v", frame)
	}
	if len(frame.Data) != len(data) {
		t.Fatalf("got mapped length %d, want %d", len(frame.Data), len(data))
	}
}

func TestProcessWithCicpReportsCicpColorState(t *testing.T) {
	data := make([]byte, 4*4*4)
	texture := newTexture(t, data)
	defer texture.Close()

	raw := wire.Frame{
		Width: 4, Height: 4, Stride: 16, MemoryFormat: pixfmt.R8g8b8a8,
		Details: wire.FrameDetails{Cicp: []byte{1, 13, 6, 1}},
	}

	frame, err := Process(raw, texture, nil, Options{}, nil, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	defer frame.Close()

	if frame.ColorState != ColorCicp {
		t.Fatalf("got color state %v, want ColorCicp", frame.ColorState)
	}
}

func TestProcessRejectsInvalidFrame(t *testing.T) {
	data := make([]byte, 4)
	texture := newTexture(t, data)
	defer texture.Close()

	raw := wire.Frame{Width: 4, Height: 4, Stride: 16, MemoryFormat: pixfmt.R8g8b8a8}

	_, err := Process(raw, texture, nil, Options{}, nil, nil)
	if !errors.Is(err, ErrTextureTooSmall) {
		t.Fatalf("got %v, want ErrTextureTooSmall", err)
	}
}

type failingColorTransformer struct{}

func (failingColorTransformer) Transform(pixels []byte, frame wire.Frame, iccProfile []byte) error {
	return errors.New("boom")
}

func TestProcessDegradesGracefullyOnIccFailure(t *testing.T) {
	data := make([]byte, 4*4*4)
	texture := newTexture(t, data)
	defer texture.Close()

	iccData := []byte("fake icc profile")
	iccf := newTexture(t, iccData)
	defer iccf.Close()

	raw := wire.Frame{
		Width: 4, Height: 4, Stride: 16, MemoryFormat: pixfmt.R8g8b8a8,
		Details: wire.FrameDetails{Iccp: func() *wire.Handle { h := wire.Handle(0); return &h }()},
	}

	frame, err := Process(raw, texture, iccf, Options{}, nil, failingColorTransformer{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	defer frame.Close()

	if frame.ColorState != ColorSrgb {
		t.Fatalf("got color state %v, want ColorSrgb after ICC failure", frame.ColorState)
	}
}

func TestProcessConvertsTargetFormat(t *testing.T) {
	data := make([]byte, 4*4*4)
	texture := newTexture(t, data)
	defer texture.Close()

	raw := wire.Frame{Width: 4, Height: 4, Stride: 16, MemoryFormat: pixfmt.R8g8b8a8}
	target := pixfmt.R8g8b8

	frame, err := Process(raw, texture, nil, Options{TargetFormat: &target}, nil, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	defer frame.Close()

	if frame.Format != pixfmt.R8g8b8 {
		t.Fatalf("got format %v, want R8g8b8", frame.Format)
	}
	if frame.Stride != 12 {
		t.Fatalf("got stride %d, want 12", frame.Stride)
	}
	if len(frame.Data) != 4*4*3 {
		t.Fatalf("got data length %d, want %d", len(frame.Data), 4*4*3)
	}
}
