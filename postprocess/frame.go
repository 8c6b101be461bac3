// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: postprocess/frame.go
// Summary: Turns a worker's raw Frame reply into an immutable, validated,
// color-resolved application Frame.
// Notes: The seven-step pipeline is grounded on the spec's §4.6/§4.7;
// Orientation and ColorTransformer are the seams for the delegated EXIF
// and ICC collaborators the spec calls out as external.

package postprocess

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/glycin-go/glycin/memfd"
	"github.com/glycin-go/glycin/pixfmt"
	"github.com/glycin-go/glycin/wire"
)

// ColorState records how a Frame's pixels relate to sRGB.
type ColorState int

const (
	ColorSrgb ColorState = iota
	ColorCicp
	ColorIccTransformed
)

// String names a ColorState for logging and CLI output.
func (c ColorState) String() string {
	switch c {
	case ColorSrgb:
		return "srgb"
	case ColorCicp:
		return "cicp"
	case ColorIccTransformed:
		return "icc_transformed"
	default:
		return "unknown"
	}
}

// Orientation applies an EXIF-derived rotation/flip to a frame's pixels in
// place. A real implementation delegates to a metadata library; absent one,
// orientation is left untouched.
type Orientation interface {
	Apply(pixels []byte, frame *wire.Frame) error
}

// ColorTransformer runs an ICC profile transform on a frame's pixels in
// place. A real implementation delegates to a color-management library.
type ColorTransformer interface {
	Transform(pixels []byte, frame wire.Frame, iccProfile []byte) error
}

// Options configures optional post-processing steps a caller opted into
// when building its Loader.
type Options struct {
	ApplyTransformations bool
	TargetFormat         *pixfmt.Format
}

// Frame is the immutable, fully processed result handed to applications.
type Frame struct {
	Width, Height, Stride uint32
	Format                pixfmt.Format
	Data                  []byte
	File                  *os.File
	ColorState            ColorState
	Delay                 time.Duration
	HasDelay              bool
}

// Close releases the Frame's backing file and mapping.
func (f *Frame) Close() error {
	if len(f.Data) > 0 {
		_ = memfd.Unmap(f.Data)
	}
	if f.File != nil {
		return f.File.Close()
	}
	return nil
}

// Process runs the seven-step post-processing pipeline over a worker's raw
// Frame reply. texture and iccp are the fds the worker passed for this
// reply (iccp may be nil). orient and color may both be nil, in which case
// their respective steps are skipped.
func Process(raw wire.Frame, texture *os.File, iccp *os.File, opts Options, orient Orientation, color ColorTransformer) (Frame, error) {
	if iccp != nil {
		if err := memfd.Seal(iccp); err != nil {
			return Frame{}, fmt.Errorf("postprocess: seal iccp: %w", err)
		}
	}

	mapping, err := memfd.MapWritable(texture)
	if err != nil {
		return Frame{}, fmt.Errorf("postprocess: map texture: %w", err)
	}

	if err := Validate(raw, len(mapping)); err != nil {
		memfd.Unmap(mapping)
		return Frame{}, err
	}

	if opts.ApplyTransformations && orient != nil {
		if err := orient.Apply(mapping, &raw); err != nil {
			debugLog.Printf("orientation step failed, pixels left untransformed: %v", err)
		}
	}

	colorState := ColorSrgb
	switch {
	case len(raw.Details.Cicp) > 0:
		colorState = ColorCicp

	case iccp != nil && color != nil:
		newSize := removeStrideIfNeeded(mapping, &raw)
		if newSize != len(mapping) {
			memfd.Unmap(mapping)
			if err := memfd.Truncate(texture, int64(newSize)); err != nil {
				return Frame{}, fmt.Errorf("postprocess: truncate after stride fix: %w", err)
			}
			mapping, err = memfd.MapWritable(texture)
			if err != nil {
				return Frame{}, fmt.Errorf("postprocess: remap after stride fix: %w", err)
			}
		}

		iccBytes, err := readAll(iccp)
		if err != nil {
			debugLog.Printf("could not read icc profile, returning untransformed pixels: %v", err)
		} else if err := color.Transform(mapping, raw, iccBytes); err != nil {
			debugLog.Printf("icc transform failed, returning untransformed pixels: %v", err)
		} else {
			colorState = ColorIccTransformed
		}
	}

	finalFile := texture
	if opts.TargetFormat != nil && *opts.TargetFormat != raw.MemoryFormat {
		convFile, convStride, err := convertFormat(mapping, raw, *opts.TargetFormat)
		memfd.Unmap(mapping)
		if err != nil {
			return Frame{}, fmt.Errorf("postprocess: format conversion: %w", err)
		}
		finalFile = convFile
		raw.MemoryFormat = *opts.TargetFormat
		raw.Stride = convStride
	} else {
		memfd.Unmap(mapping)
	}

	if err := memfd.Seal(finalFile); err != nil {
		return Frame{}, fmt.Errorf("postprocess: seal texture: %w", err)
	}
	roData, err := memfd.MapReadOnly(finalFile)
	if err != nil {
		return Frame{}, fmt.Errorf("postprocess: map sealed texture: %w", err)
	}

	return Frame{
		Width:      raw.Width,
		Height:     raw.Height,
		Stride:     raw.Stride,
		Format:     raw.MemoryFormat,
		Data:       roData,
		File:       finalFile,
		ColorState: colorState,
		Delay:      raw.Delay,
		HasDelay:   raw.HasDelay,
	}, nil
}

func readAll(f *os.File) ([]byte, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}
