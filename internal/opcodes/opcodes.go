// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: internal/opcodes/opcodes.go
// Summary: The edit operation list a host ships to a worker's Editor
// interface, MessagePack-encoded inside a memfd.
// Notes: Operation set (rotate, flip, set-EXIF-orientation, crop) is
// named directly in the spec's editor section; encoded as a tagged
// dictionary list rather than a zvariant enum, matching the flat
// typed-dictionary style already used by the wire package.

package opcodes

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Kind identifies which edit an Operation performs.
type Kind string

const (
	Rotate             Kind = "rotate"
	FlipHorizontal     Kind = "flip_horizontal"
	FlipVertical       Kind = "flip_vertical"
	SetExifOrientation Kind = "set_exif_orientation"
	Crop               Kind = "crop"
)

var ErrUnknownKind = errors.New("opcodes: unknown operation kind")

// Operation is one edit step. Only the fields relevant to Kind are set.
type Operation struct {
	Kind Kind `msgpack:"kind"`

	// Rotate: clockwise degrees, one of 90, 180, 270.
	Degrees int32 `msgpack:"degrees,omitempty"`

	// SetExifOrientation: the raw EXIF orientation tag value, 1-8.
	ExifOrientation uint16 `msgpack:"exif_orientation,omitempty"`

	// Crop: x, y, width, height in pixels.
	Rect [4]uint32 `msgpack:"rect,omitempty"`
}

// Validate checks that an operation's parameters are self-consistent for
// its kind.
func (o Operation) Validate() error {
	switch o.Kind {
	case Rotate:
		switch o.Degrees {
		case 90, 180, 270:
			return nil
		default:
			return fmt.Errorf("opcodes: rotate degrees must be 90, 180 or 270, got %d", o.Degrees)
		}
	case FlipHorizontal, FlipVertical:
		return nil
	case SetExifOrientation:
		if o.ExifOrientation < 1 || o.ExifOrientation > 8 {
			return fmt.Errorf("opcodes: exif orientation must be 1-8, got %d", o.ExifOrientation)
		}
		return nil
	case Crop:
		if o.Rect[2] == 0 || o.Rect[3] == 0 {
			return fmt.Errorf("opcodes: crop width and height must be non-zero")
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, o.Kind)
	}
}

// list is the MessagePack envelope around an operation sequence.
type list struct {
	Operations []Operation `msgpack:"operations"`
}

// Encode serializes an ordered operation list for transport inside a memfd.
func Encode(ops []Operation) ([]byte, error) {
	return msgpack.Marshal(list{Operations: ops})
}

// Decode parses an operation list previously produced by Encode, validating
// every entry.
func Decode(data []byte) ([]Operation, error) {
	var l list
	if err := msgpack.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("opcodes: decode: %w", err)
	}
	for _, op := range l.Operations {
		if err := op.Validate(); err != nil {
			return nil, err
		}
	}
	return l.Operations, nil
}

// Sparse reports whether every operation in ops can, in principle, be
// realized as a byte-level patch rather than a full re-encode. Rotate and
// flip always require re-encoding pixel data; only EXIF-orientation
// rewrites are sparse-capable.
func Sparse(ops []Operation) bool {
	for _, op := range ops {
		if op.Kind != SetExifOrientation {
			return false
		}
	}
	return true
}
