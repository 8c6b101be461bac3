// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: wire/types.go
// Summary: Typed dictionaries exchanged over the message bus between host
// and worker. Every struct here is MessagePack-encoded as a map, so
// receivers tolerate unknown fields and senders only encode fields that
// are actually set (forward compatibility, per the wire protocol's
// dictionary-typed payloads).
// Notes: Ported field-for-field from the upstream dbus_types.rs /
// dbus_editor_api.rs dictionaries.

package wire

import (
	"time"

	"github.com/glycin-go/glycin/pixfmt"
)

// Handle is a bus-local reference to a file descriptor carried alongside a
// message's payload. It is an index into that message's out-of-band file
// list, not a process-global fd number.
type Handle uint32

// InitRequest is sent once per worker process; ownership of the source fd
// moves to the worker.
type InitRequest struct {
	Source  Handle                `msgpack:"source_fd"`
	Mime    string                `msgpack:"mime_type"`
	Details InitializationDetails `msgpack:"details"`
}

// InitializationDetails carries optional context for a worker's init call.
type InitializationDetails struct {
	BaseDir string `msgpack:"base_dir,omitempty"`
}

// FrameRequest is a hint to the worker about how to decode the next frame.
// Whether a worker honors Scale or Clip is decoder-dependent.
type FrameRequest struct {
	HasScale bool      `msgpack:"-"`
	Scale    [2]uint32 `msgpack:"scale,omitempty"`
	HasClip  bool      `msgpack:"-"`
	Clip     [4]uint32 `msgpack:"clip,omitempty"` // x, y, width, height
}

// ImageInfo is returned from InitRequest. Width/Height are early estimates;
// per-frame fields take precedence when they differ.
type ImageInfo struct {
	Width                  uint32            `msgpack:"width"`
	Height                 uint32            `msgpack:"height"`
	FormatName             string            `msgpack:"format_name,omitempty"`
	Exif                   *Handle           `msgpack:"exif,omitempty"`
	Xmp                    *Handle           `msgpack:"xmp,omitempty"`
	KeyValue               map[string]string `msgpack:"key_value,omitempty"`
	TransformationsApplied bool              `msgpack:"transformations_applied"`
	DimensionsText         string            `msgpack:"dimensions_text,omitempty"`
	HasDimensionsInch      bool              `msgpack:"-"`
	DimensionsInch         [2]float64        `msgpack:"dimensions_inch,omitempty"`
}

// Frame is one decoded image frame.
type Frame struct {
	Width        uint32        `msgpack:"width"`
	Height       uint32        `msgpack:"height"`
	Stride       uint32        `msgpack:"stride"`
	MemoryFormat pixfmt.Format `msgpack:"memory_format"`
	Texture      Handle        `msgpack:"texture"`
	HasDelay     bool          `msgpack:"-"`
	Delay        time.Duration `msgpack:"delay,omitempty"`
	Details      FrameDetails  `msgpack:"details"`
}

// NBytes returns the declared byte size of the frame's texture, stride*height.
func (f Frame) NBytes() uint64 {
	return uint64(f.Stride) * uint64(f.Height)
}

// FrameDetails carries optional per-frame metadata. BitDepth, AlphaChannel,
// and Grayscale are only set when the underlying format admits variation.
type FrameDetails struct {
	Iccp         *Handle `msgpack:"iccp,omitempty"`
	Cicp         []byte  `msgpack:"cicp,omitempty"`
	HasBitDepth  bool    `msgpack:"-"`
	BitDepth     uint8   `msgpack:"bit_depth,omitempty"`
	HasAlpha     bool    `msgpack:"-"`
	AlphaChannel bool    `msgpack:"alpha_channel,omitempty"`
	HasGray      bool    `msgpack:"-"`
	Grayscale    bool    `msgpack:"grayscale,omitempty"`
	HasNFrame    bool    `msgpack:"-"`
	NFrame       uint64  `msgpack:"n_frame,omitempty"`
}

// EditRequest carries the MessagePack-encoded operation list inside a memfd.
type EditRequest struct {
	Operations Handle `msgpack:"operations"`
}

// ApplyRequest bundles the two dictionary arguments the Editor interface's
// apply/apply_complete methods take, since an envelope carries one body.
type ApplyRequest struct {
	Init InitRequest `msgpack:"init"`
	Edit EditRequest `msgpack:"edit"`
}

// ByteChange is a single-byte in-place file patch.
type ByteChange struct {
	Offset   uint64 `msgpack:"offset"`
	NewValue byte   `msgpack:"new_value"`
}

// ByteChanges is an ordered list of single-byte patches. Offsets need not be
// unique; later entries win.
type ByteChanges struct {
	Changes []ByteChange `msgpack:"changes"`
}

// Apply mutates data in place per the ordered change list.
func (b ByteChanges) Apply(data []byte) {
	for _, c := range b.Changes {
		if c.Offset < uint64(len(data)) {
			data[c.Offset] = c.NewValue
		}
	}
}

// EditorOutputInfo describes properties of an edit's output.
type EditorOutputInfo struct {
	Lossless bool `msgpack:"lossless"`
}

// CompleteEditorOutput is a full rewritten image.
type CompleteEditorOutput struct {
	Data Handle           `msgpack:"data"`
	Info EditorOutputInfo `msgpack:"info"`
}

// SparseEditorOutput carries either ByteChanges or Data, never both, never
// neither; violating that is a protocol error (see editor package).
type SparseEditorOutput struct {
	ByteChanges *ByteChanges     `msgpack:"byte_changes,omitempty"`
	Data        *Handle          `msgpack:"data,omitempty"`
	Info        EditorOutputInfo `msgpack:"info"`
}
