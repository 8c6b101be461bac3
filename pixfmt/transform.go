// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: pixfmt/transform.go
// Summary: Bit-exact conversion between any two basic pixel formats via a
// normalized float32 intermediate.
// Notes: Ported from the upstream Rust memory_format.rs to_f32/from_f32
// pipeline: decode source channels, unpremultiply, map into [R,G,B,A],
// then map back out to the destination's channel layout, premultiplying
// and quantizing as needed.

package pixfmt

import (
	"encoding/binary"
	"math"
)

// Transform converts one pixel stored as src (in srcFmt) into dst (in
// dstFmt). Both buffers must be exactly sized for a single pixel of their
// respective format. dstFmt must be a basic (renderable) format.
func Transform(srcFmt Format, src []byte, dstFmt Format, dst []byte) error {
	if len(src) != srcFmt.NumBytes() || len(dst) != dstFmt.NumBytes() {
		return ErrSizeMismatch
	}
	channels, err := toF32(srcFmt, src)
	if err != nil {
		return err
	}
	return fromF32(channels, dstFmt, dst)
}

// toF32 decodes a single packed pixel into its normalized [R,G,B,A] values.
func toF32(srcFormat Format, src []byte) ([4]float32, error) {
	var packed [4]float32
	ct := srcFormat.ChannelType()
	size := ct.Size()
	n := srcFormat.NumChannels()

	for i := 0; i < n; i++ {
		chunk := src[i*size : (i+1)*size]
		switch ct {
		case U8:
			packed[i] = float32(chunk[0]) / 255.0
		case U16:
			v := binary.NativeEndian.Uint16(chunk)
			packed[i] = float32(v) / 65535.0
		case F16:
			v := float16(binary.NativeEndian.Uint16(chunk))
			packed[i] = v.toFloat32()
		case F32:
			bits := binary.NativeEndian.Uint32(chunk)
			packed[i] = math.Float32frombits(bits)
		}
	}

	def := srcFormat.sourceDefinition()
	var out [4]float32
	for slot, s := range def {
		switch s {
		case srcC0:
			out[slot] = packed[0]
		case srcC1:
			out[slot] = packed[1]
		case srcC2:
			out[slot] = packed[2]
		case srcC3:
			out[slot] = packed[3]
		case srcOpaque:
			out[slot] = 1.0
		}
	}

	if srcFormat.IsPremultiplied() {
		out[0] /= out[3]
		out[1] /= out[3]
		out[2] /= out[3]
	}

	return out, nil
}

// fromF32 encodes normalized [R,G,B,A] values into a packed destination pixel.
func fromF32(channels [4]float32, dstFormat Format, dst []byte) error {
	ct := dstFormat.ChannelType()
	size := ct.Size()
	def := dstFormat.targetDefinition()
	if len(dst) != len(def)*size {
		return ErrSizeMismatch
	}

	premultiply := float32(1.0)
	if dstFormat.IsPremultiplied() {
		premultiply = channels[3]
	}

	for i, d := range def {
		var v float32
		switch d {
		case tgtR:
			v = channels[0] * premultiply
		case tgtG:
			v = channels[1] * premultiply
		case tgtB:
			v = channels[2] * premultiply
		case tgtA:
			v = channels[3]
		case tgtRgbAvg:
			v = (channels[0] + channels[1] + channels[2]) / 3.0
		}

		chunk := dst[i*size : (i+1)*size]
		switch ct {
		case U8:
			chunk[0] = quantizeU8(v)
		case U16:
			binary.NativeEndian.PutUint16(chunk, quantizeU16(v))
		case F16:
			binary.NativeEndian.PutUint16(chunk, uint16(float16FromFloat32(v)))
		case F32:
			binary.NativeEndian.PutUint32(chunk, math.Float32bits(v))
		}
	}

	return nil
}

func quantizeU8(v float32) byte {
	r := math.Round(float64(v) * 255.0)
	return byte(clampRound(r, 0, 255))
}

func quantizeU16(v float32) uint16 {
	r := math.Round(float64(v) * 65535.0)
	return uint16(clampRound(r, 0, 65535))
}

func clampRound(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
