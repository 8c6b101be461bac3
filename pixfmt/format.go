// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: pixfmt/format.go
// Summary: Enumerates the supported in-memory pixel layouts and their
// static properties (channel count, byte width, alpha premultiplication).
// Usage: Shared between the worker runtime (decode targets) and the host
// frame post-processor (conversion targets).

package pixfmt

// Format is a closed enumeration of pixel layouts a Frame's texture may be
// encoded in. The numeric values are stable across the wire and must not be
// renumbered.
type Format int32

const (
	B8g8r8a8Premultiplied Format = iota
	A8r8g8b8Premultiplied
	R8g8b8a8Premultiplied
	B8g8r8a8
	A8r8g8b8
	R8g8b8a8
	A8b8g8r8
	R8g8b8
	B8g8r8
	R16g16b16
	R16g16b16a16Premultiplied
	R16g16b16a16
	R16g16b16Float
	R16g16b16a16Float
	R32g32b32Float
	R32g32b32a32FloatPremultiplied
	R32g32b32a32Float
	G8a8Premultiplied
	G8a8
	G8
	G16a16Premultiplied
	G16a16
	G16
)

// String returns the wire/config name for f (e.g. "R8g8b8a8").
func (f Format) String() string {
	switch f {
	case B8g8r8a8Premultiplied:
		return "B8g8r8a8Premultiplied"
	case A8r8g8b8Premultiplied:
		return "A8r8g8b8Premultiplied"
	case R8g8b8a8Premultiplied:
		return "R8g8b8a8Premultiplied"
	case B8g8r8a8:
		return "B8g8r8a8"
	case A8r8g8b8:
		return "A8r8g8b8"
	case R8g8b8a8:
		return "R8g8b8a8"
	case A8b8g8r8:
		return "A8b8g8r8"
	case R8g8b8:
		return "R8g8b8"
	case B8g8r8:
		return "B8g8r8"
	case R16g16b16:
		return "R16g16b16"
	case R16g16b16a16Premultiplied:
		return "R16g16b16a16Premultiplied"
	case R16g16b16a16:
		return "R16g16b16a16"
	case R16g16b16Float:
		return "R16g16b16Float"
	case R16g16b16a16Float:
		return "R16g16b16a16Float"
	case R32g32b32Float:
		return "R32g32b32Float"
	case R32g32b32a32FloatPremultiplied:
		return "R32g32b32a32FloatPremultiplied"
	case R32g32b32a32Float:
		return "R32g32b32a32Float"
	case G8a8Premultiplied:
		return "G8a8Premultiplied"
	case G8a8:
		return "G8a8"
	case G8:
		return "G8"
	case G16a16Premultiplied:
		return "G16a16Premultiplied"
	case G16a16:
		return "G16a16"
	case G16:
		return "G16"
	default:
		return "unknown"
	}
}

// ChannelType is the storage type of a single channel value.
type ChannelType int

const (
	U8 ChannelType = iota
	U16
	F16
	F32
)

// Size returns the number of bytes a single channel value occupies.
func (c ChannelType) Size() int {
	switch c {
	case U8:
		return 1
	case U16, F16:
		return 2
	case F32:
		return 4
	default:
		panic("pixfmt: unknown channel type")
	}
}

// NumBytes returns the number of bytes a single pixel occupies in this format.
func (f Format) NumBytes() int {
	switch f {
	case B8g8r8a8Premultiplied, A8r8g8b8Premultiplied, R8g8b8a8Premultiplied,
		B8g8r8a8, A8r8g8b8, R8g8b8a8, A8b8g8r8:
		return 4
	case R8g8b8, B8g8r8:
		return 3
	case R16g16b16, R16g16b16Float:
		return 6
	case R16g16b16a16Premultiplied, R16g16b16a16, R16g16b16a16Float:
		return 8
	case R32g32b32Float:
		return 12
	case R32g32b32a32FloatPremultiplied, R32g32b32a32Float:
		return 16
	case G8a8Premultiplied, G8a8:
		return 2
	case G8:
		return 1
	case G16a16Premultiplied, G16a16:
		return 4
	case G16:
		return 2
	default:
		panic("pixfmt: unknown format")
	}
}

// NumChannels returns the number of channels (R,G,B[,A] or G[,A]) stored per pixel.
func (f Format) NumChannels() int {
	switch f {
	case B8g8r8a8Premultiplied, A8r8g8b8Premultiplied, R8g8b8a8Premultiplied,
		B8g8r8a8, A8r8g8b8, R8g8b8a8, A8b8g8r8,
		R16g16b16a16Premultiplied, R16g16b16a16, R16g16b16a16Float,
		R32g32b32a32FloatPremultiplied, R32g32b32a32Float:
		return 4
	case R8g8b8, B8g8r8, R16g16b16, R16g16b16Float, R32g32b32Float:
		return 3
	case G8a8Premultiplied, G8a8, G16a16Premultiplied, G16a16:
		return 2
	case G8, G16:
		return 1
	default:
		panic("pixfmt: unknown format")
	}
}

// ChannelType returns the storage type of this format's channels.
func (f Format) ChannelType() ChannelType {
	switch f {
	case B8g8r8a8Premultiplied, A8r8g8b8Premultiplied, R8g8b8a8Premultiplied,
		B8g8r8a8, A8r8g8b8, R8g8b8a8, A8b8g8r8, R8g8b8, B8g8r8,
		G8a8Premultiplied, G8a8, G8:
		return U8
	case R16g16b16, R16g16b16a16Premultiplied, R16g16b16a16,
		G16a16Premultiplied, G16a16, G16:
		return U16
	case R16g16b16Float, R16g16b16a16Float:
		return F16
	case R32g32b32Float, R32g32b32a32FloatPremultiplied, R32g32b32a32Float:
		return F32
	default:
		panic("pixfmt: unknown format")
	}
}

// HasAlpha reports whether the format stores an alpha channel.
func (f Format) HasAlpha() bool {
	switch f {
	case B8g8r8a8Premultiplied, A8r8g8b8Premultiplied, R8g8b8a8Premultiplied,
		B8g8r8a8, A8r8g8b8, R8g8b8a8, A8b8g8r8,
		R16g16b16a16Premultiplied, R32g32b32a32FloatPremultiplied, R32g32b32a32Float,
		G8a8Premultiplied, G8a8, R16g16b16a16, R16g16b16a16Float,
		G16a16Premultiplied, G16a16:
		return true
	default:
		return false
	}
}

// IsPremultiplied reports whether stored color channels are pre-multiplied by alpha.
func (f Format) IsPremultiplied() bool {
	switch f {
	case B8g8r8a8Premultiplied, A8r8g8b8Premultiplied, R8g8b8a8Premultiplied,
		R16g16b16a16Premultiplied, R32g32b32a32FloatPremultiplied,
		G8a8Premultiplied, G16a16Premultiplied:
		return true
	default:
		return false
	}
}

// source identifies which of the four packed channels (or the constant 1.0)
// feeds a given RGBA output slot when decoding a pixel.
type source int

const (
	srcC0 source = iota
	srcC1
	srcC2
	srcC3
	srcOpaque
)

// target identifies how a single destination channel is produced from the
// normalized [R,G,B,A] intermediate.
type target int

const (
	tgtR target = iota
	tgtG
	tgtB
	tgtA
	tgtRgbAvg
)

// sourceDefinition returns, in [R,G,B,A] order, which packed channel (or the
// opaque constant) supplies each normalized output slot.
func (f Format) sourceDefinition() [4]source {
	switch f {
	case B8g8r8a8Premultiplied, B8g8r8a8:
		return [4]source{srcC2, srcC1, srcC0, srcC3}
	case A8r8g8b8Premultiplied, A8r8g8b8:
		return [4]source{srcC1, srcC2, srcC3, srcC0}
	case R8g8b8a8Premultiplied, R8g8b8a8, R16g16b16a16Premultiplied, R16g16b16a16,
		R16g16b16a16Float, R32g32b32a32FloatPremultiplied, R32g32b32a32Float:
		return [4]source{srcC0, srcC1, srcC2, srcC3}
	case A8b8g8r8:
		return [4]source{srcC3, srcC2, srcC1, srcC0}
	case R8g8b8, R16g16b16, R16g16b16Float, R32g32b32Float:
		return [4]source{srcC0, srcC1, srcC2, srcOpaque}
	case B8g8r8:
		return [4]source{srcC2, srcC1, srcC0, srcOpaque}
	case G8a8Premultiplied, G8a8, G16a16Premultiplied, G16a16:
		return [4]source{srcC0, srcC0, srcC0, srcC1}
	case G8, G16:
		return [4]source{srcC0, srcC0, srcC0, srcOpaque}
	default:
		panic("pixfmt: unknown format")
	}
}

// targetDefinition returns, per emitted channel in storage order, how to
// derive its value from the normalized [R,G,B,A] intermediate.
func (f Format) targetDefinition() []target {
	switch f {
	case B8g8r8a8Premultiplied, B8g8r8a8:
		return []target{tgtB, tgtG, tgtR, tgtA}
	case A8r8g8b8Premultiplied, A8r8g8b8:
		return []target{tgtA, tgtR, tgtG, tgtB}
	case R8g8b8a8Premultiplied, R8g8b8a8, R16g16b16a16Premultiplied, R16g16b16a16,
		R16g16b16a16Float, R32g32b32a32FloatPremultiplied, R32g32b32a32Float:
		return []target{tgtR, tgtG, tgtB, tgtA}
	case A8b8g8r8:
		return []target{tgtA, tgtB, tgtG, tgtR}
	case R8g8b8, R16g16b16, R16g16b16Float, R32g32b32Float:
		return []target{tgtR, tgtG, tgtB}
	case B8g8r8:
		return []target{tgtB, tgtG, tgtR}
	case G8a8Premultiplied, G8a8, G16a16Premultiplied, G16a16:
		return []target{tgtRgbAvg, tgtA}
	case G8, G16:
		return []target{tgtRgbAvg}
	default:
		panic("pixfmt: unknown format")
	}
}

// ExtendedFormat adds source-only layouts the host never renders, such as
// planar chroma subsampled formats emitted by some decoders.
type ExtendedFormat struct {
	basic    Format
	extended extendedKind
	isBasic  bool
}

type extendedKind int

const (
	y8Cb8Cr8 extendedKind = iota
)

// Y8Cb8Cr8 is the planar Y/Cb/Cr source-only extended format.
var Y8Cb8Cr8 = ExtendedFormat{extended: y8Cb8Cr8}

// Basic wraps a renderable Format as an ExtendedFormat.
func Basic(f Format) ExtendedFormat {
	return ExtendedFormat{basic: f, isBasic: true}
}

// IsBasic reports whether this extended format is a plain renderable Format.
func (e ExtendedFormat) IsBasic() bool { return e.isBasic }

// Format returns the underlying Format; valid only when IsBasic is true.
func (e ExtendedFormat) Format() Format { return e.basic }

// NumBytes returns the per-pixel byte size, including for source-only formats.
func (e ExtendedFormat) NumBytes() int {
	if e.isBasic {
		return e.basic.NumBytes()
	}
	switch e.extended {
	case y8Cb8Cr8:
		return 3
	default:
		panic("pixfmt: unknown extended format")
	}
}

// NumChannels returns the channel count, including for source-only formats.
func (e ExtendedFormat) NumChannels() int {
	if e.isBasic {
		return e.basic.NumChannels()
	}
	switch e.extended {
	case y8Cb8Cr8:
		return 3
	default:
		panic("pixfmt: unknown extended format")
	}
}
