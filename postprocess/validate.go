// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: postprocess/validate.go
// Summary: The invariants every Frame reply must satisfy before its pixels
// are trusted: non-zero dimensions, a stride wide enough for one packed
// row, and a texture buffer at least stride*height bytes.

package postprocess

import (
	"math"

	"github.com/glycin-go/glycin/wire"
)

// maxTextureBytes bounds stride*height, matching the spec's 8e9 byte cap.
const maxTextureBytes = 8_000_000_000

// Validate checks frame against the invariants a decoded texture must
// satisfy. textureLen is the length of the mapped texture buffer.
func Validate(frame wire.Frame, textureLen int) error {
	if frame.Width == 0 || frame.Height == 0 {
		return ErrWidthOrHeightZero
	}
	if frame.Width > math.MaxInt32 || frame.Height > math.MaxInt32 {
		return ErrDimensionOverflow
	}

	bpp := uint64(frame.MemoryFormat.NumBytes())
	if uint64(frame.Stride) < uint64(frame.Width)*bpp {
		return ErrStrideTooSmall
	}

	if frame.Height != 0 && uint64(frame.Stride) > maxTextureBytes/uint64(frame.Height) {
		return ErrTextureTooLarge
	}
	total := uint64(frame.Stride) * uint64(frame.Height)
	if total > maxTextureBytes {
		return ErrTextureTooLarge
	}

	if uint64(textureLen) < total {
		return ErrTextureTooSmall
	}
	return nil
}
