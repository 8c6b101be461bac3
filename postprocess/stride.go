// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: postprocess/stride.go
// Summary: Tight-packs a frame's rows in place when its stride carries
// padding, since ICC transform and texture upload both expect
// stride == width*bytes-per-pixel.

package postprocess

import "github.com/glycin-go/glycin/wire"

// removeStrideIfNeeded compacts mapping's rows to width*bpp each, updates
// frame.Stride, and returns the new total length. Rows are copied forward
// (destination offset never exceeds source offset), so the compaction is
// safe to perform on the buffer in place. A stride that is already a
// multiple of bpp (including plain width*bpp, but also larger
// alignment-padded strides) is left untouched; only a stride that isn't a
// whole multiple of the pixel size forces compaction.
func removeStrideIfNeeded(mapping []byte, frame *wire.Frame) int {
	bpp := uint64(frame.MemoryFormat.NumBytes())
	if uint64(frame.Stride)%bpp == 0 {
		return len(mapping)
	}
	widthBytes := uint64(frame.Width) * bpp

	for row := uint64(0); row < uint64(frame.Height); row++ {
		src := row * uint64(frame.Stride)
		dst := row * widthBytes
		copy(mapping[dst:dst+widthBytes], mapping[src:src+widthBytes])
	}

	frame.Stride = uint32(widthBytes)
	return int(widthBytes * uint64(frame.Height))
}
