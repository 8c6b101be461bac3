// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: postprocess/convert.go
// Summary: Converts a whole decoded frame's pixels to the application's
// requested target format, one pixel at a time via pixfmt.Transform,
// writing the result into a fresh memfd.

package postprocess

import (
	"fmt"
	"os"

	"github.com/glycin-go/glycin/memfd"
	"github.com/glycin-go/glycin/pixfmt"
	"github.com/glycin-go/glycin/wire"
)

// convertFormat re-encodes src (laid out per frame's current format and
// stride) into target, returning a new, not yet sealed memfd holding the
// tightly packed result and its stride.
func convertFormat(src []byte, frame wire.Frame, target pixfmt.Format) (*os.File, uint32, error) {
	srcBpp := frame.MemoryFormat.NumBytes()
	dstBpp := target.NumBytes()
	dstStride := int(frame.Width) * dstBpp

	out := make([]byte, dstStride*int(frame.Height))
	for y := 0; y < int(frame.Height); y++ {
		srcRow := src[y*int(frame.Stride):]
		dstRow := out[y*dstStride:]
		for x := 0; x < int(frame.Width); x++ {
			srcPixel := srcRow[x*srcBpp : x*srcBpp+srcBpp]
			dstPixel := dstRow[x*dstBpp : x*dstBpp+dstBpp]
			if err := pixfmt.Transform(frame.MemoryFormat, srcPixel, target, dstPixel); err != nil {
				return nil, 0, fmt.Errorf("postprocess: convert pixel (%d,%d): %w", x, y, err)
			}
		}
	}

	f, err := memfd.Create("glycin-converted")
	if err != nil {
		return nil, 0, err
	}
	if err := memfd.Truncate(f, int64(len(out))); err != nil {
		f.Close()
		return nil, 0, err
	}
	if _, err := f.WriteAt(out, 0); err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, uint32(dstStride), nil
}
