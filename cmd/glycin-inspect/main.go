// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: cmd/glycin-inspect/main.go
// Summary: A smoke-test CLI exercising the public API end to end: decode a
// file, print its ImageInfo, then walk its frames.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/glycin-go/glycin"
	"github.com/glycin-go/glycin/sandbox"
)

func main() {
	verbose := flag.Bool("verbose", false, "enable verbose sandbox/worker logging")
	applyTransformations := flag.Bool("apply-transformations", false, "set the loader's ApplyTransformations option (no orientation step is wired in)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: glycin-inspect [flags] <image-file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	if *verbose {
		sandbox.SetVerboseLogging(true)
	}

	ctx := context.Background()
	img, err := glycin.NewLoader(path).ApplyTransformations(*applyTransformations).Load(ctx)
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	defer img.Close()

	info := img.Info()
	fmt.Printf("format: %s\n", info.FormatName)
	fmt.Printf("dimensions: %dx%d\n", info.Width, info.Height)
	if info.DimensionsText != "" {
		fmt.Printf("physical size: %s\n", info.DimensionsText)
	}

	frameIndex := 0
	for {
		frame, err := img.NextFrame(ctx)
		if err != nil {
			if frameIndex == 0 {
				log.Fatalf("frame %d: %v", frameIndex, err)
			}
			break
		}
		fmt.Printf("frame %d: %dx%d stride=%d format=%v color_state=%v\n",
			frameIndex, frame.Width, frame.Height, frame.Stride, frame.Format, frame.ColorState)
		frame.Close()

		if !frame.HasDelay {
			break
		}
		frameIndex++
	}
}
