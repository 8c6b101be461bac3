// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: image.go
// Summary: A decoded image session: one worker, zero or more post-processed
// frames pulled from it on demand.

package glycin

import (
	"context"
	"os"

	"github.com/glycin-go/glycin/postprocess"
	"github.com/glycin-go/glycin/protocol"
	"github.com/glycin-go/glycin/sandbox"
	"github.com/glycin-go/glycin/wire"
)

// Image owns exactly one RemoteProcess for the lifetime of its decode
// session; the object graph is a tree, per the design's ownership rule.
type Image struct {
	rp   *sandbox.RemoteProcess
	info wire.ImageInfo
	opts postprocess.Options
}

// Info returns the metadata returned by the worker's init call.
func (img *Image) Info() wire.ImageInfo {
	return img.info
}

// NextFrame requests and post-processes the next frame from the worker.
func (img *Image) NextFrame(ctx context.Context) (*postprocess.Frame, error) {
	body, err := protocol.EncodeBody(wire.FrameRequest{})
	if err != nil {
		return nil, wrapError(KindBus, err)
	}

	respBody, files, err := img.rp.Conn().Call(ctx, protocol.InterfaceLoader, "frame", body, nil)
	if err != nil {
		return nil, mapCallError(err, img.info.FormatName)
	}

	var raw wire.Frame
	if err := protocol.DecodeBody(respBody, &raw); err != nil {
		return nil, wrapError(KindBus, err)
	}

	texture, err := raw.Texture.Resolve(files)
	if err != nil {
		return nil, wrapError(KindBus, err)
	}

	var iccp *os.File
	if raw.Details.Iccp != nil {
		iccp, err = raw.Details.Iccp.Resolve(files)
		if err != nil {
			return nil, wrapError(KindBus, err)
		}
	}

	frame, err := postprocess.Process(raw, texture, iccp, img.opts, nil, nil)
	if err != nil {
		return nil, mapPostprocessError(err)
	}
	return &frame, nil
}

// Close kills the backing worker, releasing its process and bus
// connection. Safe to call more than once.
func (img *Image) Close() error {
	img.rp.Kill()
	return nil
}

func mapPostprocessError(err error) *Error {
	switch {
	case err == postprocess.ErrWidthOrHeightZero:
		return &Error{Kind: KindWidthOrHeightZero, Err: err}
	case err == postprocess.ErrStrideTooSmall:
		return &Error{Kind: KindStrideTooSmall, Err: err}
	case err == postprocess.ErrTextureTooSmall:
		return &Error{Kind: KindTextureTooSmall, Err: err}
	case err == postprocess.ErrTextureTooLarge:
		return &Error{Kind: KindTextureTooLarge, Err: err}
	case err == postprocess.ErrDimensionOverflow:
		return &Error{Kind: KindDimensionOverflow, Err: err}
	default:
		return wrapError(KindMemFd, err)
	}
}
