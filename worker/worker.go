// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: worker/worker.go
// Summary: The per-process worker runtime: takes ownership of fd 0,
// builds the peer-to-peer bus over it, and dispatches Loader/Editor
// calls to an implementation.
// Notes: Grounded on instruction_handler.rs's Communication::connect
// (stdin ownership, anonymous p2p bus, serve_at registration) and on
// texelation's connection.go dispatch-by-message-type loop, generalized
// from a diff stream to a call/return RPC.

package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/glycin-go/glycin/internal/opcodes"
	"github.com/glycin-go/glycin/memfd"
	"github.com/glycin-go/glycin/pixfmt"
	"github.com/glycin-go/glycin/protocol"
	"github.com/glycin-go/glycin/wire"
)

// DecodedImage is what a LoaderImplementation reports from Init.
type DecodedImage struct {
	Width                  uint32
	Height                 uint32
	FormatName             string
	Exif                   *os.File
	Xmp                    *os.File
	KeyValue               map[string]string
	TransformationsApplied bool
	DimensionsText         string
	DimensionsInch         *[2]float64
}

// DecodedFrame is what a LoaderImplementation reports from Frame.
type DecodedFrame struct {
	Width        uint32
	Height       uint32
	Stride       uint32
	MemoryFormat pixfmt.Format
	Texture      *os.File
	Delay        *time.Duration
	Iccp         *os.File
	Cicp         []byte
	BitDepth     *uint8
	AlphaChannel *bool
	Grayscale    *bool
	NFrame       *uint64
}

// CompleteEdit is what an EditorImplementation reports from ApplyComplete.
type CompleteEdit struct {
	Data     *os.File
	Lossless bool
}

// SparseEdit is what an EditorImplementation reports from ApplySparse.
// Exactly one of ByteChanges or Data must be set.
type SparseEdit struct {
	ByteChanges []wire.ByteChange
	Data        *os.File
	Lossless    bool
}

// LoaderImplementation decodes one image across its lifetime: one Init call
// followed by zero or more Frame calls.
type LoaderImplementation interface {
	Init(ctx context.Context, source *os.File, mime string, details wire.InitializationDetails) (DecodedImage, error)
	Frame(ctx context.Context, req wire.FrameRequest) (DecodedFrame, error)
}

// EditorImplementation applies an edit operation list to a source image.
type EditorImplementation interface {
	ApplyComplete(ctx context.Context, source *os.File, mime string, details wire.InitializationDetails, ops []opcodes.Operation) (CompleteEdit, error)
}

// SparseApplier is an optional EditorImplementation capability: if present,
// it is tried first for the apply (non-"_complete") method. When absent,
// Serve synthesizes a sparse result that simply wraps ApplyComplete's full
// rewrite.
type SparseApplier interface {
	ApplySparse(ctx context.Context, source *os.File, mime string, details wire.InitializationDetails, ops []opcodes.Operation) (SparseEdit, error)
}

// Serve takes ownership of file descriptor 0 (the handshake socket), wires
// it into a protocol.Conn, and dispatches incoming calls until ctx is
// cancelled or the connection closes. editor may be nil: a worker that only
// decodes registers no Editor interface.
func Serve(ctx context.Context, loader LoaderImplementation, editor EditorImplementation) error {
	stdin := os.NewFile(0, "glycin-bus")
	conn, err := protocol.NewConn(stdin)
	if err != nil {
		return fmt.Errorf("worker: wrap stdin: %w", err)
	}
	defer conn.Close()

	debugLog.Printf("serving loader, editor present=%v", editor != nil)

	d := &dispatcher{loader: loader, editor: editor}
	return conn.Serve(ctx, d.handle)
}

// dispatcher routes calls to the implementations. Conn.Serve runs each
// incoming call on its own goroutine; mu serializes them.
type dispatcher struct {
	mu     sync.Mutex
	loader LoaderImplementation
	editor EditorImplementation
}

func (d *dispatcher) handle(ctx context.Context, env protocol.Envelope, files []*os.File) ([]byte, []*os.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch env.Interface {
	case protocol.InterfaceLoader:
		return d.handleLoader(ctx, env, files)
	case protocol.InterfaceEditor:
		if d.editor == nil {
			return nil, nil, UnsupportedFormat("(no editor configured)")
		}
		return d.handleEditor(ctx, env, files)
	default:
		return nil, nil, &RemoteError{Name: ErrNameInternalLoaderError, Message: "unknown interface " + env.Interface}
	}
}

func (d *dispatcher) handleLoader(ctx context.Context, env protocol.Envelope, files []*os.File) ([]byte, []*os.File, error) {
	switch env.Method {
	case "init":
		var req wire.InitRequest
		if err := protocol.DecodeBody(env.Body, &req); err != nil {
			return nil, nil, InternalError(err)
		}
		source, err := req.Source.Resolve(files)
		if err != nil {
			return nil, nil, InternalError(err)
		}
		decoded, err := d.loader.Init(ctx, source, req.Mime, req.Details)
		if err != nil {
			return nil, nil, asRemoteError(err)
		}
		var fs wire.FileSet
		info := wire.ImageInfo{
			Width:                  decoded.Width,
			Height:                 decoded.Height,
			FormatName:             decoded.FormatName,
			KeyValue:               decoded.KeyValue,
			TransformationsApplied: decoded.TransformationsApplied,
			DimensionsText:         decoded.DimensionsText,
		}
		if decoded.Exif != nil {
			h := fs.Add(decoded.Exif)
			info.Exif = &h
		}
		if decoded.Xmp != nil {
			h := fs.Add(decoded.Xmp)
			info.Xmp = &h
		}
		if decoded.DimensionsInch != nil {
			info.DimensionsInch = *decoded.DimensionsInch
		}
		body, err := protocol.EncodeBody(info)
		if err != nil {
			return nil, nil, InternalError(err)
		}
		return body, fs.Files(), nil

	case "frame":
		var req wire.FrameRequest
		if err := protocol.DecodeBody(env.Body, &req); err != nil {
			return nil, nil, InternalError(err)
		}
		decoded, err := d.loader.Frame(ctx, req)
		if err != nil {
			return nil, nil, asRemoteError(err)
		}
		var fs wire.FileSet
		frame := wire.Frame{
			Width:        decoded.Width,
			Height:       decoded.Height,
			Stride:       decoded.Stride,
			MemoryFormat: decoded.MemoryFormat,
		}
		if decoded.Texture != nil {
			frame.Texture = fs.Add(decoded.Texture)
		}
		if decoded.Delay != nil {
			frame.Delay = *decoded.Delay
		}
		if decoded.Iccp != nil {
			h := fs.Add(decoded.Iccp)
			frame.Details.Iccp = &h
		}
		frame.Details.Cicp = decoded.Cicp
		if decoded.BitDepth != nil {
			frame.Details.BitDepth = *decoded.BitDepth
		}
		if decoded.AlphaChannel != nil {
			frame.Details.AlphaChannel = *decoded.AlphaChannel
		}
		if decoded.Grayscale != nil {
			frame.Details.Grayscale = *decoded.Grayscale
		}
		if decoded.NFrame != nil {
			frame.Details.NFrame = *decoded.NFrame
		}
		body, err := protocol.EncodeBody(frame)
		if err != nil {
			return nil, nil, InternalError(err)
		}
		return body, fs.Files(), nil

	default:
		return nil, nil, &RemoteError{Name: ErrNameInternalLoaderError, Message: "unknown loader method " + env.Method}
	}
}

func (d *dispatcher) handleEditor(ctx context.Context, env protocol.Envelope, files []*os.File) ([]byte, []*os.File, error) {
	var req wire.ApplyRequest
	if err := protocol.DecodeBody(env.Body, &req); err != nil {
		return nil, nil, InternalError(err)
	}
	source, err := req.Init.Source.Resolve(files)
	if err != nil {
		return nil, nil, InternalError(err)
	}
	opsFile, err := req.Edit.Operations.Resolve(files)
	if err != nil {
		return nil, nil, InternalError(err)
	}
	raw, err := memfd.MapReadOnly(opsFile)
	if err != nil {
		return nil, nil, InternalError(err)
	}
	ops, err := opcodes.Decode(raw)
	memfd.Unmap(raw)
	if err != nil {
		return nil, nil, InternalError(err)
	}

	switch env.Method {
	case "apply":
		if sparse, ok := d.editor.(SparseApplier); ok {
			result, err := sparse.ApplySparse(ctx, source, req.Init.Mime, req.Init.Details, ops)
			if err != nil {
				return nil, nil, asRemoteError(err)
			}
			return encodeSparseOutput(result)
		}
		complete, err := d.editor.ApplyComplete(ctx, source, req.Init.Mime, req.Init.Details, ops)
		if err != nil {
			return nil, nil, asRemoteError(err)
		}
		return encodeSparseOutput(SparseEdit{Data: complete.Data, Lossless: complete.Lossless})

	case "apply_complete":
		complete, err := d.editor.ApplyComplete(ctx, source, req.Init.Mime, req.Init.Details, ops)
		if err != nil {
			return nil, nil, asRemoteError(err)
		}
		var fs wire.FileSet
		out := wire.CompleteEditorOutput{Info: wire.EditorOutputInfo{Lossless: complete.Lossless}}
		if complete.Data != nil {
			out.Data = fs.Add(complete.Data)
		}
		body, err := protocol.EncodeBody(out)
		if err != nil {
			return nil, nil, InternalError(err)
		}
		return body, fs.Files(), nil

	default:
		return nil, nil, &RemoteError{Name: ErrNameInternalLoaderError, Message: "unknown editor method " + env.Method}
	}
}

func encodeSparseOutput(result SparseEdit) ([]byte, []*os.File, error) {
	var fs wire.FileSet
	out := wire.SparseEditorOutput{Info: wire.EditorOutputInfo{Lossless: result.Lossless}}
	if len(result.ByteChanges) > 0 {
		out.ByteChanges = &wire.ByteChanges{Changes: result.ByteChanges}
	} else if result.Data != nil {
		h := fs.Add(result.Data)
		out.Data = &h
	}
	body, err := protocol.EncodeBody(out)
	if err != nil {
		return nil, nil, InternalError(err)
	}
	return body, fs.Files(), nil
}

func asRemoteError(err error) error {
	if re, ok := err.(*RemoteError); ok {
		return re
	}
	return InternalError(err)
}
