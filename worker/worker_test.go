// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: worker/worker_test.go

//go:build linux

package worker

import (
	"context"
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/glycin-go/glycin/internal/opcodes"
	"github.com/glycin-go/glycin/memfd"
	"github.com/glycin-go/glycin/pixfmt"
	"github.com/glycin-go/glycin/protocol"
	"github.com/glycin-go/glycin/wire"
)

type fakeLoader struct{}

func (fakeLoader) Init(ctx context.Context, source *os.File, mime string, details wire.InitializationDetails) (DecodedImage, error) {
	if mime != "image/png" {
		return DecodedImage{}, UnsupportedFormat(mime)
	}
	return DecodedImage{Width: 4, Height: 4, FormatName: "png"}, nil
}

func (fakeLoader) Frame(ctx context.Context, req wire.FrameRequest) (DecodedFrame, error) {
	f, err := memfd.Create("frame")
	if err != nil {
		return DecodedFrame{}, InternalError(err)
	}
	data := make([]byte, 4*4*4)
	memfd.Truncate(f, int64(len(data)))
	f.WriteAt(data, 0)
	memfd.Seal(f)
	return DecodedFrame{Width: 4, Height: 4, Stride: 16, MemoryFormat: pixfmt.R8g8b8a8, Texture: f}, nil
}

type fakeEditor struct{}

func (fakeEditor) ApplyComplete(ctx context.Context, source *os.File, mime string, details wire.InitializationDetails, ops []opcodes.Operation) (CompleteEdit, error) {
	f, err := memfd.Create("edited")
	if err != nil {
		return CompleteEdit{}, InternalError(err)
	}
	memfd.Truncate(f, 4)
	f.WriteAt([]byte("edit"), 0)
	memfd.Seal(f)
	return CompleteEdit{Data: f, Lossless: false}, nil
}

func newWorkerTestPair(t *testing.T) (*protocol.Conn, *protocol.Conn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	hostConn, err := protocol.NewConn(os.NewFile(uintptr(fds[0]), "host"))
	if err != nil {
		t.Fatalf("new host conn: %v", err)
	}
	workerConn, err := protocol.NewConn(os.NewFile(uintptr(fds[1]), "worker"))
	if err != nil {
		t.Fatalf("new worker conn: %v", err)
	}
	t.Cleanup(func() { hostConn.Close(); workerConn.Close() })
	// The host side must run its receive loop for Call to see replies.
	go hostConn.Serve(context.Background(), nil)
	return hostConn, workerConn
}

func TestServeInitAndFrame(t *testing.T) {
	host, workerSide := newWorkerTestPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &dispatcher{loader: fakeLoader{}, editor: fakeEditor{}}
	go workerSide.Serve(ctx, d.handle)

	src, err := memfd.Create("source")
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	defer src.Close()

	initReq := wire.InitRequest{Mime: "image/png"}
	initBody, _ := protocol.EncodeBody(initReq)

	callCtx, callCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer callCancel()
	respBody, respFiles, err := host.Call(callCtx, protocol.InterfaceLoader, "init", initBody, []*os.File{src})
	if err != nil {
		t.Fatalf("init call: %v", err)
	}
	var info wire.ImageInfo
	if err := protocol.DecodeBody(respBody, &info); err != nil {
		t.Fatalf("decode image info: %v", err)
	}
	if info.Width != 4 || info.Height != 4 {
		t.Fatalf("unexpected image info: %+v", info)
	}
	for _, f := range respFiles {
		f.Close()
	}

	frameBody, _ := protocol.EncodeBody(wire.FrameRequest{})
	respBody, respFiles, err = host.Call(callCtx, protocol.InterfaceLoader, "frame", frameBody, nil)
	if err != nil {
		t.Fatalf("frame call: %v", err)
	}
	var frame wire.Frame
	if err := protocol.DecodeBody(respBody, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Stride != 16 || len(respFiles) != 1 {
		t.Fatalf("unexpected frame: %+v files=%d", frame, len(respFiles))
	}
	for _, f := range respFiles {
		f.Close()
	}
}

func TestServeUnsupportedFormat(t *testing.T) {
	host, workerSide := newWorkerTestPair(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := &dispatcher{loader: fakeLoader{}}
	go workerSide.Serve(ctx, d.handle)

	src, _ := memfd.Create("source")
	defer src.Close()
	initReq := wire.InitRequest{Mime: "image/x-unknown"}
	body, _ := protocol.EncodeBody(initReq)

	callCtx, callCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer callCancel()
	_, _, err := host.Call(callCtx, protocol.InterfaceLoader, "init", body, []*os.File{src})
	if err == nil {
		t.Fatalf("expected unsupported format error")
	}
	ce, ok := err.(*protocol.CallError)
	if !ok {
		t.Fatalf("expected *protocol.CallError, got %T", err)
	}
	if ce.Name != ErrNameUnsupportedFormat {
		t.Fatalf("unexpected error name %q", ce.Name)
	}
}

func TestServeApplyDefaultsToNonSparse(t *testing.T) {
	host, workerSide := newWorkerTestPair(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := &dispatcher{loader: fakeLoader{}, editor: fakeEditor{}}
	go workerSide.Serve(ctx, d.handle)

	src, _ := memfd.Create("source")
	defer src.Close()

	opsFile, err := memfd.Create("ops")
	if err != nil {
		t.Fatalf("create ops memfd: %v", err)
	}
	defer opsFile.Close()
	encoded, err := opcodes.Encode([]opcodes.Operation{{Kind: opcodes.Rotate, Degrees: 90}})
	if err != nil {
		t.Fatalf("encode ops: %v", err)
	}
	memfd.Truncate(opsFile, int64(len(encoded)))
	opsFile.WriteAt(encoded, 0)

	req := wire.ApplyRequest{
		Init: wire.InitRequest{Source: 0, Mime: "image/png"},
		Edit: wire.EditRequest{Operations: 1},
	}
	body, _ := protocol.EncodeBody(req)

	callCtx, callCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer callCancel()
	respBody, respFiles, err := host.Call(callCtx, protocol.InterfaceEditor, "apply", body, []*os.File{src, opsFile})
	if err != nil {
		t.Fatalf("apply call: %v", err)
	}
	var out wire.SparseEditorOutput
	if err := protocol.DecodeBody(respBody, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ByteChanges != nil || out.Data == nil {
		t.Fatalf("expected a non-sparse data result, got %+v", out)
	}
	for _, f := range respFiles {
		f.Close()
	}
}
