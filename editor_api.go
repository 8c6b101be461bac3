// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: editor_api.go
// Summary: The public editing builder: spawn a sandboxed editor worker,
// ship it an operation list, and return the sparse-or-complete result.
// Grounded on original_source/glycin/src/api_editor.rs's Editor builder.

package glycin

import (
	"context"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"github.com/glycin-go/glycin/editor"
	"github.com/glycin-go/glycin/internal/opcodes"
	"github.com/glycin-go/glycin/memfd"
	"github.com/glycin-go/glycin/protocol"
	"github.com/glycin-go/glycin/sandbox"
	"github.com/glycin-go/glycin/streamer"
	"github.com/glycin-go/glycin/wire"
)

// Editor builds an edit-application session for one source file.
type Editor struct {
	path    string
	config  *sandbox.Config
	builder sandbox.Builder
}

// NewEditor creates an Editor for the file at path.
func NewEditor(path string) *Editor {
	return &Editor{path: path, builder: sandbox.DefaultBuilder()}
}

// Config overrides the MIME-to-worker configuration used to resolve an
// editor binary.
func (e *Editor) Config(cfg *sandbox.Config) *Editor {
	e.config = cfg
	return e
}

// Sandbox overrides how a resolved worker Entry is turned into a runnable
// command.
func (e *Editor) Sandbox(builder sandbox.Builder) *Editor {
	e.builder = builder
	return e
}

// ApplySparse applies ops to the source file's image, returning either a
// byte-patch list or a full replacement image, whichever the worker chose.
func (e *Editor) ApplySparse(ctx context.Context, ops []opcodes.Operation) (*editor.SparseEdit, error) {
	rp, sourceMemfd, opsMemfd, mime, err := e.spinUp(ctx, ops)
	if err != nil {
		return nil, err
	}
	defer sourceMemfd.Close()
	defer opsMemfd.Close()

	req := wire.ApplyRequest{
		Init: wire.InitRequest{Source: 0, Mime: mime},
		Edit: wire.EditRequest{Operations: 1},
	}
	body, err := protocol.EncodeBody(req)
	if err != nil {
		rp.Kill()
		return nil, wrapError(KindBus, err)
	}

	respBody, files, err := rp.Conn().Call(ctx, protocol.InterfaceEditor, "apply", body, []*os.File{sourceMemfd, opsMemfd})
	if err != nil {
		rp.Kill()
		return nil, mapCallError(err, mime)
	}

	var out wire.SparseEditorOutput
	if err := protocol.DecodeBody(respBody, &out); err != nil {
		rp.Kill()
		return nil, wrapError(KindBus, err)
	}

	result, err := editor.FromSparseOutput(out, files)
	if err != nil {
		rp.Kill()
		return nil, &Error{Kind: KindRemote, Message: err.Error(), Err: err}
	}
	return result, nil
}

// ApplyComplete applies ops to the source file's image and always returns
// a full replacement image.
func (e *Editor) ApplyComplete(ctx context.Context, ops []opcodes.Operation) (editor.CompleteEdit, error) {
	rp, sourceMemfd, opsMemfd, mime, err := e.spinUp(ctx, ops)
	if err != nil {
		return editor.CompleteEdit{}, err
	}
	defer sourceMemfd.Close()
	defer opsMemfd.Close()

	req := wire.ApplyRequest{
		Init: wire.InitRequest{Source: 0, Mime: mime},
		Edit: wire.EditRequest{Operations: 1},
	}
	body, err := protocol.EncodeBody(req)
	if err != nil {
		rp.Kill()
		return editor.CompleteEdit{}, wrapError(KindBus, err)
	}

	respBody, files, err := rp.Conn().Call(ctx, protocol.InterfaceEditor, "apply_complete", body, []*os.File{sourceMemfd, opsMemfd})
	if err != nil {
		rp.Kill()
		return editor.CompleteEdit{}, mapCallError(err, mime)
	}

	var out wire.CompleteEditorOutput
	if err := protocol.DecodeBody(respBody, &out); err != nil {
		rp.Kill()
		return editor.CompleteEdit{}, wrapError(KindBus, err)
	}

	result, err := editor.FromCompleteOutput(out, files)
	if err != nil {
		rp.Kill()
		return editor.CompleteEdit{}, &Error{Kind: KindRemote, Message: err.Error(), Err: err}
	}
	return result, nil
}

// spinUp resolves the source MIME type, spawns the editor worker, and
// uploads the source file and the encoded operation list as memfds. Handle
// 0 is the source, handle 1 the operation list, matching the
// wire.ApplyRequest field order both apply paths encode.
func (e *Editor) spinUp(ctx context.Context, ops []opcodes.Operation) (*sandbox.RemoteProcess, *os.File, *os.File, string, error) {
	cfg := e.config
	if cfg == nil {
		loaded, err := sandbox.Load()
		if err != nil {
			return nil, nil, nil, "", wrapError(KindIO, err)
		}
		cfg = loaded
	}

	srcFile, err := os.Open(e.path)
	if err != nil {
		return nil, nil, nil, "", wrapError(KindIO, err)
	}
	defer srcFile.Close()

	cancelCh := make(chan struct{})
	stopWatch := watchCancellation(ctx, cancelCh)
	defer stopWatch()

	st := streamer.Spawn(srcFile, cancelCh)
	head, err := st.Head(cancelCh)
	if err != nil {
		return nil, nil, nil, "", wrapError(KindIO, err)
	}
	mime := mimetype.Detect(head).String()

	entry, ok := cfg.EditorEntry(mime)
	if !ok {
		return nil, nil, nil, mime, &Error{Kind: KindUnknownImageFormat, Mime: mime, Message: "no editor configured for " + mime}
	}

	rp, err := sandbox.Spawn(ctx, e.builder, entry, e.path)
	if err != nil {
		return nil, nil, nil, mime, mapSpawnError(err)
	}

	sourceMemfd, err := memfd.Create("glycin-edit-source")
	if err != nil {
		rp.Kill()
		return nil, nil, nil, mime, wrapError(KindMemFd, err)
	}
	if err := st.WriteTo(sourceMemfd); err != nil {
		rp.Kill()
		sourceMemfd.Close()
		return nil, nil, nil, mime, wrapError(KindIO, err)
	}
	if err := memfd.Seal(sourceMemfd); err != nil {
		rp.Kill()
		sourceMemfd.Close()
		return nil, nil, nil, mime, wrapError(KindMemFd, err)
	}

	opsBytes, err := opcodes.Encode(ops)
	if err != nil {
		rp.Kill()
		sourceMemfd.Close()
		return nil, nil, nil, mime, wrapError(KindBus, err)
	}
	opsMemfd, err := memfd.Create("glycin-edit-ops")
	if err != nil {
		rp.Kill()
		sourceMemfd.Close()
		return nil, nil, nil, mime, wrapError(KindMemFd, err)
	}
	if err := memfd.Truncate(opsMemfd, int64(len(opsBytes))); err != nil {
		rp.Kill()
		sourceMemfd.Close()
		opsMemfd.Close()
		return nil, nil, nil, mime, wrapError(KindMemFd, err)
	}
	if _, err := opsMemfd.WriteAt(opsBytes, 0); err != nil {
		rp.Kill()
		sourceMemfd.Close()
		opsMemfd.Close()
		return nil, nil, nil, mime, wrapError(KindIO, err)
	}
	if err := memfd.Seal(opsMemfd); err != nil {
		rp.Kill()
		sourceMemfd.Close()
		opsMemfd.Close()
		return nil, nil, nil, mime, wrapError(KindMemFd, err)
	}

	return rp, sourceMemfd, opsMemfd, mime, nil
}
