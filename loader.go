// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: loader.go
// Summary: The public image-loading builder: spawn a sandboxed worker,
// stream the source file into it, and hand back a decoded Image.
// Notes: Grounded on original_source/glycin/src/api_loader.rs's Loader
// builder shape and spin_up() helper, styled after the teacher's
// top-level client/cmd constructor + chained setter convention.

package glycin

import (
	"context"
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"github.com/glycin-go/glycin/memfd"
	"github.com/glycin-go/glycin/pixfmt"
	"github.com/glycin-go/glycin/postprocess"
	"github.com/glycin-go/glycin/protocol"
	"github.com/glycin-go/glycin/sandbox"
	"github.com/glycin-go/glycin/streamer"
	"github.com/glycin-go/glycin/wire"
)

// Loader builds an image-decoding session for one source file.
type Loader struct {
	path                 string
	applyTransformations bool
	targetFormat         *pixfmt.Format
	config               *sandbox.Config
	builder              sandbox.Builder
}

// NewLoader creates a Loader for the file at path. Load is not called
// until the caller invokes it explicitly.
func NewLoader(path string) *Loader {
	return &Loader{path: path, builder: sandbox.DefaultBuilder()}
}

// ApplyTransformations sets postprocess.Options.ApplyTransformations for
// every frame. Image.NextFrame passes no postprocess.Orientation
// implementation, so the embedded EXIF orientation is not applied to the
// returned pixels whichever value is set.
func (l *Loader) ApplyTransformations(apply bool) *Loader {
	l.applyTransformations = apply
	return l
}

// TargetMemoryFormat requests that every decoded frame be converted to
// format before being returned.
func (l *Loader) TargetMemoryFormat(format pixfmt.Format) *Loader {
	l.targetFormat = &format
	return l
}

// Config overrides the MIME-to-worker configuration used to resolve a
// loader binary. If not called, Load reads the on-disk config (or its
// defaults).
func (l *Loader) Config(cfg *sandbox.Config) *Loader {
	l.config = cfg
	return l
}

// Sandbox overrides how a resolved worker Entry is turned into a runnable
// command. If not called, Load uses sandbox.DefaultBuilder().
func (l *Loader) Sandbox(builder sandbox.Builder) *Loader {
	l.builder = builder
	return l
}

// Load spawns a sandboxed worker for the source file's MIME type, streams
// the file into the worker, and returns an Image once the worker's init
// call succeeds.
func (l *Loader) Load(ctx context.Context) (*Image, error) {
	cfg := l.config
	if cfg == nil {
		loaded, err := sandbox.Load()
		if err != nil {
			return nil, wrapError(KindIO, err)
		}
		cfg = loaded
	}

	srcFile, err := os.Open(l.path)
	if err != nil {
		return nil, wrapError(KindIO, err)
	}
	defer srcFile.Close()

	cancelCh := make(chan struct{})
	stopWatch := watchCancellation(ctx, cancelCh)
	defer stopWatch()

	st := streamer.Spawn(srcFile, cancelCh)
	head, err := st.Head(cancelCh)
	if err != nil {
		return nil, wrapError(KindIO, err)
	}
	mime := mimetype.Detect(head).String()

	entry, ok := cfg.LoaderEntry(mime)
	if !ok {
		return nil, &Error{Kind: KindUnknownImageFormat, Mime: mime, Message: fmt.Sprintf("no loader configured for %s", mime)}
	}

	rp, err := sandbox.Spawn(ctx, l.builder, entry, l.path)
	if err != nil {
		return nil, mapSpawnError(err)
	}

	sourceMemfd, err := memfd.Create("glycin-source")
	if err != nil {
		rp.Kill()
		return nil, wrapError(KindMemFd, err)
	}
	if err := st.WriteTo(sourceMemfd); err != nil {
		rp.Kill()
		sourceMemfd.Close()
		return nil, wrapError(KindIO, err)
	}
	if err := memfd.Seal(sourceMemfd); err != nil {
		rp.Kill()
		sourceMemfd.Close()
		return nil, wrapError(KindMemFd, err)
	}

	req := wire.InitRequest{Source: 0, Mime: mime}
	if entry.ExposeBaseDir {
		req.Details.BaseDir = dirOf(l.path)
	}
	body, err := protocol.EncodeBody(req)
	if err != nil {
		rp.Kill()
		return nil, wrapError(KindBus, err)
	}

	respBody, _, err := rp.Conn().Call(ctx, protocol.InterfaceLoader, "init", body, []*os.File{sourceMemfd})
	sourceMemfd.Close()
	if err != nil {
		rp.Kill()
		return nil, mapCallError(err, mime)
	}

	var info wire.ImageInfo
	if err := protocol.DecodeBody(respBody, &info); err != nil {
		rp.Kill()
		return nil, wrapError(KindBus, err)
	}

	return &Image{
		rp:   rp,
		info: info,
		opts: postprocess.Options{ApplyTransformations: l.applyTransformations, TargetFormat: l.targetFormat},
	}, nil
}
