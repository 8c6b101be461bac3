// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: glycin.go
// Summary: Shared helpers used by loader.go and editor_api.go: mapping
// transport-layer errors onto the public Kind taxonomy, and wiring a
// context.Context's cancellation into the streamer's cancel channel.

package glycin

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/glycin-go/glycin/protocol"
	"github.com/glycin-go/glycin/sandbox"
	"github.com/glycin-go/glycin/worker"
)

func dirOf(path string) string {
	return filepath.Dir(path)
}

// watchCancellation closes cancelCh when ctx is done and returns a function
// that stops the watch goroutine if ctx finishes normally first.
func watchCancellation(ctx context.Context, cancelCh chan struct{}) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			close(cancelCh)
		case <-done:
		}
	}()
	return func() { close(done) }
}

func mapSpawnError(err error) *Error {
	if errors.Is(err, sandbox.ErrCancelled) {
		return &Error{Kind: KindCancelled, Err: err}
	}
	var prem *sandbox.PrematureExitError
	if errors.As(err, &prem) {
		return &Error{
			Kind:    KindPrematureExit,
			Status:  prem.Status,
			Command: prem.Command,
			Message: prem.Stderr,
			Err:     err,
		}
	}
	return &Error{Kind: KindSpawnFailed, Err: err}
}

// mapCallError translates a protocol.Conn.Call failure into the public
// taxonomy. mime is attached to unsupported-format errors so callers can
// recover it via Error.UnsupportedFormat.
func mapCallError(err error, mime string) *Error {
	var callErr *protocol.CallError
	if errors.As(err, &callErr) {
		switch callErr.Name {
		case worker.ErrNameUnsupportedFormat:
			return &Error{Kind: KindUnknownImageFormat, Mime: mime, Message: callErr.Message, Err: err}
		case worker.ErrNameLoadingError:
			return &Error{Kind: KindRemote, Message: callErr.Message, Err: err}
		default:
			return &Error{Kind: KindRemote, Message: callErr.Message, Err: err}
		}
	}
	return wrapError(KindBus, err)
}
