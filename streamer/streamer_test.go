// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: streamer/streamer_test.go

package streamer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, data []byte) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open temp file: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestHeadSmallerThanHeadSize(t *testing.T) {
	data := []byte("small payload")
	f := writeTempFile(t, data)
	s := Spawn(f, nil)

	head, err := s.Head(nil)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if !bytes.Equal(head, data) {
		t.Fatalf("got %q want %q", head, data)
	}

	var out bytes.Buffer
	if err := s.WriteTo(&out); err != nil {
		t.Fatalf("write_to: %v", err)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatalf("written data mismatch: got %q want %q", out.Bytes(), data)
	}
	if err := s.Err(nil); err != nil {
		t.Fatalf("expected terminal success, got %v", err)
	}
}

func TestHeadLargerThanHeadSize(t *testing.T) {
	data := bytes.Repeat([]byte("x"), HeadSize+1000)
	f := writeTempFile(t, data)
	s := Spawn(f, nil)

	head, err := s.Head(nil)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if len(head) != HeadSize {
		t.Fatalf("got head len %d want %d", len(head), HeadSize)
	}

	var out bytes.Buffer
	if err := s.WriteTo(&out); err != nil {
		t.Fatalf("write_to: %v", err)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatalf("written data length mismatch: got %d want %d", out.Len(), len(data))
	}
}

func TestWriteToCalledTwiceFails(t *testing.T) {
	f := writeTempFile(t, []byte("hello"))
	s := Spawn(f, nil)
	s.Head(nil)

	var out bytes.Buffer
	if err := s.WriteTo(&out); err != nil {
		t.Fatalf("first write_to: %v", err)
	}
	if err := s.WriteTo(&out); err != ErrAlreadyStarted {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestCancellationAbortsWrite(t *testing.T) {
	data := bytes.Repeat([]byte("y"), HeadSize*3)
	f := writeTempFile(t, data)
	cancel := make(chan struct{})
	close(cancel)
	s := Spawn(f, cancel)
	s.Head(nil)

	var out bytes.Buffer
	if err := s.WriteTo(&out); err != ErrCancelled {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if err := s.Err(nil); err != ErrCancelled {
		t.Fatalf("expected terminal ErrCancelled, got %v", err)
	}
}
