// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: protocol/conn.go
// Summary: The call/return layer over the bus's framing, including
// out-of-band file descriptor passing via SCM_RIGHTS.
// Usage: Both ends of a socketpair use Conn: the host calls worker-side
// methods with Call, a worker answers them through the Handler it passes
// to Serve.
// Notes: The read/dispatch loop (incoming channel, background reader
// goroutine, per-message handling) is adapted from texelation's
// internal/runtime/server/connection.go readMessages/serve split; the
// serial-keyed pending-reply map replaces that file's sequence/ack
// bookkeeping since calls here are request/response, not a diff stream.

package protocol

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// maxPassedFiles bounds how many fds a single frame may carry, guarding the
// control-message buffer size.
const maxPassedFiles = 16

var (
	ErrConnClosed   = errors.New("protocol: connection closed")
	ErrCallRejected = errors.New("protocol: call rejected by peer")
)

// CallError reports a MsgError reply from the peer.
type CallError struct {
	Name    string
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("protocol: %s: %s", e.Name, e.Message)
}

// BusErrorName implements BusError, so a CallError returned by a Handler
// keeps its name in the MsgError reply.
func (e *CallError) BusErrorName() string { return e.Name }

// Handler answers one incoming call. It returns the reply body and any
// files to attach to the MsgReturn frame, or an error to send back as
// MsgError.
type Handler func(ctx context.Context, env Envelope, files []*os.File) (body []byte, replyFiles []*os.File, err error)

// Conn is a bidirectional, framed, fd-capable connection between a host and
// a worker. The zero value is not usable; construct with NewConn.
type Conn struct {
	uc *net.UnixConn

	writeMu sync.Mutex

	serial uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan inboundFrame

	closeOnce sync.Once
	closed    chan struct{}
}

type inboundFrame struct {
	hdr   Header
	env   Envelope
	files []*os.File
	err   error
}

// NewConn wraps a raw connected Unix domain socket fd (as produced by
// unix.Socketpair) for framed, fd-passing traffic.
func NewConn(raw *os.File) (*Conn, error) {
	fc, err := net.FileConn(raw)
	if err != nil {
		return nil, fmt.Errorf("protocol: wrap socket: %w", err)
	}
	uc, ok := fc.(*net.UnixConn)
	if !ok {
		fc.Close()
		return nil, fmt.Errorf("protocol: fd is not a unix socket")
	}
	return &Conn{
		uc:      uc,
		pending: make(map[uint64]chan inboundFrame),
		closed:  make(chan struct{}),
	}, nil
}

// Close shuts down the underlying socket. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.uc.Close()
	})
	return err
}

func (c *Conn) nextSerial() uint64 {
	return atomic.AddUint64(&c.serial, 1)
}

// Call sends a method call and blocks until the matching MsgReturn or
// MsgError arrives, ctx is cancelled, or the connection closes.
func (c *Conn) Call(ctx context.Context, iface, method string, body []byte, files []*os.File) ([]byte, []*os.File, error) {
	serial := c.nextSerial()
	replyCh := make(chan inboundFrame, 1)

	c.pendingMu.Lock()
	c.pending[serial] = replyCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, serial)
		c.pendingMu.Unlock()
	}()

	env := Envelope{Interface: iface, Method: method, Body: body, NumFiles: len(files)}
	payload, err := EncodeEnvelope(env)
	if err != nil {
		return nil, nil, fmt.Errorf("protocol: encode call: %w", err)
	}
	hdr := Header{Version: Version, Type: MsgCall, Flags: FlagChecksum, Serial: serial}
	if err := c.writeFrame(hdr, payload, files); err != nil {
		return nil, nil, err
	}

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-c.closed:
		return nil, nil, ErrConnClosed
	case reply := <-replyCh:
		if reply.err != nil {
			return nil, nil, reply.err
		}
		if reply.hdr.Type == MsgError {
			return nil, nil, &CallError{Name: reply.env.ErrorName, Message: reply.env.ErrorMessage}
		}
		return reply.env.Body, reply.files, nil
	}
}

// Serve runs the receive loop, dispatching every incoming MsgCall to
// handler and routing MsgReturn/MsgError frames to their waiting Call.
// It returns when the connection closes or ctx is cancelled.
func (c *Conn) Serve(ctx context.Context, handler Handler) error {
	frames := make(chan inboundFrame, 8)
	readErr := make(chan error, 1)

	go func() {
		defer close(frames)
		for {
			hdr, env, files, err := c.readFrame()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- inboundFrame{hdr: hdr, env: env, files: files}:
			case <-c.closed:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return ErrConnClosed
		case err := <-readErr:
			return err
		case in, ok := <-frames:
			if !ok {
				continue
			}
			if in.hdr.Type == MsgReturn || in.hdr.Type == MsgError {
				c.pendingMu.Lock()
				ch, found := c.pending[in.hdr.Serial]
				c.pendingMu.Unlock()
				if found {
					ch <- in
				}
				continue
			}
			go c.dispatch(ctx, in, handler)
		}
	}
}

func (c *Conn) dispatch(ctx context.Context, in inboundFrame, handler Handler) {
	if handler == nil {
		// A connection with no handler (the host side, which only ever
		// calls out and receives replies) has nothing to answer an
		// incoming MsgCall with; report it rather than panicking.
		name, message := errorNameAndMessage(fmt.Errorf("protocol: no handler installed for incoming call"))
		env := Envelope{ErrorName: name, ErrorMessage: message}
		payload, encErr := EncodeEnvelope(env)
		if encErr != nil {
			return
		}
		_ = c.writeFrame(Header{Version: Version, Type: MsgError, Flags: FlagChecksum, Serial: in.hdr.Serial}, payload, nil)
		return
	}
	body, files, err := handler(ctx, in.env, in.files)
	if err != nil {
		name, message := errorNameAndMessage(err)
		env := Envelope{ErrorName: name, ErrorMessage: message}
		payload, encErr := EncodeEnvelope(env)
		if encErr != nil {
			return
		}
		_ = c.writeFrame(Header{Version: Version, Type: MsgError, Flags: FlagChecksum, Serial: in.hdr.Serial}, payload, nil)
		return
	}
	env := Envelope{Body: body, NumFiles: len(files)}
	payload, encErr := EncodeEnvelope(env)
	if encErr != nil {
		return
	}
	_ = c.writeFrame(Header{Version: Version, Type: MsgReturn, Flags: FlagChecksum, Serial: in.hdr.Serial}, payload, files)
}

// errorNameAndMessage maps a Go error to a bus error name. Errors that
// implement BusError supply their own stable name; everything else is
// reported generically.
func errorNameAndMessage(err error) (string, string) {
	var be BusError
	if errors.As(err, &be) {
		return be.BusErrorName(), err.Error()
	}
	return "org.gnome.glycin.Error.Failed", err.Error()
}

// BusError lets a domain error contribute a stable, machine-readable name
// to the MsgError envelope instead of the generic fallback.
type BusError interface {
	error
	BusErrorName() string
}

func (c *Conn) writeFrame(hdr Header, payload []byte, files []*os.File) error {
	if len(files) > maxPassedFiles {
		return fmt.Errorf("protocol: %d files exceeds per-frame limit of %d", len(files), maxPassedFiles)
	}

	var buf bytes.Buffer
	if err := WriteMessage(&buf, hdr, payload); err != nil {
		return err
	}

	var oob []byte
	if len(files) > 0 {
		fds := make([]int, len(files))
		for i, f := range files {
			fds[i] = int(f.Fd())
		}
		oob = unix.UnixRights(fds...)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, _, err := c.uc.WriteMsgUnix(buf.Bytes(), oob, nil)
	return err
}

func (c *Conn) readFrame() (Header, Envelope, []*os.File, error) {
	hdrBuf := make([]byte, headerSize)
	oobBuf := make([]byte, unix.CmsgSpace(maxPassedFiles*4))

	n, oobn, _, _, err := c.uc.ReadMsgUnix(hdrBuf, oobBuf)
	if err != nil {
		return Header{}, Envelope{}, nil, err
	}
	for n < headerSize {
		m, rerr := c.uc.Read(hdrBuf[n:])
		if rerr != nil {
			return Header{}, Envelope{}, nil, rerr
		}
		n += m
	}

	hdr, err := decodeHeaderBytes(hdrBuf)
	if err != nil {
		return hdr, Envelope{}, nil, err
	}

	payload := make([]byte, hdr.PayloadLen)
	if hdr.PayloadLen > 0 {
		if _, err := readFull(c.uc, payload); err != nil {
			return hdr, Envelope{}, nil, err
		}
	}
	if hdr.Flags&FlagChecksum != 0 {
		if computeChecksum(hdrBuf[4:20], payload) != hdr.Checksum {
			return hdr, Envelope{}, nil, ErrChecksumMismatch
		}
	}

	env, err := DecodeEnvelope(payload)
	if err != nil {
		return hdr, Envelope{}, nil, err
	}

	files, err := parsePassedFiles(oobBuf[:oobn])
	if err != nil {
		return hdr, env, nil, err
	}
	return hdr, env, files, nil
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func parsePassedFiles(oob []byte) ([]*os.File, error) {
	if len(oob) == 0 {
		return nil, nil
	}
	scms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("protocol: parse control message: %w", err)
	}
	var files []*os.File
	for _, scm := range scms {
		fds, err := unix.ParseUnixRights(&scm)
		if err != nil {
			continue
		}
		for _, fd := range fds {
			files = append(files, os.NewFile(uintptr(fd), "glycin-handle"))
		}
	}
	return files, nil
}
