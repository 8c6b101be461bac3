// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: sandbox/remote_process.go
// Summary: Spawns a worker, establishes the bus connection over it, and
// supervises the child for the lifetime of one Image or Editor session.
// Notes: The spawn sequence and three-way handshake race are grounded on
// the spec's own §4.5; the stdio-draining goroutines and mutex-protected
// buffers follow the pattern in texelation's server connection (a
// background goroutine feeding state the foreground select consumes).

package sandbox

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/glycin-go/glycin/protocol"
)

var ErrCancelled = errors.New("sandbox: cancelled")

// PrematureExitError reports a worker that exited before the bus handshake
// completed.
type PrematureExitError struct {
	Status  int
	Command string
	Stdout  string
	Stderr  string
}

func (e *PrematureExitError) Error() string {
	return fmt.Sprintf("sandbox: %q exited with status %d before handshake: %s", e.Command, e.Status, e.Stderr)
}

// RemoteProcess supervises one spawned worker: its bus connection, pid, and
// captured stdio. It retains no other state about the worker.
type RemoteProcess struct {
	id     uuid.UUID
	cmd    *exec.Cmd
	conn   *protocol.Conn
	stdout *lineBuffer
	stderr *lineBuffer

	exited chan error

	killOnce sync.Once
}

// Conn returns the bus connection to the worker.
func (rp *RemoteProcess) Conn() *protocol.Conn { return rp.conn }

// PID returns the worker's process id.
func (rp *RemoteProcess) PID() int { return rp.cmd.Process.Pid }

// ID returns the correlation id assigned to this worker at spawn time, used
// to tie together log lines and error reports from the same worker
// instance across its lifetime.
func (rp *RemoteProcess) ID() uuid.UUID { return rp.id }

// Kill sends SIGKILL to the worker. Safe to call more than once or after
// the worker has already exited.
func (rp *RemoteProcess) Kill() {
	rp.killOnce.Do(func() {
		debugLog.Printf("worker %s: killing pid %d", rp.id, rp.PID())
		if rp.cmd.Process != nil {
			_ = rp.cmd.Process.Kill()
		}
	})
	_ = rp.conn.Close()
}

// Stdio returns the captured stdout/stderr text accumulated so far, for
// inclusion in error reports.
func (rp *RemoteProcess) Stdio() (stdout, stderr string) {
	return rp.stdout.String(), rp.stderr.String()
}

// Spawn starts the worker for entry, wires a bus connection to it over a
// freshly created socketpair, and races the bus handshake against ctx
// cancellation and the child exiting prematurely. On success, a
// cancellation callback remains armed for the lifetime of ctx that kills
// the worker on demand.
func Spawn(ctx context.Context, builder Builder, entry Entry, sourcePath string) (*RemoteProcess, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("sandbox: socketpair: %w", err)
	}
	parentFile := os.NewFile(uintptr(fds[0]), "glycin-host")
	childFile := os.NewFile(uintptr(fds[1]), "glycin-worker")

	id := uuid.New()
	name, args := builder.Build(entry, filepath.Dir(sourcePath))
	cmd := exec.Command(name, args...)
	cmd.Stdin = childFile
	debugLog.Printf("worker %s: spawning %q", id, name)

	stdout := &lineBuffer{}
	stderr := &lineBuffer{}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		parentFile.Close()
		childFile.Close()
		return nil, fmt.Errorf("sandbox: stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		parentFile.Close()
		childFile.Close()
		return nil, fmt.Errorf("sandbox: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		parentFile.Close()
		childFile.Close()
		return nil, fmt.Errorf("sandbox: spawn %q: %w", name, err)
	}
	childFile.Close()

	go drainLines(stdoutPipe, stdout)
	go drainLines(stderrPipe, stderr)

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	conn, err := protocol.NewConn(parentFile)
	if err != nil {
		cmd.Process.Kill()
		<-exited
		return nil, fmt.Errorf("sandbox: wrap socket: %w", err)
	}

	rp := &RemoteProcess{id: id, cmd: cmd, conn: conn, stdout: stdout, stderr: stderr, exited: exited}

	// The host only ever calls out and waits on replies; it runs no
	// Handler of its own. Serve still has to run so the pending-reply
	// map in Conn.Call gets fed — without a receive loop every host-side
	// Call would block forever on a reply nothing reads. The loop lives
	// for the connection's lifetime, not the handshake's, so give it a
	// background context and let conn.Close() (from Kill) unblock it.
	go conn.Serve(context.Background(), nil)

	handshake := make(chan error, 1)
	go func() {
		_, _, callErr := conn.Call(ctx, "", "Ping", nil, nil)
		handshake <- callErr
	}()

	select {
	case <-ctx.Done():
		rp.Kill()
		<-exited
		return nil, ErrCancelled

	case exitErr := <-exited:
		conn.Close()
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, &PrematureExitError{
			Status:  exitStatus(exitErr),
			Command: cmd.String(),
			Stdout:  stdout.String(),
			Stderr:  stderr.String(),
		}

	case err := <-handshake:
		if ctx.Err() != nil {
			rp.Kill()
			<-exited
			return nil, ErrCancelled
		}
		var callErr *protocol.CallError
		if err != nil && !errors.As(err, &callErr) {
			// Not a bus-level error reply: the connection itself failed,
			// meaning the worker is gone or never came up.
			conn.Close()
			select {
			case exitErr := <-exited:
				return nil, &PrematureExitError{
					Status:  exitStatus(exitErr),
					Command: cmd.String(),
					Stdout:  stdout.String(),
					Stderr:  stderr.String(),
				}
			default:
				rp.Kill()
				return nil, fmt.Errorf("sandbox: bus handshake failed: %w", err)
			}
		}
	}

	debugLog.Printf("worker %s: handshake complete, pid %d", id, rp.PID())
	context.AfterFunc(ctx, rp.Kill)
	return rp, nil
}

func exitStatus(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if err == nil {
		return 0
	}
	return -1
}

// lineBuffer accumulates drained stdio text behind a mutex; at most one
// goroutine appends to it.
type lineBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lineBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *lineBuffer) writeLine(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.WriteString(line)
	b.buf.WriteByte('\n')
}

func drainLines(r io.Reader, dst *lineBuffer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		dst.writeLine(scanner.Text())
	}
}
