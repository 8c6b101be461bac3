// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: worker/sigsys/sigsys_linux.go
// Summary: Installs a SIGSYS watcher before a worker's main() runs, so a
// seccomp policy violation exits with the spec's 128+SIGSYS status instead
// of the process default action.
// Usage: blank-import this package first in every worker binary's main.go
// (`import _ "github.com/glycin-go/glycin/worker/sigsys"`) so its init()
// runs before any decoder library constructor that might trip the sandbox.
// Notes: Grounded on instruction_handler.rs's pre_main/setup_sigsys_handler,
// adapted to Go's signal model. Go's runtime intercepts SIGSYS itself and
// cannot deliver raw siginfo_t (with the offending syscall number) to a
// user handler without cgo, so this watches the signal on a background
// goroutine via os/signal rather than installing a SA_SIGINFO sigaction.
// The watcher writes with a raw fd write, not fmt, since it must not
// allocate on a syscall-starved process.

package sigsys

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

func init() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGSYS)
	go watch(ch)
}

func watch(ch chan os.Signal) {
	<-ch
	unix.Write(2, []byte("glycin sandbox: blocked syscall (SIGSYS)\n"))
	unix.Exit(128 + int(unix.SIGSYS))
}
