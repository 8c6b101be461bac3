// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: sandbox/spawn.go
// Summary: Turns a config Entry into a runnable command. Construction of
// the actual sandbox policy (bubblewrap invocation, seccomp rule
// compilation) is an external collaborator per the spec's own
// Non-goals; Builder is the seam a real implementation plugs into.

package sandbox

// Builder resolves a worker Entry into an executable path and argument
// list. The default builder execs the binary directly with no sandboxing,
// since constructing the sandbox policy itself is out of scope here.
type Builder interface {
	Build(entry Entry, sourceDir string) (path string, args []string)
}

type directBuilder struct{}

func (directBuilder) Build(entry Entry, sourceDir string) (string, []string) {
	return entry.BinaryPath, nil
}

// DefaultBuilder returns the no-sandbox passthrough Builder ("Auto" with no
// sandbox backend configured).
func DefaultBuilder() Builder {
	return directBuilder{}
}
