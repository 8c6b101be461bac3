// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: sandbox/logging.go

package sandbox

import (
	"io"
	"log"
	"os"
)

var debugLog = log.New(io.Discard, "sandbox: ", log.LstdFlags)

// SetVerboseLogging toggles verbose sandbox logging (spawn/handshake/kill
// events). Disabled by default.
func SetVerboseLogging(enable bool) {
	if enable {
		debugLog.SetOutput(os.Stderr)
	} else {
		debugLog.SetOutput(io.Discard)
	}
}
