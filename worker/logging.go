// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: worker/logging.go

package worker

import (
	"io"
	"log"
	"os"
)

var debugLog = log.New(io.Discard, "worker: ", log.LstdFlags)

// SetVerboseLogging toggles verbose worker logging. When disabled (the
// default), debug output is discarded but important messages still go to
// stderr, which the host captures for diagnostics.
func SetVerboseLogging(enable bool) {
	if enable {
		debugLog.SetOutput(os.Stderr)
	} else {
		debugLog.SetOutput(io.Discard)
	}
}
