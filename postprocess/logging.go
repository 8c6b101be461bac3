// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: postprocess/logging.go

package postprocess

import (
	"io"
	"log"
	"os"
)

var debugLog = log.New(io.Discard, "postprocess: ", log.LstdFlags)

// SetVerboseLogging toggles diagnostic logging for the post-processing
// pipeline, such as ICC transform or orientation failures that are
// otherwise silently degraded per the error handling policy.
func SetVerboseLogging(enable bool) {
	if enable {
		debugLog.SetOutput(os.Stderr)
	} else {
		debugLog.SetOutput(io.Discard)
	}
}
