// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: worker/errors.go

package worker

import "fmt"

// Bus error names a worker may report back to the host, matching the
// taxonomy's "Remote{}" kind.
const (
	ErrNameUnsupportedFormat   = "org.gnome.glycin.Error.UnsupportedImageFormat"
	ErrNameLoadingError        = "org.gnome.glycin.Error.LoadingError"
	ErrNameInternalLoaderError = "org.gnome.glycin.Error.InternalLoaderError"
)

// RemoteError is a protocol-level error a worker implementation reports to
// the host. It implements protocol.BusError so Conn.Serve maps it to a
// named MsgError instead of the generic fallback.
type RemoteError struct {
	Name    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// BusErrorName implements protocol.BusError.
func (e *RemoteError) BusErrorName() string {
	return e.Name
}

// UnsupportedFormat reports that a worker cannot decode the given MIME type.
func UnsupportedFormat(mime string) *RemoteError {
	return &RemoteError{Name: ErrNameUnsupportedFormat, Message: fmt.Sprintf("unsupported format: %s", mime)}
}

// InternalError wraps an unexpected implementation failure.
func InternalError(err error) *RemoteError {
	return &RemoteError{Name: ErrNameInternalLoaderError, Message: err.Error()}
}
