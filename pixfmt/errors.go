// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: pixfmt/errors.go

package pixfmt

import "errors"

var (
	// ErrSizeMismatch is returned when a source or destination buffer does
	// not match the byte size its declared format requires.
	ErrSizeMismatch = errors.New("pixfmt: buffer size does not match format")
	// ErrUnsupportedFormat names a conversion whose destination is an
	// ExtendedFormat source-only layout. Transform takes only basic Formats,
	// so it never returns this error itself.
	ErrUnsupportedFormat = errors.New("pixfmt: format unsupported as conversion target")
)
