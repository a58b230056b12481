// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipe

import "errors"

// Error classes shared by every stage. Components wrap these with %w so a
// host can classify a failure with errors.Is without parsing messages.
var (
	// ErrAcquisition reports a source acquisition failure: network,
	// authentication, or an incomplete sub-module tree.
	ErrAcquisition = errors.New("source acquisition failed")

	// ErrConfiguration reports an unusable settings combination or a
	// missing toolchain detected before any build output is produced.
	ErrConfiguration = errors.New("build configuration failed")

	// ErrBuild reports a compile or link failure of the external driver.
	ErrBuild = errors.New("build failed")

	// ErrPackaging reports an I/O failure while populating the install
	// layout, or an empty layout rejected by the host.
	ErrPackaging = errors.New("packaging failed")

	// ErrInvalidDescriptor reports a malformed recipe descriptor.
	ErrInvalidDescriptor = errors.New("invalid recipe descriptor")
)
