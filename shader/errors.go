// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import "errors"

var (
	// ErrInvalidSPIRV is returned for blobs that are not well-formed SPIR-V.
	ErrInvalidSPIRV = errors.New("shader: invalid SPIR-V")

	// ErrNoEntryPoint is returned when the module has no entry point for
	// the requested stage and name.
	ErrNoEntryPoint = errors.New("shader: no entry point")

	// ErrCompile is returned when WGSL compilation fails.
	ErrCompile = errors.New("shader: compile failed")
)
