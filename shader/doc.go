// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader prepares compiled shader stages for pipeline creation.
//
// A [Code] value is an uninterpreted blob. [Prepare] turns it into a
// [Module]: SPIR-V words plus the reflected [Interface] of the requested
// entry point. SPIR-V blobs are validated and scanned directly. WGSL text
// is compiled offline with github.com/gogpu/naga and reflected from the
// naga IR. Successful WGSL compilations are cached by source text, so
// repeated bootstraps with the same stages compile once.
//
// The interface carries enough information (vertex input locations,
// component counts and scalar kinds) to check a vertex buffer layout
// against the shader before any pipeline is built.
package shader
