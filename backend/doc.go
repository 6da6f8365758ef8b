// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend defines the graphics API abstraction used by gpuboot.
//
// The vocabulary is deliberately close to explicit APIs such as Vulkan:
// an [Instance] enumerates [PhysicalDeviceDescriptor] snapshots, binds
// [Surface] values to platform targets, and opens a logical [Device] with
// one or more [Queue] handles. Everything GPU-resident (swapchains, shader
// modules, render passes, pipelines, framebuffers) is created through the
// Device and must be destroyed before it.
//
// # Backend Registration
//
// Backends register themselves from init() and are selected by name:
//
//	import _ "github.com/gogpu/gpuboot/backend/wgpu" // vulkan via gogpu/wgpu
//	import _ "github.com/gogpu/gpuboot/backend/sim"  // in-memory simulator
//
//	b := backend.Get("vulkan")
//	if b == nil {
//		b = backend.Best()
//	}
//
// # Available Backends
//
//   - "vulkan": gogpu/wgpu HAL, Vulkan variant (backend/wgpu)
//   - "noop": gogpu/wgpu HAL no-op device, useful for headless checks (backend/wgpu)
//   - "sim": deterministic in-memory backend with fault injection (backend/sim)
package backend
