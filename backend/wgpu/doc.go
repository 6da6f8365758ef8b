// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements package backend on top of the gogpu/wgpu HAL.
//
// The HAL is WebGPU-shaped: it has no queue families, no explicit swapchain
// images and no framebuffer objects. This package synthesizes them:
//
//   - every adapter exposes a single queue family 0 with graphics, compute
//     and transfer support; present support is reported when the adapter
//     returns surface capabilities for the surface
//   - a swapchain configures the hal.Surface and owns one render target
//     texture and view per requested image
//   - a render pass is a recorded descriptor, and a framebuffer is a
//     prebuilt hal.RenderPassDescriptor ready for command encoding
//
// The swapchain images are offscreen textures, not surface images. The HAL
// hands out the presentable texture per frame (hal.Surface.AcquireTexture),
// so a render loop draws into a framebuffer and then copies or blits its
// image into the acquired surface texture before presenting it. The
// handle set produced by a bootstrap is therefore not directly
// presentable on this backend.
//
// Importing the package registers the "noop" backend (hal/noop). Unless
// built with the nogpu tag it also registers "vulkan" (hal/vulkan).
package wgpu
