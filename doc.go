// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpuboot brings a GPU presentation surface from nothing to a
// ready-to-render pipeline and framebuffer set.
//
// # Overview
//
// The bootstrap is a strict, linear sequence of fallible stages. Each
// stage depends on the one before it:
//
//	Context -> Surface -> Device & Queue -> Chain -> Shaders -> Render Pass & Pipeline -> Framebuffers
//
// A failure at any stage aborts the bootstrap. Everything acquired so far
// is released in reverse order before the error is returned, so a caller
// never holds a partially built handle set.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/gpuboot"
//	    "github.com/gogpu/gpuboot/backend"
//	    _ "github.com/gogpu/gpuboot/backend/wgpu"
//	)
//
//	ready, err := gpuboot.Bootstrap(backend.Best(), backend.Target{
//	    Display: display,
//	    Window:  window,
//	}, gpuboot.TriangleShaders())
//	if err != nil {
//	    return err
//	}
//	defer ready.Destroy()
//
//	pipeline := ready.Pipeline()
//	framebuffers := ready.Framebuffers()
//
// # Stages
//
// Every stage is also available on its own: [CreateContext],
// [BindSurface], [SelectQueueFamily], [CreateDevice], [CreateChain],
// [LoadShader], [BuildRenderPass], [BuildPipeline] and
// [BuildFramebuffers]. Objects are owned by the object they were built
// from. A [Device] releases its chain, shaders, render pass, pipeline and
// framebuffers before itself, and a [Context] releases its devices and
// surfaces before its instance.
//
// # Chain Negotiation
//
// [NegotiateChain] takes the first supported format, present mode and
// alpha mode, the minimum image count, and the surface's current extent
// or [DefaultFallbackExtent]. Options such as [WithPresentModes] and
// [WithFormats] add preference lists.
//
// # Errors
//
// Stage failures wrap one sentinel of the taxonomy (for example
// [ErrNoSuitableQueueFamily]) and the backend cause. [Bootstrap] returns
// a [*BootstrapError] carrying the failed [Stage].
//
// # Logging
//
// gpuboot is silent by default. See [SetLogger] and [WithLogger].
package gpuboot
