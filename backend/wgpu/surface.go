// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Image count bounds reported for every hal surface. The HAL manages its
// own presentation images; these bound the render targets a swapchain owns.
const (
	minImageCount = 2
	maxImageCount = 3
)

// surfaceUsage is the usage every swapchain render target supports.
const surfaceUsage = gputypes.TextureUsageRenderAttachment |
	gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageTextureBinding

// Surface wraps a hal.Surface.
type Surface struct {
	inst   *Instance
	surf   hal.Surface
	target backend.Target
}

// Native returns the hal.Surface.
func (s *Surface) Native() any { return s.surf }

// Destroy releases the hal surface.
func (s *Surface) Destroy() { s.surf.Destroy() }

func (s *Surface) halCapabilities(pd *backend.PhysicalDeviceDescriptor) (*hal.SurfaceCapabilities, *hal.ExposedAdapter, error) {
	a, err := s.inst.adapter(pd)
	if err != nil {
		return nil, nil, err
	}
	return a.Adapter.SurfaceCapabilities(s.surf), a, nil
}

// SupportsPresent reports whether the adapter can present to the surface.
func (s *Surface) SupportsPresent(pd *backend.PhysicalDeviceDescriptor, family uint32) (bool, error) {
	if family != 0 {
		return false, fmt.Errorf("wgpu: queue family %d: %w", family, backend.ErrNotFound)
	}
	caps, _, err := s.halCapabilities(pd)
	if err != nil {
		return false, err
	}
	return caps != nil && len(caps.Formats) > 0, nil
}

// Capabilities converts the hal surface capabilities. CurrentExtent is
// the target window size when a window provider is attached.
func (s *Surface) Capabilities(pd *backend.PhysicalDeviceDescriptor) (*backend.SurfaceCapabilities, error) {
	caps, a, err := s.halCapabilities(pd)
	if err != nil {
		return nil, err
	}
	if caps == nil {
		return nil, fmt.Errorf("wgpu: adapter %q cannot present to surface: %w", a.Info.Name, backend.ErrUnsupported)
	}
	maxDim := a.Capabilities.Limits.MaxTextureDimension2D
	if maxDim == 0 {
		maxDim = gputypes.DefaultLimits().MaxTextureDimension2D
	}
	out := &backend.SurfaceCapabilities{
		MinImageCount:       minImageCount,
		MaxImageCount:       maxImageCount,
		MinExtent:           backend.Extent{Width: 1, Height: 1},
		MaxExtent:           backend.Extent{Width: maxDim, Height: maxDim},
		PresentModes:        append([]gputypes.PresentMode(nil), caps.PresentModes...),
		AlphaModes:          append([]gputypes.CompositeAlphaMode(nil), caps.AlphaModes...),
		SupportedUsage:      surfaceUsage,
		SupportedTransforms: backend.TransformIdentity,
		CurrentTransform:    backend.TransformIdentity,
	}
	for _, f := range caps.Formats {
		out.Formats = append(out.Formats, backend.SurfaceFormat{Format: f, ColorSpace: backend.ColorSpaceSRGBNonlinear})
	}
	if e, ok := s.target.PhysicalSize(); ok {
		out.CurrentExtent = &e
	}
	return out, nil
}
