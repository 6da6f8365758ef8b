// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"errors"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"
)

// ErrInjected is the default error returned by a Fault with a nil Err.
var ErrInjected = errors.New("sim: injected failure")

// Op names a simulated backend call that can be counted and faulted.
type Op string

// Simulated operations.
const (
	OpCreateInstance     Op = "CreateInstance"
	OpEnumerate          Op = "EnumeratePhysicalDevices"
	OpCreateSurface      Op = "CreateSurface"
	OpSupportsPresent    Op = "SupportsPresent"
	OpCapabilities       Op = "Capabilities"
	OpCreateDevice       Op = "CreateDevice"
	OpCreateSwapchain    Op = "CreateSwapchain"
	OpCreateShaderModule Op = "CreateShaderModule"
	OpCreateRenderPass   Op = "CreateRenderPass"
	OpCreatePipeline     Op = "CreateGraphicsPipeline"
	OpCreateFramebuffer  Op = "CreateFramebuffer"
	OpWaitIdle           Op = "WaitIdle"
)

// Fault makes a simulated call fail.
type Fault struct {
	Op Op
	// Call is the 1-based call number that fails. Zero fails every call.
	Call int
	// Err is returned by the failing call. Nil means ErrInjected.
	Err error
}

// DeviceConfig scripts one physical device.
type DeviceConfig struct {
	Name string
	Type gputypes.DeviceType

	QueueFamilies []backend.QueueFamily
	// Present[i] reports whether family i can present. Missing entries
	// mean no present support.
	Present []bool

	Extensions []string
	Features   gputypes.Features

	// Surface is returned by Capabilities for every surface. A surface
	// whose target has a window provider reports the provider's size as
	// CurrentExtent instead.
	Surface backend.SurfaceCapabilities

	// ExtraImages is added to the requested image count when a swapchain
	// is created, as drivers are allowed to do.
	ExtraImages uint32
}

// Config scripts a simulated backend.
type Config struct {
	Label              string
	InstanceExtensions []string
	Devices            []DeviceConfig
	Faults             []Fault
}

// DefaultSurface returns the capabilities of an 800x600 window supporting
// one format, one present mode and one alpha mode.
func DefaultSurface() backend.SurfaceCapabilities {
	return backend.SurfaceCapabilities{
		MinImageCount: 2,
		MaxImageCount: 8,
		CurrentExtent: &backend.Extent{Width: 800, Height: 600},
		MinExtent:     backend.Extent{Width: 1, Height: 1},
		MaxExtent:     backend.Extent{Width: 16384, Height: 16384},
		Formats: []backend.SurfaceFormat{
			{Format: gputypes.TextureFormatBGRA8UnormSrgb, ColorSpace: backend.ColorSpaceSRGBNonlinear},
		},
		PresentModes: []gputypes.PresentMode{gputypes.PresentModeFifo},
		AlphaModes:   []gputypes.CompositeAlphaMode{gputypes.CompositeAlphaModeOpaque},
		SupportedUsage: gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst,
		SupportedTransforms: backend.TransformIdentity,
		CurrentTransform:    backend.TransformIdentity,
	}
}

// DefaultDevice returns a discrete device whose family 0 supports
// graphics and presentation.
func DefaultDevice() DeviceConfig {
	return DeviceConfig{
		Name: "Sim GPU",
		Type: gputypes.DeviceTypeDiscreteGPU,
		QueueFamilies: []backend.QueueFamily{
			{Index: 0, Flags: backend.QueueGraphics | backend.QueueCompute | backend.QueueTransfer, Count: 1},
		},
		Present:    []bool{true},
		Extensions: []string{backend.ExtensionSwapchain},
		Surface:    DefaultSurface(),
	}
}

// DefaultConfig returns a single-device configuration.
func DefaultConfig() Config {
	return Config{
		Label:              "sim",
		InstanceExtensions: []string{backend.ExtensionSurface},
		Devices:            []DeviceConfig{DefaultDevice()},
	}
}
