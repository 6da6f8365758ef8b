// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Common backend errors.
var (
	// ErrUnsupported is returned when a backend cannot honor a request
	// (unknown extension, format, present mode, queue configuration).
	ErrUnsupported = errors.New("backend: unsupported")

	// ErrNotFound is returned when a handle or index does not refer to an
	// object known to the backend.
	ErrNotFound = errors.New("backend: not found")

	// ErrInvalidHandle is returned when an object is used after Destroy or
	// with a device or instance it does not belong to.
	ErrInvalidHandle = errors.New("backend: invalid handle")
)

// Backend is a graphics API implementation. It is the factory for
// instances and carries no per-process state of its own: every Instance
// it creates is independent.
type Backend interface {
	// Name returns the registry identifier (e.g., "vulkan", "sim").
	Name() string

	// CreateInstance connects to the graphics API. It fails when the API
	// is not available or a requested instance extension is unsupported.
	CreateInstance(desc *InstanceDescriptor) (Instance, error)
}

// Resource is the base interface for every backend object that must be
// released explicitly.
type Resource interface {
	// Destroy releases the object. Objects built from it must be
	// destroyed first.
	Destroy()
}

// Native is implemented by objects that can expose the underlying API
// handle (e.g., hal.Device) to interop code.
type Native interface {
	Native() any
}

// Instance is a connection to the graphics API.
type Instance interface {
	Resource

	// SupportedExtensions lists the instance extensions the backend offers.
	SupportedExtensions() []string

	// EnumeratePhysicalDevices returns a capability snapshot of every
	// physical device, in backend enumeration order.
	EnumeratePhysicalDevices() ([]PhysicalDeviceDescriptor, error)

	// CreateSurface binds a platform output target to the instance.
	CreateSurface(target Target) (Surface, error)

	// CreateDevice opens a logical device on pd with the requested queues.
	// The returned queues are in request order.
	CreateDevice(pd *PhysicalDeviceDescriptor, desc *DeviceDescriptor) (Device, []Queue, error)
}

// Surface is a presentable output target bound to an instance.
// A Surface is not safe for concurrent use.
type Surface interface {
	Resource

	// SupportsPresent reports whether queues of the given family on pd can
	// present to this surface.
	SupportsPresent(pd *PhysicalDeviceDescriptor, family uint32) (bool, error)

	// Capabilities reports what pd can do with this surface.
	Capabilities(pd *PhysicalDeviceDescriptor) (*SurfaceCapabilities, error)
}

// Device is a logical device. It owns every GPU-resident object created
// through it and must be destroyed last.
type Device interface {
	Resource

	CreateSwapchain(surface Surface, desc *SwapchainDescriptor) (Swapchain, error)
	CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error)
	CreateRenderPass(desc *RenderPassDescriptor) (RenderPass, error)
	CreateGraphicsPipeline(desc *GraphicsPipelineDescriptor) (Pipeline, error)
	CreateFramebuffer(desc *FramebufferDescriptor) (Framebuffer, error)

	// WaitIdle blocks until the device has finished all submitted work.
	WaitIdle() error
}

// Queue is a command submission handle owned by a Device.
// A Queue is not safe for concurrent use.
type Queue interface {
	Family() uint32
	Index() uint32
	Priority() float32
}

// Swapchain owns an ordered set of presentable images.
type Swapchain interface {
	Resource

	// Images returns the chain images in presentation order. The images
	// are owned by the swapchain and released with it.
	Images() []Image
}

// Image is a presentable image owned by a Swapchain.
type Image interface {
	// Index is the image position within its swapchain.
	Index() int
	Format() gputypes.TextureFormat
	Extent() Extent
}

// ShaderModule is an uploaded shader stage.
type ShaderModule interface {
	Resource
	Stage() ShaderStage
}

// RenderPass declares attachment usage and subpass structure.
type RenderPass interface {
	Resource
}

// Pipeline is an immutable graphics pipeline.
type Pipeline interface {
	Resource
}

// Framebuffer binds concrete images to a render pass.
type Framebuffer interface {
	Resource
}
