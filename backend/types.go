// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Well-known extension names.
const (
	// ExtensionSurface is the instance extension required to create
	// presentable surfaces.
	ExtensionSurface = "VK_KHR_surface"

	// ExtensionSwapchain is the device extension required to create a
	// presentation chain.
	ExtensionSwapchain = "VK_KHR_swapchain"
)

// QueueFlags describes the operations a queue family supports.
type QueueFlags uint32

const (
	// QueueGraphics supports draw commands.
	QueueGraphics QueueFlags = 1 << iota
	// QueueCompute supports dispatch commands.
	QueueCompute
	// QueueTransfer supports copy commands.
	QueueTransfer
)

// Contains reports whether all bits of flag are set.
func (f QueueFlags) Contains(flag QueueFlags) bool {
	return f&flag == flag
}

// String returns a "|"-separated list of the set flags.
func (f QueueFlags) String() string {
	if f == 0 {
		return "None"
	}
	var parts []string
	if f.Contains(QueueGraphics) {
		parts = append(parts, "Graphics")
	}
	if f.Contains(QueueCompute) {
		parts = append(parts, "Compute")
	}
	if f.Contains(QueueTransfer) {
		parts = append(parts, "Transfer")
	}
	if rest := f &^ (QueueGraphics | QueueCompute | QueueTransfer); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// QueueFamily is a hardware group of queues sharing a capability set.
type QueueFamily struct {
	Index uint32
	Flags QueueFlags
	// Count is the number of queues the family exposes.
	Count uint32
}

// PhysicalDeviceDescriptor is an immutable capability snapshot of a
// physical device. It is owned by the instance that enumerated it.
type PhysicalDeviceDescriptor struct {
	// Index is the position in the instance's enumeration order.
	Index int

	Info          gputypes.AdapterInfo
	QueueFamilies []QueueFamily

	// Extensions are the supported device extensions.
	Extensions []string
	Features   gputypes.Features
}

// SupportsExtension reports whether name is a supported device extension.
func (d *PhysicalDeviceDescriptor) SupportsExtension(name string) bool {
	return slices.Contains(d.Extensions, name)
}

// Extent is a 2D size in physical pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero.
func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// ColorSpace is the presentation color space paired with a surface format.
type ColorSpace uint32

const (
	ColorSpaceSRGBNonlinear ColorSpace = iota
	ColorSpaceExtendedSRGBLinear
	ColorSpaceDisplayP3Nonlinear
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceSRGBNonlinear:
		return "SRGBNonlinear"
	case ColorSpaceExtendedSRGBLinear:
		return "ExtendedSRGBLinear"
	case ColorSpaceDisplayP3Nonlinear:
		return "DisplayP3Nonlinear"
	default:
		return "Unknown"
	}
}

// SurfaceFormat is a supported (format, color space) pair.
type SurfaceFormat struct {
	Format     gputypes.TextureFormat
	ColorSpace ColorSpace
}

// SurfaceTransform is a set of presentation transforms.
type SurfaceTransform uint32

const (
	TransformIdentity SurfaceTransform = 1 << iota
	TransformRotate90
	TransformRotate180
	TransformRotate270
)

// SurfaceCapabilities describes what a physical device can do with a surface.
type SurfaceCapabilities struct {
	MinImageCount uint32
	// MaxImageCount of zero means no upper bound.
	MaxImageCount uint32

	// CurrentExtent is nil when the surface size is determined by the
	// chain built on it.
	CurrentExtent *Extent
	MinExtent     Extent
	MaxExtent     Extent

	Formats      []SurfaceFormat
	PresentModes []gputypes.PresentMode
	AlphaModes   []gputypes.CompositeAlphaMode

	SupportedUsage      gputypes.TextureUsage
	SupportedTransforms SurfaceTransform
	CurrentTransform    SurfaceTransform
}

// Clone returns a deep copy of c.
func (c *SurfaceCapabilities) Clone() *SurfaceCapabilities {
	if c == nil {
		return nil
	}
	out := *c
	if c.CurrentExtent != nil {
		e := *c.CurrentExtent
		out.CurrentExtent = &e
	}
	out.Formats = slices.Clone(c.Formats)
	out.PresentModes = slices.Clone(c.PresentModes)
	out.AlphaModes = slices.Clone(c.AlphaModes)
	return &out
}

// Target identifies a platform output target. Display and Window are
// opaque platform handles (HWND, NSView*, xcb window, ...). Provider is
// optional and, when present, supplies the current window size.
type Target struct {
	Label    string
	Display  uintptr
	Window   uintptr
	Provider gpucontext.WindowProvider
}

// PhysicalSize returns the provider's size in physical pixels. It reports
// false when there is no provider or the window has zero area.
func (t Target) PhysicalSize() (Extent, bool) {
	if t.Provider == nil {
		return Extent{}, false
	}
	w, h := t.Provider.Size()
	if w <= 0 || h <= 0 {
		return Extent{}, false
	}
	scale := t.Provider.ScaleFactor()
	if scale <= 0 {
		scale = 1
	}
	e := Extent{
		Width:  uint32(math.Round(float64(w) * scale)),
		Height: uint32(math.Round(float64(h) * scale)),
	}
	return e, !e.IsZero()
}

// InstanceDescriptor configures instance creation.
type InstanceDescriptor struct {
	Label      string
	Extensions []string
}

// QueueRequest asks for one queue from a family.
type QueueRequest struct {
	Family uint32
	// Priority is in [0, 1].
	Priority float32
}

// DeviceDescriptor configures logical device creation.
type DeviceDescriptor struct {
	Label      string
	Queues     []QueueRequest
	Extensions []string
	Features   gputypes.Features
}

// SwapchainDescriptor is the negotiated presentation chain configuration.
type SwapchainDescriptor struct {
	Label       string
	ImageCount  uint32
	Format      gputypes.TextureFormat
	ColorSpace  ColorSpace
	Extent      Extent
	ArrayLayers uint32
	Usage       gputypes.TextureUsage
	Transform   SurfaceTransform
	AlphaMode   gputypes.CompositeAlphaMode
	PresentMode gputypes.PresentMode
	Clipped     bool
}

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// ShaderModuleDescriptor describes a compiled SPIR-V stage to upload.
type ShaderModuleDescriptor struct {
	Label      string
	Stage      ShaderStage
	EntryPoint string
	SPIRV      []uint32
}

// AttachmentDescriptor declares one render pass attachment.
type AttachmentDescriptor struct {
	Format  gputypes.TextureFormat
	Samples uint32
	LoadOp  gputypes.LoadOp
	StoreOp gputypes.StoreOp
}

// SubpassDescriptor lists the attachments a subpass consumes, by index
// into RenderPassDescriptor.Attachments.
type SubpassDescriptor struct {
	ColorAttachments       []uint32
	DepthStencilAttachment *uint32
}

// RenderPassDescriptor declares attachments and subpass structure.
type RenderPassDescriptor struct {
	Label       string
	Attachments []AttachmentDescriptor
	Subpasses   []SubpassDescriptor
	ClearColor  gputypes.Color
}

// Viewport maps normalized device coordinates to framebuffer pixels.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Scissor is the rasterization clip rectangle.
type Scissor struct {
	X, Y          int32
	Width, Height uint32
}

// GraphicsPipelineDescriptor is the full, immutable pipeline state.
type GraphicsPipelineDescriptor struct {
	Label      string
	RenderPass RenderPass
	Subpass    uint32

	Vertex        ShaderModule
	VertexEntry   string
	Fragment      ShaderModule
	FragmentEntry string

	VertexBuffers []gputypes.VertexBufferLayout
	Primitive     gputypes.PrimitiveState
	Viewport      Viewport
	Scissor       Scissor
	Multisample   gputypes.MultisampleState
	ColorTargets  []gputypes.ColorTargetState

	// DepthStencil is nil when depth and stencil testing are disabled.
	DepthStencil *gputypes.DepthStencilState
}

// FramebufferDescriptor binds images to a render pass's attachments.
type FramebufferDescriptor struct {
	Label       string
	RenderPass  RenderPass
	Attachments []Image
	Width       uint32
	Height      uint32
	Layers      uint32
}
