// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// Device is a simulated logical device.
type Device struct {
	*object
	inst       *Instance
	cfg        *DeviceConfig
	extensions []string
}

// Destroy releases the device.
func (d *Device) Destroy() { d.inst.t.destroy(d.object) }

// Extensions returns the extensions the device was created with.
func (d *Device) Extensions() []string { return slices.Clone(d.extensions) }

// WaitIdle returns immediately.
func (d *Device) WaitIdle() error {
	if err := d.inst.t.call(OpWaitIdle); err != nil {
		return err
	}
	if !d.inst.t.alive(d.object) {
		return fmt.Errorf("sim: wait idle: %w", backend.ErrInvalidHandle)
	}
	return nil
}

// CreateSwapchain validates desc against the surface capabilities and
// creates the chain images.
func (d *Device) CreateSwapchain(surface backend.Surface, desc *backend.SwapchainDescriptor) (backend.Swapchain, error) {
	if err := d.inst.t.call(OpCreateSwapchain); err != nil {
		return nil, err
	}
	s, ok := surface.(*Surface)
	if !ok || s.inst != d.inst {
		return nil, fmt.Errorf("sim: swapchain: foreign surface: %w", backend.ErrInvalidHandle)
	}
	if !slices.Contains(d.extensions, backend.ExtensionSwapchain) {
		return nil, fmt.Errorf("sim: swapchain: %s not enabled: %w", backend.ExtensionSwapchain, backend.ErrUnsupported)
	}
	if err := checkSwapchain(&d.cfg.Surface, desc); err != nil {
		return nil, err
	}
	obj, err := d.inst.t.create(KindSwapchain, desc.Label, d.object, s.object)
	if err != nil {
		return nil, err
	}
	sc := &Swapchain{object: obj, device: d, desc: *desc}
	count := desc.ImageCount + d.cfg.ExtraImages
	sc.images = make([]*Image, count)
	for i := range sc.images {
		sc.images[i] = &Image{swapchain: sc, index: i, format: desc.Format, extent: desc.Extent}
	}
	return sc, nil
}

func checkSwapchain(caps *backend.SurfaceCapabilities, desc *backend.SwapchainDescriptor) error {
	switch {
	case desc == nil:
		return fmt.Errorf("sim: swapchain: nil descriptor: %w", backend.ErrUnsupported)
	case desc.Extent.IsZero():
		return fmt.Errorf("sim: swapchain: zero extent: %w", backend.ErrUnsupported)
	case desc.Extent.Width < caps.MinExtent.Width || desc.Extent.Height < caps.MinExtent.Height,
		caps.MaxExtent.Width != 0 && desc.Extent.Width > caps.MaxExtent.Width,
		caps.MaxExtent.Height != 0 && desc.Extent.Height > caps.MaxExtent.Height:
		return fmt.Errorf("sim: swapchain: extent %v out of range: %w", desc.Extent, backend.ErrUnsupported)
	case desc.ImageCount < caps.MinImageCount,
		caps.MaxImageCount != 0 && desc.ImageCount > caps.MaxImageCount:
		return fmt.Errorf("sim: swapchain: image count %d out of range: %w", desc.ImageCount, backend.ErrUnsupported)
	case !slices.Contains(caps.Formats, backend.SurfaceFormat{Format: desc.Format, ColorSpace: desc.ColorSpace}):
		return fmt.Errorf("sim: swapchain: format %v: %w", desc.Format, backend.ErrUnsupported)
	case !slices.Contains(caps.PresentModes, desc.PresentMode):
		return fmt.Errorf("sim: swapchain: present mode %v: %w", desc.PresentMode, backend.ErrUnsupported)
	case !slices.Contains(caps.AlphaModes, desc.AlphaMode):
		return fmt.Errorf("sim: swapchain: alpha mode %v: %w", desc.AlphaMode, backend.ErrUnsupported)
	case desc.Usage == 0 || desc.Usage&^caps.SupportedUsage != 0:
		return fmt.Errorf("sim: swapchain: usage 0x%x: %w", uint64(desc.Usage), backend.ErrUnsupported)
	}
	return nil
}

// CreateShaderModule accepts any non-empty SPIR-V word stream.
func (d *Device) CreateShaderModule(desc *backend.ShaderModuleDescriptor) (backend.ShaderModule, error) {
	if err := d.inst.t.call(OpCreateShaderModule); err != nil {
		return nil, err
	}
	if desc == nil || len(desc.SPIRV) == 0 || desc.SPIRV[0] != spirvMagic {
		return nil, fmt.Errorf("sim: shader module: not SPIR-V: %w", backend.ErrUnsupported)
	}
	obj, err := d.inst.t.create(KindShaderModule, desc.Label, d.object)
	if err != nil {
		return nil, err
	}
	return &ShaderModule{object: obj, device: d, stage: desc.Stage, entry: desc.EntryPoint}, nil
}

// CreateRenderPass records desc.
func (d *Device) CreateRenderPass(desc *backend.RenderPassDescriptor) (backend.RenderPass, error) {
	if err := d.inst.t.call(OpCreateRenderPass); err != nil {
		return nil, err
	}
	if desc == nil || len(desc.Attachments) == 0 {
		return nil, fmt.Errorf("sim: render pass: no attachments: %w", backend.ErrUnsupported)
	}
	for _, sp := range desc.Subpasses {
		for _, a := range sp.ColorAttachments {
			if int(a) >= len(desc.Attachments) {
				return nil, fmt.Errorf("sim: render pass: attachment %d: %w", a, backend.ErrNotFound)
			}
		}
	}
	obj, err := d.inst.t.create(KindRenderPass, desc.Label, d.object)
	if err != nil {
		return nil, err
	}
	rp := &RenderPass{object: obj, device: d, desc: *desc}
	rp.desc.Attachments = slices.Clone(desc.Attachments)
	return rp, nil
}

// CreateGraphicsPipeline checks that every referenced object belongs to
// the device and is alive.
func (d *Device) CreateGraphicsPipeline(desc *backend.GraphicsPipelineDescriptor) (backend.Pipeline, error) {
	if err := d.inst.t.call(OpCreatePipeline); err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, fmt.Errorf("sim: pipeline: nil descriptor: %w", backend.ErrUnsupported)
	}
	rp, ok := desc.RenderPass.(*RenderPass)
	if !ok || rp.device != d {
		return nil, fmt.Errorf("sim: pipeline: render pass: %w", backend.ErrInvalidHandle)
	}
	vs, ok := desc.Vertex.(*ShaderModule)
	if !ok || vs.device != d || vs.stage != backend.StageVertex || !d.inst.t.alive(vs.object) {
		return nil, fmt.Errorf("sim: pipeline: vertex module: %w", backend.ErrInvalidHandle)
	}
	fs, ok := desc.Fragment.(*ShaderModule)
	if !ok || fs.device != d || fs.stage != backend.StageFragment || !d.inst.t.alive(fs.object) {
		return nil, fmt.Errorf("sim: pipeline: fragment module: %w", backend.ErrInvalidHandle)
	}
	if len(desc.ColorTargets) != len(rp.desc.Attachments) {
		return nil, fmt.Errorf("sim: pipeline: %d color targets for %d attachments: %w",
			len(desc.ColorTargets), len(rp.desc.Attachments), backend.ErrUnsupported)
	}
	obj, err := d.inst.t.create(KindPipeline, desc.Label, d.object, rp.object)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{object: obj, device: d, desc: *desc}
	return p, nil
}

// CreateFramebuffer checks that every attachment is a live chain image
// of this device matching the render pass.
func (d *Device) CreateFramebuffer(desc *backend.FramebufferDescriptor) (backend.Framebuffer, error) {
	if err := d.inst.t.call(OpCreateFramebuffer); err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, fmt.Errorf("sim: framebuffer: nil descriptor: %w", backend.ErrUnsupported)
	}
	rp, ok := desc.RenderPass.(*RenderPass)
	if !ok || rp.device != d {
		return nil, fmt.Errorf("sim: framebuffer: render pass: %w", backend.ErrInvalidHandle)
	}
	if len(desc.Attachments) != len(rp.desc.Attachments) {
		return nil, fmt.Errorf("sim: framebuffer: %d attachments for %d: %w",
			len(desc.Attachments), len(rp.desc.Attachments), backend.ErrUnsupported)
	}
	deps := []*object{d.object, rp.object}
	for n, a := range desc.Attachments {
		img, ok := a.(*Image)
		if !ok || img.swapchain.device != d {
			return nil, fmt.Errorf("sim: framebuffer: attachment %d: %w", n, backend.ErrInvalidHandle)
		}
		if img.format != rp.desc.Attachments[n].Format {
			return nil, fmt.Errorf("sim: framebuffer: attachment %d format %v: %w", n, img.format, backend.ErrUnsupported)
		}
		if img.extent.Width != desc.Width || img.extent.Height != desc.Height {
			return nil, fmt.Errorf("sim: framebuffer: attachment %d extent %v: %w", n, img.extent, backend.ErrUnsupported)
		}
		deps = append(deps, img.swapchain.object)
	}
	if desc.Layers != 1 {
		return nil, fmt.Errorf("sim: framebuffer: %d layers: %w", desc.Layers, backend.ErrUnsupported)
	}
	obj, err := d.inst.t.create(KindFramebuffer, desc.Label, deps...)
	if err != nil {
		return nil, err
	}
	fb := &Framebuffer{object: obj, device: d, attachments: slices.Clone(desc.Attachments),
		width: desc.Width, height: desc.Height, layers: desc.Layers}
	return fb, nil
}

// Swapchain is a simulated presentation chain.
type Swapchain struct {
	*object
	device *Device
	desc   backend.SwapchainDescriptor
	images []*Image
}

// Destroy releases the chain and its images.
func (s *Swapchain) Destroy() { s.device.inst.t.destroy(s.object) }

// Images returns the chain images in order.
func (s *Swapchain) Images() []backend.Image {
	out := make([]backend.Image, len(s.images))
	for i, img := range s.images {
		out[i] = img
	}
	return out
}

// Descriptor returns the configuration the chain was created with.
func (s *Swapchain) Descriptor() backend.SwapchainDescriptor { return s.desc }

// Image is a chain image.
type Image struct {
	swapchain *Swapchain
	index     int
	format    gputypes.TextureFormat
	extent    backend.Extent
}

func (i *Image) Index() int                     { return i.index }
func (i *Image) Format() gputypes.TextureFormat { return i.format }
func (i *Image) Extent() backend.Extent         { return i.extent }

// Swapchain returns the owning chain.
func (i *Image) Swapchain() *Swapchain { return i.swapchain }

// ShaderModule is a simulated shader module.
type ShaderModule struct {
	*object
	device *Device
	stage  backend.ShaderStage
	entry  string
}

// Destroy releases the module.
func (m *ShaderModule) Destroy() { m.device.inst.t.destroy(m.object) }

// Stage returns the stage the module was created for.
func (m *ShaderModule) Stage() backend.ShaderStage { return m.stage }

// RenderPass is a simulated render pass.
type RenderPass struct {
	*object
	device *Device
	desc   backend.RenderPassDescriptor
}

// Destroy releases the render pass.
func (r *RenderPass) Destroy() { r.device.inst.t.destroy(r.object) }

// Descriptor returns the recorded descriptor.
func (r *RenderPass) Descriptor() backend.RenderPassDescriptor { return r.desc }

// Pipeline is a simulated graphics pipeline.
type Pipeline struct {
	*object
	device *Device
	desc   backend.GraphicsPipelineDescriptor
}

// Destroy releases the pipeline.
func (p *Pipeline) Destroy() { p.device.inst.t.destroy(p.object) }

// Descriptor returns the recorded descriptor.
func (p *Pipeline) Descriptor() backend.GraphicsPipelineDescriptor { return p.desc }

// Framebuffer is a simulated framebuffer.
type Framebuffer struct {
	*object
	device      *Device
	attachments []backend.Image
	width       uint32
	height      uint32
	layers      uint32
}

// Destroy releases the framebuffer.
func (f *Framebuffer) Destroy() { f.device.inst.t.destroy(f.object) }

// Attachments returns the bound images.
func (f *Framebuffer) Attachments() []backend.Image { return slices.Clone(f.attachments) }

// Size returns width, height and layer count.
func (f *Framebuffer) Size() (width, height, layers uint32) { return f.width, f.height, f.layers }
