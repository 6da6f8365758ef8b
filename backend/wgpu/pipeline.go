// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ShaderModule wraps a hal.ShaderModule.
type ShaderModule struct {
	device *Device
	module hal.ShaderModule
	stage  backend.ShaderStage
	entry  string
}

// Stage returns the stage the module was created for.
func (m *ShaderModule) Stage() backend.ShaderStage { return m.stage }

// Native returns the hal.ShaderModule.
func (m *ShaderModule) Native() any { return m.module }

// Destroy releases the module.
func (m *ShaderModule) Destroy() { m.device.dev.DestroyShaderModule(m.module) }

// RenderPass is a recorded render pass declaration.
type RenderPass struct {
	device *Device
	desc   backend.RenderPassDescriptor
}

// Destroy is a no-op; render passes hold no GPU object.
func (r *RenderPass) Destroy() {}

// Pipeline wraps a hal render pipeline and its layout. Viewport and
// scissor are dynamic in the HAL and are applied when a pass begins.
type Pipeline struct {
	device   *Device
	layout   hal.PipelineLayout
	pipeline hal.RenderPipeline
	Viewport backend.Viewport
	Scissor  backend.Scissor
}

// Native returns the hal.RenderPipeline.
func (p *Pipeline) Native() any { return p.pipeline }

// Destroy releases the pipeline, then its layout.
func (p *Pipeline) Destroy() {
	p.device.dev.DestroyRenderPipeline(p.pipeline)
	p.device.dev.DestroyPipelineLayout(p.layout)
}

// CreateGraphicsPipeline creates an empty pipeline layout and a render
// pipeline targeting the render pass attachments.
func (d *Device) CreateGraphicsPipeline(desc *backend.GraphicsPipelineDescriptor) (backend.Pipeline, error) {
	if desc == nil {
		return nil, fmt.Errorf("wgpu: pipeline: nil descriptor: %w", backend.ErrUnsupported)
	}
	rp, ok := desc.RenderPass.(*RenderPass)
	if !ok || rp.device != d {
		return nil, fmt.Errorf("wgpu: pipeline: render pass: %w", backend.ErrInvalidHandle)
	}
	vs, ok := desc.Vertex.(*ShaderModule)
	if !ok || vs.device != d {
		return nil, fmt.Errorf("wgpu: pipeline: vertex module: %w", backend.ErrInvalidHandle)
	}
	fs, ok := desc.Fragment.(*ShaderModule)
	if !ok || fs.device != d {
		return nil, fmt.Errorf("wgpu: pipeline: fragment module: %w", backend.ErrInvalidHandle)
	}

	layout, err := d.dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{Label: desc.Label + " layout"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	pipeline, err := d.dev.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     vs.module,
			EntryPoint: desc.VertexEntry,
			Buffers:    desc.VertexBuffers,
		},
		Primitive:    desc.Primitive,
		DepthStencil: depthStencil(desc.DepthStencil),
		Multisample:  desc.Multisample,
		Fragment: &hal.FragmentState{
			Module:     fs.module,
			EntryPoint: desc.FragmentEntry,
			Targets:    desc.ColorTargets,
		},
	})
	if err != nil {
		d.dev.DestroyPipelineLayout(layout)
		return nil, fmt.Errorf("wgpu: create render pipeline: %w", err)
	}
	return &Pipeline{
		device:   d,
		layout:   layout,
		pipeline: pipeline,
		Viewport: desc.Viewport,
		Scissor:  desc.Scissor,
	}, nil
}

func depthStencil(ds *gputypes.DepthStencilState) *hal.DepthStencilState {
	if ds == nil {
		return nil
	}
	return &hal.DepthStencilState{
		Format:              ds.Format,
		DepthWriteEnabled:   ds.DepthWriteEnabled,
		DepthCompare:        ds.DepthCompare,
		StencilFront:        stencilFace(ds.StencilFront),
		StencilBack:         stencilFace(ds.StencilBack),
		StencilReadMask:     ds.StencilReadMask,
		StencilWriteMask:    ds.StencilWriteMask,
		DepthBias:           ds.DepthBias,
		DepthBiasSlopeScale: ds.DepthBiasSlopeScale,
		DepthBiasClamp:      ds.DepthBiasClamp,
	}
}

func stencilFace(f gputypes.StencilFaceState) hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     f.Compare,
		FailOp:      stencilOp(f.FailOp),
		DepthFailOp: stencilOp(f.DepthFailOp),
		PassOp:      stencilOp(f.PassOp),
	}
}

// stencilOp maps gputypes operations (Undefined = 0) onto hal (Keep = 0).
func stencilOp(op gputypes.StencilOperation) hal.StencilOperation {
	if op == gputypes.StencilOperationUndefined {
		return hal.StencilOperationKeep
	}
	return hal.StencilOperation(op - 1)
}

// Framebuffer is a render pass descriptor bound to concrete views.
type Framebuffer struct {
	device *Device
	pass   hal.RenderPassDescriptor
	width  uint32
	height uint32
}

// Destroy is a no-op; the views belong to the swapchain.
func (f *Framebuffer) Destroy() {}

// RenderPassDescriptor returns a copy of the descriptor to begin the
// render pass with.
func (f *Framebuffer) RenderPassDescriptor() hal.RenderPassDescriptor {
	pass := f.pass
	pass.ColorAttachments = append([]hal.RenderPassColorAttachment(nil), f.pass.ColorAttachments...)
	return pass
}

// CreateFramebuffer binds swapchain views to the render pass attachments.
func (d *Device) CreateFramebuffer(desc *backend.FramebufferDescriptor) (backend.Framebuffer, error) {
	if desc == nil {
		return nil, fmt.Errorf("wgpu: framebuffer: nil descriptor: %w", backend.ErrUnsupported)
	}
	rp, ok := desc.RenderPass.(*RenderPass)
	if !ok || rp.device != d {
		return nil, fmt.Errorf("wgpu: framebuffer: render pass: %w", backend.ErrInvalidHandle)
	}
	if len(desc.Attachments) != len(rp.desc.Attachments) {
		return nil, fmt.Errorf("wgpu: framebuffer: %d attachments for %d: %w",
			len(desc.Attachments), len(rp.desc.Attachments), backend.ErrUnsupported)
	}
	fb := &Framebuffer{device: d, width: desc.Width, height: desc.Height}
	fb.pass.Label = desc.Label
	for n, a := range desc.Attachments {
		img, ok := a.(*Image)
		if !ok {
			return nil, fmt.Errorf("wgpu: framebuffer: attachment %d: %w", n, backend.ErrInvalidHandle)
		}
		ad := rp.desc.Attachments[n]
		if img.format != ad.Format || img.extent.Width != desc.Width || img.extent.Height != desc.Height {
			return nil, fmt.Errorf("wgpu: framebuffer: attachment %d: %v %v: %w", n, img.format, img.extent, backend.ErrUnsupported)
		}
		fb.pass.ColorAttachments = append(fb.pass.ColorAttachments, hal.RenderPassColorAttachment{
			View:       img.view,
			LoadOp:     ad.LoadOp,
			StoreOp:    ad.StoreOp,
			ClearValue: rp.desc.ClearColor,
		})
	}
	return fb, nil
}
