// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"log/slog"
	"slices"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Ready is a bootstrapped handle set: a pipeline and one framebuffer per
// chain image, plus everything they were built from. Ready is never
// partially built.
//
// A Ready is not safe for concurrent use.
type Ready struct {
	ctx     *Context
	surface *Surface
	device  *Device
	queue   backend.Queue
	vs, fs  *ShaderStage

	chain        *Chain
	renderPass   *RenderPass
	pipeline     *Pipeline
	framebuffers []*Framebuffer

	// mark is the device arena position just after the shaders. Everything
	// above it is rebuilt on resize. chainAt is the arena index of the
	// first chain, which sits below mark, or -1 once it is released.
	mark    int
	chainAt int

	log       *slog.Logger
	destroyed bool
}

// buildPresentation builds the chain-dependent objects on top of chain.
// It reports the stage that failed.
func (r *Ready) buildPresentation(chain *Chain, advance func(State)) (Stage, error) {
	r.chain = chain

	rp, err := BuildRenderPass(r.device, []backend.AttachmentDescriptor{ColorAttachment(chain.Format())})
	if err != nil {
		return StagePipeline, err
	}
	r.renderPass = rp

	pl, err := BuildPipeline(r.device, rp, r.vs, r.fs, chain.Extent())
	if err != nil {
		return StagePipeline, err
	}
	r.pipeline = pl
	if advance != nil {
		advance(StatePipelineReady)
	}

	fbs, err := BuildFramebuffers(r.device, rp, chain.Images())
	if err != nil {
		return StageFramebuffers, err
	}
	r.framebuffers = fbs
	if advance != nil {
		advance(StateFramebuffersReady)
	}
	return 0, nil
}

// Pipeline returns the graphics pipeline.
func (r *Ready) Pipeline() *Pipeline { return r.pipeline }

// Framebuffers returns the framebuffers; framebuffer i binds chain image i.
func (r *Ready) Framebuffers() []*Framebuffer { return slices.Clone(r.framebuffers) }

// Queue returns the retained graphics and present queue.
func (r *Ready) Queue() backend.Queue { return r.queue }

// Chain returns the presentation chain.
func (r *Ready) Chain() *Chain { return r.chain }

// RenderPass returns the render pass.
func (r *Ready) RenderPass() *RenderPass { return r.renderPass }

// Device returns the logical device.
func (r *Ready) Device() *Device { return r.device }

// Surface returns the bound surface.
func (r *Ready) Surface() *Surface { return r.surface }

// Context returns the backend context.
func (r *Ready) Context() *Context { return r.ctx }

// Shaders returns the vertex and fragment stages.
func (r *Ready) Shaders() (vertex, fragment *ShaderStage) { return r.vs, r.fs }

// Destroyed reports whether Destroy has been called.
func (r *Ready) Destroyed() bool { return r.destroyed }

// Destroy releases everything, newest first: framebuffers, pipeline,
// render pass, shaders, chain, device, surface and the instance.
// It is idempotent.
func (r *Ready) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.ctx.Destroy()
}

// Rebuild replaces the chain, render pass, pipeline and framebuffers with
// new instances sized for extent. The shaders are kept. A current extent
// reported by the surface takes precedence over extent.
//
// On failure the whole handle set is destroyed and the error is a
// *BootstrapError.
func (r *Ready) Rebuild(extent backend.Extent) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if err := r.device.WaitIdle(); err != nil {
		r.Destroy()
		return &BootstrapError{Stage: StageDevice, Err: err}
	}

	r.device.owned.ReleaseTo(r.mark)
	if r.chainAt >= 0 {
		r.device.owned.ReleaseAt(r.chainAt)
		r.chainAt = -1
		r.mark--
	}
	r.framebuffers, r.pipeline, r.renderPass, r.chain = nil, nil, nil, nil

	policy := r.ctx.cfg.Chain
	if !extent.IsZero() {
		policy.FallbackExtent = extent
	}
	chain, err := CreateChain(r.device, r.surface, policy)
	if err != nil {
		r.Destroy()
		return &BootstrapError{Stage: StageChain, Err: err}
	}
	if stage, err := r.buildPresentation(chain, nil); err != nil {
		r.Destroy()
		return &BootstrapError{Stage: stage, Err: err}
	}
	r.log.Debug("gpuboot: rebuilt", "extent", chain.Extent().String())
	return nil
}

// HalDevice returns the HAL device when the backend is backend/wgpu.
func (r *Ready) HalDevice() (hal.Device, bool) {
	d, ok := r.device.dev.(interface{ Hal() hal.Device })
	if !ok {
		return nil, false
	}
	return d.Hal(), true
}

// HalQueue returns the HAL queue when the backend is backend/wgpu.
func (r *Ready) HalQueue() (hal.Queue, bool) {
	q, ok := r.queue.(interface{ Hal() hal.Queue })
	if !ok {
		return nil, false
	}
	return q.Hal(), true
}

// Provider exposes the handle set as a gpucontext.DeviceProvider so that
// other gogpu libraries can render with the bootstrapped device.
func (r *Ready) Provider() gpucontext.DeviceProvider {
	return deviceProvider{r: r}
}

type deviceProvider struct {
	r *Ready
}

var _ gpucontext.DeviceProvider = deviceProvider{}

func native(v any) any {
	if n, ok := v.(backend.Native); ok {
		return n.Native()
	}
	return v
}

func (p deviceProvider) Device() gpucontext.Device { return native(p.r.device.dev) }

func (p deviceProvider) Queue() gpucontext.Queue { return native(p.r.queue) }

func (p deviceProvider) Adapter() gpucontext.Adapter {
	if a, ok := p.r.device.dev.(interface{ Adapter() hal.Adapter }); ok {
		return a.Adapter()
	}
	return nil
}

func (p deviceProvider) SurfaceFormat() gputypes.TextureFormat {
	if p.r.chain == nil {
		return gputypes.TextureFormatUndefined
	}
	return p.r.chain.Format()
}

func (p deviceProvider) AdapterInfo() gpucontext.AdapterInfo {
	info := p.r.device.pd.Info
	return gpucontext.AdapterInfo{Name: info.Name, Type: adapterType(info.DeviceType)}
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}
