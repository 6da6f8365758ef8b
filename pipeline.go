// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/shader"
	"github.com/gogpu/gputypes"
)

// ColorAttachment returns the attachment a bootstrap declares for a chain
// of the given format: single sampled, cleared on load, stored.
func ColorAttachment(format gputypes.TextureFormat) backend.AttachmentDescriptor {
	return backend.AttachmentDescriptor{
		Format:  format,
		Samples: 1,
		LoadOp:  gputypes.LoadOpClear,
		StoreOp: gputypes.StoreOpStore,
	}
}

// RenderPass is a render pass with a single subpass that writes every
// attachment as a color target.
type RenderPass struct {
	desc backend.RenderPassDescriptor
	rp   backend.RenderPass

	destroyed bool
}

// BuildRenderPass creates a render pass for attachments. It fails with
// ErrRenderPass when attachments is empty, a format is undefined, a
// sample count is not a power of two up to 16, or the backend refuses.
func BuildRenderPass(dev *Device, attachments []backend.AttachmentDescriptor) (*RenderPass, error) {
	if err := dev.check(); err != nil {
		return nil, stageError(ErrRenderPass, "%w", err)
	}
	if len(attachments) == 0 {
		return nil, stageError(ErrRenderPass, "no attachments")
	}
	colors := make([]uint32, len(attachments))
	for i, a := range attachments {
		if a.Format == gputypes.TextureFormatUndefined {
			return nil, stageError(ErrRenderPass, "attachment %d: undefined format", i)
		}
		switch a.Samples {
		case 1, 2, 4, 8, 16:
		default:
			return nil, stageError(ErrRenderPass, "attachment %d: invalid sample count %d", i, a.Samples)
		}
		colors[i] = uint32(i)
	}

	desc := backend.RenderPassDescriptor{
		Label:       dev.ctx.label("renderpass"),
		Attachments: slices.Clone(attachments),
		Subpasses:   []backend.SubpassDescriptor{{ColorAttachments: colors}},
		ClearColor:  dev.ctx.cfg.ClearColor,
	}
	rp, err := dev.dev.CreateRenderPass(&desc)
	if err != nil {
		return nil, stageError(ErrRenderPass, "%w", err)
	}
	r := &RenderPass{desc: desc, rp: rp}
	dev.own("renderpass", r)
	return r, nil
}

// Attachments returns the attachment descriptors.
func (r *RenderPass) Attachments() []backend.AttachmentDescriptor {
	return slices.Clone(r.desc.Attachments)
}

// Backend returns the backend render pass.
func (r *RenderPass) Backend() backend.RenderPass { return r.rp }

// Destroy releases the render pass. It is idempotent.
func (r *RenderPass) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.rp.Destroy()
}

// PipelineConfig is the fixed-function state of a graphics pipeline.
type PipelineConfig struct {
	VertexBuffers []gputypes.VertexBufferLayout
	Primitive     gputypes.PrimitiveState
	Viewport      backend.Viewport
	Scissor       backend.Scissor
	Multisample   gputypes.MultisampleState
	ColorTargets  []gputypes.ColorTargetState
	// DepthStencil is nil: depth and stencil testing are disabled.
	DepthStencil *gputypes.DepthStencilState
}

// newPipelineConfig returns the bootstrap pipeline state: a triangle
// list, a full-extent viewport and scissor, default rasterization, no
// multisampling, no depth or stencil, and unblended color writes.
func newPipelineConfig(layout []gputypes.VertexBufferLayout, extent backend.Extent, targets []backend.AttachmentDescriptor) PipelineConfig {
	cfg := PipelineConfig{
		VertexBuffers: cloneLayout(layout),
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Viewport: backend.Viewport{
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
		Scissor: backend.Scissor{
			Width:  extent.Width,
			Height: extent.Height,
		},
		Multisample: gputypes.DefaultMultisampleState(),
	}
	for _, a := range targets {
		cfg.ColorTargets = append(cfg.ColorTargets, gputypes.ColorTargetState{
			Format:    a.Format,
			WriteMask: gputypes.ColorWriteMaskAll,
		})
	}
	return cfg
}

func cloneLayout(layout []gputypes.VertexBufferLayout) []gputypes.VertexBufferLayout {
	out := make([]gputypes.VertexBufferLayout, len(layout))
	for i, l := range layout {
		out[i] = l
		out[i].Attributes = slices.Clone(l.Attributes)
	}
	return out
}

// Pipeline is an immutable graphics pipeline.
type Pipeline struct {
	config   PipelineConfig
	pipeline backend.Pipeline

	destroyed bool
}

// BuildPipeline creates the graphics pipeline for rp from a vertex and a
// fragment stage, with a viewport and scissor covering extent. The vertex
// layout comes from WithVertexLayout, or the context configuration.
//
// It fails with ErrPipelineCreation when rp is nil, a stage is missing or
// in the wrong slot, extent is zero, the vertex layout does not match the
// vertex stage inputs, or the backend refuses.
func BuildPipeline(dev *Device, rp *RenderPass, vs, fs *ShaderStage, extent backend.Extent, opts ...Option) (*Pipeline, error) {
	if err := dev.check(); err != nil {
		return nil, stageError(ErrPipelineCreation, "%w", err)
	}
	cfg := dev.ctx.cfg
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	switch {
	case rp == nil || rp.destroyed:
		return nil, stageError(ErrPipelineCreation, "no render pass")
	case vs == nil || vs.destroyed:
		return nil, stageError(ErrPipelineCreation, "no vertex stage")
	case fs == nil || fs.destroyed:
		return nil, stageError(ErrPipelineCreation, "no fragment stage")
	case vs.stage != backend.StageVertex:
		return nil, stageError(ErrPipelineCreation, "vertex slot holds a %v stage", vs.stage)
	case fs.stage != backend.StageFragment:
		return nil, stageError(ErrPipelineCreation, "fragment slot holds a %v stage", fs.stage)
	case extent.IsZero():
		return nil, stageError(ErrPipelineCreation, "zero extent %v", extent)
	}
	if err := MatchVertexLayout(cfg.VertexLayout, vs.iface); err != nil {
		return nil, stageError(ErrPipelineCreation, "%w", err)
	}

	pc := newPipelineConfig(cfg.VertexLayout, extent, rp.desc.Attachments)
	p, err := dev.dev.CreateGraphicsPipeline(&backend.GraphicsPipelineDescriptor{
		Label:         dev.ctx.label("pipeline"),
		RenderPass:    rp.rp,
		Subpass:       0,
		Vertex:        vs.module,
		VertexEntry:   vs.iface.EntryPoint,
		Fragment:      fs.module,
		FragmentEntry: fs.iface.EntryPoint,
		VertexBuffers: pc.VertexBuffers,
		Primitive:     pc.Primitive,
		Viewport:      pc.Viewport,
		Scissor:       pc.Scissor,
		Multisample:   pc.Multisample,
		ColorTargets:  pc.ColorTargets,
		DepthStencil:  pc.DepthStencil,
	})
	if err != nil {
		return nil, stageError(ErrPipelineCreation, "%w", err)
	}
	pl := &Pipeline{config: pc, pipeline: p}
	dev.own("pipeline", pl)
	return pl, nil
}

// MatchVertexLayout checks that layout feeds exactly the inputs of the
// vertex stage iface: every input has one attribute at its location, with
// the same component count and scalar kind.
func MatchVertexLayout(layout []gputypes.VertexBufferLayout, iface shader.Interface) error {
	seen := make(map[uint32]bool)
	for b, buf := range layout {
		for _, attr := range buf.Attributes {
			loc := attr.ShaderLocation
			if seen[loc] {
				return fmt.Errorf("buffer %d: duplicate attribute at location %d", b, loc)
			}
			seen[loc] = true

			in, ok := iface.Input(loc)
			if !ok {
				return fmt.Errorf("buffer %d: attribute at location %d has no shader input", b, loc)
			}
			n, kind, ok := shader.VertexFormatInput(attr.Format)
			if !ok {
				return fmt.Errorf("buffer %d: location %d: unsupported vertex format %v", b, loc, attr.Format)
			}
			if n != in.Components || kind != in.Kind {
				return fmt.Errorf("location %d: attribute delivers %d x %v, shader expects %v",
					loc, n, kind, in)
			}
		}
	}
	for _, in := range iface.Inputs {
		if !seen[in.Location] {
			return fmt.Errorf("shader input %v has no vertex attribute", in)
		}
	}
	return nil
}

// Config returns the pipeline state.
func (p *Pipeline) Config() PipelineConfig { return p.config }

// Viewport returns the pipeline viewport.
func (p *Pipeline) Viewport() backend.Viewport { return p.config.Viewport }

// Backend returns the backend pipeline.
func (p *Pipeline) Backend() backend.Pipeline { return p.pipeline }

// Destroy releases the pipeline. It is idempotent.
func (p *Pipeline) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.pipeline.Destroy()
}
