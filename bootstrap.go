// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/shader"
)

// Stage names the component a bootstrap failed in.
type Stage uint8

const (
	StageContext Stage = iota
	StageSurface
	StageDevice
	StageChain
	StageShaders
	StagePipeline
	StageFramebuffers
)

func (s Stage) String() string {
	switch s {
	case StageContext:
		return "context"
	case StageSurface:
		return "surface"
	case StageDevice:
		return "device"
	case StageChain:
		return "chain"
	case StageShaders:
		return "shaders"
	case StagePipeline:
		return "pipeline"
	case StageFramebuffers:
		return "framebuffers"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// State is the position of a bootstrap in its linear sequence.
type State uint8

const (
	StateUninitialized State = iota
	StateContextReady
	StateSurfaceBound
	StateDeviceReady
	StateChainReady
	StateShadersReady
	StatePipelineReady
	StateFramebuffersReady
	StateFailed

	// StateReady is the terminal success state.
	StateReady = StateFramebuffersReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateContextReady:
		return "ContextReady"
	case StateSurfaceBound:
		return "SurfaceBound"
	case StateDeviceReady:
		return "DeviceReady"
	case StateChainReady:
		return "ChainReady"
	case StateShadersReady:
		return "ShadersReady"
	case StatePipelineReady:
		return "PipelineReady"
	case StateFramebuffersReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateReady || s == StateFailed
}

// Transition is one state change of a bootstrap.
type Transition struct {
	From, To State
}

func (t Transition) String() string {
	return t.From.String() + " -> " + t.To.String()
}

// ShaderSources are the vertex and fragment stage inputs of a bootstrap.
// Empty entry names select the first entry point of each stage.
type ShaderSources struct {
	Vertex        shader.Code
	VertexEntry   string
	Fragment      shader.Code
	FragmentEntry string
}

// TriangleShaders returns the built-in triangle stages.
func TriangleShaders() ShaderSources {
	vs, fs := shader.Triangle()
	return ShaderSources{
		Vertex:        vs,
		VertexEntry:   shader.TriangleEntryPoint,
		Fragment:      fs,
		FragmentEntry: shader.TriangleEntryPoint,
	}
}

// Bootstrapper runs the bootstrap sequence once and records the states it
// passes through. A Bootstrapper is not safe for concurrent use.
type Bootstrapper struct {
	backend backend.Backend
	target  backend.Target
	shaders ShaderSources
	opts    []Option
	log     *slog.Logger

	state   State
	history []Transition
	err     error
	ran     bool
}

// NewBootstrapper returns a bootstrapper in StateUninitialized.
func NewBootstrapper(b backend.Backend, target backend.Target, shaders ShaderSources, opts ...Option) *Bootstrapper {
	cfg := newConfig(opts)
	return &Bootstrapper{
		backend: b,
		target:  target,
		shaders: shaders,
		opts:    slices.Clone(opts),
		log:     cfg.logger(),
	}
}

// Bootstrap brings target from nothing to a ready-to-render pipeline and
// framebuffer set. On failure everything acquired is released, newest
// first, and the error is a *BootstrapError.
func Bootstrap(b backend.Backend, target backend.Target, shaders ShaderSources, opts ...Option) (*Ready, error) {
	return NewBootstrapper(b, target, shaders, opts...).Run()
}

// State returns the current state.
func (b *Bootstrapper) State() State { return b.state }

// History returns the transitions taken so far.
func (b *Bootstrapper) History() []Transition { return slices.Clone(b.history) }

// Err returns the failure of a bootstrap in StateFailed.
func (b *Bootstrapper) Err() error { return b.err }

// Run executes the sequence. It can be called once; later calls return
// ErrAlreadyRun.
func (b *Bootstrapper) Run() (*Ready, error) {
	if b.ran {
		return nil, ErrAlreadyRun
	}
	b.ran = true

	ctx, err := CreateContext(b.backend, nil, b.opts...)
	if err != nil {
		return nil, b.fail(nil, StageContext, err)
	}
	pd, err := ctx.SelectPhysicalDevice()
	if err != nil {
		return nil, b.fail(ctx, StageContext, err)
	}
	b.advance(StateContextReady)

	surface, err := BindSurface(ctx, b.target)
	if err != nil {
		return nil, b.fail(ctx, StageSurface, err)
	}
	b.advance(StateSurfaceBound)

	family, err := SelectQueueFamily(pd, surface)
	if err != nil {
		return nil, b.fail(ctx, StageDevice, err)
	}
	dev, queues, err := CreateDevice(ctx, pd,
		[]backend.QueueRequest{{Family: family, Priority: DefaultQueuePriority}},
		ctx.cfg.DeviceExtensions)
	if err != nil {
		return nil, b.fail(ctx, StageDevice, err)
	}
	b.advance(StateDeviceReady)

	chainAt := dev.owned.Mark()
	chain, err := CreateChain(dev, surface, ctx.cfg.Chain)
	if err != nil {
		return nil, b.fail(ctx, StageChain, err)
	}
	b.advance(StateChainReady)

	vs, err := LoadShaderEntry(dev, backend.StageVertex, b.shaders.Vertex, b.shaders.VertexEntry)
	if err != nil {
		return nil, b.fail(ctx, StageShaders, err)
	}
	fs, err := LoadShaderEntry(dev, backend.StageFragment, b.shaders.Fragment, b.shaders.FragmentEntry)
	if err != nil {
		return nil, b.fail(ctx, StageShaders, err)
	}
	b.advance(StateShadersReady)

	r := &Ready{
		ctx:     ctx,
		surface: surface,
		device:  dev,
		queue:   queues[0],
		vs:      vs,
		fs:      fs,
		chainAt: chainAt,
		mark:    dev.owned.Mark(),
		log:     b.log,
	}
	if stage, err := r.buildPresentation(chain, b.advance); err != nil {
		return nil, b.fail(ctx, stage, err)
	}

	b.log.Info("gpuboot: ready",
		"backend", b.backend.Name(),
		"adapter", pd.Info.Name,
		"extent", chain.Extent().String(),
		"format", chain.Format().String(),
		"images", len(chain.Images()))
	return r, nil
}

func (b *Bootstrapper) advance(to State) {
	t := Transition{From: b.state, To: to}
	b.history = append(b.history, t)
	b.state = to
	b.log.Debug("gpuboot: state", "from", t.From.String(), "to", t.To.String())
}

// fail releases everything ctx owns and moves to StateFailed.
func (b *Bootstrapper) fail(ctx *Context, stage Stage, err error) error {
	if ctx != nil {
		ctx.Destroy()
	}
	b.advance(StateFailed)
	b.err = &BootstrapError{Stage: stage, Err: err}
	b.log.Warn("gpuboot: bootstrap failed", "stage", stage.String(), "error", err)
	return b.err
}
