// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"testing"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/backend/sim"
)

func newSim(mutate func(*sim.Config)) *sim.Backend {
	cfg := sim.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return sim.New(cfg)
}

func testTarget() backend.Target {
	return backend.Target{Label: "window", Window: 1}
}

// lastInstance returns the most recent instance created by b.
func lastInstance(t *testing.T, b *sim.Backend) *sim.Instance {
	t.Helper()
	insts := b.Instances()
	if len(insts) == 0 {
		t.Fatal("backend created no instance")
	}
	return insts[len(insts)-1]
}

// checkReleased fails unless every object of inst was destroyed in a
// valid order.
func checkReleased(t *testing.T, inst *sim.Instance) {
	t.Helper()
	if live := inst.Live(); len(live) != 0 {
		t.Errorf("live objects after release: %v", live)
	}
	if v := inst.Violations(); len(v) != 0 {
		t.Errorf("ownership violations: %v", v)
	}
}

// stages builds a context, surface and device on b.
type stages struct {
	ctx     *Context
	pd      *backend.PhysicalDeviceDescriptor
	surface *Surface
	device  *Device
	queues  []backend.Queue
}

func newStages(t *testing.T, b backend.Backend, opts ...Option) *stages {
	t.Helper()
	ctx, err := CreateContext(b, nil, opts...)
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	t.Cleanup(ctx.Destroy)
	pd, err := ctx.SelectPhysicalDevice()
	if err != nil {
		t.Fatalf("SelectPhysicalDevice: %v", err)
	}
	surface, err := BindSurface(ctx, testTarget())
	if err != nil {
		t.Fatalf("BindSurface: %v", err)
	}
	family, err := SelectQueueFamily(pd, surface)
	if err != nil {
		t.Fatalf("SelectQueueFamily: %v", err)
	}
	dev, qs, err := CreateDevice(ctx, pd, []backend.QueueRequest{{Family: family, Priority: DefaultQueuePriority}}, nil)
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	return &stages{ctx: ctx, pd: pd, surface: surface, device: dev, queues: qs}
}

func (s *stages) shaders(t *testing.T) (vs, fs *ShaderStage) {
	t.Helper()
	src := TriangleShaders()
	vs, err := LoadShader(s.device, backend.StageVertex, src.Vertex)
	if err != nil {
		t.Fatalf("LoadShader(vertex): %v", err)
	}
	fs, err = LoadShader(s.device, backend.StageFragment, src.Fragment)
	if err != nil {
		t.Fatalf("LoadShader(fragment): %v", err)
	}
	return vs, fs
}
