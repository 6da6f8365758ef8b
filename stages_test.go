// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/backend/sim"
	"github.com/gogpu/gpuboot/shader"
	"github.com/gogpu/gputypes"
)

func TestCreateContext(t *testing.T) {
	tests := []struct {
		name string
		b    backend.Backend
		exts []string
	}{
		{"nil backend", nil, nil},
		{"unsupported extension", newSim(nil), []string{"VK_EXT_debug_utils"}},
		{"instance failure", newSim(func(c *sim.Config) {
			c.Faults = []sim.Fault{{Op: sim.OpCreateInstance}}
		}), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := CreateContext(tt.b, tt.exts)
			if !errors.Is(err, ErrBackendUnavailable) {
				t.Errorf("CreateContext error = %v, want ErrBackendUnavailable", err)
			}
			if ctx != nil {
				t.Error("CreateContext returned a context with an error")
			}
		})
	}
}

func TestEnumeratePhysicalDevices(t *testing.T) {
	ctx, err := CreateContext(newSim(func(c *sim.Config) { c.Devices = nil }), nil)
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	defer ctx.Destroy()
	if _, err := ctx.EnumeratePhysicalDevices(); !errors.Is(err, ErrNoDeviceAvailable) {
		t.Errorf("EnumeratePhysicalDevices error = %v, want ErrNoDeviceAvailable", err)
	}
	if _, err := ctx.SelectPhysicalDevice(); !errors.Is(err, ErrNoDeviceAvailable) {
		t.Errorf("SelectPhysicalDevice error = %v, want ErrNoDeviceAvailable", err)
	}
}

func TestSelectPhysicalDevice(t *testing.T) {
	b := newSim(func(c *sim.Config) {
		integrated := sim.DefaultDevice()
		integrated.Name = "Integrated"
		integrated.Type = gputypes.DeviceTypeIntegratedGPU
		c.Devices = append([]sim.DeviceConfig{integrated}, c.Devices...)
	})

	ctx, err := CreateContext(b, nil)
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	defer ctx.Destroy()
	pd, err := ctx.SelectPhysicalDevice()
	if err != nil || pd.Info.Name != "Integrated" {
		t.Errorf("default selection = %v, %v; want first enumerated", pd, err)
	}

	discrete := func(pds []backend.PhysicalDeviceDescriptor) (int, bool) {
		for i, pd := range pds {
			if pd.Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
				return i, true
			}
		}
		return 0, false
	}
	ctx2, err := CreateContext(b, nil, WithDeviceSelector(discrete))
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	defer ctx2.Destroy()
	pd, err = ctx2.SelectPhysicalDevice()
	if err != nil || pd.Info.Name != "Sim GPU" || pd.Index != 1 {
		t.Errorf("selector = %+v, %v; want Sim GPU at index 1", pd, err)
	}

	none := func([]backend.PhysicalDeviceDescriptor) (int, bool) { return 0, false }
	ctx3, err := CreateContext(b, nil, WithDeviceSelector(none))
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	defer ctx3.Destroy()
	if _, err := ctx3.SelectPhysicalDevice(); !errors.Is(err, ErrNoDeviceAvailable) {
		t.Errorf("rejecting selector error = %v, want ErrNoDeviceAvailable", err)
	}
}

func TestBindSurface(t *testing.T) {
	ctx, err := CreateContext(newSim(nil), nil)
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	if _, err := BindSurface(ctx, backend.Target{}); !errors.Is(err, ErrSurfaceCreation) {
		t.Errorf("BindSurface without window error = %v, want ErrSurfaceCreation", err)
	}
	s, err := BindSurface(ctx, testTarget())
	if err != nil {
		t.Fatalf("BindSurface: %v", err)
	}
	if s.Target().Window != 1 {
		t.Errorf("Target().Window = %d", s.Target().Window)
	}
	ctx.Destroy()
	if _, err := BindSurface(ctx, testTarget()); !errors.Is(err, ErrSurfaceCreation) || !errors.Is(err, ErrDestroyed) {
		t.Errorf("BindSurface on destroyed context error = %v", err)
	}
	if _, err := s.SupportsPresent(nil, 0); !errors.Is(err, ErrDestroyed) {
		t.Errorf("SupportsPresent after destroy error = %v, want ErrDestroyed", err)
	}
}

func TestSelectQueueFamily(t *testing.T) {
	tests := []struct {
		name     string
		families []backend.QueueFamily
		present  []bool
		faults   []sim.Fault
		want     uint32
		wantErr  bool
	}{
		{
			name:     "first family",
			families: []backend.QueueFamily{{Index: 0, Flags: backend.QueueGraphics, Count: 1}},
			present:  []bool{true},
			want:     0,
		},
		{
			name: "skip compute only",
			families: []backend.QueueFamily{
				{Index: 0, Flags: backend.QueueCompute, Count: 1},
				{Index: 1, Flags: backend.QueueGraphics | backend.QueueCompute, Count: 1},
			},
			present: []bool{true, true},
			want:    1,
		},
		{
			name: "skip graphics without present",
			families: []backend.QueueFamily{
				{Index: 0, Flags: backend.QueueGraphics, Count: 1},
				{Index: 1, Flags: backend.QueueGraphics, Count: 1},
				{Index: 2, Flags: backend.QueueGraphics, Count: 1},
			},
			present: []bool{false, true, true},
			want:    1,
		},
		{
			name: "present without graphics",
			families: []backend.QueueFamily{
				{Index: 0, Flags: backend.QueueTransfer, Count: 1},
			},
			present: []bool{true},
			wantErr: true,
		},
		{
			name:     "present query error",
			families: []backend.QueueFamily{{Index: 0, Flags: backend.QueueGraphics, Count: 1}},
			present:  []bool{true},
			faults:   []sim.Fault{{Op: sim.OpSupportsPresent}},
			wantErr:  true,
		},
		{
			name: "query error on first family only",
			families: []backend.QueueFamily{
				{Index: 0, Flags: backend.QueueGraphics, Count: 1},
				{Index: 1, Flags: backend.QueueGraphics, Count: 1},
			},
			present: []bool{true, true},
			faults:  []sim.Fault{{Op: sim.OpSupportsPresent, Call: 1}},
			want:    1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newSim(func(c *sim.Config) {
				c.Devices[0].QueueFamilies = tt.families
				c.Devices[0].Present = tt.present
				c.Faults = tt.faults
			})
			ctx, err := CreateContext(b, nil)
			if err != nil {
				t.Fatalf("CreateContext: %v", err)
			}
			defer ctx.Destroy()
			pd, err := ctx.SelectPhysicalDevice()
			if err != nil {
				t.Fatalf("SelectPhysicalDevice: %v", err)
			}
			s, err := BindSurface(ctx, testTarget())
			if err != nil {
				t.Fatalf("BindSurface: %v", err)
			}
			got, err := SelectQueueFamily(pd, s)
			if tt.wantErr {
				if !errors.Is(err, ErrNoSuitableQueueFamily) {
					t.Errorf("SelectQueueFamily error = %v, want ErrNoSuitableQueueFamily", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("SelectQueueFamily = %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}

func TestCreateDevice(t *testing.T) {
	s := newStages(t, newSim(nil))
	if len(s.queues) != 1 {
		t.Fatalf("got %d queues, want 1", len(s.queues))
	}
	q := s.queues[0]
	if q.Family() != 0 || q.Priority() != DefaultQueuePriority {
		t.Errorf("queue = family %d priority %v", q.Family(), q.Priority())
	}
	exts := s.device.Extensions()
	if len(exts) != 1 || exts[0] != backend.ExtensionSwapchain {
		t.Errorf("Extensions = %v, want swapchain added", exts)
	}
	if got := s.device.Backend().(*sim.Device).Extensions(); len(got) != 1 || got[0] != backend.ExtensionSwapchain {
		t.Errorf("backend device extensions = %v", got)
	}
}

func TestCreateDeviceFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sim.Config)
		queues []backend.QueueRequest
		exts   []string
	}{
		{"no queues", nil, nil, nil},
		{"extension not offered", nil, []backend.QueueRequest{{Family: 0, Priority: 0.5}}, []string{"VK_KHR_ray_query"}},
		{"no swapchain support", func(c *sim.Config) { c.Devices[0].Extensions = nil },
			[]backend.QueueRequest{{Family: 0, Priority: 0.5}}, nil},
		{"unknown family", nil, []backend.QueueRequest{{Family: 7, Priority: 0.5}}, nil},
		{"backend refusal", func(c *sim.Config) { c.Faults = []sim.Fault{{Op: sim.OpCreateDevice}} },
			[]backend.QueueRequest{{Family: 0, Priority: 0.5}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newSim(tt.mutate)
			ctx, err := CreateContext(b, nil)
			if err != nil {
				t.Fatalf("CreateContext: %v", err)
			}
			defer ctx.Destroy()
			pd, err := ctx.SelectPhysicalDevice()
			if err != nil {
				t.Fatalf("SelectPhysicalDevice: %v", err)
			}
			dev, _, err := CreateDevice(ctx, pd, tt.queues, tt.exts)
			if !errors.Is(err, ErrDeviceCreation) {
				t.Errorf("CreateDevice error = %v, want ErrDeviceCreation", err)
			}
			if dev != nil {
				t.Error("CreateDevice returned a device with an error")
			}
			if n := lastInstance(t, b).Created(sim.KindDevice); n != 0 {
				t.Errorf("devices created = %d, want 0", n)
			}
		})
	}
}

func TestLoadShader(t *testing.T) {
	s := newStages(t, newSim(nil))
	vs, fs := s.shaders(t)

	if vs.Stage() != backend.StageVertex || vs.EntryPoint() != "main" || vs.Source() != shader.KindWGSL {
		t.Errorf("vertex stage = %v %q %v", vs.Stage(), vs.EntryPoint(), vs.Source())
	}
	want := []shader.Input{{Location: 0, Components: 2, Kind: shader.ScalarFloat}}
	if got := vs.Interface().Inputs; len(got) != 1 || got[0] != want[0] {
		t.Errorf("vertex inputs = %v, want %v", got, want)
	}
	if fs.Stage() != backend.StageFragment || fs.Module().Stage() != backend.StageFragment {
		t.Errorf("fragment stage = %v / module %v", fs.Stage(), fs.Module().Stage())
	}
}

// selfReferentialSPIRV is a vertex module whose location 0 input is a
// vector declared as a vector of itself.
func selfReferentialSPIRV() []byte {
	words := []uint32{
		shader.Magic, 0x00010300, 0, 16, 0,
		5<<16 | 15, 0, 1, 'm', 3, // OpEntryPoint Vertex %1 "m" %3
		4<<16 | 71, 3, 30, 0, // OpDecorate %3 Location 0
		4<<16 | 23, 5, 5, 2, // %5 = OpTypeVector %5 2
		4<<16 | 32, 4, 1, 5, // %4 = OpTypePointer Input %5
		4<<16 | 59, 4, 3, 1, // %3 = OpVariable %4 Input
	}
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func TestLoadShaderFailures(t *testing.T) {
	vertex, _ := shader.Triangle()
	tests := []struct {
		name  string
		stage backend.ShaderStage
		code  shader.Code
		fault bool
		want  error
	}{
		{"wgsl syntax", backend.StageVertex, shader.WGSL("fn main( {"), false, ErrShaderCompilation},
		{"truncated spirv", backend.StageVertex, shader.SPIRV([]byte{0x03, 0x02, 0x23}), false, ErrShaderLoad},
		{"bad magic", backend.StageVertex, shader.SPIRV(make([]byte, 20)), false, ErrShaderLoad},
		{"missing stage", backend.StageFragment, vertex, false, ErrShaderLoad},
		{"self-referential type", backend.StageVertex, shader.SPIRV(selfReferentialSPIRV()), false, ErrShaderLoad},
		{"backend refusal", backend.StageVertex, vertex, true, ErrShaderLoad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newSim(func(c *sim.Config) {
				if tt.fault {
					c.Faults = []sim.Fault{{Op: sim.OpCreateShaderModule}}
				}
			})
			s := newStages(t, b)
			st, err := LoadShader(s.device, tt.stage, tt.code)
			if !errors.Is(err, tt.want) {
				t.Errorf("LoadShader error = %v, want %v", err, tt.want)
			}
			if st != nil {
				t.Error("LoadShader returned a stage with an error")
			}
		})
	}
}

func TestBuildRenderPass(t *testing.T) {
	s := newStages(t, newSim(nil))

	rp, err := BuildRenderPass(s.device, []backend.AttachmentDescriptor{ColorAttachment(gputypes.TextureFormatBGRA8UnormSrgb)})
	if err != nil {
		t.Fatalf("BuildRenderPass: %v", err)
	}
	desc := rp.Backend().(*sim.RenderPass).Descriptor()
	if len(desc.Subpasses) != 1 || len(desc.Subpasses[0].ColorAttachments) != 1 || desc.Subpasses[0].DepthStencilAttachment != nil {
		t.Errorf("subpasses = %+v, want one color-only subpass", desc.Subpasses)
	}
	a := desc.Attachments[0]
	if a.LoadOp != gputypes.LoadOpClear || a.StoreOp != gputypes.StoreOpStore || a.Samples != 1 {
		t.Errorf("attachment = %+v", a)
	}

	bad := []struct {
		name        string
		attachments []backend.AttachmentDescriptor
	}{
		{"none", nil},
		{"undefined format", []backend.AttachmentDescriptor{ColorAttachment(gputypes.TextureFormatUndefined)}},
		{"three samples", []backend.AttachmentDescriptor{{Format: gputypes.TextureFormatRGBA8Unorm, Samples: 3}}},
		{"zero samples", []backend.AttachmentDescriptor{{Format: gputypes.TextureFormatRGBA8Unorm}}},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildRenderPass(s.device, tt.attachments); !errors.Is(err, ErrRenderPass) {
				t.Errorf("BuildRenderPass error = %v, want ErrRenderPass", err)
			}
		})
	}
}

func TestBuildPipeline(t *testing.T) {
	s := newStages(t, newSim(nil))
	vs, fs := s.shaders(t)
	rp, err := BuildRenderPass(s.device, []backend.AttachmentDescriptor{ColorAttachment(gputypes.TextureFormatBGRA8UnormSrgb)})
	if err != nil {
		t.Fatalf("BuildRenderPass: %v", err)
	}
	extent := backend.Extent{Width: 800, Height: 600}

	pl, err := BuildPipeline(s.device, rp, vs, fs, extent)
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	cfg := pl.Config()
	if want := (backend.Viewport{Width: 800, Height: 600, MaxDepth: 1}); cfg.Viewport != want {
		t.Errorf("Viewport = %+v, want %+v", cfg.Viewport, want)
	}
	if want := (backend.Scissor{Width: 800, Height: 600}); cfg.Scissor != want {
		t.Errorf("Scissor = %+v, want %+v", cfg.Scissor, want)
	}
	if cfg.Primitive.Topology != gputypes.PrimitiveTopologyTriangleList || cfg.Primitive.CullMode != gputypes.CullModeNone {
		t.Errorf("Primitive = %+v", cfg.Primitive)
	}
	if cfg.Multisample.Count != 1 || cfg.DepthStencil != nil {
		t.Errorf("Multisample = %+v, DepthStencil = %v", cfg.Multisample, cfg.DepthStencil)
	}
	if len(cfg.ColorTargets) != 1 || cfg.ColorTargets[0].Blend != nil || cfg.ColorTargets[0].WriteMask != gputypes.ColorWriteMaskAll {
		t.Errorf("ColorTargets = %+v", cfg.ColorTargets)
	}
	desc := pl.Backend().(*sim.Pipeline).Descriptor()
	if desc.VertexEntry != "main" || desc.FragmentEntry != "main" || desc.Viewport != cfg.Viewport {
		t.Errorf("backend descriptor = %+v", desc)
	}
}

func TestBuildPipelineFailures(t *testing.T) {
	s := newStages(t, newSim(nil))
	vs, fs := s.shaders(t)
	rp, err := BuildRenderPass(s.device, []backend.AttachmentDescriptor{ColorAttachment(gputypes.TextureFormatBGRA8UnormSrgb)})
	if err != nil {
		t.Fatalf("BuildRenderPass: %v", err)
	}
	extent := backend.Extent{Width: 800, Height: 600}
	f32x2 := func(loc uint32) gputypes.VertexAttribute {
		return gputypes.VertexAttribute{Format: gputypes.VertexFormatFloat32x2, ShaderLocation: loc}
	}

	tests := []struct {
		name   string
		rp     *RenderPass
		vs, fs *ShaderStage
		extent backend.Extent
		layout []gputypes.VertexBufferLayout
	}{
		{name: "nil render pass", vs: vs, fs: fs, extent: extent},
		{name: "missing vertex", rp: rp, fs: fs, extent: extent},
		{name: "swapped stages", rp: rp, vs: fs, fs: vs, extent: extent},
		{name: "zero extent", rp: rp, vs: vs, fs: fs},
		{name: "missing location", rp: rp, vs: vs, fs: fs, extent: extent,
			layout: []gputypes.VertexBufferLayout{{ArrayStride: 8}}},
		{name: "duplicate location", rp: rp, vs: vs, fs: fs, extent: extent,
			layout: []gputypes.VertexBufferLayout{{ArrayStride: 16, Attributes: []gputypes.VertexAttribute{f32x2(0), f32x2(0)}}}},
		{name: "extra attribute", rp: rp, vs: vs, fs: fs, extent: extent,
			layout: []gputypes.VertexBufferLayout{{ArrayStride: 16, Attributes: []gputypes.VertexAttribute{f32x2(0), f32x2(1)}}}},
		{name: "component count", rp: rp, vs: vs, fs: fs, extent: extent,
			layout: []gputypes.VertexBufferLayout{{ArrayStride: 12, Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3},
			}}}},
		{name: "scalar kind", rp: rp, vs: vs, fs: fs, extent: extent,
			layout: []gputypes.VertexBufferLayout{{ArrayStride: 8, Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatSint32x2},
			}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.layout != nil {
				opts = append(opts, WithVertexLayout(tt.layout...))
			}
			if _, err := BuildPipeline(s.device, tt.rp, tt.vs, tt.fs, tt.extent, opts...); !errors.Is(err, ErrPipelineCreation) {
				t.Errorf("BuildPipeline error = %v, want ErrPipelineCreation", err)
			}
		})
	}
}

func TestBuildFramebuffers(t *testing.T) {
	b := newSim(nil)
	s := newStages(t, b)
	chain, err := CreateChain(s.device, s.surface, ChainPolicy{})
	if err != nil {
		t.Fatalf("CreateChain: %v", err)
	}
	rp, err := BuildRenderPass(s.device, []backend.AttachmentDescriptor{ColorAttachment(chain.Format())})
	if err != nil {
		t.Fatalf("BuildRenderPass: %v", err)
	}
	fbs, err := BuildFramebuffers(s.device, rp, chain.Images())
	if err != nil {
		t.Fatalf("BuildFramebuffers: %v", err)
	}
	images := chain.Images()
	if len(fbs) != len(images) {
		t.Fatalf("got %d framebuffers for %d images", len(fbs), len(images))
	}
	for i, fb := range fbs {
		w, h, layers := fb.Size()
		if fb.Index() != i || fb.Image() != images[i] || w != 800 || h != 600 || layers != 1 {
			t.Errorf("framebuffer %d = index %d %dx%dx%d", i, fb.Index(), w, h, layers)
		}
	}

	other, err := BuildRenderPass(s.device, []backend.AttachmentDescriptor{ColorAttachment(gputypes.TextureFormatRGBA8Unorm)})
	if err != nil {
		t.Fatalf("BuildRenderPass: %v", err)
	}
	if _, err := BuildFramebuffers(s.device, other, chain.Images()); !errors.Is(err, ErrFramebufferCreation) {
		t.Errorf("format mismatch error = %v, want ErrFramebufferCreation", err)
	}
	if _, err := BuildFramebuffers(s.device, rp, nil); !errors.Is(err, ErrFramebufferCreation) {
		t.Errorf("empty chain error = %v, want ErrFramebufferCreation", err)
	}
}

func TestBuildFramebuffersReleasesOnFailure(t *testing.T) {
	b := newSim(func(c *sim.Config) {
		c.Devices[0].Surface.MinImageCount = 3
		c.Faults = []sim.Fault{{Op: sim.OpCreateFramebuffer, Call: 3}}
	})
	s := newStages(t, b)
	chain, err := CreateChain(s.device, s.surface, ChainPolicy{})
	if err != nil {
		t.Fatalf("CreateChain: %v", err)
	}
	rp, err := BuildRenderPass(s.device, []backend.AttachmentDescriptor{ColorAttachment(chain.Format())})
	if err != nil {
		t.Fatalf("BuildRenderPass: %v", err)
	}
	if _, err := BuildFramebuffers(s.device, rp, chain.Images()); !errors.Is(err, ErrFramebufferCreation) {
		t.Fatalf("BuildFramebuffers error = %v, want ErrFramebufferCreation", err)
	}

	inst := lastInstance(t, b)
	if n := inst.Created(sim.KindFramebuffer); n != 2 {
		t.Errorf("framebuffers created = %d, want 2", n)
	}
	for _, o := range inst.Live() {
		if o.Kind == sim.KindFramebuffer {
			t.Errorf("framebuffer %v still alive", o)
		}
	}
}

func TestDeviceDestroyReleasesChildren(t *testing.T) {
	b := newSim(nil)
	s := newStages(t, b)
	s.shaders(t)
	if _, err := CreateChain(s.device, s.surface, ChainPolicy{}); err != nil {
		t.Fatalf("CreateChain: %v", err)
	}
	s.device.Destroy()
	s.device.Destroy()

	inst := lastInstance(t, b)
	for _, o := range inst.Live() {
		if o.Kind != sim.KindInstance && o.Kind != sim.KindSurface {
			t.Errorf("%v alive after device destroy", o)
		}
	}
	if v := inst.Violations(); len(v) != 0 {
		t.Errorf("violations: %v", v)
	}
	if _, err := CreateChain(s.device, s.surface, ChainPolicy{}); !errors.Is(err, ErrChainCreation) || !errors.Is(err, ErrDestroyed) {
		t.Errorf("CreateChain on destroyed device error = %v", err)
	}

	s.ctx.Destroy()
	checkReleased(t, inst)
}
