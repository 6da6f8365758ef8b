// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/backend/sim"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

func TestBootstrapEndToEnd(t *testing.T) {
	b := newSim(nil)
	bs := NewBootstrapper(b, testTarget(), TriangleShaders())
	ready, err := bs.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer ready.Destroy()

	if bs.State() != StateReady {
		t.Errorf("State = %v, want Ready", bs.State())
	}
	want := []Transition{
		{StateUninitialized, StateContextReady},
		{StateContextReady, StateSurfaceBound},
		{StateSurfaceBound, StateDeviceReady},
		{StateDeviceReady, StateChainReady},
		{StateChainReady, StateShadersReady},
		{StateShadersReady, StatePipelineReady},
		{StatePipelineReady, StateFramebuffersReady},
	}
	if got := bs.History(); !slices.Equal(got, want) {
		t.Errorf("History = %v, want %v", got, want)
	}

	chain := ready.Chain()
	if n := len(chain.Images()); n != 2 {
		t.Errorf("chain images = %d, want 2", n)
	}
	if chain.Extent() != (backend.Extent{Width: 800, Height: 600}) {
		t.Errorf("chain extent = %v, want 800x600", chain.Extent())
	}
	fbs := ready.Framebuffers()
	if len(fbs) != 2 {
		t.Fatalf("framebuffers = %d, want 2", len(fbs))
	}
	for _, fb := range fbs {
		if w, h, l := fb.Size(); w != 800 || h != 600 || l != 1 {
			t.Errorf("framebuffer %d size = %dx%dx%d", fb.Index(), w, h, l)
		}
	}
	vp := ready.Pipeline().Viewport()
	if vp.X != 0 || vp.Y != 0 || vp.Width != 800 || vp.Height != 600 {
		t.Errorf("viewport = %+v, want (0,0)-(800,600)", vp)
	}
	if q := ready.Queue(); q.Family() != 0 || q.Priority() != DefaultQueuePriority {
		t.Errorf("queue = family %d priority %v", q.Family(), q.Priority())
	}
	if vs, fs := ready.Shaders(); vs == nil || fs == nil {
		t.Error("Shaders() returned nil stage")
	}
	if ready.Device() == nil || ready.Surface() == nil || ready.Context() == nil || ready.RenderPass() == nil {
		t.Error("Ready accessor returned nil")
	}
	if _, err := bs.Run(); !errors.Is(err, ErrAlreadyRun) {
		t.Errorf("second Run error = %v, want ErrAlreadyRun", err)
	}
}

func TestBootstrapFramebufferBinding(t *testing.T) {
	b := newSim(func(c *sim.Config) {
		c.Devices[0].Surface.MinImageCount = 3
		c.Devices[0].ExtraImages = 1
	})
	ready, err := Bootstrap(b, testTarget(), TriangleShaders())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer ready.Destroy()

	images := ready.Chain().Images()
	fbs := ready.Framebuffers()
	if len(fbs) != len(images) || len(images) != 4 {
		t.Fatalf("framebuffers = %d, images = %d, want 4 each", len(fbs), len(images))
	}
	for i, fb := range fbs {
		att := fb.Backend().(*sim.Framebuffer).Attachments()
		if fb.Index() != i || len(att) != 1 || att[0] != images[i] {
			t.Errorf("framebuffer %d not bound to image %d", fb.Index(), i)
		}
	}
}

func TestBootstrapIndependentTargets(t *testing.T) {
	b := newSim(nil)
	first, err := Bootstrap(b, backend.Target{Label: "first", Window: 1}, TriangleShaders())
	if err != nil {
		t.Fatalf("Bootstrap(first): %v", err)
	}
	second, err := Bootstrap(b, backend.Target{Label: "second", Window: 2}, TriangleShaders())
	if err != nil {
		t.Fatalf("Bootstrap(second): %v", err)
	}
	defer second.Destroy()

	insts := b.Instances()
	if len(insts) != 2 {
		t.Fatalf("instances = %d, want 2", len(insts))
	}
	before := insts[1].LiveCount()

	first.Destroy()
	checkReleased(t, insts[0])
	if got := insts[1].LiveCount(); got != before {
		t.Errorf("second bootstrap live objects = %d after destroying first, want %d", got, before)
	}
	if second.Pipeline() == first.Pipeline() || second.Device() == first.Device() {
		t.Error("bootstraps share objects")
	}
}

func TestBootstrapNoPresentFamily(t *testing.T) {
	b := newSim(func(c *sim.Config) { c.Devices[0].Present = []bool{false} })
	bs := NewBootstrapper(b, testTarget(), TriangleShaders())
	ready, err := bs.Run()
	if ready != nil {
		t.Fatal("Run returned Ready with an error")
	}
	if !errors.Is(err, ErrNoSuitableQueueFamily) {
		t.Fatalf("Run error = %v, want ErrNoSuitableQueueFamily", err)
	}
	var be *BootstrapError
	if !errors.As(err, &be) || be.Stage != StageDevice {
		t.Errorf("error = %#v, want *BootstrapError at device stage", err)
	}
	if bs.State() != StateFailed || !errors.Is(bs.Err(), ErrNoSuitableQueueFamily) {
		t.Errorf("State = %v, Err = %v", bs.State(), bs.Err())
	}
	if got := bs.History()[len(bs.History())-1]; got != (Transition{StateSurfaceBound, StateFailed}) {
		t.Errorf("last transition = %v, want SurfaceBound -> Failed", got)
	}

	inst := lastInstance(t, b)
	if n := inst.Created(sim.KindDevice); n != 0 {
		t.Errorf("devices created = %d, want 0", n)
	}
	checkReleased(t, inst)
}

func TestBootstrapFallbackExtent(t *testing.T) {
	b := newSim(func(c *sim.Config) { c.Devices[0].Surface.CurrentExtent = nil })
	ready, err := Bootstrap(b, testTarget(), TriangleShaders())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer ready.Destroy()
	want := backend.Extent{Width: 1280, Height: 1024}
	if got := ready.Chain().Extent(); got != want {
		t.Errorf("chain extent = %v, want %v", got, want)
	}
	if vp := ready.Pipeline().Viewport(); vp.Width != 1280 || vp.Height != 1024 {
		t.Errorf("viewport = %+v, want 1280x1024", vp)
	}
}

func TestBootstrapWindowProviderExtent(t *testing.T) {
	target := backend.Target{
		Label:    "hidpi",
		Window:   1,
		Provider: gpucontext.NullWindowProvider{W: 640, H: 480, SF: 2},
	}
	ready, err := Bootstrap(newSim(nil), target, TriangleShaders())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer ready.Destroy()
	if got := ready.Chain().Extent(); got != (backend.Extent{Width: 1280, Height: 960}) {
		t.Errorf("chain extent = %v, want 1280x960", got)
	}
}

func TestBootstrapOptions(t *testing.T) {
	b := newSim(func(c *sim.Config) {
		surf := &c.Devices[0].Surface
		surf.Formats = append(surf.Formats, backend.SurfaceFormat{Format: gputypes.TextureFormatRGBA8Unorm})
		surf.PresentModes = append(surf.PresentModes, gputypes.PresentModeMailbox)
	})
	ready, err := Bootstrap(b, testTarget(), TriangleShaders(),
		WithFormats(gputypes.TextureFormatRGBA8Unorm),
		WithPresentModes(gputypes.PresentModeMailbox),
		WithImageCount(3),
		WithClearColor(gputypes.Color{B: 1, A: 1}),
	)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer ready.Destroy()

	cfg := ready.Chain().Config()
	if cfg.Format != gputypes.TextureFormatRGBA8Unorm || cfg.PresentMode != gputypes.PresentModeMailbox || cfg.ImageCount != 3 {
		t.Errorf("chain config = %+v", cfg)
	}
	desc := ready.RenderPass().Backend().(*sim.RenderPass).Descriptor()
	if desc.ClearColor != (gputypes.Color{B: 1, A: 1}) {
		t.Errorf("clear color = %+v", desc.ClearColor)
	}
	if got := ready.Pipeline().Config().ColorTargets[0].Format; got != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("color target format = %v", got)
	}
}

func TestBootstrapReleasesOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		fault sim.Fault
		stage Stage
		want  error
	}{
		{"enumerate", sim.Fault{Op: sim.OpEnumerate}, StageContext, ErrNoDeviceAvailable},
		{"surface", sim.Fault{Op: sim.OpCreateSurface}, StageSurface, ErrSurfaceCreation},
		{"device", sim.Fault{Op: sim.OpCreateDevice}, StageDevice, ErrDeviceCreation},
		{"capabilities", sim.Fault{Op: sim.OpCapabilities}, StageChain, ErrChainCreation},
		{"swapchain", sim.Fault{Op: sim.OpCreateSwapchain}, StageChain, ErrChainCreation},
		{"vertex shader", sim.Fault{Op: sim.OpCreateShaderModule, Call: 1}, StageShaders, ErrShaderLoad},
		{"fragment shader", sim.Fault{Op: sim.OpCreateShaderModule, Call: 2}, StageShaders, ErrShaderLoad},
		{"render pass", sim.Fault{Op: sim.OpCreateRenderPass}, StagePipeline, ErrRenderPass},
		{"pipeline", sim.Fault{Op: sim.OpCreatePipeline}, StagePipeline, ErrPipelineCreation},
		{"first framebuffer", sim.Fault{Op: sim.OpCreateFramebuffer, Call: 1}, StageFramebuffers, ErrFramebufferCreation},
		{"last framebuffer", sim.Fault{Op: sim.OpCreateFramebuffer, Call: 2}, StageFramebuffers, ErrFramebufferCreation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newSim(func(c *sim.Config) { c.Faults = []sim.Fault{tt.fault} })
			bs := NewBootstrapper(b, testTarget(), TriangleShaders())
			ready, err := bs.Run()
			if ready != nil {
				t.Fatal("Run returned Ready with an error")
			}
			if !errors.Is(err, tt.want) || !errors.Is(err, sim.ErrInjected) {
				t.Errorf("Run error = %v, want %v wrapping sim.ErrInjected", err, tt.want)
			}
			var be *BootstrapError
			if !errors.As(err, &be) || be.Stage != tt.stage {
				t.Errorf("failed stage = %v, want %v", be, tt.stage)
			}
			if bs.State() != StateFailed {
				t.Errorf("State = %v, want Failed", bs.State())
			}
			checkReleased(t, lastInstance(t, b))
		})
	}
}

func TestBootstrapInstanceFailure(t *testing.T) {
	b := newSim(func(c *sim.Config) { c.Faults = []sim.Fault{{Op: sim.OpCreateInstance}} })
	bs := NewBootstrapper(b, testTarget(), TriangleShaders())
	if _, err := bs.Run(); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Run error = %v, want ErrBackendUnavailable", err)
	}
	if got := bs.History(); len(got) != 1 || got[0] != (Transition{StateUninitialized, StateFailed}) {
		t.Errorf("History = %v", got)
	}
	if n := len(b.Instances()); n != 0 {
		t.Errorf("instances = %d, want 0", n)
	}
}

func TestBootstrapShaderCompilationFailure(t *testing.T) {
	b := newSim(nil)
	src := TriangleShaders()
	src.Fragment.Data = []byte("@fragment fn main() -> @location(0) vec4<f32> { return; ")
	_, err := Bootstrap(b, testTarget(), src)
	if !errors.Is(err, ErrShaderCompilation) {
		t.Fatalf("Bootstrap error = %v, want ErrShaderCompilation", err)
	}
	checkReleased(t, lastInstance(t, b))
}

func TestReadyDestroy(t *testing.T) {
	b := newSim(nil)
	ready, err := Bootstrap(b, testTarget(), TriangleShaders())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	ready.Destroy()
	ready.Destroy()
	if !ready.Destroyed() {
		t.Error("Destroyed() = false after Destroy")
	}
	checkReleased(t, lastInstance(t, b))
	if err := ready.Rebuild(backend.Extent{Width: 1, Height: 1}); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Rebuild after Destroy error = %v, want ErrDestroyed", err)
	}
}

func TestReadyRebuild(t *testing.T) {
	b := newSim(func(c *sim.Config) { c.Devices[0].Surface.CurrentExtent = nil })
	ready, err := Bootstrap(b, testTarget(), TriangleShaders())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer ready.Destroy()
	inst := lastInstance(t, b)
	live := inst.LiveCount()

	oldChain, oldPipeline, oldPass := ready.Chain(), ready.Pipeline(), ready.RenderPass()
	oldFB := ready.Framebuffers()
	oldVS, oldFS := ready.Shaders()

	extent := backend.Extent{Width: 1024, Height: 768}
	if err := ready.Rebuild(extent); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if ready.Chain() == oldChain || ready.Pipeline() == oldPipeline || ready.RenderPass() == oldPass {
		t.Error("Rebuild reused chain, pipeline or render pass")
	}
	for i, fb := range ready.Framebuffers() {
		if fb == oldFB[i] {
			t.Errorf("framebuffer %d reused", i)
		}
		if w, h, _ := fb.Size(); w != 1024 || h != 768 {
			t.Errorf("framebuffer %d = %dx%d", i, w, h)
		}
	}
	if vs, fs := ready.Shaders(); vs != oldVS || fs != oldFS {
		t.Error("Rebuild replaced the shaders")
	}
	if got := ready.Chain().Extent(); got != extent {
		t.Errorf("chain extent = %v, want %v", got, extent)
	}
	if vp := ready.Pipeline().Viewport(); vp.Width != 1024 || vp.Height != 768 {
		t.Errorf("viewport = %+v, want 1024x768", vp)
	}
	if got := inst.LiveCount(); got != live {
		t.Errorf("live objects = %d after rebuild, want %d", got, live)
	}
	if n := inst.Created(sim.KindSwapchain); n != 2 {
		t.Errorf("swapchains created = %d, want 2", n)
	}
	if v := inst.Violations(); len(v) != 0 {
		t.Errorf("violations: %v", v)
	}

	ready.Destroy()
	checkReleased(t, inst)
}

func TestReadyRebuildKeepsOwnershipBounded(t *testing.T) {
	b := newSim(func(c *sim.Config) { c.Devices[0].Surface.CurrentExtent = nil })
	ready, err := Bootstrap(b, testTarget(), TriangleShaders())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer ready.Destroy()
	inst := lastInstance(t, b)
	live := inst.LiveCount()
	owned := ready.Device().owned.Len()

	for i := 0; i < 25; i++ {
		extent := backend.Extent{Width: 640 + uint32(i), Height: 480}
		if err := ready.Rebuild(extent); err != nil {
			t.Fatalf("Rebuild #%d: %v", i, err)
		}
		if got := ready.Device().owned.Len(); got != owned {
			t.Fatalf("device owns %d objects after rebuild #%d, want %d", got, i, owned)
		}
	}
	if got := inst.LiveCount(); got != live {
		t.Errorf("live objects = %d, want %d", got, live)
	}
	if v := inst.Violations(); len(v) != 0 {
		t.Errorf("violations: %v", v)
	}

	ready.Destroy()
	checkReleased(t, inst)
}

func TestReadyRebuildFailure(t *testing.T) {
	b := newSim(func(c *sim.Config) {
		c.Faults = []sim.Fault{{Op: sim.OpCreateSwapchain, Call: 2}}
	})
	ready, err := Bootstrap(b, testTarget(), TriangleShaders())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	err = ready.Rebuild(backend.Extent{Width: 640, Height: 480})
	var be *BootstrapError
	if !errors.As(err, &be) || be.Stage != StageChain || !errors.Is(err, ErrChainCreation) {
		t.Fatalf("Rebuild error = %v, want chain-stage ErrChainCreation", err)
	}
	if !ready.Destroyed() {
		t.Error("failed Rebuild left the handle set alive")
	}
	checkReleased(t, lastInstance(t, b))
}

func TestReadyProvider(t *testing.T) {
	ready, err := Bootstrap(newSim(nil), testTarget(), TriangleShaders())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer ready.Destroy()

	p := ready.Provider()
	if p.SurfaceFormat() != gputypes.TextureFormatBGRA8UnormSrgb {
		t.Errorf("SurfaceFormat = %v", p.SurfaceFormat())
	}
	if info := p.AdapterInfo(); info.Name != "Sim GPU" || info.Type != gpucontext.AdapterTypeDiscrete {
		t.Errorf("AdapterInfo = %+v", info)
	}
	if p.Device() != ready.Device().Backend() {
		t.Error("Device() is not the backend device")
	}
	if p.Queue() != ready.Queue() {
		t.Error("Queue() is not the retained queue")
	}
	if p.Adapter() != nil {
		t.Errorf("Adapter() = %v, want nil for sim", p.Adapter())
	}
	if _, ok := ready.HalDevice(); ok {
		t.Error("HalDevice reported a HAL device for sim")
	}
	if _, ok := ready.HalQueue(); ok {
		t.Error("HalQueue reported a HAL queue for sim")
	}
}

func TestAdapterType(t *testing.T) {
	tests := []struct {
		in   gputypes.DeviceType
		want gpucontext.AdapterType
	}{
		{gputypes.DeviceTypeDiscreteGPU, gpucontext.AdapterTypeDiscrete},
		{gputypes.DeviceTypeIntegratedGPU, gpucontext.AdapterTypeIntegrated},
		{gputypes.DeviceTypeCPU, gpucontext.AdapterTypeSoftware},
		{gputypes.DeviceTypeVirtualGPU, gpucontext.AdapterTypeUnknown},
		{gputypes.DeviceTypeOther, gpucontext.AdapterTypeUnknown},
	}
	for _, tt := range tests {
		if got := adapterType(tt.in); got != tt.want {
			t.Errorf("adapterType(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStateStrings(t *testing.T) {
	if StateReady.String() != "Ready" || StateFailed.String() != "Failed" {
		t.Errorf("state strings = %q %q", StateReady, StateFailed)
	}
	if !StateReady.Terminal() || !StateFailed.Terminal() || StateChainReady.Terminal() {
		t.Error("Terminal() wrong")
	}
	if StageFramebuffers.String() != "framebuffers" {
		t.Errorf("StageFramebuffers = %q", StageFramebuffers)
	}
	err := &BootstrapError{Stage: StageChain, Err: ErrChainCreation}
	if err.Error() != "gpuboot: bootstrap failed at chain: gpuboot: presentation chain creation failed" {
		t.Errorf("Error() = %q", err.Error())
	}
}
