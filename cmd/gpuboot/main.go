// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command gpuboot bootstraps a presentation pipeline on a chosen backend
// and prints the resulting handle set.
//
// Usage:
//
//	gpuboot [-backend name] [-width w -height h -scale s] [-vertex file -fragment file]
//	gpuboot compile [-o out.spv] shader.wgsl
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/gpuboot"
	"github.com/gogpu/gpuboot/backend"
	_ "github.com/gogpu/gpuboot/backend/sim"
	_ "github.com/gogpu/gpuboot/backend/wgpu"
	"github.com/gogpu/gpuboot/shader"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("gpuboot: ")

	if len(os.Args) > 1 && os.Args[1] == "compile" {
		if err := compile(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
		return
	}

	var (
		name     = flag.String("backend", "", "backend name (default: best available; one of "+strings.Join(backend.Available(), ", ")+")")
		width    = flag.Int("width", 800, "window width in logical points (0: let the surface decide)")
		height   = flag.Int("height", 600, "window height in logical points")
		scale    = flag.Float64("scale", 1, "window scale factor")
		window   = flag.Uint64("window", 0, "native window handle")
		display  = flag.Uint64("display", 0, "native display handle")
		present  = flag.String("present", "", "preferred present mode: fifo, mailbox or immediate")
		images   = flag.Uint("images", 0, "requested chain image count (0: surface minimum)")
		vertex   = flag.String("vertex", "", "vertex stage file, SPIR-V or WGSL (default: built-in triangle)")
		fragment = flag.String("fragment", "", "fragment stage file, SPIR-V or WGSL (default: built-in triangle)")
		verbose  = flag.Bool("v", false, "log state transitions")
	)
	flag.Parse()

	if *verbose {
		gpuboot.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	b := backend.Best()
	if *name != "" {
		b = backend.Get(*name)
	}
	if b == nil {
		log.Fatalf("backend %q is not registered (available: %v)", *name, backend.Available())
	}

	target := backend.Target{
		Label:   "gpuboot",
		Display: uintptr(*display),
		Window:  uintptr(*window),
	}
	if *width > 0 && *height > 0 {
		target.Provider = gpucontext.NullWindowProvider{W: *width, H: *height, SF: *scale}
	}

	stages, err := loadStages(*vertex, *fragment)
	if err != nil {
		log.Fatal(err)
	}

	var opts []gpuboot.Option
	if *present != "" {
		mode, err := parsePresentMode(*present)
		if err != nil {
			log.Fatal(err)
		}
		opts = append(opts, gpuboot.WithPresentModes(mode))
	}
	if *images > 0 {
		opts = append(opts, gpuboot.WithImageCount(uint32(*images)))
	}

	ready, err := gpuboot.Bootstrap(b, target, stages, opts...)
	if err != nil {
		log.Fatalf("%s: %v", b.Name(), err)
	}
	defer ready.Destroy()

	describe(os.Stdout, b, ready)
}

func loadStages(vertexPath, fragmentPath string) (gpuboot.ShaderSources, error) {
	stages := gpuboot.TriangleShaders()
	if vertexPath != "" {
		data, err := os.ReadFile(vertexPath)
		if err != nil {
			return stages, err
		}
		stages.Vertex, stages.VertexEntry = shader.Code{Data: data}, ""
	}
	if fragmentPath != "" {
		data, err := os.ReadFile(fragmentPath)
		if err != nil {
			return stages, err
		}
		stages.Fragment, stages.FragmentEntry = shader.Code{Data: data}, ""
	}
	return stages, nil
}

func parsePresentMode(s string) (gputypes.PresentMode, error) {
	switch strings.ToLower(s) {
	case "fifo":
		return gputypes.PresentModeFifo, nil
	case "mailbox":
		return gputypes.PresentModeMailbox, nil
	case "immediate":
		return gputypes.PresentModeImmediate, nil
	default:
		return 0, fmt.Errorf("unknown present mode %q", s)
	}
}

func describe(w io.Writer, b backend.Backend, ready *gpuboot.Ready) {
	pd := ready.Device().PhysicalDevice()
	cfg := ready.Chain().Config()
	vs, fs := ready.Shaders()
	q := ready.Queue()

	fmt.Fprintf(w, "backend:      %s\n", b.Name())
	fmt.Fprintf(w, "adapter:      %s (%v)\n", pd.Info.Name, ready.Provider().AdapterInfo().Type)
	fmt.Fprintf(w, "queue:        family %d index %d priority %.1f\n", q.Family(), q.Index(), q.Priority())
	fmt.Fprintf(w, "chain:        %v %v %v, %d images, %v\n",
		cfg.Extent, cfg.Format, cfg.PresentMode, len(ready.Chain().Images()), cfg.AlphaMode)
	fmt.Fprintf(w, "shaders:      %s %q (%v), %s %q (%v)\n",
		vs.Stage(), vs.EntryPoint(), vs.Source(), fs.Stage(), fs.EntryPoint(), fs.Source())
	vp := ready.Pipeline().Viewport()
	fmt.Fprintf(w, "viewport:     (%g,%g)-(%g,%g) depth [%g,%g]\n",
		vp.X, vp.Y, vp.X+vp.Width, vp.Y+vp.Height, vp.MinDepth, vp.MaxDepth)
	for _, fb := range ready.Framebuffers() {
		fw, fh, layers := fb.Size()
		fmt.Fprintf(w, "framebuffer:  #%d -> image %d, %dx%dx%d\n", fb.Index(), fb.Image().Index(), fw, fh, layers)
	}
}
