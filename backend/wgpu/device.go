// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Device wraps a hal.Device and its queue.
type Device struct {
	inst       *Instance
	adapter    *hal.ExposedAdapter
	dev        hal.Device
	queue      *Queue
	extensions []string
}

// Native returns the hal.Device.
func (d *Device) Native() any { return d.dev }

// Hal returns the hal.Device.
func (d *Device) Hal() hal.Device { return d.dev }

// Adapter returns the hal.Adapter the device was opened on.
func (d *Device) Adapter() hal.Adapter { return d.adapter.Adapter }

// Info returns the adapter info.
func (d *Device) Info() gputypes.AdapterInfo { return d.adapter.Info }

// Destroy releases the hal device.
func (d *Device) Destroy() { d.dev.Destroy() }

// WaitIdle waits for all submitted work.
func (d *Device) WaitIdle() error {
	if err := d.dev.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: wait idle: %w", err)
	}
	return nil
}

// CreateSwapchain configures surface and creates one render target per
// requested image.
func (d *Device) CreateSwapchain(surface backend.Surface, desc *backend.SwapchainDescriptor) (backend.Swapchain, error) {
	s, ok := surface.(*Surface)
	if !ok || s.inst != d.inst {
		return nil, fmt.Errorf("wgpu: swapchain: foreign surface: %w", backend.ErrInvalidHandle)
	}
	if !slices.Contains(d.extensions, backend.ExtensionSwapchain) {
		return nil, fmt.Errorf("wgpu: swapchain: %s not enabled: %w", backend.ExtensionSwapchain, backend.ErrUnsupported)
	}
	if desc == nil || desc.Extent.IsZero() {
		return nil, fmt.Errorf("wgpu: swapchain: %w: %w", hal.ErrZeroArea, backend.ErrUnsupported)
	}
	err := s.surf.Configure(d.dev, &hal.SurfaceConfiguration{
		Width:       desc.Extent.Width,
		Height:      desc.Extent.Height,
		Format:      desc.Format,
		Usage:       desc.Usage,
		PresentMode: desc.PresentMode,
		AlphaMode:   desc.AlphaMode,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: configure surface: %w", err)
	}

	sc := &Swapchain{device: d, surface: s, desc: *desc}
	for i := range int(desc.ImageCount) {
		if err := sc.addImage(i); err != nil {
			sc.Destroy()
			return nil, err
		}
	}
	return sc, nil
}

// CreateShaderModule uploads SPIR-V.
func (d *Device) CreateShaderModule(desc *backend.ShaderModuleDescriptor) (backend.ShaderModule, error) {
	if desc == nil || len(desc.SPIRV) == 0 {
		return nil, fmt.Errorf("wgpu: shader module: empty code: %w", backend.ErrUnsupported)
	}
	m, err := d.dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{SPIRV: desc.SPIRV},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module %q: %w", desc.Label, err)
	}
	return &ShaderModule{device: d, module: m, stage: desc.Stage, entry: desc.EntryPoint}, nil
}

// CreateRenderPass records desc. The HAL begins render passes at
// encoding time, so there is no GPU object to create.
func (d *Device) CreateRenderPass(desc *backend.RenderPassDescriptor) (backend.RenderPass, error) {
	if desc == nil || len(desc.Attachments) == 0 {
		return nil, fmt.Errorf("wgpu: render pass: no attachments: %w", backend.ErrUnsupported)
	}
	for n, a := range desc.Attachments {
		if a.Samples != 1 {
			return nil, fmt.Errorf("wgpu: render pass: attachment %d: %d samples: %w", n, a.Samples, backend.ErrUnsupported)
		}
	}
	rp := &RenderPass{device: d, desc: *desc}
	rp.desc.Attachments = slices.Clone(desc.Attachments)
	return rp, nil
}
