// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/internal/arena"
)

// DefaultQueuePriority is the priority of the queue a bootstrap retains.
const DefaultQueuePriority float32 = 0.5

// SelectQueueFamily returns the first queue family of pd, in enumeration
// order, that supports graphics and can present to surface. A failed
// present query counts as no support.
func SelectQueueFamily(pd *backend.PhysicalDeviceDescriptor, surface *Surface) (uint32, error) {
	if pd == nil || surface == nil {
		return 0, ErrNoSuitableQueueFamily
	}
	for _, fam := range pd.QueueFamilies {
		if !fam.Flags.Contains(backend.QueueGraphics) || fam.Count == 0 {
			continue
		}
		ok, err := surface.SupportsPresent(pd, fam.Index)
		if err != nil {
			surface.ctx.log.Debug("gpuboot: present query failed",
				"family", fam.Index, "error", err)
			continue
		}
		if ok {
			return fam.Index, nil
		}
	}
	return 0, stageError(ErrNoSuitableQueueFamily, "%s: %d families", pd.Info.Name, len(pd.QueueFamilies))
}

// Device is a logical device. It owns every GPU-resident object built on
// it and releases them, newest first, before itself.
// A Device is not safe for concurrent use.
type Device struct {
	ctx        *Context
	pd         backend.PhysicalDeviceDescriptor
	dev        backend.Device
	queues     []backend.Queue
	extensions []string

	owned     arena.Arena
	destroyed bool
}

// CreateDevice opens a logical device on pd with the requested queues.
// The swapchain extension is always enabled. It fails with
// ErrDeviceCreation when an extension is not offered by pd or the backend
// refuses.
func CreateDevice(ctx *Context, pd *backend.PhysicalDeviceDescriptor, queues []backend.QueueRequest, requiredExtensions []string) (*Device, []backend.Queue, error) {
	if ctx == nil || ctx.destroyed {
		return nil, nil, stageError(ErrDeviceCreation, "context: %w", ErrDestroyed)
	}
	if pd == nil {
		return nil, nil, stageError(ErrDeviceCreation, "no physical device")
	}
	if len(queues) == 0 {
		return nil, nil, stageError(ErrDeviceCreation, "no queues requested")
	}
	exts := appendUnique(requiredExtensions, backend.ExtensionSwapchain)
	for _, ext := range exts {
		if !pd.SupportsExtension(ext) {
			return nil, nil, stageError(ErrDeviceCreation, "%s: device extension %q: %w",
				pd.Info.Name, ext, backend.ErrUnsupported)
		}
	}

	dev, qs, err := ctx.inst.CreateDevice(pd, &backend.DeviceDescriptor{
		Label:      ctx.label("device"),
		Queues:     slices.Clone(queues),
		Extensions: exts,
	})
	if err != nil {
		return nil, nil, stageError(ErrDeviceCreation, "%s: %w", pd.Info.Name, err)
	}
	if len(qs) != len(queues) {
		dev.Destroy()
		return nil, nil, stageError(ErrDeviceCreation, "%s: got %d queues, requested %d",
			pd.Info.Name, len(qs), len(queues))
	}

	d := &Device{
		ctx:        ctx,
		pd:         *pd,
		dev:        dev,
		queues:     qs,
		extensions: exts,
	}
	d.owned.OnRelease = ctx.owned.OnRelease
	ctx.own("device", d)
	return d, slices.Clone(qs), nil
}

// PhysicalDevice returns the descriptor the device was opened on.
func (d *Device) PhysicalDevice() backend.PhysicalDeviceDescriptor { return d.pd }

// Backend returns the backend device.
func (d *Device) Backend() backend.Device { return d.dev }

// Queues returns the queues created with the device, in request order.
func (d *Device) Queues() []backend.Queue { return slices.Clone(d.queues) }

// Extensions returns the enabled device extensions.
func (d *Device) Extensions() []string { return slices.Clone(d.extensions) }

// WaitIdle blocks until the device has no pending work.
func (d *Device) WaitIdle() error {
	if d.destroyed {
		return ErrDestroyed
	}
	return d.dev.WaitIdle()
}

// Destroy waits for the device to go idle, releases every object built
// on it and then the device itself. It is idempotent.
func (d *Device) Destroy() {
	if d.destroyed {
		return
	}
	if err := d.dev.WaitIdle(); err != nil {
		d.ctx.log.Warn("gpuboot: wait idle before destroy", "error", err)
	}
	d.destroyed = true
	d.owned.Release()
	d.dev.Destroy()
}

func (d *Device) check() error {
	if d == nil || d.destroyed {
		return fmt.Errorf("device: %w", ErrDestroyed)
	}
	return nil
}

func (d *Device) own(label string, o arena.Destroyer) {
	d.owned.Own(label, o)
}
