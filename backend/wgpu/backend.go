// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func init() {
	backend.Register(backend.NameNoop, func() backend.Backend {
		return New(backend.NameNoop, noop.API{})
	})
}

// Backend adapts a hal.Backend.
type Backend struct {
	name    string
	api     hal.Backend
	variant gputypes.Backend
}

// New returns a backend wrapping api.
func New(name string, api hal.Backend) *Backend {
	return &Backend{name: name, api: api, variant: api.Variant()}
}

// ForVariant returns a backend that resolves the hal backend registered
// for variant when an instance is created.
func ForVariant(name string, variant gputypes.Backend) *Backend {
	return &Backend{name: name, variant: variant}
}

// Name returns the registry name.
func (b *Backend) Name() string { return b.name }

// Variant returns the graphics API the backend targets.
func (b *Backend) Variant() gputypes.Backend { return b.variant }

// CreateInstance creates a hal instance.
func (b *Backend) CreateInstance(desc *backend.InstanceDescriptor) (backend.Instance, error) {
	api := b.api
	if api == nil {
		var ok bool
		api, ok = hal.GetBackend(b.variant)
		if !ok {
			return nil, fmt.Errorf("wgpu: %s: %w: %w", b.variant, hal.ErrBackendNotFound, backend.ErrUnsupported)
		}
	}
	if desc != nil {
		for _, ext := range desc.Extensions {
			if !slices.Contains(instanceExtensions, ext) {
				return nil, fmt.Errorf("wgpu: instance extension %q: %w", ext, backend.ErrUnsupported)
			}
		}
	}
	inst, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	return &Instance{backend: b, inst: inst}, nil
}

// instanceExtensions are the extensions every hal instance provides.
var instanceExtensions = []string{backend.ExtensionSurface}

// deviceExtensions are the extensions every hal adapter provides.
var deviceExtensions = []string{backend.ExtensionSwapchain}

// queueFlags describes the single synthesized queue family.
const queueFlags = backend.QueueGraphics | backend.QueueCompute | backend.QueueTransfer

// Instance wraps a hal.Instance.
type Instance struct {
	backend  *Backend
	inst     hal.Instance
	adapters []hal.ExposedAdapter
}

// Native returns the hal.Instance.
func (i *Instance) Native() any { return i.inst }

// Destroy releases the adapters and the instance.
func (i *Instance) Destroy() {
	for _, a := range i.adapters {
		a.Adapter.Destroy()
	}
	i.adapters = nil
	i.inst.Destroy()
}

// SupportedExtensions returns the instance extensions.
func (i *Instance) SupportedExtensions() []string {
	return slices.Clone(instanceExtensions)
}

// EnumeratePhysicalDevices enumerates hal adapters once and describes them.
func (i *Instance) EnumeratePhysicalDevices() ([]backend.PhysicalDeviceDescriptor, error) {
	if i.adapters == nil {
		i.adapters = i.inst.EnumerateAdapters(nil)
	}
	out := make([]backend.PhysicalDeviceDescriptor, 0, len(i.adapters))
	for idx, a := range i.adapters {
		out = append(out, backend.PhysicalDeviceDescriptor{
			Index:         idx,
			Info:          a.Info,
			QueueFamilies: []backend.QueueFamily{{Index: 0, Flags: queueFlags, Count: 1}},
			Extensions:    slices.Clone(deviceExtensions),
			Features:      a.Features,
		})
	}
	return out, nil
}

func (i *Instance) adapter(pd *backend.PhysicalDeviceDescriptor) (*hal.ExposedAdapter, error) {
	if pd == nil || pd.Index < 0 || pd.Index >= len(i.adapters) {
		return nil, fmt.Errorf("wgpu: physical device: %w", backend.ErrNotFound)
	}
	return &i.adapters[pd.Index], nil
}

// CreateSurface creates a hal surface for the target's handles.
func (i *Instance) CreateSurface(target backend.Target) (backend.Surface, error) {
	s, err := i.inst.CreateSurface(target.Display, target.Window)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create surface: %w", err)
	}
	return &Surface{inst: i, surf: s, target: target}, nil
}

// CreateDevice opens the adapter behind pd. Only one queue from family 0
// can be requested.
func (i *Instance) CreateDevice(pd *backend.PhysicalDeviceDescriptor, desc *backend.DeviceDescriptor) (backend.Device, []backend.Queue, error) {
	a, err := i.adapter(pd)
	if err != nil {
		return nil, nil, err
	}
	if desc == nil || len(desc.Queues) != 1 {
		return nil, nil, fmt.Errorf("wgpu: device: exactly one queue is supported: %w", backend.ErrUnsupported)
	}
	q := desc.Queues[0]
	if q.Family != 0 {
		return nil, nil, fmt.Errorf("wgpu: queue family %d: %w", q.Family, backend.ErrNotFound)
	}
	for _, ext := range desc.Extensions {
		if !slices.Contains(deviceExtensions, ext) {
			return nil, nil, fmt.Errorf("wgpu: device extension %q: %w", ext, backend.ErrUnsupported)
		}
	}
	if desc.Features&^a.Features != 0 {
		return nil, nil, fmt.Errorf("wgpu: features 0x%x: %w", uint64(desc.Features&^a.Features), backend.ErrUnsupported)
	}

	open, err := a.Adapter.Open(desc.Features, a.Capabilities.Limits)
	if err != nil {
		return nil, nil, fmt.Errorf("wgpu: open device: %w", err)
	}
	dev := &Device{
		inst:       i,
		adapter:    a,
		dev:        open.Device,
		extensions: slices.Clone(desc.Extensions),
	}
	dev.queue = &Queue{queue: open.Queue, priority: q.Priority}
	return dev, []backend.Queue{dev.queue}, nil
}

// Queue wraps the hal queue of a device.
type Queue struct {
	queue    hal.Queue
	priority float32
}

func (q *Queue) Family() uint32    { return 0 }
func (q *Queue) Index() uint32     { return 0 }
func (q *Queue) Priority() float32 { return q.priority }

// Native returns the hal.Queue.
func (q *Queue) Native() any { return q.queue }

// Hal returns the hal.Queue.
func (q *Queue) Hal() hal.Queue { return q.queue }
