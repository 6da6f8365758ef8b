// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"
)

func init() {
	backend.Register(backend.NameSim, func() backend.Backend {
		return New(DefaultConfig())
	})
}

// Backend is a simulated graphics API. It is safe for concurrent use;
// the objects it creates are not.
type Backend struct {
	cfg Config

	mu        sync.Mutex
	instances []*Instance
}

// New returns a simulated backend scripted by cfg.
func New(cfg Config) *Backend {
	return &Backend{cfg: cfg}
}

// Name returns "sim".
func (b *Backend) Name() string { return backend.NameSim }

// Instances returns every instance created so far, in creation order.
func (b *Backend) Instances() []*Instance {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.instances)
}

// CreateInstance creates an independent simulated instance.
func (b *Backend) CreateInstance(desc *backend.InstanceDescriptor) (backend.Instance, error) {
	t := newTracker(b.cfg.Faults)
	if err := t.call(OpCreateInstance); err != nil {
		return nil, err
	}
	label := b.cfg.Label
	if desc != nil {
		for _, ext := range desc.Extensions {
			if !slices.Contains(b.cfg.InstanceExtensions, ext) {
				return nil, fmt.Errorf("sim: instance extension %q: %w", ext, backend.ErrUnsupported)
			}
		}
		if desc.Label != "" {
			label = desc.Label
		}
	}
	obj, err := t.create(KindInstance, label)
	if err != nil {
		return nil, err
	}
	inst := &Instance{object: obj, cfg: b.cfg, t: t}
	b.mu.Lock()
	b.instances = append(b.instances, inst)
	b.mu.Unlock()
	return inst, nil
}

// Instance is a simulated API connection. It owns the tracker that
// records every object created through it.
type Instance struct {
	*object
	cfg Config
	t   *tracker
}

// Destroy releases the instance.
func (i *Instance) Destroy() { i.t.destroy(i.object) }

// SupportedExtensions returns the configured instance extensions.
func (i *Instance) SupportedExtensions() []string {
	return slices.Clone(i.cfg.InstanceExtensions)
}

// EnumeratePhysicalDevices returns one descriptor per configured device.
func (i *Instance) EnumeratePhysicalDevices() ([]backend.PhysicalDeviceDescriptor, error) {
	if err := i.t.call(OpEnumerate); err != nil {
		return nil, err
	}
	if !i.t.alive(i.object) {
		return nil, fmt.Errorf("sim: enumerate: %w", backend.ErrInvalidHandle)
	}
	out := make([]backend.PhysicalDeviceDescriptor, 0, len(i.cfg.Devices))
	for idx, d := range i.cfg.Devices {
		out = append(out, backend.PhysicalDeviceDescriptor{
			Index: idx,
			Info: gputypes.AdapterInfo{
				Name:       d.Name,
				Vendor:     "gpuboot",
				DeviceID:   uint32(idx),
				DeviceType: d.Type,
				Driver:     "sim",
				Backend:    gputypes.BackendEmpty,
			},
			QueueFamilies: slices.Clone(d.QueueFamilies),
			Extensions:    slices.Clone(d.Extensions),
			Features:      d.Features,
		})
	}
	return out, nil
}

// device returns the configuration backing pd.
func (i *Instance) device(pd *backend.PhysicalDeviceDescriptor) (*DeviceConfig, error) {
	if pd == nil || pd.Index < 0 || pd.Index >= len(i.cfg.Devices) {
		return nil, fmt.Errorf("sim: physical device: %w", backend.ErrNotFound)
	}
	return &i.cfg.Devices[pd.Index], nil
}

// CreateSurface binds target to the instance.
func (i *Instance) CreateSurface(target backend.Target) (backend.Surface, error) {
	if err := i.t.call(OpCreateSurface); err != nil {
		return nil, err
	}
	if target.Window == 0 && target.Provider == nil {
		return nil, fmt.Errorf("sim: surface: no window: %w", backend.ErrInvalidHandle)
	}
	obj, err := i.t.create(KindSurface, target.Label, i.object)
	if err != nil {
		return nil, err
	}
	return &Surface{object: obj, inst: i, target: target}, nil
}

// CreateDevice opens a simulated logical device.
func (i *Instance) CreateDevice(pd *backend.PhysicalDeviceDescriptor, desc *backend.DeviceDescriptor) (backend.Device, []backend.Queue, error) {
	if err := i.t.call(OpCreateDevice); err != nil {
		return nil, nil, err
	}
	cfg, err := i.device(pd)
	if err != nil {
		return nil, nil, err
	}
	if desc == nil || len(desc.Queues) == 0 {
		return nil, nil, fmt.Errorf("sim: device: no queues requested: %w", backend.ErrUnsupported)
	}
	for _, ext := range desc.Extensions {
		if !slices.Contains(cfg.Extensions, ext) {
			return nil, nil, fmt.Errorf("sim: device extension %q: %w", ext, backend.ErrUnsupported)
		}
	}
	used := make(map[uint32]uint32)
	for _, q := range desc.Queues {
		if int(q.Family) >= len(cfg.QueueFamilies) {
			return nil, nil, fmt.Errorf("sim: queue family %d: %w", q.Family, backend.ErrNotFound)
		}
		if q.Priority < 0 || q.Priority > 1 {
			return nil, nil, fmt.Errorf("sim: queue priority %v: %w", q.Priority, backend.ErrUnsupported)
		}
		used[q.Family]++
		if used[q.Family] > cfg.QueueFamilies[q.Family].Count {
			return nil, nil, fmt.Errorf("sim: queue family %d exhausted: %w", q.Family, backend.ErrUnsupported)
		}
	}

	obj, err := i.t.create(KindDevice, desc.Label, i.object)
	if err != nil {
		return nil, nil, err
	}
	dev := &Device{object: obj, inst: i, cfg: cfg, extensions: slices.Clone(desc.Extensions)}
	queues := make([]backend.Queue, len(desc.Queues))
	next := make(map[uint32]uint32)
	for n, q := range desc.Queues {
		queues[n] = &Queue{device: dev, family: q.Family, index: next[q.Family], priority: q.Priority}
		next[q.Family]++
	}
	return dev, queues, nil
}

// Live returns every object that has not been destroyed.
func (i *Instance) Live() []ObjectInfo { return i.t.liveObjects() }

// LiveCount returns the number of objects that have not been destroyed,
// the instance included.
func (i *Instance) LiveCount() int { return len(i.t.liveObjects()) }

// Violations returns every ownership violation observed so far.
func (i *Instance) Violations() []string { return i.t.violationList() }

// Created returns how many objects of kind were ever created.
func (i *Instance) Created(kind Kind) int { return i.t.created(kind) }

// Calls returns how many times op was invoked.
func (i *Instance) Calls(op Op) int { return i.t.callCount(op) }

// Surface is a simulated presentable target.
type Surface struct {
	*object
	inst   *Instance
	target backend.Target
}

// Destroy releases the surface.
func (s *Surface) Destroy() { s.inst.t.destroy(s.object) }

// Target returns the target the surface was created for.
func (s *Surface) Target() backend.Target { return s.target }

// SupportsPresent reports the configured present support of family.
func (s *Surface) SupportsPresent(pd *backend.PhysicalDeviceDescriptor, family uint32) (bool, error) {
	if err := s.inst.t.call(OpSupportsPresent); err != nil {
		return false, err
	}
	cfg, err := s.inst.device(pd)
	if err != nil {
		return false, err
	}
	if int(family) >= len(cfg.QueueFamilies) {
		return false, fmt.Errorf("sim: queue family %d: %w", family, backend.ErrNotFound)
	}
	return int(family) < len(cfg.Present) && cfg.Present[family], nil
}

// Capabilities returns the configured surface capabilities. When the
// target has a window provider, its physical size is the current extent.
func (s *Surface) Capabilities(pd *backend.PhysicalDeviceDescriptor) (*backend.SurfaceCapabilities, error) {
	if err := s.inst.t.call(OpCapabilities); err != nil {
		return nil, err
	}
	cfg, err := s.inst.device(pd)
	if err != nil {
		return nil, err
	}
	caps := cfg.Surface.Clone()
	if e, ok := s.target.PhysicalSize(); ok {
		caps.CurrentExtent = &e
	}
	return caps, nil
}

// Queue is a simulated queue handle.
type Queue struct {
	device   *Device
	family   uint32
	index    uint32
	priority float32
}

func (q *Queue) Family() uint32    { return q.family }
func (q *Queue) Index() uint32     { return q.index }
func (q *Queue) Priority() float32 { return q.priority }

// Device returns the device that owns q.
func (q *Queue) Device() *Device { return q.device }
