// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/internal/arena"
)

// Context is a connection to a graphics backend. It owns the backend
// instance and every surface and device created from it, and releases
// them, newest first, before the instance.
//
// A Context is not safe for concurrent use.
type Context struct {
	backend backend.Backend
	inst    backend.Instance
	cfg     Config
	log     *slog.Logger

	devices []backend.PhysicalDeviceDescriptor
	owned   arena.Arena

	destroyed bool
}

// CreateContext creates a backend instance with the required instance
// extensions. It fails with ErrBackendUnavailable when b is nil, the
// instance cannot be created, or an extension is not supported.
func CreateContext(b backend.Backend, requiredExtensions []string, opts ...Option) (*Context, error) {
	cfg := newConfig(opts)
	if b == nil {
		return nil, stageError(ErrBackendUnavailable, "no backend")
	}
	exts := appendUnique(cfg.InstanceExtensions, requiredExtensions...)

	inst, err := b.CreateInstance(&backend.InstanceDescriptor{
		Label:      cfg.Label,
		Extensions: exts,
	})
	if err != nil {
		return nil, stageError(ErrBackendUnavailable, "%s: create instance: %w", b.Name(), err)
	}
	supported := inst.SupportedExtensions()
	for _, ext := range exts {
		if !slices.Contains(supported, ext) {
			inst.Destroy()
			return nil, stageError(ErrBackendUnavailable, "%s: instance extension %q: %w",
				b.Name(), ext, backend.ErrUnsupported)
		}
	}

	ctx := &Context{
		backend: b,
		inst:    inst,
		cfg:     cfg,
		log:     cfg.logger().With("backend", b.Name()),
	}
	ctx.owned.OnRelease = func(label string) {
		ctx.log.Debug("gpuboot: release", "object", label)
	}
	return ctx, nil
}

// Backend returns the backend the context was created from.
func (c *Context) Backend() backend.Backend { return c.backend }

// Instance returns the backend instance.
func (c *Context) Instance() backend.Instance { return c.inst }

// Config returns the configuration the context was created with.
func (c *Context) Config() Config { return c.cfg }

// EnumeratePhysicalDevices returns the physical devices in backend order.
// It fails with ErrNoDeviceAvailable when there are none.
func (c *Context) EnumeratePhysicalDevices() ([]backend.PhysicalDeviceDescriptor, error) {
	if c.destroyed {
		return nil, stageError(ErrNoDeviceAvailable, "context: %w", ErrDestroyed)
	}
	if c.devices == nil {
		devices, err := c.inst.EnumeratePhysicalDevices()
		if err != nil {
			return nil, stageError(ErrNoDeviceAvailable, "enumerate: %w", err)
		}
		c.devices = devices
	}
	if len(c.devices) == 0 {
		return nil, ErrNoDeviceAvailable
	}
	return slices.Clone(c.devices), nil
}

// SelectPhysicalDevice applies the selection policy: the configured
// DeviceSelector, or else the first enumerated device.
func (c *Context) SelectPhysicalDevice() (*backend.PhysicalDeviceDescriptor, error) {
	devices, err := c.EnumeratePhysicalDevices()
	if err != nil {
		return nil, err
	}
	idx := 0
	if c.cfg.SelectDevice != nil {
		i, ok := c.cfg.SelectDevice(devices)
		if !ok || i < 0 || i >= len(devices) {
			return nil, stageError(ErrNoDeviceAvailable, "selector rejected all %d devices", len(devices))
		}
		idx = i
	}
	pd := devices[idx]
	c.log.Debug("gpuboot: physical device selected",
		"index", pd.Index, "name", pd.Info.Name, "type", pd.Info.DeviceType)
	return &pd, nil
}

// Destroy releases every device and surface created from the context,
// then the instance. It is idempotent.
func (c *Context) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.owned.Release()
	c.inst.Destroy()
}

// own registers d with the context. Objects are released newest first.
func (c *Context) own(label string, d arena.Destroyer) {
	c.owned.Own(label, d)
}

func (c *Context) label(kind string) string {
	if c.cfg.Label == "" {
		return kind
	}
	return fmt.Sprintf("%s.%s", c.cfg.Label, kind)
}
