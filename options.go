// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"log/slog"
	"slices"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"
)

// DeviceSelector picks a physical device from the enumerated list. It
// returns false when no device is acceptable.
type DeviceSelector func(devices []backend.PhysicalDeviceDescriptor) (int, bool)

// Config holds the tunable parts of a bootstrap.
type Config struct {
	// Logger overrides the package logger when non-nil.
	Logger *slog.Logger

	// Label prefixes backend object labels.
	Label string

	// InstanceExtensions are required in addition to those passed to
	// CreateContext. Defaults to the surface extension.
	InstanceExtensions []string

	// DeviceExtensions are required on the logical device. The swapchain
	// extension is always added.
	DeviceExtensions []string

	// SelectDevice replaces the first-enumerated selection policy.
	SelectDevice DeviceSelector

	// Chain is the presentation chain negotiation policy.
	Chain ChainPolicy

	// VertexLayout is the pipeline vertex input layout. Defaults to one
	// buffer of vec2<f32> at location 0.
	VertexLayout []gputypes.VertexBufferLayout

	// ClearColor is the color attachment clear value.
	ClearColor gputypes.Color
}

// DefaultConfig returns the defaults:
//   - instance extensions: VK_KHR_surface
//   - device extensions: VK_KHR_swapchain
//   - device selection: first enumerated device
//   - chain: fallback extent 1280x1024, first supported format, present
//     mode and alpha mode, minimum image count
//   - vertex layout: one vec2<f32> buffer at location 0, stride 8
//   - clear color: opaque black
func DefaultConfig() Config {
	return Config{
		Label:              "gpuboot",
		InstanceExtensions: []string{backend.ExtensionSurface},
		DeviceExtensions:   []string{backend.ExtensionSwapchain},
		Chain:              ChainPolicy{FallbackExtent: DefaultFallbackExtent},
		VertexLayout:       DefaultVertexLayout(),
		ClearColor:         gputypes.Color{R: 0, G: 0, B: 0, A: 1},
	}
}

// DefaultVertexLayout returns one per-vertex buffer of vec2<f32> positions
// at location 0.
func DefaultVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: 8,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{{
			Format:         gputypes.VertexFormatFloat32x2,
			Offset:         0,
			ShaderLocation: 0,
		}},
	}}
}

// Option configures a bootstrap or one of its stages.
//
// Example:
//
//	ready, err := gpuboot.Bootstrap(b, target, stages,
//	    gpuboot.WithFallbackExtent(1920, 1080),
//	    gpuboot.WithPresentModes(gputypes.PresentModeMailbox, gputypes.PresentModeFifo),
//	)
type Option func(*Config)

func newConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// logger returns the configured logger or the package logger.
func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return Logger()
}

// WithLogger sets a logger for this bootstrap only.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithLabel sets the prefix of backend object labels.
func WithLabel(label string) Option {
	return func(c *Config) {
		c.Label = label
	}
}

// WithFallbackExtent sets the chain extent used when the surface does not
// report a current extent.
func WithFallbackExtent(width, height uint32) Option {
	return func(c *Config) {
		c.Chain.FallbackExtent = backend.Extent{Width: width, Height: height}
	}
}

// WithPresentModes sets an ordered present mode preference. The first
// supported mode wins; if none is supported the first supported mode of
// the surface is used.
func WithPresentModes(modes ...gputypes.PresentMode) Option {
	return func(c *Config) {
		c.Chain.PresentModes = slices.Clone(modes)
	}
}

// WithFormats sets an ordered color format preference, with the same
// fallback rule as WithPresentModes.
func WithFormats(formats ...gputypes.TextureFormat) Option {
	return func(c *Config) {
		c.Chain.Formats = slices.Clone(formats)
	}
}

// WithImageCount requests n chain images, clamped to the surface bounds.
func WithImageCount(n uint32) Option {
	return func(c *Config) {
		c.Chain.ImageCount = n
	}
}

// WithInstanceExtensions adds required instance extensions.
func WithInstanceExtensions(names ...string) Option {
	return func(c *Config) {
		c.InstanceExtensions = appendUnique(c.InstanceExtensions, names...)
	}
}

// WithDeviceExtensions adds required device extensions.
func WithDeviceExtensions(names ...string) Option {
	return func(c *Config) {
		c.DeviceExtensions = appendUnique(c.DeviceExtensions, names...)
	}
}

// WithDeviceSelector replaces the device selection policy.
func WithDeviceSelector(sel DeviceSelector) Option {
	return func(c *Config) {
		c.SelectDevice = sel
	}
}

// WithVertexLayout replaces the pipeline vertex input layout.
func WithVertexLayout(layout ...gputypes.VertexBufferLayout) Option {
	return func(c *Config) {
		c.VertexLayout = slices.Clone(layout)
	}
}

// WithClearColor sets the color attachment clear value.
func WithClearColor(color gputypes.Color) Option {
	return func(c *Config) {
		c.ClearColor = color
	}
}

func appendUnique(dst []string, names ...string) []string {
	out := slices.Clone(dst)
	for _, n := range names {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}
