// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"
)

// DefaultFallbackExtent is the chain extent used when the surface does
// not report a current extent.
var DefaultFallbackExtent = backend.Extent{Width: 1280, Height: 1024}

// ChainPolicy steers chain negotiation. The zero value selects the first
// supported format, present mode and alpha mode, the minimum image count
// and DefaultFallbackExtent.
type ChainPolicy struct {
	// FallbackExtent is used when the surface has no current extent.
	FallbackExtent backend.Extent

	// PresentModes is an ordered preference list.
	PresentModes []gputypes.PresentMode

	// Formats is an ordered preference list of color formats.
	Formats []gputypes.TextureFormat

	// ImageCount overrides the minimum image count. It is clamped to the
	// surface bounds.
	ImageCount uint32
}

// ChainConfig is the negotiated presentation chain configuration.
type ChainConfig struct {
	ImageCount  uint32
	Format      gputypes.TextureFormat
	ColorSpace  backend.ColorSpace
	Extent      backend.Extent
	Usage       gputypes.TextureUsage
	Transform   backend.SurfaceTransform
	AlphaMode   gputypes.CompositeAlphaMode
	PresentMode gputypes.PresentMode
	Clipped     bool
}

func (c ChainConfig) descriptor(label string) *backend.SwapchainDescriptor {
	return &backend.SwapchainDescriptor{
		Label:       label,
		ImageCount:  c.ImageCount,
		Format:      c.Format,
		ColorSpace:  c.ColorSpace,
		Extent:      c.Extent,
		ArrayLayers: 1,
		Usage:       c.Usage,
		Transform:   c.Transform,
		AlphaMode:   c.AlphaMode,
		PresentMode: c.PresentMode,
		Clipped:     c.Clipped,
	}
}

// NegotiateChain derives a chain configuration from surface capabilities.
// It is pure: equal inputs give equal outputs.
//
// It fails with ErrChainCreation when the surface offers no format,
// present mode or alpha mode, does not support render attachment usage,
// or reports a zero current extent.
func NegotiateChain(caps *backend.SurfaceCapabilities, policy ChainPolicy) (ChainConfig, error) {
	if caps == nil {
		return ChainConfig{}, stageError(ErrChainCreation, "no surface capabilities")
	}

	var cfg ChainConfig
	switch {
	case caps.CurrentExtent != nil:
		cfg.Extent = *caps.CurrentExtent
	case !policy.FallbackExtent.IsZero():
		cfg.Extent = policy.FallbackExtent
	default:
		cfg.Extent = DefaultFallbackExtent
	}
	if cfg.Extent.IsZero() {
		return ChainConfig{}, stageError(ErrChainCreation, "zero extent %v", cfg.Extent)
	}

	if len(caps.Formats) == 0 {
		return ChainConfig{}, stageError(ErrChainCreation, "no surface formats")
	}
	format := caps.Formats[0]
	for _, want := range policy.Formats {
		if i := slices.IndexFunc(caps.Formats, func(f backend.SurfaceFormat) bool { return f.Format == want }); i >= 0 {
			format = caps.Formats[i]
			break
		}
	}
	cfg.Format = format.Format
	cfg.ColorSpace = format.ColorSpace

	if len(caps.PresentModes) == 0 {
		return ChainConfig{}, stageError(ErrChainCreation, "no present modes")
	}
	cfg.PresentMode = caps.PresentModes[0]
	for _, want := range policy.PresentModes {
		if slices.Contains(caps.PresentModes, want) {
			cfg.PresentMode = want
			break
		}
	}

	if len(caps.AlphaModes) == 0 {
		return ChainConfig{}, stageError(ErrChainCreation, "no composite alpha modes")
	}
	cfg.AlphaMode = caps.AlphaModes[0]

	cfg.ImageCount = imageCount(caps, policy.ImageCount)

	cfg.Usage = caps.SupportedUsage & gputypes.TextureUsageRenderAttachment
	if cfg.Usage == 0 {
		return ChainConfig{}, stageError(ErrChainCreation, "surface does not support render attachment usage")
	}

	cfg.Transform = backend.TransformIdentity
	cfg.Clipped = true
	return cfg, nil
}

func imageCount(caps *backend.SurfaceCapabilities, requested uint32) uint32 {
	n := caps.MinImageCount
	if requested > n {
		n = requested
	}
	if caps.MaxImageCount != 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return max(n, 1)
}

// Chain is a presentation chain: an ordered set of presentable images
// with one negotiated configuration. A Chain is never reconfigured; a
// resize builds a new one.
type Chain struct {
	device    *Device
	surface   *Surface
	config    ChainConfig
	swapchain backend.Swapchain
	images    []backend.Image

	destroyed bool
}

// CreateChain negotiates a configuration for surface on dev's physical
// device and creates the chain. It fails with ErrChainCreation.
func CreateChain(dev *Device, surface *Surface, policy ChainPolicy) (*Chain, error) {
	if err := dev.check(); err != nil {
		return nil, stageError(ErrChainCreation, "%w", err)
	}
	if surface == nil || surface.destroyed {
		return nil, stageError(ErrChainCreation, "surface: %w", ErrDestroyed)
	}
	caps, err := surface.Capabilities(&dev.pd)
	if err != nil {
		return nil, stageError(ErrChainCreation, "capabilities: %w", err)
	}
	cfg, err := NegotiateChain(caps, policy)
	if err != nil {
		return nil, err
	}
	dev.ctx.log.Debug("gpuboot: chain negotiated",
		"extent", cfg.Extent.String(),
		"format", cfg.Format.String(),
		"presentMode", cfg.PresentMode.String(),
		"alphaMode", cfg.AlphaMode.String(),
		"images", cfg.ImageCount)

	sc, err := dev.dev.CreateSwapchain(surface.surface, cfg.descriptor(dev.ctx.label("chain")))
	if err != nil {
		return nil, stageError(ErrChainCreation, "%w", err)
	}
	images := sc.Images()
	if err := checkImages(images, cfg); err != nil {
		sc.Destroy()
		return nil, stageError(ErrChainCreation, "%w", err)
	}

	c := &Chain{
		device:    dev,
		surface:   surface,
		config:    cfg,
		swapchain: sc,
		images:    images,
	}
	dev.own("chain", c)
	return c, nil
}

func checkImages(images []backend.Image, cfg ChainConfig) error {
	if uint32(len(images)) < cfg.ImageCount {
		return fmt.Errorf("chain has %d images, want at least %d", len(images), cfg.ImageCount)
	}
	for i, img := range images {
		if img.Format() != cfg.Format || img.Extent() != cfg.Extent {
			return fmt.Errorf("image %d is %v %v, want %v %v",
				i, img.Format(), img.Extent(), cfg.Format, cfg.Extent)
		}
	}
	return nil
}

// Config returns the negotiated configuration.
func (c *Chain) Config() ChainConfig { return c.config }

// Extent returns the image extent.
func (c *Chain) Extent() backend.Extent { return c.config.Extent }

// Format returns the image format.
func (c *Chain) Format() gputypes.TextureFormat { return c.config.Format }

// Images returns the chain images in presentation order.
func (c *Chain) Images() []backend.Image { return slices.Clone(c.images) }

// Swapchain returns the backend swapchain.
func (c *Chain) Swapchain() backend.Swapchain { return c.swapchain }

// Surface returns the surface the chain presents to.
func (c *Chain) Surface() *Surface { return c.surface }

// Destroy releases the chain and its images. Framebuffers built on them
// must be destroyed first. It is idempotent.
func (c *Chain) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.swapchain.Destroy()
}
