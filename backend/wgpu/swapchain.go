// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Swapchain owns the render targets drawn into before presentation. Its
// images are offscreen textures; presenting one means copying it into the
// texture the surface hands out for the frame.
type Swapchain struct {
	device  *Device
	surface *Surface
	desc    backend.SwapchainDescriptor
	images  []*Image
}

// Image is a swapchain render target.
type Image struct {
	index   int
	format  gputypes.TextureFormat
	extent  backend.Extent
	texture hal.Texture
	view    hal.TextureView
}

func (i *Image) Index() int                     { return i.index }
func (i *Image) Format() gputypes.TextureFormat { return i.format }
func (i *Image) Extent() backend.Extent         { return i.extent }

// Texture returns the hal texture.
func (i *Image) Texture() hal.Texture { return i.texture }

// View returns the hal texture view.
func (i *Image) View() hal.TextureView { return i.view }

func (s *Swapchain) addImage(index int) error {
	d := s.device.dev
	label := fmt.Sprintf("%s image %d", s.desc.Label, index)
	tex, err := d.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              s.desc.Extent.Width,
			Height:             s.desc.Extent.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        s.desc.Format,
		Usage:         s.desc.Usage,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create %s: %w", label, err)
	}
	view, err := d.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: label + " view"})
	if err != nil {
		d.DestroyTexture(tex)
		return fmt.Errorf("wgpu: create %s view: %w", label, err)
	}
	s.images = append(s.images, &Image{
		index:   index,
		format:  s.desc.Format,
		extent:  s.desc.Extent,
		texture: tex,
		view:    view,
	})
	return nil
}

// Images returns the render targets in order.
func (s *Swapchain) Images() []backend.Image {
	out := make([]backend.Image, len(s.images))
	for i, img := range s.images {
		out[i] = img
	}
	return out
}

// Destroy releases the render targets, newest first, and unconfigures
// the surface.
func (s *Swapchain) Destroy() {
	d := s.device.dev
	for i := len(s.images) - 1; i >= 0; i-- {
		img := s.images[i]
		d.DestroyTextureView(img.view)
		d.DestroyTexture(img.texture)
	}
	s.images = nil
	s.surface.surf.Unconfigure(d)
}
