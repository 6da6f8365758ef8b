// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"fmt"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"
)

// Framebuffer binds one chain image to a render pass.
type Framebuffer struct {
	index       int
	image       backend.Image
	extent      backend.Extent
	framebuffer backend.Framebuffer

	destroyed bool
}

// BuildFramebuffers creates one framebuffer per image, in chain order,
// each sized to its image with a single layer. It fails with
// ErrFramebufferCreation when images is empty, an image does not match
// the render pass attachment, or the backend refuses. On failure the
// framebuffers already built are released.
func BuildFramebuffers(dev *Device, rp *RenderPass, images []backend.Image) ([]*Framebuffer, error) {
	if err := dev.check(); err != nil {
		return nil, stageError(ErrFramebufferCreation, "%w", err)
	}
	if rp == nil || rp.destroyed {
		return nil, stageError(ErrFramebufferCreation, "no render pass")
	}
	if len(images) == 0 {
		return nil, stageError(ErrFramebufferCreation, "no chain images")
	}
	if len(rp.desc.Attachments) != 1 {
		return nil, stageError(ErrFramebufferCreation, "render pass has %d attachments, want 1",
			len(rp.desc.Attachments))
	}
	want := rp.desc.Attachments[0].Format
	extent := images[0].Extent()

	mark := dev.owned.Mark()
	fbs := make([]*Framebuffer, 0, len(images))
	for i, img := range images {
		if err := checkFramebufferImage(img, want, extent); err != nil {
			dev.owned.ReleaseTo(mark)
			return nil, stageError(ErrFramebufferCreation, "image %d: %w", i, err)
		}
		fb, err := dev.dev.CreateFramebuffer(&backend.FramebufferDescriptor{
			Label:       dev.ctx.label(fmt.Sprintf("framebuffer%d", i)),
			RenderPass:  rp.rp,
			Attachments: []backend.Image{img},
			Width:       extent.Width,
			Height:      extent.Height,
			Layers:      1,
		})
		if err != nil {
			dev.owned.ReleaseTo(mark)
			return nil, stageError(ErrFramebufferCreation, "image %d: %w", i, err)
		}
		f := &Framebuffer{index: i, image: img, extent: extent, framebuffer: fb}
		dev.own(fmt.Sprintf("framebuffer%d", i), f)
		fbs = append(fbs, f)
	}
	return fbs, nil
}

func checkFramebufferImage(img backend.Image, format gputypes.TextureFormat, extent backend.Extent) error {
	if img.Format() != format {
		return fmt.Errorf("format %v does not match attachment format %v", img.Format(), format)
	}
	if img.Extent() != extent {
		return fmt.Errorf("extent %v does not match %v", img.Extent(), extent)
	}
	return nil
}

// Index returns the position of the bound image in its chain.
func (f *Framebuffer) Index() int { return f.index }

// Image returns the bound chain image.
func (f *Framebuffer) Image() backend.Image { return f.image }

// Size returns width, height and layer count.
func (f *Framebuffer) Size() (width, height, layers uint32) {
	return f.extent.Width, f.extent.Height, 1
}

// Backend returns the backend framebuffer.
func (f *Framebuffer) Backend() backend.Framebuffer { return f.framebuffer }

// Destroy releases the framebuffer. It is idempotent.
func (f *Framebuffer) Destroy() {
	if f.destroyed {
		return
	}
	f.destroyed = true
	f.framebuffer.Destroy()
}
