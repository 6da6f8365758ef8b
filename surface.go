// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuboot

import (
	"github.com/gogpu/gpuboot/backend"
)

// Surface is a presentable output target bound to a Context.
// A Surface is not safe for concurrent use.
type Surface struct {
	ctx     *Context
	surface backend.Surface
	target  backend.Target

	destroyed bool
}

// BindSurface binds target to ctx. It fails with ErrSurfaceCreation.
func BindSurface(ctx *Context, target backend.Target) (*Surface, error) {
	if ctx == nil || ctx.destroyed {
		return nil, stageError(ErrSurfaceCreation, "context: %w", ErrDestroyed)
	}
	if target.Label == "" {
		target.Label = ctx.label("surface")
	}
	s, err := ctx.inst.CreateSurface(target)
	if err != nil {
		return nil, stageError(ErrSurfaceCreation, "%s: %w", target.Label, err)
	}
	surf := &Surface{ctx: ctx, surface: s, target: target}
	ctx.own("surface", surf)
	return surf, nil
}

// Target returns the bound platform target.
func (s *Surface) Target() backend.Target { return s.target }

// Backend returns the backend surface.
func (s *Surface) Backend() backend.Surface { return s.surface }

// SupportsPresent reports whether queues of family on pd can present to s.
func (s *Surface) SupportsPresent(pd *backend.PhysicalDeviceDescriptor, family uint32) (bool, error) {
	if s.destroyed {
		return false, ErrDestroyed
	}
	return s.surface.SupportsPresent(pd, family)
}

// Capabilities reports what pd can do with s.
func (s *Surface) Capabilities(pd *backend.PhysicalDeviceDescriptor) (*backend.SurfaceCapabilities, error) {
	if s.destroyed {
		return nil, ErrDestroyed
	}
	return s.surface.Capabilities(pd)
}

// Destroy releases the surface. Chains built on it must be destroyed
// first. It is idempotent.
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.surface.Destroy()
}
