// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gputypes"

	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func init() {
	backend.Register(backend.NameVulkan, func() backend.Backend {
		return ForVariant(backend.NameVulkan, gputypes.BackendVulkan)
	})
}
