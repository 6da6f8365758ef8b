// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"slices"

	"github.com/gogpu/gpucontext"
)

// Backend name constants.
const (
	NameVulkan   = "vulkan"
	NameMetal    = "metal"
	NameDX12     = "dx12"
	NameGL       = "gl"
	NameSoftware = "software"
	NameNoop     = "noop"
	NameSim      = "sim"
)

// Factory creates a new backend value.
type Factory func() Backend

// registry holds registered backends. Priority order for selection (first
// available wins): hardware APIs first, then the CPU and test backends.
var registry = gpucontext.NewRegistry[Backend](
	gpucontext.WithPriority(NameVulkan, NameMetal, NameDX12, NameGL, NameSoftware, NameNoop, NameSim),
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registry.Register(name, factory)
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registry.Unregister(name)
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	return registry.Has(name)
}

// Available returns the sorted names of all registered backends.
func Available() []string {
	names := registry.Available()
	slices.Sort(names)
	return names
}

// Get returns a backend by name, or nil if it is not registered.
func Get(name string) Backend {
	return registry.Get(name)
}

// Best returns the highest-priority registered backend, or nil.
func Best() Backend {
	return registry.Best()
}

// BestName returns the name of the backend Best would return, or "".
func BestName() string {
	return registry.BestName()
}
