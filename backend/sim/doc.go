// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sim provides a deterministic in-memory graphics backend.
//
// The simulator models the Vulkan-shaped vocabulary of package backend
// without touching a GPU. Device and surface capabilities are scripted
// through [Config], any creation call can be made to fail with a [Fault],
// and every object is tracked so tests can assert that nothing leaked and
// that no object outlived its owner:
//
//	b := sim.New(sim.DefaultConfig())
//	ready, err := gpuboot.Bootstrap(b, target, stages)
//	...
//	ready.Destroy()
//	inst := b.Instances()[0]
//	if inst.LiveCount() != 0 || len(inst.Violations()) != 0 {
//		t.Fatal("leak")
//	}
//
// Importing the package registers a "sim" backend using [DefaultConfig].
package sim
