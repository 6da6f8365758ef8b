// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpuboot/backend"
)

// Kind classifies tracked objects.
type Kind string

// Tracked object kinds.
const (
	KindInstance     Kind = "instance"
	KindSurface      Kind = "surface"
	KindDevice       Kind = "device"
	KindSwapchain    Kind = "swapchain"
	KindShaderModule Kind = "shader"
	KindRenderPass   Kind = "renderpass"
	KindPipeline     Kind = "pipeline"
	KindFramebuffer  Kind = "framebuffer"
)

// ObjectInfo describes a tracked object.
type ObjectInfo struct {
	ID    uint64
	Kind  Kind
	Label string
}

func (o ObjectInfo) String() string {
	if o.Label != "" {
		return fmt.Sprintf("%s#%d(%s)", o.Kind, o.ID, o.Label)
	}
	return fmt.Sprintf("%s#%d", o.Kind, o.ID)
}

// object is the tracking record embedded in every simulated handle.
type object struct {
	ObjectInfo
	deps []*object
	live bool
}

// ID returns the tracker-assigned identifier.
func (o *object) ID() uint64 { return o.ObjectInfo.ID }

// tracker records creation, destruction and call counts for one instance.
type tracker struct {
	mu         sync.Mutex
	next       uint64
	objects    []*object
	calls      map[Op]int
	faults     []Fault
	violations []string
}

func newTracker(faults []Fault) *tracker {
	return &tracker{
		calls:  make(map[Op]int),
		faults: faults,
	}
}

// call counts op and returns the injected error, if any.
func (t *tracker) call(op Op) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[op]++
	n := t.calls[op]
	for _, f := range t.faults {
		if f.Op != op || (f.Call != 0 && f.Call != n) {
			continue
		}
		if f.Err != nil {
			return fmt.Errorf("sim: %s call %d: %w", op, n, f.Err)
		}
		return fmt.Errorf("sim: %s call %d: %w", op, n, ErrInjected)
	}
	return nil
}

// create registers a new live object. Every dependency must be live.
func (t *tracker) create(kind Kind, label string, deps ...*object) (*object, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, d := range deps {
		if d == nil || !d.live {
			return nil, fmt.Errorf("sim: create %s: %w", kind, backend.ErrInvalidHandle)
		}
	}
	t.next++
	o := &object{
		ObjectInfo: ObjectInfo{ID: t.next, Kind: kind, Label: label},
		deps:       deps,
		live:       true,
	}
	t.objects = append(t.objects, o)
	return o, nil
}

// destroy marks o dead. Destroying an object that still has live
// dependents, or destroying twice, is recorded as a violation.
func (t *tracker) destroy(o *object) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !o.live {
		t.violations = append(t.violations, fmt.Sprintf("double destroy of %s", o.ObjectInfo))
		return
	}
	for _, other := range t.objects {
		if !other.live {
			continue
		}
		for _, d := range other.deps {
			if d == o {
				t.violations = append(t.violations,
					fmt.Sprintf("destroy %s while %s is alive", o.ObjectInfo, other.ObjectInfo))
			}
		}
	}
	o.live = false
}

func (t *tracker) alive(o *object) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return o != nil && o.live
}

func (t *tracker) liveObjects() []ObjectInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []ObjectInfo
	for _, o := range t.objects {
		if o.live {
			out = append(out, o.ObjectInfo)
		}
	}
	return out
}

func (t *tracker) created(kind Kind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, o := range t.objects {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

func (t *tracker) callCount(op Op) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[op]
}

func (t *tracker) violationList() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.violations...)
}
