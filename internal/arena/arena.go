// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package arena releases a group of owned objects as one unit, in reverse
// acquisition order.
package arena

import "slices"

// Destroyer is implemented by every backend object.
type Destroyer interface {
	Destroy()
}

type entry struct {
	label   string
	release func()
}

// Arena holds release functions. The zero value is ready to use.
// An Arena is not safe for concurrent use.
type Arena struct {
	entries  []entry
	released bool

	// OnRelease, if set, is called with each label before its release
	// function runs.
	OnRelease func(label string)
}

// Add registers release under label. Adding to a released arena runs
// release immediately.
func (a *Arena) Add(label string, release func()) {
	if release == nil {
		return
	}
	if a.released {
		a.run(entry{label: label, release: release})
		return
	}
	a.entries = append(a.entries, entry{label: label, release: release})
}

// Own registers d.Destroy under label.
func (a *Arena) Own(label string, d Destroyer) {
	if d == nil {
		return
	}
	a.Add(label, d.Destroy)
}

// Len returns the number of pending releases.
func (a *Arena) Len() int { return len(a.entries) }

// Labels returns the pending labels in acquisition order.
func (a *Arena) Labels() []string {
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.label
	}
	return out
}

// Mark returns a position that ReleaseTo can unwind to.
func (a *Arena) Mark() int { return len(a.entries) }

// ReleaseTo releases everything added after mark, newest first.
func (a *Arena) ReleaseTo(mark int) {
	if mark < 0 {
		mark = 0
	}
	for len(a.entries) > mark {
		last := len(a.entries) - 1
		e := a.entries[last]
		// Clear the slot so the released object can be collected.
		a.entries[last] = entry{}
		a.entries = a.entries[:last]
		a.run(e)
	}
}

// ReleaseAt releases the single entry at index i and removes it. Entries
// after i shift down by one. Out-of-range indexes are ignored.
func (a *Arena) ReleaseAt(i int) {
	if i < 0 || i >= len(a.entries) {
		return
	}
	e := a.entries[i]
	a.entries = slices.Delete(a.entries, i, i+1)
	a.run(e)
}

// Release releases everything, newest first. It is idempotent.
func (a *Arena) Release() {
	a.ReleaseTo(0)
	a.released = true
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool { return a.released }

func (a *Arena) run(e entry) {
	if a.OnRelease != nil {
		a.OnRelease(e.label)
	}
	e.release()
}
