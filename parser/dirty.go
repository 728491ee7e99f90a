// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/dirty.go
// Summary: Dirty-row tracking and content versioning for renderers and caches.

package parser

// dirtyTracker records which visible rows changed since the last render
// and bumps a monotonic version on every content mutation. Renderers poll
// DirtyRows between frames; search results are validated against Version.
type dirtyTracker struct {
	rows    map[int]bool
	all     bool
	version uint64
}

func newDirtyTracker() *dirtyTracker {
	return &dirtyTracker{rows: make(map[int]bool)}
}

func (d *dirtyTracker) markRow(row int) {
	d.version++
	if d.all {
		return
	}
	d.rows[row] = true
}

func (d *dirtyTracker) markAll() {
	d.version++
	d.all = true
}

// MarkDirty flags a single visible row for redraw.
func (v *VTerm) MarkDirty(row int) {
	if row < 0 || row >= v.rows {
		return
	}
	v.dirty.markRow(row)
}

// MarkAllDirty flags the whole screen for redraw.
func (v *VTerm) MarkAllDirty() {
	v.dirty.markAll()
}

// DirtyRows returns the rows that changed since the last ClearDirty.
// A nil slice with AllDirty true means everything changed.
func (v *VTerm) DirtyRows() []int {
	if v.dirty.all {
		return nil
	}
	out := make([]int, 0, len(v.dirty.rows))
	for row := range v.dirty.rows {
		out = append(out, row)
	}
	return out
}

// AllDirty reports whether the whole screen needs a redraw.
func (v *VTerm) AllDirty() bool {
	return v.dirty.all
}

// ClearDirty resets dirty state after a render pass.
func (v *VTerm) ClearDirty() {
	v.dirty.all = false
	for row := range v.dirty.rows {
		delete(v.dirty.rows, row)
	}
}

// ContentVersion increases on every buffer mutation. A snapshot stamped
// with an older version is stale.
func (v *VTerm) ContentVersion() uint64 {
	return v.dirty.version
}
