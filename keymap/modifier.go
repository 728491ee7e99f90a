// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: keymap/modifier.go
// Summary: Modifier bitmask with string round-tripping for chord
//          display and persistence.

package keymap

import "strings"

// Modifier is a bitmask of held modifier keys.
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has reports whether every modifier in mask is set.
func (m Modifier) Has(mask Modifier) bool {
	return m&mask == mask
}

// With returns m with the given modifiers added.
func (m Modifier) With(mask Modifier) Modifier {
	return m | mask
}

// Without returns m with the given modifiers removed.
func (m Modifier) Without(mask Modifier) Modifier {
	return m &^ mask
}

// String renders the set modifiers in canonical order, joined by '+',
// e.g. "Ctrl+Shift". Empty for ModNone.
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}
	parts := make([]string, 0, 4)
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}

// ParseModifiers parses a '+'-joined modifier list as produced by
// String. Unknown names report ok=false.
func ParseModifiers(s string) (Modifier, bool) {
	m := ModNone
	if s == "" {
		return m, true
	}
	for _, part := range strings.Split(s, "+") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "ctrl", "control":
			m = m.With(ModCtrl)
		case "alt", "option":
			m = m.With(ModAlt)
		case "shift":
			m = m.With(ModShift)
		case "meta", "super", "cmd":
			m = m.With(ModMeta)
		default:
			return ModNone, false
		}
	}
	return m, true
}
