// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: shortcut/chord.go
// Summary: Key chord value type with display and parse round-trip.

package shortcut

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/framegrace/texelterm/keymap"
)

// Chord is a modifier set plus one key, the unit a binding matches
// against. The zero value is the empty chord.
type Chord struct {
	Key  keymap.Key
	Rune rune
	Mod  keymap.Modifier
}

// FromPress converts a decoded key press into a normalized chord.
func FromPress(p keymap.Press) Chord {
	return Chord{Key: p.Key, Rune: p.Rune, Mod: p.Mod}.normalized()
}

// IsEmpty reports whether the chord carries no key at all.
func (c Chord) IsEmpty() bool {
	return c.Key == keymap.KeyNone || (c.Key == keymap.KeyRune && c.Rune == 0)
}

// normalized upper-cases the rune so "Ctrl+Shift+c" and
// "Ctrl+Shift+C" are the same map key.
func (c Chord) normalized() Chord {
	if c.Key == keymap.KeyRune {
		c.Rune = unicode.ToUpper(c.Rune)
	} else {
		c.Rune = 0
	}
	return c
}

// String renders the chord in "Ctrl+Shift+C" form. The '+' rune
// renders as "Plus" so the notation stays parseable.
func (c Chord) String() string {
	var b strings.Builder
	if mods := c.Mod.String(); mods != "" {
		b.WriteString(mods)
		b.WriteByte('+')
	}
	if c.Key == keymap.KeyRune {
		if c.Rune == '+' {
			b.WriteString("Plus")
		} else {
			b.WriteRune(unicode.ToUpper(c.Rune))
		}
	} else {
		b.WriteString(c.Key.String())
	}
	return b.String()
}

// ParseChord parses the String notation back into a chord.
func ParseChord(s string) (Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chord{}, ErrEmptyChord
	}
	parts := strings.Split(s, "+")
	keyPart := parts[len(parts)-1]
	modParts := parts[:len(parts)-1]
	// "Ctrl++" splits into a trailing empty token.
	if keyPart == "" && len(modParts) > 0 {
		keyPart = "+"
		modParts = modParts[:len(modParts)-1]
	}

	mod, ok := keymap.ParseModifiers(strings.Join(modParts, "+"))
	if !ok {
		return Chord{}, fmt.Errorf("chord %q: unknown modifier", s)
	}
	if keyPart == "Plus" {
		return Chord{Key: keymap.KeyRune, Rune: '+', Mod: mod}, nil
	}
	key, r, ok := keymap.ParseKey(keyPart)
	if !ok || key == keymap.KeyNone {
		return Chord{}, fmt.Errorf("chord %q: unknown key %q", s, keyPart)
	}
	return Chord{Key: key, Rune: r, Mod: mod}.normalized(), nil
}
