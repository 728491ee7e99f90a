// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: keymap/key.go
// Summary: Logical key identifiers independent of any input backend.

package keymap

import "fmt"

// Key identifies a logical key. KeyRune covers every printable
// character; the rest name the editing and function keys terminals
// encode specially.
type Key uint16

const (
	KeyNone Key = iota
	KeyRune
	KeyEnter
	KeyTab
	KeyBackspace
	KeyEscape
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyPgUp
	KeyPgDn
	KeyInsert
	KeyDelete
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keyNames = map[Key]string{
	KeyNone:      "None",
	KeyRune:      "Rune",
	KeyEnter:     "Enter",
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyEscape:    "Escape",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyRight:     "Right",
	KeyLeft:      "Left",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPgUp:      "PgUp",
	KeyPgDn:      "PgDn",
	KeyInsert:    "Insert",
	KeyDelete:    "Delete",
	KeyF1:        "F1",
	KeyF2:        "F2",
	KeyF3:        "F3",
	KeyF4:        "F4",
	KeyF5:        "F5",
	KeyF6:        "F6",
	KeyF7:        "F7",
	KeyF8:        "F8",
	KeyF9:        "F9",
	KeyF10:       "F10",
	KeyF11:       "F11",
	KeyF12:       "F12",
}

// String returns the key's name, "Key(n)" for unknown values.
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", k)
}

// keysByName is the inverse of keyNames, for parsing chord strings.
var keysByName = func() map[string]Key {
	m := make(map[string]Key, len(keyNames))
	for k, name := range keyNames {
		m[name] = k
	}
	return m
}()

// ParseKey resolves a key name like "F3" or "PgUp". Single-character
// names parse as that rune.
func ParseKey(s string) (Key, rune, bool) {
	if k, ok := keysByName[s]; ok {
		return k, 0, true
	}
	runes := []rune(s)
	if len(runes) == 1 {
		return KeyRune, runes[0], true
	}
	return KeyNone, 0, false
}

// IsFunctionKey reports whether k is one of F1 through F12.
func (k Key) IsFunctionKey() bool {
	return k >= KeyF1 && k <= KeyF12
}
