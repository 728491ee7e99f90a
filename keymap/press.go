// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: keymap/press.go
// Summary: Backend-neutral key press record and the tcell adapter.

package keymap

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Press is a single decoded key press. Rune is meaningful only when
// Key is KeyRune.
type Press struct {
	Key  Key
	Rune rune
	Mod  Modifier
}

// String renders the press in chord notation, e.g. "Ctrl+Shift+F" or
// "PgUp".
func (p Press) String() string {
	var b strings.Builder
	if mods := p.Mod.String(); mods != "" {
		b.WriteString(mods)
		b.WriteByte('+')
	}
	if p.Key == KeyRune {
		b.WriteRune(normalizeChordRune(p.Rune))
	} else {
		b.WriteString(p.Key.String())
	}
	return b.String()
}

// normalizeChordRune upper-cases letters so "Ctrl+c" and "Ctrl+C"
// name the same chord.
func normalizeChordRune(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

// FromTcellEvent converts a tcell key event into a Press. Unknown
// keys come back as KeyNone.
func FromTcellEvent(ev *tcell.EventKey) Press {
	mod := ModNone
	tm := ev.Modifiers()
	if tm&tcell.ModShift != 0 {
		mod = mod.With(ModShift)
	}
	if tm&tcell.ModCtrl != 0 {
		mod = mod.With(ModCtrl)
	}
	if tm&tcell.ModAlt != 0 {
		mod = mod.With(ModAlt)
	}
	if tm&tcell.ModMeta != 0 {
		mod = mod.With(ModMeta)
	}

	key := ev.Key()
	switch key {
	case tcell.KeyRune:
		return Press{Key: KeyRune, Rune: ev.Rune(), Mod: mod}
	case tcell.KeyEnter:
		return Press{Key: KeyEnter, Mod: mod}
	case tcell.KeyTab:
		return Press{Key: KeyTab, Mod: mod}
	case tcell.KeyBacktab:
		return Press{Key: KeyTab, Mod: mod.With(ModShift)}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return Press{Key: KeyBackspace, Mod: mod}
	case tcell.KeyEsc:
		return Press{Key: KeyEscape, Mod: mod}
	case tcell.KeyUp:
		return Press{Key: KeyUp, Mod: mod}
	case tcell.KeyDown:
		return Press{Key: KeyDown, Mod: mod}
	case tcell.KeyRight:
		return Press{Key: KeyRight, Mod: mod}
	case tcell.KeyLeft:
		return Press{Key: KeyLeft, Mod: mod}
	case tcell.KeyHome:
		return Press{Key: KeyHome, Mod: mod}
	case tcell.KeyEnd:
		return Press{Key: KeyEnd, Mod: mod}
	case tcell.KeyPgUp:
		return Press{Key: KeyPgUp, Mod: mod}
	case tcell.KeyPgDn:
		return Press{Key: KeyPgDn, Mod: mod}
	case tcell.KeyInsert:
		return Press{Key: KeyInsert, Mod: mod}
	case tcell.KeyDelete:
		return Press{Key: KeyDelete, Mod: mod}
	case tcell.KeyF1, tcell.KeyF2, tcell.KeyF3, tcell.KeyF4,
		tcell.KeyF5, tcell.KeyF6, tcell.KeyF7, tcell.KeyF8,
		tcell.KeyF9, tcell.KeyF10, tcell.KeyF11, tcell.KeyF12:
		return Press{Key: KeyF1 + Key(key-tcell.KeyF1), Mod: mod}
	}

	// tcell reports Ctrl+letter as dedicated control-key codes. Named
	// keys that share a control code (Enter, Tab, Backspace, Escape)
	// were already taken above.
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		return Press{Key: KeyRune, Rune: 'a' + rune(key-tcell.KeyCtrlA), Mod: mod.With(ModCtrl)}
	}
	switch key {
	case tcell.KeyCtrlSpace:
		return Press{Key: KeyRune, Rune: ' ', Mod: mod.With(ModCtrl)}
	case tcell.KeyCtrlBackslash:
		return Press{Key: KeyRune, Rune: '\\', Mod: mod.With(ModCtrl)}
	case tcell.KeyCtrlRightSq:
		return Press{Key: KeyRune, Rune: ']', Mod: mod.With(ModCtrl)}
	case tcell.KeyCtrlCarat:
		return Press{Key: KeyRune, Rune: '^', Mod: mod.With(ModCtrl)}
	case tcell.KeyCtrlUnderscore:
		return Press{Key: KeyRune, Rune: '_', Mod: mod.With(ModCtrl)}
	}
	return Press{Key: KeyNone, Mod: mod}
}
