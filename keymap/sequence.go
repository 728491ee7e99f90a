// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: keymap/sequence.go
// Summary: Encodes key presses as the byte sequences an xterm-style
//          terminal writes to the child process.
// Usage: seq := keymap.Sequence(press, vt.AppCursorKeys())
//        if seq != nil { pty.Write(seq) }

package keymap

import (
	"fmt"
	"unicode/utf8"
)

// Sequence returns the bytes a press sends to the child, or nil when
// the press is not terminal input (unknown keys, and Ctrl+Shift rune
// chords which stay free for host shortcuts). appCursor selects the
// SS3 cursor-key encoding that DECCKM enables.
func Sequence(p Press, appCursor bool) []byte {
	switch p.Key {
	case KeyRune:
		return runeSequence(p)
	case KeyEnter:
		return altPrefix(p.Mod, []byte{'\r'})
	case KeyTab:
		if p.Mod.Has(ModShift) {
			return []byte("\x1b[Z")
		}
		return altPrefix(p.Mod, []byte{'\t'})
	case KeyBackspace:
		return altPrefix(p.Mod, []byte{0x7f})
	case KeyEscape:
		return []byte{0x1b}
	case KeyUp:
		return cursorKey('A', p.Mod, appCursor)
	case KeyDown:
		return cursorKey('B', p.Mod, appCursor)
	case KeyRight:
		return cursorKey('C', p.Mod, appCursor)
	case KeyLeft:
		return cursorKey('D', p.Mod, appCursor)
	case KeyHome:
		return cursorKey('H', p.Mod, appCursor)
	case KeyEnd:
		return cursorKey('F', p.Mod, appCursor)
	case KeyPgUp:
		return tildeKey(5, p.Mod)
	case KeyPgDn:
		return tildeKey(6, p.Mod)
	case KeyInsert:
		return tildeKey(2, p.Mod)
	case KeyDelete:
		return tildeKey(3, p.Mod)
	case KeyF1, KeyF2, KeyF3, KeyF4:
		return ss3Key("PQRS"[p.Key-KeyF1], p.Mod)
	case KeyF5:
		return tildeKey(15, p.Mod)
	case KeyF6:
		return tildeKey(17, p.Mod)
	case KeyF7:
		return tildeKey(18, p.Mod)
	case KeyF8:
		return tildeKey(19, p.Mod)
	case KeyF9:
		return tildeKey(20, p.Mod)
	case KeyF10:
		return tildeKey(21, p.Mod)
	case KeyF11:
		return tildeKey(23, p.Mod)
	case KeyF12:
		return tildeKey(24, p.Mod)
	}
	return nil
}

// modParam is the xterm modifier parameter: 1 plus Shift=1, Alt=2,
// Ctrl=4, Meta=8.
func modParam(m Modifier) int {
	n := 1
	if m.Has(ModShift) {
		n++
	}
	if m.Has(ModAlt) {
		n += 2
	}
	if m.Has(ModCtrl) {
		n += 4
	}
	if m.Has(ModMeta) {
		n += 8
	}
	return n
}

func cursorKey(final byte, mod Modifier, app bool) []byte {
	if mod != ModNone {
		return []byte(fmt.Sprintf("\x1b[1;%d%c", modParam(mod), final))
	}
	if app {
		return []byte{0x1b, 'O', final}
	}
	return []byte{0x1b, '[', final}
}

func ss3Key(final byte, mod Modifier) []byte {
	if mod != ModNone {
		return []byte(fmt.Sprintf("\x1b[1;%d%c", modParam(mod), final))
	}
	return []byte{0x1b, 'O', final}
}

func tildeKey(code int, mod Modifier) []byte {
	if mod != ModNone {
		return []byte(fmt.Sprintf("\x1b[%d;%d~", code, modParam(mod)))
	}
	return []byte(fmt.Sprintf("\x1b[%d~", code))
}

func runeSequence(p Press) []byte {
	if p.Mod.Has(ModCtrl | ModShift) {
		return nil
	}
	var payload []byte
	if p.Mod.Has(ModCtrl) {
		b, ok := ctrlByte(p.Rune)
		if !ok {
			return nil
		}
		payload = []byte{b}
	} else {
		payload = utf8.AppendRune(nil, p.Rune)
	}
	return altPrefix(p.Mod, payload)
}

// altPrefix applies the ESC prefix Alt and Meta add to ordinary keys.
func altPrefix(mod Modifier, payload []byte) []byte {
	if mod.Has(ModAlt) || mod.Has(ModMeta) {
		return append([]byte{0x1b}, payload...)
	}
	return payload
}

// ctrlByte maps a rune to its C0 control byte under Ctrl.
func ctrlByte(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= 'A' && r <= 'Z':
		return byte(r-'A') + 1, true
	}
	switch r {
	case ' ', '@':
		return 0x00, true
	case '[':
		return 0x1b, true
	case '\\':
		return 0x1c, true
	case ']':
		return 0x1d, true
	case '^':
		return 0x1e, true
	case '_', '/':
		return 0x1f, true
	case '?':
		return 0x7f, true
	}
	return 0, false
}
