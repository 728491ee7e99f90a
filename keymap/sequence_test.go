// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: keymap/sequence_test.go
// Summary: Byte-exact checks of the press-to-escape-sequence encoding.

package keymap

import (
	"bytes"
	"testing"
)

func TestSequenceEncoding(t *testing.T) {
	tests := []struct {
		name      string
		press     Press
		appCursor bool
		want      []byte
	}{
		{"enter", Press{Key: KeyEnter}, false, []byte("\r")},
		{"tab", Press{Key: KeyTab}, false, []byte("\t")},
		{"shift tab", Press{Key: KeyTab, Mod: ModShift}, false, []byte("\x1b[Z")},
		{"backspace", Press{Key: KeyBackspace}, false, []byte{0x7f}},
		{"escape", Press{Key: KeyEscape}, false, []byte{0x1b}},

		{"up normal", Press{Key: KeyUp}, false, []byte("\x1b[A")},
		{"down normal", Press{Key: KeyDown}, false, []byte("\x1b[B")},
		{"right normal", Press{Key: KeyRight}, false, []byte("\x1b[C")},
		{"left normal", Press{Key: KeyLeft}, false, []byte("\x1b[D")},
		{"up application", Press{Key: KeyUp}, true, []byte("\x1bOA")},
		{"left application", Press{Key: KeyLeft}, true, []byte("\x1bOD")},
		{"shift up", Press{Key: KeyUp, Mod: ModShift}, false, []byte("\x1b[1;2A")},
		{"alt right", Press{Key: KeyRight, Mod: ModAlt}, false, []byte("\x1b[1;3C")},
		{"ctrl left", Press{Key: KeyLeft, Mod: ModCtrl}, false, []byte("\x1b[1;5D")},
		{"ctrl shift down", Press{Key: KeyDown, Mod: ModCtrl | ModShift}, false, []byte("\x1b[1;6B")},
		{"modifiers win over app mode", Press{Key: KeyUp, Mod: ModCtrl}, true, []byte("\x1b[1;5A")},

		{"home", Press{Key: KeyHome}, false, []byte("\x1b[H")},
		{"end", Press{Key: KeyEnd}, false, []byte("\x1b[F")},
		{"home application", Press{Key: KeyHome}, true, []byte("\x1bOH")},
		{"ctrl home", Press{Key: KeyHome, Mod: ModCtrl}, false, []byte("\x1b[1;5H")},
		{"ctrl end", Press{Key: KeyEnd, Mod: ModCtrl}, false, []byte("\x1b[1;5F")},

		{"page up", Press{Key: KeyPgUp}, false, []byte("\x1b[5~")},
		{"page down", Press{Key: KeyPgDn}, false, []byte("\x1b[6~")},
		{"insert", Press{Key: KeyInsert}, false, []byte("\x1b[2~")},
		{"delete", Press{Key: KeyDelete}, false, []byte("\x1b[3~")},
		{"shift delete", Press{Key: KeyDelete, Mod: ModShift}, false, []byte("\x1b[3;2~")},
		{"ctrl page up", Press{Key: KeyPgUp, Mod: ModCtrl}, false, []byte("\x1b[5;5~")},

		{"f1", Press{Key: KeyF1}, false, []byte("\x1bOP")},
		{"f2", Press{Key: KeyF2}, false, []byte("\x1bOQ")},
		{"f3", Press{Key: KeyF3}, false, []byte("\x1bOR")},
		{"f4", Press{Key: KeyF4}, false, []byte("\x1bOS")},
		{"shift f3", Press{Key: KeyF3, Mod: ModShift}, false, []byte("\x1b[1;2R")},
		{"f5", Press{Key: KeyF5}, false, []byte("\x1b[15~")},
		{"f6", Press{Key: KeyF6}, false, []byte("\x1b[17~")},
		{"f7", Press{Key: KeyF7}, false, []byte("\x1b[18~")},
		{"f8", Press{Key: KeyF8}, false, []byte("\x1b[19~")},
		{"f9", Press{Key: KeyF9}, false, []byte("\x1b[20~")},
		{"f10", Press{Key: KeyF10}, false, []byte("\x1b[21~")},
		{"f11", Press{Key: KeyF11}, false, []byte("\x1b[23~")},
		{"f12", Press{Key: KeyF12}, false, []byte("\x1b[24~")},
		{"ctrl f5", Press{Key: KeyF5, Mod: ModCtrl}, false, []byte("\x1b[15;5~")},

		{"plain rune", Press{Key: KeyRune, Rune: 'x'}, false, []byte("x")},
		{"utf8 rune", Press{Key: KeyRune, Rune: 'é'}, false, []byte("é")},
		{"wide rune", Press{Key: KeyRune, Rune: '日'}, false, []byte("日")},
		{"ctrl a", Press{Key: KeyRune, Rune: 'a', Mod: ModCtrl}, false, []byte{0x01}},
		{"ctrl c", Press{Key: KeyRune, Rune: 'c', Mod: ModCtrl}, false, []byte{0x03}},
		{"ctrl d", Press{Key: KeyRune, Rune: 'd', Mod: ModCtrl}, false, []byte{0x04}},
		{"ctrl l", Press{Key: KeyRune, Rune: 'l', Mod: ModCtrl}, false, []byte{0x0c}},
		{"ctrl r", Press{Key: KeyRune, Rune: 'r', Mod: ModCtrl}, false, []byte{0x12}},
		{"ctrl z", Press{Key: KeyRune, Rune: 'z', Mod: ModCtrl}, false, []byte{0x1a}},
		{"ctrl uppercase", Press{Key: KeyRune, Rune: 'C', Mod: ModCtrl}, false, []byte{0x03}},
		{"ctrl space", Press{Key: KeyRune, Rune: ' ', Mod: ModCtrl}, false, []byte{0x00}},
		{"ctrl at", Press{Key: KeyRune, Rune: '@', Mod: ModCtrl}, false, []byte{0x00}},
		{"ctrl bracket", Press{Key: KeyRune, Rune: '[', Mod: ModCtrl}, false, []byte{0x1b}},
		{"ctrl backslash", Press{Key: KeyRune, Rune: '\\', Mod: ModCtrl}, false, []byte{0x1c}},
		{"ctrl close bracket", Press{Key: KeyRune, Rune: ']', Mod: ModCtrl}, false, []byte{0x1d}},
		{"ctrl caret", Press{Key: KeyRune, Rune: '^', Mod: ModCtrl}, false, []byte{0x1e}},
		{"ctrl underscore", Press{Key: KeyRune, Rune: '_', Mod: ModCtrl}, false, []byte{0x1f}},
		{"ctrl slash", Press{Key: KeyRune, Rune: '/', Mod: ModCtrl}, false, []byte{0x1f}},

		{"alt rune", Press{Key: KeyRune, Rune: 'f', Mod: ModAlt}, false, []byte{0x1b, 'f'}},
		{"alt ctrl rune", Press{Key: KeyRune, Rune: 'b', Mod: ModAlt | ModCtrl}, false, []byte{0x1b, 0x02}},
		{"alt enter", Press{Key: KeyEnter, Mod: ModAlt}, false, []byte{0x1b, '\r'}},
		{"alt backspace", Press{Key: KeyBackspace, Mod: ModAlt}, false, []byte{0x1b, 0x7f}},

		{"ctrl shift rune reserved", Press{Key: KeyRune, Rune: 'c', Mod: ModCtrl | ModShift}, false, nil},
		{"ctrl shift v reserved", Press{Key: KeyRune, Rune: 'v', Mod: ModCtrl | ModShift}, false, nil},
		{"ctrl shift f reserved", Press{Key: KeyRune, Rune: 'f', Mod: ModCtrl | ModShift}, false, nil},
		{"ctrl digit unmapped", Press{Key: KeyRune, Rune: '1', Mod: ModCtrl}, false, nil},
		{"no key", Press{Key: KeyNone}, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sequence(tt.press, tt.appCursor)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Sequence(%v, app=%v) = %q, want %q", tt.press, tt.appCursor, got, tt.want)
			}
		})
	}
}

func TestSequenceNilMeansNotTerminalInput(t *testing.T) {
	// Chords the host keeps for itself must come back nil, not as an
	// empty-but-present sequence the caller would still write.
	for _, p := range []Press{
		{Key: KeyRune, Rune: 'c', Mod: ModCtrl | ModShift},
		{Key: KeyRune, Rune: '=', Mod: ModCtrl},
		{Key: KeyNone, Mod: ModCtrl},
	} {
		if got := Sequence(p, false); got != nil {
			t.Errorf("Sequence(%v) = %q, want nil", p, got)
		}
	}
}

func TestIsWordChar(t *testing.T) {
	for _, r := range []rune{'a', 'Z', '0', '9', '_', '-', 'é', '日'} {
		if !IsWordChar(r) {
			t.Errorf("IsWordChar(%q) = false, want true", r)
		}
	}
	for _, r := range []rune{' ', '\t', '.', '/', ':', '(', '"'} {
		if IsWordChar(r) {
			t.Errorf("IsWordChar(%q) = true, want false", r)
		}
	}
}
