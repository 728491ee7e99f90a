// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/charset.go
// Summary: G0/G1 character set designation and DEC special graphics mapping.

package parser

// charsetID identifies a designated character set.
type charsetID uint8

const (
	charsetASCII charsetID = iota
	charsetGraphics
)

// decGraphics maps the DEC special graphics set (ESC ( 0) onto Unicode
// box-drawing runes. Applications like ncurses draw borders through it.
var decGraphics = map[rune]rune{
	'`': '◆',
	'a': '▒',
	'b': '␉',
	'c': '␌',
	'd': '␍',
	'e': '␊',
	'f': '°',
	'g': '±',
	'h': '␤',
	'i': '␋',
	'j': '┘',
	'k': '┐',
	'l': '┌',
	'm': '└',
	'n': '┼',
	'o': '⎺',
	'p': '⎻',
	'q': '─',
	'r': '⎼',
	's': '⎽',
	't': '├',
	'u': '┤',
	'v': '┴',
	'w': '┬',
	'x': '│',
	'y': '≤',
	'z': '≥',
	'{': 'π',
	'|': '≠',
	'}': '£',
	'~': '·',
}

// designateCharset installs a character set into G0 or G1 from the final
// byte of an ESC ( / ESC ) sequence. Unknown designators fall back to ASCII.
func (v *VTerm) designateCharset(slot int, final rune) {
	cs := charsetASCII
	if final == '0' {
		cs = charsetGraphics
	}
	if slot == 0 {
		v.g0 = cs
	} else {
		v.g1 = cs
	}
}

// mapCharset translates a rune through the active character set.
func (v *VTerm) mapCharset(r rune) rune {
	cs := v.g0
	if v.shifted {
		cs = v.g1
	}
	if cs == charsetGraphics {
		if mapped, ok := decGraphics[r]; ok {
			return mapped
		}
	}
	return r
}
