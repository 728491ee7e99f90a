// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/cell.go
// Summary: Cell, Line, Color and Attribute types - the terminal content model.

package parser

import "strings"

// Attribute is a bitmask of text rendering attributes.
type Attribute uint16

const (
	AttrBold Attribute = 1 << iota
	AttrFaint
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrInvisible
	AttrStrikethrough
)

// String returns a human-readable form like "Bold|Underline", for debugging.
func (a Attribute) String() string {
	if a == 0 {
		return "None"
	}
	names := []struct {
		bit  Attribute
		name string
	}{
		{AttrBold, "Bold"},
		{AttrFaint, "Faint"},
		{AttrItalic, "Italic"},
		{AttrUnderline, "Underline"},
		{AttrBlink, "Blink"},
		{AttrReverse, "Reverse"},
		{AttrInvisible, "Invisible"},
		{AttrStrikethrough, "Strikethrough"},
	}
	var parts []string
	for _, n := range names {
		if a&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ColorMode describes how a Color value is to be interpreted.
type ColorMode uint8

const (
	// ColorModeDefault means the terminal's default foreground/background.
	ColorModeDefault ColorMode = iota
	// ColorModeStandard is one of the 16 base ANSI colors (Value 0-15).
	ColorModeStandard
	// ColorMode256 is an index into the xterm 256-color palette.
	ColorMode256
	// ColorModeRGB is a 24-bit truecolor value in R, G, B.
	ColorModeRGB
)

// Color is a renderer-agnostic color. Equality is plain struct equality,
// so two cells painted the same way compare equal.
type Color struct {
	Mode  ColorMode
	Value uint8
	R     uint8
	G     uint8
	B     uint8
}

// DefaultFG and DefaultBG are the zero colors every cell starts with.
var (
	DefaultFG = Color{Mode: ColorModeDefault}
	DefaultBG = Color{Mode: ColorModeDefault}
)

// Cell is a single character position on screen.
//
// A cell holds one grapheme cluster: the base rune plus any trailing
// combining runes. Wide glyphs occupy two cells; the first carries the
// rune with Wide set, the second is a WideCont spacer with Rune 0.
// Wrapped on the last cell of a row marks that the logical line
// continues on the next row (soft wrap, no newline in the stream).
type Cell struct {
	Rune      rune
	Combining []rune
	FG        Color
	BG        Color
	Attr      Attribute
	Wide      bool
	WideCont  bool
	Wrapped   bool
}

// Cluster returns the cell's full grapheme cluster as a string.
// Empty cells and wide continuations return "".
func (c Cell) Cluster() string {
	if c.Rune == 0 {
		return ""
	}
	if len(c.Combining) == 0 {
		return string(c.Rune)
	}
	var sb strings.Builder
	sb.WriteRune(c.Rune)
	for _, r := range c.Combining {
		sb.WriteRune(r)
	}
	return sb.String()
}

// Clone returns a deep copy of the cell (Combining is not shared).
func (c Cell) Clone() Cell {
	out := c
	if len(c.Combining) > 0 {
		out.Combining = append([]rune(nil), c.Combining...)
	}
	return out
}

// Line is one screen or scrollback row.
type Line []Cell

// Clone returns a deep copy of the line.
func (l Line) Clone() Line {
	out := make(Line, len(l))
	for i, c := range l {
		out[i] = c.Clone()
	}
	return out
}

// Wrapped reports whether the line soft-wraps into the next one.
func (l Line) Wrapped() bool {
	return len(l) > 0 && l[len(l)-1].Wrapped
}

// blankLine builds a width-wide line of spaces in the given colors.
func blankLine(width int, fg, bg Color) Line {
	l := make(Line, width)
	for i := range l {
		l[i] = Cell{Rune: ' ', FG: fg, BG: bg}
	}
	return l
}
