// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/vterm_sgr.go
// Summary: SGR (Select Graphic Rendition) - text attributes and colors.

package parser

// handleSGR processes SGR parameters: attributes, the 16 base colors,
// 256-color and RGB extended colors. 38/48 accept both the `;` and `:`
// separated forms since the parser folds subparameters in. Unknown
// parameters are skipped without aborting the rest of the sequence.
func (v *VTerm) handleSGR(params []int) {
	i := 0
	if len(params) == 0 {
		params = []int{0}
	}
	for i < len(params) {
		p := params[i]
		switch {
		case p == 0:
			v.ResetAttributes()
		case p == 1:
			v.SetAttribute(AttrBold)
		case p == 2:
			v.SetAttribute(AttrFaint)
		case p == 3:
			v.SetAttribute(AttrItalic)
		case p == 4:
			v.SetAttribute(AttrUnderline)
		case p == 5 || p == 6:
			v.SetAttribute(AttrBlink)
		case p == 7:
			v.SetAttribute(AttrReverse)
		case p == 8:
			v.SetAttribute(AttrInvisible)
		case p == 9:
			v.SetAttribute(AttrStrikethrough)
		case p == 21 || p == 22:
			v.ClearAttribute(AttrBold | AttrFaint)
		case p == 23:
			v.ClearAttribute(AttrItalic)
		case p == 24:
			v.ClearAttribute(AttrUnderline)
		case p == 25:
			v.ClearAttribute(AttrBlink)
		case p == 27:
			v.ClearAttribute(AttrReverse)
		case p == 28:
			v.ClearAttribute(AttrInvisible)
		case p == 29:
			v.ClearAttribute(AttrStrikethrough)
		case p >= 30 && p <= 37:
			v.currentFG = Color{Mode: ColorModeStandard, Value: uint8(p - 30)}
		case p == 38:
			if c, used, ok := extendedColor(params[i+1:]); ok {
				v.currentFG = c
				i += used
			}
		case p == 39:
			v.currentFG = v.defaultFG
		case p >= 40 && p <= 47:
			v.currentBG = Color{Mode: ColorModeStandard, Value: uint8(p - 40)}
		case p == 48:
			if c, used, ok := extendedColor(params[i+1:]); ok {
				v.currentBG = c
				i += used
			}
		case p == 49:
			v.currentBG = v.defaultBG
		case p >= 90 && p <= 97: // bright foreground
			v.currentFG = Color{Mode: ColorModeStandard, Value: uint8(p - 90 + 8)}
		case p >= 100 && p <= 107: // bright background
			v.currentBG = Color{Mode: ColorModeStandard, Value: uint8(p - 100 + 8)}
		}
		i++
	}
}

// extendedColor decodes the tail of an SGR 38/48: `5;n` for the 256-color
// palette, `2;r;g;b` for RGB. Returns the color, how many parameters were
// consumed, and whether the form was recognized.
func extendedColor(rest []int) (Color, int, bool) {
	if len(rest) >= 2 && rest[0] == 5 {
		return Color{Mode: ColorMode256, Value: uint8(clampByte(rest[1]))}, 2, true
	}
	if len(rest) >= 4 && rest[0] == 2 {
		return Color{
			Mode: ColorModeRGB,
			R:    uint8(clampByte(rest[1])),
			G:    uint8(clampByte(rest[2])),
			B:    uint8(clampByte(rest[3])),
		}, 4, true
	}
	return Color{}, 0, false
}

func clampByte(n int) int {
	return min(max(n, 0), 255)
}

// SetAttribute sets a text attribute.
func (v *VTerm) SetAttribute(a Attribute) { v.currentAttr |= a }

// ClearAttribute clears a text attribute.
func (v *VTerm) ClearAttribute(a Attribute) { v.currentAttr &^= a }

// ResetAttributes returns colors and attributes to defaults (SGR 0).
func (v *VTerm) ResetAttributes() {
	v.currentFG = v.defaultFG
	v.currentBG = v.defaultBG
	v.currentAttr = 0
}
