// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/vterm_erase.go
// Summary: ED, EL and ECH erase operations with BCE semantics.

package parser

// EraseInDisplay handles ED. Mode 0 erases from the cursor to the end of
// the screen, 1 from the start to the cursor, 2 the whole screen, 3 the
// scrollback. The cursor does not move.
func (v *VTerm) EraseInDisplay(mode int) {
	switch mode {
	case 0:
		v.clearLineRange(v.cursorY, v.cursorX, v.cols-1)
		if v.cursorY < v.rows-1 {
			v.clearRows(v.cursorY+1, v.rows-1)
		}
	case 1:
		if v.cursorY > 0 {
			v.clearRows(0, v.cursorY-1)
		}
		v.clearLineRange(v.cursorY, 0, v.cursorX)
	case 2:
		v.clearRows(0, v.rows-1)
	case 3:
		v.EraseScrollback()
	}
}

// EraseInLine handles EL. Mode 0 erases cursor to end of line, 1 start
// to cursor, 2 the whole line.
func (v *VTerm) EraseInLine(mode int) {
	switch mode {
	case 0:
		v.clearLineRange(v.cursorY, v.cursorX, v.cols-1)
	case 1:
		v.clearLineRange(v.cursorY, 0, v.cursorX)
	case 2:
		v.clearLineRange(v.cursorY, 0, v.cols-1)
	}
}

// EraseCharacters blanks n cells from the cursor without shifting (ECH).
func (v *VTerm) EraseCharacters(n int) {
	if n < 1 {
		n = 1
	}
	v.clearLineRange(v.cursorY, v.cursorX, min(v.cursorX+n-1, v.cols-1))
}

// clearRows blanks complete rows from top to bottom inclusive.
func (v *VTerm) clearRows(top, bottom int) {
	grid := v.activeGrid()
	for y := top; y <= bottom && y < v.rows; y++ {
		line := grid[y]
		for x := range line {
			line[x] = v.blankCell()
		}
		v.MarkDirty(y)
	}
}

// clearLineRange blanks cells from x0 to x1 inclusive on one row. Wide
// glyphs straddling the range edges are blanked whole, and erasing the
// last column drops the row's wrap continuation.
func (v *VTerm) clearLineRange(y, x0, x1 int) {
	if y < 0 || y >= v.rows {
		return
	}
	line := v.activeGrid()[y]
	x0 = max(x0, 0)
	x1 = min(x1, len(line)-1)
	if x0 > x1 {
		return
	}
	v.clearWideAt(line, x0)
	v.clearWideAt(line, x1)
	for x := x0; x <= x1; x++ {
		line[x] = v.blankCell()
	}
	v.MarkDirty(y)
}
