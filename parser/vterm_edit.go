// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/vterm_edit.go
// Summary: Line and character insert/delete, region scrolling.

package parser

// scrollRegionUp moves content in rows [top, bottom] up by n, filling
// with blanks at the bottom. When pushHistory is set and the region spans
// the full primary screen, evicted top lines enter scrollback; in every
// other case they are discarded. Alternate-screen lines never enter
// scrollback.
func (v *VTerm) scrollRegionUp(top, bottom, n int, pushHistory bool) {
	if n <= 0 || top < 0 || bottom >= v.rows || top > bottom {
		return
	}
	span := bottom - top + 1
	if n > span {
		n = span
	}
	grid := v.activeGrid()
	keepHistory := pushHistory && !v.inAlt && top == 0 && bottom == v.rows-1
	for i := 0; i < n; i++ {
		if keepHistory {
			v.pushScrollback(grid[top])
		}
		copy(grid[top:bottom], grid[top+1:bottom+1])
		grid[bottom] = blankLine(v.cols, v.defaultFG, v.currentBG)
	}
	v.lastValid = false
	v.MarkAllDirty()
}

// scrollRegionDown moves content in rows [top, bottom] down by n,
// filling with blanks at the top. Lines pushed past the bottom are lost.
func (v *VTerm) scrollRegionDown(top, bottom, n int) {
	if n <= 0 || top < 0 || bottom >= v.rows || top > bottom {
		return
	}
	span := bottom - top + 1
	if n > span {
		n = span
	}
	grid := v.activeGrid()
	for i := 0; i < n; i++ {
		copy(grid[top+1:bottom+1], grid[top:bottom])
		grid[top] = blankLine(v.cols, v.defaultFG, v.currentBG)
	}
	v.lastValid = false
	v.MarkAllDirty()
}

// InsertLines inserts n blank lines at the cursor row (IL), pushing the
// rows below toward the bottom margin. Outside the scroll region it does
// nothing. The cursor moves to column zero.
func (v *VTerm) InsertLines(n int) {
	if v.cursorY < v.marginTop || v.cursorY > v.marginBottom {
		return
	}
	v.scrollRegionDown(v.cursorY, v.marginBottom, n)
	v.cursorX = 0
	v.wrapNext = false
}

// DeleteLines removes n lines at the cursor row (DL), pulling the rows
// below up and filling with blanks at the bottom margin. Outside the
// scroll region it does nothing. The cursor moves to column zero.
func (v *VTerm) DeleteLines(n int) {
	if v.cursorY < v.marginTop || v.cursorY > v.marginBottom {
		return
	}
	v.scrollRegionUp(v.cursorY, v.marginBottom, n, false)
	v.cursorX = 0
	v.wrapNext = false
}

// InsertCharacters inserts n blanks at the cursor (ICH), shifting the
// rest of the row right. Cells pushed past the edge are lost.
func (v *VTerm) InsertCharacters(n int) {
	if n < 1 {
		n = 1
	}
	line := v.activeGrid()[v.cursorY]
	v.clearWideAt(line, v.cursorX)
	v.insertCells(line, v.cursorX, min(n, v.cols-v.cursorX))
	line[len(line)-1].Wrapped = false
	v.MarkDirty(v.cursorY)
}

// DeleteCharacters removes n cells at the cursor (DCH), shifting the
// rest of the row left and blank-filling the tail.
func (v *VTerm) DeleteCharacters(n int) {
	if n < 1 {
		n = 1
	}
	line := v.activeGrid()[v.cursorY]
	n = min(n, v.cols-v.cursorX)
	v.clearWideAt(line, v.cursorX)
	v.clearWideAt(line, min(v.cursorX+n, v.cols-1))
	copy(line[v.cursorX:], line[v.cursorX+n:])
	for x := v.cols - n; x < v.cols; x++ {
		line[x] = v.blankCell()
	}
	v.MarkDirty(v.cursorY)
}
