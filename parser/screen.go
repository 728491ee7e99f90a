// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/screen.go
// Summary: Screen geometry, viewport scrolling, resize reflow and snapshots.

package parser

// Cols returns the screen width in cells.
func (v *VTerm) Cols() int { return v.cols }

// Rows returns the screen height in cells.
func (v *VTerm) Rows() int { return v.rows }

// Cursor returns the zero-based cursor position.
func (v *VTerm) Cursor() (x, y int) { return v.cursorX, v.cursorY }

// CursorVisible reports DECTCEM state.
func (v *VTerm) CursorVisible() bool { return v.cursorVisible }

// Title returns the last OSC 0/2 window title.
func (v *VTerm) Title() string { return v.title }

// CWD returns the shell's working directory as reported via OSC 7,
// empty until the shell reports one.
func (v *VTerm) CWD() string { return v.cwd }

// InAltScreen reports whether the alternate screen is on display.
func (v *VTerm) InAltScreen() bool { return v.inAlt }

// AppCursorKeys reports DECCKM state; hosts consult it to encode arrows.
func (v *VTerm) AppCursorKeys() bool { return v.appCursorKeys }

// BracketedPaste reports whether pasted text should be bracketed.
func (v *VTerm) BracketedPaste() bool { return v.bracketedPaste }

// ReverseVideo reports DECSCNM state.
func (v *VTerm) ReverseVideo() bool { return v.reverseVideo }

// ScrollbackLen returns the number of retained scrollback lines.
func (v *VTerm) ScrollbackLen() int { return v.scrollback.Len() }

// MaxScrollback returns the scrollback cap.
func (v *VTerm) MaxScrollback() int { return v.scrollback.Max() }

// TotalLines is the addressable line count: scrollback plus the primary
// screen. Absolute indexes are stable until eviction shifts the window.
func (v *VTerm) TotalLines() int { return v.scrollback.Len() + v.rows }

// AbsLine returns the line at an absolute index, 0 being the oldest
// scrollback line. Indexes past scrollback address the primary screen.
// Out of range returns nil. The returned line is shared, not a copy.
func (v *VTerm) AbsLine(i int) Line {
	sbLen := v.scrollback.Len()
	if i < 0 {
		return nil
	}
	if i < sbLen {
		return v.scrollback.Get(i)
	}
	if i < sbLen+v.rows {
		return v.screen[i-sbLen]
	}
	return nil
}

// VisibleLine returns the line shown on display row y, accounting for
// the viewport offset. On the alternate screen the offset is always zero.
func (v *VTerm) VisibleLine(y int) Line {
	if y < 0 || y >= v.rows {
		return nil
	}
	if v.inAlt {
		return v.alt[y]
	}
	if v.viewOffset == 0 {
		return v.screen[y]
	}
	return v.AbsLine(v.scrollback.Len() - v.viewOffset + y)
}

// CellAt returns the cell at display coordinates, honoring the viewport.
func (v *VTerm) CellAt(x, y int) Cell {
	line := v.VisibleLine(y)
	if line == nil || x < 0 || x >= len(line) {
		return Cell{Rune: ' ', FG: v.defaultFG, BG: v.defaultBG}
	}
	return line[x]
}

// ViewOffset returns how many lines the viewport is scrolled back.
// Zero means live view.
func (v *VTerm) ViewOffset() int { return v.viewOffset }

// ScrollView scrolls the viewport by delta lines, positive toward older
// content. No effect on the alternate screen.
func (v *VTerm) ScrollView(delta int) {
	if v.inAlt {
		return
	}
	v.viewOffset = min(max(v.viewOffset+delta, 0), v.scrollback.Len())
	v.MarkAllDirty()
}

// ScrollToTop jumps the viewport to the oldest retained line.
func (v *VTerm) ScrollToTop() {
	if v.inAlt {
		return
	}
	v.viewOffset = v.scrollback.Len()
	v.MarkAllDirty()
}

// ScrollToLive returns the viewport to the live screen.
func (v *VTerm) ScrollToLive() {
	if v.viewOffset == 0 {
		return
	}
	v.viewOffset = 0
	v.MarkAllDirty()
}

// pushScrollback moves a line evicted from the primary screen into the
// ring. A scrolled-back viewport stays anchored on the same content.
func (v *VTerm) pushScrollback(l Line) {
	evicted := v.scrollback.Push(l)
	if v.viewOffset > 0 && !evicted && v.viewOffset < v.scrollback.Len() {
		v.viewOffset++
	}
}

// EraseScrollback drops all scrollback (ED 3) and snaps to live view.
func (v *VTerm) EraseScrollback() {
	v.scrollback.Clear()
	v.viewOffset = 0
	v.MarkAllDirty()
}

// Snapshot is a deep copy of the visible screen for renderers.
type Snapshot struct {
	Cols, Rows       int
	Lines            []Line
	CursorX, CursorY int
	CursorVisible    bool
	ReverseVideo     bool
	Title            string
	ViewOffset       int
	Version          uint64
}

// Snapshot copies what is currently on display. Callers own the result.
func (v *VTerm) Snapshot() *Snapshot {
	s := &Snapshot{
		Cols:          v.cols,
		Rows:          v.rows,
		Lines:         make([]Line, v.rows),
		CursorX:       v.cursorX,
		CursorY:       v.cursorY,
		CursorVisible: v.cursorVisible && v.viewOffset == 0,
		ReverseVideo:  v.reverseVideo,
		Title:         v.title,
		ViewOffset:    v.viewOffset,
		Version:       v.dirty.version,
	}
	for y := 0; y < v.rows; y++ {
		line := v.VisibleLine(y)
		if line == nil {
			line = blankLine(v.cols, v.defaultFG, v.defaultBG)
		}
		s.Lines[y] = line.Clone()
	}
	return s
}

// HistorySnapshot is a deep copy of scrollback plus the primary screen,
// the search domain. Alternate-screen content is transient and excluded.
type HistorySnapshot struct {
	Cols          int
	ScrollbackLen int
	Lines         []Line
	Version       uint64
}

// HistorySnapshot copies every addressable line. Callers own the result.
func (v *VTerm) HistorySnapshot() *HistorySnapshot {
	total := v.TotalLines()
	s := &HistorySnapshot{
		Cols:          v.cols,
		ScrollbackLen: v.scrollback.Len(),
		Lines:         make([]Line, total),
		Version:       v.dirty.version,
	}
	for i := 0; i < total; i++ {
		s.Lines[i] = v.AbsLine(i).Clone()
	}
	return s
}

// Resize changes the screen to cols x rows. Primary content reflows:
// soft-wrapped logical lines re-wrap to the new width, spilling into or
// pulling back from scrollback as needed. The alternate screen is clipped
// or padded; full-screen applications repaint on the size change anyway.
func (v *VTerm) Resize(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	if cols == v.cols && rows == v.rows {
		return
	}

	logical, cursorLine, cursorOffset := v.unwrapPrimary()

	oldCols := v.cols
	v.cols, v.rows = cols, rows

	if v.alt != nil {
		v.alt = clipGrid(v.alt, oldCols, cols, rows, v.defaultFG, v.defaultBG)
	}
	altX, altY := v.cursorX, v.cursorY
	v.reflowPrimary(logical, cursorLine, cursorOffset)
	if v.inAlt {
		// The live cursor belongs to the alternate screen; reflow only
		// repositioned the primary one underneath.
		v.cursorX = min(altX, cols-1)
		v.cursorY = min(altY, rows-1)
	}

	v.marginTop, v.marginBottom = 0, rows-1
	v.resetTabStops()
	v.viewOffset = 0
	v.wrapNext = false
	v.lastValid = false
	v.MarkAllDirty()
}

// logicalLine is a transient reflow representation: the joined cells of
// one soft-wrapped run.
type logicalLine struct {
	cells []Cell
}

// unwrapPrimary joins scrollback and primary screen rows into logical
// lines, following the Wrapped continuation flags, and locates the cursor
// as a (line, cell offset) pair within them.
func (v *VTerm) unwrapPrimary() (lines []logicalLine, cursorLine, cursorOffset int) {
	total := v.TotalLines()
	cursorAbs := v.scrollback.Len() + v.cursorY

	current := logicalLine{}
	for i := 0; i < total; i++ {
		row := v.AbsLine(i)
		if i == cursorAbs {
			cursorLine = len(lines)
			cursorOffset = len(current.cells) + min(v.cursorX, len(row))
		}
		wrapped := row.Wrapped()
		cells := append([]Cell(nil), row...)
		if wrapped {
			cells[len(cells)-1].Wrapped = false
		} else {
			keep := 0
			if i == cursorAbs {
				keep = min(v.cursorX, len(row))
			}
			cells = trimTrailingBlanks(cells, keep)
		}
		current.cells = append(current.cells, cells...)
		if !wrapped {
			lines = append(lines, current)
			current = logicalLine{}
		}
	}
	if len(current.cells) > 0 {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		lines = []logicalLine{{}}
	}
	if cursorLine >= len(lines) {
		cursorLine = len(lines) - 1
		cursorOffset = len(lines[cursorLine].cells)
	}
	return lines, cursorLine, cursorOffset
}

// trimTrailingBlanks drops unpainted padding from the end of a completed
// line, never below keep cells so the cursor column survives reflow.
// Cells carrying a background or attributes survive too.
func trimTrailingBlanks(cells []Cell, keep int) []Cell {
	end := len(cells)
	for end > keep {
		c := cells[end-1]
		if c.Rune == ' ' && c.Attr == 0 && c.BG.Mode == ColorModeDefault && len(c.Combining) == 0 {
			end--
			continue
		}
		break
	}
	return cells[:end]
}

// reflowPrimary re-wraps logical lines at the current width and
// redistributes the physical rows between scrollback and screen, placing
// the cursor on the row its cell landed on.
func (v *VTerm) reflowPrimary(logical []logicalLine, cursorLine, cursorOffset int) {
	var phys []Line
	cursorPhys, cursorCol := 0, 0

	for li, ll := range logical {
		rows, cr, cc := v.wrapCells(ll.cells, cursorOffset, li == cursorLine)
		if li == cursorLine {
			cursorPhys = len(phys) + cr
			cursorCol = cc
		}
		phys = append(phys, rows...)
	}

	v.scrollback = newScrollbackRing(v.scrollback.Max())
	overflow := 0
	if len(phys) > v.rows {
		overflow = len(phys) - v.rows
		for i := 0; i < overflow; i++ {
			v.scrollback.Push(phys[i])
		}
	}

	v.screen = make([]Line, v.rows)
	for y := 0; y < v.rows; y++ {
		if overflow+y < len(phys) {
			v.screen[y] = phys[overflow+y]
		} else {
			v.screen[y] = blankLine(v.cols, v.defaultFG, v.defaultBG)
		}
	}

	v.cursorY = min(max(cursorPhys-overflow, 0), v.rows-1)
	v.cursorX = min(max(cursorCol, 0), v.cols-1)
}

// wrapCells splits one logical line into width-sized rows, keeping wide
// pairs together and flagging every row but the last as wrapped. When
// trackCursor is set it also reports which row and column the given cell
// offset lands on.
func (v *VTerm) wrapCells(cells []Cell, cursorOffset int, trackCursor bool) (rows []Line, cursorRow, cursorCol int) {
	width := v.cols
	idx := 0
	for {
		row := make(Line, 0, width)
		for idx < len(cells) && len(row) < width {
			c := cells[idx]
			if c.Wide && len(row) == width-1 {
				// Wide pair will not fit; pad and break to the next row.
				row = append(row, Cell{Rune: ' ', FG: v.defaultFG, BG: v.defaultBG})
				break
			}
			if trackCursor && idx == cursorOffset {
				cursorRow, cursorCol = len(rows), len(row)
			}
			row = append(row, c)
			idx++
		}
		if trackCursor && cursorOffset >= len(cells) && idx >= len(cells) {
			cursorRow, cursorCol = len(rows), min(len(row), width-1)
			trackCursor = false
		}
		done := idx >= len(cells)
		for len(row) < width {
			row = append(row, Cell{Rune: ' ', FG: v.defaultFG, BG: v.defaultBG})
		}
		if !done {
			row[width-1].Wrapped = true
		} else {
			row[width-1].Wrapped = false
		}
		rows = append(rows, row)
		if done {
			return rows, cursorRow, cursorCol
		}
	}
}

// clipGrid resizes a grid without reflow: rows are clipped or padded on
// the right, the grid truncated or extended at the bottom.
func clipGrid(grid []Line, oldCols, cols, rows int, fg, bg Color) []Line {
	out := make([]Line, rows)
	for y := 0; y < rows; y++ {
		if y < len(grid) {
			line := grid[y]
			if cols <= oldCols {
				out[y] = line[:cols].Clone()
			} else {
				padded := line.Clone()
				for len(padded) < cols {
					padded = append(padded, Cell{Rune: ' ', FG: fg, BG: bg})
				}
				out[y] = padded
			}
		} else {
			out[y] = blankLine(cols, fg, bg)
		}
	}
	return out
}
