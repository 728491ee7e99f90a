// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/vterm.go
// Summary: Core VTerm state - grids, cursor, character placement, scrolling.
// Usage: Create with NewVTerm, feed it through a Parser, render from snapshots.

package parser

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// DefaultMaxScrollback is the scrollback line cap used unless
// WithMaxScrollback overrides it.
const DefaultMaxScrollback = 10000

// savedCursor is the state captured by DECSC and restored by DECRC.
// Each screen (primary, alternate) keeps its own.
type savedCursor struct {
	x, y       int
	fg, bg     Color
	attr       Attribute
	originMode bool
	g0, g1     charsetID
	shifted    bool
	valid      bool
}

// VTerm models a single terminal: the primary and alternate screens, the
// scrollback ring, cursor and attribute state, and the mode flags escape
// sequences toggle.
//
// VTerm is not internally locked. The interpreter goroutine is the sole
// writer; hosts serialize access and hand read-only copies to renderers
// via Snapshot and HistorySnapshot.
type VTerm struct {
	cols, rows int

	screen []Line
	alt    []Line
	inAlt  bool

	scrollback *scrollbackRing

	cursorX, cursorY int
	wrapNext         bool

	savedPrimary savedCursor
	savedAlt     savedCursor

	currentFG, currentBG Color
	currentAttr          Attribute
	defaultFG, defaultBG Color

	appCursorKeys  bool
	appKeypad      bool
	originMode     bool
	autoWrap       bool
	insertMode     bool
	newlineMode    bool
	cursorVisible  bool
	reverseVideo   bool
	bracketedPaste bool

	marginTop, marginBottom int

	tabStops map[int]bool

	g0, g1  charsetID
	shifted bool

	viewOffset int

	dirty *dirtyTracker

	// last printed cell, for combining marks and REP
	lastX, lastY int
	lastValid    bool
	lastRune     rune

	title string
	cwd   string

	// Respond writes reply sequences (DSR, DA, OSC queries) back toward
	// the application, normally into the PTY.
	Respond func([]byte)

	OnTitleChange          func(string)
	OnBell                 func()
	OnCWDChange            func(string)
	OnClipboardWrite       func(string)
	OnBracketedPasteChange func(bool)

	// Shell integration marks (OSC 133).
	OnPromptStart  func()
	OnInputStart   func()
	OnCommandStart func()
	OnCommandEnd   func(exitCode int)

	// OnLineCommit fires when a hard newline completes a logical line on
	// the primary screen. The slice holds the soft-wrapped rows of that
	// line, oldest first; callbacks may recolor cells in place.
	OnLineCommit func(rows []Line)
}

// Option configures a VTerm at construction time.
type Option func(*VTerm)

// WithMaxScrollback sets the scrollback line cap. Zero disables scrollback.
func WithMaxScrollback(n int) Option {
	return func(v *VTerm) {
		v.scrollback = newScrollbackRing(n)
	}
}

// WithRespond sets the reply writer for sequences that answer back.
func WithRespond(fn func([]byte)) Option {
	return func(v *VTerm) {
		v.Respond = fn
	}
}

// NewVTerm creates a terminal of the given size with empty scrollback.
func NewVTerm(cols, rows int, opts ...Option) *VTerm {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	v := &VTerm{
		cols:          cols,
		rows:          rows,
		scrollback:    newScrollbackRing(DefaultMaxScrollback),
		currentFG:     DefaultFG,
		currentBG:     DefaultBG,
		defaultFG:     DefaultFG,
		defaultBG:     DefaultBG,
		autoWrap:      true,
		cursorVisible: true,
		marginBottom:  rows - 1,
		dirty:         newDirtyTracker(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.screen = v.newGrid()
	v.resetTabStops()
	v.dirty.markAll()
	return v
}

func (v *VTerm) newGrid() []Line {
	grid := make([]Line, v.rows)
	for i := range grid {
		grid[i] = blankLine(v.cols, v.defaultFG, v.defaultBG)
	}
	return grid
}

// activeGrid returns the grid currently on display.
func (v *VTerm) activeGrid() []Line {
	if v.inAlt {
		return v.alt
	}
	return v.screen
}

// blankCell is the erased-cell value: a space in the current background
// (BCE) with default attributes.
func (v *VTerm) blankCell() Cell {
	return Cell{Rune: ' ', FG: v.defaultFG, BG: v.currentBG}
}

func (v *VTerm) respond(b []byte) {
	if v.Respond != nil {
		v.Respond(b)
	}
}

// placeChar writes one printable rune at the cursor and advances it,
// handling deferred wrap, wide glyphs, combining marks and insert mode.
func (v *VTerm) placeChar(r rune) {
	r = v.mapCharset(r)
	w := runewidth.RuneWidth(r)
	if w == 0 {
		v.combineWithLast(r)
		return
	}
	if w > 2 {
		w = 2
	}

	if v.wrapNext && v.autoWrap {
		v.wrapLine()
	}

	// A wide glyph that no longer fits on this row wraps early; the
	// abandoned last column becomes a blank continuation of the line.
	if w == 2 && v.cursorX == v.cols-1 {
		if v.autoWrap {
			row := v.activeGrid()[v.cursorY]
			v.clearWideAt(row, v.cursorX)
			row[v.cursorX] = v.blankCell()
			v.wrapLine()
		} else {
			v.cursorX = v.cols - 2
		}
	}

	row := v.activeGrid()[v.cursorY]
	if v.insertMode {
		v.insertCells(row, v.cursorX, w)
	}

	v.clearWideAt(row, v.cursorX)
	row[v.cursorX] = Cell{Rune: r, FG: v.currentFG, BG: v.currentBG, Attr: v.currentAttr, Wide: w == 2}
	v.lastX, v.lastY = v.cursorX, v.cursorY
	v.lastValid = true
	v.lastRune = r

	if w == 2 && v.cursorX+1 < v.cols {
		v.clearWideAt(row, v.cursorX+1)
		row[v.cursorX+1] = Cell{FG: v.currentFG, BG: v.currentBG, Attr: v.currentAttr, WideCont: true}
	}

	if v.cursorX+w >= v.cols {
		if v.autoWrap {
			v.cursorX = v.cols - 1
			v.wrapNext = true
		} else {
			v.cursorX = v.cols - 1
		}
	} else {
		v.cursorX += w
	}
	v.MarkDirty(v.cursorY)
}

// combineWithLast appends a zero-width rune to the most recently printed
// cell when the result is still a single grapheme cluster. Stray marks
// with no base are dropped.
func (v *VTerm) combineWithLast(r rune) {
	if !v.lastValid {
		return
	}
	cell := &v.activeGrid()[v.lastY][v.lastX]
	if cell.Rune == 0 {
		return
	}
	if uniseg.GraphemeClusterCount(cell.Cluster()+string(r)) != 1 {
		return
	}
	cell.Combining = append(cell.Combining, r)
	v.MarkDirty(v.lastY)
}

// clearWideAt blanks both halves of a wide glyph when position x holds
// either one, so edits never leave an orphan half behind.
func (v *VTerm) clearWideAt(row Line, x int) {
	if x < 0 || x >= len(row) {
		return
	}
	if row[x].WideCont {
		if x > 0 && row[x-1].Wide {
			row[x-1] = v.blankCell()
		}
		row[x] = v.blankCell()
	}
	if row[x].Wide {
		if x+1 < len(row) && row[x+1].WideCont {
			row[x+1] = v.blankCell()
		}
		row[x] = v.blankCell()
	}
}

// insertCells shifts row cells right by n starting at x. Cells pushed past
// the right edge are lost.
func (v *VTerm) insertCells(row Line, x, n int) {
	if n <= 0 || x >= len(row) {
		return
	}
	copy(row[x+n:], row[x:])
	for i := x; i < x+n && i < len(row); i++ {
		row[i] = v.blankCell()
	}
}

// wrapLine finishes the current row as a soft wrap and moves to the next.
func (v *VTerm) wrapLine() {
	row := v.activeGrid()[v.cursorY]
	row[len(row)-1].Wrapped = true
	v.wrapNext = false
	v.cursorX = 0
	v.lineFeedNoCommit()
}

// LineFeed moves down one row, scrolling the region when at its bottom.
// In newline mode (LNM) it also returns to column zero.
func (v *VTerm) LineFeed() {
	if v.newlineMode {
		v.cursorX = 0
	}
	if !v.inAlt && v.OnLineCommit != nil {
		if rows := v.committedLine(); rows != nil {
			v.OnLineCommit(rows)
		}
	}
	v.lineFeedNoCommit()
}

func (v *VTerm) lineFeedNoCommit() {
	if v.cursorY == v.marginBottom {
		v.scrollRegionUp(v.marginTop, v.marginBottom, 1, true)
	} else if v.cursorY < v.rows-1 {
		v.cursorY++
	}
	v.wrapNext = false
}

// committedLine collects the soft-wrapped rows of the logical line the
// cursor is leaving. Returns nil while the line still continues.
func (v *VTerm) committedLine() []Line {
	grid := v.activeGrid()
	row := grid[v.cursorY]
	if row.Wrapped() {
		return nil
	}
	start := v.cursorY
	for start > 0 && grid[start-1].Wrapped() {
		start--
	}
	return grid[start : v.cursorY+1]
}

// CarriageReturn moves the cursor to column zero.
func (v *VTerm) CarriageReturn() {
	v.cursorX = 0
	v.wrapNext = false
}

// Backspace moves the cursor one column left, stopping at the edge.
func (v *VTerm) Backspace() {
	if v.wrapNext {
		v.wrapNext = false
		return
	}
	if v.cursorX > 0 {
		v.cursorX--
	}
}

// Index (ESC D) moves down like a line feed without the LNM column reset.
func (v *VTerm) Index() {
	v.lineFeedNoCommit()
}

// NextLine (ESC E) is a line feed plus carriage return.
func (v *VTerm) NextLine() {
	v.CarriageReturn()
	v.lineFeedNoCommit()
}

// ReverseIndex (ESC M) moves up one row, scrolling down at the top margin.
func (v *VTerm) ReverseIndex() {
	if v.cursorY == v.marginTop {
		v.scrollRegionDown(v.marginTop, v.marginBottom, 1)
	} else if v.cursorY > 0 {
		v.cursorY--
	}
	v.wrapNext = false
}

// RepeatLast (CSI b) reprints the last printed rune n times.
func (v *VTerm) RepeatLast(n int) {
	if v.lastRune == 0 {
		return
	}
	r := v.lastRune
	for i := 0; i < n; i++ {
		v.placeChar(r)
	}
}

// SetCursorPos places the cursor at the given zero-based screen position,
// clamped to the screen. With origin mode active, clamping confines the
// cursor to the scroll region instead.
func (v *VTerm) SetCursorPos(row, col int) {
	minRow, maxRow := 0, v.rows-1
	if v.originMode {
		minRow, maxRow = v.marginTop, v.marginBottom
	}
	v.cursorY = min(max(row, minRow), maxRow)
	v.cursorX = min(max(col, 0), v.cols-1)
	v.wrapNext = false
}

// SetCursorColumn moves to an absolute column on the current row.
func (v *VTerm) SetCursorColumn(col int) {
	v.cursorX = min(max(col, 0), v.cols-1)
	v.wrapNext = false
}

// SetCursorRow moves to an absolute row, honoring origin mode.
func (v *VTerm) SetCursorRow(row int) {
	v.SetCursorPos(row, v.cursorX)
}

// MoveCursorUp moves up n rows, stopping at the top margin when the
// cursor starts at or below it.
func (v *VTerm) MoveCursorUp(n int) {
	top := 0
	if v.cursorY >= v.marginTop {
		top = v.marginTop
	}
	v.cursorY = max(v.cursorY-n, top)
	v.wrapNext = false
}

// MoveCursorDown moves down n rows, stopping at the bottom margin when
// the cursor starts at or above it.
func (v *VTerm) MoveCursorDown(n int) {
	bottom := v.rows - 1
	if v.cursorY <= v.marginBottom {
		bottom = v.marginBottom
	}
	v.cursorY = min(v.cursorY+n, bottom)
	v.wrapNext = false
}

// MoveCursorForward moves right n columns.
func (v *VTerm) MoveCursorForward(n int) {
	v.cursorX = min(v.cursorX+n, v.cols-1)
	v.wrapNext = false
}

// MoveCursorBackward moves left n columns.
func (v *VTerm) MoveCursorBackward(n int) {
	v.cursorX = max(v.cursorX-n, 0)
	v.wrapNext = false
}

// SaveCursor captures cursor position, colors, attributes and charset
// state for the active screen (DECSC).
func (v *VTerm) SaveCursor() {
	saved := savedCursor{
		x: v.cursorX, y: v.cursorY,
		fg: v.currentFG, bg: v.currentBG, attr: v.currentAttr,
		originMode: v.originMode,
		g0:         v.g0, g1: v.g1, shifted: v.shifted,
		valid: true,
	}
	if v.inAlt {
		v.savedAlt = saved
	} else {
		v.savedPrimary = saved
	}
}

// RestoreCursor restores the state saved by SaveCursor (DECRC). With no
// saved state it homes the cursor, which is what a hard reset leaves.
func (v *VTerm) RestoreCursor() {
	saved := v.savedPrimary
	if v.inAlt {
		saved = v.savedAlt
	}
	if !saved.valid {
		v.SetCursorPos(0, 0)
		return
	}
	v.cursorX = min(saved.x, v.cols-1)
	v.cursorY = min(saved.y, v.rows-1)
	v.currentFG, v.currentBG, v.currentAttr = saved.fg, saved.bg, saved.attr
	v.originMode = saved.originMode
	v.g0, v.g1, v.shifted = saved.g0, saved.g1, saved.shifted
	v.wrapNext = false
}

// SetMargins sets the scroll region from 1-based top and bottom rows
// (DECSTBM) and homes the cursor. Degenerate regions are ignored.
func (v *VTerm) SetMargins(top, bottom int) {
	top--
	bottom--
	if top < 0 {
		top = 0
	}
	if bottom >= v.rows {
		bottom = v.rows - 1
	}
	if top >= bottom {
		return
	}
	v.marginTop = top
	v.marginBottom = bottom
	v.SetCursorPos(0, 0)
}

// resetTabStops rebuilds the default stops at every eighth column.
func (v *VTerm) resetTabStops() {
	v.tabStops = make(map[int]bool)
	for x := 8; x < v.cols; x += 8 {
		v.tabStops[x] = true
	}
}

// SetTabStop marks a tab stop at the cursor column (HTS).
func (v *VTerm) SetTabStop() {
	v.tabStops[v.cursorX] = true
}

// clearTabStops handles TBC: mode 0 clears the stop at the cursor,
// mode 3 clears them all.
func (v *VTerm) clearTabStops(mode int) {
	switch mode {
	case 0:
		delete(v.tabStops, v.cursorX)
	case 3:
		v.tabStops = make(map[int]bool)
	}
}

// TabForward advances to the n-th next tab stop or the right edge.
func (v *VTerm) TabForward(n int) {
	for ; n > 0; n-- {
		x := v.cursorX + 1
		for x < v.cols-1 && !v.tabStops[x] {
			x++
		}
		v.cursorX = min(x, v.cols-1)
	}
	v.wrapNext = false
}

// TabBackward moves to the n-th previous tab stop or column zero (CBT).
func (v *VTerm) TabBackward(n int) {
	for ; n > 0; n-- {
		x := v.cursorX - 1
		for x > 0 && !v.tabStops[x] {
			x--
		}
		v.cursorX = max(x, 0)
	}
	v.wrapNext = false
}

// Reset performs a full reset (RIS): both screens cleared, all modes and
// attributes back to power-on defaults. Scrollback is kept; ED 3 is the
// explicit way to drop it.
func (v *VTerm) Reset() {
	v.inAlt = false
	v.alt = nil
	v.screen = v.newGrid()
	v.cursorX, v.cursorY = 0, 0
	v.wrapNext = false
	v.currentFG, v.currentBG = v.defaultFG, v.defaultBG
	v.currentAttr = 0
	v.appCursorKeys = false
	v.appKeypad = false
	v.originMode = false
	v.autoWrap = true
	v.insertMode = false
	v.newlineMode = false
	v.cursorVisible = true
	v.reverseVideo = false
	v.setBracketedPaste(false)
	v.marginTop, v.marginBottom = 0, v.rows-1
	v.g0, v.g1, v.shifted = charsetASCII, charsetASCII, false
	v.savedPrimary = savedCursor{}
	v.savedAlt = savedCursor{}
	v.resetTabStops()
	v.viewOffset = 0
	v.lastValid = false
	v.lastRune = 0
	v.MarkAllDirty()
}

// SoftReset (DECSTR) restores the mode flags applications most often
// leave dirty, without touching screen content.
func (v *VTerm) SoftReset() {
	v.cursorVisible = true
	v.originMode = false
	v.insertMode = false
	v.autoWrap = true
	v.appCursorKeys = false
	v.appKeypad = false
	v.currentFG, v.currentBG = v.defaultFG, v.defaultBG
	v.currentAttr = 0
	v.marginTop, v.marginBottom = 0, v.rows-1
	v.g0, v.g1, v.shifted = charsetASCII, charsetASCII, false
	v.savedPrimary.valid = false
	v.savedAlt.valid = false
	v.wrapNext = false
	v.MarkAllDirty()
}

// ScreenAlignment fills the screen with E characters (DECALN), used by
// hardware tests to judge margins. Margins and cursor reset with it.
func (v *VTerm) ScreenAlignment() {
	grid := v.activeGrid()
	for y := range grid {
		for x := range grid[y] {
			grid[y][x] = Cell{Rune: 'E', FG: v.defaultFG, BG: v.defaultBG}
		}
	}
	v.marginTop, v.marginBottom = 0, v.rows-1
	v.SetCursorPos(0, 0)
	v.MarkAllDirty()
}

func (v *VTerm) setBracketedPaste(on bool) {
	if v.bracketedPaste == on {
		return
	}
	v.bracketedPaste = on
	if v.OnBracketedPasteChange != nil {
		v.OnBracketedPasteChange(on)
	}
}
