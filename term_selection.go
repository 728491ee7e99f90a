// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term_selection.go
// Summary: Mouse text selection over scrollback and screen: click, drag,
//          word and logical-line expansion, text extraction.
// Usage: Feed display-cell coordinates into SelectionStart/Update/Finish;
//        paint highlights from SelectionSpans.

package texelterm

import (
	"strings"
	"time"

	"github.com/framegrace/texelterm/keymap"
	"github.com/framegrace/texelterm/parser"
)

// multiClickTimeout is the window within which repeated clicks on the
// same cell escalate to word and line selection.
const multiClickTimeout = 500 * time.Millisecond

// termSelection tracks selection state and multi-click history.
//
// Click escalation: single click anchors a character drag, double click
// selects the word under the cursor, triple click selects the whole
// logical line following soft wraps.
//
// active is true while the mouse button is held; rendered is true while
// the highlight should stay visible. Word and line selections remain
// rendered after mouse-up, a drag selection does not need to.
type termSelection struct {
	active   bool
	rendered bool

	// Anchor and current end, in absolute line space on the primary
	// screen and display rows on the alternate screen.
	anchorLine  int
	anchorCol   int
	currentLine int
	currentCol  int

	lastClickTime time.Time
	lastClickLine int
	lastClickCol  int
	clickCount    int
}

// SelectionStart begins a selection at display coordinates. Repeated
// clicks within multiClickTimeout on the same cell escalate to word and
// line selection.
func (t *Term) SelectionStart(x, y int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	line, col := t.displayToSelLocked(x, y)

	now := time.Now()
	samePos := line == t.selection.lastClickLine && col == t.selection.lastClickCol
	clickCount := 1
	if samePos && now.Sub(t.selection.lastClickTime) < multiClickTimeout {
		clickCount = t.selection.clickCount + 1
	}

	t.selection = termSelection{
		active:        true,
		rendered:      true,
		lastClickTime: now,
		lastClickLine: line,
		lastClickCol:  col,
		clickCount:    clickCount,
	}

	switch {
	case clickCount == 2:
		t.selectWordAtLocked(line, col)
	case clickCount >= 3:
		t.selectLineAtLocked(line)
	default:
		t.selection.anchorLine = line
		t.selection.anchorCol = col
		t.selection.currentLine = line
		t.selection.currentCol = col
	}

	t.vt.MarkAllDirty()
	t.notifyRefresh()
}

// SelectionUpdate extends the active selection to display coordinates.
// Dragging past the top or bottom edge nudges the viewport one line so
// the selection can grow into scrollback.
func (t *Term) SelectionUpdate(x, y int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.selection.active {
		return
	}

	if !t.vt.InAltScreen() {
		if y <= 0 && t.vt.ViewOffset() < t.vt.ScrollbackLen() {
			t.vt.ScrollView(1)
		} else if y >= t.vt.Rows()-1 && t.vt.ViewOffset() > 0 {
			t.vt.ScrollView(-1)
		}
	}

	line, col := t.displayToSelLocked(x, y)
	if line == t.selection.currentLine && col == t.selection.currentCol {
		return
	}
	t.selection.currentLine = line
	t.selection.currentCol = col
	t.vt.MarkAllDirty()
	t.notifyRefresh()
}

// SelectionFinish completes the selection at display coordinates and
// returns the selected text. Word and line selections stay highlighted
// after the button releases; drag selections keep their final range too,
// so copy-after-release works either way.
func (t *Term) SelectionFinish(x, y int) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.selection.active {
		return "", false
	}

	if t.selection.clickCount < 2 {
		line, col := t.displayToSelLocked(x, y)
		t.selection.currentLine = line
		t.selection.currentCol = col
	}

	text := t.buildSelectionTextLocked()
	t.selection.active = false

	t.vt.MarkAllDirty()
	t.notifyRefresh()
	if text == "" {
		return "", false
	}
	return text, true
}

// SelectionCancel drops the selection and its highlight. Click history
// survives so a follow-up click still counts toward a double click.
func (t *Term) SelectionCancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.selection.active && !t.selection.rendered {
		return
	}
	t.selection = termSelection{
		lastClickTime: t.selection.lastClickTime,
		lastClickLine: t.selection.lastClickLine,
		lastClickCol:  t.selection.lastClickCol,
		clickCount:    t.selection.clickCount,
	}
	t.vt.MarkAllDirty()
	t.notifyRefresh()
}

// SelectionText returns the currently selected text, empty when nothing
// is selected.
func (t *Term) SelectionText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buildSelectionTextLocked()
}

// SelectionSpans reports the highlighted cell range per display row,
// aligned with Snapshot rows: spans[y] = {startCol, endCol} with endCol
// exclusive, {0, 0} on rows without selection. Returns nil when no
// selection is rendered.
func (t *Term) SelectionSpans() [][2]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	startLine, startCol, endLine, endCol, ok := t.selectionRangeLocked()
	if !ok {
		return nil
	}

	rows := t.vt.Rows()
	cols := t.vt.Cols()
	top := 0
	if !t.vt.InAltScreen() {
		top = t.vt.ScrollbackLen() - t.vt.ViewOffset()
	}

	spans := make([][2]int, rows)
	for y := 0; y < rows; y++ {
		line := top + y
		if line < startLine || line > endLine {
			continue
		}
		s, e := 0, cols
		if line == startLine {
			s = min(max(startCol, 0), cols)
		}
		if line == endLine {
			e = min(max(endCol, s), cols)
		}
		spans[y] = [2]int{s, e}
	}
	return spans
}

// displayToSelLocked maps display coordinates into selection space:
// absolute line indexes on the primary screen, display rows on the
// alternate screen.
func (t *Term) displayToSelLocked(x, y int) (line, col int) {
	col = min(max(x, 0), t.vt.Cols()-1)
	y = min(max(y, 0), t.vt.Rows()-1)
	if t.vt.InAltScreen() {
		return y, col
	}
	line = t.vt.ScrollbackLen() - t.vt.ViewOffset() + y
	line = min(max(line, 0), t.vt.TotalLines()-1)
	return line, col
}

// selLineLocked returns the cells behind a selection line index.
func (t *Term) selLineLocked(line int) parser.Line {
	if t.vt.InAltScreen() {
		return t.vt.VisibleLine(line)
	}
	return t.vt.AbsLine(line)
}

// selectWordAtLocked selects the word under the given cell. Clicking
// whitespace leaves an empty selection at that cell.
func (t *Term) selectWordAtLocked(line, col int) {
	cells := t.selLineLocked(line)
	if len(cells) == 0 {
		return
	}
	col = min(max(col, 0), len(cells)-1)

	t.selection.anchorLine = line
	t.selection.currentLine = line
	if !keymap.IsWordChar(cells[col].Rune) {
		t.selection.anchorCol = col
		t.selection.currentCol = col
		return
	}

	start := col
	for start > 0 && keymap.IsWordChar(cells[start-1].Rune) {
		start--
	}
	end := col
	for end < len(cells)-1 && keymap.IsWordChar(cells[end+1].Rune) {
		end++
	}
	t.selection.anchorCol = start
	t.selection.currentCol = end
}

// selectLineAtLocked selects the whole logical line containing the given
// row, following soft wraps in both directions. A shell prompt on the
// first row is skipped so triple-clicking a command selects just the
// command.
func (t *Term) selectLineAtLocked(line int) {
	total := t.vt.TotalLines()
	if t.vt.InAltScreen() {
		total = t.vt.Rows()
	}
	if total == 0 {
		return
	}
	line = min(max(line, 0), total-1)

	start := line
	for start > 0 {
		prev := t.selLineLocked(start - 1)
		if prev == nil || !prev.Wrapped() {
			break
		}
		start--
	}
	end := line
	for end < total-1 {
		cur := t.selLineLocked(end)
		if cur == nil || !cur.Wrapped() {
			break
		}
		end++
	}

	startCol := detectPromptEnd(t.selLineLocked(start))

	endCells := t.selLineLocked(end)
	endCol := 0
	if len(endCells) > 0 {
		endCol = len(endCells) - 1
	}

	t.selection.anchorLine = start
	t.selection.anchorCol = startCol
	t.selection.currentLine = end
	t.selection.currentCol = endCol
}

// detectPromptEnd scans a line from the start and returns the column
// after a prompt, 0 when none is found. A prompt reads as a run of
// non-alphanumeric characters closed by a space.
func detectPromptEnd(cells parser.Line) int {
	if len(cells) < 2 {
		return 0
	}
	for i, cell := range cells {
		r := cell.Rune
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			if r == ' ' && i > 0 {
				return i + 1
			}
			continue
		}
		break
	}
	return 0
}

// selectionRangeLocked normalizes the selection to start <= end and
// returns it with endCol exclusive. An empty selection is invalid.
func (t *Term) selectionRangeLocked() (startLine, startCol, endLine, endCol int, ok bool) {
	if !t.selection.active && !t.selection.rendered {
		return 0, 0, 0, 0, false
	}
	startLine = t.selection.anchorLine
	startCol = t.selection.anchorCol
	endLine = t.selection.currentLine
	endCol = t.selection.currentCol

	if startLine > endLine || (startLine == endLine && startCol > endCol) {
		startLine, endLine = endLine, startLine
		startCol, endCol = endCol, startCol
	}
	if startLine == endLine && startCol == endCol {
		return 0, 0, 0, 0, false
	}
	return startLine, startCol, endLine, endCol + 1, true
}

// buildSelectionTextLocked extracts the selected text. Soft-wrapped rows
// concatenate without a newline break, so a wrapped command copies as
// one line. Trailing padding is trimmed from each completed line.
func (t *Term) buildSelectionTextLocked() string {
	startLine, startCol, endLine, endCol, ok := t.selectionRangeLocked()
	if !ok {
		return ""
	}

	var b strings.Builder
	for line := startLine; line <= endLine; line++ {
		cells := t.selLineLocked(line)
		s, e := 0, len(cells)
		if line == startLine {
			s = min(max(startCol, 0), len(cells))
		}
		if line == endLine {
			e = min(max(endCol, s), len(cells))
		}

		wrapped := cells.Wrapped() && line < endLine
		segment := segmentText(cells, s, e)
		if !wrapped {
			segment = strings.TrimRight(segment, " ")
		}
		b.WriteString(segment)
		if line < endLine && !wrapped {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// segmentText renders a cell range as text. Wide-cell continuations are
// skipped, unset cells read as spaces, combining marks stay attached.
func segmentText(cells parser.Line, start, end int) string {
	var b strings.Builder
	for i := start; i < end && i < len(cells); i++ {
		c := cells[i]
		if c.WideCont {
			continue
		}
		if c.Rune == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(c.Cluster())
	}
	return b.String()
}
