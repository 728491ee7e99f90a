// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/screen_test.go
// Summary: Resize reflow, snapshot isolation and absolute line indexing.

package parser

import "testing"

func TestResizeNarrowerRewrapsLongLine(t *testing.T) {
	v, p := newTestTerm(10, 3)
	feedString(p, "abcdefghijklm")
	assertRows(t, v, []string{"abcdefghij", "klm", ""})

	v.Resize(5, 3)
	assertRows(t, v, []string{"abcde", "fghij", "klm"})
	if !v.VisibleLine(0).Wrapped() || !v.VisibleLine(1).Wrapped() {
		t.Error("continuation rows should keep their wrap flags after reflow")
	}
	if v.VisibleLine(2).Wrapped() {
		t.Error("final row must not be marked wrapped")
	}
	if x, y := v.Cursor(); x != 3 || y != 2 {
		t.Errorf("cursor = (%d,%d), want (3,2) after reflow", x, y)
	}
}

func TestResizeWiderRejoinsWrappedLine(t *testing.T) {
	v, p := newTestTerm(10, 3)
	feedString(p, "abcdefghijklm")
	v.Resize(20, 3)
	assertRows(t, v, []string{"abcdefghijklm", "", ""})
	if v.VisibleLine(0).Wrapped() {
		t.Error("rejoined line should not carry a wrap flag")
	}
	if x, y := v.Cursor(); x != 13 || y != 0 {
		t.Errorf("cursor = (%d,%d), want (13,0)", x, y)
	}
}

func TestResizeSpillsIntoScrollback(t *testing.T) {
	v, p := newTestTerm(10, 4)
	feedString(p, "first\r\nsecond\r\nthird\r\nfour")
	if v.ScrollbackLen() != 0 {
		t.Fatalf("setup scrollback = %d, want 0", v.ScrollbackLen())
	}
	v.Resize(10, 2)
	if v.ScrollbackLen() != 2 {
		t.Fatalf("scrollback after shrink = %d, want 2", v.ScrollbackLen())
	}
	assertRows(t, v, []string{"third", "four"})
	if got := v.AbsLine(0).String(); got != "first" {
		t.Errorf("scrollback[0] = %q, want %q", got, "first")
	}
}

func TestResizePullsBackFromScrollback(t *testing.T) {
	v, p := newTestTerm(10, 2)
	feedString(p, "first\r\nsecond\r\nthird")
	if v.ScrollbackLen() != 1 {
		t.Fatalf("setup scrollback = %d, want 1", v.ScrollbackLen())
	}
	v.Resize(10, 4)
	if v.ScrollbackLen() != 0 {
		t.Errorf("scrollback after grow = %d, want 0", v.ScrollbackLen())
	}
	assertRows(t, v, []string{"first", "second", "third", ""})
}

func TestResizeKeepsWideCellPairsTogether(t *testing.T) {
	v, p := newTestTerm(10, 3)
	feedString(p, "abc日def")
	v.Resize(4, 3)
	// 日 does not fit after abc at width 4; it must start the next row.
	assertRows(t, v, []string{"abc", "日de", "f"})
	line := v.VisibleLine(1)
	if !line[0].Wide || !line[1].WideCont {
		t.Errorf("wide pair split across rows: %+v %+v", line[0], line[1])
	}
}

func TestResizeSameWidthMovesRowsOnly(t *testing.T) {
	v, p := newTestTerm(8, 3)
	feedString(p, "aa\r\nbb\r\ncc")
	v.Resize(8, 5)
	assertRows(t, v, []string{"aa", "bb", "cc", "", ""})
	if x, y := v.Cursor(); x != 2 || y != 2 {
		t.Errorf("cursor = (%d,%d), want (2,2)", x, y)
	}
}

func TestAbsoluteLineIndexing(t *testing.T) {
	v, p := newTestTerm(10, 2)
	feedString(p, "old\r\nmid\r\nnew")
	if v.TotalLines() != 3 {
		t.Fatalf("TotalLines = %d, want 3", v.TotalLines())
	}
	wants := []string{"old", "mid", "new"}
	for i, want := range wants {
		if got := v.AbsLine(i).String(); got != want {
			t.Errorf("AbsLine(%d) = %q, want %q", i, got, want)
		}
	}
	if v.AbsLine(-1) != nil || v.AbsLine(3) != nil {
		t.Error("out-of-range AbsLine should return nil")
	}
}

func TestSnapshotIsIsolatedFromLaterWrites(t *testing.T) {
	v, p := newTestTerm(10, 2)
	feedString(p, "before")
	snap := v.Snapshot()
	feedString(p, "\rafterx")
	if got := snap.Lines[0].String(); got != "before" {
		t.Errorf("snapshot mutated by later writes: %q", got)
	}
	if snap.CursorX != 6 || snap.CursorY != 0 {
		t.Errorf("snapshot cursor = (%d,%d), want (6,0)", snap.CursorX, snap.CursorY)
	}
}

func TestSnapshotVersionAdvances(t *testing.T) {
	v, p := newTestTerm(10, 2)
	first := v.Snapshot()
	feedString(p, "x")
	second := v.Snapshot()
	if second.Version <= first.Version {
		t.Errorf("version did not advance: %d -> %d", first.Version, second.Version)
	}
}

func TestHistorySnapshotExcludesAltScreen(t *testing.T) {
	v, p := newTestTerm(10, 2)
	feedString(p, "real\r\n\x1b[?1049halt-stuff")
	snap := v.HistorySnapshot()
	for i, line := range snap.Lines {
		if line.String() == "alt-stuff" {
			t.Errorf("alternate content leaked into history at line %d", i)
		}
	}
	if snap.Lines[0].String() != "real" {
		t.Errorf("history[0] = %q, want %q", snap.Lines[0].String(), "real")
	}
}

func TestViewportScrollClamping(t *testing.T) {
	v, p := newTestTerm(10, 2)
	feedString(p, "a\r\nb\r\nc\r\n")
	v.ScrollView(100)
	if v.ViewOffset() != v.ScrollbackLen() {
		t.Errorf("offset = %d, want clamped to %d", v.ViewOffset(), v.ScrollbackLen())
	}
	v.ScrollView(-100)
	if v.ViewOffset() != 0 {
		t.Errorf("offset = %d, want 0", v.ViewOffset())
	}
}

func TestDirtyTracking(t *testing.T) {
	v, p := newTestTerm(10, 3)
	v.ClearDirty()
	feedString(p, "\x1b[2;1Hx")
	rows := v.DirtyRows()
	if v.AllDirty() {
		t.Fatal("single-cell write should not dirty the whole screen")
	}
	if len(rows) != 1 || rows[0] != 1 {
		t.Errorf("dirty rows = %v, want [1]", rows)
	}
	v.ClearDirty()
	feedString(p, "\x1b[2J")
	if !v.AllDirty() && len(v.DirtyRows()) == 0 {
		t.Error("full clear should dirty everything")
	}
}
