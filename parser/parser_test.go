// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/parser_test.go
// Summary: State machine tests - CSI parsing, OSC dispatch, malformed input.

package parser

import (
	"strings"
	"testing"
)

func TestCursorMovementSequences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		wantX int
		wantY int
	}{
		{"CUP", "\x1b[3;5H", 4, 2},
		{"CUP defaults", "\x1b[5;5H\x1b[H", 0, 0},
		{"CUU", "\x1b[4;4H\x1b[2A", 3, 1},
		{"CUD", "\x1b[2B", 0, 2},
		{"CUF", "\x1b[3C", 3, 0},
		{"CUB", "\x1b[5;5H\x1b[2D", 2, 4},
		{"CHA", "\x1b[7G", 6, 0},
		{"VPA", "\x1b[3d", 0, 2},
		{"clamped", "\x1b[99;99H", 9, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, p := newTestTerm(10, 8)
			feedString(p, tt.input)
			if x, y := v.Cursor(); x != tt.wantX || y != tt.wantY {
				t.Errorf("cursor = (%d,%d), want (%d,%d)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestSGRAttributesAndColors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantFG   Color
		wantAttr Attribute
	}{
		{"bold red", "\x1b[1;31m", Color{Mode: ColorModeStandard, Value: 1}, AttrBold},
		{"bright cyan", "\x1b[96m", Color{Mode: ColorModeStandard, Value: 14}, 0},
		{"256 color", "\x1b[38;5;196m", Color{Mode: ColorMode256, Value: 196}, 0},
		{"256 color colon form", "\x1b[38:5:100m", Color{Mode: ColorMode256, Value: 100}, 0},
		{"rgb", "\x1b[38;2;10;20;30m", Color{Mode: ColorModeRGB, R: 10, G: 20, B: 30}, 0},
		{"rgb colon form", "\x1b[38:2:1:2:3m", Color{Mode: ColorModeRGB, R: 1, G: 2, B: 3}, 0},
		{"italic strike", "\x1b[3;9m", DefaultFG, AttrItalic | AttrStrikethrough},
		{"reset", "\x1b[1;31m\x1b[0m", DefaultFG, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, p := newTestTerm(10, 3)
			feedString(p, tt.input+"x")
			cell := v.VisibleLine(0)[0]
			if cell.FG != tt.wantFG {
				t.Errorf("FG = %+v, want %+v", cell.FG, tt.wantFG)
			}
			if cell.Attr != tt.wantAttr {
				t.Errorf("Attr = %v, want %v", cell.Attr, tt.wantAttr)
			}
		})
	}
}

func TestSGRUnknownParamsIgnored(t *testing.T) {
	v, p := newTestTerm(10, 2)
	feedString(p, "\x1b[1;99;31mx")
	cell := v.VisibleLine(0)[0]
	if cell.Attr != AttrBold {
		t.Errorf("Attr = %v, want Bold despite unknown 99", cell.Attr)
	}
	if (cell.FG != Color{Mode: ColorModeStandard, Value: 1}) {
		t.Errorf("FG = %+v, want red despite unknown 99", cell.FG)
	}
}

func TestMalformedSequencesLeaveScreenClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"param after intermediate", "\x1b[1 2m"},
		{"private marker misplaced", "\x1b[1;?25h"},
		{"CAN aborts CSI", "\x1b[12\x18"},
		{"SUB aborts OSC", "\x1b]0;title\x1a"},
		{"stray escape terminator", "\x1b\\"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, p := newTestTerm(10, 3)
			feedString(p, tt.input)
			feedString(p, "ok")
			if got := v.VisibleLine(0).String(); got != "ok" {
				t.Errorf("after %q screen row = %q, want %q", tt.input, got, "ok")
			}
			if x, y := v.Cursor(); x != 2 || y != 0 {
				t.Errorf("cursor = (%d,%d), want (2,0)", x, y)
			}
		})
	}
}

func TestControlsExecuteInsideCSI(t *testing.T) {
	v, p := newTestTerm(10, 3)
	// The newline inside the sequence fires before the final byte.
	feedString(p, "a\x1b[\n1mb")
	cell := v.VisibleLine(1)[1]
	if cell.Rune != 'b' || cell.Attr != AttrBold {
		t.Errorf("cell = %+v, want bold 'b' after embedded newline", cell)
	}
}

func TestOSCTitleBELAndST(t *testing.T) {
	var titles []string
	v, p := newTestTerm(10, 3)
	v.OnTitleChange = func(s string) { titles = append(titles, s) }

	feedString(p, "\x1b]0;first\x07")
	feedString(p, "\x1b]2;second\x1b\\")
	if v.Title() != "second" {
		t.Errorf("title = %q, want %q", v.Title(), "second")
	}
	if len(titles) != 2 || titles[0] != "first" || titles[1] != "second" {
		t.Errorf("title callbacks = %v", titles)
	}
}

func TestOSC7WorkingDirectory(t *testing.T) {
	v, p := newTestTerm(10, 3)
	feedString(p, "\x1b]7;file://myhost/home/user/src\x07")
	if v.CWD() != "/home/user/src" {
		t.Errorf("cwd = %q, want %q", v.CWD(), "/home/user/src")
	}
}

func TestOSC52ClipboardWrite(t *testing.T) {
	var got string
	v, p := newTestTerm(10, 3)
	v.OnClipboardWrite = func(s string) { got = s }
	feedString(p, "\x1b]52;c;aGVsbG8=\x07")
	if got != "hello" {
		t.Errorf("clipboard payload = %q, want %q", got, "hello")
	}
}

func TestOSC133ShellMarks(t *testing.T) {
	var events []string
	v, p := newTestTerm(10, 3)
	v.OnPromptStart = func() { events = append(events, "prompt") }
	v.OnInputStart = func() { events = append(events, "input") }
	v.OnCommandStart = func() { events = append(events, "command") }
	v.OnCommandEnd = func(code int) {
		if code != 42 {
			t.Errorf("exit code = %d, want 42", code)
		}
		events = append(events, "end")
	}
	feedString(p, "\x1b]133;A\x07\x1b]133;B\x07\x1b]133;C\x07\x1b]133;D;42\x07")
	want := "prompt,input,command,end"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestOSCColorSetAndQuery(t *testing.T) {
	var responses []byte
	v, p := newTestTerm(10, 3)
	v.Respond = func(b []byte) { responses = append(responses, b...) }

	feedString(p, "\x1b]10;#20FF40\x07")
	feedString(p, "\x1b]10;?\x07")
	want := "\x1b]10;rgb:2020/ffff/4040\x07"
	if string(responses) != want {
		t.Errorf("OSC 10 query reply = %q, want %q", responses, want)
	}
}

func TestDeviceReports(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"DSR status", "\x1b[5n", "\x1b[0n"},
		{"CPR", "\x1b[4;7H\x1b[6n", "\x1b[4;7R"},
		{"primary DA", "\x1b[c", "\x1b[?6c"},
		{"secondary DA", "\x1b[>c", "\x1b[>0;10;0c"},
		{"DECID", "\x1bZ", "\x1b[?6c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []byte
			_, p := newTestTerm(20, 10)
			p.VTerm().Respond = func(b []byte) { got = append(got, b...) }
			feedString(p, tt.input)
			if string(got) != tt.want {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCPRHonorsOriginMode(t *testing.T) {
	var got []byte
	v, p := newTestTerm(20, 10)
	v.Respond = func(b []byte) { got = append(got, b...) }
	feedString(p, "\x1b[3;8r\x1b[?6h\x1b[2;5H\x1b[6n")
	if string(got) != "\x1b[2;5R" {
		t.Errorf("origin CPR = %q, want %q", got, "\x1b[2;5R")
	}
}

func TestPrivateModeFlags(t *testing.T) {
	v, p := newTestTerm(10, 3)
	feedString(p, "\x1b[?1h")
	if !v.AppCursorKeys() {
		t.Error("?1h should enable application cursor keys")
	}
	feedString(p, "\x1b[?1l")
	if v.AppCursorKeys() {
		t.Error("?1l should disable application cursor keys")
	}

	var pasteEvents []bool
	v.OnBracketedPasteChange = func(on bool) { pasteEvents = append(pasteEvents, on) }
	feedString(p, "\x1b[?2004h\x1b[?2004h\x1b[?2004l")
	if v.BracketedPaste() {
		t.Error("bracketed paste should end disabled")
	}
	if len(pasteEvents) != 2 {
		t.Errorf("paste callbacks = %v, want one on and one off", pasteEvents)
	}
}

func TestAutowrapDisabled(t *testing.T) {
	v, p := newTestTerm(5, 2)
	feedString(p, "\x1b[?7labcdefgh")
	assertRows(t, v, []string{"abcdh", ""})
	if x, y := v.Cursor(); x != 4 || y != 0 {
		t.Errorf("cursor = (%d,%d), want pinned (4,0)", x, y)
	}
}

func TestDECSTRRestoresModes(t *testing.T) {
	v, p := newTestTerm(10, 5)
	feedString(p, "\x1b[?6h\x1b[4h\x1b[2;4r\x1b[?25l\x1b[!p")
	if v.originMode || v.insertMode || !v.CursorVisible() {
		t.Error("DECSTR should clear origin and insert modes and show the cursor")
	}
	if v.marginTop != 0 || v.marginBottom != 4 {
		t.Errorf("margins = (%d,%d), want full screen", v.marginTop, v.marginBottom)
	}
}

func TestCharsetGraphics(t *testing.T) {
	v, p := newTestTerm(10, 2)
	feedString(p, "\x1b(0qj\x1b(Bq")
	if got := v.VisibleLine(0).String(); got != "─┘q" {
		t.Errorf("row = %q, want %q", got, "─┘q")
	}
}

func TestShiftOutSelectsG1(t *testing.T) {
	v, p := newTestTerm(10, 2)
	feedString(p, "\x1b)0q\x0eq\x0fq")
	if got := v.VisibleLine(0).String(); got != "q─q" {
		t.Errorf("row = %q, want %q", got, "q─q")
	}
}

func TestFeedReassemblesSplitUTF8(t *testing.T) {
	v := NewVTerm(10, 2)
	p := NewParser(v)
	raw := []byte("h\xc3\xa9llo") // héllo
	p.Feed(raw[:2])               // split inside é
	p.Feed(raw[2:])
	if got := v.VisibleLine(0).String(); got != "héllo" {
		t.Errorf("row = %q, want %q", got, "héllo")
	}
}

func TestDCSDiscardedCleanly(t *testing.T) {
	v, p := newTestTerm(10, 2)
	feedString(p, "\x1bPsome;payload\x1b\\after")
	if got := v.VisibleLine(0).String(); got != "after" {
		t.Errorf("row = %q, want %q", got, "after")
	}
}

func TestDECRQSSGetsInvalidReply(t *testing.T) {
	var got []byte
	v, p := newTestTerm(10, 2)
	v.Respond = func(b []byte) { got = append(got, b...) }
	feedString(p, "\x1bP$qm\x1b\\")
	if string(got) != "\x1bP0$r\x1b\\" {
		t.Errorf("DECRQSS reply = %q", got)
	}
}

func TestRepeatLastCharacter(t *testing.T) {
	v, p := newTestTerm(10, 2)
	feedString(p, "ab\x1b[3b")
	if got := v.VisibleLine(0).String(); got != "abbbb" {
		t.Errorf("row = %q, want %q", got, "abbbb")
	}
}

func TestBellCallback(t *testing.T) {
	rang := 0
	v, p := newTestTerm(10, 2)
	v.OnBell = func() { rang++ }
	feedString(p, "a\ab")
	if rang != 1 {
		t.Errorf("bell rang %d times, want 1", rang)
	}
	if got := v.VisibleLine(0).String(); got != "ab" {
		t.Errorf("row = %q, want %q", got, "ab")
	}
}
