// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term_test.go
// Summary: PTY lifecycle tests: spawn, output, wrap, title, shutdown.

package texelterm_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/framegrace/texelterm"
	"github.com/framegrace/texelterm/parser"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func rowText(snap *parser.Snapshot, y int) string {
	if y < 0 || y >= len(snap.Lines) {
		return ""
	}
	return parser.ExtractText(snap.Lines[y])
}

// acceptableExit tolerates the shutdown races a closed PTY produces: a
// clean exit, SIGTERM, or SIGHUP from the master closing.
func acceptableExit(err error) bool {
	if err == nil {
		return true
	}
	_, ok := err.(*exec.ExitError)
	return ok
}

func TestTermRunRendersOutput(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nprintf 'hello texelterm'\nsleep 5\n")

	tm := texelterm.New(texelterm.Config{Command: script, Cols: 40, Rows: 10})
	errCh := make(chan error, 1)
	go func() { errCh <- tm.Run() }()

	waitFor(t, 3*time.Second, "output to appear", func() bool {
		return strings.Contains(rowText(tm.Snapshot(), 0), "hello texelterm")
	})

	tm.Close()
	select {
	case err := <-errCh:
		if !acceptableExit(err) {
			t.Fatalf("run returned unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("run did not return after close")
	}
}

func TestTermCloseTerminatesProcess(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\ntrap 'exit 0' TERM\nwhile true; do sleep 1; done\n")

	tm := texelterm.New(texelterm.Config{Command: script, Cols: 40, Rows: 10})
	errCh := make(chan error, 1)
	go func() { errCh <- tm.Run() }()

	time.Sleep(200 * time.Millisecond)
	tm.Close()

	select {
	case err := <-errCh:
		if !acceptableExit(err) {
			t.Fatalf("unexpected shutdown error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("run did not return after close")
	}

	// Second close must be a no-op.
	tm.Close()
}

func TestTermRunBadCommand(t *testing.T) {
	tm := texelterm.New(texelterm.Config{Command: "/nonexistent/definitely-not-here"})
	if err := tm.Run(); err == nil {
		t.Fatal("expected error for missing command")
	}
}

func TestTermLineWrapOutput(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nprintf 'ABCDEFGHIJKLMNOPQRST'\nsleep 5\n")

	tm := texelterm.New(texelterm.Config{Command: script, Cols: 10, Rows: 10})
	errCh := make(chan error, 1)
	go func() { errCh <- tm.Run() }()

	waitFor(t, 3*time.Second, "wrapped output", func() bool {
		snap := tm.Snapshot()
		return rowText(snap, 0) == "ABCDEFGHIJ" && rowText(snap, 1) == "KLMNOPQRST"
	})

	snap := tm.Snapshot()
	if !snap.Lines[0].Wrapped() {
		t.Error("first row should carry the soft-wrap flag")
	}
	if snap.Lines[1].Wrapped() {
		t.Error("second row should not be wrapped")
	}

	tm.Close()
	<-errCh
}

func TestTermTitleReporting(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nprintf '\\033]2;build ok\\007'\nsleep 5\n")

	tm := texelterm.New(texelterm.Config{Command: script, Cols: 40, Rows: 10})
	titleCh := make(chan string, 1)
	tm.OnTitleChange = func(title string) {
		select {
		case titleCh <- title:
		default:
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- tm.Run() }()

	waitFor(t, 3*time.Second, "title change", func() bool {
		return tm.Title() == "build ok"
	})
	select {
	case got := <-titleCh:
		if got != "build ok" {
			t.Errorf("title callback got %q, want %q", got, "build ok")
		}
	default:
		t.Error("title callback did not fire")
	}

	tm.Close()
	<-errCh
}

func TestTermResize(t *testing.T) {
	tm := texelterm.New(texelterm.Config{Command: "/bin/true", Cols: 80, Rows: 24})
	tm.Resize(100, 30)
	if cols, rows := tm.Size(); cols != 100 || rows != 30 {
		t.Fatalf("size = %dx%d, want 100x30", cols, rows)
	}

	// Degenerate sizes are ignored, never fatal.
	tm.Resize(0, -1)
	if cols, rows := tm.Size(); cols != 100 || rows != 30 {
		t.Fatalf("size after bogus resize = %dx%d, want 100x30", cols, rows)
	}
}

func TestTermFeedAndScroll(t *testing.T) {
	tm := texelterm.New(texelterm.Config{Command: "/bin/true", Cols: 20, Rows: 5})
	for i := 0; i < 20; i++ {
		tm.Feed([]byte("line\r\n"))
	}
	tm.ScrollView(10)
	if tm.ViewOffset() != 10 {
		t.Fatalf("view offset = %d, want 10", tm.ViewOffset())
	}
	tm.ScrollToLive()
	if tm.ViewOffset() != 0 {
		t.Fatalf("view offset after live = %d, want 0", tm.ViewOffset())
	}
	tm.ScrollToTop()
	if tm.ViewOffset() == 0 {
		t.Fatal("scroll to top left the view live")
	}
	if n := tm.ScrollbackLen(); n != 16 {
		t.Fatalf("scrollback len = %d, want 16", n)
	}
	tm.ScrollToLine(0)
	if tm.ViewOffset() != 16 {
		t.Fatalf("view offset at oldest line = %d, want 16", tm.ViewOffset())
	}
	tm.ScrollToLine(18)
	if tm.ViewOffset() != 0 {
		t.Fatalf("view offset at live line = %d, want 0", tm.ViewOffset())
	}
	tm.EraseScrollback()
	if tm.ViewOffset() != 0 || tm.HistorySnapshot().ScrollbackLen != 0 {
		t.Fatal("erase scrollback should drop history and snap live")
	}
}

func TestTermRefreshSignal(t *testing.T) {
	tm := texelterm.New(texelterm.Config{Command: "/bin/true", Cols: 20, Rows: 5})
	tm.Feed([]byte("x"))
	select {
	case <-tm.Refresh():
	case <-time.After(time.Second):
		t.Fatal("feed did not signal a refresh")
	}
}
