// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term.go
// Summary: PTY-backed terminal session: spawns the child process, feeds
//          the interpreter, and exposes input, snapshots and lifecycle.
// Usage: t := texelterm.New(texelterm.Config{Command: "/bin/bash"})
//        go t.Run(); send keys via HandleKey; render from Snapshot().

package texelterm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/creack/pty"

	"github.com/framegrace/texelterm/config"
	"github.com/framegrace/texelterm/history"
	"github.com/framegrace/texelterm/keymap"
	"github.com/framegrace/texelterm/parser"
	"github.com/framegrace/texelterm/txfmt"
)

// Config holds construction parameters. Zero values get defaults: $SHELL
// (falling back to /bin/sh) at 80x24 with the standard scrollback cap.
type Config struct {
	Command string
	Args    []string
	Dir     string

	Cols, Rows int

	MaxScrollback int

	// History, when non-nil, receives completed commands captured from
	// OSC 133 shell integration marks. The Term does not own the store;
	// the caller closes it after Close.
	History history.Store
}

// Term is one terminal session: a child process on a PTY, the virtual
// terminal it writes into, and the services hanging off it.
//
// The PTY reader goroutine is the sole writer into the interpreter.
// Every exported method either takes the session lock for a consistent
// read, hands out deep-copy snapshots, or writes toward the child.
type Term struct {
	cfg Config

	mu     sync.Mutex
	vt     *parser.VTerm
	parser *parser.Parser
	ptmx   *os.File
	cmd    *exec.Cmd

	fmtr      *txfmt.Formatter
	inCommand bool

	recorder *history.Recorder

	selection termSelection

	searchMu     sync.Mutex
	searchCancel func()

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	refresh chan struct{}

	// Host callbacks. They fire on the reader goroutine while the
	// session lock is held; do not call back into Term methods from
	// them. Set before Run.
	OnTitleChange    func(string)
	OnBell           func()
	OnClipboardWrite func(string)
	OnFormatDetect   func(string)
}

// New builds a session around a fresh virtual terminal. The child is not
// started until Run; snapshots, selection and search work immediately,
// which is also what the tests rely on.
func New(cfg Config) *Term {
	if cfg.Command == "" {
		cfg.Command = os.Getenv("SHELL")
		if cfg.Command == "" {
			cfg.Command = "/bin/sh"
		}
	}
	if cfg.Cols < 1 {
		cfg.Cols = 80
	}
	if cfg.Rows < 1 {
		cfg.Rows = 24
	}

	shared := config.Shared()
	shared.RegisterDefaults("texelterm", config.Section{
		"scrollback":  10000,
		"txfmt":       false,
		"txfmt_style": "",
	})
	if cfg.MaxScrollback <= 0 {
		cfg.MaxScrollback = shared.GetInt("texelterm", "scrollback", 10000)
	}

	t := &Term{
		cfg:     cfg,
		stop:    make(chan struct{}),
		refresh: make(chan struct{}, 1),
	}

	opts := []parser.Option{parser.WithRespond(t.writePty)}
	if cfg.MaxScrollback > 0 {
		opts = append(opts, parser.WithMaxScrollback(cfg.MaxScrollback))
	}
	t.vt = parser.NewVTerm(cfg.Cols, cfg.Rows, opts...)
	t.parser = parser.NewParser(t.vt)

	if cfg.History != nil {
		t.recorder = history.NewRecorder(cfg.History, t.vt)
	}

	if shared.GetBool("texelterm", "txfmt", false) {
		t.fmtr = txfmt.New(shared.GetString("texelterm", "txfmt_style", ""))
	}

	t.wireCallbacks()
	return t
}

// wireCallbacks connects the interpreter's event hooks to the recorder,
// the output colorizer and the host-facing callbacks. All of these fire
// inside Parse, on the reader goroutine, with t.mu held.
func (t *Term) wireCallbacks() {
	vt := t.vt

	vt.OnTitleChange = func(title string) {
		if t.OnTitleChange != nil {
			t.OnTitleChange(title)
		}
		t.notifyRefresh()
	}
	vt.OnBell = func() {
		if t.OnBell != nil {
			t.OnBell()
		}
	}
	vt.OnClipboardWrite = func(text string) {
		if t.OnClipboardWrite != nil {
			t.OnClipboardWrite(text)
		}
	}
	vt.OnCWDChange = func(dir string) {
		if t.recorder != nil {
			t.recorder.SetCWD(dir)
		}
	}

	vt.OnPromptStart = func() {
		t.inCommand = false
		if t.fmtr != nil {
			t.fmtr.NotifyPromptStart()
		}
		if t.recorder != nil {
			t.recorder.PromptStart()
		}
	}
	vt.OnInputStart = func() {
		if t.recorder != nil {
			t.recorder.InputStart()
		}
	}
	vt.OnCommandStart = func() {
		t.inCommand = true
		if t.recorder != nil {
			t.recorder.CommandStart()
		}
	}
	vt.OnCommandEnd = func(exitCode int) {
		t.inCommand = false
		if t.recorder != nil {
			t.recorder.CommandEnd(exitCode)
		}
	}

	if t.fmtr != nil {
		vt.OnLineCommit = func(rows []parser.Line) {
			_, cy := vt.Cursor()
			first := int64(vt.ScrollbackLen() + cy - (len(rows) - 1))
			t.fmtr.HandleLine(first, rows, t.inCommand)
		}
		t.fmtr.SetInsertFunc(func(_ int64, cells []parser.Cell) {
			if t.OnFormatDetect == nil {
				return
			}
			var b strings.Builder
			for i := range cells {
				b.WriteString(cells[i].Cluster())
			}
			t.OnFormatDetect(strings.TrimSpace(b.String()))
		})
	}
}

// Run spawns the child on a PTY sized to the current screen and blocks
// until it exits. The reader goroutine it starts parses every rune the
// child writes; Run returns only after that goroutine has drained.
func (t *Term) Run() error {
	t.mu.Lock()
	cols, rows := t.vt.Cols(), t.vt.Rows()
	t.mu.Unlock()

	cmd := exec.Command(t.cfg.Command, t.cfg.Args...)
	cmd.Dir = t.cfg.Dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return fmt.Errorf("start %s: %w", t.cfg.Command, err)
	}

	t.mu.Lock()
	t.cmd = cmd
	t.ptmx = ptmx
	t.mu.Unlock()

	t.wg.Add(1)
	go t.readLoop(ptmx)

	err = cmd.Wait()
	t.wg.Wait()
	return err
}

// readLoop is the interpreter goroutine: rune-wise reads off the PTY, so
// UTF-8 sequences split across read boundaries reassemble correctly.
func (t *Term) readLoop(ptmx *os.File) {
	defer t.wg.Done()
	defer ptmx.Close()

	reader := bufio.NewReader(ptmx)
	for {
		select {
		case <-t.stop:
			return
		default:
		}

		r, _, err := reader.ReadRune()
		if err != nil {
			// A closed PTY master reports EIO when the child exits.
			if err != io.EOF && !errors.Is(err, syscall.EIO) {
				select {
				case <-t.stop:
				default:
					log.Printf("Term: pty read: %v", err)
				}
			}
			return
		}

		t.mu.Lock()
		t.parser.Parse(r)
		t.mu.Unlock()

		t.notifyRefresh()
	}
}

// Close terminates the session: stops the reader, closes the PTY and
// asks the child to exit. Safe to call more than once; it returns after
// the reader goroutine has drained.
func (t *Term) Close() {
	t.closeOnce.Do(func() {
		close(t.stop)
		t.CancelSearch()

		t.mu.Lock()
		ptmx, cmd := t.ptmx, t.cmd
		t.mu.Unlock()

		if ptmx != nil {
			ptmx.Close()
		}
		if cmd != nil && cmd.Process != nil {
			cmd.Process.Signal(syscall.SIGTERM)
		}
	})
	t.wg.Wait()
}

// HandleKey encodes a key press and writes it to the child. It reports
// false when the press has no terminal encoding, which is the signal
// that it is free for the host's shortcut layer. Writing input snaps a
// scrolled-back viewport to live.
func (t *Term) HandleKey(p keymap.Press) bool {
	t.mu.Lock()
	app := t.vt.AppCursorKeys()
	ptmx := t.ptmx
	t.mu.Unlock()

	seq := keymap.Sequence(p, app)
	if seq == nil {
		return false
	}

	if ptmx != nil {
		if _, err := ptmx.Write(seq); err != nil {
			log.Printf("Term: pty write: %v", err)
		}
	}

	t.mu.Lock()
	t.vt.ScrollToLive()
	t.mu.Unlock()
	t.notifyRefresh()
	return true
}

// Paste writes text to the child as pasted input. With bracketed paste
// active the text goes through verbatim between ESC[200~ and ESC[201~;
// otherwise newlines are normalized to carriage returns, the byte Enter
// would have produced.
func (t *Term) Paste(text string) {
	if text == "" {
		return
	}
	t.mu.Lock()
	bracketed := t.vt.BracketedPaste()
	ptmx := t.ptmx
	t.vt.ScrollToLive()
	t.mu.Unlock()
	t.notifyRefresh()

	if ptmx == nil {
		return
	}
	var payload []byte
	if bracketed {
		payload = make([]byte, 0, len(text)+12)
		payload = append(payload, "\x1b[200~"...)
		payload = append(payload, text...)
		payload = append(payload, "\x1b[201~"...)
	} else {
		payload = []byte(strings.NewReplacer("\r\n", "\r", "\n", "\r").Replace(text))
	}
	if _, err := ptmx.Write(payload); err != nil {
		log.Printf("Term: pty write: %v", err)
	}
}

// Resize changes the terminal geometry, reflowing the primary screen
// and propagating the new size to the child process.
func (t *Term) Resize(cols, rows int) {
	if cols < 1 || rows < 1 {
		return
	}
	t.mu.Lock()
	t.vt.Resize(cols, rows)
	ptmx := t.ptmx
	t.mu.Unlock()

	if ptmx != nil {
		if err := pty.Setsize(ptmx, &pty.Winsize{
			Rows: uint16(rows),
			Cols: uint16(cols),
		}); err != nil {
			log.Printf("Term: pty resize: %v", err)
		}
	}
	t.notifyRefresh()
}

// Refresh signals that display content may have changed. The channel
// carries at most one pending notification; renderers drain it and pull
// a fresh snapshot.
func (t *Term) Refresh() <-chan struct{} { return t.refresh }

func (t *Term) notifyRefresh() {
	select {
	case t.refresh <- struct{}{}:
	default:
	}
}

// writePty sends interpreter reply sequences (DSR, DA, OSC queries)
// back to the child. Called with t.mu held, from within Parse.
func (t *Term) writePty(b []byte) {
	if t.ptmx == nil {
		return
	}
	if _, err := t.ptmx.Write(b); err != nil {
		log.Printf("Term: pty write: %v", err)
	}
}

// Snapshot returns a deep copy of the visible screen.
func (t *Term) Snapshot() *parser.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vt.Snapshot()
}

// SnapshotDirty returns a display snapshot together with the rows that
// changed since the previous call, and resets the tracker. When all is
// true the caller repaints everything and rows is nil.
func (t *Term) SnapshotDirty() (snap *parser.Snapshot, rows []int, all bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap = t.vt.Snapshot()
	all = t.vt.AllDirty()
	if !all {
		rows = t.vt.DirtyRows()
	}
	t.vt.ClearDirty()
	return snap, rows, all
}

// HistorySnapshot returns a deep copy of scrollback plus the primary
// screen, the domain searches run over.
func (t *Term) HistorySnapshot() *parser.HistorySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vt.HistorySnapshot()
}

// Title returns the child-reported window title.
func (t *Term) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vt.Title()
}

// CWD returns the shell-reported working directory, empty until the
// shell emits OSC 7.
func (t *Term) CWD() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vt.CWD()
}

// Size returns the current terminal geometry.
func (t *Term) Size() (cols, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vt.Cols(), t.vt.Rows()
}

// InAltScreen reports whether the child has the alternate screen up.
func (t *Term) InAltScreen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vt.InAltScreen()
}

// SessionID identifies this session in recorded history, empty when no
// history store is attached.
func (t *Term) SessionID() string {
	if t.recorder == nil {
		return ""
	}
	return t.recorder.SessionID()
}

// ScrollView scrolls the viewport by delta lines, positive toward older
// content.
func (t *Term) ScrollView(delta int) {
	t.mu.Lock()
	t.vt.ScrollView(delta)
	t.mu.Unlock()
	t.notifyRefresh()
}

// ScrollPage scrolls by one screenful in the given direction.
func (t *Term) ScrollPage(up bool) {
	t.mu.Lock()
	delta := t.vt.Rows()
	if !up {
		delta = -delta
	}
	t.vt.ScrollView(delta)
	t.mu.Unlock()
	t.notifyRefresh()
}

// ScrollToTop jumps the viewport to the oldest retained line.
func (t *Term) ScrollToTop() {
	t.mu.Lock()
	t.vt.ScrollToTop()
	t.mu.Unlock()
	t.notifyRefresh()
}

// ScrollToLive returns the viewport to the live screen.
func (t *Term) ScrollToLive() {
	t.mu.Lock()
	t.vt.ScrollToLive()
	t.mu.Unlock()
	t.notifyRefresh()
}

// ViewOffset reports how many lines the viewport is scrolled back.
func (t *Term) ViewOffset() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vt.ViewOffset()
}

// ScrollbackLen reports the number of lines currently held in scrollback.
func (t *Term) ScrollbackLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vt.ScrollbackLen()
}

// ScrollToLine positions the viewport so the given absolute line is
// visible, roughly centered. Line indices follow AbsLine numbering,
// scrollback first, then the live screen.
func (t *Term) ScrollToLine(line int64) {
	t.mu.Lock()
	want := t.vt.ScrollbackLen() - int(line) + t.vt.Rows()/2
	t.vt.ScrollView(want - t.vt.ViewOffset())
	t.mu.Unlock()
	t.notifyRefresh()
}

// EraseScrollback drops all scrollback content and snaps to live view.
func (t *Term) EraseScrollback() {
	t.mu.Lock()
	t.vt.EraseScrollback()
	t.mu.Unlock()
	t.notifyRefresh()
}

// Feed parses raw bytes as child output, bypassing the PTY. Intended
// for replay and tests; Run's reader goroutine uses the same path.
func (t *Term) Feed(data []byte) {
	t.mu.Lock()
	t.parser.Feed(data)
	t.mu.Unlock()
	t.notifyRefresh()
}
