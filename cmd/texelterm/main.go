// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texelterm/main.go
// Summary: Standalone tcell front end for the terminal engine. Runs the
//          shell full screen with scrollback, mouse selection, search and
//          clipboard shortcuts; -attach mirrors the PTY onto the hosting
//          terminal without the engine in between.
// Usage: texelterm [-e command] [args...]
//        texelterm -attach -e vim notes.txt

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/framegrace/texelterm"
	"github.com/framegrace/texelterm/history"
	"github.com/framegrace/texelterm/keymap"
	"github.com/framegrace/texelterm/parser"
	"github.com/framegrace/texelterm/search"
	"github.com/framegrace/texelterm/shortcut"
)

func main() {
	command := flag.String("e", "", "command to run instead of $SHELL")
	attach := flag.Bool("attach", false, "raw passthrough: mirror the child PTY onto this terminal")
	dbPath := flag.String("db", defaultHistoryPath(), "command history database (empty disables)")
	scrollback := flag.Int("scrollback", 0, "scrollback line cap (0 uses the engine default)")
	flag.Parse()

	var err error
	if *attach {
		err = runAttach(*command, flag.Args())
	} else {
		err = runScreen(*command, flag.Args(), *dbPath, *scrollback)
	}
	os.Exit(exitCode(err))
}

// exitCode propagates the child's exit status; anything else is a
// front-end failure worth printing.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	fmt.Fprintf(os.Stderr, "texelterm: %v\n", err)
	return 1
}

func defaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "texelterm", "history.db")
}

// setupLogging sends the standard logger to a file so engine messages
// do not tear up the tcell screen.
func setupLogging() {
	dir, err := os.UserConfigDir()
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	logDir := filepath.Join(dir, "texelterm", "logs")
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		log.SetOutput(io.Discard)
		return
	}
	file, err := os.OpenFile(filepath.Join(logDir, "texelterm.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(file)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}

// uiNote carries engine callbacks from the reader goroutine to the main
// loop, which owns the screen.
type uiNote struct {
	kind uiNoteKind
	text string
}

type uiNoteKind int

const (
	noteStatus uiNoteKind = iota
	noteTitle
	noteBell
	noteClipboard
)

func runScreen(command string, args []string, dbPath string, scrollback int) error {
	setupLogging()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.EnablePaste()
	screen.Clear()

	var store history.Store
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			log.Printf("texelterm: history disabled: %v", err)
		} else if s, err := history.NewStore(history.DefaultStoreConfig(dbPath)); err != nil {
			log.Printf("texelterm: history disabled: %v", err)
		} else {
			store = s
			defer s.Close()
		}
	}

	cols, rows := screen.Size()
	tm := texelterm.New(texelterm.Config{
		Command:       command,
		Args:          args,
		Cols:          cols,
		Rows:          rows,
		MaxScrollback: scrollback,
		History:       store,
	})
	defer tm.Close()

	notes := make(chan uiNote, 16)
	post := func(n uiNote) {
		select {
		case notes <- n:
		default:
		}
	}
	tm.OnTitleChange = func(title string) { post(uiNote{noteTitle, title}) }
	tm.OnBell = func() { post(uiNote{noteBell, ""}) }
	tm.OnClipboardWrite = func(text string) { post(uiNote{noteClipboard, text}) }
	tm.OnFormatDetect = func(label string) { post(uiNote{noteStatus, label}) }

	ui := &frontend{
		screen:    screen,
		tm:        tm,
		shortcuts: shortcut.New(),
		palette:   newDefaultPalette(),
		results:   make(chan search.Result, 4),
	}

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- tm.Run() }()

	ui.render(true)
	for {
		select {
		case err := <-runErr:
			return err
		case ev := <-events:
			ui.handleEvent(ev)
		case <-tm.Refresh():
			ui.render(false)
		case n := <-notes:
			ui.handleNote(n)
			ui.render(true)
		case res := <-ui.results:
			ui.applySearchResult(res)
			ui.render(true)
		}
	}
}

// frontend owns the screen and all UI state. Everything here runs on the
// main loop goroutine; engine callbacks arrive as uiNotes.
type frontend struct {
	screen    tcell.Screen
	tm        *texelterm.Term
	shortcuts *shortcut.Service
	palette   [258]tcell.Color
	results   chan search.Result

	clip string

	findActive bool
	findQuery  []rune
	nav        *search.Navigator

	status      string
	statusUntil time.Time

	dragging bool

	pasting  bool
	pasteBuf strings.Builder

	hadOverlay bool
}

const wheelStep = 3

func (f *frontend) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := ev.Size()
		f.tm.Resize(w, h)
		f.screen.Sync()
		f.render(true)
	case *tcell.EventPaste:
		if ev.Start() {
			f.pasting = true
			f.pasteBuf.Reset()
		} else {
			f.pasting = false
			f.tm.Paste(f.pasteBuf.String())
		}
	case *tcell.EventKey:
		f.handleKey(ev)
	case *tcell.EventMouse:
		f.handleMouse(ev)
	}
}

func (f *frontend) handleKey(ev *tcell.EventKey) {
	if f.pasting {
		switch ev.Key() {
		case tcell.KeyEnter:
			f.pasteBuf.WriteRune('\n')
		case tcell.KeyTab:
			f.pasteBuf.WriteRune('\t')
		case tcell.KeyRune:
			f.pasteBuf.WriteRune(ev.Rune())
		}
		return
	}

	press := keymap.FromTcellEvent(ev)
	if action, ok := f.shortcuts.Lookup(shortcut.FromPress(press)); ok {
		f.runAction(action)
		return
	}
	if f.findActive {
		f.editFind(press)
		return
	}
	f.tm.HandleKey(press)
}

// editFind updates the search prompt on the bottom row.
func (f *frontend) editFind(p keymap.Press) {
	switch p.Key {
	case keymap.KeyEscape:
		f.findActive = false
	case keymap.KeyEnter:
		f.findActive = false
		query := string(f.findQuery)
		if query != "" {
			f.tm.SearchAsync(query, search.Options{}, f.postResult)
		}
	case keymap.KeyBackspace:
		if len(f.findQuery) > 0 {
			f.findQuery = f.findQuery[:len(f.findQuery)-1]
		}
	case keymap.KeyRune:
		if p.Mod&^keymap.ModShift == 0 {
			f.findQuery = append(f.findQuery, p.Rune)
		}
	}
	f.render(true)
}

// postResult runs on the search goroutine.
func (f *frontend) postResult(res search.Result) {
	select {
	case f.results <- res:
	default:
	}
}

func (f *frontend) runAction(a shortcut.Action) {
	switch a {
	case shortcut.ActionCopy:
		if text := f.tm.SelectionText(); text != "" {
			f.clip = text
			f.setStatus("copied")
		}
	case shortcut.ActionPaste:
		if f.clip != "" {
			f.tm.Paste(f.clip)
		}
	case shortcut.ActionFind:
		f.findActive = true
		f.findQuery = f.findQuery[:0]
	case shortcut.ActionFindNext:
		f.jump(true)
	case shortcut.ActionFindPrev:
		f.jump(false)
	case shortcut.ActionClearScrollback:
		f.tm.EraseScrollback()
		f.nav = nil
	case shortcut.ActionScrollPgUp:
		f.tm.ScrollPage(true)
	case shortcut.ActionScrollPgDn:
		f.tm.ScrollPage(false)
	case shortcut.ActionScrollTop:
		f.tm.ScrollToTop()
	case shortcut.ActionScrollBottom:
		f.tm.ScrollToLive()
	case shortcut.ActionIncreaseFont, shortcut.ActionDecreaseFont, shortcut.ActionResetFont:
		f.setStatus("font size is up to the hosting terminal")
	}
	f.render(true)
}

// jump moves to the next or previous search match and centers it.
func (f *frontend) jump(forward bool) {
	if f.nav == nil || f.nav.Len() == 0 {
		f.setStatus("no matches")
		return
	}
	var m search.Match
	var ok bool
	if forward {
		m, ok = f.nav.Next()
	} else {
		m, ok = f.nav.Prev()
	}
	if !ok {
		return
	}
	f.tm.ScrollToLine(m.Line)
	f.setStatus(fmt.Sprintf("match %d/%d", f.nav.Index()+1, f.nav.Len()))
}

func (f *frontend) applySearchResult(res search.Result) {
	if res.Err != nil {
		f.setStatus("search: " + res.Err.Error())
		f.nav = nil
		return
	}
	f.nav = search.NewNavigator(res)
	m, ok := f.nav.Current()
	if !ok {
		f.setStatus(fmt.Sprintf("no matches for %q", res.Query))
		return
	}
	f.tm.ScrollToLine(m.Line)
	suffix := ""
	if res.Truncated {
		suffix = "+"
	}
	f.setStatus(fmt.Sprintf("%d%s matches for %q", f.nav.Len(), suffix, res.Query))
}

func (f *frontend) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	btns := ev.Buttons()
	switch {
	case btns&tcell.WheelUp != 0:
		f.tm.ScrollView(wheelStep)
	case btns&tcell.WheelDown != 0:
		f.tm.ScrollView(-wheelStep)
	case btns&tcell.Button1 != 0:
		if !f.dragging {
			f.dragging = true
			f.tm.SelectionStart(x, y)
		} else {
			f.tm.SelectionUpdate(x, y)
		}
		f.render(true)
	default:
		if f.dragging {
			f.dragging = false
			if text, ok := f.tm.SelectionFinish(x, y); ok {
				f.clip = text
			}
			f.render(true)
		}
	}
}

func (f *frontend) handleNote(n uiNote) {
	switch n.kind {
	case noteBell:
		f.screen.Beep()
	case noteTitle:
		f.screen.SetTitle(n.text)
	case noteClipboard:
		f.clip = n.text
		f.setStatus("clipboard set by application")
	case noteStatus:
		f.setStatus(n.text)
	}
}

func (f *frontend) setStatus(s string) {
	f.status = s
	f.statusUntil = time.Now().Add(4 * time.Second)
}

func (f *frontend) statusLine() string {
	if f.findActive {
		return "find: " + string(f.findQuery)
	}
	if f.status != "" && time.Now().Before(f.statusUntil) {
		return f.status
	}
	return ""
}

// render paints the snapshot. Dirty-row painting covers the common case;
// overlays (selection, status bar) and geometry changes force a full
// repaint because they touch rows the engine did not mark.
func (f *frontend) render(force bool) {
	snap, dirty, all := f.tm.SnapshotDirty()
	spans := f.tm.SelectionSpans()
	status := f.statusLine()

	overlay := spans != nil || status != ""
	if force || overlay || f.hadOverlay {
		all = true
	}
	f.hadOverlay = overlay

	paintRow := func(y int) {
		if y < 0 || y >= len(snap.Lines) {
			return
		}
		line := snap.Lines[y]
		var span [2]int
		if spans != nil && y < len(spans) {
			span = spans[y]
		}
		for x := 0; x < snap.Cols && x < len(line); x++ {
			cell := line[x]
			if cell.WideCont {
				continue
			}
			r := cell.Rune
			if r == 0 {
				r = ' '
			}
			st := f.styleFor(cell, snap.ReverseVideo)
			if x >= span[0] && x < span[1] {
				st = st.Reverse(true)
			}
			f.screen.SetContent(x, y, r, cell.Combining, st)
		}
	}

	if all {
		for y := 0; y < snap.Rows; y++ {
			paintRow(y)
		}
	} else {
		for _, y := range dirty {
			paintRow(y)
		}
	}

	if status != "" {
		f.drawStatus(snap.Rows-1, snap.Cols, status)
	}

	switch {
	case f.findActive:
		f.screen.ShowCursor(runewidth.StringWidth(status), snap.Rows-1)
	case snap.CursorVisible:
		f.screen.ShowCursor(snap.CursorX, snap.CursorY)
	default:
		f.screen.HideCursor()
	}
	f.screen.Show()
}

func (f *frontend) drawStatus(y, cols int, msg string) {
	st := tcell.StyleDefault.Foreground(f.palette[257]).Background(f.palette[256])
	x := 0
	for _, r := range msg {
		if x >= cols {
			break
		}
		f.screen.SetContent(x, y, r, nil, st)
		x += runewidth.RuneWidth(r)
	}
	for ; x < cols; x++ {
		f.screen.SetContent(x, y, ' ', nil, st)
	}
}

// styleFor translates a parser cell into a tcell style through the local
// palette. DECSCNM reverse video flips every cell at the end.
func (f *frontend) styleFor(cell parser.Cell, reverseVideo bool) tcell.Style {
	fg := f.mapColor(cell.FG, f.palette[256])
	bg := f.mapColor(cell.BG, f.palette[257])
	st := tcell.StyleDefault.Foreground(fg).Background(bg)
	st = st.Bold(cell.Attr&parser.AttrBold != 0)
	st = st.Dim(cell.Attr&parser.AttrFaint != 0)
	st = st.Italic(cell.Attr&parser.AttrItalic != 0)
	st = st.Underline(cell.Attr&parser.AttrUnderline != 0)
	st = st.Blink(cell.Attr&parser.AttrBlink != 0)
	st = st.StrikeThrough(cell.Attr&parser.AttrStrikethrough != 0)
	reversed := cell.Attr&parser.AttrReverse != 0
	if reverseVideo {
		reversed = !reversed
	}
	return st.Reverse(reversed)
}

func (f *frontend) mapColor(c parser.Color, def tcell.Color) tcell.Color {
	switch c.Mode {
	case parser.ColorModeStandard, parser.ColorMode256:
		return f.palette[c.Value]
	case parser.ColorModeRGB:
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	default:
		return def
	}
}

// newDefaultPalette builds the standard xterm 256 color palette plus the
// default foreground at [256] and background at [257].
func newDefaultPalette() [258]tcell.Color {
	var p [258]tcell.Color
	p[0] = tcell.NewRGBColor(0, 0, 0)        // Black
	p[1] = tcell.NewRGBColor(128, 0, 0)      // Maroon
	p[2] = tcell.NewRGBColor(0, 128, 0)      // Green
	p[3] = tcell.NewRGBColor(128, 128, 0)    // Olive
	p[4] = tcell.NewRGBColor(0, 0, 128)      // Navy
	p[5] = tcell.NewRGBColor(128, 0, 128)    // Purple
	p[6] = tcell.NewRGBColor(0, 128, 128)    // Teal
	p[7] = tcell.NewRGBColor(192, 192, 192)  // Silver
	p[8] = tcell.NewRGBColor(128, 128, 128)  // Grey
	p[9] = tcell.NewRGBColor(255, 0, 0)      // Red
	p[10] = tcell.NewRGBColor(0, 255, 0)     // Lime
	p[11] = tcell.NewRGBColor(255, 255, 0)   // Yellow
	p[12] = tcell.NewRGBColor(0, 0, 255)     // Blue
	p[13] = tcell.NewRGBColor(255, 0, 255)   // Fuchsia
	p[14] = tcell.NewRGBColor(0, 255, 255)   // Aqua
	p[15] = tcell.NewRGBColor(255, 255, 255) // White

	// 6x6x6 color cube
	levels := []int32{0, 95, 135, 175, 215, 255}
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p[i] = tcell.NewRGBColor(levels[r], levels[g], levels[b])
				i++
			}
		}
	}

	// Grayscale ramp
	for j := 0; j < 24; j++ {
		gray := int32(8 + j*10)
		p[i] = tcell.NewRGBColor(gray, gray, gray)
		i++
	}

	p[256] = p[15]
	p[257] = p[0]
	return p
}

// runAttach wires the child PTY straight through to the hosting terminal
// in raw mode, tracking window size over SIGWINCH. No engine involved.
func runAttach(command string, args []string) error {
	if command == "" {
		command = os.Getenv("SHELL")
		if command == "" {
			command = "/bin/sh"
		}
	}
	cmd := exec.Command(command, args...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("start %s: %w", command, err)
	}
	defer ptmx.Close()

	stdin := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(stdin)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer term.Restore(stdin, oldState)

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)
	go func() {
		for range winch {
			if w, h, err := term.GetSize(stdin); err == nil {
				pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(w), Rows: uint16(h)})
			}
		}
	}()
	winch <- syscall.SIGWINCH

	go func() { io.Copy(ptmx, os.Stdin) }()
	io.Copy(os.Stdout, ptmx)
	return cmd.Wait()
}
