// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: history/recorder.go
// Summary: Turns OSC 133 shell integration marks into history
//          entries.
// Usage: rec := history.NewRecorder(store, vt)
//        vt.OnInputStart = rec.InputStart
//        vt.OnCommandStart = rec.CommandStart
//        vt.OnCommandEnd = rec.CommandEnd

package history

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framegrace/texelterm/parser"
)

// Recorder watches one terminal session. The shell's B mark pins
// where typed input begins; the C mark reads the command text off the
// screen; D;exit completes the entry and queues it for storage.
type Recorder struct {
	store   Store
	vt      *parser.VTerm
	session string

	mu        sync.Mutex
	cwd       string
	inputLine int
	inputCol  int
	haveInput bool
	command   string
	started   time.Time
	inFlight  bool
}

// NewRecorder creates a recorder with a fresh session ID.
func NewRecorder(store Store, vt *parser.VTerm) *Recorder {
	return &Recorder{
		store:   store,
		vt:      vt,
		session: uuid.NewString(),
	}
}

// SessionID identifies this terminal instance in stored history.
func (r *Recorder) SessionID() string { return r.session }

// SetCWD records the working directory the shell reported via OSC 7.
func (r *Recorder) SetCWD(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cwd = dir
}

// PromptStart handles the A mark. Any input marker from an aborted
// prompt is stale now.
func (r *Recorder) PromptStart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.haveInput = false
}

// InputStart handles the B mark, pinning the absolute screen position
// where the user's input begins.
func (r *Recorder) InputStart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	x, y := r.vt.Cursor()
	r.inputLine = r.vt.ScrollbackLen() + y
	r.inputCol = x
	r.haveInput = true
}

// CommandStart handles the C mark. The text between the input marker
// and here is the command the user ran.
func (r *Recorder) CommandStart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.command = r.captureInputLocked()
	r.started = time.Now()
	r.inFlight = true
	r.haveInput = false
}

// CommandEnd handles the D;exit mark, completing the in-flight entry.
func (r *Recorder) CommandEnd(exitCode int) {
	r.mu.Lock()
	if !r.inFlight {
		r.mu.Unlock()
		return
	}
	entry := Entry{
		SessionID: r.session,
		Command:   r.command,
		CWD:       r.cwd,
		ExitCode:  exitCode,
		StartedAt: r.started,
		EndedAt:   time.Now(),
	}
	r.inFlight = false
	r.command = ""
	r.mu.Unlock()

	if strings.TrimSpace(entry.Command) == "" {
		return
	}
	r.store.Add(entry)
}

// captureInputLocked reads the typed command off the screen, from the
// input marker through the end of its logical line, following soft
// wraps.
func (r *Recorder) captureInputLocked() string {
	if !r.haveInput {
		return ""
	}
	var b strings.Builder
	i := r.inputLine
	for {
		line := r.vt.AbsLine(i)
		if line == nil {
			break
		}
		cells := []parser.Cell(line)
		if i == r.inputLine {
			if r.inputCol >= len(cells) {
				cells = nil
			} else {
				cells = cells[r.inputCol:]
			}
		}
		b.WriteString(parser.ExtractText(cells))
		if !line.Wrapped() {
			break
		}
		i++
	}
	return strings.TrimSpace(b.String())
}
