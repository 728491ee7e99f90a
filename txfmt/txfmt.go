// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: txfmt/txfmt.go
// Summary: Inline output colorizer - detects what a command is printing
// and recolors committed lines in place.
// Usage: f := txfmt.New(""); wire f.HandleLine to VTerm.OnLineCommit and
// f.NotifyPromptStart to VTerm.OnPromptStart.

// Package txfmt colorizes command output as it is committed to scrollback.
// It samples the first lines a command prints, decides what kind of output
// they are (JSON, logs, XML, a table, or source code), then recolors cells
// in place. Only cells still carrying the default foreground are touched,
// so anything the program colored itself is preserved. Logical lines on
// the alternate screen never reach the commit hook, so full-screen
// applications are unaffected.
package txfmt

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"

	"github.com/framegrace/texelterm/parser"
)

// mode represents a detected output format.
type mode string

const (
	modePlain mode = "plain"
	modeJSON  mode = "json"
	modeYAML  mode = "yaml"
	modeXML   mode = "xml"
	modeLog   mode = "log"
	modeTable mode = "table"
	modeCode  mode = "code"
)

var (
	reISOTime = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?\b`)
	reSyslog  = regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2}\s+\d{2}:\d{2}:\d{2}\b`)
	reLevel   = regexp.MustCompile(`\b(INFO|WARN|WARNING|ERR|ERROR|DEBUG|TRACE|FATAL)\b`)
	reKV      = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*=([^\s]+)\b`)
	reYAMLKey = regexp.MustCompile(`^\s*[\w.-]+\s*:\s+.*$`)
	reXMLish  = regexp.MustCompile(`^\s*<(/?[\w:-]+)(\s+[^>]*)?>`)
	reJSONish = regexp.MustCompile(`^\s*[\{\[]`)
)

// pendingLine is a committed line held back until the detector locks.
type pendingLine struct {
	idx int64
	fl  flatLine
}

// Formatter watches committed logical lines and colorizes command output.
// Lines seen while the detector is still sampling are kept in a backlog
// and painted together when the format locks in; later lines are painted
// as they arrive.
type Formatter struct {
	det                 detector
	style               *chroma.Style
	insert              func(beforeIdx int64, cells []parser.Cell)
	wasCommand          bool
	hasShellIntegration bool
	tableLineCount      int
	backlog             []pendingLine
	context             []string
}

// New creates a Formatter using the named chroma style for code output.
// An empty name selects the built-in default.
func New(styleName string) *Formatter {
	return &Formatter{
		det: detector{
			maxSampleLines: 20,
			requiredWins:   2,
		},
		style: chromaStyle(styleName),
	}
}

// NotifyPromptStart records that shell integration is active. Wire it to
// the OnPromptStart hook; without it every line counts as command output.
func (f *Formatter) NotifyPromptStart() {
	f.hasShellIntegration = true
}

// SetInsertFunc registers a host callback that surfaces the detection
// indicator. When the detector locks onto a non-plain format the
// formatter builds a reverse-video tag line like " auto-color as: json "
// and hands it over together with the index of the first line it applies
// to. Hosts may render it as an inserted line or a status message.
func (f *Formatter) SetInsertFunc(fn func(beforeIdx int64, cells []parser.Cell)) {
	f.insert = fn
}

// HandleLine is the line-commit callback. idx is the absolute index of
// the logical line's first row, rows are its soft-wrapped rows (live
// cells), and isCommand reports whether the line is command output per
// shell integration.
func (f *Formatter) HandleLine(idx int64, rows []parser.Line, isCommand bool) {
	// Without shell integration every line is treated as command output.
	effective := isCommand || !f.hasShellIntegration

	// Command output ended: next command starts detection from scratch.
	if f.wasCommand && !effective {
		f.resetRun()
	}
	f.wasCommand = effective

	if !effective {
		return
	}

	fl := flatten(rows)
	if len(fl.text) == 0 {
		return
	}

	if !f.det.locked {
		f.det.addSample(string(fl.text))
		f.backlog = append(f.backlog, pendingLine{idx: idx, fl: fl})
		if f.det.locked {
			f.lockIn()
		}
		return
	}
	f.paint(fl)
}

// resetRun clears all per-command state.
func (f *Formatter) resetRun() {
	f.det.reset()
	f.tableLineCount = 0
	f.backlog = nil
	f.context = f.context[:0]
}

// lockIn paints the backlog with the freshly locked format and announces
// the detection. A plain lock just drops the backlog.
func (f *Formatter) lockIn() {
	m := f.det.current()
	if m == modePlain {
		f.backlog = nil
		return
	}

	f.announce()

	if m == modeCode {
		// Tokenize the whole backlog as one block so the lexer sees
		// full context, then seed the streaming context from it.
		lines := make([]flatLine, len(f.backlog))
		for i, p := range f.backlog {
			lines[i] = p.fl
		}
		chromaColorizeLines(lines, f.det.lang, f.style)
		for _, p := range f.backlog {
			f.pushContext(string(p.fl.text))
		}
	} else {
		for _, p := range f.backlog {
			f.paint(p.fl)
		}
	}
	f.backlog = nil
}

// paint colorizes one line according to the current mode.
func (f *Formatter) paint(fl flatLine) {
	switch f.det.current() {
	case modeCode:
		chromaColorizeWithContext(fl, f.context, f.det.lang, f.style)
		f.pushContext(string(fl.text))
	case modeLog, modeYAML:
		colorizeLogCells(fl)
	case modeJSON:
		colorizeJSONCells(fl)
	case modeXML:
		colorizeXMLCells(fl)
	case modeTable:
		f.tableLineCount++
		colorizeTableCells(fl, f.tableLineCount)
	}
}

// announce hands the indicator line to the host, marking where the
// detected output begins.
func (f *Formatter) announce() {
	if f.insert == nil || len(f.backlog) == 0 {
		return
	}
	tag := " auto-color as: " + f.det.label() + " "
	runes := []rune(tag)
	cells := make([]parser.Cell, len(runes))
	for i, r := range runes {
		cells[i] = parser.Cell{Rune: r, Attr: parser.AttrReverse}
	}
	f.insert(f.backlog[0].idx, cells)
}

// pushContext appends a plain line to the streaming lexer context,
// keeping at most maxChromaContext lines.
func (f *Formatter) pushContext(line string) {
	f.context = append(f.context, line)
	if len(f.context) > maxChromaContext {
		f.context = f.context[len(f.context)-maxChromaContext:]
	}
}

// detector accumulates sample lines and decides the output format. Once
// the same non-plain format wins requiredWins times in a row, or the
// sample budget is exhausted, the decision locks for the rest of the
// command.
type detector struct {
	maxSampleLines int
	requiredWins   int
	sampleLines    []string
	locked         bool
	lockedMode     mode
	lastBest       mode
	stableWins     int
	lang           string // detected language when lockedMode is modeCode
	langMethod     string // how the language was found
}

func (d *detector) current() mode {
	if d.locked {
		return d.lockedMode
	}
	return d.lastBest
}

// label names the locked format for the indicator line.
func (d *detector) label() string {
	if d.lockedMode == modeCode {
		if d.langMethod != "" {
			return d.lang + " (" + d.langMethod + ")"
		}
		return d.lang
	}
	return string(d.lockedMode)
}

func (d *detector) reset() {
	d.sampleLines = d.sampleLines[:0]
	d.locked = false
	d.lockedMode = modePlain
	d.lastBest = modePlain
	d.stableWins = 0
	d.lang = ""
	d.langMethod = ""
}

func (d *detector) addSample(line string) {
	if len(d.sampleLines) < d.maxSampleLines {
		d.sampleLines = append(d.sampleLines, line)
	}

	scores := d.score()
	best := pickBest(scores)

	if best == d.lastBest && best != modePlain {
		d.stableWins++
	} else {
		d.stableWins = 0
	}
	d.lastBest = best

	// Structured formats score well on their own. Source code does not,
	// so when nothing structured is winning, try language inference.
	if best == modePlain && d.tryCodeLock() {
		return
	}

	if d.stableWins >= d.requiredWins || len(d.sampleLines) >= d.maxSampleLines {
		d.locked = true
		d.lockedMode = best
	}
}

// tryCodeLock attempts to lock onto source code. A shebang on the first
// line is decisive immediately; otherwise the samples must first pass
// the looksLikeCode gate before the classifier is consulted.
func (d *detector) tryCodeLock() bool {
	n := len(d.sampleLines)
	if n == 0 {
		return false
	}
	shebang := strings.HasPrefix(d.sampleLines[0], "#!")
	if !shebang && (n < minCodeSampleLines || !looksLikeCode(d.sampleLines)) {
		return false
	}
	r := inferLanguage(d.sampleLines)
	if r.name == "" {
		return false
	}
	d.locked = true
	d.lockedMode = modeCode
	d.lang = r.name
	d.langMethod = r.method
	return true
}

func (d *detector) score() map[mode]float64 {
	s := map[mode]float64{
		modePlain: 0.2,
		modeJSON:  0,
		modeYAML:  0,
		modeXML:   0,
		modeLog:   0,
		modeTable: 0,
	}

	lines := d.sampleLines
	text := strings.Join(lines, "\n")

	// JSON
	if reJSONish.MatchString(strings.TrimSpace(text)) {
		s[modeJSON] += 0.8
	}
	quotes := float64(strings.Count(text, `"`))
	colons := float64(strings.Count(text, `:`))
	braces := float64(strings.Count(text, `{`) + strings.Count(text, `}`) + strings.Count(text, `[`) + strings.Count(text, `]`))
	if quotes > 6 && colons > 2 && braces > 2 {
		s[modeJSON] += 0.7
	}
	if looksLikeCompleteJSON(strings.TrimSpace(text)) {
		var tmp any
		if json.Unmarshal([]byte(strings.TrimSpace(text)), &tmp) == nil {
			s[modeJSON] += 2.5
		}
	}

	// YAML
	yamlKeyLines := 0
	dashLines := 0
	for _, ln := range lines {
		if reYAMLKey.MatchString(ln) {
			yamlKeyLines++
		}
		if strings.HasPrefix(strings.TrimSpace(ln), "- ") {
			dashLines++
		}
	}
	if yamlKeyLines >= 3 {
		s[modeYAML] += 1.2
	}
	if dashLines >= 3 {
		s[modeYAML] += 0.6
	}
	if strings.HasPrefix(strings.TrimSpace(text), "---") {
		s[modeYAML] += 0.8
	}

	// XML
	xmlLines := 0
	for _, ln := range lines {
		if reXMLish.MatchString(ln) {
			xmlLines++
		}
	}
	if xmlLines >= 2 {
		s[modeXML] += 1.0
	}

	// Logs
	logHits := 0
	for _, ln := range lines {
		if reISOTime.MatchString(ln) || reSyslog.MatchString(ln) {
			logHits++
		}
		if reLevel.MatchString(ln) {
			logHits++
		}
		if reKV.MatchString(ln) {
			logHits++
		}
	}
	if logHits >= 6 {
		s[modeLog] += 1.4
	} else if logHits >= 3 {
		s[modeLog] += 0.8
	}

	// Table
	s[modeTable] += scoreTable(lines)

	return s
}

func pickBest(scores map[mode]float64) mode {
	best := modePlain
	bestScore := -1e9
	for m, s := range scores {
		if s > bestScore {
			bestScore = s
			best = m
		}
	}
	return best
}

func looksLikeCompleteJSON(trim string) bool {
	if trim == "" {
		return false
	}
	first := trim[0]
	last := trim[len(trim)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

// scoreTable rewards recurring double-space column gaps at stable
// positions across lines, the shape of ls -l or ps output.
func scoreTable(lines []string) float64 {
	type posKey int
	counts := map[posKey]int{}
	usable := 0
	for _, ln := range lines {
		ln = strings.TrimRight(ln, "\r\n")
		if len(strings.TrimSpace(ln)) == 0 || len(ln) < 20 {
			continue
		}
		usable++
		runes := []rune(ln)
		for i := 0; i < len(runes)-2; i++ {
			if runes[i] == ' ' && runes[i+1] == ' ' {
				bucket := (i / 4) * 4
				counts[posKey(bucket)]++
				for i+1 < len(runes) && runes[i+1] == ' ' {
					i++
				}
			}
		}
	}
	if usable < 4 {
		return 0
	}
	strong := 0
	for _, c := range counts {
		if c >= usable/2 {
			strong++
		}
	}
	if strong >= 2 {
		return 1.0
	}
	if strong == 1 {
		return 0.6
	}
	return 0.0
}
