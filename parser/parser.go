// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/parser.go
// Summary: Escape-sequence state machine feeding a VTerm.
// Usage: p := NewParser(vterm); p.Parse(r) per rune, or p.Feed(bytes).

package parser

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type parseState int

const (
	stateGround parseState = iota
	stateEscape
	stateEscapeHash
	stateCSI
	stateCSIIgnore
	stateOSC
	stateOSCEsc
	stateDCS
	stateDCSEsc
	stateCharsetG0
	stateCharsetG1
)

// maxParams bounds CSI parameter lists; extra parameters are dropped.
// maxStringLen bounds OSC and DCS string accumulation.
const (
	maxParams    = 32
	maxStringLen = 4096
)

// Parser decodes a terminal byte stream into VTerm operations. Malformed
// sequences are discarded without visible effect and the parser returns
// to ground, so a corrupt stream can never wedge it.
type Parser struct {
	vterm *VTerm
	state parseState

	params       []int
	currentParam int
	private      rune
	intermediate rune

	oscBuffer []rune
	dcsBuffer []rune

	pending []byte // incomplete UTF-8 tail between Feed calls
}

// NewParser creates a parser driving the given terminal.
func NewParser(v *VTerm) *Parser {
	return &Parser{vterm: v}
}

// VTerm returns the terminal this parser drives.
func (p *Parser) VTerm() *VTerm { return p.vterm }

// Feed decodes UTF-8 from data and parses every rune. A multi-byte
// character split across reads is held until its tail arrives.
func (p *Parser) Feed(data []byte) {
	if len(p.pending) > 0 {
		data = append(p.pending, data...)
		p.pending = nil
	}
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			if !utf8.FullRune(data) && len(data) < utf8.UTFMax {
				p.pending = append(p.pending, data...)
				return
			}
		}
		p.Parse(r)
		data = data[size:]
	}
}

// Parse processes a single rune through the state machine.
func (p *Parser) Parse(r rune) {
	// CAN and SUB abort any sequence in progress.
	if r == 0x18 || r == 0x1a {
		if p.state != stateGround {
			p.resetSequence()
		}
		return
	}

	switch p.state {
	case stateGround:
		p.parseGround(r)
	case stateEscape:
		p.parseEscape(r)
	case stateEscapeHash:
		if r == '8' {
			p.vterm.ScreenAlignment()
		}
		p.resetSequence()
	case stateCSI:
		p.parseCSI(r)
	case stateCSIIgnore:
		p.parseCSIIgnore(r)
	case stateOSC:
		p.parseOSC(r)
	case stateOSCEsc:
		if r == '\\' {
			p.dispatchOSC()
			p.resetSequence()
			return
		}
		// Not a string terminator: drop the OSC, reprocess as escape.
		p.oscBuffer = nil
		p.state = stateEscape
		p.parseEscape(r)
	case stateDCS:
		p.parseDCS(r)
	case stateDCSEsc:
		if r == '\\' {
			p.dispatchDCS()
			p.resetSequence()
			return
		}
		p.dcsBuffer = nil
		p.state = stateEscape
		p.parseEscape(r)
	case stateCharsetG0:
		p.vterm.designateCharset(0, r)
		p.resetSequence()
	case stateCharsetG1:
		p.vterm.designateCharset(1, r)
		p.resetSequence()
	}
}

func (p *Parser) resetSequence() {
	p.state = stateGround
	p.params = p.params[:0]
	p.currentParam = 0
	p.private = 0
	p.intermediate = 0
	p.oscBuffer = nil
	p.dcsBuffer = nil
}

func (p *Parser) parseGround(r rune) {
	v := p.vterm
	switch {
	case r == 0x1b:
		p.resetSequence()
		p.state = stateEscape
	case r == 0x9b: // 8-bit CSI
		p.resetSequence()
		p.state = stateCSI
	case r == '\a':
		if v.OnBell != nil {
			v.OnBell()
		}
	case r == '\b':
		v.Backspace()
	case r == '\t':
		v.TabForward(1)
	case r == '\n', r == '\v', r == '\f':
		v.LineFeed()
	case r == '\r':
		v.CarriageReturn()
	case r == 0x0e: // SO - shift to G1
		v.shifted = true
	case r == 0x0f: // SI - shift to G0
		v.shifted = false
	case r == 0x7f: // DEL is a no-op on the wire
	case r < 0x20: // remaining C0 controls ignored
	default:
		v.placeChar(r)
	}
}

func (p *Parser) parseEscape(r rune) {
	v := p.vterm
	switch r {
	case '[':
		p.state = stateCSI
	case ']':
		p.state = stateOSC
	case 'P':
		p.state = stateDCS
	case '(':
		p.state = stateCharsetG0
	case ')':
		p.state = stateCharsetG1
	case '#':
		p.state = stateEscapeHash
	case '7':
		v.SaveCursor()
		p.resetSequence()
	case '8':
		v.RestoreCursor()
		p.resetSequence()
	case 'D':
		v.Index()
		p.resetSequence()
	case 'E':
		v.NextLine()
		p.resetSequence()
	case 'M':
		v.ReverseIndex()
		p.resetSequence()
	case 'H':
		v.SetTabStop()
		p.resetSequence()
	case 'Z': // DECID
		v.respond([]byte(primaryDA))
		p.resetSequence()
	case 'c': // RIS
		v.Reset()
		p.resetSequence()
	case '=':
		v.appKeypad = true
		p.resetSequence()
	case '>':
		v.appKeypad = false
		p.resetSequence()
	case '\\': // lone string terminator
		p.resetSequence()
	default:
		p.resetSequence()
	}
}

func (p *Parser) parseCSI(r rune) {
	switch {
	case r >= '0' && r <= '9':
		if p.intermediate != 0 {
			// parameter after an intermediate byte: malformed
			p.state = stateCSIIgnore
			return
		}
		p.currentParam = min(p.currentParam*10+int(r-'0'), 65535)
	case r == ';' || r == ':':
		if p.intermediate != 0 {
			p.state = stateCSIIgnore
			return
		}
		if len(p.params) < maxParams {
			p.params = append(p.params, p.currentParam)
		}
		p.currentParam = 0
	case r >= 0x3c && r <= 0x3f: // < = > ?
		if p.private != 0 || len(p.params) > 0 || p.currentParam != 0 || p.intermediate != 0 {
			p.state = stateCSIIgnore
			return
		}
		p.private = r
	case r >= 0x20 && r <= 0x2f:
		p.intermediate = r
	case r >= 0x40 && r <= 0x7e: // final byte
		if len(p.params) < maxParams {
			p.params = append(p.params, p.currentParam)
		}
		params := append([]int(nil), p.params...)
		command, intermediate, private := r, p.intermediate, p.private
		p.resetSequence()
		p.vterm.ProcessCSI(command, params, intermediate, private)
	case r == 0x1b:
		p.resetSequence()
		p.state = stateEscape
	case r < 0x20:
		p.executeControl(r)
	default:
		p.state = stateCSIIgnore
	}
}

// parseCSIIgnore swallows the remainder of a malformed CSI sequence up
// to and including its final byte, leaving no visible trace.
func (p *Parser) parseCSIIgnore(r rune) {
	switch {
	case r >= 0x40 && r <= 0x7e:
		p.resetSequence()
	case r == 0x1b:
		p.resetSequence()
		p.state = stateEscape
	case r < 0x20:
		p.executeControl(r)
	}
}

// executeControl runs C0 controls that arrive inside a CSI sequence
// without disturbing it, the way hardware terminals did.
func (p *Parser) executeControl(r rune) {
	v := p.vterm
	switch r {
	case '\a':
		if v.OnBell != nil {
			v.OnBell()
		}
	case '\b':
		v.Backspace()
	case '\t':
		v.TabForward(1)
	case '\n', '\v', '\f':
		v.LineFeed()
	case '\r':
		v.CarriageReturn()
	}
}

func (p *Parser) parseOSC(r rune) {
	switch {
	case r == '\a':
		p.dispatchOSC()
		p.resetSequence()
	case r == 0x1b:
		p.state = stateOSCEsc
	case r < 0x20:
		// control characters have no place in an OSC string
	case len(p.oscBuffer) < maxStringLen:
		p.oscBuffer = append(p.oscBuffer, r)
	}
}

func (p *Parser) parseDCS(r rune) {
	switch {
	case r == 0x1b:
		p.state = stateDCSEsc
	case r == '\a':
		// BEL does not terminate a DCS; tolerate and drop it
	case len(p.dcsBuffer) < maxStringLen:
		p.dcsBuffer = append(p.dcsBuffer, r)
	}
}

// dispatchOSC interprets a completed OSC string.
func (p *Parser) dispatchOSC() {
	v := p.vterm
	s := string(p.oscBuffer)
	code, payload := s, ""
	if i := strings.IndexByte(s, ';'); i >= 0 {
		code, payload = s[:i], s[i+1:]
	}

	switch code {
	case "0", "2": // window title
		v.title = payload
		if v.OnTitleChange != nil {
			v.OnTitleChange(payload)
		}
	case "7": // working directory as a file:// URL
		if path, ok := parseFileURL(payload); ok {
			v.cwd = path
			if v.OnCWDChange != nil {
				v.OnCWDChange(path)
			}
		}
	case "10":
		p.handleOSCColor(10, payload, &v.defaultFG)
	case "11":
		p.handleOSCColor(11, payload, &v.defaultBG)
	case "52":
		p.handleOSC52(payload)
	case "133":
		p.handleShellMark(payload)
	case "112": // reset cursor color, renderer concern
	default:
		// unknown OSC codes are consumed silently
	}
}

// handleOSCColor sets or reports a default color. A "?" payload is a
// query answered in the 16-bit rgb:RRRR/GGGG/BBBB form.
func (p *Parser) handleOSCColor(code int, payload string, target *Color) {
	v := p.vterm
	if payload == "?" {
		r, g, b := colorChannels(*target)
		v.respond([]byte(fmt.Sprintf("\x1b]%d;rgb:%04x/%04x/%04x\x07", code, int(r)*257, int(g)*257, int(b)*257)))
		return
	}
	if c, ok := parseOSCColor(payload); ok {
		*target = c
		v.MarkAllDirty()
	}
}

// handleOSC52 accepts clipboard writes. The payload is selection
// names, a semicolon, then base64 data. Queries are not answered.
func (p *Parser) handleOSC52(payload string) {
	v := p.vterm
	parts := strings.SplitN(payload, ";", 2)
	if len(parts) != 2 || parts[1] == "?" {
		return
	}
	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return
	}
	if v.OnClipboardWrite != nil {
		v.OnClipboardWrite(string(data))
	}
}

// handleShellMark handles OSC 133 semantic prompt marks emitted by shell
// integration: A prompt start, B input start, C command output start,
// D;code command finished.
func (p *Parser) handleShellMark(payload string) {
	v := p.vterm
	mark, rest := payload, ""
	if i := strings.IndexByte(payload, ';'); i >= 0 {
		mark, rest = payload[:i], payload[i+1:]
	}
	switch mark {
	case "A":
		if v.OnPromptStart != nil {
			v.OnPromptStart()
		}
	case "B":
		if v.OnInputStart != nil {
			v.OnInputStart()
		}
	case "C":
		if v.OnCommandStart != nil {
			v.OnCommandStart()
		}
	case "D":
		if v.OnCommandEnd != nil {
			code := 0
			if rest != "" {
				if n, err := strconv.Atoi(rest); err == nil {
					code = n
				}
			}
			v.OnCommandEnd(code)
		}
	}
}

// dispatchDCS handles a completed DCS string. Only DECRQSS gets an
// answer (the invalid form); everything else is discarded.
func (p *Parser) dispatchDCS() {
	s := string(p.dcsBuffer)
	if strings.HasPrefix(s, "$q") {
		p.vterm.respond([]byte("\x1bP0$r\x1b\\"))
	}
}

// parseFileURL extracts the path from a file://host/path OSC 7 payload.
func parseFileURL(s string) (string, bool) {
	rest, ok := strings.CutPrefix(s, "file://")
	if !ok {
		return "", false
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[i:], true
	}
	return "/", true
}

// parseOSCColor accepts #RRGGBB, rgb:RR/GG/BB and rgb:RRRR/GGGG/BBBB.
func parseOSCColor(s string) (Color, bool) {
	if hexStr, ok := strings.CutPrefix(s, "#"); ok && len(hexStr) == 6 {
		val, err := strconv.ParseUint(hexStr, 16, 32)
		if err != nil {
			return Color{}, false
		}
		return Color{Mode: ColorModeRGB, R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val)}, true
	}
	spec, ok := strings.CutPrefix(s, "rgb:")
	if !ok {
		return Color{}, false
	}
	parts := strings.Split(spec, "/")
	if len(parts) != 3 {
		return Color{}, false
	}
	var ch [3]uint8
	for i, part := range parts {
		val, err := strconv.ParseUint(part, 16, 16)
		if err != nil {
			return Color{}, false
		}
		switch len(part) {
		case 1:
			val *= 17
		case 2:
			// already 8-bit
		case 4:
			val /= 257
		default:
			return Color{}, false
		}
		ch[i] = uint8(val)
	}
	return Color{Mode: ColorModeRGB, R: ch[0], G: ch[1], B: ch[2]}, true
}

// colorChannels flattens a Color to 8-bit RGB for OSC query replies.
// Palette colors report a nominal value; renderers own the real palette.
func colorChannels(c Color) (r, g, b uint8) {
	switch c.Mode {
	case ColorModeRGB:
		return c.R, c.G, c.B
	case ColorModeStandard, ColorMode256:
		v := uint8(min(int(c.Value)*16, 255))
		return v, v, v
	default:
		return 0, 0, 0
	}
}
