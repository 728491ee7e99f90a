// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/vterm_csi.go
// Summary: CSI dispatch - cursor movement, erasing, editing, reports.

package parser

import (
	"fmt"
	"log"
)

const (
	primaryDA   = "\x1b[?6c"
	secondaryDA = "\x1b[>0;10;0c"
)

// ProcessCSI executes a complete CSI sequence. params holds the collected
// numeric parameters (zero where the application left one empty),
// intermediate the last intermediate byte, private the leading private
// marker, both zero when absent.
func (v *VTerm) ProcessCSI(command rune, params []int, intermediate, private rune) {
	if private == '?' {
		v.processPrivateModes(command, params)
		return
	}
	if private == '>' {
		if command == 'c' {
			v.respond([]byte(secondaryDA))
		}
		return
	}
	if private != 0 {
		return
	}
	if intermediate == '!' && command == 'p' {
		v.SoftReset()
		return
	}
	if intermediate == ' ' && command == 'q' {
		// DECSCUSR cursor style, shape is the renderer's business.
		return
	}
	if intermediate != 0 {
		return
	}

	param := func(i, defaultVal int) int {
		if i < len(params) && params[i] != 0 {
			return params[i]
		}
		return defaultVal
	}

	switch command {
	case 'A': // CUU - Cursor Up
		v.MoveCursorUp(param(0, 1))
	case 'B', 'e': // CUD - Cursor Down
		v.MoveCursorDown(param(0, 1))
	case 'C', 'a': // CUF - Cursor Forward
		v.MoveCursorForward(param(0, 1))
	case 'D': // CUB - Cursor Backward
		v.MoveCursorBackward(param(0, 1))
	case 'E': // CNL - Cursor Next Line
		v.MoveCursorDown(param(0, 1))
		v.cursorX = 0
	case 'F': // CPL - Cursor Previous Line
		v.MoveCursorUp(param(0, 1))
		v.cursorX = 0
	case 'G', '`': // CHA - Cursor Horizontal Absolute
		v.SetCursorColumn(param(0, 1) - 1)
	case 'H', 'f': // CUP / HVP
		row := param(0, 1) - 1
		if v.originMode {
			row += v.marginTop
		}
		v.SetCursorPos(row, param(1, 1)-1)
	case 'I': // CHT - Cursor Horizontal Tab
		v.TabForward(param(0, 1))
	case 'J': // ED - Erase in Display
		v.EraseInDisplay(param(0, 0))
	case 'K': // EL - Erase in Line
		v.EraseInLine(param(0, 0))
	case 'L': // IL - Insert Lines
		v.InsertLines(param(0, 1))
	case 'M': // DL - Delete Lines
		v.DeleteLines(param(0, 1))
	case 'P': // DCH - Delete Characters
		v.DeleteCharacters(param(0, 1))
	case 'S': // SU - Scroll Up
		v.scrollRegionUp(v.marginTop, v.marginBottom, param(0, 1), true)
	case 'T': // SD - Scroll Down
		v.scrollRegionDown(v.marginTop, v.marginBottom, param(0, 1))
	case 'X': // ECH - Erase Characters
		v.EraseCharacters(param(0, 1))
	case 'Z': // CBT - Cursor Backward Tab
		v.TabBackward(param(0, 1))
	case '@': // ICH - Insert Characters
		v.InsertCharacters(param(0, 1))
	case 'b': // REP - Repeat
		v.RepeatLast(param(0, 1))
	case 'd': // VPA - Vertical Position Absolute
		row := param(0, 1) - 1
		if v.originMode {
			row += v.marginTop
		}
		v.SetCursorPos(row, v.cursorX)
	case 'g': // TBC - Tab Clear
		v.clearTabStops(param(0, 0))
	case 'h', 'l': // SM / RM
		v.processANSIModes(command, params)
	case 'm': // SGR
		v.handleSGR(params)
	case 'n': // DSR - Device Status Report
		v.deviceStatusReport(param(0, 0))
	case 'c': // DA - Device Attributes
		if param(0, 0) == 0 {
			v.respond([]byte(primaryDA))
		}
	case 'r': // DECSTBM - Set Scrolling Region
		v.SetMargins(param(0, 1), param(1, v.rows))
	case 's': // SCOSC - Save Cursor
		v.SaveCursor()
	case 'u': // SCORC - Restore Cursor
		v.RestoreCursor()
	case 't': // XTWINOPS, resizing and reports belong to the host
	default:
		log.Printf("Parser: unhandled CSI sequence %q, params %v", command, params)
	}
}

// deviceStatusReport answers DSR queries.
func (v *VTerm) deviceStatusReport(code int) {
	switch code {
	case 5: // operating status: OK
		v.respond([]byte("\x1b[0n"))
	case 6: // CPR - cursor position, 1-based, region-relative under DECOM
		row := v.cursorY + 1
		if v.originMode {
			row = v.cursorY - v.marginTop + 1
		}
		v.respond([]byte(fmt.Sprintf("\x1b[%d;%dR", row, v.cursorX+1)))
	}
}
