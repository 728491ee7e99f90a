// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/vterm_modes.go
// Summary: ANSI and DEC private mode handling, alternate screen switching.

package parser

import "log"

// processANSIModes handles standard SM/RM modes.
func (v *VTerm) processANSIModes(command rune, params []int) {
	set := command == 'h'
	for _, mode := range params {
		switch mode {
		case 4: // IRM - Insert/Replace Mode
			v.insertMode = set
		case 20: // LNM - Linefeed/Newline Mode
			v.newlineMode = set
		default:
			log.Printf("Parser: unhandled ANSI mode %d%c", mode, command)
		}
	}
}

// processPrivateModes handles DEC private SM/RM (CSI ? ... h/l).
func (v *VTerm) processPrivateModes(command rune, params []int) {
	set := command == 'h'
	for _, mode := range params {
		switch mode {
		case 1: // DECCKM - Application Cursor Keys
			v.appCursorKeys = set
		case 3: // DECCOLM - column mode switch implies a clear
			v.clearRows(0, v.rows-1)
			v.marginTop, v.marginBottom = 0, v.rows-1
			v.SetCursorPos(0, 0)
		case 5: // DECSCNM - Reverse Video
			if v.reverseVideo != set {
				v.reverseVideo = set
				v.MarkAllDirty()
			}
		case 6: // DECOM - Origin Mode
			v.originMode = set
			v.SetCursorPos(0, 0)
		case 7: // DECAWM - Autowrap
			v.autoWrap = set
			if !set {
				v.wrapNext = false
			}
		case 12: // cursor blink, renderer concern
		case 25: // DECTCEM - Text Cursor Enable
			if v.cursorVisible != set {
				v.cursorVisible = set
				v.MarkDirty(v.cursorY)
			}
		case 47: // legacy alternate screen, no cursor save
			if set {
				v.enterAltScreen(false)
			} else {
				v.exitAltScreen(false)
			}
		case 1000, 1002, 1003, 1004, 1005, 1006, 1015:
			// mouse and focus reporting are host concerns
		case 1047:
			if set {
				v.enterAltScreen(false)
			} else {
				v.exitAltScreen(false)
			}
		case 1048:
			if set {
				v.SaveCursor()
			} else {
				v.RestoreCursor()
			}
		case 1049: // alternate screen with cursor save/restore
			if set {
				v.enterAltScreen(true)
			} else {
				v.exitAltScreen(true)
			}
		case 2004: // bracketed paste
			v.setBracketedPaste(set)
		case 2026: // synchronized updates, rendering already snapshots
		default:
			log.Printf("Parser: unhandled private mode ?%d%c", mode, command)
		}
	}
}

// enterAltScreen switches display to a fresh alternate grid. The primary
// screen and its scrollback stay untouched underneath; nothing written to
// the alternate screen ever reaches scrollback.
func (v *VTerm) enterAltScreen(saveCursor bool) {
	if v.inAlt {
		return
	}
	if saveCursor {
		v.SaveCursor()
	}
	v.alt = v.newGrid()
	v.inAlt = true
	v.viewOffset = 0
	v.savedAlt = savedCursor{}
	v.SetCursorPos(0, 0)
	v.lastValid = false
	v.MarkAllDirty()
}

// exitAltScreen discards the alternate grid and returns to the primary
// screen exactly as it was left.
func (v *VTerm) exitAltScreen(restoreCursor bool) {
	if !v.inAlt {
		return
	}
	v.inAlt = false
	v.alt = nil
	if restoreCursor {
		v.RestoreCursor()
	}
	v.wrapNext = false
	v.lastValid = false
	v.MarkAllDirty()
}
