// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: shortcut/action.go
// Summary: Host action identifiers and their factory-default chords.

package shortcut

import "github.com/framegrace/texelterm/keymap"

// Action names a host-level operation a shortcut can trigger.
type Action string

const (
	ActionNone            Action = ""
	ActionCopy            Action = "copy"
	ActionPaste           Action = "paste"
	ActionFind            Action = "find"
	ActionFindNext        Action = "find_next"
	ActionFindPrev        Action = "find_prev"
	ActionClearScrollback Action = "clear_scrollback"
	ActionScrollPgUp      Action = "scroll_page_up"
	ActionScrollPgDn      Action = "scroll_page_down"
	ActionScrollTop       Action = "scroll_top"
	ActionScrollBottom    Action = "scroll_bottom"
	ActionIncreaseFont    Action = "increase_font"
	ActionDecreaseFont    Action = "decrease_font"
	ActionResetFont       Action = "reset_font"
)

// defaultBindings returns the factory chord for every action. Chords
// deliberately live in Ctrl+Shift and Shift+navigation space, which
// Sequence never forwards to the child process.
func defaultBindings() map[Action]Binding {
	ctrlShift := keymap.ModCtrl | keymap.ModShift
	return map[Action]Binding{
		ActionCopy:            {Action: ActionCopy, Chord: runeChord('C', ctrlShift), Enabled: true},
		ActionPaste:           {Action: ActionPaste, Chord: runeChord('V', ctrlShift), Enabled: true},
		ActionFind:            {Action: ActionFind, Chord: runeChord('F', ctrlShift), Enabled: true},
		ActionFindNext:        {Action: ActionFindNext, Chord: keyChord(keymap.KeyF3, keymap.ModNone), Enabled: true},
		ActionFindPrev:        {Action: ActionFindPrev, Chord: keyChord(keymap.KeyF3, keymap.ModShift), Enabled: true},
		ActionClearScrollback: {Action: ActionClearScrollback, Chord: runeChord('K', ctrlShift), Enabled: true},
		ActionScrollPgUp:      {Action: ActionScrollPgUp, Chord: keyChord(keymap.KeyPgUp, keymap.ModShift), Enabled: true},
		ActionScrollPgDn:      {Action: ActionScrollPgDn, Chord: keyChord(keymap.KeyPgDn, keymap.ModShift), Enabled: true},
		ActionScrollTop:       {Action: ActionScrollTop, Chord: keyChord(keymap.KeyHome, ctrlShift), Enabled: true},
		ActionScrollBottom:    {Action: ActionScrollBottom, Chord: keyChord(keymap.KeyEnd, ctrlShift), Enabled: true},
		ActionIncreaseFont:    {Action: ActionIncreaseFont, Chord: runeChord('+', keymap.ModCtrl), Enabled: true},
		ActionDecreaseFont:    {Action: ActionDecreaseFont, Chord: runeChord('-', keymap.ModCtrl), Enabled: true},
		ActionResetFont:       {Action: ActionResetFont, Chord: runeChord('0', keymap.ModCtrl), Enabled: true},
	}
}

func runeChord(r rune, mod keymap.Modifier) Chord {
	return Chord{Key: keymap.KeyRune, Rune: r, Mod: mod}.normalized()
}

func keyChord(k keymap.Key, mod keymap.Modifier) Chord {
	return Chord{Key: k, Mod: mod}
}
