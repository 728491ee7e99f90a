// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: keymap/word.go
// Summary: Word-character classification shared by selection and
//          word-wise cursor movement.

package keymap

import "unicode"

// IsWordChar reports whether r belongs to a word for double-click
// selection purposes. Letters, digits, underscore and hyphen count,
// so paths like "my-file_v2" select as one word.
func IsWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}
