// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/text.go
// Summary: Plain-text extraction from cells for search and selection.

package parser

import (
	"strings"
	"unicode"
)

// ExtractText flattens cells to plain text: formatting is dropped, wide
// continuations and empty cells skipped, combining marks kept with their
// base, trailing whitespace trimmed.
func ExtractText(cells []Cell) string {
	if len(cells) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(cells))
	for _, cell := range cells {
		r := cell.Rune
		if r == 0 || cell.WideCont {
			continue
		}
		if unicode.IsControl(r) && r != ' ' && r != '\t' {
			continue
		}
		sb.WriteString(cell.Cluster())
	}
	return strings.TrimRight(sb.String(), " \t")
}

// String returns the line's plain text.
func (l Line) String() string {
	return ExtractText(l)
}

// ColumnOfCluster returns the cell column where the n-th extracted
// cluster sits, so text positions map back onto screen cells. Wide
// glyphs advance the column by two. Returns -1 when n is out of range.
func ColumnOfCluster(cells []Cell, n int) int {
	seen := 0
	for x, cell := range cells {
		r := cell.Rune
		if r == 0 || cell.WideCont {
			continue
		}
		if unicode.IsControl(r) && r != ' ' && r != '\t' {
			continue
		}
		if seen == n {
			return x
		}
		seen++
	}
	return -1
}
