// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: txfmt/colorize.go
// Summary: Flattened cell view of a logical line plus the per-format
// cell colorizers. Only default-FG cells are ever repainted.

package txfmt

import (
	"regexp"
	"strings"

	"github.com/framegrace/texelterm/parser"
)

// Color constants shared by the cell colorizers.
var (
	colorRed     = parser.Color{Mode: parser.ColorModeStandard, Value: 1}
	colorGreen   = parser.Color{Mode: parser.ColorModeStandard, Value: 2}
	colorYellow  = parser.Color{Mode: parser.ColorModeStandard, Value: 3}
	colorBlue    = parser.Color{Mode: parser.ColorModeStandard, Value: 4}
	colorMagenta = parser.Color{Mode: parser.ColorModeStandard, Value: 5}
	colorCyan    = parser.Color{Mode: parser.ColorModeStandard, Value: 6}
	colorGray    = parser.Color{Mode: parser.ColorMode256, Value: 8}
)

// flatLine is the colorizable view of one logical line: the printable
// runes in order plus pointers to the live grid cells holding them.
// Wide continuations and empty cells are skipped, trailing padding is
// trimmed, so text index i and cells[i] always describe the same glyph.
type flatLine struct {
	text  []rune
	cells []*parser.Cell
}

// flatten builds the flat view over a logical line's soft-wrapped rows.
func flatten(rows []parser.Line) flatLine {
	var fl flatLine
	for _, row := range rows {
		for i := range row {
			c := &row[i]
			if c.Rune == 0 || c.WideCont {
				continue
			}
			fl.text = append(fl.text, c.Rune)
			fl.cells = append(fl.cells, c)
		}
	}
	for len(fl.text) > 0 && fl.text[len(fl.text)-1] == ' ' {
		fl.text = fl.text[:len(fl.text)-1]
		fl.cells = fl.cells[:len(fl.cells)-1]
	}
	return fl
}

// isDefaultFG returns true if the cell's foreground is the terminal default.
func isDefaultFG(c *parser.Cell) bool {
	return c.FG.Mode == parser.ColorModeDefault
}

// setFG sets a cell's foreground color if it currently has the default FG.
func setFG(c *parser.Cell, color parser.Color) {
	if isDefaultFG(c) {
		c.FG = color
	}
}

// setFGAttr sets color and attributes if the cell currently has the default FG.
func setFGAttr(c *parser.Cell, color parser.Color, attr parser.Attribute) {
	if isDefaultFG(c) {
		c.FG = color
		c.Attr |= attr
	}
}

// colorizeLogCells paints log and YAML output: timestamps faint cyan,
// level keywords in their severity color, key=value pairs blue/yellow.
func colorizeLogCells(fl flatLine) {
	if len(fl.cells) == 0 {
		return
	}
	text := string(fl.text)
	applyRegexColor(fl, text, reISOTime, colorCyan, parser.AttrFaint)
	applyRegexColor(fl, text, reSyslog, colorCyan, parser.AttrFaint)
	applyLevelColors(fl, text)
	applyKVColors(fl, text)
}

// applyRegexColor applies a color and attribute to all regex matches.
func applyRegexColor(fl flatLine, text string, re *regexp.Regexp, color parser.Color, attr parser.Attribute) {
	for _, loc := range re.FindAllStringIndex(text, -1) {
		start, end := runeIndex(text, loc[0]), runeIndex(text, loc[1])
		for ti := start; ti < end && ti < len(fl.cells); ti++ {
			setFGAttr(fl.cells[ti], color, attr)
		}
	}
}

// applyLevelColors colorizes log level keywords.
func applyLevelColors(fl flatLine, text string) {
	for _, loc := range reLevel.FindAllStringIndex(text, -1) {
		var color parser.Color
		switch strings.ToUpper(text[loc[0]:loc[1]]) {
		case "ERROR", "ERR", "FATAL":
			color = colorRed
		case "WARN", "WARNING":
			color = colorYellow
		case "INFO":
			color = colorGreen
		case "DEBUG", "TRACE":
			color = colorMagenta
		default:
			continue
		}
		start, end := runeIndex(text, loc[0]), runeIndex(text, loc[1])
		for ti := start; ti < end && ti < len(fl.cells); ti++ {
			setFGAttr(fl.cells[ti], color, parser.AttrBold)
		}
	}
}

// applyKVColors colorizes key=value pairs, key blue and value yellow.
func applyKVColors(fl flatLine, text string) {
	for _, loc := range reKV.FindAllStringIndex(text, -1) {
		matchText := text[loc[0]:loc[1]]
		eqPos := strings.Index(matchText, "=")
		if eqPos < 0 {
			continue
		}
		keyEnd := runeIndex(text, loc[0]+eqPos)
		for ti := runeIndex(text, loc[0]); ti < keyEnd && ti < len(fl.cells); ti++ {
			setFG(fl.cells[ti], colorBlue)
		}
		end := runeIndex(text, loc[1])
		for ti := runeIndex(text, loc[0]+eqPos+1); ti < end && ti < len(fl.cells); ti++ {
			setFG(fl.cells[ti], colorYellow)
		}
	}
}

// runeIndex converts a byte offset in a string to a rune index.
func runeIndex(s string, byteOff int) int {
	return len([]rune(s[:byteOff]))
}

// colorizeJSONCells applies JSON syntax coloring: strings green,
// brackets cyan, separators gray, keywords magenta, numbers yellow.
// String state advances over pre-colored cells so quoting stays in sync.
func colorizeJSONCells(fl flatLine) {
	inStr := false
	esc := false
	for i := 0; i < len(fl.text); i++ {
		ch := fl.text[i]

		if inStr {
			if esc {
				esc = false
				setFG(fl.cells[i], colorGreen)
				continue
			}
			switch ch {
			case '\\':
				esc = true
			case '"':
				inStr = false
			}
			setFG(fl.cells[i], colorGreen)
			continue
		}

		switch ch {
		case '"':
			inStr = true
			setFG(fl.cells[i], colorGreen)
		case '{', '}', '[', ']':
			setFG(fl.cells[i], colorCyan)
		case ':', ',':
			setFG(fl.cells[i], colorGray)
		default:
			if n := jsonKeywordLen(fl.text, i); n > 0 {
				for j := 0; j < n; j++ {
					setFG(fl.cells[i+j], colorMagenta)
				}
				i += n - 1
			} else if isNumberStartRune(ch) {
				n := numberRunLen(fl.text, i)
				for j := 0; j < n; j++ {
					setFG(fl.cells[i+j], colorYellow)
				}
				i += n - 1
			}
		}
	}
}

// jsonKeywordLen returns the length of a true/false/null keyword
// starting at position i, or 0.
func jsonKeywordLen(text []rune, i int) int {
	for _, kw := range []string{"false", "true", "null"} {
		if runesHavePrefix(text[i:], kw) {
			return len(kw)
		}
	}
	return 0
}

func runesHavePrefix(text []rune, prefix string) bool {
	p := []rune(prefix)
	if len(text) < len(p) {
		return false
	}
	for i, r := range p {
		if text[i] != r {
			return false
		}
	}
	return true
}

func isNumberStartRune(r rune) bool {
	return (r >= '0' && r <= '9') || r == '-'
}

func numberRunLen(text []rune, start int) int {
	j := start
	for j < len(text) {
		r := text[j]
		if (r >= '0' && r <= '9') || r == '-' || r == '+' || r == '.' || r == 'e' || r == 'E' {
			j++
			continue
		}
		break
	}
	return j - start
}

// colorizeXMLCells paints tags cyan and attribute equals signs gray.
func colorizeXMLCells(fl flatLine) {
	inTag := false
	for i, ch := range fl.text {
		if !inTag {
			if ch == '<' {
				inTag = true
				setFG(fl.cells[i], colorCyan)
			}
			continue
		}
		if ch == '>' {
			inTag = false
			setFG(fl.cells[i], colorCyan)
			continue
		}
		if ch == '=' {
			setFG(fl.cells[i], colorGray)
			continue
		}
		setFG(fl.cells[i], colorCyan)
	}
}

// colorizeTableCells paints the header row bold cyan and highlights
// numbers in the data rows. lineNum counts from 1 within a table.
func colorizeTableCells(fl flatLine, lineNum int) {
	if lineNum == 1 {
		for _, c := range fl.cells {
			setFGAttr(c, colorCyan, parser.AttrBold)
		}
		return
	}
	for i, ch := range fl.text {
		if (ch >= '0' && ch <= '9') || ch == '.' {
			setFG(fl.cells[i], colorYellow)
		}
	}
}
