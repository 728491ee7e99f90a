// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: txfmt/chroma.go
// Summary: Chroma tokenization applied to flattened cell lines. Lines
// are lexed together so the lexer sees real context.

package txfmt

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/framegrace/texelterm/parser"
)

const (
	defaultStyleName = "catppuccin-mocha"
	maxChromaContext = 50 // max previous lines kept for lexer context
)

// chromaStyle resolves a style name to a chroma style, falling back to
// the default.
func chromaStyle(name string) *chroma.Style {
	if name == "" {
		name = defaultStyleName
	}
	return styles.Get(name)
}

// lineRegion tracks a line's rune span within the combined text.
type lineRegion struct {
	textStart int // rune offset in the combined text where this line starts
	fl        flatLine
}

// chromaColorizeLines tokenizes the lines together as a single block and
// applies token colors and attributes to cells in place. Multi-line
// tokenization gives the lexer full context, e.g. the package and import
// structure of Go code or heading context in markdown.
//
// Only cells with default FG are modified. Tokens whose color matches
// the style's base text color are skipped so default-FG cells keep
// following the terminal theme.
func chromaColorizeLines(lines []flatLine, lexerName string, style *chroma.Style) {
	if len(lines) == 0 {
		return
	}
	regions, fullText := buildLineRegions(lines)
	if fullText == "" {
		return
	}
	applyChromaTokens(regions, fullText, lexerName, style)
}

// chromaColorizeWithContext tokenizes a single line with previous lines
// as lexer context. Only the current line's cells are modified.
func chromaColorizeWithContext(fl flatLine, context []string, lexerName string, style *chroma.Style) {
	if len(fl.text) == 0 {
		return
	}

	var sb strings.Builder
	for _, ctx := range context {
		sb.WriteString(ctx)
		sb.WriteByte('\n')
	}
	contextRuneLen := len([]rune(sb.String()))
	sb.WriteString(string(fl.text))
	sb.WriteByte('\n') // trailing \n for line-oriented patterns

	regions := []lineRegion{{textStart: contextRuneLen, fl: fl}}
	applyChromaTokens(regions, sb.String(), lexerName, style)
}

// buildLineRegions concatenates the lines' plain text with \n separators
// and records where each line's cells live in the combined text.
func buildLineRegions(lines []flatLine) ([]lineRegion, string) {
	regions := make([]lineRegion, 0, len(lines))
	var sb strings.Builder
	runeOffset := 0

	for _, fl := range lines {
		if len(fl.text) == 0 {
			// Empty line: still emit a \n for proper line counting.
			sb.WriteByte('\n')
			runeOffset++
			continue
		}
		regions = append(regions, lineRegion{textStart: runeOffset, fl: fl})
		sb.WriteString(string(fl.text))
		runeOffset += len(fl.text)
		sb.WriteByte('\n')
		runeOffset++
	}
	return regions, sb.String()
}

// applyChromaTokens tokenizes fullText and applies colors to the cells
// behind each region. Tokens and regions are both ordered by position,
// so they are walked in parallel.
func applyChromaTokens(regions []lineRegion, fullText, lexerName string, style *chroma.Style) {
	lexer := getLexer(lexerName, fullText)
	lexer = chroma.Coalesce(lexer)

	tokens, err := chroma.Tokenise(lexer, nil, fullText)
	if err != nil {
		return
	}

	baseColour := style.Get(chroma.Text).Colour

	ri := 0
	runePos := 0

	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		tokRunes := []rune(tok.Value)
		entry := style.Get(tok.Type)

		fg, attr, hasDistinctColor := resolveTokenStyle(entry, baseColour)

		for i := range tokRunes {
			absPos := runePos + i

			for ri < len(regions) && absPos >= regions[ri].textStart+len(regions[ri].fl.cells) {
				ri++
			}
			if ri >= len(regions) {
				break
			}

			r := &regions[ri]
			localPos := absPos - r.textStart
			if localPos < 0 || localPos >= len(r.fl.cells) {
				continue // in a \n separator or before this region
			}

			c := r.fl.cells[localPos]
			if hasDistinctColor {
				if attr != 0 {
					setFGAttr(c, fg, attr)
				} else {
					setFG(c, fg)
				}
			} else if attr != 0 && isDefaultFG(c) {
				// Base text color but styled, e.g. bold markdown text.
				c.Attr |= attr
			}
		}

		runePos += len(tokRunes)
		// A token spanning a \n boundary can leave ri one region ahead.
		if ri > 0 && ri < len(regions) && runePos < regions[ri].textStart {
			ri--
		}
	}
}

// resolveTokenStyle extracts color and attributes from a style entry.
// hasDistinctColor is false when the color matches the base text color.
func resolveTokenStyle(entry chroma.StyleEntry, baseColour chroma.Colour) (parser.Color, parser.Attribute, bool) {
	var attr parser.Attribute
	if entry.Bold == chroma.Yes {
		attr |= parser.AttrBold
	}
	if entry.Italic == chroma.Yes {
		attr |= parser.AttrItalic
	}
	if entry.Underline == chroma.Yes {
		attr |= parser.AttrUnderline
	}

	if !entry.Colour.IsSet() || entry.Colour == baseColour {
		return parser.Color{}, attr, false
	}

	fg := parser.Color{
		Mode: parser.ColorModeRGB,
		R:    entry.Colour.Red(),
		G:    entry.Colour.Green(),
		B:    entry.Colour.Blue(),
	}
	return fg, attr, true
}

// getLexer returns a chroma lexer by name, or auto-detects from content.
func getLexer(name, text string) chroma.Lexer {
	if name != "" {
		if l := lexers.Get(name); l != nil {
			return l
		}
	}
	if l := lexers.Analyse(text); l != nil {
		return l
	}
	return lexers.Fallback
}
