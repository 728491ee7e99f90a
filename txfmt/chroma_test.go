// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package txfmt

import (
	"testing"

	"github.com/framegrace/texelterm/parser"
)

func TestColorize_JSON_Chroma(t *testing.T) {
	rows := makeLine(`{"key": "val"}`)
	style := chromaStyle("")
	chromaColorizeLines([]flatLine{flatten(rows)}, "json", style)
	row := rows[0]

	// Some cells should be colorized with distinct colors (strings, keys)
	colored := 0
	for _, c := range row {
		if c.FG.Mode == parser.ColorModeRGB {
			colored++
		}
	}
	if colored == 0 {
		t.Error("expected chroma to colorize some cells with RGB")
	}

	// Punctuation like { and } should remain default FG (base text color skipped)
	if row[0].FG.Mode != parser.ColorModeDefault {
		t.Errorf("expected '{' to remain default FG (base color skip), got mode %d", row[0].FG.Mode)
	}

	// String content should be colored, starting at the opening quote
	if row[1].FG.Mode != parser.ColorModeRGB {
		t.Errorf("expected string quote to be RGB, got mode %d", row[1].FG.Mode)
	}
}

func TestColorize_JSON_Chroma_PreservesExistingColors(t *testing.T) {
	rows := makeLine(`{"key": "val"}`)
	existingColor := parser.Color{Mode: parser.ColorModeStandard, Value: 1} // red
	rows[0][2].FG = existingColor                                          // 'k' in "key"

	style := chromaStyle("")
	chromaColorizeLines([]flatLine{flatten(rows)}, "json", style)

	if rows[0][2].FG != existingColor {
		t.Errorf("expected pre-colored cell to be preserved, got %+v", rows[0][2].FG)
	}
}

func TestColorize_XML_Chroma(t *testing.T) {
	rows := makeLine(`<root attr="val">`)
	style := chromaStyle("")
	chromaColorizeLines([]flatLine{flatten(rows)}, "xml", style)

	colored := 0
	for _, c := range rows[0] {
		if c.Rune != ' ' && c.FG.Mode != parser.ColorModeDefault {
			colored++
		}
	}
	if colored == 0 {
		t.Error("expected chroma to colorize XML cells")
	}
}

func TestColorize_Go_MultiLineContext(t *testing.T) {
	// Multi-line tokenization should produce significantly more colored
	// tokens than single-line tokenization for Go code.
	sources := []string{
		`package main`,
		`import "fmt"`,
		`func main() {`,
		`    fmt.Println("hello")`,
		`}`,
	}
	all := make([][]parser.Line, len(sources))
	lines := make([]flatLine, len(sources))
	for i, src := range sources {
		all[i] = makeLine(src)
		lines[i] = flatten(all[i])
	}

	style := chromaStyle("")
	chromaColorizeLines(lines, "go", style)

	colored := 0
	for _, rows := range all {
		for _, c := range rows[0] {
			if c.FG.Mode == parser.ColorModeRGB {
				colored++
			}
		}
	}
	// With full context the Go lexer colors keywords, strings and names.
	// Per-line tokenization only manages one or two tokens per line.
	if colored < 10 {
		t.Errorf("expected multi-line Go to produce >=10 colored cells, got %d", colored)
	}
}

func TestColorize_WithContext_Streaming(t *testing.T) {
	style := chromaStyle("")
	context := []string{
		"package main",
		`import "fmt"`,
	}
	rows := makeLine(`func main() {`)
	chromaColorizeWithContext(flatten(rows), context, "go", style)

	colored := 0
	for _, c := range rows[0] {
		if c.FG.Mode == parser.ColorModeRGB {
			colored++
		}
	}
	if colored == 0 {
		t.Error("expected context-aware tokenization to color Go keywords")
	}
}

func TestColorize_Markdown_MultiLine(t *testing.T) {
	sources := []string{
		`# Heading`,
		`Some text with **bold** words`,
		`- list item`,
	}
	all := make([][]parser.Line, len(sources))
	lines := make([]flatLine, len(sources))
	for i, src := range sources {
		all[i] = makeLine(src)
		lines[i] = flatten(all[i])
	}

	style := chromaStyle("")
	chromaColorizeLines(lines, "markdown", style)

	headingColored := false
	for _, c := range all[0][0] {
		if c.FG.Mode == parser.ColorModeRGB || c.Attr != 0 {
			headingColored = true
			break
		}
	}
	if !headingColored {
		t.Error("expected markdown heading to be colorized with multi-line context")
	}
}

func TestChromaStyle_NeverNil(t *testing.T) {
	if chromaStyle("") == nil {
		t.Fatal("expected a style for the empty name")
	}
	if chromaStyle("no-such-style") == nil {
		t.Fatal("expected a fallback style for unknown names")
	}
}

func TestInferLanguage_Go(t *testing.T) {
	lines := []string{
		"package main",
		`import "fmt"`,
		"func main() {",
		`    fmt.Println("hello")`,
		"}",
	}
	r := inferLanguage(lines)
	if r.name != "go" {
		t.Errorf("expected 'go', got %q", r.name)
	}
	if r.method != "heuristic" {
		t.Errorf("expected method 'heuristic', got %q", r.method)
	}
}

func TestInferLanguage_Python(t *testing.T) {
	// go-enry's Bayesian classifier detects Python from content alone,
	// unlike chroma's lexers.Analyse which needs a filename match.
	lines := []string{
		"import os",
		"class MyApp:",
		"    def run(self):",
		"        pass",
	}
	r := inferLanguage(lines)
	if r.name != "python" {
		t.Errorf("expected 'python', got %q", r.name)
	}
	if r.method != "classifier" {
		t.Errorf("expected method 'classifier', got %q", r.method)
	}
}

func TestInferLanguage_Shebang(t *testing.T) {
	lines := []string{
		"#!/usr/bin/env python3",
		"import os",
		"print('hello')",
	}
	r := inferLanguage(lines)
	if r.name != "python" {
		t.Errorf("expected 'python', got %q", r.name)
	}
	if r.method != "shebang" {
		t.Errorf("expected method 'shebang', got %q", r.method)
	}
}

func TestInferLanguage_Rust(t *testing.T) {
	lines := []string{
		"use std::io;",
		"fn main() {",
		`    let mut input = String::new();`,
		`    println!("{}", input);`,
		"}",
	}
	r := inferLanguage(lines)
	if r.name != "rust" {
		t.Errorf("expected 'rust', got %q", r.name)
	}
	if r.method != "classifier" {
		t.Errorf("expected method 'classifier', got %q", r.method)
	}
}

func TestInferLanguage_TooFewLines(t *testing.T) {
	r := inferLanguage([]string{"x = 1", "y = 2"})
	if r.name != "" {
		t.Errorf("expected no verdict from two ambiguous lines, got %q", r.name)
	}
}

func TestLooksLikeCode(t *testing.T) {
	code := []string{"use std::io;", "fn main() {", "    let x = 1;"}
	if !looksLikeCode(code) {
		t.Error("expected code sample to pass the gate")
	}
	prose := []string{"hello world", "this is just text", "nothing special here"}
	if looksLikeCode(prose) {
		t.Error("expected prose to fail the gate")
	}
}
