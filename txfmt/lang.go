// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: txfmt/lang.go
// Summary: Language inference for source-code output. Shebang first,
// then cheap high-precision heuristics, then go-enry's Bayesian
// classifier over a fixed candidate set.

package txfmt

import (
	"regexp"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// minCodeSampleLines is how many lines the classifier needs before its
// verdict is trusted. Shebangs and heuristics may fire earlier.
const minCodeSampleLines = 3

// classifierCandidates narrows enry's Bayesian classifier to languages
// that plausibly show up in terminal output. Names are linguist
// canonical and lowercase to chroma lexer aliases.
var classifierCandidates = []string{
	"Go", "Python", "Rust", "JavaScript", "TypeScript", "Ruby", "Java",
	"C", "C++", "C#", "Shell", "PHP", "Kotlin", "Swift", "Scala",
	"Haskell", "Lua", "Perl", "R", "SQL", "HTML", "CSS", "Markdown",
}

var reGoPackage = regexp.MustCompile(`^package\s+[A-Za-z_]\w*$`)

// inferResult is what language inference found and how. name is empty
// when nothing was confident enough; method is one of "shebang",
// "heuristic" or "classifier".
type inferResult struct {
	name   string
	method string
}

// inferLanguage guesses the language of the sampled lines. The name is
// lowercased so it doubles as a chroma lexer name.
func inferLanguage(lines []string) inferResult {
	if len(lines) == 0 {
		return inferResult{}
	}
	content := []byte(strings.Join(lines, "\n"))

	if strings.HasPrefix(lines[0], "#!") {
		if lang, _ := enry.GetLanguageByShebang(content); lang != enry.OtherLanguage {
			return inferResult{name: strings.ToLower(lang), method: "shebang"}
		}
	}

	first := firstNonBlank(lines)
	if reGoPackage.MatchString(first) {
		return inferResult{name: "go", method: "heuristic"}
	}
	if strings.HasPrefix(first, "diff --git ") {
		return inferResult{name: "diff", method: "heuristic"}
	}

	// The classifier always ranks some candidate first, so a one or two
	// line sample is not enough to call it.
	if len(lines) < minCodeSampleLines {
		return inferResult{}
	}
	if lang, _ := enry.GetLanguageByClassifier(content, classifierCandidates); lang != enry.OtherLanguage {
		return inferResult{name: strings.ToLower(lang), method: "classifier"}
	}
	return inferResult{}
}

func firstNonBlank(lines []string) string {
	for _, ln := range lines {
		if t := strings.TrimSpace(ln); t != "" {
			return t
		}
	}
	return ""
}

// codeKeywords are first words that mark a line as code-like.
var codeKeywords = map[string]bool{
	"package": true, "import": true, "from": true, "use": true,
	"func": true, "fn": true, "def": true, "class": true, "struct": true,
	"impl": true, "type": true, "let": true, "var": true, "const": true,
	"pub": true, "public": true, "private": true, "static": true,
	"return": true, "if": true, "else": true, "for": true, "while": true,
	"#include": true, "export": true, "module": true, "require": true,
}

// looksLikeCode reports whether the sampled lines read like source code
// rather than prose. It gates the classifier so ordinary command output
// is not force-fed into language detection.
func looksLikeCode(lines []string) bool {
	nonBlank := 0
	codeish := 0
	for _, ln := range lines {
		trimmed := strings.TrimSpace(ln)
		if trimmed == "" {
			continue
		}
		nonBlank++
		if lineLooksCodelike(ln, trimmed) {
			codeish++
		}
	}
	return nonBlank > 0 && codeish*2 > nonBlank
}

func lineLooksCodelike(raw, trimmed string) bool {
	if strings.HasPrefix(raw, "    ") || strings.HasPrefix(raw, "\t") {
		return true
	}
	switch trimmed[len(trimmed)-1] {
	case '{', '}', ';', ':', ')':
		return true
	}
	if codeKeywords[firstWord(trimmed)] {
		return true
	}
	if strings.Contains(trimmed, "::") || strings.Contains(trimmed, "->") || strings.Contains(trimmed, " := ") {
		return true
	}
	return false
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}
