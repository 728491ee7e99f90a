// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: search/search.go
// Summary: Text and regex search over a terminal history snapshot.
// Usage: res := search.Find(ctx, vt.HistorySnapshot(), "error", search.Options{})
//        nav := search.NewNavigator(res)

package search

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/framegrace/texelterm/parser"
)

// DefaultMaxMatches caps a search so a one-letter query over a huge
// scrollback cannot allocate without bound.
const DefaultMaxMatches = 1000

// cancelStride is how many lines run between context checks.
const cancelStride = 256

// Options selects the match mode. The zero value is a plain,
// case-insensitive search capped at DefaultMaxMatches.
type Options struct {
	Regex         bool
	CaseSensitive bool
	MaxMatches    int
}

// Match locates one occurrence: an absolute line index into the
// history snapshot plus a half-open cell column range. Wide
// characters span both of their columns.
type Match struct {
	Line  int64
	Start int
	End   int
}

// Result carries the outcome of one search run. Err is non-nil for a
// bad regex or a cancelled context; any matches gathered before the
// interruption are kept.
type Result struct {
	Query     string
	Matches   []Match
	Truncated bool
	Err       error
	Version   uint64
}

// Find scans the snapshot for query. An empty query returns an empty
// result with no error.
func Find(ctx context.Context, snap *parser.HistorySnapshot, query string, opts Options) Result {
	res := Result{Query: query}
	if snap != nil {
		res.Version = snap.Version
	}
	if query == "" || snap == nil || len(snap.Lines) == 0 {
		return res
	}
	max := opts.MaxMatches
	if max <= 0 {
		max = DefaultMaxMatches
	}

	matcher, err := compileMatcher(query, opts)
	if err != nil {
		res.Err = err
		return res
	}

	for i, line := range snap.Lines {
		if i%cancelStride == 0 && ctx != nil {
			if err := ctx.Err(); err != nil {
				res.Err = err
				return res
			}
		}
		idx := indexLine(line)
		if idx.text == "" {
			continue
		}
		for _, span := range matcher(idx.text) {
			res.Matches = append(res.Matches, Match{
				Line:  int64(i),
				Start: idx.columnAt(span[0]),
				End:   idx.columnEnd(span[1]),
			})
			if len(res.Matches) >= max {
				res.Truncated = true
				return res
			}
		}
	}
	return res
}

// compileMatcher returns a function yielding all non-overlapping
// byte spans of the query in a line.
func compileMatcher(query string, opts Options) (func(string) [][2]int, error) {
	if opts.Regex {
		pattern := query
		if !opts.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		return func(text string) [][2]int {
			var spans [][2]int
			for _, loc := range re.FindAllStringIndex(text, -1) {
				if loc[1] == loc[0] {
					continue
				}
				spans = append(spans, [2]int{loc[0], loc[1]})
			}
			return spans
		}, nil
	}

	if !opts.CaseSensitive && !isASCII(query) {
		// Non-ASCII case folding can change byte lengths, which would
		// skew the column mapping. Let the regexp engine fold instead.
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
		return func(text string) [][2]int {
			var spans [][2]int
			for _, loc := range re.FindAllStringIndex(text, -1) {
				spans = append(spans, [2]int{loc[0], loc[1]})
			}
			return spans
		}, nil
	}

	needle := query
	fold := !opts.CaseSensitive
	if fold {
		needle = strings.ToLower(needle)
	}
	return func(text string) [][2]int {
		hay := text
		if fold {
			hay = strings.ToLower(hay)
		}
		var spans [][2]int
		from := 0
		for {
			j := strings.Index(hay[from:], needle)
			if j < 0 {
				return spans
			}
			start := from + j
			spans = append(spans, [2]int{start, start + len(needle)})
			from = start + len(needle)
		}
	}, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// lineIndex maps byte offsets in a line's extracted text back to cell
// columns. Each entry is one grapheme cluster, so combining marks and
// wide characters resolve to the cells that display them.
type lineIndex struct {
	text   string
	starts []int
	cols   []int
	widths []int
}

func indexLine(line parser.Line) lineIndex {
	var idx lineIndex
	var b strings.Builder
	for x := 0; x < len(line); x++ {
		cell := line[x]
		if cell.WideCont || cell.Rune == 0 || cell.Rune < 0x20 {
			continue
		}
		idx.starts = append(idx.starts, b.Len())
		idx.cols = append(idx.cols, x)
		w := 1
		if cell.Wide {
			w = 2
		}
		idx.widths = append(idx.widths, w)
		b.WriteString(cell.Cluster())
	}

	text := b.String()
	trimmed := strings.TrimRight(text, " ")
	if len(trimmed) != len(text) {
		keep := 0
		for keep < len(idx.starts) && idx.starts[keep] < len(trimmed) {
			keep++
		}
		idx.starts = idx.starts[:keep]
		idx.cols = idx.cols[:keep]
		idx.widths = idx.widths[:keep]
	}
	idx.text = trimmed
	return idx
}

// columnAt returns the cell column of the cluster containing the byte
// offset.
func (idx *lineIndex) columnAt(off int) int {
	i := sort.SearchInts(idx.starts, off)
	if i < len(idx.starts) && idx.starts[i] == off {
		return idx.cols[i]
	}
	if i == 0 {
		return 0
	}
	return idx.cols[i-1]
}

// columnEnd converts an exclusive byte offset to an exclusive cell
// column. Offsets inside a cluster round up so the whole cluster
// highlights.
func (idx *lineIndex) columnEnd(off int) int {
	if len(idx.starts) == 0 {
		return 0
	}
	i := sort.SearchInts(idx.starts, off)
	if i < len(idx.starts) && idx.starts[i] == off {
		return idx.cols[i]
	}
	if i == 0 {
		return 0
	}
	return idx.cols[i-1] + idx.widths[i-1]
}
