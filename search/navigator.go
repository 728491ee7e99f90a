// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: search/navigator.go
// Summary: Cursor over search matches with wrap-around next/prev.

package search

// Navigator steps through a Result's matches. Matches arrive ordered
// oldest line first, so Next moves toward newer output and wraps.
type Navigator struct {
	result Result
	index  int
}

// NewNavigator positions on the first match, or nowhere (index -1)
// for an empty result.
func NewNavigator(r Result) *Navigator {
	n := &Navigator{result: r, index: -1}
	if len(r.Matches) > 0 {
		n.index = 0
	}
	return n
}

// Result returns the underlying search result.
func (n *Navigator) Result() Result { return n.result }

// Len returns the number of matches.
func (n *Navigator) Len() int { return len(n.result.Matches) }

// Index returns the current position, -1 when empty.
func (n *Navigator) Index() int { return n.index }

// Current returns the selected match.
func (n *Navigator) Current() (Match, bool) {
	if n.index < 0 || n.index >= len(n.result.Matches) {
		return Match{}, false
	}
	return n.result.Matches[n.index], true
}

// Next advances to the following match, wrapping to the first.
func (n *Navigator) Next() (Match, bool) {
	if len(n.result.Matches) == 0 {
		return Match{}, false
	}
	n.index = (n.index + 1) % len(n.result.Matches)
	return n.result.Matches[n.index], true
}

// Prev steps back to the previous match, wrapping to the last.
func (n *Navigator) Prev() (Match, bool) {
	if len(n.result.Matches) == 0 {
		return Match{}, false
	}
	n.index--
	if n.index < 0 {
		n.index = len(n.result.Matches) - 1
	}
	return n.result.Matches[n.index], true
}

// JumpTo selects a match by position.
func (n *Navigator) JumpTo(i int) (Match, bool) {
	if i < 0 || i >= len(n.result.Matches) {
		return Match{}, false
	}
	n.index = i
	return n.result.Matches[i], true
}
