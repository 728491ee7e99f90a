// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: parser/scrollback.go
// Summary: Fixed-capacity ring buffer of lines evicted from the primary screen.

package parser

// scrollbackRing stores lines pushed off the top of the primary screen.
// It is a circular buffer: once max lines are held, each push evicts the
// oldest line. Index 0 is always the oldest retained line.
type scrollbackRing struct {
	lines []Line
	head  int // index of the oldest line
	count int
	max   int
}

func newScrollbackRing(max int) *scrollbackRing {
	if max < 0 {
		max = 0
	}
	return &scrollbackRing{max: max}
}

// Push appends a line, evicting the oldest when the ring is full.
// Returns true when an eviction happened.
func (s *scrollbackRing) Push(l Line) bool {
	if s.max == 0 {
		return false
	}
	if s.count < s.max {
		if len(s.lines) < s.max {
			s.lines = append(s.lines, l)
		} else {
			s.lines[(s.head+s.count)%s.max] = l
		}
		s.count++
		return false
	}
	s.lines[s.head] = l
	s.head = (s.head + 1) % s.max
	return true
}

// Get returns the i-th line, 0 = oldest. Out-of-range returns nil.
func (s *scrollbackRing) Get(i int) Line {
	if i < 0 || i >= s.count {
		return nil
	}
	return s.lines[(s.head+i)%s.max]
}

// Len is the number of lines currently retained.
func (s *scrollbackRing) Len() int {
	return s.count
}

// Max is the configured capacity.
func (s *scrollbackRing) Max() int {
	return s.max
}

// Clear drops all retained lines.
func (s *scrollbackRing) Clear() {
	s.lines = nil
	s.head = 0
	s.count = 0
}

// Drain removes and returns all lines oldest-first, leaving the ring empty.
// Used by resize reflow, which rebuilds the ring at the new width.
func (s *scrollbackRing) Drain() []Line {
	out := make([]Line, 0, s.count)
	for i := 0; i < s.count; i++ {
		out = append(out, s.lines[(s.head+i)%s.max])
	}
	s.Clear()
	return out
}
