// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term_search_test.go
// Summary: Async search coordination: delivery, supersede, cancel.

package texelterm_test

import (
	"testing"
	"time"

	"github.com/framegrace/texelterm"
	"github.com/framegrace/texelterm/search"
)

func searchTerm(t *testing.T) *texelterm.Term {
	t.Helper()
	return newFedTerm(t, 40, 10, "Hello World", "hello again", "HELLO there")
}

func TestSearchAsyncDeliversMatches(t *testing.T) {
	tm := searchTerm(t)
	ch := make(chan search.Result, 1)

	tm.SearchAsync("hello", search.Options{}, func(r search.Result) { ch <- r })
	select {
	case res := <-ch:
		if len(res.Matches) != 3 {
			t.Fatalf("insensitive matches = %d, want 3", len(res.Matches))
		}
		if res.Version != tm.Snapshot().Version {
			t.Error("result should carry the current content version")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no search result delivered")
	}

	tm.SearchAsync("hello", search.Options{CaseSensitive: true}, func(r search.Result) { ch <- r })
	select {
	case res := <-ch:
		if len(res.Matches) != 1 {
			t.Fatalf("sensitive matches = %d, want 1", len(res.Matches))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no search result delivered")
	}
}

func TestSearchAsyncEmptyQuery(t *testing.T) {
	tm := searchTerm(t)
	ch := make(chan search.Result, 1)

	tm.SearchAsync("", search.Options{}, func(r search.Result) { ch <- r })
	select {
	case res := <-ch:
		if len(res.Matches) != 0 || res.Err != nil {
			t.Fatalf("empty query gave %d matches, err %v", len(res.Matches), res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no search result delivered")
	}
}

func TestSearchAsyncBadRegex(t *testing.T) {
	tm := searchTerm(t)
	ch := make(chan search.Result, 1)

	tm.SearchAsync("(unclosed", search.Options{Regex: true}, func(r search.Result) { ch <- r })
	select {
	case res := <-ch:
		if res.Err == nil {
			t.Fatal("bad regex should deliver an error")
		}
		if len(res.Matches) != 0 {
			t.Fatalf("bad regex gave %d matches, want 0", len(res.Matches))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no search result delivered")
	}
}

func TestSearchAsyncNewQuerySupersedes(t *testing.T) {
	tm := searchTerm(t)
	ch := make(chan search.Result, 4)

	tm.SearchAsync("World", search.Options{}, func(r search.Result) { ch <- r })
	tm.SearchAsync("again", search.Options{}, func(r search.Result) { ch <- r })

	deadline := time.After(2 * time.Second)
	for {
		select {
		case res := <-ch:
			if res.Query == "again" {
				if len(res.Matches) != 1 {
					t.Fatalf("matches = %d, want 1", len(res.Matches))
				}
				return
			}
			// An already-finished first search may still deliver; skip it.
		case <-deadline:
			t.Fatal("superseding search never delivered")
		}
	}
}

func TestCancelSearchIsIdempotent(t *testing.T) {
	tm := searchTerm(t)
	tm.CancelSearch()
	tm.SearchAsync("hello", search.Options{}, nil)
	tm.CancelSearch()
	tm.CancelSearch()
}
