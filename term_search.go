// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term_search.go
// Summary: Async scrollback search coordinator: one in-flight search,
//          superseded or stale runs cancelled and retried.

package texelterm

import (
	"context"
	"errors"

	"github.com/framegrace/texelterm/search"
)

// maxSearchReruns bounds how often a search retries because the buffer
// moved underneath it. Beyond that the latest result ships as is; its
// Version tells the host how fresh it is.
const maxSearchReruns = 3

// SearchAsync starts a search over scrollback plus the primary screen
// and delivers the result to the callback on a background goroutine.
// Starting a new search cancels the previous one; a superseded search
// delivers nothing. When the buffer changes while a search runs, the
// search reruns on a fresh snapshot before delivering.
func (t *Term) SearchAsync(query string, opts search.Options, deliver func(search.Result)) {
	t.searchMu.Lock()
	if t.searchCancel != nil {
		t.searchCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.searchCancel = cancel
	t.searchMu.Unlock()

	go func() {
		defer cancel()

		var res search.Result
		for attempt := 0; ; attempt++ {
			t.mu.Lock()
			snap := t.vt.HistorySnapshot()
			t.mu.Unlock()

			res = search.Find(ctx, snap, query, opts)
			if res.Err != nil || attempt >= maxSearchReruns {
				break
			}

			t.mu.Lock()
			current := t.vt.ContentVersion()
			t.mu.Unlock()
			if current == res.Version {
				break
			}
		}

		if errors.Is(res.Err, context.Canceled) {
			return
		}
		if deliver != nil {
			deliver(res)
		}
	}()
}

// CancelSearch aborts any in-flight search without starting a new one.
func (t *Term) CancelSearch() {
	t.searchMu.Lock()
	if t.searchCancel != nil {
		t.searchCancel()
		t.searchCancel = nil
	}
	t.searchMu.Unlock()
}
