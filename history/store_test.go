// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewStore(DefaultStoreConfig(path))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func addCommand(t *testing.T, store *SQLiteStore, session, command string) {
	t.Helper()
	if err := store.Add(Entry{SessionID: session, Command: command}); err != nil {
		t.Fatalf("Add(%q): %v", command, err)
	}
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	for i := 1; i <= 50; i++ {
		addCommand(t, store, "s1", fmt.Sprintf("cmd-%d", i))
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("Recent returned %d entries, want 10", len(got))
	}
	for i, e := range got {
		want := fmt.Sprintf("cmd-%d", 50-i)
		if e.Command != want {
			t.Errorf("entry %d = %q, want %q", i, e.Command, want)
		}
	}
}

func TestEmptyCommandsAreDropped(t *testing.T) {
	store := newTestStore(t)
	addCommand(t, store, "s1", "")
	addCommand(t, store, "s1", "   \t ")
	addCommand(t, store, "s1", "real")
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Command != "real" {
		t.Fatalf("expected only the real command, got %v", got)
	}
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	store := newTestStore(t)
	addCommand(t, store, "s1", "git status")
	addCommand(t, store, "s1", "ls -la")
	addCommand(t, store, "s1", "git commit -m fix")
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := store.Search(context.Background(), "GIT", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search found %d entries, want 2", len(got))
	}
	if got[0].Command != "git commit -m fix" || got[1].Command != "git status" {
		t.Fatalf("Search order wrong: %v", got)
	}
}

func TestSearchEscapesLikeWildcards(t *testing.T) {
	store := newTestStore(t)
	addCommand(t, store, "s1", "echo 100% done")
	addCommand(t, store, "s1", "echo percent")
	addCommand(t, store, "s1", "ls my_file")
	addCommand(t, store, "s1", "ls myXfile")
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := store.Search(context.Background(), "100%", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Command != "echo 100% done" {
		t.Fatalf("%% should match literally, got %v", got)
	}

	got, err = store.Search(context.Background(), "my_file", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Command != "ls my_file" {
		t.Fatalf("_ should match literally, got %v", got)
	}
}

func TestSessionIsChronological(t *testing.T) {
	store := newTestStore(t)
	addCommand(t, store, "a", "first")
	addCommand(t, store, "b", "other session")
	addCommand(t, store, "a", "second")
	addCommand(t, store, "a", "third")
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := store.Session(context.Background(), "a")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("Session returned %d entries, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.Command != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Command, want[i])
		}
		if e.SessionID != "a" {
			t.Errorf("entry %d leaked from session %q", i, e.SessionID)
		}
	}
}

func TestClearAll(t *testing.T) {
	store := newTestStore(t)
	addCommand(t, store, "s1", "doomed")
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := store.ClearAll(context.Background()); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	got, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %v", got)
	}
}

func TestClearBefore(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	old := Entry{SessionID: "s1", Command: "old", StartedAt: now.Add(-2 * time.Hour)}
	recent := Entry{SessionID: "s1", Command: "recent", StartedAt: now}
	if err := store.Add(old); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add(recent); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if err := store.ClearBefore(context.Background(), now.Add(-time.Hour)); err != nil {
		t.Fatalf("ClearBefore: %v", err)
	}
	got, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Command != "recent" {
		t.Fatalf("expected only the recent command, got %v", got)
	}
}

func TestCloseDrainsPendingWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewStore(DefaultStoreConfig(path))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Add(Entry{SessionID: "s1", Command: "survives close"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(DefaultStoreConfig(path))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Command != "survives close" {
		t.Fatalf("pending write lost across close, got %v", got)
	}
}

func TestOperationsAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewStore(DefaultStoreConfig(path))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := store.Add(Entry{SessionID: "s1", Command: "late"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Add after close = %v, want ErrClosed", err)
	}
	if err := store.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush after close = %v, want ErrClosed", err)
	}
	if err := store.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close = %v, want ErrClosed", err)
	}
}

func TestEndedAtRoundTrip(t *testing.T) {
	store := newTestStore(t)
	started := time.Now().Add(-time.Minute)
	ended := time.Now()
	if err := store.Add(Entry{
		SessionID: "s1",
		Command:   "sleep 60",
		ExitCode:  130,
		StartedAt: started,
		EndedAt:   ended,
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one entry, got %d", len(got))
	}
	e := got[0]
	if e.ExitCode != 130 {
		t.Errorf("ExitCode = %d, want 130", e.ExitCode)
	}
	if !e.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", e.StartedAt, started)
	}
	if !e.EndedAt.Equal(ended) {
		t.Errorf("EndedAt = %v, want %v", e.EndedAt, ended)
	}
}
