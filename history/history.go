// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: history/history.go
// Summary: Command history types and the store contract.

package history

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history: store closed")

// Entry is one executed command as reported by shell integration.
// EndedAt stays zero while a command is still running.
type Entry struct {
	ID        int64
	SessionID string
	Command   string
	CWD       string
	ExitCode  int
	StartedAt time.Time
	EndedAt   time.Time
}

// Store persists command history.
type Store interface {
	// Add queues an entry for insertion. Empty or whitespace-only
	// commands are dropped silently.
	Add(entry Entry) error

	// Recent returns the newest entries first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Search matches a substring against commands, case-insensitive,
	// newest first.
	Search(ctx context.Context, substr string, limit int) ([]Entry, error)

	// Session returns one session's entries in execution order.
	Session(ctx context.Context, sessionID string) ([]Entry, error)

	// ClearAll deletes everything.
	ClearAll(ctx context.Context) error

	// ClearBefore deletes entries that started before t.
	ClearBefore(ctx context.Context, t time.Time) error

	// Flush blocks until queued writes are committed.
	Flush() error

	// Close drains pending writes with a bounded timeout and closes
	// the database.
	Close() error
}
