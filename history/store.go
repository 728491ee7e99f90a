// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: history/store.go
// Summary: SQLite-backed command history store with async batch
//          writes.
// Usage: store, err := history.NewStore(history.DefaultStoreConfig(path))
//        defer store.Close()

package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// StoreConfig holds tuning knobs for the SQLite store.
type StoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BatchSize is the number of entries to accumulate before a write.
	// Default: 32
	BatchSize int

	// BatchTimeout is how long a partial batch may wait. Default: 500ms
	BatchTimeout time.Duration

	// ChannelBuffer is the size of the async write queue. Default: 256
	ChannelBuffer int
}

// DefaultStoreConfig returns sensible defaults.
func DefaultStoreConfig(dbPath string) StoreConfig {
	return StoreConfig{
		DBPath:        dbPath,
		BatchSize:     32,
		BatchTimeout:  500 * time.Millisecond,
		ChannelBuffer: 256,
	}
}

// closeDrainTimeout bounds how long Close waits for the writer to
// finish committing queued entries.
const closeDrainTimeout = 2 * time.Second

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS commands (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    command TEXT NOT NULL,
    cwd TEXT NOT NULL DEFAULT '',
    exit_code INTEGER NOT NULL DEFAULT 0,
    started_at INTEGER NOT NULL,   -- UnixNano
    ended_at INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_commands_session ON commands(session_id, id);
CREATE INDEX IF NOT EXISTS idx_commands_command ON commands(command);
CREATE INDEX IF NOT EXISTS idx_commands_started ON commands(started_at);
`

// SQLiteStore implements Store on a local SQLite file. Writes flow
// through a background batcher so the terminal loop never blocks on
// disk.
type SQLiteStore struct {
	config StoreConfig
	db     *sql.DB

	batchChan chan Entry
	stopCh    chan struct{}
	doneCh    chan struct{}
	flushCh   chan chan struct{}

	mu sync.RWMutex
}

// NewStore opens (creating if needed) the history database and starts
// the background writer.
func NewStore(config StoreConfig) (*SQLiteStore, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = 500 * time.Millisecond
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 256
	}

	dir := filepath.Dir(config.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := config.DBPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if err := checkSchemaVersion(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		config:    config,
		db:        db,
		batchChan: make(chan Entry, config.ChannelBuffer),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		flushCh:   make(chan chan struct{}),
	}
	go s.batchWriter()
	return s, nil
}

func checkSchemaVersion(db *sql.DB) error {
	var current int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&current)
	if err == sql.ErrNoRows {
		current = 0
	} else if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	switch {
	case current == schemaVersion:
		return nil
	case current == 0:
		if _, err := db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
		return nil
	case current > schemaVersion:
		return fmt.Errorf("history database schema version %d is newer than supported %d", current, schemaVersion)
	default:
		// Future versions migrate here.
		if _, err := db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("failed to update schema version: %w", err)
		}
		return nil
	}
}

// batchWriter runs in a background goroutine, committing entries in
// batches on size or timer.
func (s *SQLiteStore) batchWriter() {
	defer close(s.doneCh)

	batch := make([]Entry, 0, s.config.BatchSize)
	timer := time.NewTimer(s.config.BatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.writeBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-s.batchChan:
			batch = append(batch, entry)
			if len(batch) >= s.config.BatchSize {
				flush()
				timer.Reset(s.config.BatchTimeout)
			}

		case <-timer.C:
			flush()
			timer.Reset(s.config.BatchTimeout)

		case done := <-s.flushCh:
			draining := true
			for draining {
				select {
				case entry := <-s.batchChan:
					batch = append(batch, entry)
				default:
					draining = false
				}
			}
			flush()
			close(done)

		case <-s.stopCh:
			for {
				select {
				case entry := <-s.batchChan:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

// writeBatch commits a batch in a single transaction.
func (s *SQLiteStore) writeBatch(batch []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		log.Printf("History: Failed to begin transaction: %v", err)
		return
	}

	stmt, err := tx.Prepare(`
		INSERT INTO commands (session_id, command, cwd, exit_code, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		log.Printf("History: Failed to prepare statement: %v", err)
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		var ended int64
		if !e.EndedAt.IsZero() {
			ended = e.EndedAt.UnixNano()
		}
		if _, err := stmt.Exec(e.SessionID, e.Command, e.CWD, e.ExitCode, e.StartedAt.UnixNano(), ended); err != nil {
			log.Printf("History: Failed to insert command: %v", err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("History: Failed to commit batch: %v", err)
	}
}

// Add queues an entry. Empty commands are a no-op.
func (s *SQLiteStore) Add(entry Entry) error {
	if strings.TrimSpace(entry.Command) == "" {
		return nil
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}

	select {
	case <-s.stopCh:
		return ErrClosed
	default:
	}

	select {
	case s.batchChan <- entry:
		return nil
	default:
		log.Printf("History: Write queue full, dropping command")
		return nil
	}
}

// Flush blocks until every queued entry is committed.
func (s *SQLiteStore) Flush() error {
	done := make(chan struct{})
	select {
	case s.flushCh <- done:
		<-done
		return nil
	case <-s.stopCh:
		return ErrClosed
	}
}

// Close drains pending writes, waiting at most closeDrainTimeout,
// then closes the database.
func (s *SQLiteStore) Close() error {
	select {
	case <-s.stopCh:
		return ErrClosed
	default:
	}
	close(s.stopCh)

	select {
	case <-s.doneCh:
	case <-time.After(closeDrainTimeout):
		log.Printf("History: Timed out draining write queue")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Recent returns the newest entries first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, command, cwd, exit_code, started_at, ended_at
		FROM commands
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent query failed: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search matches a substring against commands, case-insensitive.
func (s *SQLiteStore) Search(ctx context.Context, substr string, limit int) ([]Entry, error) {
	if substr == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + escapeLike(substr) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, command, cwd, exit_code, started_at, ended_at
		FROM commands
		WHERE command LIKE ? ESCAPE '\'
		ORDER BY id DESC
		LIMIT ?
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Session returns one session's entries in execution order.
func (s *SQLiteStore) Session(ctx context.Context, sessionID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, command, cwd, exit_code, started_at, ended_at
		FROM commands
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session query failed: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ClearAll deletes every entry.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM commands")
	return err
}

// ClearBefore deletes entries started before t.
func (s *SQLiteStore) ClearBefore(ctx context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM commands WHERE started_at < ?", t.UnixNano())
	return err
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var started, ended int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Command, &e.CWD, &e.ExitCode, &started, &ended); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		e.StartedAt = time.Unix(0, started)
		if ended != 0 {
			e.EndedAt = time.Unix(0, ended)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
