// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides thread and message persistence for chatmux.
//
// Threads, messages, and navigator summaries live in a single SQLite
// database. Writes broadcast a change notification so views can re-run
// their queries, giving the reactive read semantics the UI depends on.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/chatmux/internal/message"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrThreadNotFound  = errors.New("thread not found")
	ErrThreadExists    = errors.New("thread already exists")
	ErrMessageNotFound = errors.New("message not found")
)

// =============================================================================
// STORE
// =============================================================================

// Store is the local persistent store for threads and messages.
// All writes go through the store's own API; per-thread insertion order is
// preserved by the created_at/rowid ordering of the queries.
type Store struct {
	db *sql.DB

	mu       sync.Mutex
	watchers []chan Change
}

// Change describes a store mutation, delivered to watchers.
type Change struct {
	ThreadID string
}

// Open opens (creating if necessary) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer at a time; keep a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database and all watcher channels.
func (s *Store) Close() error {
	s.mu.Lock()
	for _, ch := range s.watchers {
		close(ch)
	}
	s.watchers = nil
	s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS threads (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL,
	last_message_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	thread_id  TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	role       TEXT NOT NULL,
	parts      TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, created_at);

CREATE TABLE IF NOT EXISTS message_summaries (
	id         TEXT PRIMARY KEY,
	thread_id  TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	message_id TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_summaries_thread ON message_summaries(thread_id, created_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// =============================================================================
// CHANGE NOTIFICATION
// =============================================================================

// Watch returns a channel receiving a Change for every write. The channel is
// buffered and notifications are dropped rather than blocking a slow reader;
// a dropped notification is safe because readers re-query full state.
func (s *Store) Watch() <-chan Change {
	ch := make(chan Change, 16)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notify(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- Change{ThreadID: threadID}:
		default:
		}
	}
}

// =============================================================================
// THREAD OPERATIONS
// =============================================================================

// CreateThread creates a thread row with a caller-supplied id.
func (s *Store) CreateThread(id string) error {
	if exists, err := s.ThreadExists(id); err != nil {
		return err
	} else if exists {
		return ErrThreadExists
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO threads (id, title, created_at, updated_at, last_message_at)
		 VALUES (?, '', ?, ?, ?)`,
		id, now, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create thread %s: %w", id, err)
	}
	s.notify(id)
	return nil
}

// ThreadExists reports whether a thread row exists.
func (s *Store) ThreadExists(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM threads WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetThread loads a thread by id.
func (s *Store) GetThread(id string) (*message.Thread, error) {
	t := &message.Thread{}
	err := s.db.QueryRow(
		`SELECT id, title, created_at, updated_at, last_message_at
		 FROM threads WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &t.CreatedAt, &t.UpdatedAt, &t.LastMessageAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListThreads returns all threads, most recently active first.
func (s *Store) ListThreads() ([]message.Thread, error) {
	rows, err := s.db.Query(
		`SELECT id, title, created_at, updated_at, last_message_at
		 FROM threads ORDER BY last_message_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []message.Thread
	for rows.Next() {
		var t message.Thread
		if err := rows.Scan(&t.ID, &t.Title, &t.CreatedAt, &t.UpdatedAt, &t.LastMessageAt); err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// SetThreadTitle sets a thread's title (from the titling completion).
func (s *Store) SetThreadTitle(id, title string) error {
	res, err := s.db.Exec(
		`UPDATE threads SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrThreadNotFound
	}
	s.notify(id)
	return nil
}

// DeleteThread removes a thread and (via cascade) its messages and summaries.
func (s *Store) DeleteThread(id string) error {
	res, err := s.db.Exec(`DELETE FROM threads WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrThreadNotFound
	}
	s.notify(id)
	return nil
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// CreateMessage persists a message under a thread. The part list is stored
// whole, hidden parts included: Parts is the durable source of truth.
func (s *Store) CreateMessage(threadID string, msg *message.Message) error {
	parts, err := json.Marshal(msg.Parts)
	if err != nil {
		return fmt.Errorf("failed to encode parts: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO messages (id, thread_id, role, parts, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, threadID, msg.Role.String(), string(parts), msg.Content, msg.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create message %s: %w", msg.ID, err)
	}

	_, err = tx.Exec(
		`UPDATE threads SET last_message_at = ?, updated_at = ? WHERE id = ?`,
		msg.CreatedAt.UTC(), time.Now().UTC(), threadID,
	)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(threadID)
	return nil
}

// UpdateMessageParts replaces a message's parts (and derived content).
// Used by the edit flow, which swaps the record rather than mutating history
// in place anywhere else.
func (s *Store) UpdateMessageParts(id string, parts []message.Part) error {
	encoded, err := json.Marshal(parts)
	if err != nil {
		return fmt.Errorf("failed to encode parts: %w", err)
	}

	var threadID string
	err = s.db.QueryRow(`SELECT thread_id FROM messages WHERE id = ?`, id).Scan(&threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMessageNotFound
	}
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`UPDATE messages SET parts = ?, content = ? WHERE id = ?`,
		string(encoded), message.Flatten(parts), id,
	)
	if err != nil {
		return err
	}
	s.notify(threadID)
	return nil
}

// MessagesByThread returns a thread's messages in insertion order.
func (s *Store) MessagesByThread(threadID string) ([]*message.Message, error) {
	rows, err := s.db.Query(
		`SELECT id, role, parts, content, created_at
		 FROM messages WHERE thread_id = ? ORDER BY created_at, rowid`,
		threadID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*message.Message
	for rows.Next() {
		var (
			msg     message.Message
			role    string
			encoded string
		)
		if err := rows.Scan(&msg.ID, &role, &encoded, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Role = message.Role(role)
		if err := json.Unmarshal([]byte(encoded), &msg.Parts); err != nil {
			return nil, fmt.Errorf("failed to decode parts of %s: %w", msg.ID, err)
		}
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

// =============================================================================
// SUMMARY OPERATIONS
// =============================================================================

// SaveSummary stores a navigator summary for a message.
func (s *Store) SaveSummary(sum message.Summary) error {
	_, err := s.db.Exec(
		`INSERT INTO message_summaries (id, thread_id, message_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sum.ID, sum.ThreadID, sum.MessageID, sum.Content, sum.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	s.notify(sum.ThreadID)
	return nil
}

// MessageSummaries returns a thread's summaries in creation order.
func (s *Store) MessageSummaries(threadID string) ([]message.Summary, error) {
	rows, err := s.db.Query(
		`SELECT id, thread_id, message_id, content, created_at
		 FROM message_summaries WHERE thread_id = ? ORDER BY created_at, rowid`,
		threadID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sums []message.Summary
	for rows.Next() {
		var sum message.Summary
		if err := rows.Scan(&sum.ID, &sum.ThreadID, &sum.MessageID, &sum.Content, &sum.CreatedAt); err != nil {
			return nil, err
		}
		sums = append(sums, sum)
	}
	return sums, rows.Err()
}
