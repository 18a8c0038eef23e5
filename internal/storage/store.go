// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/morganforge/grokwire/internal/model"
	"github.com/morganforge/grokwire/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	model         TEXT NOT NULL DEFAULT '',
	system_prompt TEXT NOT NULL DEFAULT '',
	unread        INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id               TEXT PRIMARY KEY,
	conversation_id  TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	position         INTEGER NOT NULL,
	role             TEXT NOT NULL,
	content          TEXT NOT NULL,
	timestamp        TEXT NOT NULL,
	token_count      INTEGER NOT NULL DEFAULT 0,
	thinking_seconds INTEGER NOT NULL DEFAULT 0,
	ttft_ms          INTEGER NOT NULL DEFAULT 0,
	duration_ms      INTEGER NOT NULL DEFAULT 0,
	tokens_per_sec   REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages(conversation_id, position);
`

// =============================================================================
// STORE
// =============================================================================

// Store handles conversation persistence in SQLite.
type Store struct {
	db *sql.DB

	// MaxConversations limits stored conversations (0 = unlimited).
	MaxConversations int
}

// Open opens (creating if needed) the database at the given path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; SQLite serializes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, MaxConversations: 100}, nil
}

// OpenDefault opens the database at ~/.grokwire/grokwire.db.
func OpenDefault() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(homeDir, ".grokwire", "grokwire.db"))
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists a conversation and all its messages, replacing any
// previous version, and returns the conversation ID.
func (s *Store) Save(conv *model.Conversation) (string, error) {
	if conv.ID == "" {
		return "", &ConversationError{Message: "conversation has no id"}
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}
	conv.UpdatedAt = time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO conversations (id, title, model, system_prompt, unread, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			model = excluded.model,
			system_prompt = excluded.system_prompt,
			unread = excluded.unread,
			updated_at = excluded.updated_at`,
		conv.ID, conv.GetTitle(), conv.Model, conv.SystemPrompt,
		boolToInt(conv.Unread), formatTime(conv.CreatedAt), formatTime(conv.UpdatedAt))
	if err != nil {
		return "", fmt.Errorf("failed to upsert conversation: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conv.ID); err != nil {
		return "", fmt.Errorf("failed to clear old messages: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (id, conversation_id, position, role, content, timestamp,
			token_count, thinking_seconds, ttft_ms, duration_ms, tokens_per_sec)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range conv.Messages {
		_, err := stmt.Exec(msg.ID, conv.ID, i, msg.Role.String(), msg.GetDisplayContent(),
			formatTime(msg.Timestamp), msg.TokenCount, msg.ThinkingSeconds,
			msg.TTFT.Milliseconds(), msg.TotalDuration.Milliseconds(), msg.TokensPerSec)
		if err != nil {
			return "", fmt.Errorf("failed to insert message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	if s.MaxConversations > 0 {
		s.enforceLimit()
	}
	return conv.ID, nil
}

// enforceLimit removes the oldest conversations if over the limit.
func (s *Store) enforceLimit() {
	s.db.Exec(`
		DELETE FROM conversations WHERE id IN (
			SELECT id FROM conversations
			ORDER BY updated_at DESC
			LIMIT -1 OFFSET ?
		)`, s.MaxConversations)
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a conversation with all its messages by ID.
func (s *Store) Load(id string) (*model.Conversation, error) {
	conv := &model.Conversation{ID: id}

	var unread int
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT title, model, system_prompt, unread, created_at, updated_at
		FROM conversations WHERE id = ?`, id).
		Scan(&conv.Title, &conv.Model, &conv.SystemPrompt, &unread, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	conv.Unread = unread != 0
	conv.CreatedAt = parseTime(createdAt)
	conv.UpdatedAt = parseTime(updatedAt)
	conv.MaxTokens = model.GetModelInfo(conv.Model).MaxTokens

	rows, err := s.db.Query(`
		SELECT id, role, content, timestamp, token_count, thinking_seconds,
			ttft_ms, duration_ms, tokens_per_sec
		FROM messages WHERE conversation_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg model.Message
		var role, timestamp string
		var ttftMs, durationMs int64
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &timestamp, &msg.TokenCount,
			&msg.ThinkingSeconds, &ttftMs, &durationMs, &msg.TokensPerSec); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = model.Role(role)
		msg.Timestamp = parseTime(timestamp)
		msg.TTFT = time.Duration(ttftMs) * time.Millisecond
		msg.TotalDuration = time.Duration(durationMs) * time.Millisecond
		m := msg
		conv.Messages = append(conv.Messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	return conv, nil
}

// LoadByIndex loads a conversation by list position (0 = most recent).
func (s *Store) LoadByIndex(index int) (*model.Conversation, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(metas) {
		return nil, ErrConversationNotFound
	}
	return s.Load(metas[index].ID)
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns metadata for all conversations, most recent first.
func (s *Store) List() ([]model.ConversationMeta, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.title, c.model, c.unread, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
			COALESCE((SELECT m.content FROM messages m
				WHERE m.conversation_id = c.id AND m.role = 'user'
				ORDER BY m.position LIMIT 1), '')
		FROM conversations c
		ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var metas []model.ConversationMeta
	for rows.Next() {
		var meta model.ConversationMeta
		var unread int
		var createdAt, updatedAt, preview string
		if err := rows.Scan(&meta.ID, &meta.Title, &meta.Model, &unread,
			&createdAt, &updatedAt, &meta.MessageCount, &preview); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		meta.Unread = unread != 0
		meta.CreatedAt = parseTime(createdAt)
		meta.UpdatedAt = parseTime(updatedAt)
		meta.Preview = util.TruncateRunes(preview, 80)
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Search finds conversations whose title or any message content
// contains the query, case-insensitively.
func (s *Store) Search(query string) ([]model.ConversationMeta, error) {
	if strings.TrimSpace(query) == "" {
		return s.List()
	}

	all, err := s.List()
	if err != nil {
		return nil, err
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var results []model.ConversationMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), strings.ToLower(query)) {
			results = append(results, meta)
			continue
		}
		var n int
		err := s.db.QueryRow(`
			SELECT COUNT(*) FROM messages
			WHERE conversation_id = ? AND LOWER(content) LIKE ?`,
			meta.ID, pattern).Scan(&n)
		if err == nil && n > 0 {
			results = append(results, meta)
		}
	}
	return results, nil
}

// =============================================================================
// UNREAD STATE
// =============================================================================

// MarkUnread flags a conversation that committed while inactive.
func (s *Store) MarkUnread(id string) error {
	return s.setUnread(id, 1)
}

// MarkRead clears a conversation's unread flag.
func (s *Store) MarkRead(id string) error {
	return s.setUnread(id, 0)
}

func (s *Store) setUnread(id string, v int) error {
	res, err := s.db.Exec(`UPDATE conversations SET unread = ? WHERE id = ?`, v, id)
	if err != nil {
		return fmt.Errorf("failed to update unread flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a conversation and its messages.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// Clear removes all conversations.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM conversations`)
	return err
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

