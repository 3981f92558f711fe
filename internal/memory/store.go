// Package memory persists conversation history in SQLite so a chat can
// survive restarts.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/weissjeffm/mybot/internal/agent"
)

// Store is a SQLite-backed conversation store. Message identity follows
// the engine's upsert model: writing a message with an existing ID
// replaces its content in place without disturbing conversation order.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		action_id TEXT,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append upserts messages into a conversation. New IDs are appended in
// order; existing IDs have their content replaced in place, keeping
// their original position (SQLite preserves the rowid across ON
// CONFLICT updates).
func (s *Store) Append(ctx context.Context, conversationID string, msgs ...agent.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		conversationID, now, now); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, action_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, role = excluded.role`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, m := range msgs {
		if m.ID == "" {
			return fmt.Errorf("message without ID (role %s)", m.Role)
		}
		if _, err := stmt.ExecContext(ctx, m.ID, conversationID, string(m.Role), m.Content, m.ActionID, now); err != nil {
			return fmt.Errorf("upsert message %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// Messages returns a conversation's messages in insertion order.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]agent.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, COALESCE(action_id, '')
		FROM messages WHERE conversation_id = ? ORDER BY rowid`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []agent.Message
	for rows.Next() {
		var m agent.Message
		var role string
		if err := rows.Scan(&m.ID, &role, &m.Content, &m.ActionID); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = agent.Role(role)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Clear removes a conversation and its messages.
func (s *Store) Clear(ctx context.Context, conversationID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return tx.Commit()
}

// Stats reports row counts for the health endpoint.
func (s *Store) Stats(ctx context.Context) (map[string]any, error) {
	var conversations, messages int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&conversations); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&messages); err != nil {
		return nil, err
	}
	return map[string]any{
		"conversations": conversations,
		"messages":      messages,
	}, nil
}
