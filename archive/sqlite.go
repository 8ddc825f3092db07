package archive

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hupe1980/agentdesk/internal/database"
)

const schema = `CREATE TABLE IF NOT EXISTS chat_history (
	id           TEXT PRIMARY KEY,
	identity     TEXT NOT NULL,
	user_message TEXT NOT NULL,
	bot_response TEXT NOT NULL,
	agent        TEXT NOT NULL,
	timestamp    DATETIME NOT NULL
)`

const index = `CREATE INDEX IF NOT EXISTS idx_chat_history_identity ON chat_history (identity, timestamp)`

// SQLiteStore archives turns in the chat_history table.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates the chat_history table if needed. The caller owns db.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if err := database.Migrate(ctx, db, schema, index); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append inserts r.
func (s *SQLiteStore) Append(ctx context.Context, r Record) error {
	r = normalize(r)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (id, identity, user_message, bot_response, agent, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Identity, r.UserMessage, r.BotResponse, r.Agent, r.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("archive: append: %w", err)
	}

	return nil
}

// History returns the newest records for identity first.
func (s *SQLiteStore) History(ctx context.Context, identity string, limit int) ([]Record, error) {
	query := `SELECT id, identity, user_message, bot_response, agent, timestamp
		FROM chat_history WHERE identity = ? ORDER BY timestamp DESC, rowid DESC`
	args := []any{identity}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("archive: history: %w", err)
	}
	defer rows.Close()

	var out []Record

	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Identity, &r.UserMessage, &r.BotResponse, &r.Agent, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("archive: scan: %w", err)
		}
		r.Timestamp = r.Timestamp.UTC()
		out = append(out, r)
	}

	return out, rows.Err()
}
