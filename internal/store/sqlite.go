package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/rahul/sahaay/internal/conversation"
)

// SQLiteArchiver stores transcript snapshots in a SQLite database, one row
// per snapshot.
type SQLiteArchiver struct {
	DB *sql.DB
}

func NewSQLiteArchiver(dbPath string) (*SQLiteArchiver, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	query := `CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		entry_count INTEGER NOT NULL,
		body TEXT NOT NULL,
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteArchiver{DB: db}, nil
}

// SaveTranscript inserts the snapshot and returns a row reference.
func (s *SQLiteArchiver) SaveTranscript(ctx context.Context, conversationID string, entries []conversation.TranscriptEntry) (string, error) {
	body := RenderTranscript(conversationID, entries)

	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO transcripts (conversation_id, entry_count, body) VALUES (?, ?, ?)`,
		conversationID, len(entries), body)
	if err != nil {
		return "", fmt.Errorf("insert transcript: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("insert transcript: %w", err)
	}
	return fmt.Sprintf("sqlite:transcripts/%d", id), nil
}

// ListConversations returns the distinct conversation ids with saved
// snapshots, most recently saved first.
func (s *SQLiteArchiver) ListConversations(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT conversation_id FROM transcripts GROUP BY conversation_id ORDER BY MAX(saved_at) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LatestBody returns the most recent snapshot body for a conversation.
func (s *SQLiteArchiver) LatestBody(ctx context.Context, conversationID string) (string, error) {
	var body string
	err := s.DB.QueryRowContext(ctx,
		`SELECT body FROM transcripts WHERE conversation_id = ? ORDER BY saved_at DESC, id DESC LIMIT 1`,
		conversationID).Scan(&body)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no saved transcript for conversation %s", conversationID)
	}
	if err != nil {
		return "", err
	}
	return body, nil
}

func (s *SQLiteArchiver) Close() error {
	return s.DB.Close()
}
