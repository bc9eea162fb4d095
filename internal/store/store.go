// Package store provides the SQLite-backed relational store for draft
// tokens and comments.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jasoncui/notion-blog/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS draft_tokens (
	id          TEXT PRIMARY KEY,
	token       TEXT NOT NULL UNIQUE,
	document_id TEXT NOT NULL,
	slug        TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	expires_at  TIMESTAMP,
	is_active   INTEGER NOT NULL DEFAULT 1,
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_draft_tokens_document ON draft_tokens(document_id, is_active);

CREATE TABLE IF NOT EXISTS comments (
	id                TEXT PRIMARY KEY,
	draft_token_id    TEXT NOT NULL,
	document_id       TEXT NOT NULL,
	block_id          TEXT NOT NULL,
	content           TEXT NOT NULL,
	author_name       TEXT NOT NULL,
	author_email      TEXT,
	author_color      TEXT NOT NULL DEFAULT '#3B82F6',
	parent_comment_id TEXT,
	selection_start   INTEGER,
	selection_end     INTEGER,
	selected_text     TEXT,
	is_resolved       INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_token ON comments(draft_token_id);
CREATE INDEX IF NOT EXISTS idx_comments_document ON comments(document_id);
`

// Gateway defines the store operations the services depend on.
type Gateway interface {
	ActiveToken(documentID string) (*models.DraftToken, error)
	TokenByValue(token string) (*models.DraftToken, error)
	CreateToken(t *models.DraftToken) error
	DeactivateToken(id string) error

	ListComments(draftTokenID string) ([]models.Comment, error)
	GetComment(id, draftTokenID string) (*models.Comment, error)
	CreateComment(c *models.Comment) error
	UpdateCommentContent(id, draftTokenID, content string) (*models.Comment, error)
	DeleteComment(id, draftTokenID string) (*models.Comment, error)

	Close() error
}

// Verify *Store satisfies Gateway at compile time.
var _ Gateway = (*Store)(nil)

// Store wraps a sql.DB with draft-review operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
