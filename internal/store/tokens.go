package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jasoncui/notion-blog/internal/apperr"
	"github.com/jasoncui/notion-blog/internal/models"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewTokenValue generates a 32-character alphanumeric draft token.
//
// TODO: move token generation to crypto/rand; math/rand matches the
// deployed behavior but is guessable in principle.
func NewTokenValue() string {
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = tokenAlphabet[rand.Intn(len(tokenAlphabet))]
	}
	return string(buf)
}

// ActiveToken returns the most recent active token for a document, or
// apperr.ErrNotFound when none exists. Expiry is the caller's concern: an
// expired-but-active row is still returned so the service can replace it.
func (s *Store) ActiveToken(documentID string) (*models.DraftToken, error) {
	row := s.conn.QueryRow(`
		SELECT id, token, document_id, slug, title, expires_at, is_active, created_at
		FROM draft_tokens
		WHERE document_id = ? AND is_active = 1
		ORDER BY created_at DESC
		LIMIT 1
	`, documentID)
	return scanToken(row)
}

// TokenByValue looks up an active token by its bearer value. Inactive and
// unknown tokens both come back as apperr.ErrNotFound.
func (s *Store) TokenByValue(token string) (*models.DraftToken, error) {
	row := s.conn.QueryRow(`
		SELECT id, token, document_id, slug, title, expires_at, is_active, created_at
		FROM draft_tokens
		WHERE token = ? AND is_active = 1
	`, token)
	return scanToken(row)
}

// CreateToken inserts a new token row.
func (s *Store) CreateToken(t *models.DraftToken) error {
	var expires any
	if !t.ExpiresAt.IsZero() {
		expires = t.ExpiresAt.UTC()
	}
	_, err := s.conn.Exec(`
		INSERT INTO draft_tokens (id, token, document_id, slug, title, expires_at, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Token, t.DocumentID, t.Slug, t.Title, expires, boolInt(t.IsActive), t.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("store: create token: %w", err)
	}
	return nil
}

// DeactivateToken marks a token inactive. Used when an expired token is
// replaced at mint time.
func (s *Store) DeactivateToken(id string) error {
	_, err := s.conn.Exec(`UPDATE draft_tokens SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: deactivate token: %w", err)
	}
	return nil
}

func scanToken(row *sql.Row) (*models.DraftToken, error) {
	var t models.DraftToken
	var expires sql.NullTime
	var active int
	err := row.Scan(&t.ID, &t.Token, &t.DocumentID, &t.Slug, &t.Title, &expires, &active, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan token: %w", err)
	}
	if expires.Valid {
		t.ExpiresAt = expires.Time
	}
	t.IsActive = active != 0
	return &t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// TokenTTL is the default validity window for freshly minted tokens.
const TokenTTL = 7 * 24 * time.Hour
