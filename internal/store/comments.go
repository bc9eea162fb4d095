package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jasoncui/notion-blog/internal/apperr"
	"github.com/jasoncui/notion-blog/internal/models"
)

const commentColumns = `id, draft_token_id, document_id, block_id, content,
	author_name, author_email, author_color, parent_comment_id,
	selection_start, selection_end, selected_text, is_resolved,
	created_at, updated_at`

// ListComments returns every comment scoped to the draft token, creation
// time ascending.
func (s *Store) ListComments(draftTokenID string) ([]models.Comment, error) {
	rows, err := s.conn.Query(`
		SELECT `+commentColumns+`
		FROM comments
		WHERE draft_token_id = ?
		ORDER BY created_at ASC, id ASC
	`, draftTokenID)
	if err != nil {
		return nil, fmt.Errorf("store: list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// GetComment returns one comment scoped to the draft token. A comment that
// exists under a different token is apperr.ErrNotFound, never leaked.
func (s *Store) GetComment(id, draftTokenID string) (*models.Comment, error) {
	row := s.conn.QueryRow(`
		SELECT `+commentColumns+`
		FROM comments
		WHERE id = ? AND draft_token_id = ?
	`, id, draftTokenID)
	return scanComment(row)
}

// CreateComment inserts a comment row. The caller fills ID and timestamps.
func (s *Store) CreateComment(c *models.Comment) error {
	_, err := s.conn.Exec(`
		INSERT INTO comments (`+commentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.DraftTokenID, c.DocumentID, c.BlockID, c.Content,
		c.AuthorName, nullString(c.AuthorEmail), c.AuthorColor, nullString(c.ParentCommentID),
		nullInt(c.SelectionStart), nullInt(c.SelectionEnd), nullString(c.SelectedText),
		boolInt(c.IsResolved), c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("store: create comment: %w", err)
	}
	return nil
}

// UpdateCommentContent overwrites content and updated_at for a comment in
// scope and returns the updated row.
func (s *Store) UpdateCommentContent(id, draftTokenID, content string) (*models.Comment, error) {
	res, err := s.conn.Exec(`
		UPDATE comments SET content = ?, updated_at = ?
		WHERE id = ? AND draft_token_id = ?
	`, content, time.Now().UTC(), id, draftTokenID)
	if err != nil {
		return nil, fmt.Errorf("store: update comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.ErrNotFound
	}
	return s.GetComment(id, draftTokenID)
}

// DeleteComment hard-deletes a comment in scope and returns its last state
// so the caller can publish a delete event. Replies are not cascaded;
// orphaned replies remain under their root's thread.
func (s *Store) DeleteComment(id, draftTokenID string) (*models.Comment, error) {
	c, err := s.GetComment(id, draftTokenID)
	if err != nil {
		return nil, err
	}
	if _, err := s.conn.Exec(`DELETE FROM comments WHERE id = ? AND draft_token_id = ?`, id, draftTokenID); err != nil {
		return nil, fmt.Errorf("store: delete comment: %w", err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var c models.Comment
	var email, parent, selected sql.NullString
	var selStart, selEnd sql.NullInt64
	var resolved int
	err := row.Scan(
		&c.ID, &c.DraftTokenID, &c.DocumentID, &c.BlockID, &c.Content,
		&c.AuthorName, &email, &c.AuthorColor, &parent,
		&selStart, &selEnd, &selected, &resolved,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan comment: %w", err)
	}
	c.AuthorEmail = email.String
	c.ParentCommentID = parent.String
	c.SelectedText = selected.String
	if selStart.Valid {
		v := int(selStart.Int64)
		c.SelectionStart = &v
	}
	if selEnd.Valid {
		v := int(selEnd.Int64)
		c.SelectionEnd = &v
	}
	c.IsResolved = resolved != 0
	return &c, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
