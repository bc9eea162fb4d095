// Package draftservice coordinates draft tokens, comments, and the live
// feed for the draft-review surface.
package draftservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/jasoncui/notion-blog/internal/anchor"
	"github.com/jasoncui/notion-blog/internal/apperr"
	"github.com/jasoncui/notion-blog/internal/feed"
	"github.com/jasoncui/notion-blog/internal/metrics"
	"github.com/jasoncui/notion-blog/internal/models"
	"github.com/jasoncui/notion-blog/internal/store"
)

// DefaultAuthorColor is applied when a reviewer does not pick one.
const DefaultAuthorColor = "#3B82F6"

const draftStatus = "Draft"

// PageSource is the part of the document source the service depends on.
type PageSource interface {
	FindPageBySlug(ctx context.Context, databaseID, slug string) (*models.Page, error)
	GetPage(ctx context.Context, pageID string) (*models.Page, error)
	GetBlock(ctx context.Context, blockID string) (*models.Block, error)
}

// Service implements the draft-review operations behind the API layer.
type Service struct {
	store      store.Gateway
	source     PageSource
	broker     *feed.Broker
	databaseID string
	tokenTTL   time.Duration
	now        func() time.Time
}

// NewService creates a draft service. tokenTTL <= 0 falls back to the
// 7-day default.
func NewService(st store.Gateway, source PageSource, broker *feed.Broker, databaseID string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = store.TokenTTL
	}
	return &Service{
		store:      st,
		source:     source,
		broker:     broker,
		databaseID: databaseID,
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
}

// MintToken returns the document's existing active, unexpired token or
// mints a new one. The document must exist, be in draft status, and — when
// it carries a draft password — the supplied password must match.
func (s *Service) MintToken(ctx context.Context, slug, password string) (*models.DraftToken, error) {
	page, err := s.source.FindPageBySlug(ctx, s.databaseID, slug)
	if err != nil {
		return nil, err
	}
	if page.Status != draftStatus {
		return nil, fmt.Errorf("%w: page is not a draft", apperr.ErrForbidden)
	}
	if page.DraftPassword != "" && password != page.DraftPassword {
		return nil, fmt.Errorf("%w: invalid password", apperr.ErrUnauthorized)
	}

	now := s.now()

	// At-most-one active token per document, enforced by lookup before
	// insert rather than a DB constraint.
	existing, err := s.store.ActiveToken(page.ID)
	switch {
	case err == nil && !existing.Expired(now):
		return existing, nil
	case err == nil:
		if derr := s.store.DeactivateToken(existing.ID); derr != nil {
			return nil, derr
		}
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	t := &models.DraftToken{
		ID:         uuid.NewString(),
		Token:      store.NewTokenValue(),
		DocumentID: page.ID,
		Slug:       slug,
		Title:      page.Title,
		ExpiresAt:  now.Add(s.tokenTTL),
		IsActive:   true,
		CreatedAt:  now,
	}
	if err := s.store.CreateToken(t); err != nil {
		return nil, err
	}
	metrics.TokensMinted.Inc()
	return t, nil
}

// Authorize validates a bearer token for a slug. Unknown, inactive, and
// expired tokens are all ErrUnauthorized, and so is a live token presented
// against a different document's slug — a valid token never silently scopes
// a request to its own document.
func (s *Service) Authorize(token, slug string) (*models.DraftToken, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", apperr.ErrUnauthorized)
	}
	t, err := s.store.TokenByValue(token)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if t.Expired(s.now()) {
		return nil, fmt.Errorf("%w: token expired", apperr.ErrUnauthorized)
	}
	if slug != "" && t.Slug != slug {
		return nil, fmt.Errorf("%w: token not valid for %q", apperr.ErrUnauthorized, slug)
	}
	return t, nil
}

// AuthorizeByToken validates a bearer token with no slug cross-check, for
// the draft page route that is keyed by token alone.
func (s *Service) AuthorizeByToken(token string) (*models.DraftToken, error) {
	return s.Authorize(token, "")
}

// ListComments returns the draft's comments, creation time ascending.
func (s *Service) ListComments(dt *models.DraftToken) ([]models.Comment, error) {
	return s.store.ListComments(dt.ID)
}

// CreateCommentInput carries a reviewer's new comment.
type CreateCommentInput struct {
	BlockID         string `json:"block_id"`
	Content         string `json:"content"`
	AuthorName      string `json:"author_name"`
	AuthorEmail     string `json:"author_email"`
	AuthorColor     string `json:"author_color"`
	ParentCommentID string `json:"parent_comment_id"`
	SelectionStart  *int   `json:"selection_start"`
	SelectionEnd    *int   `json:"selection_end"`
	SelectedText    string `json:"selected_text"`
}

// Validate enforces the required fields after trimming.
func (in CreateCommentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.BlockID, validation.Required),
		validation.Field(&in.Content, validation.By(requiredTrimmed)),
		validation.Field(&in.AuthorName, validation.By(requiredTrimmed)),
	)
}

func requiredTrimmed(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// CreateComment validates, persists, and announces a new comment.
func (s *Service) CreateComment(dt *models.DraftToken, in CreateCommentInput) (*models.Comment, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	color := in.AuthorColor
	if color == "" {
		color = DefaultAuthorColor
	}

	// Threads are one level deep: a reply to a reply flattens under the
	// root comment's thread.
	parentID := in.ParentCommentID
	if parentID != "" {
		parent, err := s.store.GetComment(parentID, dt.ID)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: parent comment not found", apperr.ErrValidation)
		}
		if err != nil {
			return nil, err
		}
		if parent.ParentCommentID != "" {
			parentID = parent.ParentCommentID
		}
	}

	now := s.now()
	c := &models.Comment{
		ID:              uuid.NewString(),
		DraftTokenID:    dt.ID,
		DocumentID:      dt.DocumentID,
		BlockID:         in.BlockID,
		Content:         strings.TrimSpace(in.Content),
		AuthorName:      strings.TrimSpace(in.AuthorName),
		AuthorEmail:     strings.TrimSpace(in.AuthorEmail),
		AuthorColor:     color,
		ParentCommentID: parentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.SelectionStart != nil && in.SelectionEnd != nil && *in.SelectionEnd > *in.SelectionStart {
		c.SelectionStart = in.SelectionStart
		c.SelectionEnd = in.SelectionEnd
		c.SelectedText = in.SelectedText
	}

	if err := s.store.CreateComment(c); err != nil {
		return nil, err
	}
	metrics.CommentOps.WithLabelValues("create").Inc()
	s.publish(models.EventCreated, *c)
	return c, nil
}

// UpdateComment overwrites a comment's content. A comment outside the
// calling token's scope is ErrNotFound — authorization by scope, not by
// author identity.
func (s *Service) UpdateComment(dt *models.DraftToken, id, content string) (*models.Comment, error) {
	if id == "" || strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment_id and content are required", apperr.ErrValidation)
	}
	c, err := s.store.UpdateCommentContent(id, dt.ID, strings.TrimSpace(content))
	if err != nil {
		return nil, err
	}
	metrics.CommentOps.WithLabelValues("update").Inc()
	s.publish(models.EventUpdated, *c)
	return c, nil
}

// DeleteComment hard-deletes a comment in scope. Replies to it are left in
// place; subscribers learn about the delete from the feed event, not from
// polling.
func (s *Service) DeleteComment(dt *models.DraftToken, id string) error {
	if id == "" {
		return fmt.Errorf("%w: comment_id is required", apperr.ErrValidation)
	}
	c, err := s.store.DeleteComment(id, dt.ID)
	if err != nil {
		return err
	}
	metrics.CommentOps.WithLabelValues("delete").Inc()
	s.publish(models.EventDeleted, *c)
	return nil
}

// ResolveAnchor maps a run-relative selection reference onto a stable
// block-relative anchor, fetching the block's current runs from the source.
func (s *Service) ResolveAnchor(ctx context.Context, blockID string, ref anchor.RangeRef) (models.Anchor, error) {
	if blockID == "" {
		return models.Anchor{}, fmt.Errorf("%w: block_id is required", apperr.ErrValidation)
	}
	block, err := s.source.GetBlock(ctx, blockID)
	if err != nil {
		return models.Anchor{}, err
	}
	a, ok := anchor.Resolve(blockID, block.RichText, ref)
	if !ok {
		return models.Anchor{}, fmt.Errorf("%w: selection covers no text", apperr.ErrValidation)
	}
	return a, nil
}

// Subscribe opens a feed subscription for the token's document.
func (s *Service) Subscribe(dt *models.DraftToken) *feed.Subscription {
	return s.broker.Subscribe(dt.DocumentID)
}

func (s *Service) publish(t models.EventType, c models.Comment) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(models.CommentEvent{Type: t, DocumentID: c.DocumentID, Comment: c})
}
