package api

import (
	"github.com/jasoncui/notion-blog/internal/anchor"
	"github.com/jasoncui/notion-blog/internal/models"
)

// TokenRequest is the POST /api/draft/{slug}/token body.
type TokenRequest struct {
	Password string `json:"password"`
}

// TokenResponse mirrors what the draft share link flow needs.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// CommentsResponse is the GET comments payload.
type CommentsResponse struct {
	Comments []models.Comment `json:"comments"`
}

// CommentResponse wraps a single comment.
type CommentResponse struct {
	Comment *models.Comment `json:"comment"`
}

// UpdateCommentRequest is the PUT body.
type UpdateCommentRequest struct {
	CommentID string `json:"comment_id"`
	Content   string `json:"content"`
}

// DeleteCommentRequest is the DELETE body.
type DeleteCommentRequest struct {
	CommentID string `json:"comment_id"`
}

// SuccessResponse is the DELETE payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// AnchorRequest is the POST /api/draft/{slug}/anchor body: the block plus
// the browser-range-shaped selection reference.
type AnchorRequest struct {
	BlockID string `json:"block_id"`
	anchor.RangeRef
}

// AnchorResponse wraps the resolved anchor.
type AnchorResponse struct {
	Anchor models.Anchor `json:"anchor"`
}
