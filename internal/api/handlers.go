package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jasoncui/notion-blog/internal/apperr"
	"github.com/jasoncui/notion-blog/internal/draftservice"
)

// Handler holds the draft API route handlers.
type Handler struct {
	drafts   *draftservice.Service
	limiters *limiterPool
}

// NewHandler creates a Handler with the given per-token rate budget.
func NewHandler(drafts *draftservice.Service, rps float64, burst int) *Handler {
	return &Handler{drafts: drafts, limiters: newLimiterPool(rps, burst)}
}

// MintToken handles POST /api/draft/{slug}/token. It looks the document up
// by slug, requires draft status (and the draft password when one is set),
// and returns the existing active token or a freshly minted one.
func (h *Handler) MintToken(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	var req TokenRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body means no password

	t, err := h.drafts.MintToken(r.Context(), slug, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("Page not found"))
		case errors.Is(err, apperr.ErrForbidden):
			writeJSON(w, http.StatusForbidden, errorBody("Page is not a draft"))
		case errors.Is(err, apperr.ErrUnauthorized):
			writeJSON(w, http.StatusUnauthorized, errorBody("Invalid password"))
		default:
			slog.Error("mint token failed", slog.String("slug", slug), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("Failed to create draft token"))
		}
		return
	}

	resp := TokenResponse{Token: t.Token}
	if !t.ExpiresAt.IsZero() {
		resp.ExpiresAt = t.ExpiresAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListComments handles GET /api/draft/{slug}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	dt := draftTokenFrom(r)
	comments, err := h.drafts.ListComments(dt)
	if err != nil {
		slog.Error("list comments failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to fetch comments"))
		return
	}
	writeJSON(w, http.StatusOK, CommentsResponse{Comments: comments})
}

// CreateComment handles POST /api/draft/{slug}/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	dt := draftTokenFrom(r)
	var in draftservice.CreateCommentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid JSON body"))
		return
	}

	c, err := h.drafts.CreateComment(dt, in)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, errorBody("Missing required fields"))
			return
		}
		slog.Error("create comment failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to create comment"))
		return
	}
	writeJSON(w, http.StatusCreated, CommentResponse{Comment: c})
}

// UpdateComment handles PUT /api/draft/{slug}/comments. A comment outside
// the caller's draft scope reads as not found, never as someone else's row.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	dt := draftTokenFrom(r)
	var req UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid JSON body"))
		return
	}

	c, err := h.drafts.UpdateComment(dt, req.CommentID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrValidation):
			writeJSON(w, http.StatusBadRequest, errorBody("Missing required fields"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("Comment not found"))
		default:
			slog.Error("update comment failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("Failed to update comment"))
		}
		return
	}
	writeJSON(w, http.StatusOK, CommentResponse{Comment: c})
}

// DeleteComment handles DELETE /api/draft/{slug}/comments.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	dt := draftTokenFrom(r)
	var req DeleteCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid JSON body"))
		return
	}

	if err := h.drafts.DeleteComment(dt, req.CommentID); err != nil {
		switch {
		case errors.Is(err, apperr.ErrValidation):
			writeJSON(w, http.StatusBadRequest, errorBody("Missing comment_id"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("Comment not found"))
		default:
			slog.Error("delete comment failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("Failed to delete comment"))
		}
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ResolveAnchor handles POST /api/draft/{slug}/anchor: translate a
// run-relative browser selection into a block-relative anchor.
func (h *Handler) ResolveAnchor(w http.ResponseWriter, r *http.Request) {
	var req AnchorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid JSON body"))
		return
	}

	a, err := h.drafts.ResolveAnchor(r.Context(), req.BlockID, req.RangeRef)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrValidation):
			writeJSON(w, http.StatusBadRequest, errorBody("Selection covers no text"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("Block not found"))
		default:
			slog.Error("resolve anchor failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("Failed to resolve selection"))
		}
		return
	}
	writeJSON(w, http.StatusOK, AnchorResponse{Anchor: a})
}
