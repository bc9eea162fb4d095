// Package api implements the draft-review REST API using chi.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jasoncui/notion-blog/internal/models"
)

type contextKey string

const draftTokenKey contextKey = "draft_token"

// TokenAuth validates the "token" header against the slug in the path and
// stores the resolved draft token in the request context. Invalid, expired,
// and wrong-slug tokens are all 401 before any comment operation runs.
func (h *Handler) TokenAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		dt, err := h.drafts.Authorize(r.Header.Get("token"), slug)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("Invalid or expired token"))
			return
		}
		ctx := context.WithValue(r.Context(), draftTokenKey, dt)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func draftTokenFrom(r *http.Request) *models.DraftToken {
	dt, _ := r.Context().Value(draftTokenKey).(*models.DraftToken)
	return dt
}
