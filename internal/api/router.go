package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jasoncui/notion-blog/internal/draftservice"
)

// NewRouter creates a chi router with the draft API mounted. rps/burst set
// the per-token rate budget.
func NewRouter(drafts *draftservice.Service, rps float64, burst int) chi.Router {
	h := NewHandler(drafts, rps, burst)

	r := chi.NewRouter()
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
	})

	r.Route("/draft/{slug}", func(r chi.Router) {
		// Token minting is the one unauthenticated call.
		r.Post("/token", h.MintToken)

		r.Group(func(r chi.Router) {
			r.Use(h.TokenAuth)
			r.Use(h.RateLimit)

			r.Get("/comments", h.ListComments)
			r.Post("/comments", h.CreateComment)
			r.Put("/comments", h.UpdateComment)
			r.Delete("/comments", h.DeleteComment)

			r.Post("/anchor", h.ResolveAnchor)
			r.Get("/live", h.Live)
		})
	})

	return r
}
