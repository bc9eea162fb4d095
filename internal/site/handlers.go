// Package site serves the rendered blog pages: the index, published posts,
// and the token-gated draft review view.
package site

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/jasoncui/notion-blog/internal/apperr"
	"github.com/jasoncui/notion-blog/internal/draftservice"
	"github.com/jasoncui/notion-blog/internal/highlight"
	"github.com/jasoncui/notion-blog/internal/images"
	"github.com/jasoncui/notion-blog/internal/metrics"
	"github.com/jasoncui/notion-blog/internal/models"
	"github.com/jasoncui/notion-blog/internal/notion"
	"github.com/jasoncui/notion-blog/internal/render"
)

const publishedStatus = "Published"

// Source is the part of the document source the pages read.
type Source interface {
	QueryDatabase(ctx context.Context, databaseID string) ([]*models.Page, error)
	FindPageBySlug(ctx context.Context, databaseID, slug string) (*models.Page, error)
	GetPage(ctx context.Context, pageID string) (*models.Page, error)
}

// Handler renders the HTML pages.
type Handler struct {
	source     Source
	loader     *notion.Loader
	cache      *images.Cache
	drafts     *draftservice.Service
	databaseID string
	siteTitle  string
}

// NewHandler creates the page handler. cache may be nil to skip image
// localization.
func NewHandler(source Source, loader *notion.Loader, cache *images.Cache, drafts *draftservice.Service, databaseID, siteTitle string) *Handler {
	return &Handler{
		source:     source,
		loader:     loader,
		cache:      cache,
		drafts:     drafts,
		databaseID: databaseID,
		siteTitle:  siteTitle,
	}
}

// Routes mounts the page routes on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/draft/{token}", h.Draft)
	r.Get("/{slug}", h.Post)
}

// Index handles GET /: published posts, newest first.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	pages, err := h.source.QueryDatabase(r.Context(), h.databaseID)
	if err != nil {
		h.renderError(w, err)
		return
	}

	var posts []*models.Page
	for _, p := range pages {
		if p.Status == publishedStatus && p.Slug != "" {
			posts = append(posts, p)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Published.After(posts[j].Published)
	})

	metrics.PagesRendered.WithLabelValues("index").Inc()
	h.execute(w, indexTemplate, map[string]any{
		"SiteTitle": h.siteTitle,
		"Posts":     posts,
	})
}

// Post handles GET /{slug}: one published post. Draft documents are not
// served here; they only exist behind their draft link.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page, err := h.source.FindPageBySlug(r.Context(), h.databaseID, slug)
	if err != nil {
		h.renderError(w, err)
		return
	}
	if page.Status != publishedStatus {
		h.renderError(w, apperr.ErrNotFound)
		return
	}

	root, err := h.loadBlocks(r.Context(), page.ID)
	if err != nil {
		h.renderError(w, err)
		return
	}

	metrics.PagesRendered.WithLabelValues("post").Inc()
	h.execute(w, postTemplate, map[string]any{
		"Page":    page,
		"Content": render.Blocks(root.Children),
	})
}

type commentView struct {
	models.Comment
	ContentHTML template.HTML
	Replies     []commentView
}

type blockView struct {
	ID       string
	HTML     template.HTML
	Segments []highlight.Segment
	Comments []commentView
}

// Draft handles GET /draft/{token}: the reviewer view, keyed by token
// alone. The document must still be in draft status; a published document
// invalidates its old share links.
func (h *Handler) Draft(w http.ResponseWriter, r *http.Request) {
	dt, err := h.drafts.AuthorizeByToken(chi.URLParam(r, "token"))
	if err != nil {
		h.renderError(w, err)
		return
	}

	page, err := h.source.GetPage(r.Context(), dt.DocumentID)
	if err != nil {
		h.renderError(w, err)
		return
	}
	if page.Status != "Draft" {
		h.renderError(w, apperr.ErrForbidden)
		return
	}

	root, err := h.loadBlocks(r.Context(), dt.DocumentID)
	if err != nil {
		h.renderError(w, err)
		return
	}

	comments, err := h.drafts.ListComments(dt)
	if err != nil {
		h.renderError(w, err)
		return
	}

	metrics.PagesRendered.WithLabelValues("draft").Inc()
	h.execute(w, draftTemplate, map[string]any{
		"Page":   page,
		"Blocks": buildBlockViews(root.Children, comments),
	})
}

// loadBlocks assembles the fully hydrated, image-localized block tree.
func (h *Handler) loadBlocks(ctx context.Context, documentID string) (*models.Block, error) {
	root, err := h.loader.Load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := h.loader.Hydrate(ctx, root); err != nil {
		return nil, err
	}
	if h.cache != nil {
		h.cache.Process(ctx, root.Children)
	}
	return root, nil
}

// buildBlockViews pairs each top-level block with its comment threads and,
// when anchors exist, the composed highlight segments.
func buildBlockViews(blocks []*models.Block, comments []models.Comment) []blockView {
	views := make([]blockView, 0, len(blocks))
	for _, b := range blocks {
		v := blockView{
			ID:   b.ID,
			HTML: render.Block(b),
		}
		if spans := highlight.SpansFromComments(comments, b.ID); len(spans) > 0 {
			v.Segments = highlight.Compose(b.RichText, spans)
		}
		v.Comments = threadsForBlock(comments, b.ID)
		views = append(views, v)
	}
	return views
}

// threadsForBlock groups a block's comments into one-level threads: roots
// in creation order, each with its direct replies.
func threadsForBlock(comments []models.Comment, blockID string) []commentView {
	var roots []commentView
	idx := make(map[string]int)
	for _, c := range comments {
		if c.BlockID != blockID || c.ParentCommentID != "" {
			continue
		}
		idx[c.ID] = len(roots)
		roots = append(roots, commentView{Comment: c, ContentHTML: render.Markdown(c.Content)})
	}
	for _, c := range comments {
		if c.ParentCommentID == "" {
			continue
		}
		if i, ok := idx[c.ParentCommentID]; ok {
			roots[i].Replies = append(roots[i].Replies, commentView{
				Comment:     c,
				ContentHTML: render.Markdown(c.Content),
			})
		}
	}
	return roots
}

func (h *Handler) execute(w http.ResponseWriter, t *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(w, data); err != nil {
		slog.Error("template execute failed", slog.String("template", t.Name()), slog.String("error", err.Error()))
	}
}

func (h *Handler) renderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, apperr.ErrUnauthorized):
		http.Error(w, "Invalid or expired sharing link", http.StatusUnauthorized)
	case errors.Is(err, apperr.ErrForbidden):
		http.Error(w, "This post is no longer in draft status", http.StatusForbidden)
	default:
		slog.Error("page render failed", slog.String("error", err.Error()))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
