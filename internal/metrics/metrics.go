// Package metrics exposes Prometheus counters for the draft-review surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CommentOps counts comment mutations by operation.
	CommentOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_comment_operations_total",
		Help: "Comment operations processed, by operation.",
	}, []string{"op"})

	// TokensMinted counts freshly minted draft tokens (reuse not included).
	TokensMinted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_draft_tokens_minted_total",
		Help: "Draft tokens minted.",
	})

	// PagesRendered counts rendered blog and draft pages.
	PagesRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_pages_rendered_total",
		Help: "Pages rendered, by kind.",
	}, []string{"kind"})

	// FeedSubscribers tracks live websocket feed connections.
	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blog_feed_subscribers",
		Help: "Connected live comment feed subscribers.",
	})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
