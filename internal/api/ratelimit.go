package api

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// limiterPool keeps one token-bucket limiter per draft token value so one
// noisy reviewer cannot starve the rest.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &limiterPool{m: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = l
	return l
}

// RateLimit rejects requests beyond the per-token budget with 429.
func (h *Handler) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dt := draftTokenFrom(r)
		if dt != nil && !h.limiters.get(dt.Token).Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorBody("Too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
