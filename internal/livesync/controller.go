// Package livesync reconciles a reviewer's local comment state against the
// draft's live change feed.
package livesync

import (
	"context"
	"sync"

	"github.com/jasoncui/notion-blog/internal/models"
)

// State is the controller's position in its subscription lifecycle.
type State int

// Lifecycle: Disconnected -> Subscribing -> Subscribed -> Disconnected.
const (
	Disconnected State = iota
	Subscribing
	Subscribed
)

func (s State) String() string {
	switch s {
	case Subscribing:
		return "subscribing"
	case Subscribed:
		return "subscribed"
	default:
		return "disconnected"
	}
}

// Controller owns one draft view's local comment list and applies feed
// events to it. Events and reads may arrive from different goroutines; a
// mutex serializes them the way a single event loop would.
type Controller struct {
	mu       sync.Mutex
	state    State
	comments []models.Comment
}

// NewController creates a controller in the Disconnected state.
func NewController() *Controller {
	return &Controller{}
}

// SetComments replaces local state with the result of an initial fetch.
func (c *Controller) SetComments(comments []models.Comment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.comments = append([]models.Comment(nil), comments...)
}

// Comments returns a copy of the local comment list.
func (c *Controller) Comments() []models.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Comment(nil), c.comments...)
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Apply reconciles one feed event into local state. The feed delivers
// at-least-once, so every arm is idempotent: a duplicate insert, update, or
// delete leaves state unchanged.
func (c *Controller) Apply(ev models.CommentEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case models.EventCreated:
		for _, existing := range c.comments {
			if existing.ID == ev.Comment.ID {
				return
			}
		}
		c.comments = append(c.comments, ev.Comment)

	case models.EventUpdated:
		for i, existing := range c.comments {
			if existing.ID == ev.Comment.ID {
				c.comments[i] = ev.Comment
				return
			}
		}

	case models.EventDeleted:
		kept := c.comments[:0]
		for _, existing := range c.comments {
			if existing.ID != ev.Comment.ID {
				kept = append(kept, existing)
			}
		}
		c.comments = kept
	}
}

// Run consumes events until ctx is cancelled or the channel closes, then
// returns to Disconnected. The caller owns the channel's lifecycle (its
// subscription or connection) and must release it after Run returns.
func (c *Controller) Run(ctx context.Context, events <-chan models.CommentEvent) {
	c.setState(Subscribing)
	defer c.setState(Disconnected)

	c.setState(Subscribed)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.Apply(ev)
		}
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
