// Package feed implements the in-process change feed for comment events.
// The store gateway publishes insert/update/delete notifications here and
// each mounted draft view subscribes to its document's topic.
package feed

import (
	"sync/atomic"

	"github.com/jasoncui/notion-blog/internal/models"
)

// Subscription is a scoped handle on one document's event stream. Callers
// must Close it when the view unmounts; an unreleased subscription leaks a
// live channel per page visit.
type Subscription struct {
	C          <-chan models.CommentEvent
	ch         chan models.CommentEvent
	documentID string
	broker     *Broker
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.broker.unsubscribe(s.documentID, s.ch)
}

type subReq struct {
	documentID string
	ch         chan models.CommentEvent
}

type countReq struct {
	documentID string
	resp       chan int
}

// Broker fans comment events out to per-document subscribers.
//
// Concurrency model: a single internal loop goroutine owns the subscriber
// map. Public methods communicate with the loop through channels, so no
// mutexes are required.
type Broker struct {
	subscribeCh   chan subReq
	unsubscribeCh chan subReq
	publishCh     chan models.CommentEvent
	countReqCh    chan countReq

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker and starts its event loop.
func NewBroker() *Broker {
	b := &Broker{
		subscribeCh:   make(chan subReq),
		unsubscribeCh: make(chan subReq),
		publishCh:     make(chan models.CommentEvent, 256),
		countReqCh:    make(chan countReq),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	topics := make(map[string]map[chan models.CommentEvent]struct{})

	for {
		select {
		case <-b.stopCh:
			for _, subs := range topics {
				for ch := range subs {
					close(ch)
				}
			}
			return

		case req := <-b.subscribeCh:
			subs, ok := topics[req.documentID]
			if !ok {
				subs = make(map[chan models.CommentEvent]struct{})
				topics[req.documentID] = subs
			}
			subs[req.ch] = struct{}{}

		case req := <-b.unsubscribeCh:
			if subs, ok := topics[req.documentID]; ok {
				if _, member := subs[req.ch]; member {
					delete(subs, req.ch)
					close(req.ch)
				}
				if len(subs) == 0 {
					delete(topics, req.documentID)
				}
			}

		case ev := <-b.publishCh:
			for ch := range topics[ev.DocumentID] {
				select {
				case ch <- ev:
				default:
					// Subscriber buffer full; skip rather than block
					// the broker loop. The feed is best-effort.
				}
			}

		case req := <-b.countReqCh:
			req.resp <- len(topics[req.documentID])
		}
	}
}

// Close stops the loop and closes every subscriber channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a new subscriber for one document's comment events.
func (b *Broker) Subscribe(documentID string) *Subscription {
	ch := make(chan models.CommentEvent, 64)
	sub := &Subscription{C: ch, ch: ch, documentID: documentID, broker: b}
	if b.closed.Load() {
		close(ch)
		return sub
	}
	select {
	case b.subscribeCh <- subReq{documentID: documentID, ch: ch}:
	case <-b.stopped:
		close(ch)
	}
	return sub
}

func (b *Broker) unsubscribe(documentID string, ch chan models.CommentEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- subReq{documentID: documentID, ch: ch}:
	case <-b.stopped:
	}
}

// Publish delivers an event to every subscriber of its document.
func (b *Broker) Publish(ev models.CommentEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- ev:
	case <-b.stopped:
	}
}

// SubscriberCount returns the number of subscribers on one document's topic.
func (b *Broker) SubscriberCount(documentID string) int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- countReq{documentID: documentID, resp: resp}:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}
