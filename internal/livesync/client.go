package livesync

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/jasoncui/notion-blog/internal/models"
)

// Feed is a websocket connection to a draft's live comment feed. It decodes
// events onto a channel until the connection drops or Close is called.
type Feed struct {
	conn   *websocket.Conn
	events chan models.CommentEvent
}

// Dial connects to the draft live endpoint (ws:// or wss:// URL of
// /api/draft/{slug}/live), authenticating with the draft token header.
// Reconnection is the caller's concern; a dropped feed just closes Events.
func Dial(ctx context.Context, rawURL, token string) (*Feed, error) {
	header := http.Header{}
	header.Set("token", token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, rawURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("livesync: dial %s: status %d: %w", rawURL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("livesync: dial %s: %w", rawURL, err)
	}

	f := &Feed{
		conn:   conn,
		events: make(chan models.CommentEvent, 64),
	}
	go f.readLoop()
	return f, nil
}

// Events returns the decoded event stream. The channel closes when the
// connection ends.
func (f *Feed) Events() <-chan models.CommentEvent {
	return f.events
}

// Close tears the connection down and drains the read loop.
func (f *Feed) Close() error {
	return f.conn.Close()
}

func (f *Feed) readLoop() {
	defer close(f.events)
	for {
		var ev models.CommentEvent
		if err := f.conn.ReadJSON(&ev); err != nil {
			return
		}
		f.events <- ev
	}
}
