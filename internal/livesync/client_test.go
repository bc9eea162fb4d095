package livesync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jasoncui/notion-blog/internal/models"
)

// feedServer upgrades, checks the token header, and streams the given events.
func feedServer(t *testing.T, token string, events []models.CommentEvent) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("token") != token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, ev := range events {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
		// Hold the connection until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialReceivesEvents(t *testing.T) {
	srv := feedServer(t, "tok-1", []models.CommentEvent{
		{Type: models.EventCreated, DocumentID: "doc-1", Comment: models.Comment{ID: "c1", Content: "hi"}},
	})
	defer srv.Close()

	feed, err := Dial(context.Background(), wsURL(srv), "tok-1")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer feed.Close()

	select {
	case ev := <-feed.Events():
		if ev.Comment.ID != "c1" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestDialRejectedToken(t *testing.T) {
	srv := feedServer(t, "tok-1", nil)
	defer srv.Close()

	if _, err := Dial(context.Background(), wsURL(srv), "wrong"); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestControllerDrivenByFeed(t *testing.T) {
	srv := feedServer(t, "tok-1", []models.CommentEvent{
		{Type: models.EventCreated, DocumentID: "doc-1", Comment: models.Comment{ID: "c1", Content: "first"}},
		{Type: models.EventUpdated, DocumentID: "doc-1", Comment: models.Comment{ID: "c1", Content: "edited"}},
	})
	defer srv.Close()

	feed, err := Dial(context.Background(), wsURL(srv), "tok-1")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer feed.Close()

	c := NewController()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, feed.Events())

	deadline := time.Now().Add(2 * time.Second)
	for {
		got := c.Comments()
		if len(got) == 1 && got[0].Content == "edited" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("state never converged: %+v", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEventsCloseOnDisconnect(t *testing.T) {
	srv := feedServer(t, "tok-1", nil)

	feed, err := Dial(context.Background(), wsURL(srv), "tok-1")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer feed.Close()

	srv.Close()

	select {
	case _, ok := <-feed.Events():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel never closed")
	}
}
