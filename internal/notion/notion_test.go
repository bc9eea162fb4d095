package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jasoncui/notion-blog/internal/apperr"
	"github.com/jasoncui/notion-blog/internal/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("secret-key", WithBaseURL(srv.URL))
}

func TestClientSendsHeaders(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Notion-Version"); got != "2022-06-28" {
			t.Errorf("Notion-Version = %q", got)
		}
		fmt.Fprint(w, `{"results":[]}`)
	})

	if _, err := c.QueryDatabase(context.Background(), "db-1"); err != nil {
		t.Fatalf("QueryDatabase: %v", err)
	}
}

func TestQueryDatabasePagination(t *testing.T) {
	calls := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body struct {
			StartCursor string `json:"start_cursor"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch calls {
		case 1:
			if body.StartCursor != "" {
				t.Errorf("first call cursor = %q", body.StartCursor)
			}
			fmt.Fprint(w, `{
				"results": [{"id":"p1","properties":{"Name":{"title":[{"plain_text":"One"}]},"Slug":{"rich_text":[{"plain_text":"one"}]}}}],
				"has_more": true,
				"next_cursor": "cur-2"
			}`)
		default:
			if body.StartCursor != "cur-2" {
				t.Errorf("second call cursor = %q", body.StartCursor)
			}
			fmt.Fprint(w, `{
				"results": [{"id":"p2","properties":{"Name":{"title":[{"plain_text":"Two"}]},"Slug":{"rich_text":[{"plain_text":"two"}]}}}],
				"has_more": false
			}`)
		}
	})

	pages, err := c.QueryDatabase(context.Background(), "db-1")
	if err != nil {
		t.Fatalf("QueryDatabase: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(pages) != 2 || pages[0].Slug != "one" || pages[1].Slug != "two" {
		t.Errorf("pages = %+v", pages)
	}
}

func TestFindPageBySlug(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"results":[
			{"id":"p1","properties":{"Slug":{"rich_text":[{"plain_text":"hello"}]},"Status":{"select":{"name":"Draft"}},"Draft Password":{"rich_text":[{"plain_text":"pw"}]}}}
		]}`)
	})

	p, err := c.FindPageBySlug(context.Background(), "db-1", "hello")
	if err != nil {
		t.Fatalf("FindPageBySlug: %v", err)
	}
	if p.ID != "p1" || p.Status != "Draft" || p.DraftPassword != "pw" {
		t.Errorf("page = %+v", p)
	}
	if p.Title != "Untitled" {
		t.Errorf("missing title should default, got %q", p.Title)
	}

	if _, err := c.FindPageBySlug(context.Background(), "db-1", "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestErrorMapping(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/pages/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"code":"rate_limited","message":"slow down"}`)
	})

	if _, err := c.GetPage(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("404 = %v, want ErrNotFound", err)
	}
	if _, err := c.GetPage(context.Background(), "any"); !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("429 = %v, want ErrUpstream", err)
	}
}

func TestBlockDecoding(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"results":[
			{"id":"b1","type":"paragraph","paragraph":{"rich_text":[
				{"plain_text":"bold","text":{"content":"bold"},"annotations":{"bold":true}},
				{"plain_text":"link","text":{"content":"link","link":{"url":"https://example.com"}}}
			]}},
			{"id":"b2","type":"to_do","to_do":{"rich_text":[{"text":{"content":"task"}}],"checked":true}},
			{"id":"b3","type":"code","code":{"rich_text":[{"text":{"content":"x := 1"}}],"language":"go"}},
			{"id":"b4","type":"image","image":{"type":"file","file":{"url":"https://s3/img.png"},"caption":[{"plain_text":"cap"}]}},
			{"id":"b5","type":"synced_block","has_children":true},
			{"id":"b6","type":"divider","divider":{}}
		]}`)
	})

	blocks, err := c.GetBlockChildren(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetBlockChildren: %v", err)
	}
	if len(blocks) != 6 {
		t.Fatalf("len = %d, want 6", len(blocks))
	}

	p := blocks[0]
	if p.Kind != models.KindParagraph || len(p.RichText) != 2 {
		t.Fatalf("paragraph = %+v", p)
	}
	if !p.RichText[0].Annotations.Bold {
		t.Error("bold annotation lost")
	}
	if p.RichText[1].Link != "https://example.com" {
		t.Errorf("link = %q", p.RichText[1].Link)
	}

	if !blocks[1].Checked {
		t.Error("to_do checked lost")
	}
	if blocks[2].Language != "go" || blocks[2].PlainText() != "x := 1" {
		t.Errorf("code = %+v", blocks[2])
	}
	if blocks[3].URL != "https://s3/img.png" || blocks[3].Caption != "cap" {
		t.Errorf("image = %+v", blocks[3])
	}
	if blocks[4].Kind != models.KindUnsupported || blocks[4].Title != "synced_block" {
		t.Errorf("unknown type = %+v", blocks[4])
	}
	if blocks[5].Kind != models.KindDivider {
		t.Errorf("divider = %+v", blocks[5])
	}
}

// fakeFetcher serves block children from a map and records fetch counts.
// Load fetches concurrently, so the counters are locked.
type fakeFetcher struct {
	mu       sync.Mutex
	children map[string][]*models.Block
	calls    map[string]int
}

func (f *fakeFetcher) GetBlockChildren(_ context.Context, blockID string) ([]*models.Block, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[blockID]++
	f.mu.Unlock()
	kids, ok := f.children[blockID]
	if !ok {
		return nil, fmt.Errorf("%w: block %q", apperr.ErrNotFound, blockID)
	}
	return kids, nil
}

func TestLoaderLoadsOneExtraLevel(t *testing.T) {
	f := &fakeFetcher{children: map[string][]*models.Block{
		"doc-1": {
			{ID: "b1", Kind: models.KindParagraph},
			{ID: "b2", Kind: models.KindToggle, HasChildren: true},
		},
		"b2": {
			{ID: "b3", Kind: models.KindParagraph},
			{ID: "b4", Kind: models.KindToggle, HasChildren: true},
		},
		"b4": {
			{ID: "b5", Kind: models.KindParagraph},
		},
	}}

	l := NewLoader(f)
	root, err := l.Load(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("top level = %d", len(root.Children))
	}

	toggle := root.Children[1]
	if len(toggle.Children) != 2 {
		t.Fatalf("one extra level not loaded: %+v", toggle)
	}

	// The second nesting level stays unresolved until Hydrate.
	inner := toggle.Children[1]
	if inner.Children != nil {
		t.Errorf("level two loaded eagerly: %+v", inner)
	}

	if err := l.Hydrate(context.Background(), root); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if len(inner.Children) != 1 || inner.Children[0].ID != "b5" {
		t.Errorf("hydrate missed b4's children: %+v", inner.Children)
	}

	// Hydrate is idempotent: already-resolved blocks are not re-fetched.
	if err := l.Hydrate(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	if f.calls["b4"] != 1 {
		t.Errorf("b4 fetched %d times, want 1", f.calls["b4"])
	}
}

func TestLoaderPropagatesErrors(t *testing.T) {
	f := &fakeFetcher{children: map[string][]*models.Block{}}
	l := NewLoader(f)
	if _, err := l.Load(context.Background(), "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
