package draftservice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jasoncui/notion-blog/internal/anchor"
	"github.com/jasoncui/notion-blog/internal/apperr"
	"github.com/jasoncui/notion-blog/internal/feed"
	"github.com/jasoncui/notion-blog/internal/models"
	"github.com/jasoncui/notion-blog/internal/testutil"
)

// fakeSource serves pages and blocks from maps.
type fakeSource struct {
	pages  map[string]*models.Page // keyed by slug
	blocks map[string]*models.Block
}

func (f *fakeSource) FindPageBySlug(_ context.Context, _, slug string) (*models.Page, error) {
	p, ok := f.pages[slug]
	if !ok {
		return nil, fmt.Errorf("%w: no page for slug %q", apperr.ErrNotFound, slug)
	}
	return p, nil
}

func (f *fakeSource) GetPage(_ context.Context, pageID string) (*models.Page, error) {
	for _, p := range f.pages {
		if p.ID == pageID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no page %q", apperr.ErrNotFound, pageID)
}

func (f *fakeSource) GetBlock(_ context.Context, blockID string) (*models.Block, error) {
	b, ok := f.blocks[blockID]
	if !ok {
		return nil, fmt.Errorf("%w: no block %q", apperr.ErrNotFound, blockID)
	}
	return b, nil
}

func testService(t *testing.T) (*Service, *fakeSource) {
	t.Helper()
	st := testutil.TestStore(t)
	broker := feed.NewBroker()
	t.Cleanup(broker.Close)

	source := &fakeSource{
		pages: map[string]*models.Page{
			"my-draft":  {ID: "doc-1", Slug: "my-draft", Title: "My draft", Status: "Draft"},
			"published": {ID: "doc-2", Slug: "published", Title: "Live post", Status: "Published"},
			"locked":    {ID: "doc-3", Slug: "locked", Title: "Locked", Status: "Draft", DraftPassword: "s3cret"},
		},
		blocks: map[string]*models.Block{
			"block-1": {ID: "block-1", Kind: models.KindParagraph, RichText: []models.TextRun{
				{Content: "The quick "}, {Content: "brown fox"},
			}},
		},
	}
	return NewService(st, source, broker, "db-1", 0), source
}

func mustMint(t *testing.T, svc *Service, slug, password string) *models.DraftToken {
	t.Helper()
	dt, err := svc.MintToken(context.Background(), slug, password)
	if err != nil {
		t.Fatalf("MintToken(%q): %v", slug, err)
	}
	return dt
}

func TestMintToken(t *testing.T) {
	svc, _ := testService(t)

	dt := mustMint(t, svc, "my-draft", "")
	if len(dt.Token) != 32 {
		t.Errorf("token length = %d, want 32", len(dt.Token))
	}
	if dt.DocumentID != "doc-1" || dt.Slug != "my-draft" || dt.Title != "My draft" {
		t.Errorf("token = %+v", dt)
	}
	if !dt.IsActive {
		t.Error("expected active token")
	}
}

func TestMintTokenReusesActive(t *testing.T) {
	svc, _ := testService(t)

	first := mustMint(t, svc, "my-draft", "")
	second := mustMint(t, svc, "my-draft", "")
	if first.Token != second.Token {
		t.Errorf("expected reuse, got %q then %q", first.Token, second.Token)
	}
}

func TestMintTokenReplacesExpired(t *testing.T) {
	svc, _ := testService(t)

	svc.now = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }
	old := mustMint(t, svc, "my-draft", "")

	svc.now = time.Now
	fresh := mustMint(t, svc, "my-draft", "")
	if fresh.Token == old.Token {
		t.Error("expired token was reused")
	}

	// The old token no longer authorizes.
	if _, err := svc.AuthorizeByToken(old.Token); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("old token authorize = %v, want ErrUnauthorized", err)
	}
}

func TestMintTokenRejectsNonDraft(t *testing.T) {
	svc, _ := testService(t)

	if _, err := svc.MintToken(context.Background(), "published", ""); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	if _, err := svc.MintToken(context.Background(), "missing", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMintTokenPassword(t *testing.T) {
	svc, _ := testService(t)

	if _, err := svc.MintToken(context.Background(), "locked", "wrong"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("wrong password = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.MintToken(context.Background(), "locked", ""); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("empty password = %v, want ErrUnauthorized", err)
	}
	mustMint(t, svc, "locked", "s3cret")
}

func TestAuthorizeSlugCrossCheck(t *testing.T) {
	svc, _ := testService(t)
	dt := mustMint(t, svc, "my-draft", "")

	if _, err := svc.Authorize(dt.Token, "my-draft"); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if _, err := svc.Authorize(dt.Token, "published"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("cross-slug authorize = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Authorize("", "my-draft"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("empty token = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Authorize("nope", "my-draft"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("unknown token = %v, want ErrUnauthorized", err)
	}
}

func TestCreateCommentValidation(t *testing.T) {
	svc, _ := testService(t)
	dt := mustMint(t, svc, "my-draft", "")

	cases := []CreateCommentInput{
		{BlockID: "block-1", Content: "hi"},                     // no author
		{BlockID: "block-1", AuthorName: "Ada"},                 // no content
		{Content: "hi", AuthorName: "Ada"},                      // no block
		{BlockID: "block-1", Content: "   ", AuthorName: "Ada"}, // whitespace content
	}
	for i, in := range cases {
		if _, err := svc.CreateComment(dt, in); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("case %d: err = %v, want ErrValidation", i, err)
		}
	}
}

func TestCreateCommentDefaults(t *testing.T) {
	svc, _ := testService(t)
	dt := mustMint(t, svc, "my-draft", "")

	c, err := svc.CreateComment(dt, CreateCommentInput{
		BlockID:    "block-1",
		Content:    "  hello  ",
		AuthorName: " Ada ",
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if c.Content != "hello" || c.AuthorName != "Ada" {
		t.Errorf("trimming failed: %+v", c)
	}
	if c.AuthorColor != DefaultAuthorColor {
		t.Errorf("color = %q, want default", c.AuthorColor)
	}
	if c.DocumentID != "doc-1" || c.DraftTokenID != dt.ID {
		t.Errorf("scope: %+v", c)
	}
}

func TestCreateCommentSelectionRules(t *testing.T) {
	svc, _ := testService(t)
	dt := mustMint(t, svc, "my-draft", "")

	start, end := 5, 10
	c, err := svc.CreateComment(dt, CreateCommentInput{
		BlockID: "block-1", Content: "x", AuthorName: "Ada",
		SelectionStart: &start, SelectionEnd: &end, SelectedText: "uick ",
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if !c.Anchored() || *c.SelectionStart != 5 || *c.SelectionEnd != 10 {
		t.Errorf("anchor dropped: %+v", c)
	}

	// A collapsed or inverted selection is stored as unanchored.
	same := 5
	c, err = svc.CreateComment(dt, CreateCommentInput{
		BlockID: "block-1", Content: "x", AuthorName: "Ada",
		SelectionStart: &same, SelectionEnd: &same,
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if c.Anchored() {
		t.Errorf("collapsed selection kept: %+v", c)
	}
}

func TestReplyFlattensToRoot(t *testing.T) {
	svc, _ := testService(t)
	dt := mustMint(t, svc, "my-draft", "")

	root, err := svc.CreateComment(dt, CreateCommentInput{BlockID: "block-1", Content: "root", AuthorName: "Ada"})
	if err != nil {
		t.Fatal(err)
	}
	reply, err := svc.CreateComment(dt, CreateCommentInput{
		BlockID: "block-1", Content: "reply", AuthorName: "Bob", ParentCommentID: root.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if reply.ParentCommentID != root.ID {
		t.Errorf("reply parent = %q", reply.ParentCommentID)
	}

	// Reply to the reply lands under the root, keeping threads one deep.
	nested, err := svc.CreateComment(dt, CreateCommentInput{
		BlockID: "block-1", Content: "deeper", AuthorName: "Eve", ParentCommentID: reply.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if nested.ParentCommentID != root.ID {
		t.Errorf("nested parent = %q, want root %q", nested.ParentCommentID, root.ID)
	}

	// A parent outside this draft's scope is a validation error.
	other := mustMint(t, svc, "locked", "s3cret")
	if _, err := svc.CreateComment(other, CreateCommentInput{
		BlockID: "block-1", Content: "x", AuthorName: "Mallory", ParentCommentID: root.ID,
	}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("cross-scope parent = %v, want ErrValidation", err)
	}
}

func TestDeleteOrphansReplies(t *testing.T) {
	svc, _ := testService(t)
	dt := mustMint(t, svc, "my-draft", "")

	root, _ := svc.CreateComment(dt, CreateCommentInput{BlockID: "block-1", Content: "root", AuthorName: "Ada"})
	reply, _ := svc.CreateComment(dt, CreateCommentInput{
		BlockID: "block-1", Content: "reply", AuthorName: "Bob", ParentCommentID: root.ID,
	})

	if err := svc.DeleteComment(dt, root.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}

	list, err := svc.ListComments(dt)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != reply.ID {
		t.Errorf("list = %+v, want the orphaned reply only", list)
	}
	if list[0].ParentCommentID != root.ID {
		t.Errorf("reply parent rewritten to %q", list[0].ParentCommentID)
	}
}

func TestCommentEventsReachSubscribers(t *testing.T) {
	svc, _ := testService(t)
	dt := mustMint(t, svc, "my-draft", "")

	sub := svc.Subscribe(dt)
	defer sub.Close()

	c, err := svc.CreateComment(dt, CreateCommentInput{BlockID: "block-1", Content: "hi", AuthorName: "Ada"})
	if err != nil {
		t.Fatal(err)
	}
	ev := waitEvent(t, sub.C)
	if ev.Type != models.EventCreated || ev.Comment.ID != c.ID {
		t.Errorf("got %+v", ev)
	}

	if _, err := svc.UpdateComment(dt, c.ID, "edited"); err != nil {
		t.Fatal(err)
	}
	ev = waitEvent(t, sub.C)
	if ev.Type != models.EventUpdated || ev.Comment.Content != "edited" {
		t.Errorf("got %+v", ev)
	}

	if err := svc.DeleteComment(dt, c.ID); err != nil {
		t.Fatal(err)
	}
	ev = waitEvent(t, sub.C)
	if ev.Type != models.EventDeleted || ev.Comment.ID != c.ID {
		t.Errorf("got %+v", ev)
	}
}

func waitEvent(t *testing.T, c <-chan models.CommentEvent) models.CommentEvent {
	t.Helper()
	select {
	case ev, ok := <-c:
		if !ok {
			t.Fatal("feed channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return models.CommentEvent{}
}

func TestResolveAnchor(t *testing.T) {
	svc, _ := testService(t)

	a, err := svc.ResolveAnchor(context.Background(), "block-1", anchor.RangeRef{
		StartRun: 0, StartOffset: 4, EndRun: 1, EndOffset: 5,
	})
	if err != nil {
		t.Fatalf("ResolveAnchor: %v", err)
	}
	if a.SelectedText != "quick brown" {
		t.Errorf("selected = %q", a.SelectedText)
	}

	if _, err := svc.ResolveAnchor(context.Background(), "block-1", anchor.RangeRef{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("collapsed = %v, want ErrValidation", err)
	}
	if _, err := svc.ResolveAnchor(context.Background(), "", anchor.RangeRef{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("missing block = %v, want ErrValidation", err)
	}
	if _, err := svc.ResolveAnchor(context.Background(), "ghost", anchor.RangeRef{EndOffset: 3}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown block = %v, want ErrNotFound", err)
	}
}
