// Package models defines the domain types shared across the blog server.
package models

import (
	"strings"
	"time"
)

// BlockKind identifies the content type of a Notion block.
type BlockKind string

// Known block kinds. Anything else renders as an unsupported placeholder.
const (
	KindParagraph    BlockKind = "paragraph"
	KindHeading1     BlockKind = "heading_1"
	KindHeading2     BlockKind = "heading_2"
	KindHeading3     BlockKind = "heading_3"
	KindBulletedItem BlockKind = "bulleted_list_item"
	KindNumberedItem BlockKind = "numbered_list_item"
	KindToDo         BlockKind = "to_do"
	KindToggle       BlockKind = "toggle"
	KindChildPage    BlockKind = "child_page"
	KindImage        BlockKind = "image"
	KindDivider      BlockKind = "divider"
	KindQuote        BlockKind = "quote"
	KindCode         BlockKind = "code"
	KindFile         BlockKind = "file"
	KindBookmark     BlockKind = "bookmark"
	KindUnsupported  BlockKind = "unsupported"
)

// IsListItem reports whether the kind participates in list grouping.
func (k BlockKind) IsListItem() bool {
	return k == KindBulletedItem || k == KindNumberedItem
}

// Annotations holds the text styling flags of a rich text run.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

// TextRun is one styled span of text within a block. Anchor offsets are
// computed over the concatenation of run contents in order, never over
// per-run positions.
type TextRun struct {
	Content     string      `json:"content"`
	Link        string      `json:"link,omitempty"`
	Annotations Annotations `json:"annotations"`
}

// Block is one node of a document's content tree.
//
// HasChildren set with Children nil means the children have not been fetched
// yet; such a block must be hydrated before rendering.
type Block struct {
	ID          string    `json:"id"`
	Kind        BlockKind `json:"kind"`
	RichText    []TextRun `json:"rich_text,omitempty"`
	HasChildren bool      `json:"has_children"`
	Children    []*Block  `json:"children,omitempty"`

	// Kind-specific payload.
	Checked  bool   `json:"checked,omitempty"`  // to_do
	Language string `json:"language,omitempty"` // code
	URL      string `json:"url,omitempty"`      // image, file, bookmark
	Caption  string `json:"caption,omitempty"`  // image, file
	Title    string `json:"title,omitempty"`    // child_page
	LocalURL string `json:"local_url,omitempty"` // image, set after localization
}

// PlainText returns the concatenation of the block's run contents.
func (b *Block) PlainText() string {
	var sb strings.Builder
	for _, r := range b.RichText {
		sb.WriteString(r.Content)
	}
	return sb.String()
}

// Page is the document metadata read from the Notion database.
type Page struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Status        string    `json:"status"`
	Tags          []string  `json:"tags,omitempty"`
	Published     time.Time `json:"published,omitempty"`
	LastEdited    time.Time `json:"last_edited,omitempty"`
	DraftPassword string    `json:"-"`
}

// DraftToken is the bearer credential granting comment access to one
// document's draft view. At most one active token per document; enforced by
// lookup-before-insert, not by a DB constraint.
type DraftToken struct {
	ID         string    `json:"id"`
	Token      string    `json:"token"`
	DocumentID string    `json:"document_id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expired reports whether the token has an expiry in the past.
func (t *DraftToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && t.ExpiresAt.Before(now)
}

// Comment is one reviewer comment, anchored to a block and optionally to a
// character range inside it. Threads are one level deep: ParentCommentID
// always references a root comment.
type Comment struct {
	ID              string     `json:"id"`
	DraftTokenID    string     `json:"draft_token_id"`
	DocumentID      string     `json:"document_id"`
	BlockID         string     `json:"block_id"`
	Content         string     `json:"content"`
	AuthorName      string     `json:"author_name"`
	AuthorEmail     string     `json:"author_email,omitempty"`
	AuthorColor     string     `json:"author_color"`
	ParentCommentID string     `json:"parent_comment_id,omitempty"`
	SelectionStart  *int       `json:"selection_start,omitempty"`
	SelectionEnd    *int       `json:"selection_end,omitempty"`
	SelectedText    string     `json:"selected_text,omitempty"`
	IsResolved      bool       `json:"is_resolved"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Anchored reports whether the comment carries a character-range anchor.
func (c *Comment) Anchored() bool {
	return c.SelectionStart != nil && c.SelectionEnd != nil
}

// Anchor binds a comment to a character range inside one block. Offsets are
// rune positions into the concatenated run contents. SelectedText is a
// snapshot used as a redundancy check only; stale offsets still render.
type Anchor struct {
	BlockID      string `json:"block_id"`
	Start        int    `json:"selection_start"`
	End          int    `json:"selection_end"`
	SelectedText string `json:"selected_text"`
}

// EventType classifies a comment change notification.
type EventType string

// Comment feed event types.
const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// CommentEvent is one change notification on a document's comment feed.
// Delivery is at-least-once; consumers must apply events idempotently.
type CommentEvent struct {
	Type       EventType `json:"type"`
	DocumentID string    `json:"document_id"`
	Comment    Comment   `json:"comment"`
}
