// Package notion is a minimal client for the pieces of the Notion REST API
// the blog reads: database queries, page metadata, and block children.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jasoncui/notion-blog/internal/apperr"
	"github.com/jasoncui/notion-blog/internal/models"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
	pageSize       = 100
)

// Client talks to the Notion API. It applies no retry policy of its own;
// rate-limit and transient failures surface to the caller wrapped in
// apperr.ErrUpstream.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Notion API client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("notion: encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("notion: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: notion: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: notion: %s", apperr.ErrNotFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%w: notion: status %d code %q: %s",
			apperr.ErrUpstream, resp.StatusCode, apiErr.Code, apiErr.Message)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: notion: decode response: %v", apperr.ErrUpstream, err)
		}
	}
	return nil
}

// QueryDatabase returns every page of the database, following pagination.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string) ([]*models.Page, error) {
	var pages []*models.Page
	cursor := ""
	for {
		body := map[string]any{"page_size": pageSize}
		if cursor != "" {
			body["start_cursor"] = cursor
		}
		var list listResponse
		if err := c.do(ctx, http.MethodPost, "/v1/databases/"+url.PathEscape(databaseID)+"/query", body, &list); err != nil {
			return nil, err
		}
		for _, raw := range list.Results {
			var po pageObject
			if err := json.Unmarshal(raw, &po); err != nil {
				continue
			}
			pages = append(pages, po.toPage())
		}
		if !list.HasMore || list.NextCursor == "" {
			break
		}
		cursor = list.NextCursor
	}
	return pages, nil
}

// FindPageBySlug scans the database for the page whose Slug property
// matches. Returns apperr.ErrNotFound when no page matches.
func (c *Client) FindPageBySlug(ctx context.Context, databaseID, slug string) (*models.Page, error) {
	pages, err := c.QueryDatabase(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: page with slug %q", apperr.ErrNotFound, slug)
}

// GetPage retrieves one page's metadata by id.
func (c *Client) GetPage(ctx context.Context, pageID string) (*models.Page, error) {
	var po pageObject
	if err := c.do(ctx, http.MethodGet, "/v1/pages/"+url.PathEscape(pageID), nil, &po); err != nil {
		return nil, err
	}
	return po.toPage(), nil
}

// GetBlock retrieves a single block by id, without its children.
func (c *Client) GetBlock(ctx context.Context, blockID string) (*models.Block, error) {
	var bo blockObject
	if err := c.do(ctx, http.MethodGet, "/v1/blocks/"+url.PathEscape(blockID), nil, &bo); err != nil {
		return nil, err
	}
	return bo.toBlock(), nil
}

// GetBlockChildren returns the ordered immediate children of a block (or of
// a page, whose id doubles as its root block id), following pagination.
func (c *Client) GetBlockChildren(ctx context.Context, blockID string) ([]*models.Block, error) {
	var blocks []*models.Block
	cursor := ""
	for {
		path := fmt.Sprintf("/v1/blocks/%s/children?page_size=%d", url.PathEscape(blockID), pageSize)
		if cursor != "" {
			path += "&start_cursor=" + url.QueryEscape(cursor)
		}
		var list listResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
			return nil, err
		}
		for _, raw := range list.Results {
			var bo blockObject
			if err := json.Unmarshal(raw, &bo); err != nil {
				continue
			}
			blocks = append(blocks, bo.toBlock())
		}
		if !list.HasMore || list.NextCursor == "" {
			break
		}
		cursor = list.NextCursor
	}
	return blocks, nil
}
