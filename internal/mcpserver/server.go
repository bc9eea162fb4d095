// Package mcpserver exposes the blog over MCP (Model Context Protocol) via
// stdio transport: post listing and reading for LLM integration, plus
// draft comment review behind the usual draft token.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jasoncui/notion-blog/internal/draftservice"
	"github.com/jasoncui/notion-blog/internal/models"
	"github.com/jasoncui/notion-blog/internal/notion"
	"github.com/jasoncui/notion-blog/internal/site"
)

// Server wraps the MCP server with blog tools.
type Server struct {
	mcp        *server.MCPServer
	source     site.Source
	loader     *notion.Loader
	drafts     *draftservice.Service
	databaseID string
}

// New creates an MCP server with all blog tools registered.
func New(source site.Source, loader *notion.Loader, drafts *draftservice.Service, databaseID string) *Server {
	s := &Server{
		source:     source,
		loader:     loader,
		drafts:     drafts,
		databaseID: databaseID,
	}

	s.mcp = server.NewMCPServer(
		"notion-blog",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List published blog posts with slug, title, tags, and publish date."),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read a published post's content as plain text, one line per block."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("list_draft_comments",
		mcp.WithDescription("List the reviewer comments on a draft, scoped by its draft token."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Draft bearer token")),
	), s.listDraftComments)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.source.QueryDatabase(ctx, s.databaseID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var posts []*models.Page
	for _, p := range pages {
		if p.Status == "Published" && p.Slug != "" {
			posts = append(posts, p)
		}
	}
	out, _ := json.MarshalIndent(posts, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.source.FindPageBySlug(ctx, s.databaseID, slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	root, err := s.loader.Load(ctx, page.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text := "# " + page.Title + "\n\n" + flatten(root.Children, "")
	return mcp.NewToolResultText(text), nil
}

func (s *Server) listDraftComments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dt, err := s.drafts.AuthorizeByToken(token)
	if err != nil {
		return mcp.NewToolResultError("invalid or expired token"), nil
	}
	comments, err := s.drafts.ListComments(dt)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(comments, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// flatten emits one line per block, indenting nested levels.
func flatten(blocks []*models.Block, indent string) string {
	var out string
	for _, b := range blocks {
		if text := b.PlainText(); text != "" {
			out += indent + text + "\n"
		} else if b.Kind == models.KindChildPage && b.Title != "" {
			out += indent + b.Title + "\n"
		}
		if len(b.Children) > 0 {
			out += flatten(b.Children, indent+"  ")
		}
	}
	return out
}
