package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/kvault/internal/autotag"
	"github.com/kalambet/kvault/internal/search"
	"github.com/kalambet/kvault/internal/storage"
)

const (
	defaultSearchLimit = 10
	defaultRecentLimit = 20
	defaultTagLimit    = 20
	resourceRecentSize = 10
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store     *storage.Store
	Search    *search.Engine
	Suggester *autotag.Suggester
	Version   string
}

// NewMCPServer creates an MCP server with all kvault tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"kvault",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("kvault stores personal knowledge notes locally and finds them again by text or tag."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("store_knowledge",
			mcp.WithDescription("Store a knowledge note locally. A title and tags are generated when omitted."),
			mcp.WithString("content", mcp.Description("The note text to store"), mcp.Required()),
			mcp.WithString("title", mcp.Description("Title for the note (generated from content if empty)")),
			mcp.WithString("tags", mcp.Description("Comma-separated tags")),
			mcp.WithBoolean("auto_tag", mcp.Description("Add suggested category tags (default true)"), mcp.DefaultBool(true)),
		),
		mcpStoreKnowledge(deps),
	)

	s.AddTool(
		mcp.NewTool("search_knowledge",
			mcp.WithDescription("Search stored notes by keyword or phrase, best matches first."),
			mcp.WithString("query", mcp.Description("Search keywords or phrase"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)"), mcp.Min(1), mcp.Max(maxLimit)),
			mcp.WithString("tags", mcp.Description("Only search notes carrying one of these comma-separated tags")),
		),
		mcpSearchKnowledge(deps),
	)

	s.AddTool(
		mcp.NewTool("list_recent",
			mcp.WithDescription("List the most recently stored notes, newest first."),
			mcp.WithNumber("limit", mcp.Description("Number of notes (default 20)"), mcp.Min(1), mcp.Max(maxLimit)),
		),
		mcpListRecent(deps),
	)

	s.AddTool(
		mcp.NewTool("get_knowledge",
			mcp.WithDescription("Fetch the full content of a note by id."),
			mcp.WithString("id", mcp.Description("Note id"), mcp.Required()),
		),
		mcpGetKnowledge(deps),
	)

	s.AddTool(
		mcp.NewTool("suggest_tags",
			mcp.WithDescription("Suggest category tags for a piece of content without storing it."),
			mcp.WithString("content", mcp.Description("Content to analyse"), mcp.Required()),
			mcp.WithString("title", mcp.Description("Optional title")),
		),
		mcpSuggestTags(deps),
	)

	s.AddTool(
		mcp.NewTool("search_by_tags",
			mcp.WithDescription("List notes carrying any of the given tags, newest first."),
			mcp.WithString("tags", mcp.Description("Comma-separated tags"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)"), mcp.Min(1), mcp.Max(maxLimit)),
		),
		mcpSearchByTags(deps),
	)

	s.AddTool(
		mcp.NewTool("get_stats",
			mcp.WithDescription("Report note and tag counts for the local store."),
		),
		mcpGetStats(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"knowledge://recent",
			"Recent Notes",
			mcp.WithResourceDescription("Last 10 stored notes (previews only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"knowledge://stats",
			"Store Statistics",
			mcp.WithResourceDescription("Record and tag counts as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceStats(deps),
	)

	return s
}

func mcpStoreKnowledge(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}

		summary, err := deps.Store.Store(ctx, storage.StoreInput{
			Content: content,
			Title:   req.GetString("title", ""),
			Tags:    req.GetString("tags", ""),
			AutoTag: req.GetBool("auto_tag", true),
		})
		if err != nil {
			return mcpFailure("store", err), nil
		}

		return mcpJSON(summary), nil
	}
}

func mcpSearchKnowledge(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", defaultSearchLimit)
		if err := checkLimit(limit); err != nil {
			return mcpError(err.Error()), nil
		}

		resp, err := deps.Search.Search(ctx, query, limit, req.GetString("tags", ""))
		if err != nil {
			return mcpFailure("search", err), nil
		}

		return mcpJSON(resp), nil
	}
}

func mcpListRecent(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", defaultRecentLimit)
		if err := checkLimit(limit); err != nil {
			return mcpError(err.Error()), nil
		}

		results, err := deps.Search.Recent(ctx, limit)
		if err != nil {
			return mcpFailure("list recent", err), nil
		}

		return mcpJSON(results), nil
	}
}

func mcpGetKnowledge(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		rec, err := deps.Store.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("no record with id %q", id)), nil
		}
		if err != nil {
			return mcpFailure("get", err), nil
		}

		return mcpJSON(rec), nil
	}
}

// suggestResponse is the body of suggest_tags; Tags is never null.
type suggestResponse struct {
	Tags []string `json:"tags"`
}

func mcpSuggestTags(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}

		return mcpJSON(suggest(deps.Suggester, content, req.GetString("title", ""))), nil
	}
}

func suggest(s *autotag.Suggester, content, title string) suggestResponse {
	if s == nil {
		s = autotag.NewSuggester(nil)
	}
	tags := s.Suggest(content, title)
	if tags == nil {
		tags = []string{}
	}
	return suggestResponse{Tags: tags}
}

func mcpSearchByTags(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("tags")
		if err != nil {
			return mcpError("tags is required"), nil
		}

		limit := req.GetInt("limit", defaultTagLimit)
		if err := checkLimit(limit); err != nil {
			return mcpError(err.Error()), nil
		}

		records, err := deps.Store.SearchByTags(ctx, storage.ParseTagList(raw), limit)
		if err != nil {
			return mcpFailure("search by tags", err), nil
		}

		return mcpJSON(deps.Search.Previews(records)), nil
	}
}

func mcpGetStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := deps.Store.Stats(ctx)
		if err != nil {
			return mcpFailure("stats", err), nil
		}
		return mcpJSON(stats), nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		results, err := deps.Search.Recent(ctx, resourceRecentSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list recent notes: %w", err)
		}
		return jsonResource(req.Params.URI, results)
	}
}

func mcpResourceStats(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		stats, err := deps.Store.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get stats: %w", err)
		}
		return jsonResource(req.Params.URI, stats)
	}
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

// mcpFailure turns err into a tool error result. Storage failures are
// logged since the caller only sees the message.
func mcpFailure(op string, err error) *mcp.CallToolResult {
	if code, _ := errorKind(err); code >= 500 {
		slog.Error("tool failed", "op", op, "error", err)
		return mcpError(fmt.Sprintf("%s failed: %v", op, err))
	}
	return mcpError(err.Error())
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
