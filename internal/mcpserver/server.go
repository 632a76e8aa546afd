// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Jera's topic and category operations via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/jera/internal/models"
	"github.com/starford/jera/internal/store"
)

// Refresher wakes the reminder scheduler after a mutation.
type Refresher interface {
	Refresh()
}

// Server wraps the MCP server with Jera tools.
type Server struct {
	mcp   *server.MCPServer
	store *store.Store
	sched Refresher
}

// New creates a new MCP server with all Jera tools registered.
// sched may be nil when no scheduler is running.
func New(st *store.Store, sched Refresher) *Server {
	s := &Server{store: st, sched: sched}

	s.mcp = server.NewMCPServer(
		"Jera",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_snapshot",
		mcp.WithDescription("Return the full database snapshot: all topics and categories."),
	), s.getSnapshot)

	s.mcp.AddTool(mcp.NewTool("due_topics",
		mcp.WithDescription("List topics currently due for review (reminder set, review date passed, not snoozed)."),
	), s.dueTopics)

	s.mcp.AddTool(mcp.NewTool("create_category",
		mcp.WithDescription("Create a category (tag) topics can belong to."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Category label; must be unique (case-insensitive)")),
	), s.createCategory)

	s.mcp.AddTool(mcp.NewTool("create_topic",
		mcp.WithDescription("Create a topic to track with spaced repetition."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Topic title")),
		mcp.WithString("notes", mcp.Description("Free-text notes")),
		mcp.WithString("category_id", mcp.Description("Optional category id")),
		mcp.WithString("intervals", mcp.Description("Comma-separated review intervals in days, e.g. \"1,3,7\"")),
		mcp.WithString("reminder_time", mcp.Description("Optional reminder time of day, HH:MM local time")),
	), s.createTopic)

	s.mcp.AddTool(mcp.NewTool("mark_reviewed",
		mcp.WithDescription("Record a review of a topic; advances its interval ladder and reschedules the next review."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Topic id")),
	), s.markReviewed)

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

func (s *Server) refresh() {
	if s.sched != nil {
		s.sched.Refresh()
	}
}

func (s *Server) getSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.store.Snapshot(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) dueTopics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	due, err := s.store.DueTopics()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(due) == 0 {
		return mcp.NewToolResultText("no topics due"), nil
	}
	out, _ := json.MarshalIndent(due, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, err := s.store.CreateCategory(models.CategoryPayload{Label: label})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.refresh()
	return mcp.NewToolResultText(fmt.Sprintf("created category %s (%s)", category.Label, category.ID)), nil
}

func (s *Server) createTopic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload := models.TopicPayload{Title: title}
	if notes, nErr := req.RequireString("notes"); nErr == nil {
		payload.Notes = notes
	}
	if cat, cErr := req.RequireString("category_id"); cErr == nil && cat != "" {
		payload.CategoryID = &cat
	}
	if rt, rErr := req.RequireString("reminder_time"); rErr == nil && rt != "" {
		payload.ReminderTime = &rt
	}
	if raw, iErr := req.RequireString("intervals"); iErr == nil && raw != "" {
		intervals, pErr := parseIntervals(raw)
		if pErr != nil {
			return mcp.NewToolResultError(pErr.Error()), nil
		}
		payload.Intervals = intervals
	}
	if err := payload.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	topic, err := s.store.CreateTopic("", payload)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.refresh()
	out, _ := json.MarshalIndent(topic, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) markReviewed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topic, err := s.store.MarkReviewed(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("mark reviewed %s: %v", id, err)), nil
	}
	s.refresh()
	out, _ := json.MarshalIndent(topic, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func parseIntervals(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid interval %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}
