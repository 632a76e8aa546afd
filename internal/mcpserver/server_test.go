package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/jera/internal/models"
	"github.com/starford/jera/internal/store"
	"github.com/starford/jera/internal/testutil"
)

func testServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st := testutil.TestStore(t)
	srv := New(st, nil)
	return srv, st
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_snapshot":
		result, err = srv.getSnapshot(ctx, req)
	case "due_topics":
		result, err = srv.dueTopics(ctx, req)
	case "create_category":
		result, err = srv.createCategory(ctx, req)
	case "create_topic":
		result, err = srv.createTopic(ctx, req)
	case "mark_reviewed":
		result, err = srv.markReviewed(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateTopicAndSnapshot(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_topic", map[string]interface{}{
		"title":     "Calc",
		"intervals": "7,1,3",
	})
	if r.IsError {
		t.Fatalf("create_topic error: %s", resultText(r))
	}
	var topic models.Topic
	if err := json.Unmarshal([]byte(resultText(r)), &topic); err != nil {
		t.Fatalf("decode create result: %v", err)
	}
	if topic.Title != "Calc" {
		t.Errorf("title = %q", topic.Title)
	}
	if len(topic.Intervals) != 3 || topic.Intervals[0] != 1 || topic.Intervals[2] != 7 {
		t.Errorf("intervals not normalized: %v", topic.Intervals)
	}

	r = callTool(t, srv, "get_snapshot", map[string]interface{}{})
	if !strings.Contains(resultText(r), "Calc") {
		t.Error("snapshot missing created topic")
	}
}

func TestCreateTopicInvalidIntervals(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_topic", map[string]interface{}{
		"title":     "Bad",
		"intervals": "1,x,3",
	})
	if !r.IsError {
		t.Error("expected error for unparseable intervals")
	}
}

func TestMarkReviewedMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "mark_reviewed", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing topic")
	}
}

func TestCreateCategoryDuplicate(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_category", map[string]interface{}{"label": "Math"})
	if r.IsError {
		t.Fatalf("create_category error: %s", resultText(r))
	}
	r = callTool(t, srv, "create_category", map[string]interface{}{"label": "math"})
	if !r.IsError {
		t.Error("expected conflict error for duplicate label")
	}
}

func TestDueTopicsEmpty(t *testing.T) {
	srv, st := testServer(t)
	if resultText(callTool(t, srv, "due_topics", nil)) != "no topics due" {
		t.Error("expected empty due list")
	}

	// A freshly created topic is scheduled in the future, so it stays
	// out of the due list even with a reminder set.
	reminder := "09:00"
	if _, err := st.CreateTopic("", models.TopicPayload{
		Title:        "Soon",
		Intervals:    []int{1},
		ReminderTime: &reminder,
	}); err != nil {
		t.Fatal(err)
	}
	if resultText(callTool(t, srv, "due_topics", nil)) != "no topics due" {
		t.Error("future topic should not be due")
	}
}
