package mcptools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/yourorg/playground/internal/catalog"
	"github.com/yourorg/playground/internal/executor"
	"github.com/yourorg/playground/internal/store"
)

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatalf("empty result")
	}
	tc, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func newTools(baseURL string) *Tools {
	st := store.NewMemoryStore()
	return &Tools{
		Catalog:     catalog.Example(),
		BaseURL:     baseURL,
		Credentials: st,
		Scope:       store.DefaultCredentialScope,
		Executor:    &executor.Client{History: st},
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(newTools("http://localhost"), "test")
	for _, name := range []string{"list_endpoints", "render_sample", "send_request"} {
		if s.GetTool(name) == nil {
			t.Fatalf("tool %s not registered", name)
		}
	}
}

func TestListEndpoints(t *testing.T) {
	tools := newTools("http://localhost")
	res, err := tools.handleListEndpoints(context.Background(), call(nil))
	if err != nil {
		t.Fatal(err)
	}
	var items []endpointSummary
	if err := json.Unmarshal([]byte(text(t, res)), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 3 || items[1].ID != "get-chat-threads-thread-id" || items[1].Label != "Get Thread" || !items[1].Auth {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestRenderSample(t *testing.T) {
	tools := newTools("https://api.example.com")
	res, err := tools.handleRenderSample(context.Background(), call(map[string]any{
		"endpoint": "get-chat-threads-thread-id",
		"language": "curl",
		"values":   map[string]any{"path.threadId": "abc", "query.limit": 10},
	}))
	if err != nil {
		t.Fatal(err)
	}
	out := text(t, res)
	if !strings.HasPrefix(out, "```curl\ncurl") || !strings.Contains(out, "https://api.example.com/chat/threads/abc?limit=10") {
		t.Fatalf("unexpected sample:\n%s", out)
	}

	res, _ = tools.handleRenderSample(context.Background(), call(map[string]any{"endpoint": "nope"}))
	if !res.IsError {
		t.Fatalf("expected error result for unknown endpoint")
	}
}

func TestSendRequest(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "ApiKey stored" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid key"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"t_1"}`))
	}))
	defer upstream.Close()

	tools := newTools(upstream.URL)
	args := map[string]any{"endpoint": "post-chat-threads", "values": map[string]any{"body.systemPrompt": "hi"}}

	res, _ := tools.handleSendRequest(context.Background(), call(args))
	if !res.IsError || text(t, res) != "API key is required" {
		t.Fatalf("expected missing key error, got %q", text(t, res))
	}

	if err := tools.Credentials.(*store.MemoryStore).SetCredential(store.DefaultCredentialScope, "stored"); err != nil {
		t.Fatal(err)
	}
	res, _ = tools.handleSendRequest(context.Background(), call(args))
	if res.IsError || text(t, res) != "{\n  \"id\": \"t_1\"\n}" {
		t.Fatalf("unexpected result %q", text(t, res))
	}

	args["credential"] = "wrong"
	res, _ = tools.handleSendRequest(context.Background(), call(args))
	if !res.IsError || text(t, res) != "HTTP 401: invalid key" {
		t.Fatalf("unexpected error %q", text(t, res))
	}

	res, _ = tools.handleSendRequest(context.Background(), call(map[string]any{"endpoint": "post-documents"}))
	if !res.IsError {
		t.Fatalf("file endpoints should be rejected")
	}
}
