// Package mcptools exposes the playground over the Model Context Protocol.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yourorg/playground/internal/catalog"
	"github.com/yourorg/playground/internal/codegen"
	"github.com/yourorg/playground/internal/docs"
	"github.com/yourorg/playground/internal/executor"
	"github.com/yourorg/playground/internal/store"
	"github.com/yourorg/playground/pkg/types"
)

// Tools holds what the tool handlers need.
type Tools struct {
	Catalog *catalog.Catalog
	BaseURL string
	// Credentials and Scope resolve the key for send_request when the
	// caller does not pass one.
	Credentials store.CredentialStore
	Scope       string
	Fallback    string
	Executor    *executor.Client
}

// NewServer builds an MCP server with every playground tool registered.
func NewServer(t *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"playground",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Browse the API catalog with list_endpoints, preview requests with render_sample and call the live API with send_request. Parameter values use keys of the form path.<name>, query.<name> or body.<name>."),
	)
	t.Register(s)
	return s
}

// Register adds the tools to s.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(
		mcp.NewTool("list_endpoints",
			mcp.WithDescription("List catalog endpoints with their ids, methods, paths and parameters."),
		),
		t.handleListEndpoints,
	)
	s.AddTool(
		mcp.NewTool("render_sample",
			mcp.WithDescription("Render a code sample for an endpoint. Returns every configured language unless one is named."),
			mcp.WithString("endpoint", mcp.Required(), mcp.Description("Endpoint id from list_endpoints")),
			mcp.WithString("language", mcp.Description("curl, python, javascript or go")),
			mcp.WithObject("values", mcp.Description("Parameter values keyed by group.name, e.g. {\"path.threadId\": \"t_1\"}")),
		),
		t.handleRenderSample,
	)
	s.AddTool(
		mcp.NewTool("send_request",
			mcp.WithDescription("Send a live request to an endpoint and return the pretty-printed JSON response. File parameters are not supported here."),
			mcp.WithString("endpoint", mcp.Required(), mcp.Description("Endpoint id from list_endpoints")),
			mcp.WithObject("values", mcp.Description("Parameter values keyed by group.name")),
			mcp.WithString("credential", mcp.Description("API key; defaults to the stored key")),
		),
		t.handleSendRequest,
	)
}

type endpointSummary struct {
	ID         string           `json:"id"`
	Method     string           `json:"method"`
	Path       string           `json:"path"`
	Label      string           `json:"label"`
	Auth       bool             `json:"auth"`
	Parameters types.Parameters `json:"parameters"`
}

func (t *Tools) handleListEndpoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := docs.Sidebar(t.Catalog)
	out := make([]endpointSummary, 0, len(items))
	for i, item := range items {
		ep := t.Catalog.Endpoints[i]
		out = append(out, endpointSummary{
			ID:         item.ID,
			Method:     item.Method,
			Path:       item.Path,
			Label:      item.Label,
			Auth:       ep.Authentication != nil,
			Parameters: ep.Parameters,
		})
	}
	return jsonResult(out)
}

func (t *Tools) handleRenderSample(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ep, errResult := t.endpoint(req)
	if errResult != nil {
		return errResult, nil
	}
	langs := t.Catalog.Languages
	if lang := mcp.ParseString(req, "language", ""); lang != "" {
		langs = []string{lang}
	}
	cred, err := t.credential("")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	samples, err := codegen.RenderAll(langs, ep, t.BaseURL, cred, parseValues(req))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	for i, s := range samples {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "```%s\n%s\n```", s.Highlight, s.Code)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (t *Tools) handleSendRequest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ep, errResult := t.endpoint(req)
	if errResult != nil {
		return errResult, nil
	}
	if ep.Parameters.Body.HasFile() {
		return mcp.NewToolResultError(fmt.Sprintf("endpoint %s takes file uploads; use the playground UI or the send command", ep.ID)), nil
	}
	cred, err := t.credential(mcp.ParseString(req, "credential", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.Executor.Submit(ctx, ep, t.BaseURL, cred, parseValues(req), nil)
	if err != nil {
		var httpErr *executor.HTTPError
		if errors.As(err, &httpErr) {
			return mcp.NewToolResultErrorf("HTTP %d: %s", httpErr.Status, httpErr.Message), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	text := res.Pretty
	if text == "" {
		text = fmt.Sprintf("HTTP %d (empty body)", res.Status)
	}
	return mcp.NewToolResultText(text), nil
}

func (t *Tools) endpoint(req mcp.CallToolRequest) (*types.Endpoint, *mcp.CallToolResult) {
	id := mcp.ParseString(req, "endpoint", "")
	if id == "" {
		return nil, mcp.NewToolResultError("endpoint is required")
	}
	ep, err := t.Catalog.Get(id)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return ep, nil
}

func (t *Tools) credential(supplied string) (string, error) {
	if v := strings.TrimSpace(supplied); v != "" {
		return v, nil
	}
	if t.Credentials != nil {
		v, err := t.Credentials.GetCredential(t.Scope)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
	}
	return t.Fallback, nil
}

// parseValues flattens the values argument to raw strings. Non-string JSON
// values are re-encoded so numbers and booleans keep their literal form.
func parseValues(req mcp.CallToolRequest) types.ParamValues {
	raw := mcp.ParseStringMap(req, "values", nil)
	out := types.ParamValues{}
	for k, v := range raw {
		var s string
		switch val := v.(type) {
		case nil:
			continue
		case string:
			s = val
		default:
			b, err := json.Marshal(val)
			if err != nil {
				continue
			}
			s = string(b)
		}
		if s != "" {
			out[k] = s
		}
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
