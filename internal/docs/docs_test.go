package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yourorg/playground/internal/catalog"
)

func TestParseSidebarLabel(t *testing.T) {
	cases := []struct {
		in     string
		method string
		text   string
		ok     bool
	}{
		{"Create Thread (POST)", "POST", "Create Thread", true},
		{"Create Thread (post)", "POST", "Create Thread", true},
		{"(GET) List", "GET", " List", true},
		{"Overview", "", "Overview", false},
		{"Patch it (PATCH)", "", "Patch it (PATCH)", false},
	}
	for _, tc := range cases {
		method, text, ok := ParseSidebarLabel(tc.in)
		if method != tc.method || text != tc.text || ok != tc.ok {
			t.Fatalf("%q: got (%q, %q, %v)", tc.in, method, text, ok)
		}
	}
	if Badge("DELETE") != "delete" {
		t.Fatalf("unexpected badge %q", Badge("DELETE"))
	}
}

func TestSidebar(t *testing.T) {
	items := Sidebar(catalog.Example())
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	first := items[0]
	if first.ID != "post-chat-threads" || first.Method != "POST" || first.Badge != "post" || first.Label != "Create Thread" {
		t.Fatalf("unexpected item %+v", first)
	}
}

func TestExtractTOC(t *testing.T) {
	md := strings.Join([]string{
		"# Title",
		"## Parameters",
		"### Path Parameters",
		"```bash",
		"## not a heading",
		"```",
		"## `Code` Samples",
		"### Go",
		"### Go",
	}, "\n")
	items := ExtractTOC(md)
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %+v", items)
	}
	if items[0].ID != "parameters" || items[0].Nested {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].ID != "path-parameters" || !items[1].Nested || items[1].Level != 3 {
		t.Fatalf("unexpected nested item %+v", items[1])
	}
	if items[2].Value != "Code Samples" || items[2].ID != "code-samples" {
		t.Fatalf("inline marks not stripped: %+v", items[2])
	}
	if items[3].ID != "go" || items[4].ID != "go-1" {
		t.Fatalf("duplicate ids not suffixed: %s %s", items[3].ID, items[4].ID)
	}
}

func TestRenderMarkdown(t *testing.T) {
	outDir := t.TempDir()
	if err := RenderMarkdown(catalog.Example(), outDir); err != nil {
		t.Fatalf("RenderMarkdown error: %v", err)
	}
	index, err := os.ReadFile(filepath.Join(outDir, "index.md"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if !strings.Contains(string(index), "[Upload Document](post-documents.md)") {
		t.Fatalf("index missing endpoint link:\n%s", index)
	}

	page, err := os.ReadFile(filepath.Join(outDir, "post-documents.md"))
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	body := string(page)
	for _, want := range []string{
		"# Upload Document",
		"## Authentication",
		"### Body Parameters (multipart/form-data)",
		"| `file` | file | required |",
		"### cURL",
		"```bash\ncurl",
		"### Go",
		"```go\n",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q:\n%s", want, body)
		}
	}

	var values []string
	for _, item := range ExtractTOC(body) {
		values = append(values, item.Value)
	}
	if got := strings.Join(values, ","); !strings.HasPrefix(got, "Authentication,Parameters,Body Parameters") {
		t.Fatalf("unexpected outline %s", got)
	}
}

func TestRenderOpenAPIAndValidate(t *testing.T) {
	outDir := t.TempDir()
	if err := RenderOpenAPI(catalog.Example(), outDir); err != nil {
		t.Fatalf("RenderOpenAPI error: %v", err)
	}
	path := filepath.Join(outDir, "openapi.yaml")
	if errs := ValidateOpenAPI(context.Background(), path); len(errs) != 0 {
		t.Fatalf("expected valid document, got %v", errs)
	}

	bad := filepath.Join(outDir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("openapi: 3.0.3\ninfo:\n  title: x\n  version: '1'\npaths: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if errs := ValidateOpenAPI(context.Background(), bad); len(errs) == 0 {
		t.Fatalf("expected empty paths to be reported")
	}
}
