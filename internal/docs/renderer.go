package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/playground/internal/catalog"
	"github.com/yourorg/playground/internal/codegen"
	"github.com/yourorg/playground/pkg/types"
)

var languageTitles = map[string]string{
	"curl":       "cURL",
	"python":     "Python",
	"javascript": "JavaScript",
	"go":         "Go",
}

// RenderMarkdown writes index.md plus one page per endpoint.
func RenderMarkdown(c *catalog.Catalog, outputDir string) error {
	if c == nil {
		return fmt.Errorf("catalog is nil")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	index := &strings.Builder{}
	title := c.Title
	if title == "" {
		title = "API Reference"
	}
	fmt.Fprintf(index, "# %s\n\n", title)
	fmt.Fprintf(index, "Base URL: `%s`\n\n", c.BaseURL)
	fmt.Fprintln(index, "## Endpoints")
	for _, item := range Sidebar(c) {
		fmt.Fprintf(index, "- **%s** [%s](%s.md)\n", item.Method, item.Label, item.ID)
	}

	for i := range c.Endpoints {
		ep := &c.Endpoints[i]
		page, err := RenderEndpoint(c, ep)
		if err != nil {
			return fmt.Errorf("render %s: %w", ep.ID, err)
		}
		if err := os.WriteFile(filepath.Join(outputDir, ep.ID+".md"), []byte(page), 0o644); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(outputDir, "index.md"), []byte(index.String()), 0o644)
}

// RenderEndpoint renders the reference page of one endpoint, including a
// code sample for every catalog language.
func RenderEndpoint(c *catalog.Catalog, ep *types.Endpoint) (string, error) {
	b := &strings.Builder{}
	_, label, _ := ParseSidebarLabel(ep.Label)
	if label == "" {
		label = ep.Method + " " + ep.Path
	}
	fmt.Fprintf(b, "# %s\n\n", label)
	fmt.Fprintf(b, "`%s %s`\n\n", ep.Method, ep.Path)
	if ep.Summary != "" {
		fmt.Fprintf(b, "%s\n\n", ep.Summary)
	}

	if a := ep.Authentication; a != nil {
		fmt.Fprintln(b, "## Authentication")
		scheme := "Bearer"
		if a.Type == types.AuthAPIKey {
			scheme = "ApiKey"
		}
		fmt.Fprintf(b, "Send `Authorization: %s <credential>` with every request.\n\n", scheme)
	}

	if len(ep.Parameters.Path)+len(ep.Parameters.Query)+len(ep.Parameters.Body) > 0 {
		fmt.Fprintln(b, "## Parameters")
		writeParamTable(b, "Path Parameters", ep.Parameters.Path)
		writeParamTable(b, "Query Parameters", ep.Parameters.Query)
		if len(ep.Parameters.Body) > 0 {
			heading := "Body Parameters (application/json)"
			if ep.Parameters.Body.HasFile() {
				heading = "Body Parameters (multipart/form-data)"
			}
			writeParamTable(b, heading, ep.Parameters.Body)
		}
	}

	samples, err := codegen.RenderAll(c.Languages, ep, c.BaseURL, "", nil)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(b, "## Code Samples")
	for _, s := range samples {
		name := languageTitles[s.Language]
		if name == "" {
			name = s.Language
		}
		fmt.Fprintf(b, "### %s\n\n", name)
		if !s.Supported {
			fmt.Fprintf(b, "> %s\n\n", s.Code)
			continue
		}
		fence := s.Highlight
		if s.Language == string(codegen.Curl) {
			fence = "bash"
		}
		fmt.Fprintf(b, "```%s\n%s\n```\n\n", fence, s.Code)
	}
	return b.String(), nil
}

func writeParamTable(b *strings.Builder, heading string, params types.ParamGroup) {
	if len(params) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", heading)
	fmt.Fprintln(b, "| Name | Type | Required | Description |")
	fmt.Fprintln(b, "|------|------|----------|-------------|")
	for _, p := range params {
		req := "optional"
		if p.Required {
			req = "required"
		}
		fmt.Fprintf(b, "| `%s` | %s | %s | %s |\n", p.Name, p.Type, req, strings.ReplaceAll(p.Description, "|", `\|`))
	}
	b.WriteString("\n")
}

// RenderOpenAPI renders OpenAPI 3 YAML to outputDir/openapi.yaml.
func RenderOpenAPI(c *catalog.Catalog, outputDir string) error {
	if c == nil {
		return fmt.Errorf("catalog is nil")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(catalog.ExportOpenAPI(c))
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, "openapi.yaml"), data, 0o644)
}

// ValidateOpenAPI loads and validates a rendered OpenAPI file.
func ValidateOpenAPI(ctx context.Context, yamlPath string) []string {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(yamlPath)
	if err != nil {
		return []string{err.Error()}
	}
	var errs []string
	if err := doc.Validate(ctx); err != nil {
		errs = append(errs, err.Error())
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		errs = append(errs, "missing or empty paths")
	}
	return errs
}
