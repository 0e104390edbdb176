// Package catalog loads and checks the set of documented endpoints.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/playground/pkg/types"
)

const DefaultBaseURL = "https://api.cloudindex.ai/public/v1"

// DefaultLanguages are the sample targets shown when a catalog names none.
var DefaultLanguages = []string{"curl", "python", "javascript", "go"}

// ErrNotFound is returned by Get for unknown endpoint ids.
var ErrNotFound = errors.New("endpoint not found")

type Catalog struct {
	Title     string           `json:"title,omitempty" yaml:"title,omitempty"`
	BaseURL   string           `json:"base_url" yaml:"base_url"`
	Languages []string         `json:"languages" yaml:"languages"`
	Endpoints []types.Endpoint `json:"endpoints" yaml:"endpoints"`
}

// Load reads a catalog from a YAML or JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return Parse(data, format)
}

// Parse decodes a catalog, fills defaults and assigns missing ids.
func Parse(data []byte, format string) (*Catalog, error) {
	c := &Catalog{}
	var err error
	if format == "json" {
		err = json.Unmarshal(data, c)
	} else {
		err = yaml.Unmarshal(data, c)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c.SetDefaults()
	if err := c.assignIDs(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes c as YAML.
func Save(path string, c *Catalog) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Catalog) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if len(c.Languages) == 0 {
		c.Languages = append([]string(nil), DefaultLanguages...)
	}
	for i := range c.Endpoints {
		c.Endpoints[i].Method = strings.ToUpper(c.Endpoints[i].Method)
	}
}

func (c *Catalog) assignIDs() error {
	seen := make(map[string]struct{}, len(c.Endpoints))
	for i := range c.Endpoints {
		ep := &c.Endpoints[i]
		if ep.ID == "" {
			ep.ID = EndpointID(ep.Method, ep.Path)
		}
		if _, dup := seen[ep.ID]; dup {
			return fmt.Errorf("duplicate endpoint id %q", ep.ID)
		}
		seen[ep.ID] = struct{}{}
	}
	return nil
}

var nonWord = regexp.MustCompile(`[^A-Za-z0-9]+`)

// EndpointID derives a kebab-case id such as "post-chat-threads".
func EndpointID(method, path string) string {
	return strcase.ToKebab(strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(method)+" "+path, " ")))
}

// Find returns the endpoint with the given id.
func (c *Catalog) Find(id string) (*types.Endpoint, bool) {
	for i := range c.Endpoints {
		if c.Endpoints[i].ID == id {
			return &c.Endpoints[i], true
		}
	}
	return nil, false
}

// Get is Find with an error for unknown ids.
func (c *Catalog) Get(id string) (*types.Endpoint, error) {
	if ep, ok := c.Find(id); ok {
		return ep, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ResolveBaseURL returns override when set, else the catalog base URL.
func (c *Catalog) ResolveBaseURL(override string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	return strings.TrimRight(c.BaseURL, "/")
}

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

var knownTypes = map[types.ParamType]struct{}{
	types.TypeString: {}, types.TypeNumber: {}, types.TypeInteger: {}, types.TypeBoolean: {},
	types.TypeArray: {}, types.TypeObject: {}, types.TypeFile: {}, types.TypeFileList: {},
}

// Lint reports authoring problems. Nothing here blocks a request: a
// placeholder without a path parameter is sent literally.
func (c *Catalog) Lint() []string {
	var warnings []string
	for _, ep := range c.Endpoints {
		where := fmt.Sprintf("%s (%s %s)", ep.ID, ep.Method, ep.Path)
		switch ep.Method {
		case types.MethodGet, types.MethodPost, types.MethodPut, types.MethodDelete:
		default:
			warnings = append(warnings, fmt.Sprintf("%s: unsupported method %q", where, ep.Method))
		}
		for _, m := range placeholder.FindAllStringSubmatch(ep.Path, -1) {
			if _, ok := ep.Parameters.Path.Lookup(m[1]); !ok {
				warnings = append(warnings, fmt.Sprintf("%s: placeholder {%s} has no path parameter", where, m[1]))
			}
		}
		for _, p := range ep.Parameters.Path {
			if !strings.Contains(ep.Path, "{"+p.Name+"}") {
				warnings = append(warnings, fmt.Sprintf("%s: path parameter %q is not used in the path", where, p.Name))
			}
		}
		for _, g := range types.Groups {
			for _, p := range ep.Parameters.Group(g) {
				if _, ok := knownTypes[p.Type.Normalize()]; !ok {
					warnings = append(warnings, fmt.Sprintf("%s: %s parameter %q has unknown type %q", where, g, p.Name, p.Type))
				}
				if g != types.GroupBody && p.Type.IsFile() {
					warnings = append(warnings, fmt.Sprintf("%s: %s parameter %q cannot be a file", where, g, p.Name))
				}
			}
		}
		if len(ep.Parameters.Body) > 0 && ep.Method != types.MethodPost && ep.Method != types.MethodPut {
			warnings = append(warnings, fmt.Sprintf("%s: body parameters are ignored for %s", where, ep.Method))
		}
		if a := ep.Authentication; a != nil {
			if a.Type != types.AuthAPIKey && a.Type != types.AuthBearer {
				warnings = append(warnings, fmt.Sprintf("%s: unknown authentication type %q", where, a.Type))
			}
			if a.Location == types.LocationQuery {
				warnings = append(warnings, fmt.Sprintf("%s: query credential location is not supported; the header is used", where))
			}
		}
	}
	return warnings
}

// Example is a starter catalog.
func Example() *Catalog {
	c := &Catalog{
		Title: "CloudIndex API",
		Endpoints: []types.Endpoint{
			{
				Label:   "Create Thread (POST)",
				Summary: "Start a chat thread.",
				Method:  types.MethodPost,
				Path:    "/chat/threads",
				Parameters: types.Parameters{
					Body: types.ParamGroup{
						{Name: "systemPrompt", Type: types.TypeString, Description: "Instructions that steer the assistant"},
					},
				},
				Authentication: &types.Authentication{Type: types.AuthAPIKey, Location: types.LocationHeader},
			},
			{
				Label:   "Get Thread (GET)",
				Summary: "Fetch a chat thread with its messages.",
				Method:  types.MethodGet,
				Path:    "/chat/threads/{threadId}",
				Parameters: types.Parameters{
					Path:  types.ParamGroup{{Name: "threadId", Type: types.TypeString, Required: true, Description: "Thread identifier"}},
					Query: types.ParamGroup{{Name: "limit", Type: types.TypeInteger, Description: "Maximum messages to return"}},
				},
				Authentication: &types.Authentication{Type: types.AuthAPIKey, Location: types.LocationHeader},
			},
			{
				Label:   "Upload Document (POST)",
				Summary: "Upload a document for indexing.",
				Method:  types.MethodPost,
				Path:    "/documents",
				Parameters: types.Parameters{
					Body: types.ParamGroup{
						{Name: "title", Type: types.TypeString, Required: true, Description: "Document title"},
						{Name: "file", Type: types.TypeFile, Required: true, Description: "Document to upload"},
					},
				},
				Authentication: &types.Authentication{Type: types.AuthAPIKey, Location: types.LocationHeader},
			},
		},
	}
	c.SetDefaults()
	_ = c.assignIDs()
	return c
}
