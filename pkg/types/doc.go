package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// HTTP methods an endpoint may declare.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
)

// ParamType is the declared type of a parameter.
type ParamType string

const (
	TypeString   ParamType = "string"
	TypeNumber   ParamType = "number"
	TypeInteger  ParamType = "integer"
	TypeBoolean  ParamType = "boolean"
	TypeArray    ParamType = "array"
	TypeObject   ParamType = "object"
	TypeFile     ParamType = "file"
	TypeFileList ParamType = "file[]"
)

// Normalize lower-cases the type for comparison.
func (t ParamType) Normalize() ParamType {
	return ParamType(strings.ToLower(strings.TrimSpace(string(t))))
}

// IsFile reports whether the parameter carries file handles instead of text.
func (t ParamType) IsFile() bool {
	n := t.Normalize()
	return n == TypeFile || n == TypeFileList
}

// Group names one of the three independent parameter namespaces.
type Group string

const (
	GroupPath  Group = "path"
	GroupQuery Group = "query"
	GroupBody  Group = "body"
)

// Groups lists the parameter groups in display order.
var Groups = []Group{GroupPath, GroupQuery, GroupBody}

// Parameter describes one input slot of an endpoint.
type Parameter struct {
	Name        string    `json:"name" yaml:"-"`
	Type        ParamType `json:"type" yaml:"type"`
	Required    bool      `json:"required" yaml:"required"`
	Description string    `json:"description" yaml:"description"`
}

// paramFields is the authored form of a Parameter; the name is the mapping key.
type paramFields struct {
	Type        ParamType `json:"type" yaml:"type"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// ParamGroup is an ordered set of parameters. It is authored as a mapping
// from name to parameter and the authored key order is kept.
type ParamGroup []Parameter

// Lookup returns the named parameter.
func (g ParamGroup) Lookup(name string) (Parameter, bool) {
	for _, p := range g {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// HasFile reports whether any parameter in the group is file-typed.
func (g ParamGroup) HasFile() bool {
	for _, p := range g {
		if p.Type.IsFile() {
			return true
		}
	}
	return false
}

func (g *ParamGroup) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: parameter group must be a mapping", node.Line)
	}
	out := make(ParamGroup, 0, len(node.Content)/2)
	seen := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if _, dup := seen[name]; dup {
			return fmt.Errorf("line %d: duplicate parameter %q", node.Content[i].Line, name)
		}
		seen[name] = struct{}{}
		var f paramFields
		if err := node.Content[i+1].Decode(&f); err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
		out = append(out, Parameter{Name: name, Type: f.Type, Required: f.Required, Description: f.Description})
	}
	*g = out
	return nil
}

func (g ParamGroup) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range g {
		var value yaml.Node
		if err := value.Encode(paramFields{Type: p.Type, Required: p.Required, Description: p.Description}); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: p.Name}, &value)
	}
	return node, nil
}

func (g *ParamGroup) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*g = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("parameter group must be an object")
	}
	out := make(ParamGroup, 0)
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate parameter %q", name)
		}
		seen[name] = struct{}{}
		var f paramFields
		if err := dec.Decode(&f); err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
		out = append(out, Parameter{Name: name, Type: f.Type, Required: f.Required, Description: f.Description})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*g = out
	return nil
}

func (g ParamGroup) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(paramFields{Type: p.Type, Required: p.Required, Description: p.Description})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Parameters holds the three parameter groups of an endpoint.
type Parameters struct {
	Path  ParamGroup `json:"path,omitempty" yaml:"path,omitempty"`
	Query ParamGroup `json:"query,omitempty" yaml:"query,omitempty"`
	Body  ParamGroup `json:"body,omitempty" yaml:"body,omitempty"`
}

// Group returns the parameters of one group.
func (p Parameters) Group(g Group) ParamGroup {
	switch g {
	case GroupPath:
		return p.Path
	case GroupQuery:
		return p.Query
	case GroupBody:
		return p.Body
	}
	return nil
}

// Authentication schemes.
const (
	AuthAPIKey = "apiKey"
	AuthBearer = "bearer"
)

// Credential locations. Only header placement is implemented.
const (
	LocationHeader = "header"
	LocationQuery  = "query"
)

// Authentication declares how the credential is attached.
type Authentication struct {
	Type     string `json:"type" yaml:"type"`
	Location string `json:"location" yaml:"location"`
}

// Endpoint describes one documented API operation.
type Endpoint struct {
	ID             string          `json:"id" yaml:"id"`
	Label          string          `json:"label,omitempty" yaml:"label,omitempty"`
	Summary        string          `json:"summary,omitempty" yaml:"summary,omitempty"`
	Method         string          `json:"method" yaml:"method"`
	Path           string          `json:"path" yaml:"path"`
	Parameters     Parameters      `json:"parameters" yaml:"parameters"`
	Authentication *Authentication `json:"authentication,omitempty" yaml:"authentication,omitempty"`
}
