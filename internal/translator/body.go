package translator

import (
	"io"
	"strings"

	"github.com/yourorg/playground/pkg/types"
)

// BodyKind selects how a request body is encoded.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyJSON
	BodyMultipart
)

func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyMultipart:
		return "multipart"
	}
	return "none"
}

// FileContentType is sent for every file part.
const FileContentType = "application/octet-stream"

// Part is one multipart form part.
type Part struct {
	Name  string
	Value string
	// File parts only.
	File     bool
	FileName string
	Source   string
	Content  io.Reader
}

// Body is an assembled request body.
type Body struct {
	Kind  BodyKind
	JSON  Object
	Parts []Part
}

// Encoded returns the compact JSON text of a JSON body.
func (b Body) Encoded() string {
	if b.Kind != BodyJSON {
		return ""
	}
	return b.JSON.String()
}

// HasBody reports whether the endpoint sends a body at all.
func HasBody(ep *types.Endpoint) bool {
	m := strings.ToUpper(ep.Method)
	return (m == types.MethodPost || m == types.MethodPut) && len(ep.Parameters.Body) > 0
}

// BuildBody assembles the body for ep. In sample mode required fields
// without a value are filled with DefaultValue; in live mode they are left out.
func BuildBody(ep *types.Endpoint, values types.ParamValues, mode Mode, files types.FileSelections) Body {
	if !HasBody(ep) {
		return Body{Kind: BodyNone}
	}
	params := ep.Parameters.Body
	if params.HasFile() {
		return Body{Kind: BodyMultipart, Parts: multipartParts(params, values, mode, files)}
	}

	obj := make(Object, 0, len(params))
	for _, p := range params {
		if v, ok := Coerce(values.Get(types.GroupBody, p.Name), p.Type); ok {
			obj = append(obj, Field{Name: p.Name, Value: v})
		} else if p.Required && mode == ModeSample {
			obj = append(obj, Field{Name: p.Name, Value: DefaultValue(p.Type)})
		}
	}
	return Body{Kind: BodyJSON, JSON: obj}
}

func multipartParts(params types.ParamGroup, values types.ParamValues, mode Mode, files types.FileSelections) []Part {
	var parts []Part
	for _, p := range params {
		raw := values.Get(types.GroupBody, p.Name)
		if p.Type.IsFile() {
			parts = append(parts, fileParts(p, raw, mode, files)...)
			continue
		}
		if v, ok := Coerce(raw, p.Type); ok {
			parts = append(parts, Part{Name: p.Name, Value: Stringify(v)})
		} else if p.Required && mode == ModeSample {
			parts = append(parts, Part{Name: p.Name, Value: Stringify(DefaultValue(p.Type))})
		}
	}
	return parts
}

func fileParts(p types.Parameter, raw string, mode Mode, files types.FileSelections) []Part {
	if mode == ModeLive {
		if sel := files[types.Key(types.GroupBody, p.Name)]; sel != nil && len(sel.Files) > 0 {
			parts := make([]Part, 0, len(sel.Files))
			for _, f := range sel.Files {
				content := f.Content
				if content == nil {
					content = strings.NewReader("")
				}
				parts = append(parts, Part{Name: p.Name, File: true, FileName: f.Name, Source: f.Name, Content: content})
			}
			return parts
		}
	}
	if raw == "" {
		return nil
	}

	sources := []string{raw}
	if p.Type.Normalize() == types.TypeFileList {
		sources = nil
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sources = append(sources, s)
			}
		}
	}
	parts := make([]Part, 0, len(sources))
	for _, src := range sources {
		part := Part{Name: p.Name, File: true, FileName: baseName(src), Source: src}
		if mode == ModeLive {
			part.Content = strings.NewReader("")
		}
		parts = append(parts, part)
	}
	return parts
}

// baseName is the last '/'-separated segment, or the whole value when that
// segment is empty.
func baseName(path string) string {
	segs := strings.Split(path, "/")
	if last := segs[len(segs)-1]; last != "" {
		return last
	}
	return path
}
