// Package codegen renders a resolved request as source code in several
// target languages. Generators are pure string builders.
package codegen

import (
	"fmt"
	"strings"

	"github.com/yourorg/playground/internal/translator"
	"github.com/yourorg/playground/pkg/types"
)

// Language names a sample target.
type Language string

const (
	Curl       Language = "curl"
	Python     Language = "python"
	JavaScript Language = "javascript"
	Go         Language = "go"
)

// DefaultLanguages is the order samples are shown in.
var DefaultLanguages = []Language{Curl, Python, JavaScript, Go}

// Generator renders one request as source text.
type Generator interface {
	Generate(req *translator.Request) string
}

var generators = map[Language]Generator{
	Curl:       curlGenerator{},
	Python:     pythonGenerator{},
	JavaScript: jsGenerator{},
	Go:         goGenerator{},
}

// ParseLanguage matches name case-insensitively. Unknown names are kept
// verbatim so they can be reported back.
func ParseLanguage(name string) Language {
	l := Language(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := generators[l]; ok {
		return l
	}
	return Language(name)
}

// Supported reports whether a generator exists for l.
func (l Language) Supported() bool {
	_, ok := generators[l]
	return ok
}

// Highlight is the syntax highlighting name for l.
func (l Language) Highlight() string {
	if l == JavaScript {
		return "typescript"
	}
	return string(l)
}

// For returns the generator for lang. Unknown languages get a generator
// that renders an error line instead of failing.
func For(lang Language) Generator {
	if g, ok := generators[lang]; ok {
		return g
	}
	return unsupportedGenerator{name: string(lang)}
}

type unsupportedGenerator struct{ name string }

func (g unsupportedGenerator) Generate(*translator.Request) string {
	return fmt.Sprintf("Unsupported language: %s", g.name)
}

// Sample is a rendered code sample.
type Sample struct {
	Language  string `json:"language"`
	Highlight string `json:"highlight"`
	Code      string `json:"code"`
	Supported bool   `json:"supported"`
}

// Render builds the sample request for ep and renders it in lang.
func Render(lang Language, ep *types.Endpoint, baseURL, credential string, values types.ParamValues) (Sample, error) {
	req, err := translator.Build(ep, baseURL, credential, values, translator.Options{Mode: translator.ModeSample})
	if err != nil {
		return Sample{}, fmt.Errorf("build sample request: %w", err)
	}
	return Sample{
		Language:  string(lang),
		Highlight: lang.Highlight(),
		Code:      For(lang).Generate(req),
		Supported: lang.Supported(),
	}, nil
}

// RenderAll renders ep once per language name, in order.
func RenderAll(langs []string, ep *types.Endpoint, baseURL, credential string, values types.ParamValues) ([]Sample, error) {
	out := make([]Sample, 0, len(langs))
	for _, name := range langs {
		s, err := Render(ParseLanguage(name), ep, baseURL, credential, values)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Names converts languages to their string form.
func Names(langs []Language) []string {
	out := make([]string, len(langs))
	for i, l := range langs {
		out[i] = string(l)
	}
	return out
}

// fileIndexes numbers repeated file parts per field, starting at zero.
func fileIndexes(parts []translator.Part) []int {
	seen := map[string]int{}
	idx := make([]int, len(parts))
	for i, p := range parts {
		if !p.File {
			continue
		}
		idx[i] = seen[p.Name]
		seen[p.Name]++
	}
	return idx
}

func hasFilePart(parts []translator.Part) bool {
	for _, p := range parts {
		if p.File {
			return true
		}
	}
	return false
}
