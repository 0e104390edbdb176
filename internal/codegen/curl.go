package codegen

import (
	"strings"

	"github.com/yourorg/playground/internal/translator"
)

type curlGenerator struct{}

func (curlGenerator) Generate(req *translator.Request) string {
	parts := []string{"curl", "-X " + req.Method}
	for _, h := range req.Headers {
		parts = append(parts, "-H "+shellQuote(h.Name+": "+h.Value))
	}
	parts = append(parts, shellQuote(req.URL))

	switch req.Body.Kind {
	case translator.BodyJSON:
		parts = append(parts, "-d "+shellQuote(req.Body.Encoded()))
	case translator.BodyMultipart:
		for _, p := range req.Body.Parts {
			switch {
			case p.File:
				parts = append(parts, "-F "+shellQuote(p.Name+"=@"+p.Source))
			default:
				// --form-string keeps ";type=" and a leading "@" literal.
				parts = append(parts, "--form-string "+shellQuote(p.Name+"="+p.Value))
			}
		}
	}
	return strings.Join(parts, " \\\n  ")
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
