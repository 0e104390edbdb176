package codegen

import (
	"fmt"
	"strings"

	"github.com/yourorg/playground/internal/translator"
)

type jsGenerator struct{}

func (jsGenerator) Generate(req *translator.Request) string {
	var b strings.Builder
	if req.Body.Kind == translator.BodyMultipart {
		b.WriteString("const form = new FormData();\n")
		idx := fileIndexes(req.Body.Parts)
		for i, p := range req.Body.Parts {
			if p.File {
				selector := fmt.Sprintf(`input[name="%s"]`, p.Name)
				fmt.Fprintf(&b, "form.append(%s, document.querySelector(%s).files[%d]); // %s\n",
					jsQuote(p.Name), jsQuote(selector), idx[i], p.FileName)
				continue
			}
			fmt.Fprintf(&b, "form.append(%s, %s);\n", jsQuote(p.Name), jsQuote(p.Value))
		}
		b.WriteString("\n")
	}

	b.WriteString("const options = {\n")
	b.WriteString("  method: " + jsQuote(req.Method) + ",\n")
	if len(req.Headers) > 0 {
		b.WriteString("  headers: {\n")
		for _, h := range req.Headers {
			b.WriteString("    " + jsQuote(h.Name) + ": " + jsQuote(h.Value) + ",\n")
		}
		b.WriteString("  },\n")
	}
	switch req.Body.Kind {
	case translator.BodyJSON:
		b.WriteString("  body: JSON.stringify(" + req.Body.Encoded() + "),\n")
	case translator.BodyMultipart:
		b.WriteString("  body: form,\n")
	}
	b.WriteString("};\n\n")

	b.WriteString("fetch(" + jsQuote(req.URL) + ", options)\n")
	b.WriteString("  .then(response => response.json())\n")
	b.WriteString("  .then(data => console.log(data))\n")
	b.WriteString("  .catch(error => console.error(error));")
	return b.String()
}

var jsEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\u2028", `\u2028`, "\u2029", `\u2029`)

// jsQuote renders s as a single-quoted JavaScript string.
func jsQuote(s string) string {
	return "'" + jsEscaper.Replace(s) + "'"
}
