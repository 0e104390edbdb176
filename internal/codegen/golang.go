package codegen

import (
	"sort"
	"strconv"
	"strings"

	"github.com/yourorg/playground/internal/translator"
)

type goGenerator struct{}

const goCheckErr = "\tif err != nil {\n\t\tfmt.Println(\"Error:\", err)\n\t\treturn\n\t}\n"

func (goGenerator) Generate(req *translator.Request) string {
	kind := req.Body.Kind
	withFiles := kind == translator.BodyMultipart && hasFilePart(req.Body.Parts)

	imports := []string{"fmt", "io", "net/http"}
	switch kind {
	case translator.BodyJSON:
		imports = append(imports, "strings")
	case translator.BodyMultipart:
		imports = append(imports, "bytes", "mime/multipart")
		if withFiles {
			imports = append(imports, "os")
		}
	}
	sort.Strings(imports)

	var b strings.Builder
	b.WriteString("package main\n\nimport (\n")
	for _, imp := range imports {
		b.WriteString("\t" + strconv.Quote(imp) + "\n")
	}
	b.WriteString(")\n\nfunc main() {\n")

	bodyArg := "nil"
	switch kind {
	case translator.BodyJSON:
		b.WriteString("\tbody := strings.NewReader(" + goStringLiteral(req.Body.Encoded()) + ")\n")
		bodyArg = "body"
	case translator.BodyMultipart:
		b.WriteString("\tvar buf bytes.Buffer\n\tw := multipart.NewWriter(&buf)\n")
		for _, p := range req.Body.Parts {
			if p.File {
				b.WriteString("\tif err := addFile(w, " + strconv.Quote(p.Name) + ", " + strconv.Quote(p.FileName) + ", " + strconv.Quote(p.Source) + "); err != nil {\n")
			} else {
				b.WriteString("\tif err := w.WriteField(" + strconv.Quote(p.Name) + ", " + strconv.Quote(p.Value) + "); err != nil {\n")
			}
			b.WriteString("\t\tfmt.Println(\"Error:\", err)\n\t\treturn\n\t}\n")
		}
		b.WriteString("\tif err := w.Close(); err != nil {\n\t\tfmt.Println(\"Error:\", err)\n\t\treturn\n\t}\n")
		bodyArg = "&buf"
	}
	if kind != translator.BodyNone {
		b.WriteString("\n")
	}

	b.WriteString("\treq, err := http.NewRequest(" + strconv.Quote(req.Method) + ", " + strconv.Quote(req.URL) + ", " + bodyArg + ")\n")
	b.WriteString(goCheckErr)
	if kind == translator.BodyMultipart {
		b.WriteString("\treq.Header.Set(\"Content-Type\", w.FormDataContentType())\n")
	}
	for _, h := range req.Headers {
		b.WriteString("\treq.Header.Set(" + strconv.Quote(h.Name) + ", " + strconv.Quote(h.Value) + ")\n")
	}

	b.WriteString("\n\tresp, err := http.DefaultClient.Do(req)\n")
	b.WriteString(goCheckErr)
	b.WriteString("\tdefer resp.Body.Close()\n\n")
	b.WriteString("\tout, err := io.ReadAll(resp.Body)\n")
	b.WriteString(goCheckErr)
	b.WriteString("\tfmt.Println(resp.Status)\n\tfmt.Println(string(out))\n}\n")

	if withFiles {
		b.WriteString(`
func addFile(w *multipart.Writer, field, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
`)
	}
	return strings.TrimRight(b.String(), "\n")
}

// goStringLiteral prefers a raw string literal and falls back to a quoted one.
func goStringLiteral(s string) string {
	if strings.ContainsAny(s, "`\r") {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}
