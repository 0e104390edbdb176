package codegen

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yourorg/playground/internal/translator"
)

type pythonGenerator struct{}

func (pythonGenerator) Generate(req *translator.Request) string {
	var b strings.Builder
	b.WriteString("import requests\n\n")
	b.WriteString("url = " + jsonString(req.URL) + "\n")

	if len(req.Headers) == 0 {
		b.WriteString("headers = {}\n")
	} else {
		b.WriteString("headers = {\n")
		for _, h := range req.Headers {
			b.WriteString("    " + jsonString(h.Name) + ": " + jsonString(h.Value) + ",\n")
		}
		b.WriteString("}\n")
	}

	args := "url, headers=headers"
	switch req.Body.Kind {
	case translator.BodyJSON:
		b.WriteString("\ndata = " + pyValue(req.Body.JSON) + "\n")
		args += ", json=data"
	case translator.BodyMultipart:
		var fields, files []string
		for _, p := range req.Body.Parts {
			if p.File {
				files = append(files, "("+jsonString(p.Name)+", ("+jsonString(p.FileName)+", open("+jsonString(p.Source)+", \"rb\"))),")
				continue
			}
			fields = append(fields, jsonString(p.Name)+": "+jsonString(p.Value)+",")
		}
		b.WriteString("\ndata = {\n")
		for _, f := range fields {
			b.WriteString("    " + f + "\n")
		}
		b.WriteString("}\n")
		args += ", data=data"
		if len(files) > 0 {
			b.WriteString("files = [\n")
			for _, f := range files {
				b.WriteString("    " + f + "\n")
			}
			b.WriteString("]\n")
			args += ", files=files"
		}
	}

	b.WriteString("\nresponse = requests." + strings.ToLower(req.Method) + "(" + args + ")\n")
	b.WriteString("print(response.json())")
	return b.String()
}

// pyValue renders a decoded JSON value as a Python literal. Non-finite
// numbers become None, matching what the JSON body carries.
func pyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return "None"
		}
		return translator.FormatNumber(val)
	case string:
		return jsonString(val)
	case translator.Object:
		items := make([]string, len(val))
		for i, f := range val {
			items[i] = jsonString(f.Name) + ": " + pyValue(f.Value)
		}
		return "{" + strings.Join(items, ", ") + "}"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]string, len(keys))
		for i, k := range keys {
			items[i] = jsonString(k) + ": " + pyValue(val[k])
		}
		return "{" + strings.Join(items, ", ") + "}"
	case []any:
		items := make([]string, len(val))
		for i, e := range val {
			items[i] = pyValue(e)
		}
		return "[" + strings.Join(items, ", ") + "]"
	}
	return "None"
}

// jsonString quotes s as a JSON string, which is also a valid Python and
// JavaScript string literal.
func jsonString(s string) string {
	b, err := translator.EncodeJSON(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
