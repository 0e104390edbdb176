package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"

	"github.com/yourorg/playground/internal/har"
	"github.com/yourorg/playground/pkg/types"
)

var opaqueID = regexp.MustCompile(`^[A-Za-z0-9_-]{16,}$`)

// FromTraffic infers a catalog from recorded exchanges that all share one
// origin. Path segments that look like identifiers become placeholders and
// the leading segments every path shares move into the base URL.
func FromTraffic(xs []har.Exchange) (*Catalog, []string, error) {
	if len(xs) == 0 {
		return nil, nil, fmt.Errorf("no API traffic to import")
	}
	var warnings []string

	templated := make([][]string, len(xs))
	for i, x := range xs {
		templated[i] = templatePath(x.Path)
	}
	prefix := commonPrefix(templated)

	type group struct {
		method string
		segs   []string
		xs     []har.Exchange
	}
	var groups []*group
	index := map[string]*group{}
	for i, x := range xs {
		segs := templated[i][len(prefix):]
		key := x.Method + " /" + strings.Join(segs, "/")
		g, ok := index[key]
		if !ok {
			g = &group{method: x.Method, segs: segs}
			index[key] = g
			groups = append(groups, g)
		}
		g.xs = append(g.xs, x)
	}

	c := &Catalog{BaseURL: xs[0].Origin()}
	if len(prefix) > 0 {
		c.BaseURL += "/" + strings.Join(prefix, "/")
	}
	for _, g := range groups {
		if !isMethod(g.method) {
			warnings = append(warnings, fmt.Sprintf("%s /%s: method not supported, skipped", g.method, strings.Join(g.segs, "/")))
			continue
		}
		ep, w := inferEndpoint(g.method, g.segs, g.xs)
		warnings = append(warnings, w...)
		c.Endpoints = append(c.Endpoints, ep)
	}

	c.SetDefaults()
	if err := c.assignIDs(); err != nil {
		return nil, warnings, err
	}
	return c, warnings, nil
}

func isMethod(m string) bool {
	switch m {
	case types.MethodGet, types.MethodPost, types.MethodPut, types.MethodDelete:
		return true
	}
	return false
}

// templatePath splits a path and replaces identifier segments with "{}".
// Names are filled in per endpoint.
func templatePath(p string) []string {
	var out []string
	for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
		if seg == "" {
			continue
		}
		if looksLikeID(seg) {
			seg = "{}"
		}
		out = append(out, seg)
	}
	return out
}

func looksLikeID(seg string) bool {
	if _, err := strconv.ParseUint(seg, 10, 64); err == nil {
		return true
	}
	if _, err := uuid.Parse(seg); err == nil {
		return true
	}
	return opaqueID.MatchString(seg) && strings.ContainsAny(seg, "0123456789")
}

// commonPrefix is the run of static segments every path starts with, leaving
// at least one segment in each path.
func commonPrefix(paths [][]string) []string {
	if len(paths) == 0 {
		return nil
	}
	var prefix []string
	for i := 0; ; i++ {
		var seg string
		for j, p := range paths {
			if i >= len(p)-1 || p[i] == "{}" {
				return prefix
			}
			if j == 0 {
				seg = p[i]
			} else if p[i] != seg {
				return prefix
			}
		}
		prefix = append(prefix, seg)
	}
}

func inferEndpoint(method string, segs []string, xs []har.Exchange) (types.Endpoint, []string) {
	var warnings []string
	ep := types.Endpoint{Method: method}

	named := make([]string, len(segs))
	used := map[string]int{}
	var noun string
	for i, seg := range segs {
		if seg != "{}" {
			named[i] = seg
			noun = seg
			continue
		}
		name := "id"
		if i > 0 && segs[i-1] != "{}" {
			name = strcase.ToLowerCamel(singular(segs[i-1]) + "_id")
		}
		if n := used[name]; n > 0 {
			name = fmt.Sprintf("%s%d", name, n+1)
		}
		used[name]++
		named[i] = "{" + name + "}"
		ep.Parameters.Path = append(ep.Parameters.Path, types.Parameter{Name: name, Type: types.TypeString, Required: true})
	}
	ep.Path = "/" + strings.Join(named, "/")
	ep.Label = fmt.Sprintf("%s (%s)", actionLabel(method, noun, len(segs) > 0 && segs[len(segs)-1] == "{}"), method)

	queries := make([]map[string]string, len(xs))
	for i, x := range xs {
		queries[i] = map[string]string{}
		for k, vs := range x.Query {
			if len(vs) > 0 {
				queries[i][k] = vs[0]
			}
		}
	}
	ep.Parameters.Query = inferFields(queries, sortedKeys(queries), inferScalar)

	if method == types.MethodPost || method == types.MethodPut {
		body, w := inferBody(xs)
		ep.Parameters.Body = body
		warnings = append(warnings, w...)
	}

	auth, w := inferAuth(xs)
	ep.Authentication = auth
	if w != "" {
		warnings = append(warnings, method+" "+ep.Path+": "+w)
	}
	ep.Summary = summarize(xs)
	return ep, warnings
}

func actionLabel(method, noun string, item bool) string {
	if noun == "" {
		noun = "root"
	}
	one := strcase.ToCamel(singular(noun))
	switch method {
	case types.MethodGet:
		if item {
			return "Get " + one
		}
		return "List " + strcase.ToCamel(noun)
	case types.MethodPost:
		return "Create " + one
	case types.MethodPut:
		return "Update " + one
	case types.MethodDelete:
		return "Delete " + one
	}
	return one
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "ss"):
		return s
	case strings.HasSuffix(s, "s") && len(s) > 1:
		return s[:len(s)-1]
	}
	return s
}

func summarize(xs []har.Exchange) string {
	seen := map[int]bool{}
	var codes []int
	for _, x := range xs {
		if !seen[x.StatusCode] {
			seen[x.StatusCode] = true
			codes = append(codes, x.StatusCode)
		}
	}
	sort.Ints(codes)
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	calls := "call"
	if len(xs) != 1 {
		calls = "calls"
	}
	return fmt.Sprintf("Recorded %d %s, status %s.", len(xs), calls, strings.Join(parts, ", "))
}

// inferBody reads multipart/urlencoded params when present, otherwise a JSON
// object body. Keys keep their first-seen order.
func inferBody(xs []har.Exchange) (types.ParamGroup, []string) {
	var warnings []string
	samples := make([]map[string]string, 0, len(xs))
	files := map[string]int{}
	var order []string
	seen := map[string]bool{}
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
	}

	for _, x := range xs {
		switch {
		case len(x.Form) > 0:
			fields := map[string]string{}
			counts := map[string]int{}
			for _, p := range x.Form {
				add(p.Name)
				if p.FileName != "" {
					counts[p.Name]++
					fields[p.Name] = "\x00file"
					continue
				}
				fields[p.Name] = p.Value
			}
			for k, n := range counts {
				if n > files[k] {
					files[k] = n
				}
			}
			samples = append(samples, fields)
		case strings.TrimSpace(x.Body) != "":
			keys, fields, err := jsonObjectFields(x.Body)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s %s: request body is not a JSON object, skipped", x.Method, x.Path))
				continue
			}
			for _, k := range keys {
				add(k)
			}
			samples = append(samples, fields)
		default:
			samples = append(samples, map[string]string{})
		}
	}

	group := inferFields(samples, order, inferJSON)
	for i := range group {
		if n, ok := files[group[i].Name]; ok {
			group[i].Type = types.TypeFile
			if n > 1 {
				group[i].Type = types.TypeFileList
			}
		}
	}
	return group, warnings
}

// jsonObjectFields returns the top-level keys of a JSON object in document
// order with each value's raw text.
func jsonObjectFields(body string) ([]string, map[string]string, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("not an object")
	}
	var keys []string
	fields := map[string]string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		fields[key] = string(bytes.TrimSpace(raw))
	}
	return keys, fields, nil
}

// inferFields builds parameters for keys in order. A key is required when
// every sample carries it.
func inferFields(samples []map[string]string, order []string, infer func(string) types.ParamType) types.ParamGroup {
	var out types.ParamGroup
	for _, k := range order {
		var t types.ParamType
		required := len(samples) > 0
		for _, s := range samples {
			v, ok := s[k]
			if !ok {
				required = false
				continue
			}
			t = mergeType(t, infer(v))
		}
		if t == "" {
			t = types.TypeString
		}
		out = append(out, types.Parameter{Name: k, Type: t, Required: required})
	}
	return out
}

func sortedKeys(samples []map[string]string) []string {
	seen := map[string]bool{}
	var keys []string
	for _, s := range samples {
		for k := range s {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func mergeType(a, b types.ParamType) types.ParamType {
	switch {
	case a == "" || a == b:
		return b
	case (a == types.TypeInteger && b == types.TypeNumber) || (a == types.TypeNumber && b == types.TypeInteger):
		return types.TypeNumber
	}
	return types.TypeString
}

// inferScalar types a query string value.
func inferScalar(v string) types.ParamType {
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return types.TypeInteger
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return types.TypeNumber
	}
	if v == "true" || v == "false" {
		return types.TypeBoolean
	}
	return types.TypeString
}

// inferJSON types the raw text of a JSON value. Form file markers and plain
// form text fall through to string.
func inferJSON(raw string) types.ParamType {
	if raw == "\x00file" {
		return types.TypeFile
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return types.TypeString
	}
	switch val := v.(type) {
	case bool:
		return types.TypeBoolean
	case json.Number:
		if f, err := val.Float64(); err == nil && f == math.Trunc(f) && !strings.ContainsAny(val.String(), ".eE") {
			return types.TypeInteger
		}
		return types.TypeNumber
	case []any:
		return types.TypeArray
	case map[string]any:
		return types.TypeObject
	}
	return types.TypeString
}

func inferAuth(xs []har.Exchange) (*types.Authentication, string) {
	for _, x := range xs {
		h := strings.TrimSpace(x.Header("Authorization"))
		if h == "" {
			continue
		}
		scheme, _, _ := strings.Cut(h, " ")
		switch strings.ToLower(scheme) {
		case "apikey":
			return &types.Authentication{Type: types.AuthAPIKey, Location: types.LocationHeader}, ""
		case "bearer":
			return &types.Authentication{Type: types.AuthBearer, Location: types.LocationHeader}, ""
		}
		return nil, fmt.Sprintf("authorization scheme %q not supported, endpoint imported without authentication", scheme)
	}
	return nil, ""
}
