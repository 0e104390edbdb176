package translator

import (
	"strings"

	"github.com/yourorg/playground/pkg/types"
)

const unreserved = "-_.!~*'()"

// EncodeURIComponent percent-encodes s as UTF-8, leaving letters, digits
// and -_.!~*'() untouched.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') || strings.IndexByte(unreserved, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

// ResolvePath substitutes "{name}" placeholders with encoded path values.
// Only the first occurrence of each placeholder is replaced. Placeholders
// without a value stay literal.
func ResolvePath(template string, params types.ParamGroup, values types.ParamValues) string {
	out := template
	for _, p := range params {
		v := values.Get(types.GroupPath, p.Name)
		if v == "" {
			continue
		}
		out = strings.Replace(out, "{"+p.Name+"}", EncodeURIComponent(v), 1)
	}
	return out
}

// BuildQueryString renders "?k=v&..." in declared order, skipping empty
// values. Names are emitted as declared and only values are encoded. It
// returns "" when nothing is set.
func BuildQueryString(params types.ParamGroup, values types.ParamValues) string {
	var pairs []string
	for _, p := range params {
		v := values.Get(types.GroupQuery, p.Name)
		if v == "" {
			continue
		}
		pairs = append(pairs, p.Name+"="+EncodeURIComponent(v))
	}
	if len(pairs) == 0 {
		return ""
	}
	return "?" + strings.Join(pairs, "&")
}
