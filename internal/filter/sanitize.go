package filter

import (
	"encoding/json"
	"strings"

	"github.com/yourorg/playground/internal/config"
	"github.com/yourorg/playground/internal/translator"
	"github.com/yourorg/playground/pkg/types"
)

// RedactConfig is an alias of config.RedactConfig.
type RedactConfig = config.RedactConfig

// Redact returns a copy of headers with sensitive values replaced.
func Redact(headers map[string]string, cfg RedactConfig) map[string]string {
	return redactHeaderMap(headers, toLowerSet(cfg.Headers), cfg.Replacement)
}

// RedactBody replaces sensitive fields of a JSON body, at any depth.
// Non-JSON bodies are returned unchanged.
func RedactBody(body string, cfg RedactConfig) string {
	return redactBody(body, toLowerSet(cfg.BodyFields), cfg.Replacement)
}

// HistoryEntry converts a sent request into a redacted history record.
func HistoryEntry(endpointID string, req *translator.Request, cfg RedactConfig) *types.HistoryEntry {
	headers := make(map[string]string, len(req.Headers))
	for _, h := range req.Headers {
		headers[h.Name] = h.Value
	}
	e := &types.HistoryEntry{
		EndpointID:     endpointID,
		Method:         req.Method,
		URL:            req.URL,
		RequestHeaders: Redact(headers, cfg),
	}
	switch req.Body.Kind {
	case translator.BodyJSON:
		e.RequestBody = RedactBody(req.Body.Encoded(), cfg)
	case translator.BodyMultipart:
		fields := make(map[string]any, len(req.Body.Parts))
		for _, p := range req.Body.Parts {
			if p.File {
				fields[p.Name] = "@" + p.FileName
				continue
			}
			fields[p.Name] = p.Value
		}
		if b, err := json.Marshal(fields); err == nil {
			e.RequestBody = RedactBody(string(b), cfg)
		}
	}
	return e
}

func toLowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, v := range items {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

func redactHeaderMap(in map[string]string, set map[string]struct{}, replacement string) map[string]string {
	if len(in) == 0 {
		return in
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if _, ok := set[strings.ToLower(k)]; ok {
			out[k] = replacement
			continue
		}
		out[k] = v
	}
	return out
}

func redactBody(body string, set map[string]struct{}, replacement string) string {
	if strings.TrimSpace(body) == "" || len(set) == 0 {
		return body
	}
	var v interface{}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return body
	}
	v = redactJSONValue(v, set, replacement)
	out, err := json.Marshal(v)
	if err != nil {
		return body
	}
	return string(out)
}

func redactJSONValue(v interface{}, set map[string]struct{}, replacement string) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			if _, ok := set[strings.ToLower(k)]; ok {
				val[k] = replacement
				continue
			}
			val[k] = redactJSONValue(v2, set, replacement)
		}
		return val
	case []interface{}:
		for i := range val {
			val[i] = redactJSONValue(val[i], set, replacement)
		}
		return val
	default:
		return val
	}
}
