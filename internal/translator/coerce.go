package translator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/yourorg/playground/pkg/types"
)

// Coerce converts raw input text into a typed value for the declared type.
// ok is false when the input is empty, which means "omit this field".
func Coerce(raw string, t types.ParamType) (v any, ok bool) {
	if raw == "" {
		return nil, false
	}
	switch t.Normalize() {
	case types.TypeBoolean:
		return strings.ToLower(raw) == "true", true
	case types.TypeNumber, types.TypeInteger:
		return parseNumber(raw), true
	case types.TypeArray:
		if parsed, err := decodeOrdered(raw); err == nil {
			return parsed, true
		}
		parts := strings.Split(raw, ",")
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = strings.TrimSpace(p)
		}
		return out, true
	case types.TypeObject:
		if parsed, err := decodeOrdered(raw); err == nil {
			return parsed, true
		}
		return raw, true
	default:
		return raw, true
	}
}

// DefaultValue is the placeholder used for a required field with no value.
func DefaultValue(t types.ParamType) any {
	switch t.Normalize() {
	case types.TypeBoolean:
		return false
	case types.TypeNumber, types.TypeInteger:
		return 0
	case types.TypeArray:
		return []any{}
	case types.TypeObject:
		return map[string]any{}
	default:
		return "<" + string(t) + ">"
	}
}

// parseNumber follows browser number parsing: surrounding whitespace is
// ignored, blank text is zero, base prefixes are accepted and anything
// else unparsable is NaN.
func parseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil || strings.Contains(s, "_") {
				return math.NaN()
			}
			return float64(n)
		}
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789.eE+-", r) {
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// FormatNumber renders a float the way a browser stringifies numbers.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		s = strings.Replace(s, "e-0", "e-", 1)
		return strings.Replace(s, "e+0", "e+", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Stringify renders a coerced value as form-field text.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return FormatNumber(val)
	case int:
		return strconv.Itoa(val)
	default:
		b, err := EncodeJSON(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// EncodeJSON marshals v without HTML escaping. Non-finite numbers become
// null, as they do in browsers.
func EncodeJSON(v any) ([]byte, error) {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decodeOrdered parses a JSON document like json.Unmarshal into any, except
// that objects become Object so members keep the order they were written in.
func decodeOrdered(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid character after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		obj := Object{}
		for dec.More() {
			key, err := dec.Token()
			if err != nil {
				return nil, err
			}
			name, _ := key.(string)
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = obj.set(name, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", d)
}

// Field is one member of an ordered JSON object.
type Field struct {
	Name  string
	Value any
}

// Object is a JSON object that keeps insertion order.
type Object []Field

// Get returns the value of the named field.
func (o Object) Get(name string) (any, bool) {
	for _, f := range o {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// set replaces an existing member in place, as a repeated key does in a
// JavaScript object literal, or appends a new one.
func (o Object) set(name string, v any) Object {
	for i := range o {
		if o[i].Name == name {
			o[i].Value = v
			return o
		}
	}
	return append(o, Field{Name: name, Value: v})
}

// Keys lists field names in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, f := range o {
		keys[i] = f.Name
	}
	return keys
}

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := EncodeJSON(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := EncodeJSON(f.Value)
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

// String is the compact JSON form.
func (o Object) String() string {
	b, err := o.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}
