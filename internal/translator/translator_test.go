package translator

import (
	"errors"
	"io"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/yourorg/playground/pkg/types"
)

func TestCoerce(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		typ  types.ParamType
		want any
	}{
		{"bool upper", "TRUE", types.TypeBoolean, true},
		{"bool other", "yes", types.TypeBoolean, false},
		{"number", "42", types.TypeNumber, 42.0},
		{"integer spaces", " 7 ", types.TypeInteger, 7.0},
		{"hex", "0x1f", types.TypeNumber, 31.0},
		{"array json", `[1,"a"]`, types.TypeArray, []any{1.0, "a"}},
		{"array split", "a, b ,c", types.TypeArray, []any{"a", "b", "c"}},
		{"object json", `{"k":1}`, types.TypeObject, Object{{Name: "k", Value: 1.0}}},
		{"object trailing text", `{"k":1} x`, types.TypeObject, `{"k":1} x`},
		{"array of objects", `[{"b":1,"a":2}]`, types.TypeArray, []any{Object{{Name: "b", Value: 1.0}, {Name: "a", Value: 2.0}}}},
		{"object raw", "plain", types.TypeObject, "plain"},
		{"string", "hello", types.TypeString, "hello"},
		{"mixed case type", "true", types.ParamType("Boolean"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Coerce(tc.raw, tc.typ)
			if !ok {
				t.Fatalf("expected value")
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %#v, got %#v", tc.want, got)
			}
		})
	}
}

func TestCoerceObjectKeepsKeyOrder(t *testing.T) {
	v, ok := Coerce(`{"zeta":1,"alpha":{"y":true,"x":null},"mid":[3,{"b":"","a":0}],"zeta":2}`, types.TypeObject)
	if !ok {
		t.Fatalf("expected value")
	}
	b, err := EncodeJSON(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"zeta":2,"alpha":{"y":true,"x":null},"mid":[3,{"b":"","a":0}]}`
	if string(b) != want {
		t.Fatalf("expected %s, got %s", want, b)
	}
}

func TestCoerceEmptyIsUndefined(t *testing.T) {
	for _, typ := range []types.ParamType{types.TypeString, types.TypeNumber, types.TypeBoolean, types.TypeArray, types.TypeObject} {
		if _, ok := Coerce("", typ); ok {
			t.Fatalf("%s: expected undefined for empty input", typ)
		}
	}
}

func TestCoerceNaNSerializesAsNull(t *testing.T) {
	v, ok := Coerce("abc", types.TypeNumber)
	if !ok {
		t.Fatalf("expected value")
	}
	if f, _ := v.(float64); !math.IsNaN(f) {
		t.Fatalf("expected NaN, got %v", v)
	}
	obj := Object{{Name: "n", Value: v}}
	if got := obj.String(); got != `{"n":null}` {
		t.Fatalf("unexpected json: %s", got)
	}
	if Stringify(v) != "NaN" {
		t.Fatalf("expected NaN text, got %s", Stringify(v))
	}
}

func TestDefaultValue(t *testing.T) {
	obj := Object{
		{Name: "b", Value: DefaultValue(types.TypeBoolean)},
		{Name: "n", Value: DefaultValue(types.TypeInteger)},
		{Name: "a", Value: DefaultValue(types.TypeArray)},
		{Name: "o", Value: DefaultValue(types.TypeObject)},
		{Name: "s", Value: DefaultValue(types.TypeString)},
	}
	want := `{"b":false,"n":0,"a":[],"o":{},"s":"<string>"}`
	if got := obj.String(); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		3:      "3",
		1.5:    "1.5",
		-0.25:  "-0.25",
		1e21:   "1e+21",
		1e-7:   "1e-7",
		100000: "100000",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Fatalf("FormatNumber(%v): expected %s, got %s", in, want, got)
		}
	}
	if FormatNumber(math.Inf(-1)) != "-Infinity" {
		t.Fatalf("expected -Infinity")
	}
}

func TestEncodeURIComponent(t *testing.T) {
	got := EncodeURIComponent("a b/c?&é!~*'()")
	want := "a%20b%2Fc%3F%26%C3%A9!~*'()"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestResolvePath(t *testing.T) {
	params := types.ParamGroup{{Name: "id", Type: types.TypeString}, {Name: "rev", Type: types.TypeString}}
	values := types.ParamValues{"path.id": "a b"}
	got := ResolvePath("/docs/{id}/{id}/{rev}", params, values)
	if got != "/docs/a%20b/{id}/{rev}" {
		t.Fatalf("unexpected path: %s", got)
	}
}

func TestBuildQueryStringOrder(t *testing.T) {
	params := types.ParamGroup{{Name: "page"}, {Name: "limit"}, {Name: "q"}}
	values := types.ParamValues{"query.limit": "10", "query.page": "2"}
	if got := BuildQueryString(params, values); got != "?page=2&limit=10" {
		t.Fatalf("unexpected query: %s", got)
	}
	if got := BuildQueryString(params, types.ParamValues{}); got != "" {
		t.Fatalf("expected empty query, got %s", got)
	}
}

func TestBuildQueryStringKeepsNamesRaw(t *testing.T) {
	params := types.ParamGroup{{Name: "filter[status]"}, {Name: "q"}}
	values := types.ParamValues{"query.filter[status]": "open", "query.q": "a&b c"}
	if got := BuildQueryString(params, values); got != "?filter[status]=open&q=a%26b%20c" {
		t.Fatalf("unexpected query: %s", got)
	}
}

func jsonEndpoint() *types.Endpoint {
	return &types.Endpoint{
		Method: "post",
		Path:   "/chat/threads",
		Parameters: types.Parameters{
			Body: types.ParamGroup{
				{Name: "title", Type: types.TypeString, Required: true},
				{Name: "count", Type: types.TypeInteger, Required: true},
				{Name: "flag", Type: types.TypeBoolean},
				{Name: "tags", Type: types.TypeArray, Required: true},
			},
		},
		Authentication: &types.Authentication{Type: types.AuthAPIKey, Location: types.LocationHeader},
	}
}

func TestBuildJSONSampleFillsRequired(t *testing.T) {
	req, err := Build(jsonEndpoint(), "https://api.test/v1", "", nil, Options{Mode: ModeSample})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.Method != "POST" || req.URL != "https://api.test/v1/chat/threads" {
		t.Fatalf("unexpected request line: %s %s", req.Method, req.URL)
	}
	if req.Body.Kind != BodyJSON {
		t.Fatalf("expected json body, got %s", req.Body.Kind)
	}
	if got := req.Body.Encoded(); got != `{"title":"<string>","count":0,"tags":[]}` {
		t.Fatalf("unexpected body: %s", got)
	}
	if _, ok := req.Header("Authorization"); ok {
		t.Fatalf("expected no auth header without credential")
	}
}

func TestBuildJSONLiveOmitsUnset(t *testing.T) {
	values := types.ParamValues{"body.flag": "true", "body.title": "Hi"}
	req, err := Build(jsonEndpoint(), "https://api.test/v1", "k1", values, Options{Mode: ModeLive})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := req.Body.Encoded(); got != `{"title":"Hi","flag":true}` {
		t.Fatalf("unexpected body: %s", got)
	}
	want := []Header{
		{Name: "Content-Type", Value: "application/json"},
		{Name: "Authorization", Value: "ApiKey k1"},
	}
	if !reflect.DeepEqual(req.Headers, want) {
		t.Fatalf("unexpected headers: %+v", req.Headers)
	}
}

func TestBuildLiveRequiresCredential(t *testing.T) {
	_, err := Build(jsonEndpoint(), "https://api.test/v1", "", nil, Options{Mode: ModeLive})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if err.Error() != "API key is required" {
		t.Fatalf("unexpected message: %s", err)
	}
}

func TestAuthHeader(t *testing.T) {
	cases := []struct {
		typ  string
		want string
		ok   bool
	}{
		{types.AuthAPIKey, "ApiKey tok", true},
		{types.AuthBearer, "Bearer tok", true},
		{"apikey", "", false},
		{"basic", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		v, ok := AuthHeader(&types.Authentication{Type: tc.typ, Location: types.LocationQuery}, "tok")
		if v != tc.want || ok != tc.ok {
			t.Fatalf("type %q: expected %q/%v, got %q/%v", tc.typ, tc.want, tc.ok, v, ok)
		}
	}
	if _, ok := AuthHeader(nil, "tok"); ok {
		t.Fatalf("expected no header without authentication")
	}
	if _, ok := AuthHeader(&types.Authentication{Type: types.AuthBearer}, ""); ok {
		t.Fatalf("expected no header without credential")
	}
}

func TestBuildUnknownAuthSendsNoHeader(t *testing.T) {
	ep := &types.Endpoint{
		Method:         types.MethodGet,
		Path:           "/me",
		Authentication: &types.Authentication{Type: "basic", Location: types.LocationHeader},
	}
	req, err := Build(ep, "https://api.test", "tok", nil, Options{Mode: ModeLive})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if v, ok := req.Header("Authorization"); ok {
		t.Fatalf("unexpected Authorization %q", v)
	}
}

func TestBuildGetHasNoBody(t *testing.T) {
	ep := &types.Endpoint{
		Method: types.MethodGet,
		Path:   "/items/{id}",
		Parameters: types.Parameters{
			Path:  types.ParamGroup{{Name: "id", Type: types.TypeString, Required: true}},
			Query: types.ParamGroup{{Name: "expand", Type: types.TypeBoolean}},
			Body:  types.ParamGroup{{Name: "ignored", Type: types.TypeString, Required: true}},
		},
	}
	values := types.ParamValues{"path.id": "42", "query.expand": "true"}
	req, err := Build(ep, "http://h", "", values, Options{Mode: ModeLive})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.URL != "http://h/items/42?expand=true" {
		t.Fatalf("unexpected url: %s", req.URL)
	}
	if req.Body.Kind != BodyNone || len(req.Headers) != 0 {
		t.Fatalf("expected bare request, got %+v", req)
	}
}

func documentsEndpoint() *types.Endpoint {
	return &types.Endpoint{
		Method: types.MethodPost,
		Path:   "/documents",
		Parameters: types.Parameters{
			Body: types.ParamGroup{
				{Name: "title", Type: types.TypeString, Required: true},
				{Name: "file", Type: types.TypeFile, Required: true},
				{Name: "pages", Type: types.TypeNumber},
			},
		},
		Authentication: &types.Authentication{Type: types.AuthBearer, Location: types.LocationHeader},
	}
}

func TestBuildMultipartLive(t *testing.T) {
	values := types.ParamValues{"body.title": "Report", "body.pages": "x"}
	files := types.FileSelections{
		"body.file": {Files: []types.FileHandle{{Name: "report.pdf", Content: strings.NewReader("%PDF")}}},
	}
	req, err := Build(documentsEndpoint(), "https://api.test", "tok", values, Options{Mode: ModeLive, Files: files})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.Body.Kind != BodyMultipart {
		t.Fatalf("expected multipart body")
	}
	if _, ok := req.Header("Content-Type"); ok {
		t.Fatalf("multipart request must not set Content-Type explicitly")
	}
	parts := req.Body.Parts
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if parts[0].Name != "title" || parts[0].Value != "Report" || parts[0].File {
		t.Fatalf("unexpected title part: %+v", parts[0])
	}
	if !parts[1].File || parts[1].FileName != "report.pdf" {
		t.Fatalf("unexpected file part: %+v", parts[1])
	}
	data, _ := io.ReadAll(parts[1].Content)
	if string(data) != "%PDF" {
		t.Fatalf("unexpected file content: %q", data)
	}
	if parts[2].Value != "NaN" {
		t.Fatalf("expected NaN text for bad number, got %q", parts[2].Value)
	}
}

func TestBuildMultipartSampleUsesBaseName(t *testing.T) {
	values := types.ParamValues{"body.file": "/tmp/out/report.pdf"}
	req, err := Build(documentsEndpoint(), "https://api.test", "tok", values, Options{Mode: ModeSample})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	parts := req.Body.Parts
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %+v", parts)
	}
	if parts[0].Name != "title" || parts[0].Value != "<string>" {
		t.Fatalf("expected placeholder title, got %+v", parts[0])
	}
	if parts[1].FileName != "report.pdf" || parts[1].Source != "/tmp/out/report.pdf" {
		t.Fatalf("unexpected file part: %+v", parts[1])
	}
	if parts[1].Content != nil {
		t.Fatalf("sample parts carry no content")
	}
}

func TestBuildMultipartFileList(t *testing.T) {
	ep := &types.Endpoint{
		Method: types.MethodPut,
		Path:   "/batch",
		Parameters: types.Parameters{
			Body: types.ParamGroup{{Name: "files", Type: types.TypeFileList}},
		},
	}
	values := types.ParamValues{"body.files": "a.txt, dir/b.txt"}
	req, err := Build(ep, "", "", values, Options{Mode: ModeLive})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	parts := req.Body.Parts
	if len(parts) != 2 || parts[0].FileName != "a.txt" || parts[1].FileName != "b.txt" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
	if parts[0].Content == nil {
		t.Fatalf("live parts need a reader")
	}
}
