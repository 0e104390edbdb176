package executor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yourorg/playground/internal/filter"
	"github.com/yourorg/playground/internal/store"
	"github.com/yourorg/playground/internal/translator"
	"github.com/yourorg/playground/pkg/types"
)

func documentsEndpoint() *types.Endpoint {
	return &types.Endpoint{
		Method: types.MethodPost,
		Path:   "/documents",
		Parameters: types.Parameters{
			Body: types.ParamGroup{
				{Name: "title", Type: types.TypeString, Required: true},
				{Name: "file", Type: types.TypeFile, Required: true},
			},
		},
		Authentication: &types.Authentication{Type: types.AuthAPIKey, Location: types.LocationHeader},
	}
}

func TestSubmitMultipartEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/documents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "ApiKey secret" {
			t.Errorf("unexpected authorization %q", got)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary=") {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if got := r.FormValue("title"); got != "Report" {
			t.Errorf("expected title=Report, got %q", got)
		}
		fhs := r.MultipartForm.File["file"]
		if len(fhs) != 1 || fhs[0].Filename != "report.txt" {
			t.Errorf("unexpected file parts: %+v", fhs)
			return
		}
		f, err := fhs[0].Open()
		if err != nil {
			t.Errorf("open part: %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		_ = f.Close()
		if string(data) != "quarterly numbers" {
			t.Errorf("unexpected file content %q", data)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"doc_1","ok":true}`))
	}))
	defer srv.Close()

	values := types.ParamValues{"body.title": "Report"}
	files := types.FileSelections{
		"body.file": {Files: []types.FileHandle{{Name: "report.txt", Content: strings.NewReader("quarterly numbers")}}},
	}
	c := &Client{}
	res, err := c.Submit(context.Background(), documentsEndpoint(), srv.URL+"/v1", "secret", values, files)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Fatalf("unexpected status %d", res.Status)
	}
	want := "{\n  \"id\": \"doc_1\",\n  \"ok\": true\n}"
	if res.Pretty != want {
		t.Fatalf("unexpected pretty body:\n%s", res.Pretty)
	}
}

func TestSubmitMissingCredentialSkipsNetwork(t *testing.T) {
	var hit int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hit, 1)
	}))
	defer srv.Close()

	c := &Client{}
	_, err := c.Submit(context.Background(), documentsEndpoint(), srv.URL, "", nil, nil)
	if !errors.Is(err, translator.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if atomic.LoadInt32(&hit) != 0 {
		t.Fatalf("expected no request, got %d", hit)
	}
}

func TestSendJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if r.URL.RawQuery != "q=a%20b&limit=5" {
			t.Errorf("query rewritten: %q", r.URL.RawQuery)
		}
		data, _ := io.ReadAll(r.Body)
		if string(data) != `{"name":"x","n":3}` {
			t.Errorf("unexpected body %s", data)
		}
		_, _ = w.Write([]byte(`[1,2]`))
	}))
	defer srv.Close()

	req := &translator.Request{
		Method:  http.MethodPut,
		URL:     srv.URL + "/items?q=a%20b&limit=5",
		Headers: []translator.Header{{Name: "Content-Type", Value: "application/json"}},
		Body: translator.Body{Kind: translator.BodyJSON, JSON: translator.Object{
			{Name: "name", Value: "x"},
			{Name: "n", Value: 3.0},
		}},
	}
	c := &Client{HTTPClient: srv.Client()}
	res, err := c.Send(context.Background(), req)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Pretty != "[\n  1,\n  2\n]" {
		t.Fatalf("unexpected pretty body %q", res.Pretty)
	}
}

func TestSendErrorMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", http.StatusBadRequest, `{"error":"bad title","message":"ignored"}`, "bad title"},
		{"message field", http.StatusNotFound, `{"message":"no such thread"}`, "no such thread"},
		{"non json", http.StatusBadGateway, `<html>oops</html>`, "HTTP error! status: 502"},
		{"empty error", http.StatusUnauthorized, `{"error":""}`, "HTTP error! status: 401"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var hit int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hit, 1)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := &Client{}
			_, err := c.Send(context.Background(), &translator.Request{Method: http.MethodGet, URL: srv.URL})
			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected HTTPError, got %v", err)
			}
			if httpErr.Status != tc.status || httpErr.Message != tc.want {
				t.Fatalf("unexpected error %+v", httpErr)
			}
			if atomic.LoadInt32(&hit) != 1 {
				t.Fatalf("expected exactly one attempt, got %d", hit)
			}
		})
	}
}

func TestSendInvalidJSONSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain text"))
	}))
	defer srv.Close()

	c := &Client{}
	_, err := c.Send(context.Background(), &translator.Request{Method: http.MethodGet, URL: srv.URL})
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
}

func TestSendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := &Client{}
	_, err := c.Send(context.Background(), &translator.Request{Method: http.MethodGet, URL: url})
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		t.Fatalf("transport failure must not look like an HTTP error")
	}
}

func TestSubmitRecordsRedactedHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail/chat/threads" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"bad key"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"t_1"}`))
	}))
	defer srv.Close()

	ep := &types.Endpoint{
		ID:     "post-chat-threads",
		Method: types.MethodPost,
		Path:   "/chat/threads",
		Parameters: types.Parameters{
			Body: types.ParamGroup{{Name: "systemPrompt", Type: types.TypeString}},
		},
		Authentication: &types.Authentication{Type: types.AuthAPIKey, Location: types.LocationHeader},
	}
	hist := store.NewMemoryStore()
	c := &Client{
		History: hist,
		Redact:  filter.RedactConfig{Headers: []string{"authorization"}, BodyFields: []string{"systemPrompt"}, Replacement: "***"},
	}
	values := types.ParamValues{"body.systemPrompt": "be brief"}
	if _, err := c.Submit(context.Background(), ep, srv.URL, "secret", values, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := c.Submit(context.Background(), ep, srv.URL+"/fail", "secret", values, nil); err == nil {
		t.Fatalf("expected http error")
	}
	if _, err := c.Submit(context.Background(), ep, srv.URL, "", values, nil); !errors.Is(err, translator.ErrMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}

	entries, err := hist.ListHistory(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	var ok, failed *types.HistoryEntry
	for i := range entries {
		if entries[i].StatusCode == http.StatusOK {
			ok = &entries[i]
		} else {
			failed = &entries[i]
		}
	}
	if ok == nil || failed == nil {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if ok.RequestHeaders["Authorization"] != "***" || ok.RequestBody != `{"systemPrompt":"***"}` {
		t.Fatalf("entry not redacted: %+v", ok)
	}
	if ok.EndpointID != "post-chat-threads" || ok.ResponseBody != `{"id":"t_1"}` {
		t.Fatalf("unexpected entry %+v", ok)
	}
	if failed.StatusCode != http.StatusUnauthorized || failed.Error != "bad key" {
		t.Fatalf("unexpected failed entry %+v", failed)
	}
}
