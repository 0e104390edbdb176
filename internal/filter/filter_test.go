package filter

import (
	"net/url"
	"testing"

	"github.com/yourorg/playground/internal/har"
)

func TestApplyFiltersBasic(t *testing.T) {
	cfg := FilterConfig{
		IgnoreExtensions:   []string{".js", ".css", ".png"},
		IgnoreContentTypes: []string{"text/html", "image/*"},
		IgnorePaths:        []string{"/static/", "/assets/", "/favicon"},
	}
	xs := []har.Exchange{
		{Method: "OPTIONS", Path: "/api/ping", StatusCode: 204},
		{Method: "GET", Path: "/v1/static/app.js", ResponseContentType: "application/javascript", StatusCode: 200},
		{Method: "GET", Path: "/index", ResponseContentType: "text/html; charset=utf-8", StatusCode: 200},
		{Method: "GET", Path: "/users/1/avatar", ResponseContentType: "image/png", StatusCode: 200},
		{Method: "GET", Path: "/favicon.ico", StatusCode: 200},
		{Method: "GET", Path: "/api/data", ResponseContentType: "application/json", StatusCode: 200},
	}

	out := Apply(xs, cfg)
	if len(out) != 1 {
		t.Fatalf("expected 1 exchange, got %d", len(out))
	}
	if out[0].Path != "/api/data" {
		t.Fatalf("expected /api/data, got %s", out[0].Path)
	}
}

func TestApplyRemovesConsecutive5xx(t *testing.T) {
	q := url.Values{"id": {"1"}}
	xs := []har.Exchange{
		{Method: "GET", Path: "/api/users", Query: q, StatusCode: 503},
		{Method: "GET", Path: "/api/users", Query: q, StatusCode: 503},
		{Method: "GET", Path: "/api/users", Query: q, StatusCode: 200},
		{Method: "GET", Path: "/api/users", Query: q, StatusCode: 503},
	}
	out := Apply(xs, FilterConfig{})
	if len(out) != 3 {
		t.Fatalf("expected 3 exchanges, got %d", len(out))
	}
	if out[1].StatusCode != 200 {
		t.Fatalf("unexpected order %+v", out)
	}
}

func TestOrigins(t *testing.T) {
	xs := []har.Exchange{
		{Scheme: "https", Host: "cdn.example.com"},
		{Scheme: "https", Host: "api.example.com"},
		{Scheme: "https", Host: "api.example.com"},
	}
	origin := DominantOrigin(xs)
	if origin != "https://api.example.com" {
		t.Fatalf("unexpected origin %s", origin)
	}
	kept, dropped := SameOrigin(xs, origin)
	if len(kept) != 2 || dropped != 1 {
		t.Fatalf("unexpected split %d/%d", len(kept), dropped)
	}
	if DominantOrigin(nil) != "" {
		t.Fatalf("expected empty origin")
	}
}
