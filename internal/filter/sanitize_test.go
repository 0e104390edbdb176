package filter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/yourorg/playground/internal/translator"
)

func testConfig() RedactConfig {
	return RedactConfig{
		Headers:     []string{"Authorization", "X-Api-Key"},
		BodyFields:  []string{"password", "token", "apiKey"},
		Replacement: "***REDACTED***",
	}
}

func TestRedactHeaders(t *testing.T) {
	cfg := testConfig()
	in := map[string]string{"authorization": "ApiKey abc", "X-API-Key": "k", "Accept": "application/json"}
	got := Redact(in, cfg)
	if got["authorization"] != cfg.Replacement {
		t.Fatalf("expected authorization redacted")
	}
	if got["X-API-Key"] != cfg.Replacement {
		t.Fatalf("expected x-api-key redacted")
	}
	if got["Accept"] != "application/json" {
		t.Fatalf("expected accept unchanged")
	}
	if in["authorization"] != "ApiKey abc" {
		t.Fatalf("input map must not be modified")
	}
}

func TestRedactBodyNested(t *testing.T) {
	cfg := testConfig()
	body := `{"user":{"password":"p","profile":{"token":"t","age":30}},"items":[{"apikey":"s1"},{"name":"n"}],"token":"top"}`
	var got map[string]interface{}
	if err := json.Unmarshal([]byte(RedactBody(body, cfg)), &got); err != nil {
		t.Fatalf("unexpected json error: %v", err)
	}
	user := got["user"].(map[string]interface{})
	if user["password"] != cfg.Replacement {
		t.Fatalf("expected nested password redacted")
	}
	profile := user["profile"].(map[string]interface{})
	if profile["token"] != cfg.Replacement || profile["age"] != 30.0 {
		t.Fatalf("unexpected profile %+v", profile)
	}
	item0 := got["items"].([]interface{})[0].(map[string]interface{})
	if item0["apikey"] != cfg.Replacement {
		t.Fatalf("expected case-insensitive field match")
	}
	if got["token"] != cfg.Replacement {
		t.Fatalf("expected top-level token redacted")
	}
}

func TestRedactNonJSONBody(t *testing.T) {
	if got := RedactBody("not-json", testConfig()); got != "not-json" {
		t.Fatalf("expected non-json body unchanged")
	}
}

func TestHistoryEntryFromRequest(t *testing.T) {
	req := &translator.Request{
		Method:  "POST",
		URL:     "https://api.test/v1/documents",
		Headers: []translator.Header{{Name: "Authorization", Value: "Bearer secret"}},
		Body: translator.Body{Kind: translator.BodyMultipart, Parts: []translator.Part{
			{Name: "title", Value: "Report"},
			{Name: "token", Value: "t"},
			{Name: "file", File: true, FileName: "report.pdf"},
		}},
	}
	e := HistoryEntry("upload", req, testConfig())
	if e.EndpointID != "upload" || e.Method != "POST" || e.URL != req.URL {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.RequestHeaders["Authorization"] != "***REDACTED***" {
		t.Fatalf("credential leaked into history: %+v", e.RequestHeaders)
	}
	if strings.Contains(e.RequestBody, `"t"`) || !strings.Contains(e.RequestBody, `"file":"@report.pdf"`) {
		t.Fatalf("unexpected body %s", e.RequestBody)
	}
}
