package types

import (
	"io"
	"time"
)

// ParamValues maps "<group>.<name>" to the raw text a user entered.
// An absent key means the value was not provided.
type ParamValues map[string]string

// Key builds the composite key for a parameter.
func Key(g Group, name string) string {
	return string(g) + "." + name
}

// Get returns the raw value or "" when unset.
func (v ParamValues) Get(g Group, name string) string {
	return v[Key(g, name)]
}

// Set stores a value and prunes every empty entry, so "" always means unset.
func (v ParamValues) Set(g Group, name, value string) {
	v[Key(g, name)] = value
	for k, val := range v {
		if val == "" {
			delete(v, k)
		}
	}
}

// FileHandle is one selected file.
type FileHandle struct {
	Name    string
	Content io.Reader
}

// FileSelection holds the files picked for one file-typed parameter.
// Hovering tracks a drag over the drop zone and is never persisted.
type FileSelection struct {
	Files    []FileHandle
	Hovering bool
}

// FileSelections maps composite keys to selections.
type FileSelections map[string]*FileSelection

// HistoryEntry records one live submission.
type HistoryEntry struct {
	ID             string            `json:"id"`
	EndpointID     string            `json:"endpoint_id"`
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	RequestHeaders map[string]string `json:"request_headers,omitempty"`
	RequestBody    string            `json:"request_body,omitempty"`
	StatusCode     int               `json:"status_code"`
	ResponseBody   string            `json:"response_body,omitempty"`
	Error          string            `json:"error,omitempty"`
	LatencyMs      int64             `json:"latency_ms"`
	CreatedAt      time.Time         `json:"created_at"`
}
