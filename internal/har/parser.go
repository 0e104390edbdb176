// Package har reads browser HAR recordings of API traffic.
package har

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"
)

type HARFile struct {
	Log struct {
		Entries []Entry `json:"entries"`
	} `json:"log"`
}

type nameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Entry struct {
	StartedDateTime string  `json:"startedDateTime"`
	Time            float64 `json:"time"`
	Request         struct {
		Method   string      `json:"method"`
		URL      string      `json:"url"`
		Headers  []nameValue `json:"headers"`
		PostData struct {
			MimeType string `json:"mimeType"`
			Text     string `json:"text"`
			Encoding string `json:"encoding"`
			Params   []struct {
				Name        string `json:"name"`
				Value       string `json:"value"`
				FileName    string `json:"fileName"`
				ContentType string `json:"contentType"`
			} `json:"params"`
		} `json:"postData"`
	} `json:"request"`
	Response struct {
		Status  int         `json:"status"`
		Headers []nameValue `json:"headers"`
		Content struct {
			MimeType string `json:"mimeType"`
			Text     string `json:"text"`
			Encoding string `json:"encoding"`
		} `json:"content"`
	} `json:"response"`
}

// FormParam is one multipart or urlencoded field of a recorded request.
type FormParam struct {
	Name     string
	Value    string
	FileName string
}

// Exchange is one recorded request with its response.
type Exchange struct {
	Seq       int
	Timestamp time.Time
	Method    string
	Scheme    string
	Host      string
	Path      string
	Query     url.Values
	Headers   map[string]string

	Body         string
	BodyEncoding string
	ContentType  string
	Form         []FormParam

	StatusCode          int
	ResponseBody        string
	ResponseContentType string
	LatencyMs           int64
}

// Origin is scheme://host.
func (e Exchange) Origin() string {
	return e.Scheme + "://" + e.Host
}

// Header looks a request header up case-insensitively.
func (e Exchange) Header(name string) string {
	for k, v := range e.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Parse reads a HAR file.
func Parse(filePath string) ([]Exchange, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseData(data)
}

// ParseData decodes HAR JSON into exchanges ordered by start time.
func ParseData(data []byte) ([]Exchange, error) {
	var hf HARFile
	if err := json.Unmarshal(data, &hf); err != nil {
		return nil, fmt.Errorf("parse har: %w", err)
	}
	out := make([]Exchange, 0, len(hf.Log.Entries))
	for _, e := range hf.Log.Entries {
		ts, err := time.Parse(time.RFC3339Nano, e.StartedDateTime)
		if err != nil {
			return nil, fmt.Errorf("parse startedDateTime: %w", err)
		}
		u, err := url.Parse(e.Request.URL)
		if err != nil {
			return nil, fmt.Errorf("parse request url: %w", err)
		}
		headers := make(map[string]string, len(e.Request.Headers))
		for _, h := range e.Request.Headers {
			headers[h.Name] = h.Value
		}

		pd := e.Request.PostData
		body, enc := decodeBody(pd.Text, pd.Encoding, pd.MimeType)
		respBody, _ := decodeBody(e.Response.Content.Text, e.Response.Content.Encoding, e.Response.Content.MimeType)

		x := Exchange{
			Timestamp:           ts,
			Method:              strings.ToUpper(e.Request.Method),
			Scheme:              u.Scheme,
			Host:                u.Host,
			Path:                u.Path,
			Query:               u.Query(),
			Headers:             headers,
			Body:                body,
			BodyEncoding:        enc,
			ContentType:         pd.MimeType,
			StatusCode:          e.Response.Status,
			ResponseBody:        respBody,
			ResponseContentType: e.Response.Content.MimeType,
			LatencyMs:           int64(e.Time),
		}
		for _, p := range pd.Params {
			x.Form = append(x.Form, FormParam{Name: p.Name, Value: p.Value, FileName: p.FileName})
		}
		out = append(out, x)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	for i := range out {
		out[i].Seq = i + 1
	}
	return out, nil
}

func decodeBody(text, encoding, mimeType string) (string, string) {
	if text == "" {
		return "", "plain"
	}
	if isBinaryContentType(mimeType) {
		return "", "omitted"
	}
	if strings.EqualFold(encoding, "base64") {
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return "", "omitted"
		}
		return string(decoded), "base64"
	}
	return text, "plain"
}

func isBinaryContentType(mimeType string) bool {
	mt := strings.ToLower(mimeType)
	return strings.HasPrefix(mt, "image/") || strings.HasPrefix(mt, "audio/") || strings.HasPrefix(mt, "video/") || mt == "application/octet-stream"
}
