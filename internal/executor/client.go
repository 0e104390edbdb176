// Package executor sends resolved requests to the live API.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yourorg/playground/internal/filter"
	"github.com/yourorg/playground/internal/store"
	"github.com/yourorg/playground/internal/translator"
	"github.com/yourorg/playground/pkg/types"
)

// ErrInvalidJSON is returned when a successful response is not JSON.
var ErrInvalidJSON = errors.New("invalid JSON response")

// HTTPError is a non-2xx response.
type HTTPError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *HTTPError) Error() string { return e.Message }

// Result is a successful live call.
type Result struct {
	Request  *translator.Request
	Status   int
	Body     []byte
	Pretty   string
	Duration time.Duration
}

// Client issues live requests. Requests are sent once: there are no
// retries and no client-side timeout beyond what ctx imposes.
type Client struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	Debug      bool

	// History, when set, receives a redacted entry for every request that
	// reached the network.
	History store.HistoryStore
	Redact  filter.RedactConfig

	once  sync.Once
	resty *resty.Client
}

func (c *Client) client() *resty.Client {
	c.once.Do(func() {
		if c.HTTPClient != nil {
			c.resty = resty.NewWithClient(c.HTTPClient)
		} else {
			c.resty = resty.New()
		}
		c.resty.SetRetryCount(0).SetDebug(c.Debug)
	})
	return c.resty
}

// Submit builds the live request for ep and sends it. A missing credential
// for an authenticated endpoint fails before any network call.
func (c *Client) Submit(ctx context.Context, ep *types.Endpoint, baseURL, credential string, values types.ParamValues, files types.FileSelections) (*Result, error) {
	req, err := translator.Build(ep, baseURL, credential, values, translator.Options{Mode: translator.ModeLive, Files: files})
	if err != nil {
		return nil, err
	}
	res, err := c.Send(ctx, req)
	c.record(ep.ID, req, res, err)
	return res, err
}

// Send issues req. Non-2xx responses come back as *HTTPError.
func (c *Client) Send(ctx context.Context, req *translator.Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r := c.client().R().SetContext(ctx)
	for _, h := range req.Headers {
		r.SetHeader(h.Name, h.Value)
	}
	switch req.Body.Kind {
	case translator.BodyJSON:
		r.SetBody([]byte(req.Body.Encoded()))
	case translator.BodyMultipart:
		fields := make([]*resty.MultipartField, 0, len(req.Body.Parts))
		for _, p := range req.Body.Parts {
			fields = append(fields, multipartField(p))
		}
		r.SetMultipartFields(fields...)
	}

	if c.Logger != nil {
		c.Logger.Debug("live request", "method", req.Method, "url", req.URL, "body", req.Body.Kind.String())
	}
	start := time.Now()
	resp, err := r.Execute(req.Method, req.URL)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("send %s %s: %w", req.Method, req.URL, err)
	}
	if c.Logger != nil {
		c.Logger.Debug("live response", "status", resp.StatusCode(), "elapsed", elapsed)
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		return nil, &HTTPError{Status: resp.StatusCode(), Message: errorMessage(resp.StatusCode(), body), Body: body}
	}

	res := &Result{Request: req, Status: resp.StatusCode(), Body: body, Duration: elapsed}
	if len(bytes.TrimSpace(body)) == 0 {
		return res, nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	res.Pretty = out.String()
	return res, nil
}

func (c *Client) record(endpointID string, req *translator.Request, res *Result, sendErr error) {
	if c.History == nil {
		return
	}
	e := filter.HistoryEntry(endpointID, req, c.Redact)
	var httpErr *HTTPError
	switch {
	case res != nil:
		e.StatusCode = res.Status
		e.ResponseBody = string(res.Body)
		e.LatencyMs = res.Duration.Milliseconds()
	case errors.As(sendErr, &httpErr):
		e.StatusCode = httpErr.Status
		e.Error = httpErr.Message
		e.ResponseBody = string(httpErr.Body)
	case sendErr != nil:
		e.Error = sendErr.Error()
	}
	if err := c.History.SaveHistory(e); err != nil && c.Logger != nil {
		c.Logger.Warn("save history failed", "endpoint", endpointID, "err", err)
	}
}

func multipartField(p translator.Part) *resty.MultipartField {
	if !p.File {
		return &resty.MultipartField{Param: p.Name, Reader: bytes.NewReader([]byte(p.Value))}
	}
	content := p.Content
	if content == nil {
		content = bytes.NewReader(nil)
	}
	return &resty.MultipartField{
		Param:       p.Name,
		FileName:    p.FileName,
		ContentType: translator.FileContentType,
		Reader:      content,
	}
}

// errorMessage prefers the "error" then "message" field of a JSON error
// body and falls back to the status code.
func errorMessage(status int, body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "message"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}
