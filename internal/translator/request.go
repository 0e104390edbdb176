// Package translator turns an endpoint description and user-entered values
// into a concrete HTTP request. The same request value feeds the live
// executor and every code sample generator.
package translator

import (
	"strings"

	"github.com/yourorg/playground/pkg/types"
)

// Mode selects between a request that will be sent and one rendered as a sample.
type Mode int

const (
	ModeLive Mode = iota
	ModeSample
)

// Header is one request header. Order is significant for rendering.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Request is a fully resolved HTTP request.
type Request struct {
	Method  string
	URL     string
	Headers []Header
	Body    Body
}

// Header returns the first header value with the given name.
func (r *Request) Header(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Options tune Build.
type Options struct {
	Mode  Mode
	Files types.FileSelections
}

// Build resolves ep against baseURL and values. A live build of an
// authenticated endpoint without a credential fails with ErrMissingCredential.
func Build(ep *types.Endpoint, baseURL, credential string, values types.ParamValues, opts Options) (*Request, error) {
	if values == nil {
		values = types.ParamValues{}
	}
	if opts.Mode == ModeLive && ep.Authentication != nil && credential == "" {
		return nil, ErrMissingCredential
	}

	req := &Request{
		Method: strings.ToUpper(ep.Method),
		URL:    baseURL + ResolvePath(ep.Path, ep.Parameters.Path, values) + BuildQueryString(ep.Parameters.Query, values),
		Body:   BuildBody(ep, values, opts.Mode, opts.Files),
	}
	if req.Body.Kind == BodyJSON {
		req.Headers = append(req.Headers, Header{Name: "Content-Type", Value: "application/json"})
	}
	if v, ok := AuthHeader(ep.Authentication, credential); ok {
		req.Headers = append(req.Headers, Header{Name: "Authorization", Value: v})
	}
	return req, nil
}
