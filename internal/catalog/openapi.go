package catalog

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/iancoleman/strcase"

	"github.com/yourorg/playground/pkg/types"
)

var importMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// ImportOpenAPI converts an OpenAPI 3 document into a catalog. Anything the
// endpoint model cannot express is skipped and reported as a warning.
func ImportOpenAPI(ctx context.Context, data []byte) (*Catalog, []string, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse openapi: %w", err)
	}

	var warnings []string
	if err := doc.Validate(ctx); err != nil {
		warnings = append(warnings, fmt.Sprintf("validation: %v", err))
	}

	c := &Catalog{}
	if doc.Info != nil {
		c.Title = doc.Info.Title
	}
	if len(doc.Servers) > 0 && doc.Servers[0] != nil {
		c.BaseURL = strings.TrimRight(doc.Servers[0].URL, "/")
	}

	if doc.Paths != nil {
		paths := doc.Paths.Map()
		keys := make([]string, 0, len(paths))
		for k := range paths {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, path := range keys {
			item := paths[path]
			if item == nil {
				continue
			}
			ops := item.Operations()
			for method := range ops {
				if !containsString(importMethods, method) {
					warnings = append(warnings, fmt.Sprintf("%s %s: method not supported, skipped", method, path))
				}
			}
			for _, method := range importMethods {
				op := ops[method]
				if op == nil {
					continue
				}
				ep, w := convertOperation(doc, path, method, item, op)
				warnings = append(warnings, w...)
				c.Endpoints = append(c.Endpoints, ep)
			}
		}
	}

	c.SetDefaults()
	if err := c.assignIDs(); err != nil {
		return nil, warnings, err
	}
	return c, warnings, nil
}

func convertOperation(doc *openapi3.T, path, method string, item *openapi3.PathItem, op *openapi3.Operation) (types.Endpoint, []string) {
	where := method + " " + path
	var warnings []string

	ep := types.Endpoint{
		Method:  method,
		Path:    path,
		Summary: op.Description,
	}
	if op.OperationID != "" {
		ep.ID = strcase.ToKebab(op.OperationID)
	}
	title := op.Summary
	if title == "" {
		title = op.OperationID
	}
	if title == "" {
		title = path
	}
	ep.Label = fmt.Sprintf("%s (%s)", title, method)

	params := append(openapi3.Parameters{}, item.Parameters...)
	params = append(params, op.Parameters...)
	for _, ref := range params {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value
		param := types.Parameter{
			Name:        p.Name,
			Type:        schemaType(p.Schema),
			Required:    p.Required,
			Description: p.Description,
		}
		switch p.In {
		case openapi3.ParameterInPath:
			ep.Parameters.Path = upsert(ep.Parameters.Path, param)
		case openapi3.ParameterInQuery:
			ep.Parameters.Query = upsert(ep.Parameters.Query, param)
		default:
			warnings = append(warnings, fmt.Sprintf("%s: %s parameter %q skipped", where, p.In, p.Name))
		}
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		body, w := bodyParams(op.RequestBody.Value)
		ep.Parameters.Body = body
		for _, msg := range w {
			warnings = append(warnings, where+": "+msg)
		}
	}

	security := doc.Security
	if op.Security != nil {
		security = *op.Security
	}
	auth, w := authentication(doc, security)
	ep.Authentication = auth
	if w != "" {
		warnings = append(warnings, where+": "+w)
	}
	return ep, warnings
}

var bodyContentTypes = []string{"application/json", "multipart/form-data", "application/x-www-form-urlencoded"}

func bodyParams(rb *openapi3.RequestBody) (types.ParamGroup, []string) {
	var media *openapi3.MediaType
	for _, ct := range bodyContentTypes {
		if m := rb.Content.Get(ct); m != nil {
			media = m
			break
		}
	}
	if media == nil {
		names := make([]string, 0, len(rb.Content))
		for ct := range rb.Content {
			names = append(names, ct)
		}
		sort.Strings(names)
		if len(names) == 0 {
			return nil, nil
		}
		media = rb.Content[names[0]]
	}
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, []string{"request body has no schema"}
	}
	schema := media.Schema.Value
	if len(schema.Properties) == 0 {
		return nil, []string{"request body is not an object with properties, skipped"}
	}

	required := make(map[string]struct{}, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = struct{}{}
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(types.ParamGroup, 0, len(names))
	for _, name := range names {
		ref := schema.Properties[name]
		p := types.Parameter{Name: name, Type: schemaType(ref)}
		if ref != nil && ref.Value != nil {
			p.Description = ref.Value.Description
		}
		_, p.Required = required[name]
		out = append(out, p)
	}
	return out, nil
}

// schemaType maps a schema onto the endpoint model's parameter types.
// Binary strings are files; arrays of binary strings are file lists.
func schemaType(ref *openapi3.SchemaRef) types.ParamType {
	if ref == nil || ref.Value == nil {
		return types.TypeString
	}
	s := ref.Value
	switch {
	case s.Type.Is(openapi3.TypeString) && isBinary(s):
		return types.TypeFile
	case s.Type.Is(openapi3.TypeArray):
		if s.Items != nil && s.Items.Value != nil && s.Items.Value.Type.Is(openapi3.TypeString) && isBinary(s.Items.Value) {
			return types.TypeFileList
		}
		return types.TypeArray
	case s.Type.Is(openapi3.TypeInteger):
		return types.TypeInteger
	case s.Type.Is(openapi3.TypeNumber):
		return types.TypeNumber
	case s.Type.Is(openapi3.TypeBoolean):
		return types.TypeBoolean
	case s.Type.Is(openapi3.TypeObject), s.Type == nil && len(s.Properties) > 0:
		return types.TypeObject
	}
	return types.TypeString
}

func isBinary(s *openapi3.Schema) bool {
	return s.Format == "binary" || s.Format == "base64"
}

func authentication(doc *openapi3.T, reqs openapi3.SecurityRequirements) (*types.Authentication, string) {
	if len(reqs) == 0 || doc.Components == nil {
		return nil, ""
	}
	for _, req := range reqs {
		names := make([]string, 0, len(req))
		for name := range req {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ref := doc.Components.SecuritySchemes[name]
			if ref == nil || ref.Value == nil {
				continue
			}
			ss := ref.Value
			switch {
			case ss.Type == "apiKey":
				loc := types.LocationHeader
				if ss.In == "query" {
					loc = types.LocationQuery
				}
				return &types.Authentication{Type: types.AuthAPIKey, Location: loc}, ""
			case ss.Type == "http" && strings.EqualFold(ss.Scheme, "bearer"), ss.Type == "oauth2", ss.Type == "openIdConnect":
				return &types.Authentication{Type: types.AuthBearer, Location: types.LocationHeader}, ""
			}
		}
	}
	return nil, "security scheme not supported, endpoint imported without authentication"
}

func upsert(g types.ParamGroup, p types.Parameter) types.ParamGroup {
	for i := range g {
		if g[i].Name == p.Name {
			g[i] = p
			return g
		}
	}
	return append(g, p)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ExportOpenAPI converts the catalog into an OpenAPI 3 document.
func ExportOpenAPI(c *Catalog) *openapi3.T {
	title := c.Title
	if title == "" {
		title = "API Reference"
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: "1.0.0"},
		Servers: openapi3.Servers{{URL: c.BaseURL}},
		Paths:   openapi3.NewPaths(),
	}
	components := openapi3.NewComponents()
	components.SecuritySchemes = openapi3.SecuritySchemes{}

	for _, ep := range c.Endpoints {
		op := openapi3.NewOperation()
		op.OperationID = strcase.ToLowerCamel(ep.ID)
		op.Summary = strings.TrimSpace(strings.TrimSuffix(ep.Label, "("+ep.Method+")"))
		op.Description = ep.Summary
		op.Responses = openapi3.NewResponses(openapi3.WithStatus(http.StatusOK,
			&openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Successful response")}))

		for _, p := range ep.Parameters.Path {
			op.AddParameter(openapi3.NewPathParameter(p.Name).WithDescription(p.Description).WithSchema(exportSchema(p.Type)))
		}
		for _, p := range ep.Parameters.Query {
			op.AddParameter(openapi3.NewQueryParameter(p.Name).WithDescription(p.Description).WithRequired(p.Required).WithSchema(exportSchema(p.Type)))
		}
		if len(ep.Parameters.Body) > 0 {
			obj := openapi3.NewObjectSchema()
			var required []string
			for _, p := range ep.Parameters.Body {
				s := exportSchema(p.Type)
				s.Description = p.Description
				obj.WithProperty(p.Name, s)
				if p.Required {
					required = append(required, p.Name)
				}
			}
			if len(required) > 0 {
				obj.WithRequired(required)
			}
			if ep.Parameters.Body.HasFile() {
				op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithFormDataSchema(obj)}
			} else {
				op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(obj)}
			}
		}
		if a := ep.Authentication; a != nil {
			name, scheme := securityScheme(a)
			components.SecuritySchemes[name] = &openapi3.SecuritySchemeRef{Value: scheme}
			reqs := openapi3.NewSecurityRequirements().With(openapi3.NewSecurityRequirement().Authenticate(name))
			op.Security = reqs
		}

		item := doc.Paths.Value(ep.Path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(ep.Path, item)
		}
		item.SetOperation(ep.Method, op)
	}
	if len(components.SecuritySchemes) > 0 {
		doc.Components = &components
	}
	return doc
}

func exportSchema(t types.ParamType) *openapi3.Schema {
	switch t.Normalize() {
	case types.TypeInteger:
		return openapi3.NewIntegerSchema()
	case types.TypeNumber:
		return openapi3.NewFloat64Schema()
	case types.TypeBoolean:
		return openapi3.NewBoolSchema()
	case types.TypeArray:
		return openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
	case types.TypeObject:
		return openapi3.NewObjectSchema()
	case types.TypeFile:
		return openapi3.NewStringSchema().WithFormat("binary")
	case types.TypeFileList:
		return openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema().WithFormat("binary"))
	}
	return openapi3.NewStringSchema()
}

func securityScheme(a *types.Authentication) (string, *openapi3.SecurityScheme) {
	if a.Type == types.AuthAPIKey {
		return "ApiKeyAuth", openapi3.NewSecurityScheme().WithType("apiKey").WithIn("header").WithName("Authorization").
			WithDescription("Send as: Authorization: ApiKey <key>")
	}
	return "BearerAuth", openapi3.NewSecurityScheme().WithType("http").WithScheme("bearer")
}
