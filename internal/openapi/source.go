// Package openapi imports an OpenAPI 3 document as a set of ApiDocuments so
// that the same synthesizer can run without a YApi server.
package openapi

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/yourorg/yapits/pkg/types"
)

// ProjectID is the single project every imported operation belongs to.
const ProjectID = 1

// Source serves the operations of one OpenAPI document. Operation ids are
// assigned 1..n in path then method order; categories follow the first tag
// of each operation in order of first appearance.
type Source struct {
	project    types.ProjectInfo
	docs       []types.ApiDocument
	categories []string
}

// Load reads a YAML or JSON document from a file path or an http(s) URL.
func Load(ctx context.Context, input string) (*Source, error) {
	if strings.TrimSpace(input) == "" {
		return nil, errors.New("openapi: input is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = false

	var (
		doc *openapi3.T
		err error
	)
	if u, uerr := url.Parse(input); uerr == nil && (u.Scheme == "http" || u.Scheme == "https") {
		doc, err = loader.LoadFromURI(u)
	} else {
		doc, err = loader.LoadFromFile(input)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load openapi document %s", input)
	}
	return FromDocument(doc)
}

// LoadData parses an in-memory document.
func LoadData(ctx context.Context, data []byte) (*Source, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse openapi document")
	}
	return FromDocument(doc)
}

// FromDocument converts a loaded document.
func FromDocument(doc *openapi3.T) (*Source, error) {
	if doc == nil {
		return nil, errors.New("openapi: document is nil")
	}
	s := &Source{project: types.ProjectInfo{ID: ProjectID, BasePath: basePath(doc)}}
	if doc.Info != nil {
		s.project.Name = doc.Info.Title
	}

	paths := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		item := doc.Paths[p]
		if item == nil {
			continue
		}
		ops := []struct {
			method string
			op     *openapi3.Operation
		}{
			{"GET", item.Get},
			{"POST", item.Post},
			{"PUT", item.Put},
			{"DELETE", item.Delete},
			{"PATCH", item.Patch},
			{"HEAD", item.Head},
			{"OPTIONS", item.Options},
		}
		for _, pair := range ops {
			if pair.op == nil {
				continue
			}
			d, err := s.convert(p, pair.method, item.Parameters, pair.op)
			if err != nil {
				return nil, errors.Wrapf(err, "%s %s", pair.method, p)
			}
			s.docs = append(s.docs, d)
		}
	}
	return s, nil
}

// Project returns the document's project for id ProjectID.
func (s *Source) Project(_ context.Context, id int) (*types.ProjectInfo, error) {
	if id != ProjectID {
		return nil, errors.Newf("project %d not found", id)
	}
	p := s.project
	return &p, nil
}

func (s *Source) Interface(_ context.Context, id int) (*types.ApiDocument, error) {
	if id < 1 || id > len(s.docs) {
		return nil, errors.Newf("operation %d not found", id)
	}
	d := s.docs[id-1]
	return &d, nil
}

// AllCategoryInterfaces lists the operations of one tag category, or every
// operation when catID is zero.
func (s *Source) AllCategoryInterfaces(_ context.Context, catID int) ([]types.InterfaceSummary, error) {
	if catID < 0 || catID > len(s.categories) {
		return nil, errors.Newf("category %d not found", catID)
	}
	out := make([]types.InterfaceSummary, 0, len(s.docs))
	for _, d := range s.docs {
		if catID != 0 && d.CategoryID != catID {
			continue
		}
		out = append(out, types.InterfaceSummary{
			ID:         d.ID,
			CategoryID: d.CategoryID,
			ProjectID:  d.ProjectID,
			Path:       d.Path,
			Method:     d.Method,
			Title:      d.Title,
		})
	}
	return out, nil
}

// Categories returns tag names; category id i+1 is Categories()[i].
func (s *Source) Categories() []string {
	return append([]string(nil), s.categories...)
}

func (s *Source) convert(path, method string, shared openapi3.Parameters, op *openapi3.Operation) (types.ApiDocument, error) {
	d := types.ApiDocument{
		ID:        len(s.docs) + 1,
		ProjectID: ProjectID,
		Path:      path,
		Method:    method,
		Title:     op.Summary,
	}
	if d.Title == "" {
		d.Title = op.OperationID
	}
	if len(op.Tags) > 0 {
		d.CategoryID = s.category(op.Tags[0])
	}

	d.RequestQueryParams = queryParams(shared, op.Parameters)

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		if sr := jsonSchema(op.RequestBody.Value.Content); sr != nil {
			text, err := schemaText(sr)
			if err != nil {
				return d, err
			}
			d.RequestIsSchema = true
			d.RequestSchemaText = text
		}
	}

	if sr := successSchema(op.Responses); sr != nil {
		text, err := responseText(sr)
		if err != nil {
			return d, err
		}
		d.ResponseIsSchema = true
		d.ResponseSchemaText = text
	}
	return d, nil
}

func (s *Source) category(tag string) int {
	for i, c := range s.categories {
		if c == tag {
			return i + 1
		}
	}
	s.categories = append(s.categories, tag)
	return len(s.categories)
}

// queryParams merges path-level and operation-level query parameters,
// operation-level winning, in declaration order.
func queryParams(shared, own openapi3.Parameters) []types.QueryParam {
	var out []types.QueryParam
	index := map[string]int{}
	for _, list := range []openapi3.Parameters{shared, own} {
		for _, ref := range list {
			if ref == nil || ref.Value == nil || ref.Value.In != openapi3.ParameterInQuery {
				continue
			}
			p := ref.Value
			q := types.QueryParam{Name: p.Name, Required: p.Required, Type: paramType(p.Schema), Description: p.Description}
			if i, ok := index[p.Name]; ok {
				out[i] = q
				continue
			}
			index[p.Name] = len(out)
			out = append(out, q)
		}
	}
	return out
}

func paramType(sr *openapi3.SchemaRef) string {
	if sr == nil || sr.Value == nil {
		return "string"
	}
	if sr.Value.Type == "array" && sr.Value.Items != nil && sr.Value.Items.Value != nil && sr.Value.Items.Value.Type != "" {
		return sr.Value.Items.Value.Type + "[]"
	}
	if sr.Value.Type == "" {
		return "string"
	}
	return sr.Value.Type
}

func jsonSchema(content openapi3.Content) *openapi3.SchemaRef {
	if mt := content.Get("application/json"); mt != nil && mt.Schema != nil {
		return mt.Schema
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(k, "json") && content[k] != nil && content[k].Schema != nil {
			return content[k].Schema
		}
	}
	return nil
}

// successSchema picks the JSON schema of the lowest 2xx response.
func successSchema(responses openapi3.Responses) *openapi3.SchemaRef {
	codes := make([]string, 0, len(responses))
	for code := range responses {
		if strings.HasPrefix(code, "2") {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	for _, code := range codes {
		ref := responses[code]
		if ref == nil || ref.Value == nil {
			continue
		}
		if sr := jsonSchema(ref.Value.Content); sr != nil {
			return sr
		}
	}
	return nil
}

// responseText wraps a bare payload schema in a data envelope unless it
// already has a data property.
func responseText(sr *openapi3.SchemaRef) (string, error) {
	m := schemaMap(sr, 0)
	if props, ok := m["properties"].(map[string]any); ok {
		if _, ok := props["data"]; ok {
			return marshal(m)
		}
	}
	return marshal(map[string]any{
		"type":       "object",
		"properties": map[string]any{"data": m},
	})
}

func schemaText(sr *openapi3.SchemaRef) (string, error) {
	return marshal(schemaMap(sr, 0))
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encode schema")
	}
	return string(b), nil
}

// schemaMap renders a schema as plain JSON values. The top-level reference
// is inlined; nested references stay as $ref.
func schemaMap(sr *openapi3.SchemaRef, depth int) map[string]any {
	if sr == nil {
		return map[string]any{}
	}
	if depth > 0 && sr.Ref != "" {
		return map[string]any{"$ref": sr.Ref}
	}
	v := sr.Value
	if v == nil {
		if sr.Ref != "" {
			return map[string]any{"$ref": sr.Ref}
		}
		return map[string]any{}
	}
	m := map[string]any{}
	if v.Type != "" {
		m["type"] = v.Type
	}
	if v.Format != "" {
		m["format"] = v.Format
	}
	if v.Description != "" {
		m["description"] = v.Description
	}
	if len(v.Required) > 0 {
		m["required"] = append([]string(nil), v.Required...)
	}
	if v.Items != nil {
		m["items"] = schemaMap(v.Items, depth+1)
	}
	if len(v.Properties) > 0 {
		props := make(map[string]any, len(v.Properties))
		for name, p := range v.Properties {
			props[name] = schemaMap(p, depth+1)
		}
		m["properties"] = props
		if v.Type == "" {
			m["type"] = "object"
		}
	}
	return m
}

func basePath(doc *openapi3.T) string {
	if len(doc.Servers) == 0 || doc.Servers[0] == nil {
		return ""
	}
	raw := doc.Servers[0].URL
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimRight(u.Path, "/")
}
