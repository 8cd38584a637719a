package generator

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/yourorg/yapits/internal/schema"
	"github.com/yourorg/yapits/pkg/types"
)

// Placeholder comments for request declarations.
const (
	PlaceholderNoParams         = "no parameters"
	PlaceholderRequestMalformed = "request schema could not be parsed"
)

// ErrEmptyName is returned by the builders when no declaration name is given.
var ErrEmptyName = errors.New("declaration name is empty")

// BuildRequest builds the request payload declaration. A JSON schema body
// wins over flat query parameters; malformed schema text yields a
// placeholder instead of an error.
func BuildRequest(name string, doc types.ApiDocument) (Declaration, error) {
	decl, _, err := buildRequest(name, doc)
	return decl, err
}

func buildRequest(name string, doc types.ApiDocument) (Declaration, []Warning, error) {
	if strings.TrimSpace(name) == "" {
		return Declaration{}, nil, ErrEmptyName
	}
	decl := Declaration{Name: name}

	if doc.RequestIsSchema && strings.TrimSpace(doc.RequestSchemaText) != "" {
		root, err := schema.Parse(doc.RequestSchemaText)
		if err != nil {
			decl.Placeholder = PlaceholderRequestMalformed
			return decl, []Warning{{Kind: WarnSchemaParse, Stage: StageRequest, Detail: err.Error()}}, nil
		}
		var warnings []Warning
		for _, p := range root.Properties {
			decl.Fields = append(decl.Fields, Field{
				Name:        p.Name,
				Optional:    !root.IsRequired(p.Name),
				Type:        Resolve(p.Node),
				Description: p.Node.Description,
			})
			warnings = append(warnings, refWarnings(StageRequest, p.Node)...)
		}
		if len(decl.Fields) == 0 {
			decl.Placeholder = PlaceholderNoParams
		}
		return decl, warnings, nil
	}

	if len(doc.RequestQueryParams) > 0 {
		for _, q := range doc.RequestQueryParams {
			decl.Fields = append(decl.Fields, Field{
				Name:        q.Name,
				Optional:    !q.Required,
				Type:        ResolveTypeName(q.Type),
				Description: q.Description,
			})
		}
		return decl, nil, nil
	}

	decl.Placeholder = PlaceholderNoParams
	return decl, nil, nil
}
