package generator

import (
	"strconv"
	"strings"

	"github.com/yourorg/yapits/internal/schema"
	"github.com/yourorg/yapits/pkg/types"
)

// Placeholder comments for response declarations.
const (
	PlaceholderResponseNotSchema = "response is not described by a JSON schema"
	PlaceholderResponseMalformed = "response schema could not be parsed"
	PlaceholderNoData            = "response schema has no data property"
	PlaceholderUnknownShape      = "data has an unrecognized shape"
)

// Shape is the structural pattern of a response's data node.
type Shape int

// Shapes in classification priority order.
const (
	ShapePagedList Shape = iota + 1
	ShapeFlatObject
	ShapeNestedObject
	ShapeArray
	ShapePrimitive
	ShapeUnknown
)

func (s Shape) String() string {
	switch s {
	case ShapePagedList:
		return "paged_list"
	case ShapeFlatObject:
		return "flat_object"
	case ShapeNestedObject:
		return "nested_object"
	case ShapeArray:
		return "array"
	case ShapePrimitive:
		return "primitive"
	default:
		return "unknown"
	}
}

// classifyShape checks the shapes in a fixed priority; the first match wins.
func classifyShape(data *schema.Node) Shape {
	switch {
	case isPagedList(data):
		return ShapePagedList
	case data.Type == "object" && data.HasProperties():
		for _, p := range data.Properties {
			if p.Node.IsObjectWithProperties() {
				return ShapeNestedObject
			}
		}
		return ShapeFlatObject
	case data.Type == "array" && data.Items.HasProperties():
		return ShapeArray
	case data.Type != "" && !data.HasProperties():
		return ShapePrimitive
	default:
		return ShapeUnknown
	}
}

func isPagedList(data *schema.Node) bool {
	list := data.Property("list")
	if list == nil || list.Type != "array" || list.Items == nil {
		return false
	}
	return list.Items.HasProperties() && (list.Items.Type == "object" || list.Items.Type == "")
}

// BuildResponse builds the response payload declaration from the schema's
// data property. Nested object properties become child declarations in
// Declaration.Children.
func BuildResponse(name string, doc types.ApiDocument) (Declaration, error) {
	decl, _, err := buildResponse(name, doc)
	return decl, err
}

func buildResponse(name string, doc types.ApiDocument) (Declaration, []Warning, error) {
	if strings.TrimSpace(name) == "" {
		return Declaration{}, nil, ErrEmptyName
	}
	decl := Declaration{Name: name}
	if !doc.ResponseIsSchema {
		decl.Placeholder = PlaceholderResponseNotSchema
		return decl, nil, nil
	}
	root, err := schema.Parse(doc.ResponseSchemaText)
	if err != nil {
		decl.Placeholder = PlaceholderResponseMalformed
		return decl, []Warning{{Kind: WarnSchemaParse, Stage: StageResponse, Detail: err.Error()}}, nil
	}
	data := root.Property("data")
	if data == nil {
		decl.Placeholder = PlaceholderNoData
		return decl, nil, nil
	}

	b := &responseBuilder{decl: decl, names: map[string]bool{name: true}}
	shape := classifyShape(data)
	switch shape {
	case ShapePagedList:
		for _, p := range data.Property("list").Items.Properties {
			b.field(p, p.Name != "id")
		}
	case ShapeFlatObject:
		for _, p := range data.Properties {
			b.field(p, true)
		}
	case ShapeNestedObject:
		for _, p := range data.Properties {
			if p.Node.IsObjectWithProperties() {
				b.child(p)
				continue
			}
			b.field(p, true)
		}
	case ShapeArray:
		for _, p := range data.Items.Properties {
			b.field(p, true)
		}
	case ShapePrimitive:
		b.decl.Fields = append(b.decl.Fields, Field{
			Name:        "data",
			Optional:    true,
			Type:        Resolve(data),
			Description: data.Description,
		})
		b.warnings = append(b.warnings, refWarnings(StageResponse, data)...)
	default:
		b.decl.Placeholder = PlaceholderUnknownShape
		b.warnings = append(b.warnings, Warning{Kind: WarnUnknownShape, Stage: StageResponse, Detail: describeNode(data)})
	}
	return b.decl, b.warnings, nil
}

type responseBuilder struct {
	decl     Declaration
	names    map[string]bool
	warnings []Warning
}

func (b *responseBuilder) field(p schema.Property, optional bool) {
	b.decl.Fields = append(b.decl.Fields, Field{
		Name:        p.Name,
		Optional:    optional,
		Type:        Resolve(p.Node),
		Description: p.Node.Description,
	})
	b.warnings = append(b.warnings, refWarnings(StageResponse, p.Node)...)
}

// child splits a nested object property into its own declaration, one level
// deep, and references it from the parent.
func (b *responseBuilder) child(p schema.Property) {
	child := Declaration{Name: b.childName(p.Name)}
	for _, np := range p.Node.Properties {
		child.Fields = append(child.Fields, Field{
			Name:        np.Name,
			Optional:    true,
			Type:        Resolve(np.Node),
			Description: np.Node.Description,
		})
		b.warnings = append(b.warnings, refWarnings(StageResponse, np.Node)...)
	}
	b.decl.Children = append(b.decl.Children, child)
	b.decl.Fields = append(b.decl.Fields, Field{
		Name:        p.Name,
		Optional:    true,
		Type:        child.Name,
		Description: p.Node.Description,
	})
}

func (b *responseBuilder) childName(field string) string {
	base := Capitalize(field)
	if !identRe.MatchString(base) {
		base = BaseName(field)
	}
	name := base
	for i := 2; b.names[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	b.names[name] = true
	return name
}

func describeNode(n *schema.Node) string {
	return "type=" + strconv.Quote(n.Type) + " kind=" + n.Kind().String() + " properties=" + strconv.Itoa(len(n.Properties))
}
