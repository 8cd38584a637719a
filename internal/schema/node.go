// Package schema models the JSON-Schema-like documents YApi publishes for
// request and response bodies.
package schema

// Kind classifies a Node.
type Kind int

const (
	KindUntyped Kind = iota
	KindReference
	KindPrimitive
	KindArray
	KindObject
	KindFormat
)

func (k Kind) String() string {
	switch k {
	case KindReference:
		return "reference"
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindFormat:
		return "format"
	default:
		return "untyped"
	}
}

// Property is a named child of an object node. Properties keep the order
// they had in the source text.
type Property struct {
	Name string
	Node *Node
}

// Node is one unit of a type description tree.
type Node struct {
	Type        string
	Properties  []Property
	Items       *Node
	Required    map[string]bool
	Format      string
	Description string
	Ref         string
}

// Kind reports what the node is, checked in a fixed priority:
// reference, explicit type, format hint, untyped.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindUntyped
	}
	switch {
	case n.Ref != "":
		return KindReference
	case n.Type == "array":
		return KindArray
	case n.Type == "object":
		return KindObject
	case n.Type != "":
		return KindPrimitive
	case n.Format != "":
		return KindFormat
	default:
		return KindUntyped
	}
}

// Property returns the named property, or nil.
func (n *Node) Property(name string) *Node {
	if n == nil {
		return nil
	}
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Node
		}
	}
	return nil
}

// IsRequired reports whether name is listed in the node's required set.
func (n *Node) IsRequired(name string) bool {
	if n == nil {
		return false
	}
	return n.Required[name]
}

// HasProperties reports whether the node declares at least one property.
func (n *Node) HasProperties() bool {
	return n != nil && len(n.Properties) > 0
}

// IsObjectWithProperties reports whether the node is explicitly tagged as an
// object and declares its own properties.
func (n *Node) IsObjectWithProperties() bool {
	return n != nil && n.Type == "object" && len(n.Properties) > 0
}
