package generator

import (
	"regexp"
	"strings"

	"github.com/yourorg/yapits/internal/schema"
)

// maxResolveDepth bounds recursion through items and type arguments.
const maxResolveDepth = 32

var (
	genericRe     = regexp.MustCompile(`^([A-Za-z_$][\w.$]*)\s*<(.+)>$`)
	arraySuffixRe = regexp.MustCompile(`^(.+?)\s*\[\]$`)
	dateFormats   = map[string]bool{"date": true, "date-time": true, "datetime": true, "time": true}
)

// Resolve maps a schema node to a target type expression. It never expands
// object properties and never dereferences $ref.
func Resolve(node *schema.Node) string {
	return resolveNode(node, 0)
}

// ResolveTypeName resolves a bare source type name such as "integer",
// "List<User>" or "java.lang.Long[]".
func ResolveTypeName(name string) string {
	if expr, ok := resolveName(name, 0); ok {
		return expr
	}
	return TypeAny
}

func resolveNode(node *schema.Node, depth int) string {
	if node == nil || depth > maxResolveDepth {
		return TypeAny
	}
	if node.Ref != "" {
		return refName(node.Ref)
	}
	if expr, ok := resolveName(node.Type, depth); ok {
		return expr
	}
	switch node.Type {
	case "array":
		if node.Items == nil {
			return ArrayOf(TypeAny)
		}
		return ArrayOf(resolveNode(node.Items, depth+1))
	case "object":
		return TypeObject
	}
	if node.Type == "" && dateFormats[strings.ToLower(node.Format)] {
		return TypeDate
	}
	return TypeAny
}

// resolveName covers vocabulary hits, generic syntax and array suffixes.
// ok is false when none of them apply.
func resolveName(name string, depth int) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || depth > maxResolveDepth {
		return "", false
	}
	if t, ok := Lookup(name); ok {
		return t.Expr(), true
	}
	if m := genericRe.FindStringSubmatch(name); m != nil {
		outer, inner := m[1], m[2]
		t, ok := Lookup(outer)
		if !ok {
			t = arrayLike
		}
		if t.Kind != KindArrayLike {
			return t.Expr(), true
		}
		elem, ok := resolveName(inner, depth+1)
		if !ok {
			elem = TypeAny
		}
		return ArrayOf(elem), true
	}
	if m := arraySuffixRe.FindStringSubmatch(name); m != nil {
		elem, ok := resolveName(m[1], depth+1)
		if !ok {
			elem = TypeAny
		}
		return ArrayOf(elem), true
	}
	return "", false
}

// refName returns the trailing segment of a reference, e.g.
// "#/definitions/User" -> "User".
func refName(ref string) string {
	ref = strings.TrimRight(strings.TrimSpace(ref), "/")
	if i := strings.LastIndexAny(ref, "/#"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}
