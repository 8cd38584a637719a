package generator

import "strings"

// Target type names emitted into declarations.
const (
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeString  = "string"
	TypeDate    = "Date"
	TypeObject  = "Object"
	TypeAny     = "any"
)

// TargetKind tells callers whether a vocabulary entry is array-like and
// therefore takes an element type.
type TargetKind int

const (
	KindScalar TargetKind = iota
	KindArrayLike
	KindObjectLike
)

// TargetType is what a source type name maps to.
type TargetType struct {
	Name string
	Kind TargetKind
}

// Expr renders the type as it appears in a declaration. Bare array-like
// entries carry no element type and become Array<any>.
func (t TargetType) Expr() string {
	if t.Kind == KindArrayLike && !strings.HasPrefix(t.Name, "Array<") {
		return ArrayOf(TypeAny)
	}
	return t.Name
}

// ArrayOf wraps an element type.
func ArrayOf(elem string) string {
	return "Array<" + elem + ">"
}

var (
	scalar    = func(name string) TargetType { return TargetType{Name: name, Kind: KindScalar} }
	arrayLike = TargetType{Name: "Array", Kind: KindArrayLike}
	objectish = TargetType{Name: TypeObject, Kind: KindObjectLike}
	sizedOf   = func(elem string) TargetType { return TargetType{Name: ArrayOf(elem), Kind: KindArrayLike} }
)

// vocabulary is keyed on lowercased simple names.
var vocabulary = map[string]TargetType{
	// numerics, boxed and unboxed
	"integer":    scalar(TypeNumber),
	"int":        scalar(TypeNumber),
	"long":       scalar(TypeNumber),
	"double":     scalar(TypeNumber),
	"float":      scalar(TypeNumber),
	"byte":       scalar(TypeNumber),
	"short":      scalar(TypeNumber),
	"number":     scalar(TypeNumber),
	"bigdecimal": scalar(TypeNumber),
	"biginteger": scalar(TypeNumber),

	"boolean": scalar(TypeBoolean),
	"bool":    scalar(TypeBoolean),

	"string":        scalar(TypeString),
	"char":          scalar(TypeString),
	"character":     scalar(TypeString),
	"stringbuilder": scalar(TypeString),
	"stringbuffer":  scalar(TypeString),

	"date":          scalar(TypeDate),
	"localdate":     scalar(TypeDate),
	"localdatetime": scalar(TypeDate),
	"timestamp":     scalar(TypeDate),
	"time":          scalar(TypeDate),
	"calendar":      scalar(TypeDate),

	"list":        arrayLike,
	"arraylist":   arrayLike,
	"linkedlist":  arrayLike,
	"set":         arrayLike,
	"hashset":     arrayLike,
	"treeset":     arrayLike,
	"queue":       arrayLike,
	"deque":       arrayLike,
	"collection":  arrayLike,
	"iterator":    arrayLike,
	"enumeration": arrayLike,

	"map":               objectish,
	"hashmap":           objectish,
	"linkedhashmap":     objectish,
	"treemap":           objectish,
	"concurrenthashmap": objectish,
	"object":            objectish,

	"optional":  scalar(TypeAny),
	"void":      scalar("void"),
	"null":      scalar("null"),
	"undefined": scalar("undefined"),

	"int[]":     sizedOf(TypeNumber),
	"long[]":    sizedOf(TypeNumber),
	"double[]":  sizedOf(TypeNumber),
	"float[]":   sizedOf(TypeNumber),
	"byte[]":    sizedOf(TypeNumber),
	"short[]":   sizedOf(TypeNumber),
	"boolean[]": sizedOf(TypeBoolean),
	"string[]":  sizedOf(TypeString),
	"char[]":    sizedOf(TypeString),
}

// Lookup maps a source type name to its target type. Matching ignores case
// and any package prefix (java.math.BigDecimal matches bigdecimal).
func Lookup(name string) (TargetType, bool) {
	key := strings.ToLower(simpleName(name))
	if key == "" {
		return TargetType{}, false
	}
	t, ok := vocabulary[key]
	return t, ok
}

// simpleName strips a dotted package prefix from the head of a type name,
// leaving any generic or array suffix alone.
func simpleName(name string) string {
	name = strings.TrimSpace(name)
	head, rest := name, ""
	if i := strings.IndexAny(name, "<["); i >= 0 {
		head, rest = name[:i], name[i:]
	}
	if i := strings.LastIndex(head, "."); i >= 0 {
		head = head[i+1:]
	}
	return strings.TrimSpace(head) + rest
}
