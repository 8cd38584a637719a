package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/yapits/internal/schema"
)

func TestLookup(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"integer", "number", true},
		{"Long", "number", true},
		{"java.math.BigDecimal", "number", true},
		{"java.lang.Boolean", "boolean", true},
		{"Character", "string", true},
		{"LocalDateTime", "Date", true},
		{"List", "Array<any>", true},
		{"HashMap", "Object", true},
		{"int[]", "Array<number>", true},
		{"Optional", "any", true},
		{"void", "void", true},
		{"User", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := Lookup(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got.Expr(), tc.in)
		}
	}
}

func TestResolveTypeName(t *testing.T) {
	cases := map[string]string{
		"integer":                   "number",
		"string":                    "string",
		"List<String>":              "Array<string>",
		"java.util.List<Long>":      "Array<number>",
		"List<List<string>>":        "Array<Array<string>>",
		"Map<String,Object>":        "Object",
		"Page<User>":                "Array<any>",
		"String[]":                  "Array<string>",
		"java.lang.Long[]":          "Array<number>",
		"Set<java.math.BigDecimal>": "Array<number>",
		"User":                      "any",
		"":                          "any",
		"file":                      "any",
	}
	for in, want := range cases {
		assert.Equal(t, want, ResolveTypeName(in), in)
	}
}

func parseNode(t *testing.T, text string) *schema.Node {
	t.Helper()
	n, err := schema.Parse(text)
	require.NoError(t, err)
	return n
}

func TestResolveNodes(t *testing.T) {
	cases := []struct {
		schema string
		want   string
	}{
		{`{"$ref":"#/definitions/User"}`, "User"},
		{`{"type":"object","$ref":"#/components/schemas/Order"}`, "Order"},
		{`{"type":"integer"}`, "number"},
		{`{"type":"List<String>"}`, "Array<string>"},
		{`{"type":"Long[]"}`, "Array<number>"},
		{`{"type":"array","items":{"type":"string"}}`, "Array<string>"},
		{`{"type":"array","items":{"type":"array","items":{"type":"number"}}}`, "Array<Array<number>>"},
		{`{"type":"array"}`, "Array<any>"},
		{`{"type":"array","items":{"$ref":"#/definitions/Tag"}}`, "Array<Tag>"},
		{`{"type":"object","properties":{"a":{"type":"string"}}}`, "Object"},
		{`{"format":"date-time"}`, "Date"},
		{`{"type":"string","format":"date-time"}`, "string"},
		{`{"description":"anything"}`, "any"},
		{`{"type":"Foo"}`, "any"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Resolve(parseNode(t, tc.schema)), tc.schema)
	}
	assert.Equal(t, "any", Resolve(nil))
}

func TestResolveDepthBound(t *testing.T) {
	name := strings.Repeat("List<", 50) + "string" + strings.Repeat(">", 50)
	got := ResolveTypeName(name)
	assert.True(t, strings.HasPrefix(got, "Array<"))
	assert.Contains(t, got, "any")
}
