package schema

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsPropertyOrder(t *testing.T) {
	n, err := Parse(`{"type":"object","required":["b"],"properties":{"c":{"type":"string"},"a":{"type":"integer"},"b":{"type":"boolean","description":" flag "}}}`)
	require.NoError(t, err)

	names := make([]string, 0, len(n.Properties))
	for _, p := range n.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
	assert.True(t, n.IsRequired("b"))
	assert.False(t, n.IsRequired("a"))
	assert.Equal(t, "flag", n.Property("b").Description)
	assert.Equal(t, KindObject, n.Kind())
}

func TestParseItemsAndRefs(t *testing.T) {
	n, err := Parse(`{"type":"array","items":{"$ref":"#/definitions/User","type":"object"}}`)
	require.NoError(t, err)
	require.NotNil(t, n.Items)
	assert.Equal(t, "#/definitions/User", n.Items.Ref)
	assert.Equal(t, KindReference, n.Items.Kind(), "reference wins over an explicit type")

	tuple, err := Parse(`{"type":"array","items":[{"type":"string"},{"type":"integer"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "string", tuple.Items.Type)
}

func TestParseNullableTypeArray(t *testing.T) {
	n, err := Parse(`{"type":["null","integer"]}`)
	require.NoError(t, err)
	assert.Equal(t, "integer", n.Type)
	assert.Equal(t, KindPrimitive, n.Kind())
}

func TestParseFormatOnly(t *testing.T) {
	n, err := Parse(`{"format":"date-time"}`)
	require.NoError(t, err)
	assert.Equal(t, KindFormat, n.Kind())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("   ")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse(`{"type":"object","properties":{"a":`)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.True(t, strings.HasPrefix(pe.Snippet, `{"type"`))

	_, err = Parse(`["not","an","object"]`)
	require.ErrorAs(t, err, &pe)
}

func TestParseErrorSnippetKeepsRunes(t *testing.T) {
	_, err := Parse(`{"description":"` + strings.Repeat("用户", 20))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.True(t, utf8.ValidString(pe.Snippet), pe.Snippet)
	assert.True(t, strings.HasSuffix(pe.Snippet, "..."))
	assert.LessOrEqual(t, len(pe.Snippet), 48+len("..."))
	assert.NotContains(t, err.Error(), `\x`)
}

func TestParseDuplicatePropertyKeepsLastValue(t *testing.T) {
	n, err := Parse(`{"type":"object","properties":{"a":{"type":"string"},"b":{"type":"boolean"},"a":{"type":"integer"}}}`)
	require.NoError(t, err)
	require.Len(t, n.Properties, 2)
	assert.Equal(t, "a", n.Properties[0].Name)
	assert.Equal(t, "integer", n.Properties[0].Node.Type)
	assert.Equal(t, "b", n.Properties[1].Name)
}

func TestParseDepthIsBounded(t *testing.T) {
	text := strings.Repeat(`{"type":"array","items":`, MaxDepth+5) + `{"type":"string"}` + strings.Repeat("}", MaxDepth+5)
	n, err := Parse(text)
	require.NoError(t, err)

	depth := 0
	for cur := n; cur != nil && cur.Items != nil; cur = cur.Items {
		depth++
	}
	assert.LessOrEqual(t, depth, MaxDepth+1)
}
