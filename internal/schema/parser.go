package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// MaxDepth bounds how deep Parse descends into nested properties and items.
// Anything below it is kept as an untyped node.
const MaxDepth = 32

// ErrEmpty is returned by Parse for blank schema text.
var ErrEmpty = errors.New("schema: empty text")

// ParseError reports schema text that is not a JSON object.
type ParseError struct {
	Snippet string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schema: cannot parse %q: %v", e.Snippet, e.Cause)
	}
	return fmt.Sprintf("schema: cannot parse %q", e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Parse reads schema text into a Node tree. Property order follows the text.
func Parse(text string) (*Node, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmpty
	}
	if !gjson.Valid(trimmed) {
		return nil, &ParseError{Snippet: snippet(trimmed), Cause: errors.New("invalid json")}
	}
	root := gjson.Parse(trimmed)
	if !root.IsObject() {
		return nil, &ParseError{Snippet: snippet(trimmed), Cause: errors.Newf("expected object, got %s", root.Type)}
	}
	return fromResult(root, 0), nil
}

func fromResult(res gjson.Result, depth int) *Node {
	n := &Node{}
	if depth > MaxDepth || !res.IsObject() {
		return n
	}
	res.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "type":
			n.Type = typeName(value)
		case "$ref":
			n.Ref = strings.TrimSpace(value.String())
		case "format":
			n.Format = strings.TrimSpace(value.String())
		case "description":
			n.Description = strings.TrimSpace(value.String())
		case "required":
			if value.IsArray() {
				for _, r := range value.Array() {
					if r.Type != gjson.String {
						continue
					}
					if n.Required == nil {
						n.Required = make(map[string]bool)
					}
					n.Required[r.String()] = true
				}
			}
		case "items":
			switch {
			case value.IsObject():
				n.Items = fromResult(value, depth+1)
			case value.IsArray():
				if arr := value.Array(); len(arr) > 0 {
					n.Items = fromResult(arr[0], depth+1)
				}
			}
		case "properties":
			if !value.IsObject() {
				return true
			}
			// A repeated name keeps its first position and its last value.
			seen := make(map[string]int)
			value.ForEach(func(name, prop gjson.Result) bool {
				p := Property{Name: name.String(), Node: fromResult(prop, depth+1)}
				if i, ok := seen[p.Name]; ok {
					n.Properties[i] = p
					return true
				}
				seen[p.Name] = len(n.Properties)
				n.Properties = append(n.Properties, p)
				return true
			})
		}
		return true
	})
	return n
}

// typeName accepts both "string" and ["string", "null"] spellings.
func typeName(value gjson.Result) string {
	if value.IsArray() {
		for _, v := range value.Array() {
			if s := strings.TrimSpace(v.String()); s != "" && s != "null" {
				return s
			}
		}
		return ""
	}
	return strings.TrimSpace(value.String())
}

func snippet(s string) string {
	const limit = 48
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
