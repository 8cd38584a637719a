package generator

import (
	"strings"
	"unicode"
)

// BaseName derives a PascalCase type name from an endpoint path:
// "/user/{id}/get-detail" -> "UserIdGetDetail". Leading digits are prefixed
// with "Api" so the result is always a valid identifier.
func BaseName(path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	b := &strings.Builder{}
	for _, p := range parts {
		b.WriteString(Capitalize(p))
	}
	name := b.String()
	if name == "" {
		return "Api"
	}
	if r := []rune(name)[0]; unicode.IsDigit(r) {
		return "Api" + name
	}
	return name
}

// Capitalize upper-cases the first letter and keeps the rest as-is.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
