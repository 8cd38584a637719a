package generator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Field is one member of a Declaration.
type Field struct {
	Name        string
	Optional    bool
	Type        string
	Description string
}

// Declaration is a named structural type. Children are emitted before it.
// Placeholder, when set, explains why the body is empty.
type Declaration struct {
	Name        string
	Fields      []Field
	Children    []Declaration
	Placeholder string
}

// RenderOptions controls the lexical form of rendered declarations.
type RenderOptions struct {
	Indent string
	Export bool
}

// DefaultRenderOptions renders exported interfaces with two-space indent.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Indent: "  ", Export: true}
}

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Render returns the declaration's text. Equal declarations render to equal
// text.
func (d Declaration) Render(opts RenderOptions) string {
	indent := opts.Indent
	if indent == "" {
		indent = "  "
	}
	b := &strings.Builder{}
	if opts.Export {
		b.WriteString("export ")
	}
	fmt.Fprintf(b, "interface %s {\n", d.Name)
	if d.Placeholder != "" {
		fmt.Fprintf(b, "%s// %s\n", indent, d.Placeholder)
	}
	for _, f := range d.Fields {
		b.WriteString(indent)
		b.WriteString(fieldName(f.Name))
		if f.Optional {
			b.WriteString("?")
		}
		b.WriteString(": ")
		b.WriteString(f.Type)
		b.WriteString(";")
		if desc := oneLine(f.Description); desc != "" {
			b.WriteString(" // ")
			b.WriteString(desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// Assemble emits every child declaration, each followed by a blank line,
// and then the main declaration.
func Assemble(main Declaration, children []Declaration, opts RenderOptions) string {
	b := &strings.Builder{}
	for _, c := range children {
		b.WriteString(c.Render(opts))
		b.WriteString("\n")
	}
	b.WriteString(main.Render(opts))
	return b.String()
}

func fieldName(name string) string {
	if identRe.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
