package generator

import "testing"

func TestRenderFieldsAndPlaceholder(t *testing.T) {
	decl := Declaration{
		Name: "UserGetVO",
		Fields: []Field{
			{Name: "id", Type: "number", Description: "primary\n key"},
			{Name: "name", Optional: true, Type: "string"},
			{Name: "x-trace", Optional: true, Type: "any"},
		},
	}
	want := "export interface UserGetVO {\n" +
		"  id: number; // primary key\n" +
		"  name?: string;\n" +
		"  \"x-trace\"?: any;\n" +
		"}\n"
	if got := decl.Render(DefaultRenderOptions()); got != want {
		t.Fatalf("unexpected render:\n%s\nwant:\n%s", got, want)
	}

	empty := Declaration{Name: "PingDTO", Placeholder: PlaceholderNoParams}
	want = "export interface PingDTO {\n  // no parameters\n}\n"
	if got := empty.Render(DefaultRenderOptions()); got != want {
		t.Fatalf("unexpected placeholder render: %q", got)
	}
}

func TestRenderOptions(t *testing.T) {
	decl := Declaration{Name: "A", Fields: []Field{{Name: "b", Type: "string"}}}
	got := decl.Render(RenderOptions{Indent: "\t"})
	if got != "interface A {\n\tb: string;\n}\n" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestAssembleChildrenFirst(t *testing.T) {
	child := Declaration{Name: "Profile", Fields: []Field{{Name: "age", Optional: true, Type: "number"}}}
	main := Declaration{Name: "UserVO", Fields: []Field{{Name: "profile", Optional: true, Type: "Profile"}}}
	want := "export interface Profile {\n  age?: number;\n}\n\n" +
		"export interface UserVO {\n  profile?: Profile;\n}\n"
	if got := Assemble(main, []Declaration{child}, DefaultRenderOptions()); got != want {
		t.Fatalf("unexpected assembly:\n%s", got)
	}
	if got := Assemble(main, nil, DefaultRenderOptions()); got != main.Render(DefaultRenderOptions()) {
		t.Fatalf("assembly without children must equal the main render")
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	decl := Declaration{Name: "A", Fields: []Field{{Name: "b", Type: "Array<string>"}, {Name: "c", Optional: true, Type: "Date"}}}
	first := decl.Render(DefaultRenderOptions())
	for i := 0; i < 5; i++ {
		if got := decl.Render(DefaultRenderOptions()); got != first {
			t.Fatalf("render changed between calls")
		}
	}
}
