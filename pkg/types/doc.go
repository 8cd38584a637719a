package types

import (
	"strings"
	"time"
)

// ProjectInfo is the owning project of an endpoint.
type ProjectInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name,omitempty"`
	BasePath string `json:"base_path"`
}

// GeneratedArtifact is the synthesized output for one ApiDocument.
type GeneratedArtifact struct {
	URL                 string    `json:"url"`
	Method              string    `json:"method"`
	ID                  int       `json:"id"`
	CategoryID          int       `json:"category_id"`
	ProjectID           int       `json:"project_id"`
	Title               string    `json:"title"`
	RequestDeclaration  string    `json:"request_declaration"`
	ResponseDeclaration string    `json:"response_declaration"`
	CreatedAt           time.Time `json:"created_at"`
}

// Text joins both declarations the way they are copied to the clipboard.
func (a *GeneratedArtifact) Text() string {
	b := &strings.Builder{}
	b.WriteString("// ")
	b.WriteString(strings.ToUpper(a.Method))
	b.WriteString(" ")
	b.WriteString(a.URL)
	if a.Title != "" {
		b.WriteString(" ")
		b.WriteString(a.Title)
	}
	b.WriteString("\n")
	b.WriteString(a.RequestDeclaration)
	b.WriteString("\n")
	b.WriteString(a.ResponseDeclaration)
	return b.String()
}

// CategoryResult is the outcome of synthesizing every endpoint of a category.
type CategoryResult struct {
	CategoryID int                 `json:"category_id"`
	Artifacts  []GeneratedArtifact `json:"artifacts"`
	Failures   []Failure           `json:"failures,omitempty"`
}

// Failure records one endpoint that could not be synthesized.
type Failure struct {
	ID    int    `json:"id"`
	Error string `json:"error"`
}
