package types

// QueryParam is one flat request parameter (query string or form field).
type QueryParam struct {
	Name        string `json:"name"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ApiDocument describes one HTTP endpoint as published by the document source.
type ApiDocument struct {
	ID                 int          `json:"id"`
	CategoryID         int          `json:"category_id"`
	ProjectID          int          `json:"project_id"`
	Path               string       `json:"path"`
	Method             string       `json:"method"`
	Title              string       `json:"title"`
	RequestIsSchema    bool         `json:"request_is_schema"`
	RequestSchemaText  string       `json:"request_schema_text,omitempty"`
	RequestQueryParams []QueryParam `json:"request_query_params,omitempty"`
	ResponseIsSchema   bool         `json:"response_is_schema"`
	ResponseSchemaText string       `json:"response_schema_text,omitempty"`
}

// InterfaceSummary is one entry of a category listing.
type InterfaceSummary struct {
	ID         int    `json:"id"`
	CategoryID int    `json:"category_id"`
	ProjectID  int    `json:"project_id"`
	Path       string `json:"path"`
	Method     string `json:"method"`
	Title      string `json:"title"`
}
