package yapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/yourorg/yapits/pkg/types"
)

type rawProject struct {
	ID       int    `json:"_id"`
	Name     string `json:"name"`
	BasePath string `json:"basepath"`
}

type rawParam struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required flag   `json:"required"`
	Desc     string `json:"desc"`
}

type rawInterface struct {
	ID                  int        `json:"_id"`
	CatID               int        `json:"catid"`
	ProjectID           int        `json:"project_id"`
	Path                string     `json:"path"`
	Method              string     `json:"method"`
	Title               string     `json:"title"`
	ReqQuery            []rawParam `json:"req_query"`
	ReqBodyType         string     `json:"req_body_type"`
	ReqBodyForm         []rawParam `json:"req_body_form"`
	ReqBodyIsJSONSchema bool       `json:"req_body_is_json_schema"`
	ReqBodyOther        string     `json:"req_body_other"`
	ResBodyIsJSONSchema bool       `json:"res_body_is_json_schema"`
	ResBody             string     `json:"res_body"`
}

// document maps the YApi record onto an ApiDocument. Query parameters carry
// no type in YApi and are declared as strings; form fields keep their
// declared type ("text" or "file"), which the resolver treats as unknown.
func (r rawInterface) document() types.ApiDocument {
	doc := types.ApiDocument{
		ID:                 r.ID,
		CategoryID:         r.CatID,
		ProjectID:          r.ProjectID,
		Path:               r.Path,
		Method:             strings.ToUpper(r.Method),
		Title:              r.Title,
		RequestIsSchema:    r.ReqBodyType == "json" && r.ReqBodyIsJSONSchema,
		RequestSchemaText:  r.ReqBodyOther,
		ResponseIsSchema:   r.ResBodyIsJSONSchema,
		ResponseSchemaText: r.ResBody,
	}
	if r.ReqBodyType == "" && r.ReqBodyIsJSONSchema {
		doc.RequestIsSchema = true
	}
	for _, q := range r.ReqQuery {
		doc.RequestQueryParams = append(doc.RequestQueryParams, types.QueryParam{
			Name:        q.Name,
			Required:    bool(q.Required),
			Type:        "string",
			Description: q.Desc,
		})
	}
	if r.ReqBodyType == "form" {
		for _, f := range r.ReqBodyForm {
			typ := f.Type
			if typ == "text" || typ == "" {
				typ = "string"
			}
			doc.RequestQueryParams = append(doc.RequestQueryParams, types.QueryParam{
				Name:        f.Name,
				Required:    bool(f.Required),
				Type:        typ,
				Description: f.Desc,
			})
		}
	}
	return doc
}

// flag decodes YApi's "1"/"0" strings as well as numbers and booleans.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	switch s {
	case "1", "true":
		*f = true
	default:
		*f = false
	}
	return nil
}

var _ json.Unmarshaler = (*flag)(nil)
