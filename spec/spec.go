package spec

import (
	"net/http"
)

const (
	TypeArray   = "array"
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeObject  = "object"
	TypeString  = "string"
)

type Components struct {
	RequestBodies map[string]*RequestBody `json:"requestBodies" yaml:"requestBodies"`
	Responses     map[string]*Response    `json:"responses" yaml:"responses"`
	Schemas       map[string]*Schema      `json:"schemas" yaml:"schemas"`
}

type Info struct {
	Title   string `json:"title" yaml:"title"`
	Version string `json:"version" yaml:"version"`
}

type MediaType struct {
	Schema *Schema `json:"schema" yaml:"schema"`
}

type Operation struct {
	Description string                   `json:"description" yaml:"description"`
	OperationID string                   `json:"operationId" yaml:"operationId"`
	RequestBody *RequestBody             `json:"requestBody" yaml:"requestBody"`
	Responses   map[StatusCode]*Response `json:"responses" yaml:"responses"`
}

type Path string

// PathItem holds the operations declared for a single path template. Only
// the eight standard HTTP methods have a slot.
type PathItem struct {
	Delete  *Operation `json:"delete" yaml:"delete"`
	Get     *Operation `json:"get" yaml:"get"`
	Head    *Operation `json:"head" yaml:"head"`
	Options *Operation `json:"options" yaml:"options"`
	Patch   *Operation `json:"patch" yaml:"patch"`
	Post    *Operation `json:"post" yaml:"post"`
	Put     *Operation `json:"put" yaml:"put"`
	Trace   *Operation `json:"trace" yaml:"trace"`
}

// Operation returns the operation declared for method, or nil if the path
// item has none or method isn't one of the eight standard verbs.
func (p *PathItem) Operation(method string) *Operation {
	if p == nil {
		return nil
	}

	switch method {
	case http.MethodDelete:
		return p.Delete
	case http.MethodGet:
		return p.Get
	case http.MethodHead:
		return p.Head
	case http.MethodOptions:
		return p.Options
	case http.MethodPatch:
		return p.Patch
	case http.MethodPost:
		return p.Post
	case http.MethodPut:
		return p.Put
	case http.MethodTrace:
		return p.Trace
	}
	return nil
}

type RequestBody struct {
	Content  map[string]*MediaType `json:"content" yaml:"content"`
	Required bool                  `json:"required" yaml:"required"`

	// Ref is populated if this request body is actually a reference into
	// #/components/requestBodies.
	Ref string `json:"$ref" yaml:"$ref"`
}

type Response struct {
	Content     map[string]*MediaType `json:"content" yaml:"content"`
	Description string                `json:"description" yaml:"description"`

	// Ref is populated if this response is actually a reference into
	// #/components/responses.
	Ref string `json:"$ref" yaml:"$ref"`
}

type Spec struct {
	Components *Components        `json:"components" yaml:"components"`
	Info       *Info              `json:"info" yaml:"info"`
	OpenAPI    string             `json:"openapi" yaml:"openapi"`
	Paths      map[Path]*PathItem `json:"paths" yaml:"paths"`
}

type StatusCode string
