package spec

import (
	"strings"
)

const (
	requestBodyRefPrefix = "#/components/requestBodies/"
	responseRefPrefix    = "#/components/responses/"
	schemaRefPrefix      = "#/components/schemas/"
)

//
// Public functions
//

// ResolveRequestBody returns the concrete request body that body stands for:
// body itself when it's inline, or the named entry in
// #/components/requestBodies. See ResolveSchema for the rules.
func ResolveRequestBody(body *RequestBody, doc *Spec) *RequestBody {
	if body == nil {
		return nil
	}
	if body.Ref == "" {
		return body
	}

	name, ok := strings.CutPrefix(body.Ref, requestBodyRefPrefix)
	if !ok || doc == nil || doc.Components == nil {
		return nil
	}

	found, ok := doc.Components.RequestBodies[name]
	if !ok || found == nil || found.Ref != "" {
		return nil
	}
	return found
}

// ResolveResponse returns the concrete response that response stands for:
// response itself when it's inline, or the named entry in
// #/components/responses. See ResolveSchema for the rules.
func ResolveResponse(response *Response, doc *Spec) *Response {
	if response == nil {
		return nil
	}
	if response.Ref == "" {
		return response
	}

	name, ok := strings.CutPrefix(response.Ref, responseRefPrefix)
	if !ok || doc == nil || doc.Components == nil {
		return nil
	}

	found, ok := doc.Components.Responses[name]
	if !ok || found == nil || found.Ref != "" {
		return nil
	}
	return found
}

// ResolveSchema returns the concrete schema that schema stands for. An inline
// schema resolves to itself. A reference of the form
// #/components/schemas/<Name> resolves to the named component.
//
// Resolution is a single hop: a component that is itself a reference is not
// followed, and nil is returned. A malformed reference, an unknown name and a
// document without components all produce nil too. Callers must read nil as
// "could not resolve", never as "absent from the API".
func ResolveSchema(schema *Schema, doc *Spec) *Schema {
	if schema == nil {
		return nil
	}
	if schema.Ref == "" {
		return schema
	}

	name, ok := strings.CutPrefix(schema.Ref, schemaRefPrefix)
	if !ok || doc == nil || doc.Components == nil {
		return nil
	}

	found, ok := doc.Components.Schemas[name]
	if !ok || found == nil || found.Ref != "" {
		return nil
	}
	return found
}
