// Package conformance runs the checks that decide whether one side of an
// HTTP exchange conforms to the operation an OpenAPI document declares for
// it. The same pipeline serves requests and responses; the perspective picks
// where the declared body comes from.
package conformance

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/yougroupteam/openapi-validator-proxy/route"
	"github.com/yougroupteam/openapi-validator-proxy/spec"
	"github.com/yougroupteam/openapi-validator-proxy/testcase"
	"github.com/yougroupteam/openapi-validator-proxy/validator"
)

const jsonMediaType = "application/json"

//
// Public types
//

// Exchange is one side of a proxied call as seen on the wire.
type Exchange struct {
	Perspective testcase.Perspective

	// Method is the request method. It's needed on both sides to find the
	// operation.
	Method string

	// Path is the inbound request path, recorded on the request side.
	Path string

	// Status is the upstream status code, used on the response side.
	Status int

	Header http.Header
	Body   []byte
}

// Result is what validating one side produced. Properties aren't sorted.
type Result struct {
	Properties []testcase.Property
	Failures   []testcase.Failure
}

// Merge appends other's properties and failures to r.
func (r *Result) Merge(other Result) {
	r.Properties = append(r.Properties, other.Properties...)
	r.Failures = append(r.Failures, other.Failures...)
}

// Validator validates exchanges against a single document. It holds no
// mutable state and is safe for concurrent use.
type Validator struct {
	doc   *spec.Spec
	table *route.Table
}

//
// Public functions
//

// New builds a Validator and the routing table for doc.
func New(doc *spec.Spec) *Validator {
	return &Validator{doc: doc, table: route.NewTable(doc)}
}

//
// Public methods
//

// Doc returns the document the validator checks against.
func (v *Validator) Doc() *spec.Spec {
	return v.doc
}

// Route matches a relative request path against the document's templates.
// A match records one pathParameter-<name> property per parameter; no match
// records a PathNotFound failure and returns a nil match, after which
// Validate only records basic properties.
func (v *Validator) Route(relativePath string) (*route.Match, Result) {
	var result Result

	match := v.table.Match(relativePath)
	if match == nil {
		result.Failures = append(result.Failures, testcase.NewFailure(
			testcase.Request, testcase.PathNotFound, "Path not found: %s", relativePath))
		return nil, result
	}

	for _, parameter := range match.Parameters {
		result.Properties = append(result.Properties, testcase.Property{
			Name:  testcase.PathParameterPrefix + parameter.Name,
			Value: parameter.Value,
		})
	}
	return match, result
}

// Validate runs the pipeline for one side of an exchange. match is the
// result of Route and may be nil. Every problem is recorded as a failure;
// the first problem that makes further checks meaningless ends the run.
func (v *Validator) Validate(match *route.Match, exchange Exchange) Result {
	run := &pipeline{doc: v.doc, exchange: exchange, body: exchange.Body}
	if exchange.Perspective == testcase.Response && bodilessStatus(exchange.Status) {
		run.body = nil
	}

	run.execute(match)
	return run.result
}

//
// Private types
//

// pipeline is the state of a single Validate call.
type pipeline struct {
	body     []byte
	doc      *spec.Spec
	exchange Exchange
	result   Result
}

//
// Private methods
//

func (p *pipeline) execute(match *route.Match) {
	perspective := p.exchange.Perspective

	switch perspective {
	case testcase.Request:
		p.property(testcase.PropertyPath, p.exchange.Path)
		p.property(testcase.PropertyMethod, p.exchange.Method)
	case testcase.Response:
		p.property(testcase.PropertyStatusCode, strconv.Itoa(p.exchange.Status))
	}

	if match == nil {
		return
	}

	operation := p.doc.Paths[match.Template].Operation(p.exchange.Method)
	if operation == nil {
		// Reported once, from the request side.
		if perspective == testcase.Request {
			p.fail(testcase.InvalidHTTPMethod, "Invalid HTTP method %s for path %s",
				p.exchange.Method, match.Template)
		}
		return
	}

	var content map[string]*spec.MediaType
	var ok bool
	switch perspective {
	case testcase.Request:
		if operation.OperationID != "" {
			p.property(testcase.PropertyOperationID, operation.OperationID)
		}
		content, ok = p.requestContent(operation)
	case testcase.Response:
		content, ok = p.responseContent(operation)
	}
	if !ok {
		return
	}

	p.validateContent(content)
}

// requestContent finds the content map of the operation's request body. It
// returns false when there's nothing more to check.
func (p *pipeline) requestContent(operation *spec.Operation) (map[string]*spec.MediaType, bool) {
	if operation.RequestBody == nil {
		if len(p.body) != 0 {
			p.fail(testcase.MismatchNonEmptyBody,
				"Client supplied request body when none was included in spec.")
		}
		return nil, false
	}

	requestBody := spec.ResolveRequestBody(operation.RequestBody, p.doc)
	if requestBody == nil {
		p.fail(testcase.MissingSchemaDefinition,
			"Could not find request defined inline or as a #/components/requestBodies/ reference")
		return nil, false
	}

	return requestBody.Content, true
}

// responseContent finds the content map of the response declared for the
// upstream's status code. It returns false when there's nothing more to
// check.
func (p *pipeline) responseContent(operation *spec.Operation) (map[string]*spec.MediaType, bool) {
	status := p.exchange.Status

	declared, ok := operation.Responses[spec.StatusCode(strconv.Itoa(status))]
	if !ok {
		p.fail(testcase.InvalidStatusCode, "Response not found for status code %d", status)
		return nil, false
	}

	response := spec.ResolveResponse(declared, p.doc)
	if response == nil {
		p.fail(testcase.MissingResponseDefinition,
			"Could not find response defined inline or as a #/components/responses/ reference")
		return nil, false
	}

	// With a Content-Type header the body falls through to the content
	// lookup instead.
	if len(response.Content) == 0 && len(p.body) != 0 &&
		len(p.exchange.Header.Values("Content-Type")) == 0 {
		p.fail(testcase.MismatchNonEmptyBody,
			"Received response body when empty body is expected")
		return nil, false
	}

	return response.Content, true
}

func (p *pipeline) validateContent(content map[string]*spec.MediaType) {
	side := p.side()

	contentTypes := p.exchange.Header.Values("Content-Type")
	if len(contentTypes) == 0 {
		if len(p.body) != 0 {
			p.fail(testcase.MissingContentTypeHeader,
				"%s did not include a Content-Type header, unable to validate %s body schema.",
				side, side)
		}
		return
	}

	contentType := contentTypes[0]
	switch p.exchange.Perspective {
	case testcase.Request:
		p.property(testcase.PropertyRequestContentType, contentType)
	case testcase.Response:
		p.property(testcase.PropertyResponseContentType, contentType)
	}

	// Only responses may declare a content type for an empty body.
	if p.exchange.Perspective == testcase.Response && len(p.body) == 0 {
		return
	}

	mediaType, ok := content[contentType]
	if !ok {
		p.fail(testcase.MismatchedContentTypeHeader,
			"Spec does not contain matching %s for Content-Type: %s", side, contentType)
		return
	}

	if contentType != jsonMediaType {
		log.Debug().
			Str("content_type", contentType).
			Str("perspective", p.exchange.Perspective.String()).
			Msg("Content type is not application/json, skipping body validation")
		return
	}

	var schema *spec.Schema
	if mediaType != nil {
		schema = spec.ResolveSchema(mediaType.Schema, p.doc)
	}
	if schema == nil {
		p.fail(testcase.MissingSchemaDefinition,
			"Could not find schema defined inline or as a #/components/schemas/ reference")
		return
	}

	var value interface{}
	if err := json.Unmarshal(p.body, &value); err != nil {
		p.fail(testcase.FailedJSONDeserialization, "Failed to parse %s body as JSON: %v", side, err)
		return
	}

	p.result.Failures = append(p.result.Failures, validator.Validate(
		p.doc, value, schema, validator.RootPointer, p.exchange.Perspective)...)
}

func (p *pipeline) fail(kind testcase.Kind, format string, a ...interface{}) {
	p.result.Failures = append(p.result.Failures,
		testcase.NewFailure(p.exchange.Perspective, kind, format, a...))
}

func (p *pipeline) property(name, value string) {
	p.result.Properties = append(p.result.Properties,
		testcase.Property{Name: name, Value: value})
}

func (p *pipeline) side() string {
	if p.exchange.Perspective == testcase.Request {
		return "request"
	}
	return "response"
}

//
// Private functions
//

// bodilessStatus reports whether a response with this status is treated as
// having no body, whatever arrived on the wire.
func bodilessStatus(status int) bool {
	return status == http.StatusNoContent || status == http.StatusNotModified
}
