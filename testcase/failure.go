// Package testcase holds the records produced by validating one proxied
// request: the failure taxonomy, observed properties and the finished
// testcase itself.
package testcase

import (
	"fmt"
)

// Perspective tells which side of an exchange a failure was found on.
type Perspective int

const (
	Request Perspective = iota
	Response
)

func (p Perspective) String() string {
	switch p {
	case Request:
		return "Request"
	case Response:
		return "Response"
	}
	return fmt.Sprintf("Perspective(%d)", int(p))
}

// Kind classifies a failure. The set is closed: report consumers match on
// the strings returned by Failure.Type.
type Kind int

const (
	// PathNotFound means no route template matched the request path. The
	// exchange was forwarded but no operation-level checks were run.
	PathNotFound Kind = iota
	// InvalidHTTPMethod means the path matched but declares no operation for
	// the request method.
	InvalidHTTPMethod
	// InvalidStatusCode means the operation declares no response for the
	// upstream's status code.
	InvalidStatusCode
	// MissingResponseDefinition means a declared response reference could not
	// be resolved.
	MissingResponseDefinition
	// MissingSchemaDefinition means a schema, array items, property or
	// request body reference was absent or could not be resolved.
	MissingSchemaDefinition

	// FailedJSONDeserialization means a body sent as application/json did not
	// parse.
	FailedJSONDeserialization
	// MismatchNonEmptyBody means a body was sent where none is declared.
	MismatchNonEmptyBody
	// MismatchedContentTypeHeader means the Content-Type isn't one of the
	// declared content entries.
	MismatchedContentTypeHeader
	// MissingContentTypeHeader means a non-empty body came without a
	// Content-Type.
	MissingContentTypeHeader

	UnexpectedBoolean
	UnexpectedNull
	UnexpectedNumber
	UnexpectedProperty
	UnexpectedString
	// UnsupportedSchemaKind means an object was checked against anyOf, oneOf,
	// not, or a non-object type.
	UnsupportedSchemaKind
)

var kindNames = map[Kind]string{
	PathNotFound:                "PathNotFound",
	InvalidHTTPMethod:           "InvalidHTTPMethod",
	InvalidStatusCode:           "InvalidStatusCode",
	MissingResponseDefinition:   "MissingResponseDefinition",
	MissingSchemaDefinition:     "MissingSchemaDefinition",
	FailedJSONDeserialization:   "FailedJSONDeserialization",
	MismatchNonEmptyBody:        "MismatchNonEmptyBody",
	MismatchedContentTypeHeader: "MismatchedContentTypeHeader",
	MissingContentTypeHeader:    "MissingContentTypeHeader",
	UnexpectedBoolean:           "FailedValidation.UnexpectedBoolean",
	UnexpectedNull:              "FailedValidation.UnexpectedNull",
	UnexpectedNumber:            "FailedValidation.UnexpectedNumber",
	UnexpectedProperty:          "FailedValidation.UnexpectedProperty",
	UnexpectedString:            "FailedValidation.UnexpectedString",
	UnsupportedSchemaKind:       "FailedValidation.UnsupportedSchemaKind",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// PerspectiveQualified reports whether the kind's report string carries a
// Request. or Response. prefix.
func (k Kind) PerspectiveQualified() bool {
	return k >= FailedJSONDeserialization && k <= UnsupportedSchemaKind
}

// Failure is one conformance problem found while validating an exchange.
type Failure struct {
	Kind        Kind
	Perspective Perspective

	// Pointer locates the offending value inside a JSON body, e.g. `/pets/0`.
	// Empty for failures that aren't about a body value.
	Pointer string

	Text string
}

// NewFailure builds a failure with a formatted message.
func NewFailure(perspective Perspective, kind Kind, format string, a ...interface{}) Failure {
	return Failure{
		Kind:        kind,
		Perspective: perspective,
		Text:        fmt.Sprintf(format, a...),
	}
}

// Type is the classification string used in reports, such as
// `PathNotFound` or `Response.FailedValidation.UnexpectedString`.
func (f Failure) Type() string {
	if f.Kind.PerspectiveQualified() {
		return f.Perspective.String() + "." + f.Kind.String()
	}
	return f.Kind.String()
}

func (f Failure) String() string {
	return f.Type() + ": " + f.Text
}
