// Package validator checks decoded JSON values against OpenAPI schemas. The
// check is purely structural: it compares value kinds with schema kinds and
// object keys with declared properties. Formats, patterns, bounds, enums and
// required properties aren't checked.
package validator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/yougroupteam/openapi-validator-proxy/spec"
	"github.com/yougroupteam/openapi-validator-proxy/testcase"
)

// MaxDepth bounds how deep Validate descends into a value. Well-formed
// documents never get close; it only protects against pathological input.
const MaxDepth = 512

// RootPointer is the pointer of a whole document.
const RootPointer = "/"

//
// Public functions
//

// Validate compares value, as produced by encoding/json decoding into an
// interface{}, with schema. References below schema are looked up in doc.
//
// Pointers are slash delimited and end in a slash (the root is "/", its
// "name" property is "/name/"); failures report them without the trailing
// slash. Validate has no side effects and returns failures in a stable
// order, visiting object keys alphabetically.
func Validate(doc *spec.Spec, value interface{}, schema *spec.Schema, pointer string, perspective testcase.Perspective) []testcase.Failure {
	v := &validation{doc: doc, perspective: perspective}
	v.validate(value, schema, pointer, 0)
	return v.failures
}

//
// Private types
//

// validation accumulates the failures of a single Validate call.
type validation struct {
	doc         *spec.Spec
	failures    []testcase.Failure
	perspective testcase.Perspective
}

//
// Private methods
//

func (v *validation) fail(kind testcase.Kind, pointer string, format string, a ...interface{}) {
	failure := testcase.NewFailure(v.perspective, kind, format, a...)
	failure.Pointer = location(pointer)
	v.failures = append(v.failures, failure)
}

func (v *validation) validate(value interface{}, schema *spec.Schema, pointer string, depth int) {
	if depth > MaxDepth {
		log.Warn().
			Str("pointer", location(pointer)).
			Int("max_depth", MaxDepth).
			Msg("Value nested too deeply, not validating further")
		return
	}

	switch value := value.(type) {
	case nil:
		if !schema.Nullable {
			v.fail(testcase.UnexpectedNull, pointer,
				"Received null value when null is not allowed at %s", location(pointer))
		}

	case bool:
		if schema.Kind() != spec.KindBoolean {
			v.fail(testcase.UnexpectedBoolean, pointer,
				"Received unexpected boolean at %s", location(pointer))
		}

	case float64, json.Number:
		// Integer schemas accept any number, fractional or not.
		kind := schema.Kind()
		if kind != spec.KindNumber && kind != spec.KindInteger {
			v.fail(testcase.UnexpectedNumber, pointer,
				"Received unexpected number at %s", location(pointer))
		}

	case string:
		if schema.Kind() != spec.KindString {
			v.fail(testcase.UnexpectedString, pointer,
				"Received unexpected string at %s", location(pointer))
		}

	case []interface{}:
		v.validateArray(value, schema, pointer, depth)

	case map[string]interface{}:
		v.validateObject(value, schema, pointer, depth)

	default:
		log.Warn().
			Str("pointer", location(pointer)).
			Str("type", fmt.Sprintf("%T", value)).
			Msg("Skipping value of unknown type")
	}
}

func (v *validation) validateArray(value []interface{}, schema *spec.Schema, pointer string, depth int) {
	// Arrays are only checked against array schemas; an array where some
	// other kind is declared isn't reported.
	if schema.Kind() != spec.KindArray {
		return
	}

	if schema.Items == nil {
		v.fail(testcase.MissingSchemaDefinition, pointer,
			"Array schema does not contain items schema at %s", location(pointer))
		return
	}

	items := spec.ResolveSchema(schema.Items, v.doc)
	if items == nil {
		v.fail(testcase.MissingSchemaDefinition, pointer,
			"Could not find schema defined inline or as a #/components/schemas/ reference for array items at %s",
			location(pointer))
		return
	}

	for index, element := range value {
		v.validate(element, items, pointer+strconv.Itoa(index)+"/", depth+1)
	}
}

func (v *validation) validateObject(value map[string]interface{}, schema *spec.Schema, pointer string, depth int) {
	switch kind := schema.Kind(); kind {
	case spec.KindObject:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			propertyPointer := pointer + key + "/"

			declared, ok := schema.Properties[key]
			if !ok {
				encoded, _ := json.Marshal(value[key])
				v.fail(testcase.UnexpectedProperty, propertyPointer,
					"Unexpected property at %s, value %s", location(propertyPointer), encoded)
				continue
			}

			property := spec.ResolveSchema(declared, v.doc)
			if property == nil {
				v.fail(testcase.MissingSchemaDefinition, propertyPointer,
					"Could not find schema defined inline or as a #/components/schemas/ reference for property at %s",
					location(propertyPointer))
				continue
			}

			v.validate(value[key], property, propertyPointer, depth+1)
		}

	case spec.KindAllOf:
		v.validate(value, mergeAllOf(schema.AllOf, v.doc), pointer, depth+1)

	case spec.KindAny, spec.KindAnyOf, spec.KindArray, spec.KindBoolean,
		spec.KindInteger, spec.KindNot, spec.KindNumber, spec.KindOneOf,
		spec.KindString:
		fallthrough

	default:
		v.fail(testcase.UnsupportedSchemaKind, pointer,
			"Received unsupported schema kind: %s at %s", kind, location(pointer))
	}
}

//
// Private functions
//

// location renders a pointer for reports, dropping the trailing slash of
// anything below the root.
func location(pointer string) string {
	if len(pointer) > 1 && pointer[len(pointer)-1] == '/' {
		return pointer[:len(pointer)-1]
	}
	return pointer
}

// mergeAllOf builds a single object schema out of the object members of an
// allOf. Properties are unioned; a later member wins a name collision.
// Members that don't resolve or aren't objects are dropped. Required lists
// aren't merged.
func mergeAllOf(members []*spec.Schema, doc *spec.Spec) *spec.Schema {
	properties := make(map[string]*spec.Schema)

	for _, member := range members {
		if member == nil {
			continue
		}

		resolved := spec.ResolveSchema(member, doc)
		if resolved == nil {
			log.Debug().Str("ref", member.Ref).Msg("Could not resolve allOf member")
			continue
		}

		if resolved.Kind() != spec.KindObject {
			log.Warn().
				Str("kind", resolved.Kind().String()).
				Msg("Encountered non-object schema in allOf")
			continue
		}

		for name, property := range resolved.Properties {
			properties[name] = property
		}
	}

	return &spec.Schema{
		Type:       spec.TypeObject,
		Properties: properties,
	}
}
