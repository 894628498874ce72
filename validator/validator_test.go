package validator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	assert "github.com/stretchr/testify/require"

	"github.com/yougroupteam/openapi-validator-proxy/spec"
	"github.com/yougroupteam/openapi-validator-proxy/testcase"
)

var petSchema = &spec.Schema{
	Type: spec.TypeObject,
	Properties: map[string]*spec.Schema{
		"id":   {Type: spec.TypeInteger},
		"name": {Type: spec.TypeString},
	},
}

func TestValidate_Scalars(t *testing.T) {
	testCases := []struct {
		name   string
		value  string
		schema *spec.Schema
		want   []testcase.Kind
	}{
		{"boolean ok", `true`, &spec.Schema{Type: spec.TypeBoolean}, nil},
		{"boolean against string", `false`, &spec.Schema{Type: spec.TypeString}, []testcase.Kind{testcase.UnexpectedBoolean}},
		{"number ok", `1.5`, &spec.Schema{Type: spec.TypeNumber}, nil},
		{"integer ok", `7`, &spec.Schema{Type: spec.TypeInteger}, nil},
		{"fractional integer accepted", `7.25`, &spec.Schema{Type: spec.TypeInteger}, nil},
		{"number against boolean", `3`, &spec.Schema{Type: spec.TypeBoolean}, []testcase.Kind{testcase.UnexpectedNumber}},
		{"string ok", `"dog"`, &spec.Schema{Type: spec.TypeString}, nil},
		{"string against integer", `"1"`, &spec.Schema{Type: spec.TypeInteger}, []testcase.Kind{testcase.UnexpectedString}},
		{"string against untyped", `"1"`, &spec.Schema{}, []testcase.Kind{testcase.UnexpectedString}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			failures := Validate(nil, decode(t, tc.value), tc.schema, RootPointer, testcase.Response)
			assert.Equal(t, tc.want, kinds(failures))
		})
	}
}

func TestValidate_Null(t *testing.T) {
	schemas := []*spec.Schema{
		{Type: spec.TypeString},
		{Type: spec.TypeObject},
		{Type: spec.TypeArray},
		{AnyOf: []*spec.Schema{{Type: spec.TypeString}}},
		{},
	}
	for _, schema := range schemas {
		t.Run(schema.Kind().String(), func(t *testing.T) {
			failures := Validate(nil, nil, schema, RootPointer, testcase.Request)
			assert.Equal(t, []testcase.Kind{testcase.UnexpectedNull}, kinds(failures))
			assert.Equal(t, "Request.FailedValidation.UnexpectedNull", failures[0].Type())
			assert.Equal(t, "/", failures[0].Pointer)

			nullable := *schema
			nullable.Nullable = true
			assert.Empty(t, Validate(nil, nil, &nullable, RootPointer, testcase.Request))
		})
	}
}

func TestValidate_Object(t *testing.T) {
	// A conforming pet
	{
		failures := Validate(nil, decode(t, `{"id": 1, "name": "dog"}`), petSchema, RootPointer, testcase.Response)
		assert.Empty(t, failures)
	}

	// A wrongly typed property
	{
		failures := Validate(nil, decode(t, `{"id": "1", "name": "dog"}`), petSchema, RootPointer, testcase.Response)
		assert.Len(t, failures, 1)
		assert.Equal(t, "Response.FailedValidation.UnexpectedString", failures[0].Type())
		assert.Equal(t, "/id", failures[0].Pointer)
		assert.Equal(t, "Received unexpected string at /id", failures[0].Text)
	}

	// Undeclared keys are reported without stopping the siblings
	{
		failures := Validate(nil, decode(t, `{"age": 3, "colour": "red", "name": 0}`), petSchema, RootPointer, testcase.Request)
		assert.Equal(t, []testcase.Kind{
			testcase.UnexpectedProperty,
			testcase.UnexpectedProperty,
			testcase.UnexpectedNumber,
		}, kinds(failures))
		assert.Equal(t, "/age", failures[0].Pointer)
		assert.Equal(t, `Unexpected property at /colour, value "red"`, failures[1].Text)
		assert.Equal(t, "/name", failures[2].Pointer)
	}

	// Declared but absent keys aren't checked; required isn't enforced
	{
		required := *petSchema
		required.Required = []string{"id", "name"}
		assert.Empty(t, Validate(nil, decode(t, `{}`), &required, RootPointer, testcase.Response))
	}

	// Untyped schemas with properties are objects
	{
		untyped := &spec.Schema{Properties: petSchema.Properties}
		assert.Empty(t, Validate(nil, decode(t, `{"name": "dog"}`), untyped, RootPointer, testcase.Response))
	}
}

func TestValidate_ObjectReferences(t *testing.T) {
	doc := spec.Test()
	schema := &spec.Schema{
		Type: spec.TypeObject,
		Properties: map[string]*spec.Schema{
			"pet":     {Ref: "#/components/schemas/Pet"},
			"missing": {Ref: "#/components/schemas/DoesNotExist"},
			"alias":   {Ref: "#/components/schemas/Alias"},
		},
	}

	failures := Validate(doc, decode(t, `{
		"alias": {"id": 1},
		"missing": 1,
		"pet": {"id": 1, "name": null, "tag": null}
	}`), schema, RootPointer, testcase.Response)

	assert.Equal(t, []testcase.Kind{
		testcase.MissingSchemaDefinition,
		testcase.MissingSchemaDefinition,
		testcase.UnexpectedNull,
	}, kinds(failures))
	assert.Equal(t, "/alias", failures[0].Pointer)
	assert.Equal(t, "MissingSchemaDefinition", failures[0].Type())
	assert.Equal(t, "/missing", failures[1].Pointer)
	assert.Equal(t, "/pet/name", failures[2].Pointer)
}

func TestValidate_Array(t *testing.T) {
	doc := spec.Test()

	// Elements are checked against the resolved items schema
	{
		schema := &spec.Schema{Type: spec.TypeArray, Items: &spec.Schema{Ref: "#/components/schemas/Pet"}}
		failures := Validate(doc, decode(t, `[{"id": 1}, {"id": true}, {"id": 3, "name": 4}]`), schema, RootPointer, testcase.Response)
		assert.Equal(t, []testcase.Kind{testcase.UnexpectedBoolean, testcase.UnexpectedNumber}, kinds(failures))
		assert.Equal(t, "/1/id", failures[0].Pointer)
		assert.Equal(t, "/2/name", failures[1].Pointer)
	}

	// No items: one failure, no descent
	{
		schema := &spec.Schema{Type: spec.TypeArray}
		failures := Validate(doc, decode(t, `[1, "two", null]`), schema, RootPointer, testcase.Response)
		assert.Equal(t, []testcase.Kind{testcase.MissingSchemaDefinition}, kinds(failures))
	}

	// Unresolvable items
	{
		schema := &spec.Schema{Type: spec.TypeArray, Items: &spec.Schema{Ref: "#/components/schemas/DoesNotExist"}}
		failures := Validate(doc, decode(t, `[1]`), schema, RootPointer, testcase.Response)
		assert.Equal(t, []testcase.Kind{testcase.MissingSchemaDefinition}, kinds(failures))
	}

	// Nested arrays extend the pointer with each index
	{
		schema := &spec.Schema{
			Type:  spec.TypeArray,
			Items: &spec.Schema{Type: spec.TypeArray, Items: &spec.Schema{Type: spec.TypeString}},
		}
		failures := Validate(doc, decode(t, `[["a"], ["b", 2]]`), schema, RootPointer, testcase.Request)
		assert.Len(t, failures, 1)
		assert.Equal(t, "/1/1", failures[0].Pointer)
	}

	// An array where something else is declared isn't reported
	{
		for _, schema := range []*spec.Schema{{Type: spec.TypeString}, petSchema, {}} {
			assert.Empty(t, Validate(doc, decode(t, `[1, 2]`), schema, RootPointer, testcase.Response))
		}
	}
}

func TestValidate_AllOf(t *testing.T) {
	schema := &spec.Schema{
		AllOf: []*spec.Schema{
			{Type: spec.TypeObject, Properties: map[string]*spec.Schema{"a": {Type: spec.TypeString}}},
			{Type: spec.TypeObject, Properties: map[string]*spec.Schema{"b": {Type: spec.TypeInteger}}},
		},
	}

	assert.Empty(t, Validate(nil, decode(t, `{"a": "x", "b": 1}`), schema, RootPointer, testcase.Response))

	failures := Validate(nil, decode(t, `{"a": "x", "b": "y"}`), schema, RootPointer, testcase.Response)
	assert.Len(t, failures, 1)
	assert.Equal(t, testcase.UnexpectedString, failures[0].Kind)
	assert.Equal(t, "/b", failures[0].Pointer)
}

func TestValidate_AllOfMerging(t *testing.T) {
	doc := spec.Test()

	// Referenced members resolve; later members win a name collision;
	// non-object and unresolvable members are ignored.
	schema := &spec.Schema{
		AllOf: []*spec.Schema{
			{Ref: "#/components/schemas/Named"},
			{Type: spec.TypeString},
			{Ref: "#/components/schemas/DoesNotExist"},
			{Type: spec.TypeObject, Properties: map[string]*spec.Schema{"name": {Type: spec.TypeInteger}}},
		},
	}

	failures := Validate(doc, decode(t, `{"name": "rex"}`), schema, RootPointer, testcase.Response)
	assert.Equal(t, []testcase.Kind{testcase.UnexpectedString}, kinds(failures))

	failures = Validate(doc, decode(t, `{"name": 1, "other": true}`), schema, RootPointer, testcase.Response)
	assert.Equal(t, []testcase.Kind{testcase.UnexpectedProperty}, kinds(failures))

	// Required lists of members aren't merged or enforced
	assert.Empty(t, Validate(doc, decode(t, `{}`), schema, RootPointer, testcase.Response))
}

func TestValidate_UnsupportedSchemaKind(t *testing.T) {
	schemas := map[string]*spec.Schema{
		"anyOf":  {AnyOf: []*spec.Schema{petSchema}},
		"oneOf":  {OneOf: []*spec.Schema{petSchema}},
		"not":    {Not: petSchema},
		"string": {Type: spec.TypeString},
		"array":  {Type: spec.TypeArray, Items: petSchema},
		"any":    {},
	}
	for name, schema := range schemas {
		t.Run(name, func(t *testing.T) {
			failures := Validate(nil, decode(t, `{"id": {"deep": "x"}}`), schema, RootPointer, testcase.Request)
			assert.Len(t, failures, 1)
			assert.Equal(t, "Request.FailedValidation.UnsupportedSchemaKind", failures[0].Type())
			assert.Equal(t, "/", failures[0].Pointer)
			assert.True(t, strings.Contains(failures[0].Text, name), failures[0].Text)
		})
	}
}

func TestValidate_Idempotent(t *testing.T) {
	doc := spec.Test()
	schema := &spec.Schema{Type: spec.TypeArray, Items: &spec.Schema{Ref: "#/components/schemas/Pet"}}
	value := decode(t, `[{"z": 1, "y": 2, "x": 3, "id": "a", "name": false, "tag": 1}]`)

	first := Validate(doc, value, schema, RootPointer, testcase.Response)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, Validate(doc, value, schema, RootPointer, testcase.Response)); diff != "" {
			t.Fatalf("validation isn't deterministic (-first +again):\n%s", diff)
		}
	}
	assert.Len(t, first, 6)
	assert.Equal(t, "/0/id", first[0].Pointer)
	assert.Equal(t, "/0/z", first[5].Pointer)
}

func TestValidate_DepthGuard(t *testing.T) {
	// A self-referencing items schema only terminates because the value does
	doc := &spec.Spec{
		Components: &spec.Components{
			Schemas: map[string]*spec.Schema{
				"Nested": {Type: spec.TypeArray, Items: &spec.Schema{Ref: "#/components/schemas/Nested"}},
			},
		},
	}
	value := strings.Repeat("[", MaxDepth+10) + strings.Repeat("]", MaxDepth+10)

	failures := Validate(doc, decode(t, value), doc.Components.Schemas["Nested"], RootPointer, testcase.Response)
	assert.Empty(t, failures)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "/", location("/"))
	assert.Equal(t, "/a", location("/a/"))
	assert.Equal(t, "/a/0", location("/a/0/"))
	assert.Equal(t, "", location(""))
}

//
// Private functions
//

func decode(t *testing.T, s string) interface{} {
	var value interface{}
	err := json.Unmarshal([]byte(s), &value)
	assert.NoError(t, err)
	return value
}

func kinds(failures []testcase.Failure) []testcase.Kind {
	var result []testcase.Kind
	for _, failure := range failures {
		result = append(result, failure.Kind)
	}
	return result
}
