package spec

import (
	"encoding/json"
	"net/http"
	"testing"

	assert "github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestUnmarshal_Simple(t *testing.T) {
	data := []byte(`{"type": "string"}`)
	var schema Schema
	err := json.Unmarshal(data, &schema)
	assert.NoError(t, err)
	assert.Equal(t, "string", schema.Type)
	assert.Equal(t, KindString, schema.Kind())
}

func TestUnmarshal_Nullable(t *testing.T) {
	data := []byte(`{"type": "integer", "nullable": true}`)
	var schema Schema
	err := json.Unmarshal(data, &schema)
	assert.NoError(t, err)
	assert.True(t, schema.Nullable)
	assert.Equal(t, KindInteger, schema.Kind())
}

func TestUnmarshal_YAMLRef(t *testing.T) {
	data := []byte(`$ref: '#/components/schemas/Pet'`)
	var schema Schema
	err := yaml.Unmarshal(data, &schema)
	assert.NoError(t, err)
	assert.True(t, schema.IsRef())
	assert.Equal(t, "#/components/schemas/Pet", schema.Ref)
}

func TestSchemaKind(t *testing.T) {
	testCases := []struct {
		name   string
		schema Schema
		want   Kind
	}{
		{"array", Schema{Type: TypeArray}, KindArray},
		{"boolean", Schema{Type: TypeBoolean}, KindBoolean},
		{"integer", Schema{Type: TypeInteger}, KindInteger},
		{"number", Schema{Type: TypeNumber}, KindNumber},
		{"object", Schema{Type: TypeObject}, KindObject},
		{"string", Schema{Type: TypeString}, KindString},
		{"unknown type", Schema{Type: "file"}, KindAny},
		{"empty", Schema{}, KindAny},
		{"allOf", Schema{AllOf: []*Schema{{Type: TypeObject}}}, KindAllOf},
		{"anyOf", Schema{AnyOf: []*Schema{{Type: TypeString}}}, KindAnyOf},
		{"oneOf", Schema{OneOf: []*Schema{{Type: TypeString}}}, KindOneOf},
		{"not", Schema{Not: &Schema{Type: TypeString}}, KindNot},
		{"untyped properties", Schema{Properties: map[string]*Schema{"a": {}}}, KindObject},
		{"type beats composition", Schema{Type: TypeObject, AnyOf: []*Schema{{}}}, KindObject},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.schema.Kind())
		})
	}
}

func TestPathItemOperation(t *testing.T) {
	get := &Operation{OperationID: "get"}
	trace := &Operation{OperationID: "trace"}
	item := &PathItem{Get: get, Trace: trace}

	assert.Equal(t, get, item.Operation(http.MethodGet))
	assert.Equal(t, trace, item.Operation(http.MethodTrace))
	assert.Nil(t, item.Operation(http.MethodPost))
	assert.Nil(t, item.Operation("CONNECT"))
	assert.Nil(t, item.Operation("get"))

	var nilItem *PathItem
	assert.Nil(t, nilItem.Operation(http.MethodGet))
}
