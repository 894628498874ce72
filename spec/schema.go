package spec

// Kind identifies which structural shape a schema describes. Validation
// dispatches on Kind rather than on raw schema fields.
type Kind int

const (
	// KindAny is a schema with no recognizable shape, e.g. `{}` or an
	// unknown `type` string.
	KindAny Kind = iota
	KindAllOf
	KindAnyOf
	KindArray
	KindBoolean
	KindInteger
	KindNot
	KindNumber
	KindObject
	KindOneOf
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindAllOf:
		return "allOf"
	case KindAnyOf:
		return "anyOf"
	case KindArray:
		return TypeArray
	case KindBoolean:
		return TypeBoolean
	case KindInteger:
		return TypeInteger
	case KindNot:
		return "not"
	case KindNumber:
		return TypeNumber
	case KindObject:
		return TypeObject
	case KindOneOf:
		return "oneOf"
	case KindString:
		return TypeString
	}
	return "unknown"
}

// Schema is an OpenAPI 3.0 schema object. Only the fields that affect
// structural validation are decoded; formats, patterns, bounds and enums are
// ignored.
type Schema struct {
	// AdditionalProperties is kept as decoded (a bool or a schema map). It's
	// informational only: undeclared properties are always reported.
	AdditionalProperties interface{}        `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
	AllOf                []*Schema          `json:"allOf,omitempty" yaml:"allOf,omitempty"`
	AnyOf                []*Schema          `json:"anyOf,omitempty" yaml:"anyOf,omitempty"`
	Items                *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
	Not                  *Schema            `json:"not,omitempty" yaml:"not,omitempty"`
	Nullable             bool               `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	OneOf                []*Schema          `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required             []string           `json:"required,omitempty" yaml:"required,omitempty"`
	Type                 string             `json:"type,omitempty" yaml:"type,omitempty"`

	// Ref is populated if this schema is actually a reference into
	// #/components/schemas, and it names the actual schema definition.
	Ref string `json:"$ref,omitempty" yaml:"$ref,omitempty"`
}

// Kind reports the shape of the schema. An explicit `type` always wins;
// otherwise composition keywords are checked, and a bare `properties` map
// is treated as an object.
func (s *Schema) Kind() Kind {
	switch s.Type {
	case TypeArray:
		return KindArray
	case TypeBoolean:
		return KindBoolean
	case TypeInteger:
		return KindInteger
	case TypeNumber:
		return KindNumber
	case TypeObject:
		return KindObject
	case TypeString:
		return KindString
	case "":
	default:
		return KindAny
	}

	switch {
	case len(s.AllOf) != 0:
		return KindAllOf
	case len(s.AnyOf) != 0:
		return KindAnyOf
	case len(s.OneOf) != 0:
		return KindOneOf
	case s.Not != nil:
		return KindNot
	case len(s.Properties) != 0:
		return KindObject
	}
	return KindAny
}

// IsRef reports whether the schema is a reference rather than an inline
// definition.
func (s *Schema) IsRef() bool {
	return s.Ref != ""
}
