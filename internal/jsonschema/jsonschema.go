// Package jsonschema holds a minimal JSON Schema representation used to
// describe structured-output contracts to LLM vendors and to validate their
// answers. It is a wire type, not a full validator; validation is delegated
// to the schema library in core/validate.
package jsonschema

// Schema is a JSON Schema fragment. Only the subset of keywords needed for
// extraction output contracts is modeled.
type Schema struct {
	// Type specifies the data type (e.g., "object", "array", "string", "number")
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of an object, each with its own schema
	Properties map[string]*Schema `json:"properties,omitempty"`
	// For array types, defines the schema of items in the array
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties controls whether undeclared properties are allowed
	AdditionalProperties any `json:"additionalProperties,omitempty"`
	// Enum contains the list of allowed values
	Enum []any `json:"enum,omitempty"`
}

// Object returns an object schema with the given properties and required keys.
func Object(properties map[string]*Schema, required []string) *Schema {
	return &Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// Of returns a schema of the given primitive or container type with an
// optional description.
func Of(schemaType, description string) *Schema {
	return &Schema{Type: schemaType, Description: description}
}
