// Package validate checks a parsed schema-mode result against the declared
// fields. It is an opt-in, presentation-side concern: the parser itself never
// validates semantics, and a validation failure does not change the parse
// outcome.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fieldlens/fieldlens/core/model"
)

// Fields validates value against the declared schema fields. Every field
// must be present; null is an acceptable value for any field because the
// prompt contract requires unresolved fields to be emitted as null. A nil
// error means the value conforms.
func Fields(value any, fields []model.SchemaField) error {
	schema, err := compileFieldSchema(fields)
	if err != nil {
		return err
	}

	if err := schema.Validate(value); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return fmt.Errorf("result does not match declared fields: %w", validationErr)
		}
		return fmt.Errorf("result does not match declared fields: %w", err)
	}
	return nil
}

// compileFieldSchema builds and compiles a draft 2020-12 schema from the
// declared fields. Types are widened with "null" so explicit nulls pass.
func compileFieldSchema(fields []model.SchemaField) (*jsonschema.Schema, error) {
	properties := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, field := range fields {
		fieldType := model.NormalizeFieldType(string(field.Type))
		properties[field.Name] = map[string]any{
			"type": []string{string(fieldType), "null"},
		}
		required = append(required, field.Name)
	}

	document := map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}

	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to encode field schema: %w", err)
	}

	schema, err := jsonschema.CompileString("fields.json", string(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to compile field schema: %w", err)
	}
	return schema, nil
}
