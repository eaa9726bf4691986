package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"vector_index_id": String(), "top_k": Int()}
type Schema map[string]Type

// Shape converts the schema into a shape with fields ordered by name.
func (s Schema) Shape(name string) *Shape {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Name: k, Type: s[k]})
	}
	return NewShape(name, fields...)
}

// Validate checks if data conforms to the schema.
// Returns an error with all validation failures found.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}
	_, err := schema.Shape("").Coerce(data)
	return err
}

// ValidateFields validates only specific fields from data against the schema.
// Missing fields are treated as an error.
func ValidateFields(schema Schema, data map[string]any, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	var errs []error
	subset := make(Schema, len(fields))
	for _, fieldName := range fields {
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "not defined in schema",
			})
			continue
		}
		subset[fieldName] = fieldType
	}

	if len(subset) > 0 {
		if err := Validate(subset, data); err != nil {
			errs = append(errs, ValidationErrors(err)...)
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
