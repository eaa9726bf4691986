package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Field is a named, typed member of a Shape.
type Field struct {
	Name string
	Type Type
}

// Shape is a structural record type built at runtime.
// Every field is required. Field order is the order given at construction.
//
// A Shape is itself a Type, so shapes can be nested as field types
// (e.g. a composite input shape whose fields are predecessor output shapes).
type Shape struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewShape creates a shape with the given fields.
// A later field with the same name replaces the earlier one in place.
func NewShape(name string, fields ...Field) *Shape {
	s := &Shape{
		name:  name,
		index: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Type == nil {
			f.Type = Any()
		}
		if i, ok := s.index[f.Name]; ok {
			s.fields[i] = f
			continue
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}

// Name returns the shape name.
func (s *Shape) Name() string { return s.name }

// Len returns the number of fields.
func (s *Shape) Len() int { return len(s.fields) }

// Fields returns a copy of the fields in declaration order.
func (s *Shape) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// FieldNames returns the field names in declaration order.
func (s *Shape) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field type by name.
func (s *Shape) Field(name string) (Type, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.fields[i].Type, true
}

// TypeMap returns the field name -> type name mapping.
func (s *Shape) TypeMap() map[string]string {
	out := make(map[string]string, len(s.fields))
	for _, f := range s.fields {
		out[f.Name] = f.Type.Name()
	}
	return out
}

// Validate checks that value is a Record or mapping matching the shape.
func (s *Shape) Validate(value any) error {
	_, err := s.Coerce(value)
	return err
}

// Coerce validates value against the shape and returns it as a Record.
// Nested shape-typed fields (also inside lists) become Records.
// Keys that are not part of the shape are dropped.
func (s *Shape) Coerce(value any) (Record, error) {
	data, err := asMap(value)
	if err != nil {
		return Record{}, &AggregateError{Errors: []error{
			&ValidationError{Key: s.name, Reason: err.Error(), Value: value},
		}}
	}

	var errs []error
	values := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		v, exists := data[f.Name]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    f.Name,
				Reason: "required",
				Value:  nil,
			})
			continue
		}

		cv, err := coerceValue(f.Type, v)
		if err != nil {
			errs = append(errs, fieldErrors(f.Name, v, err)...)
			continue
		}
		values[f.Name] = cv
	}

	if len(errs) > 0 {
		return Record{}, &AggregateError{Errors: errs}
	}
	return Record{shape: s, values: values}, nil
}

// MarshalJSON serializes the shape as its name and field type names.
func (s *Shape) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string            `json:"name"`
		Fields map[string]string `json:"fields"`
	}{
		Name:   s.name,
		Fields: s.TypeMap(),
	})
}

// coerceValue validates v against t, converting nested shapes into Records.
func coerceValue(t Type, v any) (any, error) {
	switch tt := t.(type) {
	case *Shape:
		return tt.Coerce(v)
	case *OptionalType:
		if v == nil {
			return nil, nil
		}
		return coerceValue(tt.inner, v)
	case *ObjectType:
		if err := tt.Validate(v); err != nil {
			return nil, err
		}
		if r, ok := v.(Record); ok {
			return r.Dump(), nil
		}
		return v, nil
	case *ListType:
		if !containsShape(tt.elemType) {
			return v, tt.Validate(v)
		}
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return nil, fmt.Errorf("expected list, got %T", v)
		}
		out := make([]any, rv.Len())
		var errs []error
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			ce, err := coerceValue(tt.elemType, elem)
			if err != nil {
				errs = append(errs, fieldErrors(fmt.Sprintf("[%d]", i), elem, err)...)
				continue
			}
			out[i] = ce
		}
		if len(errs) > 0 {
			return nil, &AggregateError{Errors: errs}
		}
		return out, nil
	default:
		if err := t.Validate(v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func containsShape(t Type) bool {
	switch tt := t.(type) {
	case *Shape:
		return true
	case *ListType:
		return containsShape(tt.elemType)
	case *OptionalType:
		return containsShape(tt.inner)
	default:
		return false
	}
}

// fieldErrors prefixes nested validation errors with the parent key.
func fieldErrors(key string, value any, err error) []error {
	nested := ValidationErrors(err)
	if nested == nil {
		return []error{&ValidationError{Key: key, Reason: err.Error(), Value: value}}
	}
	out := make([]error, 0, len(nested))
	for _, e := range nested {
		ve, ok := e.(*ValidationError)
		if !ok {
			out = append(out, &ValidationError{Key: key, Reason: e.Error(), Value: value})
			continue
		}
		out = append(out, &ValidationError{
			Key:    joinKey(key, ve.Key),
			Reason: ve.Reason,
			Value:  ve.Value,
		})
	}
	return out
}

func joinKey(parent, child string) string {
	if strings.HasPrefix(child, "[") {
		return parent + child
	}
	return parent + "." + child
}

// asMap converts Records, Dumpers and string-keyed maps into map[string]any.
func asMap(value any) (map[string]any, error) {
	switch v := value.(type) {
	case Record:
		if v.shape == nil {
			return nil, fmt.Errorf("expected record, got empty record")
		}
		return v.values, nil
	case map[string]any:
		return v, nil
	case Dumper:
		return v.Dump(), nil
	case nil:
		return nil, fmt.Errorf("expected object, got nil")
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("expected object, got %T", value)
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}
