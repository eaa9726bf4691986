package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "integer").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "integer" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected integer, got float (not a whole number)")
	case json.Number:
		if _, err := v.Int64(); err != nil {
			return fmt.Errorf("expected integer, got %q", v.String())
		}
		return nil
	default:
		return fmt.Errorf("expected integer, got %T", value)
	}
}

// FloatType validates floating-point values.
type FloatType struct{}

func (t *FloatType) Name() string { return "number" }

func (t *FloatType) Validate(value any) error {
	switch v := value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return fmt.Errorf("expected number, got %q", v.String())
		}
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "boolean" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected boolean, got %T", value)
	}
	return nil
}

// ListType validates slices of a specific element type.
type ListType struct {
	elemType Type
}

func (t *ListType) Name() string {
	if _, ok := t.elemType.(*AnyType); ok {
		return "list"
	}
	return fmt.Sprintf("array[%s]", t.elemType.Name())
}

// Elem returns the element type.
func (t *ListType) Elem() Type { return t.elemType }

func (t *ListType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return fmt.Errorf("expected list, got %T", value)
	}

	// Validate each element
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// ObjectType validates string-keyed mappings (including Records).
type ObjectType struct{}

func (t *ObjectType) Name() string { return "object" }

func (t *ObjectType) Validate(value any) error {
	if _, ok := value.(Record); ok {
		return nil
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("expected object, got %T", value)
	}
	return nil
}

// AnyType accepts every value, including nil.
type AnyType struct{}

func (t *AnyType) Name() string { return "any" }

func (t *AnyType) Validate(any) error { return nil }

// OptionalType accepts nil or a value of the wrapped type.
type OptionalType struct {
	inner Type
}

func (t *OptionalType) Name() string { return "optional[" + t.inner.Name() + "]" }

// Inner returns the wrapped type.
func (t *OptionalType) Inner() Type { return t.inner }

func (t *OptionalType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.inner.Validate(value)
}

// OpaqueType stands for a type token the parser did not recognize.
// The token is kept verbatim and any value is accepted.
type OpaqueType struct {
	token string
}

func (t *OpaqueType) Name() string { return t.token }

func (t *OpaqueType) Validate(any) error { return nil }

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a number type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// List creates a list type validator for elements of the given type.
func List(elemType Type) Type {
	if elemType == nil {
		elemType = Any()
	}
	return &ListType{elemType: elemType}
}

// Object creates a mapping type validator.
func Object() Type { return &ObjectType{} }

// Any creates a type that accepts every value.
func Any() Type { return &AnyType{} }

// Optional wraps a type so that nil is accepted as well.
func Optional(inner Type) Type { return &OptionalType{inner: inner} }

// Opaque creates a pass-through type that keeps the given token as its name.
func Opaque(token string) Type { return &OpaqueType{token: token} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}
