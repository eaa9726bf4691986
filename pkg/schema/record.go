package schema

import (
	"encoding/json"
	"reflect"
)

// Dumper is implemented by values that can expose themselves as a plain mapping.
type Dumper interface {
	Dump() map[string]any
}

// Record is a structural value validated against a Shape.
// Records are obtained through Shape.Coerce and are immutable.
type Record struct {
	shape  *Shape
	values map[string]any
}

// Shape returns the shape the record was validated against.
func (r Record) Shape() *Shape { return r.shape }

// IsZero reports whether the record was never validated.
func (r Record) IsZero() bool { return r.shape == nil }

// Get returns the value of a field.
func (r Record) Get(field string) (any, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Keys returns the field names in shape order.
func (r Record) Keys() []string {
	if r.shape == nil {
		return nil
	}
	return r.shape.FieldNames()
}

// Dump returns the record as a plain mapping.
// Nested Records are dumped recursively.
func (r Record) Dump() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = dumpValue(v)
	}
	return out
}

// Equal reports whether both records carry equal field values.
func (r Record) Equal(other Record) bool {
	return reflect.DeepEqual(r.Dump(), other.Dump())
}

// MarshalJSON serializes the dumped field values.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Dump())
}

func dumpValue(v any) any {
	switch tv := v.(type) {
	case Record:
		return tv.Dump()
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = dumpValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = dumpValue(e)
		}
		return out
	default:
		return v
	}
}
