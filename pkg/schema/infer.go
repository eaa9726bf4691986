package schema

import (
	"fmt"
	"reflect"
)

// Infer returns the type matching the literal runtime kind of value.
func Infer(value any) Type {
	switch v := value.(type) {
	case nil:
		return Any()
	case Record:
		if v.shape == nil {
			return Object()
		}
		return v.shape
	case string:
		return String()
	case bool:
		return Bool()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Int()
	case float32, float64:
		return Float()
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		return List(Any())
	case reflect.Map:
		return Object()
	default:
		return Opaque(fmt.Sprintf("%T", value))
	}
}

// InferShape builds a shape whose fields follow the runtime kinds of data.
// keys fixes the field order.
func InferShape(name string, keys []string, data map[string]any) *Shape {
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Name: k, Type: Infer(data[k])})
	}
	return NewShape(name, fields...)
}
