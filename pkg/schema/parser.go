package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownType is returned by a strict Parser for unrecognized type tokens.
var ErrUnknownType = errors.New("unknown type token")

// Parser converts type tokens ("string", "integer", "array[Result]", ...) into Types.
//
// In permissive mode (the default) an unrecognized token is kept verbatim as an
// Opaque type that accepts any value. In strict mode it is rejected.
type Parser struct {
	strict bool
	named  map[string]*Shape
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithStrict makes the parser reject unrecognized tokens.
func WithStrict(strict bool) ParserOption {
	return func(p *Parser) {
		p.strict = strict
	}
}

// WithShapes registers named shapes that tokens can refer to.
func WithShapes(shapes ...*Shape) ParserOption {
	return func(p *Parser) {
		for _, s := range shapes {
			p.named[s.Name()] = s
		}
	}
}

// NewParser creates a parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{named: make(map[string]*Shape)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Strict reports whether the parser rejects unrecognized tokens.
func (p *Parser) Strict() bool { return p.strict }

// Parse converts a single type token to a Type.
func (p *Parser) Parse(token string) (Type, error) {
	token = strings.TrimSpace(token)

	// Handle list types: [string], array[int], list[Result]
	if elem, ok := listElem(token); ok {
		elemType, err := p.Parse(elem)
		if err != nil {
			return nil, err
		}
		return List(elemType), nil
	}

	switch token {
	case "string", "str":
		return String(), nil
	case "integer", "int":
		return Int(), nil
	case "number", "float":
		return Float(), nil
	case "boolean", "bool":
		return Bool(), nil
	case "list", "array":
		return List(Any()), nil
	case "dict", "object":
		return Object(), nil
	case "any":
		return Any(), nil
	}

	if s, ok := p.named[token]; ok {
		return s, nil
	}

	if p.strict || token == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, token)
	}
	return Opaque(token), nil
}

// ParseTypeMap converts a map of field names to type tokens into a Schema.
// Example: {"api_key": "string", "retries": "integer"}
func (p *Parser) ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for key, typeStr := range typeMap {
		t, err := p.Parse(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}

// ShapeFromTypeMap builds a shape from a field name -> type token mapping.
// Fields are ordered by name so the result is deterministic.
func (p *Parser) ShapeFromTypeMap(name string, typeMap map[string]string) (*Shape, error) {
	keys := make([]string, 0, len(typeMap))
	for k := range typeMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		t, err := p.Parse(typeMap[k])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		fields = append(fields, Field{Name: k, Type: t})
	}
	return NewShape(name, fields...), nil
}

func listElem(token string) (string, bool) {
	if len(token) > 2 && token[0] == '[' && token[len(token)-1] == ']' {
		return token[1 : len(token)-1], true
	}
	for _, prefix := range []string{"array[", "list["} {
		if strings.HasPrefix(token, prefix) && strings.HasSuffix(token, "]") {
			return token[len(prefix) : len(token)-1], true
		}
	}
	return "", false
}

var defaultParser = NewParser()

// ParseType converts a type token using the permissive default parser.
func ParseType(typeStr string) (Type, error) {
	return defaultParser.Parse(typeStr)
}

// ParseTypeMap converts a type map using the permissive default parser.
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	return defaultParser.ParseTypeMap(typeMap)
}
