// Package schema provides runtime shape descriptors and a structural validator.
//
// Node inputs and outputs are not known when a workflow is authored, so they
// are described at run time by a Shape (ordered field name -> Type) and carried
// as a Record (a map-backed value bound to its Shape).
//
// Building a shape from a config type map:
//
//	shape, err := schema.NewParser().ShapeFromTypeMap("summarizer", map[string]string{
//	    "summary": "string",
//	    "score":   "number",
//	})
//
//	rec, err := shape.Coerce(map[string]any{"summary": "ok", "score": 0.9})
//	if err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // each *ValidationError names the offending field
//	    }
//	}
//
// Shapes nest: a composite shape can use other shapes as field types, and
// Coerce converts nested mappings into Records. Record.Dump goes the other way.
//
// Unrecognized type tokens are passed through as Opaque types by default;
// NewParser(WithStrict(true)) rejects them with ErrUnknownType.
package schema
