package schema

import (
	"testing"
)

func TestValidate_Success(t *testing.T) {
	schema := Schema{
		"vector_index_id": String(),
		"top_k":           Int(),
		"score_threshold": Float(),
		"rerank":          Bool(),
		"tags":            List(String()),
	}

	data := map[string]any{
		"vector_index_id": "VI1",
		"top_k":           5,
		"score_threshold": 0.7,
		"rerank":          true,
		"tags":            []string{"docs", "faq"},
	}

	if err := Validate(schema, data); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MissingField(t *testing.T) {
	schema := Schema{
		"vector_index_id": String(),
		"top_k":           Int(),
	}

	err := Validate(schema, map[string]any{"vector_index_id": "VI1"})
	if err == nil {
		t.Fatal("Validate() should return error for missing field")
	}

	aggr, ok := err.(*AggregateError)
	if !ok {
		t.Fatalf("error should be *AggregateError, got %T", err)
	}
	if len(aggr.Errors) != 1 {
		t.Fatalf("Validate() = %d errors, want 1", len(aggr.Errors))
	}

	validErr, ok := aggr.Errors[0].(*ValidationError)
	if !ok {
		t.Fatalf("error should be *ValidationError, got %T", aggr.Errors[0])
	}
	if validErr.Key != "top_k" || validErr.Reason != "required" {
		t.Errorf("error = %+v, want required top_k", validErr)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	schema := Schema{
		"vector_index_id": String(),
		"top_k":           Int(),
		"score_threshold": Float(),
	}

	data := map[string]any{
		"top_k":           "five",
		"score_threshold": "high",
	}

	err := Validate(schema, data)
	if err == nil {
		t.Fatal("Validate() should return error")
	}

	errs := ValidationErrors(err)
	if len(errs) != 3 {
		t.Fatalf("Validate() = %d errors, want 3", len(errs))
	}
	// Fields are reported in name order.
	want := []string{"score_threshold", "top_k", "vector_index_id"}
	for i, e := range errs {
		if e.(*ValidationError).Key != want[i] {
			t.Errorf("error %d key = %q, want %q", i, e.(*ValidationError).Key, want[i])
		}
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	if err := Validate(Schema{}, map[string]any{"x": 1}); err != nil {
		t.Errorf("Validate() with empty schema should return nil, got %v", err)
	}
	var nilSchema Schema
	if err := Validate(nilSchema, map[string]any{"x": 1}); err != nil {
		t.Errorf("Validate() with nil schema should return nil, got %v", err)
	}
}

func TestValidateFields(t *testing.T) {
	schema := Schema{
		"vector_index_id": String(),
		"top_k":           Int(),
	}

	data := map[string]any{
		"vector_index_id": "VI1",
		"top_k":           "invalid", // not validated below
	}

	if err := ValidateFields(schema, data, "vector_index_id"); err != nil {
		t.Errorf("ValidateFields(vector_index_id) error = %v, want nil", err)
	}

	err := ValidateFields(schema, data, "vector_index_id", "unknown")
	if err == nil {
		t.Fatal("ValidateFields() should return error for undefined field")
	}
	errs := ValidationErrors(err)
	if len(errs) != 1 {
		t.Fatalf("ValidateFields() = %d errors, want 1", len(errs))
	}
	if ve := errs[0].(*ValidationError); ve.Key != "unknown" || ve.Reason != "not defined in schema" {
		t.Errorf("unexpected error %+v", ve)
	}

	if err := ValidateFields(schema, data); err != nil {
		t.Errorf("ValidateFields() with no fields = %v, want nil", err)
	}
}
