// Package params decodes and validates the node-specific tunables found in
// domain.NodeConfig.Params.
package params

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// ErrInvalidParams is returned when node params fail to decode or validate.
var ErrInvalidParams = errors.New("invalid node params")

var validate = validator.New()

// Decode fills out from params and validates it with its `validate` tags.
// Fields absent from params keep the value already in out, so callers set
// defaults before decoding.
func Decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}
