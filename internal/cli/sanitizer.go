package cli

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize caps one command-line input value in bytes.
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// InputSanitizer cleans workflow input values typed on the command line
// before they reach node prompts, the run store and the terminal report.
type InputSanitizer struct {
	// MaxSize is the byte limit of a value; zero means DefaultMaxInputSize.
	MaxSize int
}

// Clean rejects oversized or malformed values and drops terminal control
// characters. Newlines, tabs and carriage returns are kept.
func (s InputSanitizer) Clean(value string) (string, error) {
	limit := s.MaxSize
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	if len(value) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(value), limit)
	}
	if !utf8.ValidString(value) {
		return "", ErrInvalidUTF8
	}
	return strings.Map(keepRune, value), nil
}

func keepRune(r rune) rune {
	switch {
	case r == '\n', r == '\t', r == '\r':
		return r
	case unicode.IsControl(r):
		return -1
	}
	return r
}
