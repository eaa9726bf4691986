package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseInputs merges a JSON object file (optional) with key=value pairs.
// Pair values go through the sanitizer; those that parse as scalars keep
// their type, the rest are strings.
func (s InputSanitizer) ParseInputs(file string, pairs []string) (map[string]any, error) {
	inputs := make(map[string]any)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read inputs: %w", err)
		}
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, fmt.Errorf("failed to parse inputs %s: %w", file, err)
		}
	}

	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q, expected key=value", p)
		}
		value, err := s.Clean(value)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", key, err)
		}
		inputs[key] = scalar(value)
	}
	return inputs, nil
}

func scalar(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
