package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
)

// Mask replaces values of keys matched by a PII pattern.
const Mask = "***"

type piiMiddleware struct {
	ports.RunStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks run and task values
// whose keys match the patterns, at any nesting depth, before they are persisted.
// The caller's records are never modified.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.RunStore) ports.RunStore {
		return &piiMiddleware{RunStore: next, patterns: patterns}
	}
}

func (m *piiMiddleware) SaveRun(ctx context.Context, run *domain.RunRecord) error {
	cloned := *run
	cloned.Inputs = m.mask(run.Inputs)
	cloned.Outputs = m.mask(run.Outputs)
	return m.RunStore.SaveRun(ctx, &cloned)
}

func (m *piiMiddleware) SaveTask(ctx context.Context, task *domain.TaskRecord) error {
	cloned := *task
	cloned.Inputs = m.mask(task.Inputs)
	cloned.Outputs = m.mask(task.Outputs)
	return m.RunStore.SaveTask(ctx, &cloned)
}

func (m *piiMiddleware) mask(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := deepCopyMap(in)
	maskMap(out, m.patterns)
	return out
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return deepCopyMap(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		// Check key against patterns
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if !masked {
			maskValue(v, patterns)
		}
	}
}

func maskValue(v any, patterns []*regexp.Regexp) {
	switch tv := v.(type) {
	case map[string]any:
		maskMap(tv, patterns)
	case []any:
		for _, e := range tv {
			maskValue(e, patterns)
		}
	}
}
