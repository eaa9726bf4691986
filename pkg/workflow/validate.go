package workflow

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidWorkflow is wrapped by every definition problem.
	ErrInvalidWorkflow = errors.New("invalid workflow")
	// ErrCycle is returned when the links form a cycle.
	ErrCycle = errors.New("workflow contains a cycle")
)

// TypeChecker reports whether a node type is known.
type TypeChecker interface {
	Has(typeName string) bool
}

// Validate checks a definition: unique non-empty node ids, known node types,
// links between existing nodes, no self links and no cycles.
// All problems are reported together.
func Validate(def *Definition, types TypeChecker) error {
	var errs []error
	problem := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidWorkflow, fmt.Sprintf(format, args...)))
	}

	if len(def.Nodes) == 0 {
		problem("no nodes")
	}

	seen := make(map[string]bool, len(def.Nodes))
	for i, n := range def.Nodes {
		switch {
		case n.ID == "":
			problem("node %d has no id", i)
		case seen[n.ID]:
			problem("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true

		if types != nil && !types.Has(n.Type) {
			problem("node %q has unknown type %q", n.ID, n.Type)
		}
	}

	for _, l := range def.Links {
		if !seen[l.Source] {
			problem("link source %q is not a node", l.Source)
		}
		if !seen[l.Target] {
			problem("link target %q is not a node", l.Target)
		}
		if l.Source == l.Target {
			problem("node %q links to itself", l.Source)
		}
	}

	if len(errs) == 0 {
		if _, err := def.Layers(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidWorkflow, err))
		}
	}
	return errors.Join(errs...)
}

// Layers groups node ids into execution layers (Kahn's algorithm).
// Every node's predecessors are in earlier layers. Ids are sorted within a layer.
func (d *Definition) Layers() ([][]string, error) {
	indegree := make(map[string]int, len(d.Nodes))
	succ := make(map[string][]string, len(d.Nodes))
	for _, n := range d.Nodes {
		indegree[n.ID] = 0
	}

	seenLink := make(map[Link]bool, len(d.Links))
	for _, l := range d.Links {
		if seenLink[l] {
			continue
		}
		seenLink[l] = true
		succ[l.Source] = append(succ[l.Source], l.Target)
		indegree[l.Target]++
	}

	var current []string
	for id, deg := range indegree {
		if deg == 0 {
			current = append(current, id)
		}
	}

	var layers [][]string
	visited := 0
	for len(current) > 0 {
		sort.Strings(current)
		layers = append(layers, current)
		visited += len(current)

		var next []string
		for _, id := range current {
			for _, t := range succ[id] {
				indegree[t]--
				if indegree[t] == 0 {
					next = append(next, t)
				}
			}
		}
		current = next
	}

	if visited != len(indegree) {
		return nil, ErrCycle
	}
	return layers, nil
}
