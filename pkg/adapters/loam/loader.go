// Package loam loads workflow definitions from a directory of documents,
// one node per markdown, JSON or YAML file.
package loam

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/workflow"
)

// Loader builds a workflow.Definition from a Loam repository.
type Loader struct {
	Repo *loam.TypedRepository[NodeMetadata]
	// ID is the workflow id given to loaded definitions.
	ID string
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata], workflowID string) *Loader {
	return &Loader{
		Repo: repo,
		ID:   workflowID,
	}
}

// Open initializes a read-only repository on dir. The workflow id is the
// directory name.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// The loader never writes documents.
	repo, err := loam.Init(absPath,
		loam.WithVersioning(false),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[NodeMetadata](repo), filepath.Base(absPath)), nil
}

// Load reads every document and assembles the definition.
// Documents without a node_type are notes and are skipped.
func (l *Loader) Load(ctx context.Context) (*workflow.Definition, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	def := &workflow.Definition{ID: l.ID, Name: l.ID}
	seen := make(map[string]string)

	for _, doc := range docs {
		meta := doc.Data
		if meta.Type == "" {
			continue
		}

		// Use the ID from metadata if available, otherwise filename ID
		rawID := meta.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID

		cfg := domain.DefaultNodeConfig()
		if len(meta.OutputSchema) > 0 {
			cfg.OutputSchema = maps.Clone(meta.OutputSchema)
			cfg.OutputJSONSchema = ""
		}
		cfg.HasFixedOutput = meta.HasFixedOutput
		cfg.Params = maps.Clone(meta.Params)
		if meta.ContentKey != "" {
			// List only carries metadata; the body needs a full read.
			full, err := l.Repo.Get(ctx, doc.ID)
			if err != nil {
				return nil, fmt.Errorf("loam get failed for %s: %w", doc.ID, err)
			}
			if cfg.Params == nil {
				cfg.Params = make(map[string]any)
			}
			cfg.Params[meta.ContentKey] = strings.TrimSpace(full.Content)
		}

		def.Nodes = append(def.Nodes, workflow.NodeDef{
			ID:     id,
			Type:   meta.Type,
			Title:  meta.Title,
			Config: cfg,
		})
		for _, to := range meta.To {
			def.Links = append(def.Links, workflow.Link{Source: id, Target: trimExtension(to)})
		}
	}

	sort.Slice(def.Nodes, func(i, j int) bool { return def.Nodes[i].ID < def.Nodes[j].ID })
	sort.Slice(def.Links, func(i, j int) bool {
		if def.Links[i].Source != def.Links[j].Source {
			return def.Links[i].Source < def.Links[j].Source
		}
		return def.Links[i].Target < def.Links[j].Target
	})
	return def, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
