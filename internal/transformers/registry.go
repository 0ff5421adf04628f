package transformers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.TransformerRegistry = (*Registry)(nil)

// Registry dispatches files to transformers by pipeline and extension.
// Selection priority: pipeline-specific > generic format handler.
type Registry struct {
	mu           sync.RWMutex
	transformers []driven.Transformer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a transformer to the registry.
func (r *Registry) Register(t driven.Transformer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transformers = append(r.transformers, t)
}

// Resolve returns the best matching transformer for the file within the
// given pipeline.
func (r *Registry) Resolve(pipeline string, file domain.RemoteFile) (driven.Transformer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext := file.Ext()
	var best driven.Transformer
	for _, t := range r.transformers {
		if !matchesExtension(t, ext) || !matchesPipeline(t, pipeline) {
			continue
		}
		if best == nil || t.Priority() > best.Priority() {
			best = t
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s in pipeline %s", domain.ErrUnsupportedFormat, file.Name, pipeline)
	}
	return best, nil
}

// SupportedExtensions returns all extensions that can be transformed,
// sorted and deduplicated.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, t := range r.transformers {
		for _, ext := range t.Extensions() {
			seen[ext] = true
		}
	}
	out := make([]string, 0, len(seen))
	for ext := range seen {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func matchesExtension(t driven.Transformer, ext string) bool {
	for _, e := range t.Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}

func matchesPipeline(t driven.Transformer, pipeline string) bool {
	pipelines := t.Pipelines()
	if len(pipelines) == 0 {
		return true
	}
	for _, p := range pipelines {
		if p == pipeline {
			return true
		}
	}
	return false
}
