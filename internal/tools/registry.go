package tools

import (
	"github.com/4ug-aug/presentor/internal/assets"
	"github.com/4ug-aug/presentor/internal/deck"
)

// Registry exposes shared tool instances.
type Registry struct {
	Deck   *deck.Document
	Assets *assets.Store
}

// NewRegistry builds a registry from instantiated tools.
func NewRegistry(doc *deck.Document, store *assets.Store) *Registry {
	return &Registry{Deck: doc, Assets: store}
}

// Schema returns schema for a given tool name if present.
func (r *Registry) Schema(name string) (Schema, bool) {
	for _, s := range r.Schemas() {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}

// Sensitive reports whether a tool requires explicit user approval
// before it may run.
func (r *Registry) Sensitive(name string) bool {
	s, ok := r.Schema(name)
	return ok && s.Sensitive
}
