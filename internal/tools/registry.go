// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the tools a dispatcher can run.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds tools. A tool with the same name replaces the earlier one
// and a warning is logged.
func (r *Registry) Register(tools ...Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tools {
		if existing, ok := r.tools[t.Name]; ok {
			slog.Warn("tool conflict: overwriting existing tool",
				"tool", t.Name,
				"previous_category", existing.Category,
				"new_category", t.Category)
		}
		r.tools[t.Name] = t
	}
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// All returns every tool ordered by category then name.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// NewDefaultRegistry returns a registry holding the full operation surface.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(readTools()...)
	r.Register(writeTools()...)
	r.Register(compoundTools()...)
	return r
}
