/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package registry is the catalog of tools available to agents.
//
// The registry separates "what a tool is called" from "what it does": the
// UI renders tool-choice checkboxes purely from List, while the execution
// path resolves an agent's selected tool ids through BuildToolSet without
// any UI concerns. Entries are immutable after construction and shared
// read-only by all agents.
package registry

import (
	"fmt"
	"maps"
	"sort"

	"chainguard.dev/foreman/toolcall"
)

// Category classifies a tool by the capability it exercises.
type Category string

const (
	// CategoryFile is for tools operating on workspace files.
	CategoryFile Category = "file"
	// CategoryContext is for tools operating on the persistent context store.
	CategoryContext Category = "context"
	// CategoryDelegation is for synthesized sub-agent delegation tools.
	CategoryDelegation Category = "delegation"
	// CategoryCustom is for application-supplied tools.
	CategoryCustom Category = "custom"
)

// Entry describes one catalog entry. The entry id is the wire-facing tool
// name; DisplayName is what the UI shows.
type Entry struct {
	ID             string
	DisplayName    string
	Category       Category
	DefaultEnabled bool
	Tool           toolcall.Tool
}

// Registry is an immutable tool catalog.
type Registry struct {
	entries map[string]Entry
	order   []string
}

// New constructs a registry from the given entries. Entry ids must be
// unique and must match their tool definition names.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]Entry, len(entries)),
		order:   make([]string, 0, len(entries)),
	}
	for _, entry := range entries {
		if entry.ID == "" {
			return nil, fmt.Errorf("registry entry with empty id (display name %q)", entry.DisplayName)
		}
		if entry.Tool.Def.Name != entry.ID {
			return nil, fmt.Errorf("registry entry %q: tool definition name %q does not match", entry.ID, entry.Tool.Def.Name)
		}
		if _, exists := r.entries[entry.ID]; exists {
			return nil, fmt.Errorf("duplicate registry entry %q", entry.ID)
		}
		r.entries[entry.ID] = entry
		r.order = append(r.order, entry.ID)
	}
	return r, nil
}

// List returns all entries in registration order.
func (r *Registry) List() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// Get returns the entry with the given id.
func (r *Registry) Get(id string) (Entry, bool) {
	entry, ok := r.entries[id]
	return entry, ok
}

// DefaultToolIDs returns the ids of all default-enabled entries, sorted.
func (r *Registry) DefaultToolIDs() []string {
	var ids []string
	for id, entry := range r.entries {
		if entry.DefaultEnabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// BuildToolSet resolves the selected ids against the registry into a
// concrete callable tool set. Unknown ids are silently skipped: an agent
// configured for a tool that was later removed from the catalog degrades
// gracefully instead of failing. The extra tools (synthesized delegation
// tools) are merged in afterward and win on id collision.
func (r *Registry) BuildToolSet(selected []string, extra map[string]toolcall.Tool) map[string]toolcall.Tool {
	set := make(map[string]toolcall.Tool, len(selected)+len(extra))
	for _, id := range selected {
		if entry, ok := r.entries[id]; ok {
			set[id] = entry.Tool
		}
	}
	maps.Copy(set, extra)
	return set
}
