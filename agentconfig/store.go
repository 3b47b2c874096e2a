/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"chainguard.dev/foreman/workspace"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
)

// settingsPath is the reserved settings document at the project root. It is
// distinct from the .agent/ memory tree.
const settingsPath = ".foreman/agents.json"

// ErrAgentNotFound is returned when an id resolves to no stored agent.
var ErrAgentNotFound = errors.New("agent not found")

// Store persists agent configurations as a single JSON document in the
// project workspace. All mutations rewrite the whole document; a mutex
// serializes them.
type Store struct {
	ws workspace.Workspace

	mu sync.Mutex
}

// NewStore returns a Store over the given workspace.
func NewStore(ws workspace.Workspace) *Store {
	return &Store{ws: ws}
}

type settingsDoc struct {
	Agents []Config `json:"agents"`
}

func (s *Store) load(ctx context.Context) (*settingsDoc, error) {
	data, err := s.ws.ReadFile(ctx, settingsPath)
	if errors.Is(err, workspace.ErrNotFound) {
		return &settingsDoc{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", settingsPath, err)
	}
	var doc settingsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", settingsPath, err)
	}
	return &doc, nil
}

func (s *Store) save(ctx context.Context, doc *settingsDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding agent settings: %w", err)
	}
	if err := s.ws.WriteFile(ctx, settingsPath, append(data, '\n')); err != nil {
		return fmt.Errorf("writing %s: %w", settingsPath, err)
	}
	return nil
}

// List returns every stored agent configuration in stored order.
func (s *Store) List(ctx context.Context) ([]Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Agents, nil
}

// Get returns the agent with the given id.
func (s *Store) Get(ctx context.Context, id string) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return Config{}, err
	}
	for _, a := range doc.Agents {
		if a.ID == id {
			return a, nil
		}
	}
	return Config{}, fmt.Errorf("%q: %w", id, ErrAgentNotFound)
}

// Orchestrator returns the stored orchestrator configuration, if any.
func (s *Store) Orchestrator(ctx context.Context) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return Config{}, err
	}
	for _, a := range doc.Agents {
		if a.Role == RoleOrchestrator {
			return a, nil
		}
	}
	return Config{}, fmt.Errorf("orchestrator: %w", ErrAgentNotFound)
}

// Create validates and stores a new agent. A missing id is generated; a
// nil tool selection inherits the provided defaults.
func (s *Store) Create(ctx context.Context, cfg Config, defaultTools []string) (Config, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.SelectedTools == nil {
		cfg.SelectedTools = append([]string(nil), defaultTools...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return Config{}, err
	}
	for _, a := range doc.Agents {
		if a.ID == cfg.ID {
			return Config{}, fmt.Errorf("agent %q already exists", cfg.ID)
		}
	}
	doc.Agents = append(doc.Agents, cfg)
	if err := s.save(ctx, doc); err != nil {
		return Config{}, err
	}
	clog.FromContext(ctx).With("agent", cfg.ID).Info("Created agent")
	return cfg, nil
}

// Patch holds the updatable fields of an agent configuration. Nil fields
// are left unchanged.
type Patch struct {
	Name          *string   `json:"name,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Provider      *Provider `json:"provider,omitempty"`
	Model         *string   `json:"model,omitempty"`
	Temperature   *float64  `json:"temperature,omitempty"`
	MaxTokens     *int64    `json:"maxTokens,omitempty"`
	SystemPrompt  *string   `json:"systemPrompt,omitempty"`
	SelectedTools *[]string `json:"selectedTools,omitempty"`
}

// Update applies a partial update to a stored agent. The id and role are
// immutable.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return Config{}, err
	}
	for i, a := range doc.Agents {
		if a.ID != id {
			continue
		}
		if patch.Name != nil {
			a.Name = *patch.Name
		}
		if patch.Description != nil {
			a.Description = *patch.Description
		}
		if patch.Provider != nil {
			a.Provider = *patch.Provider
		}
		if patch.Model != nil {
			a.Model = *patch.Model
		}
		if patch.Temperature != nil {
			a.Temperature = *patch.Temperature
		}
		if patch.MaxTokens != nil {
			a.MaxTokens = *patch.MaxTokens
		}
		if patch.SystemPrompt != nil {
			a.SystemPrompt = *patch.SystemPrompt
		}
		if patch.SelectedTools != nil {
			a.SelectedTools = append([]string(nil), (*patch.SelectedTools)...)
		}
		if err := a.Validate(); err != nil {
			return Config{}, err
		}
		doc.Agents[i] = a
		if err := s.save(ctx, doc); err != nil {
			return Config{}, err
		}
		return a, nil
	}
	return Config{}, fmt.Errorf("%q: %w", id, ErrAgentNotFound)
}

// Delete removes a stored agent.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i, a := range doc.Agents {
		if a.ID != id {
			continue
		}
		doc.Agents = append(doc.Agents[:i], doc.Agents[i+1:]...)
		if err := s.save(ctx, doc); err != nil {
			return err
		}
		clog.FromContext(ctx).With("agent", id).Info("Deleted agent")
		return nil
	}
	return fmt.Errorf("%q: %w", id, ErrAgentNotFound)
}
