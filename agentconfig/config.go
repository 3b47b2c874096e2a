/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package agentconfig models agent configurations and persists them as a
// JSON document in the project workspace.
package agentconfig

import (
	"fmt"
	"strings"
)

// Role distinguishes the agent that talks to the user from the agents it
// delegates to. The role is fixed at construction time; nothing infers it
// from the agent's name or id.
type Role string

const (
	// RoleOrchestrator receives the user's direct messages and may
	// delegate to sub-agents.
	RoleOrchestrator Role = "orchestrator"

	// RoleWorker only ever runs on behalf of a delegation.
	RoleWorker Role = "worker"
)

// Provider selects which model SDK executes an agent.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Config describes one agent: its identity, which model runs it, and which
// tools it may call.
type Config struct {
	// ID is the stable identifier; delegation tool names derive from it.
	ID string `json:"id"`

	// Name is the human-facing display name.
	Name string `json:"name"`

	// Description tells an orchestrator what this agent is for. It is
	// exposed verbatim as the delegation tool's description.
	Description string `json:"description"`

	// Role tags the agent as orchestrator or worker.
	Role Role `json:"role"`

	Provider    Provider `json:"provider"`
	Model       string   `json:"model"`
	Temperature float64  `json:"temperature,omitempty"`
	MaxTokens   int64    `json:"maxTokens,omitempty"`

	// SystemPrompt is the agent's instruction text. Only workers honor it:
	// orchestrators always run on the built-in orchestration prompt, and a
	// stored value here is ignored for them.
	SystemPrompt string `json:"systemPrompt,omitempty"`

	// SelectedTools lists the registry ids this agent may call. Ids that
	// do not resolve at build time are skipped, not fatal.
	SelectedTools []string `json:"selectedTools"`
}

// Validate reports whether the configuration is complete enough to run.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("agent id must not be empty")
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("agent %q: name must not be empty", c.ID)
	}
	switch c.Role {
	case RoleOrchestrator, RoleWorker:
	default:
		return fmt.Errorf("agent %q: unknown role %q", c.ID, c.Role)
	}
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("agent %q: unknown provider %q", c.ID, c.Provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("agent %q: model must not be empty", c.ID)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("agent %q: temperature %v out of range [0, 2]", c.ID, c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("agent %q: maxTokens must not be negative", c.ID)
	}
	return nil
}
