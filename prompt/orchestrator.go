/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prompt

import "fmt"

// RosterEntry describes one sub-agent for the orchestrator's roster.
type RosterEntry struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

var orchestratorTemplate = MustNew(`You are the project manager for this workspace. You coordinate work on behalf of the user: break their request into concrete tasks, do what you can with your own tools, and delegate specialized work to your team.

Your team:

{{agents}}

Each team member is available as a delegate_to_<id> tool. Delegate by sending a focused task description; include any context the agent needs, since it cannot see this conversation.

Working agreements:
- Consult your persistent memory (read_context_note, list_context_notes) before starting significant work, and record decisions and findings (write_context_note) so future sessions can pick up where you left off.
- Log meaningful progress with log_progress as you complete tasks.
- Prefer doing file work directly with your file tools; delegate when a task matches a team member's specialty.
- When a tool reports a failure, explain what happened and adjust; do not silently retry the same call.

Respond to the user in clear, plain language. Summarize what was done and what remains.`)

// Worker renders the fallback prompt for a worker agent with no custom
// system prompt. The agent's description doubles as its instructions.
func Worker(name, description string) string {
	base := fmt.Sprintf("You are %s, a focused agent working inside a project workspace. Complete the task you are given using your tools, then report the outcome in plain language.", name)
	if description != "" {
		return base + "\n\nYour specialty: " + description
	}
	return base
}

// Orchestrator renders the built-in orchestration prompt with the given
// sub-agent roster. Used when an orchestrator has no custom system prompt.
func Orchestrator(roster []RosterEntry) (string, error) {
	if len(roster) == 0 {
		roster = []RosterEntry{}
	}
	p, err := orchestratorTemplate.BindYAML("agents", roster)
	if err != nil {
		return "", fmt.Errorf("binding agent roster: %w", err)
	}
	return p.Build()
}
