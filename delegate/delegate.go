/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package delegate synthesizes agents-as-tools: every sub-agent visible to
// an orchestrator becomes one callable tool whose description is the
// sub-agent's own description. That description is the only mechanism by
// which the orchestrator knows what a sub-agent is for, so it is exposed
// verbatim.
package delegate

import (
	"context"
	"fmt"

	"chainguard.dev/foreman/agentconfig"
	"chainguard.dev/foreman/agenttrace"
	"chainguard.dev/foreman/schema"
	"chainguard.dev/foreman/toolcall"
	"chainguard.dev/foreman/toolcall/params"
	"github.com/chainguard-dev/clog"
)

// TaskInput is the wire input of every delegation tool.
type TaskInput struct {
	Task    string `json:"task" jsonschema:"description=The task for this agent to perform,required"`
	Context string `json:"context,omitempty" jsonschema:"description=Additional context that helps the agent do the task"`
}

// Runner executes a sub-agent to completion and returns its textual result.
// The driver supplies itself here; the indirection keeps this package free
// of any provider SDK.
type Runner func(ctx context.Context, cfg agentconfig.Config, task, taskContext string) (string, error)

// ToolID derives the delegation tool name for a sub-agent id.
func ToolID(agentID string) string {
	return "delegate_to_" + agentID
}

// Wrap produces the delegation tool for one sub-agent. Runner failures are
// converted to structured failure results so the orchestrator's loop keeps
// going and the model can react.
func Wrap(cfg agentconfig.Config, run Runner) (toolcall.Tool, error) {
	inputSchema, err := schema.MapForType[TaskInput]()
	if err != nil {
		return toolcall.Tool{}, fmt.Errorf("reflecting delegation input schema for %q: %w", cfg.ID, err)
	}

	id := ToolID(cfg.ID)
	return toolcall.Tool{
		Def: toolcall.Definition{
			Name:        id,
			Description: cfg.Description,
			InputSchema: inputSchema,
		},
		Handler: func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace) map[string]any {
			log := clog.FromContext(ctx)

			task, errResp := toolcall.Param[string](call, trace, "task")
			if errResp != nil {
				return errResp
			}
			taskContext, errResp := toolcall.OptionalParam[string](call, "context", "")
			if errResp != nil {
				return errResp
			}

			tc := trace.StartToolCall(call.ID, call.Name, map[string]any{"agent": cfg.ID, "task": task})

			subCtx := agenttrace.WithRunContext(ctx, agenttrace.RunContext{
				AgentID:   cfg.ID,
				AgentName: cfg.Name,
				Delegated: true,
			})
			result, err := run(subCtx, cfg, task, taskContext)
			if err != nil {
				log.With("agent", cfg.ID).With("error", err).Error("Delegated agent failed")
				resp := params.ErrorWithContext(err, map[string]any{"agentName": cfg.Name})
				tc.Complete(resp, err)
				return resp
			}

			resp := map[string]any{
				"success":   true,
				"result":    result,
				"agentName": cfg.Name,
			}
			tc.Complete(map[string]any{"success": true, "agentName": cfg.Name, "size": len(result)}, nil)
			return resp
		},
	}, nil
}

// WrapAll wraps every sub-agent, keyed by delegation tool id. The returned
// map merges directly into a registry-built tool set.
func WrapAll(subAgents []agentconfig.Config, run Runner) (map[string]toolcall.Tool, error) {
	tools := make(map[string]toolcall.Tool, len(subAgents))
	for _, cfg := range subAgents {
		tool, err := Wrap(cfg, run)
		if err != nil {
			return nil, err
		}
		tools[ToolID(cfg.ID)] = tool
	}
	return tools, nil
}
