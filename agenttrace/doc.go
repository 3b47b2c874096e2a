/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace provides tracing infrastructure for AI agent executions.

# Overview

This package contains the foundational types for tracking agent executions:

  - RunContext: per-execution metadata (agent id/name, delegation flag) for trace enrichment
  - Trace: complete agent execution from prompt to final answer
  - ToolCall: individual tool invocation within a trace
  - Tracer: interface for recording completed traces

# Usage

Set the run context for trace enrichment:

	ctx = agenttrace.WithRunContext(ctx, agenttrace.RunContext{
		AgentID:   "7f3c...",
		AgentName: "researcher",
		Delegated: true,
	})

Create and use traces:

	trace := agenttrace.StartTrace(ctx, "Summarize the open tasks")
	toolCall := trace.StartToolCall("tc1", "read_file", map[string]any{
		"path": "tasks.md",
	})
	toolCall.Complete(map[string]any{"success": true}, nil)
	trace.Complete("Two tasks remain open", nil)
*/
package agenttrace
