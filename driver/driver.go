/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package driver runs agent conversations against a model provider. It
// owns the conversation loop: it streams model turns, dispatches tool
// calls through the provider-independent tool set, feeds results back, and
// stops when the model produces a final text answer or the step budget
// runs out.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/foreman/agentconfig"
	"chainguard.dev/foreman/agenttrace"
	"chainguard.dev/foreman/delegate"
	"chainguard.dev/foreman/driver/retry"
	"chainguard.dev/foreman/metrics"
	"chainguard.dev/foreman/prompt"
	"chainguard.dev/foreman/registry"
	"chainguard.dev/foreman/toolcall"
	"chainguard.dev/foreman/toolcall/params"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go/v2"
)

// DefaultMaxSteps bounds the number of model turns per conversation.
const DefaultMaxSteps = 16

// defaultMaxTokens is used when the agent configuration leaves it unset.
const defaultMaxTokens = 8192

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of prior conversation handed to the model.
type Message struct {
	Role    Role
	Content string
}

// Request describes one agent conversation to run.
type Request struct {
	// Agent is the configuration to execute.
	Agent agentconfig.Config

	// Messages is the conversation so far, ending with the user turn the
	// agent should respond to.
	Messages []Message

	// SubAgents are exposed as delegation tools when Agent is an
	// orchestrator. Ignored for workers.
	SubAgents []agentconfig.Config
}

// Usage accumulates token counts across every model turn of a run.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Result is the outcome of a completed conversation.
type Result struct {
	// Text is the model's final answer, or the last text produced before
	// truncation.
	Text string

	// Steps counts model turns taken.
	Steps int

	// Truncated reports that the step budget ran out before the model
	// produced a final answer.
	Truncated bool

	Usage Usage
}

// Driver executes agent conversations. One Driver serves any number of
// agents concurrently; per-conversation state lives on the stack.
type Driver struct {
	reg *registry.Registry

	anthropicClient *anthropic.Client
	openaiClient    *openai.Client

	maxSteps    int
	retryConfig retry.Config
	genai       *metrics.GenAI
}

// New creates a Driver over the given tool registry. Provider clients are
// configured through options; running an agent on an unconfigured provider
// is a setup error reported before any model call.
func New(reg *registry.Registry, opts ...Option) (*Driver, error) {
	if reg == nil {
		return nil, errors.New("registry cannot be nil")
	}

	d := &Driver{
		reg:         reg,
		maxSteps:    DefaultMaxSteps,
		retryConfig: retry.Default(),
		genai:       metrics.NewGenAI("chainguard.ai.foreman"),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return d, nil
}

// Execute runs the conversation to completion and returns the final result.
func (d *Driver) Execute(ctx context.Context, req Request) (Result, error) {
	return d.Stream(ctx, req, nil)
}

// Stream runs the conversation, delivering events to handler as they
// happen. A nil handler is equivalent to Execute.
func (d *Driver) Stream(ctx context.Context, req Request, handler Handler) (result Result, err error) {
	log := clog.FromContext(ctx)

	if err := req.Agent.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid agent configuration: %w", err)
	}
	if len(req.Messages) == 0 {
		return Result{}, errors.New("request has no messages")
	}

	system, err := d.systemPrompt(req)
	if err != nil {
		return Result{}, err
	}
	tools, err := d.buildToolSet(req)
	if err != nil {
		return Result{}, err
	}

	trace := agenttrace.StartTrace(ctx, req.Messages[len(req.Messages)-1].Content)
	defer func() {
		trace.Complete(result.Text, err)
	}()

	log.With("agent", req.Agent.ID).
		With("provider", req.Agent.Provider).
		With("model", req.Agent.Model).
		With("tools", len(tools)).
		Info("Starting agent execution")

	switch req.Agent.Provider {
	case agentconfig.ProviderAnthropic:
		if d.anthropicClient == nil {
			return Result{}, errors.New("anthropic provider is not configured: missing API key")
		}
		return d.runAnthropic(ctx, req, system, tools, trace, handler)
	case agentconfig.ProviderOpenAI:
		if d.openaiClient == nil {
			return Result{}, errors.New("openai provider is not configured: missing API key")
		}
		return d.runOpenAI(ctx, req, system, tools, trace, handler)
	default:
		return Result{}, fmt.Errorf("unknown provider %q", req.Agent.Provider)
	}
}

// Runner adapts the driver into the delegation callback, so orchestrators
// can run their sub-agents through the same machinery.
func (d *Driver) Runner() delegate.Runner {
	return func(ctx context.Context, cfg agentconfig.Config, task, taskContext string) (string, error) {
		content := task
		if taskContext != "" {
			content = task + "\n\nContext:\n" + taskContext
		}
		res, err := d.Execute(ctx, Request{
			Agent:    cfg,
			Messages: []Message{{Role: RoleUser, Content: content}},
		})
		if err != nil {
			return "", err
		}
		return res.Text, nil
	}
}

// systemPrompt resolves the instruction text for this run. Orchestrators
// always run on the built-in orchestration prompt with their sub-agent
// roster bound in, regardless of any stored prompt. Workers use their
// custom prompt when set, and a minimal default otherwise.
func (d *Driver) systemPrompt(req Request) (string, error) {
	if req.Agent.Role == agentconfig.RoleOrchestrator {
		roster := make([]prompt.RosterEntry, 0, len(req.SubAgents))
		for _, sub := range req.SubAgents {
			roster = append(roster, prompt.RosterEntry{
				ID:          sub.ID,
				Name:        sub.Name,
				Description: sub.Description,
			})
		}
		return prompt.Orchestrator(roster)
	}
	if strings.TrimSpace(req.Agent.SystemPrompt) != "" {
		return req.Agent.SystemPrompt, nil
	}
	return prompt.Worker(req.Agent.Name, req.Agent.Description), nil
}

// buildToolSet assembles the callable tools for this run: the agent's
// selected registry tools, plus synthesized delegation tools when an
// orchestrator has sub-agents.
func (d *Driver) buildToolSet(req Request) (map[string]toolcall.Tool, error) {
	var extra map[string]toolcall.Tool
	if req.Agent.Role == agentconfig.RoleOrchestrator && len(req.SubAgents) > 0 {
		var err error
		extra, err = delegate.WrapAll(req.SubAgents, d.Runner())
		if err != nil {
			return nil, err
		}
	}
	return d.reg.BuildToolSet(req.Agent.SelectedTools, extra), nil
}

// dispatchToolCall routes one parsed tool call to its handler. Unknown
// tools become failure results rather than errors, so the model can
// correct course.
func (d *Driver) dispatchToolCall(ctx context.Context, call toolcall.ToolCall, tools map[string]toolcall.Tool, trace *agenttrace.Trace, handler Handler, model string) map[string]any {
	log := clog.FromContext(ctx)

	emit(handler, Event{Type: EventToolCallStarted, ToolID: call.ID, ToolName: call.Name})
	d.genai.RecordToolCall(ctx, model, call.Name)

	var result map[string]any
	if tool, ok := tools[call.Name]; ok {
		log.With("tool", call.Name).With("id", call.ID).Info("Executing tool call")
		result = tool.Handler(ctx, call, trace)
	} else {
		log.With("tool", call.Name).Error("Unknown tool requested")
		trace.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("unknown tool: %q", call.Name))
		result = params.Error("unknown tool: %q", call.Name)
	}

	emit(handler, Event{Type: EventToolCallFinished, ToolID: call.ID, ToolName: call.Name, Result: result})
	return result
}

func (d *Driver) maxTokensFor(agent agentconfig.Config) int64 {
	if agent.MaxTokens > 0 {
		return agent.MaxTokens
	}
	return defaultMaxTokens
}
