/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "chainguard.ai.foreman.agenttrace"

// ToolCall represents a single tool invocation within a trace.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Params    map[string]any `json:"params"`
	Result    any            `json:"result"`
	Error     error          `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`

	trace *Trace // parent trace for auto-adding on completion
	mu    sync.Mutex
	ctx   context.Context
	span  oteltrace.Span
}

// Trace represents a complete agent execution from prompt to final answer.
type Trace struct {
	ID          string         `json:"id"`
	InputPrompt string         `json:"input_prompt"`
	RunContext  RunContext     `json:"run_context,omitempty"`
	ToolCalls   []*ToolCall    `json:"tool_calls"`
	Result      string         `json:"result"`
	Error       error          `json:"error,omitempty"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	tracer Tracer // tracer for auto-recording
	mu     sync.Mutex
	ctx    context.Context
	span   oteltrace.Span
}

// StartTrace creates a trace for one agent execution, recorded with the
// default tracer on completion.
func StartTrace(ctx context.Context, prompt string) *Trace {
	return StartTraceWithTracer(ctx, NewDefaultTracer(ctx), prompt)
}

// StartTraceWithTracer creates a trace recorded with the supplied tracer.
func StartTraceWithTracer(ctx context.Context, tracer Tracer, prompt string) *Trace {
	runCtx := GetRunContext(ctx)

	tr := otel.Tracer(tracerName, oteltrace.WithInstrumentationVersion("1.0.0"))

	spanAttrs := []oteltrace.SpanStartOption{
		oteltrace.WithAttributes(attribute.String("agent.prompt", prompt)),
	}
	if runCtx.AgentID != "" {
		spanAttrs = append(spanAttrs, oteltrace.WithAttributes(attribute.String("agent.id", runCtx.AgentID)))
	}
	if runCtx.AgentName != "" {
		spanAttrs = append(spanAttrs, oteltrace.WithAttributes(attribute.String("agent.name", runCtx.AgentName)))
	}
	if runCtx.Delegated {
		spanAttrs = append(spanAttrs, oteltrace.WithAttributes(attribute.Bool("agent.delegated", true)))
	}

	ctx, span := tr.Start(ctx, "agent.execution", spanAttrs...)

	return &Trace{
		ID:          generateTraceID(),
		InputPrompt: prompt,
		RunContext:  runCtx,
		ToolCalls:   []*ToolCall{},
		StartTime:   time.Now(),
		Metadata:    make(map[string]any),
		tracer:      tracer,
		ctx:         ctx,
		span:        span,
	}
}

// StartToolCall starts a new tool call and returns it.
func (t *Trace) StartToolCall(id, name string, params map[string]any) *ToolCall {
	tr := otel.Tracer(tracerName, oteltrace.WithInstrumentationVersion("1.0.0"))
	ctx, span := tr.Start(t.ctx, "agent.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
	))

	return &ToolCall{
		ID:        id,
		Name:      name,
		Params:    params,
		StartTime: time.Now(),
		trace:     t,
		ctx:       ctx,
		span:      span,
	}
}

// BadToolCall records a tool call that failed due to bad arguments or an
// unknown tool.
func (t *Trace) BadToolCall(id, name string, params map[string]any, err error) {
	tr := otel.Tracer(tracerName, oteltrace.WithInstrumentationVersion("1.0.0"))
	_, span := tr.Start(t.ctx, "agent.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
		attribute.String("error", err.Error()),
	))
	span.SetStatus(codes.Error, err.Error())
	span.End()

	tc := &ToolCall{
		ID:        id,
		Name:      name,
		Params:    params,
		StartTime: time.Now(),
		EndTime:   time.Now(),
		Error:     err,
		trace:     t,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.ToolCalls = append(t.ToolCalls, tc)
}

// RecordTokenUsage records model and token usage as span attributes so token
// consumption is visible directly on the execution trace.
func (t *Trace) RecordTokenUsage(model string, inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.span != nil {
		t.span.SetAttributes(
			attribute.String("model", model),
			attribute.Int64("tokens.input", inputTokens),
			attribute.Int64("tokens.output", outputTokens),
			attribute.Int64("tokens.total", inputTokens+outputTokens),
		)
	}
}

// Complete marks the tool call as complete and adds it to the parent trace.
func (tc *ToolCall) Complete(result any, err error) {
	tc.mu.Lock()
	tc.Result = result
	tc.Error = err
	tc.EndTime = time.Now()
	trace := tc.trace
	span := tc.span
	tc.mu.Unlock()

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}

	trace.mu.Lock()
	defer trace.mu.Unlock()
	trace.ToolCalls = append(trace.ToolCalls, tc)
}

// Duration returns the duration of the tool call.
func (tc *ToolCall) Duration() time.Duration {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.EndTime.IsZero() {
		return time.Since(tc.StartTime)
	}
	return tc.EndTime.Sub(tc.StartTime)
}

// Complete marks the trace as complete with the final answer and
// automatically records it with the tracer.
func (t *Trace) Complete(result string, err error) {
	t.mu.Lock()
	t.Result = result
	t.Error = err
	t.EndTime = time.Now()
	tracer := t.tracer
	span := t.span
	t.mu.Unlock()

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}

	tracer.RecordTrace(t)
}

// Duration returns the total duration of the trace.
func (t *Trace) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// String returns a structured representation of the trace.
func (t *Trace) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder

	var duration time.Duration
	if t.EndTime.IsZero() {
		duration = time.Since(t.StartTime)
	} else {
		duration = t.EndTime.Sub(t.StartTime)
	}

	sb.WriteString(fmt.Sprintf("=== Trace %s ===\n", t.ID))
	sb.WriteString(fmt.Sprintf("Prompt: %q\n", truncate(t.InputPrompt, 200)))
	sb.WriteString(fmt.Sprintf("Duration: %v\n", duration))

	if len(t.ToolCalls) > 0 {
		sb.WriteString(fmt.Sprintf("\nTool Calls (%d):\n", len(t.ToolCalls)))
		for i, tc := range t.ToolCalls {
			sb.WriteString(fmt.Sprintf("  [%d] %s (ID: %s)\n", i+1, tc.Name, tc.ID))

			var tcDuration time.Duration
			if tc.EndTime.IsZero() {
				tcDuration = time.Since(tc.StartTime)
			} else {
				tcDuration = tc.EndTime.Sub(tc.StartTime)
			}
			sb.WriteString(fmt.Sprintf("      Duration: %v\n", tcDuration))

			if tc.Error != nil {
				sb.WriteString(fmt.Sprintf("      Error: %v\n", tc.Error))
			} else if tc.Result != nil {
				sb.WriteString(fmt.Sprintf("      Result: %s\n", truncate(fmt.Sprintf("%v", tc.Result), 200)))
			}
		}
	} else {
		sb.WriteString("\nNo tool calls\n")
	}

	sb.WriteString("\nCompletion:\n")
	switch {
	case t.Error != nil:
		sb.WriteString(fmt.Sprintf("  Error: %v\n", t.Error))
	case t.Result != "":
		sb.WriteString(fmt.Sprintf("  Result: %s\n", truncate(t.Result, 500)))
	default:
		sb.WriteString("  Result: <empty>\n")
	}

	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func generateTraceID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("trace-%d", time.Now().UnixNano())
	}
	return "trace-" + hex.EncodeToString(b)
}
