/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"errors"
	"testing"
)

func TestTraceRecordsToolCalls(t *testing.T) {
	ctx := context.Background()

	var recorded *Trace
	tracer := ByCode(func(tr *Trace) { recorded = tr })

	trace := StartTraceWithTracer(ctx, tracer, "do the thing")

	tc := trace.StartToolCall("tc1", "read_file", map[string]any{"path": "a.txt"})
	tc.Complete(map[string]any{"success": true}, nil)

	trace.BadToolCall("tc2", "bogus", map[string]any{}, errors.New("unknown tool"))

	trace.Complete("done", nil)

	if recorded == nil {
		t.Fatal("tracer did not record the trace")
	}
	if got, want := len(recorded.ToolCalls), 2; got != want {
		t.Fatalf("got %d tool calls, want %d", got, want)
	}
	if recorded.ToolCalls[0].Error != nil {
		t.Errorf("first tool call unexpectedly errored: %v", recorded.ToolCalls[0].Error)
	}
	if recorded.ToolCalls[1].Error == nil {
		t.Error("bad tool call should carry its error")
	}
	if recorded.Result != "done" {
		t.Errorf("got result %q, want %q", recorded.Result, "done")
	}
}

func TestByCodeSkipsNilCallbacks(t *testing.T) {
	called := false
	tracer := ByCode(nil, func(*Trace) { called = true })

	trace := StartTraceWithTracer(context.Background(), tracer, "p")
	trace.Complete("", nil)

	if !called {
		t.Error("non-nil callback was not invoked")
	}
}

func TestRunContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := GetRunContext(ctx); got != (RunContext{}) {
		t.Errorf("expected zero run context, got %+v", got)
	}

	want := RunContext{AgentID: "a1", AgentName: "writer", Delegated: true}
	ctx = WithRunContext(ctx, want)
	if got := GetRunContext(ctx); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
