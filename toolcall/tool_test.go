/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall_test

import (
	"context"
	"encoding/json"
	"testing"

	"chainguard.dev/foreman/agenttrace"
	"chainguard.dev/foreman/toolcall"
	"chainguard.dev/foreman/toolcall/anthropictool"
	"chainguard.dev/foreman/toolcall/openaitool"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/go-cmp/cmp"
)

func testTool() toolcall.Tool {
	return toolcall.Tool{
		Def: toolcall.Definition{
			Name:        "test_tool",
			Description: "A test tool",
			Parameters: []toolcall.Parameter{
				{Name: "input", Type: "string", Description: "The input", Required: true},
				{Name: "count", Type: "integer", Description: "A count"},
			},
		},
		Handler: func(_ context.Context, call toolcall.ToolCall, _ *agenttrace.Trace) map[string]any {
			return map[string]any{"success": true, "received": call.Args["input"]}
		},
	}
}

func TestDefinitionSchema(t *testing.T) {
	props, required := testTool().Def.Schema()

	if len(props) != 2 {
		t.Errorf("got %d properties, want 2", len(props))
	}
	if diff := cmp.Diff([]string{"input"}, required); diff != "" {
		t.Errorf("required mismatch (-want +got):\n%s", diff)
	}

	input, ok := props["input"].(map[string]any)
	if !ok {
		t.Fatal("input property is not a map")
	}
	if input["type"] != "string" {
		t.Errorf("got type %v, want string", input["type"])
	}
}

func TestDefinitionSchemaEnum(t *testing.T) {
	def := toolcall.Definition{
		Name: "categorized",
		Parameters: []toolcall.Parameter{
			{Name: "category", Type: "string", Required: true, Enum: []string{"a", "b"}},
			{Name: "items", Type: "array", Items: "string"},
		},
	}

	props, _ := def.Schema()
	category := props["category"].(map[string]any)
	if diff := cmp.Diff([]string{"a", "b"}, category["enum"]); diff != "" {
		t.Errorf("enum mismatch (-want +got):\n%s", diff)
	}
	items := props["items"].(map[string]any)
	if diff := cmp.Diff(map[string]any{"type": "string"}, items["items"]); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestDefinitionSchemaOverride(t *testing.T) {
	def := toolcall.Definition{
		Name: "reflected",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task": map[string]any{"type": "string"},
			},
			"required": []any{"task"},
		},
	}

	props, required := def.Schema()
	if _, ok := props["task"]; !ok {
		t.Error("expected task property from schema override")
	}
	if diff := cmp.Diff([]string{"task"}, required); diff != "" {
		t.Errorf("required mismatch (-want +got):\n%s", diff)
	}
}

func TestAnthropicDefinition(t *testing.T) {
	def := anthropictool.Definition(testTool().Def)

	if def.OfTool == nil {
		t.Fatal("expected OfTool to be set")
	}
	if def.OfTool.Name != "test_tool" {
		t.Errorf("got name %q, want %q", def.OfTool.Name, "test_tool")
	}

	props, ok := def.OfTool.InputSchema.Properties.(map[string]any)
	if !ok {
		t.Fatal("properties is not map[string]any")
	}
	if len(props) != 2 {
		t.Errorf("got %d properties, want 2", len(props))
	}
	if got := def.OfTool.InputSchema.Required; len(got) != 1 || got[0] != "input" {
		t.Errorf("got required %v, want [input]", got)
	}
}

func TestAnthropicParseCall(t *testing.T) {
	input, _ := json.Marshal(map[string]any{"input": "hello"})
	call, errResp := anthropictool.ParseCall(anthropic.ToolUseBlock{
		ID:    "t1",
		Name:  "test_tool",
		Input: input,
	})
	if errResp != nil {
		t.Fatalf("unexpected error response: %v", errResp)
	}

	want := toolcall.ToolCall{ID: "t1", Name: "test_tool", Args: map[string]any{"input": "hello"}}
	if diff := cmp.Diff(want, call); diff != "" {
		t.Errorf("call mismatch (-want +got):\n%s", diff)
	}
}

func TestAnthropicParseCallBadInput(t *testing.T) {
	_, errResp := anthropictool.ParseCall(anthropic.ToolUseBlock{
		ID:    "t1",
		Name:  "test_tool",
		Input: json.RawMessage(`{not json`),
	})
	if errResp == nil {
		t.Fatal("expected error response for malformed input")
	}
	if errResp["success"] != false {
		t.Error("error response must report success=false")
	}
}

func TestOpenAIDefinitions(t *testing.T) {
	tools := map[string]toolcall.Tool{
		"b_tool": {Def: toolcall.Definition{Name: "b_tool", Description: "b"}},
		"a_tool": {Def: toolcall.Definition{Name: "a_tool", Description: "a"}},
	}

	defs := openaitool.Definitions(tools)
	if len(defs) != 2 {
		t.Fatalf("got %d definitions, want 2", len(defs))
	}
	// Ordered by name for deterministic payloads.
	if defs[0].OfFunction == nil {
		t.Fatal("expected OfFunction to be set")
	}
	if got := defs[0].OfFunction.Function.Name; got != "a_tool" {
		t.Errorf("got first tool %q, want a_tool", got)
	}
}

func TestParamRecordsBadCall(t *testing.T) {
	ctx := context.Background()
	trace := agenttrace.StartTraceWithTracer(ctx, agenttrace.ByCode(), "test")

	call := toolcall.ToolCall{ID: "t1", Name: "test_tool", Args: map[string]any{}}

	_, errResp := toolcall.Param[string](call, trace, "input")
	if errResp == nil {
		t.Fatal("expected failure response for missing parameter")
	}
	if len(trace.ToolCalls) != 1 {
		t.Fatalf("got %d recorded tool calls, want 1", len(trace.ToolCalls))
	}
	if trace.ToolCalls[0].Error == nil {
		t.Error("bad tool call should carry an error")
	}
}
