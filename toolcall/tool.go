/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"fmt"

	"chainguard.dev/foreman/agenttrace"
	"chainguard.dev/foreman/toolcall/params"
)

// ToolCall is a provider-independent representation of a tool call.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Parameter describes a single tool parameter.
type Parameter struct {
	Name        string
	Type        string // "string", "integer", "boolean", "number", "array"
	Description string
	Required    bool
	// Enum restricts string parameters to a closed set of values.
	Enum []string
	// Items is the element type for array parameters.
	Items string
}

// Definition describes a tool's schema (name, description, parameters).
// The Name is the wire-facing id the model invokes the tool by. The
// Description is load-bearing: it is the model's only signal for when to
// use the tool.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter

	// InputSchema, when set, is used verbatim as the JSON schema for the
	// tool input instead of deriving one from Parameters. Synthesized
	// tools (delegation) reflect their schema from a Go struct.
	InputSchema map[string]any
}

// Schema returns the JSON-schema properties and required list for the
// definition's input.
func (d Definition) Schema() (properties map[string]any, required []string) {
	if d.InputSchema != nil {
		props, _ := d.InputSchema["properties"].(map[string]any)
		var req []string
		switch r := d.InputSchema["required"].(type) {
		case []string:
			req = r
		case []any:
			for _, v := range r {
				if s, ok := v.(string); ok {
					req = append(req, s)
				}
			}
		}
		return props, req
	}

	properties = make(map[string]any, len(d.Parameters))
	for _, p := range d.Parameters {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Type == "array" {
			items := p.Items
			if items == "" {
				items = "string"
			}
			prop["items"] = map[string]any{"type": items}
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return properties, required
}

// Tool defines a tool once with a single handler that works with any
// provider. Handlers never return Go errors across the tool boundary;
// failures become {"success": false, "error": ...} result maps so the
// model can react in natural language.
type Tool struct {
	Def     Definition
	Handler func(ctx context.Context, call ToolCall, trace *agenttrace.Trace) map[string]any
}

// Param extracts a required parameter from the tool call args.
// On error, records a bad tool call on the trace and returns a failure
// response.
func Param[T any](call ToolCall, trace interface {
	BadToolCall(string, string, map[string]any, error)
}, name string) (T, map[string]any) {
	v, err := params.Extract[T](call.Args, name)
	if err != nil {
		trace.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("missing %s parameter", name))
		return v, params.Error("%s", err)
	}
	return v, nil
}

// OptionalParam extracts an optional parameter from the tool call args.
func OptionalParam[T any](call ToolCall, name string, defaultValue T) (T, map[string]any) {
	v, err := params.ExtractOptional[T](call.Args, name, defaultValue)
	if err != nil {
		return v, params.Error("%s", err)
	}
	return v, nil
}
