/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package anthropictool converts provider-independent tool definitions and
// calls to and from the Anthropic SDK's types.
package anthropictool

import (
	"encoding/json"
	"sort"

	"chainguard.dev/foreman/toolcall"
	"chainguard.dev/foreman/toolcall/params"
	"github.com/anthropics/anthropic-sdk-go"
)

// Definition converts a tool definition to the Anthropic tool param.
func Definition(def toolcall.Definition) anthropic.ToolUnionParam {
	properties, required := def.Schema()
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        def.Name,
			Description: anthropic.String(def.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type:       "object",
				Properties: properties,
				Required:   required,
			},
		},
	}
}

// Definitions converts a tool set to Anthropic tool params, ordered by
// name so the request payload is deterministic across turns.
func Definitions(tools map[string]toolcall.Tool) []anthropic.ToolUnionParam {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, name := range names {
		defs = append(defs, Definition(tools[name].Def))
	}
	return defs
}

// ParseCall converts an Anthropic tool_use block into the
// provider-independent representation. On malformed input it returns a
// failure response to hand back to the model.
func ParseCall(toolUse anthropic.ToolUseBlock) (toolcall.ToolCall, map[string]any) {
	var args map[string]any
	if len(toolUse.Input) > 0 {
		if err := json.Unmarshal(toolUse.Input, &args); err != nil {
			return toolcall.ToolCall{}, params.Error("failed to parse tool input: %v", err)
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	return toolcall.ToolCall{
		ID:   toolUse.ID,
		Name: toolUse.Name,
		Args: args,
	}, nil
}
