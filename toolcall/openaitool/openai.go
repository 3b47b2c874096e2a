/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaitool converts provider-independent tool definitions and
// calls to and from the OpenAI SDK's chat-completions types.
package openaitool

import (
	"encoding/json"
	"sort"

	"chainguard.dev/foreman/toolcall"
	"chainguard.dev/foreman/toolcall/params"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
)

// Definition converts a tool definition to an OpenAI function tool.
func Definition(def toolcall.Definition) openai.ChatCompletionToolUnionParam {
	properties, required := def.Schema()
	if required == nil {
		required = []string{}
	}
	return openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
		Name:        def.Name,
		Description: openai.String(def.Description),
		Parameters: shared.FunctionParameters{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	})
}

// Definitions converts a tool set to OpenAI tool params, ordered by name
// so the request payload is deterministic across turns.
func Definitions(tools map[string]toolcall.Tool) []openai.ChatCompletionToolUnionParam {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, name := range names {
		defs = append(defs, Definition(tools[name].Def))
	}
	return defs
}

// ParseCall converts an OpenAI tool call into the provider-independent
// representation. On malformed arguments it returns a failure response to
// hand back to the model.
func ParseCall(tc openai.ChatCompletionMessageToolCallUnion) (toolcall.ToolCall, map[string]any) {
	var args map[string]any
	if tc.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return toolcall.ToolCall{}, params.Error("failed to parse tool arguments: %v", err)
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	return toolcall.ToolCall{
		ID:   tc.ID,
		Name: tc.Function.Name,
		Args: args,
	}, nil
}
