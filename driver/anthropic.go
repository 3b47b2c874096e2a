/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/foreman/agenttrace"
	"chainguard.dev/foreman/driver/retry"
	"chainguard.dev/foreman/toolcall"
	"chainguard.dev/foreman/toolcall/anthropictool"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
)

// isRetryableAnthropicError reports whether an Anthropic API error is
// transient: rate limits, overload, and gateway timeouts.
func isRetryableAnthropicError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 503, 504, 529:
			return true
		}
	}
	return false
}

func (d *Driver) runAnthropic(ctx context.Context, req Request, system string, tools map[string]toolcall.Tool, trace *agenttrace.Trace, handler Handler) (Result, error) {
	log := clog.FromContext(ctx)

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := anthropic.MessageParamRoleUser
		if m.Role == RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		messages = append(messages, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		})
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Agent.Model),
		MaxTokens: d.maxTokensFor(req.Agent),
		Messages:  messages,
		Tools:     anthropictool.Definitions(tools),
		System:    []anthropic.TextBlockParam{{Text: system}},
	}
	if req.Agent.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Agent.Temperature)
	}

	result := Result{}
	for step := 1; step <= d.maxSteps; step++ {
		result.Steps = step

		// Deltas are buffered per attempt and flushed only after the stream
		// succeeds, so a mid-stream retry never re-delivers text the handler
		// has already seen.
		var deltas []string
		message, err := retry.Do(ctx, d.retryConfig, "stream_message", isRetryableAnthropicError, func() (anthropic.Message, error) {
			deltas = deltas[:0]
			stream := d.anthropicClient.Messages.NewStreaming(ctx, params)
			var msg anthropic.Message
			for stream.Next() {
				event := stream.Current()
				if err := msg.Accumulate(event); err != nil {
					return msg, fmt.Errorf("failed to accumulate event: %w", err)
				}
				switch eventVariant := event.AsAny().(type) {
				case anthropic.ContentBlockDeltaEvent:
					switch delta := eventVariant.Delta.AsAny().(type) {
					case anthropic.TextDelta:
						deltas = append(deltas, delta.Text)
					}
				}
			}
			if err := stream.Err(); err != nil {
				return msg, err
			}
			return msg, nil
		})
		if err != nil {
			return result, fmt.Errorf("failed to stream model response: %w", err)
		}
		for _, text := range deltas {
			emit(handler, Event{Type: EventTextDelta, Text: text})
		}

		if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
			d.genai.RecordTokens(ctx, req.Agent.Model, message.Usage.InputTokens, message.Usage.OutputTokens)
			trace.RecordTokenUsage(req.Agent.Model, message.Usage.InputTokens, message.Usage.OutputTokens)
			result.Usage.InputTokens += message.Usage.InputTokens
			result.Usage.OutputTokens += message.Usage.OutputTokens
		}

		var toolUses []anthropic.ToolUseBlock
		var text strings.Builder
		for _, content := range message.Content {
			switch content.Type {
			case "text":
				text.WriteString(content.Text)
			case "tool_use":
				toolUses = append(toolUses, anthropic.ToolUseBlock{
					ID:    content.ID,
					Name:  content.Name,
					Input: content.Input,
				})
			}
		}
		if text.Len() > 0 {
			result.Text = text.String()
		}

		emit(handler, Event{Type: EventStepCompleted, Step: step})

		if len(toolUses) == 0 {
			if result.Text == "" {
				return result, errors.New("no content in model response")
			}
			log.With("steps", step).Info("Agent execution completed")
			return result, nil
		}

		params.Messages = append(params.Messages, message.ToParam())

		var toolResults []anthropic.ContentBlockParamUnion
		for _, toolUse := range toolUses {
			call, errResp := anthropictool.ParseCall(toolUse)
			var callResult map[string]any
			if errResp != nil {
				trace.BadToolCall(toolUse.ID, toolUse.Name, map[string]any{"input": string(toolUse.Input)}, fmt.Errorf("%v", errResp["error"]))
				callResult = errResp
			} else {
				callResult = d.dispatchToolCall(ctx, call, tools, trace, handler, req.Agent.Model)
			}

			resultBytes, err := json.Marshal(callResult)
			if err != nil {
				return result, fmt.Errorf("failed to marshal tool result: %w", err)
			}
			toolResults = append(toolResults, anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: toolUse.ID,
					Content: []anthropic.ToolResultBlockParamContentUnion{{
						OfText: &anthropic.TextBlockParam{Text: string(resultBytes)},
					}},
				},
			})
		}
		params.Messages = append(params.Messages, anthropic.MessageParam{
			Role:    anthropic.MessageParamRoleUser,
			Content: toolResults,
		})
	}

	// Step budget exhausted: report what we have rather than failing.
	log.With("max_steps", d.maxSteps).Warn("Agent execution truncated at step budget")
	result.Truncated = true
	return result, nil
}
