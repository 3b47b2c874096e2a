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

	"chainguard.dev/foreman/agenttrace"
	"chainguard.dev/foreman/driver/retry"
	"chainguard.dev/foreman/toolcall"
	"chainguard.dev/foreman/toolcall/openaitool"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
)

// isRetryableOpenAIError reports whether an OpenAI API error is transient.
func isRetryableOpenAIError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 503:
			return true
		}
	}
	return false
}

func (d *Driver) runOpenAI(ctx context.Context, req Request, system string, tools map[string]toolcall.Tool, trace *agenttrace.Trace, handler Handler) (Result, error) {
	log := clog.FromContext(ctx)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	messages = append(messages, openai.SystemMessage(system))
	for _, m := range req.Messages {
		if m.Role == RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:               shared.ChatModel(req.Agent.Model),
		Messages:            messages,
		Tools:               openaitool.Definitions(tools),
		MaxCompletionTokens: openai.Int(d.maxTokensFor(req.Agent)),
	}
	if req.Agent.Temperature > 0 {
		params.Temperature = openai.Float(req.Agent.Temperature)
	}

	result := Result{}
	for step := 1; step <= d.maxSteps; step++ {
		result.Steps = step

		// Deltas are buffered per attempt and flushed only after the stream
		// succeeds, so a mid-stream retry never re-delivers text the handler
		// has already seen.
		var deltas []string
		completion, err := retry.Do(ctx, d.retryConfig, "stream_completion", isRetryableOpenAIError, func() (openai.ChatCompletion, error) {
			deltas = deltas[:0]
			stream := d.openaiClient.Chat.Completions.NewStreaming(ctx, params)
			acc := openai.ChatCompletionAccumulator{}
			for stream.Next() {
				chunk := stream.Current()
				acc.AddChunk(chunk)
				if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
					deltas = append(deltas, chunk.Choices[0].Delta.Content)
				}
			}
			if err := stream.Err(); err != nil {
				return acc.ChatCompletion, err
			}
			return acc.ChatCompletion, nil
		})
		if err != nil {
			return result, fmt.Errorf("failed to stream model response: %w", err)
		}
		for _, text := range deltas {
			emit(handler, Event{Type: EventTextDelta, Text: text})
		}

		if completion.Usage.PromptTokens > 0 || completion.Usage.CompletionTokens > 0 {
			d.genai.RecordTokens(ctx, req.Agent.Model, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
			trace.RecordTokenUsage(req.Agent.Model, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
			result.Usage.InputTokens += completion.Usage.PromptTokens
			result.Usage.OutputTokens += completion.Usage.CompletionTokens
		}

		if len(completion.Choices) == 0 {
			return result, errors.New("no choices in model response")
		}
		message := completion.Choices[0].Message
		if message.Content != "" {
			result.Text = message.Content
		}

		emit(handler, Event{Type: EventStepCompleted, Step: step})

		if len(message.ToolCalls) == 0 {
			if result.Text == "" {
				return result, errors.New("no content in model response")
			}
			log.With("steps", step).Info("Agent execution completed")
			return result, nil
		}

		params.Messages = append(params.Messages, message.ToParam())

		for _, tc := range message.ToolCalls {
			call, errResp := openaitool.ParseCall(tc)
			var callResult map[string]any
			if errResp != nil {
				trace.BadToolCall(tc.ID, tc.Function.Name, map[string]any{"arguments": tc.Function.Arguments}, fmt.Errorf("%v", errResp["error"]))
				callResult = errResp
			} else {
				callResult = d.dispatchToolCall(ctx, call, tools, trace, handler, req.Agent.Model)
			}

			resultBytes, err := json.Marshal(callResult)
			if err != nil {
				return result, fmt.Errorf("failed to marshal tool result: %w", err)
			}
			params.Messages = append(params.Messages, openai.ToolMessage(string(resultBytes), tc.ID))
		}
	}

	log.With("max_steps", d.maxSteps).Warn("Agent execution truncated at step budget")
	result.Truncated = true
	return result, nil
}
