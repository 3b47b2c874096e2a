/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package driver

// EventType discriminates streamed conversation events.
type EventType string

const (
	// EventTextDelta carries a fragment of assistant text as it streams.
	EventTextDelta EventType = "text_delta"

	// EventToolCallStarted fires when the model requests a tool.
	EventToolCallStarted EventType = "tool_call_started"

	// EventToolCallFinished fires with the tool's structured result.
	EventToolCallFinished EventType = "tool_call_finished"

	// EventStepCompleted fires after each model turn.
	EventStepCompleted EventType = "step_completed"
)

// Event is one streamed occurrence during a conversation.
type Event struct {
	Type EventType

	// Text is set for EventTextDelta.
	Text string

	// ToolID and ToolName are set for tool call events.
	ToolID   string
	ToolName string

	// Result is set for EventToolCallFinished.
	Result map[string]any

	// Step is set for EventStepCompleted.
	Step int
}

// Handler receives streamed events. Handlers run synchronously on the
// conversation goroutine, so they should return quickly.
type Handler func(Event)

func emit(h Handler, e Event) {
	if h != nil {
		h(e)
	}
}
