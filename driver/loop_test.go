/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"chainguard.dev/foreman/agentconfig"
	"chainguard.dev/foreman/driver/retry"
	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

func sseEvent(b *strings.Builder, name, data string) {
	fmt.Fprintf(b, "event: %s\ndata: %s\n\n", name, data)
}

// toolUseTurn is a streamed model turn that requests one tool call.
func toolUseTurn(callID, toolName, argsJSON string) string {
	var b strings.Builder
	sseEvent(&b, "message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"stop_reason":null,"usage":{"input_tokens":20,"output_tokens":1}}}`)
	sseEvent(&b, "content_block_start", fmt.Sprintf(`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":%q,"name":%q,"input":{}}}`, callID, toolName))
	sseEvent(&b, "content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":%q}}`, argsJSON))
	sseEvent(&b, "content_block_stop", `{"type":"content_block_stop","index":0}`)
	sseEvent(&b, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":10}}`)
	sseEvent(&b, "message_stop", `{"type":"message_stop"}`)
	return b.String()
}

// textTurn is a streamed model turn that answers with plain text.
func textTurn(text string) string {
	var b strings.Builder
	sseEvent(&b, "message_start", `{"type":"message_start","message":{"id":"msg_2","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"stop_reason":null,"usage":{"input_tokens":20,"output_tokens":1}}}`)
	sseEvent(&b, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
	sseEvent(&b, "content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%q}}`, text))
	sseEvent(&b, "content_block_stop", `{"type":"content_block_stop","index":0}`)
	sseEvent(&b, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":10}}`)
	sseEvent(&b, "message_stop", `{"type":"message_stop"}`)
	return b.String()
}

// fakeModel serves canned streamed turns, keyed by how many requests have
// arrived so far.
func fakeModel(t *testing.T, turn func(n int) string) (anthropic.Client, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, turn(n))
	}))
	t.Cleanup(srv.Close)
	return anthropic.NewClient(
		anthropicoption.WithAPIKey("test-key"),
		anthropicoption.WithBaseURL(srv.URL),
	), &calls
}

func TestConversationLoopDispatchesTools(t *testing.T) {
	client, calls := fakeModel(t, func(n int) string {
		if n == 1 {
			return toolUseTurn("toolu_1", "read_file", `{"path":"notes.md"}`)
		}
		return textTurn("the file says hello")
	})

	d, err := New(testRegistry(t), WithAnthropicClient(client), WithMaxSteps(4))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	var events []Event
	res, err := d.Stream(context.Background(), Request{
		Agent:    testAgent(agentconfig.RoleWorker),
		Messages: []Message{{Role: RoleUser, Content: "what do my notes say?"}},
	}, func(e Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("Stream() = %v", err)
	}

	if res.Text != "the file says hello" {
		t.Errorf("Text = %q, want the final answer", res.Text)
	}
	if res.Steps != 2 {
		t.Errorf("Steps = %d, want 2", res.Steps)
	}
	if res.Truncated {
		t.Error("Truncated = true for a completed run")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("model requests = %d, want 2", got)
	}
	if res.Usage.InputTokens != 40 || res.Usage.OutputTokens != 20 {
		t.Errorf("Usage = %+v, want 40 in / 20 out", res.Usage)
	}

	// The tool call must have reached the registry handler with the
	// arguments the model streamed, and its result must flow back out
	// through the event stream.
	var started, finished *Event
	var deltas strings.Builder
	for i := range events {
		switch events[i].Type {
		case EventToolCallStarted:
			started = &events[i]
		case EventToolCallFinished:
			finished = &events[i]
		case EventTextDelta:
			deltas.WriteString(events[i].Text)
		}
	}
	if started == nil || started.ToolName != "read_file" {
		t.Fatalf("no tool call started event for read_file: %+v", events)
	}
	if finished == nil {
		t.Fatal("no tool call finished event")
	}
	if finished.Result["success"] != true {
		t.Errorf("tool result = %v, want success", finished.Result)
	}
	echoed, ok := finished.Result["echo"].(map[string]any)
	if !ok || echoed["path"] != "notes.md" {
		t.Errorf("tool handler saw args %v, want path=notes.md", finished.Result["echo"])
	}
	if deltas.String() != "the file says hello" {
		t.Errorf("streamed text = %q", deltas.String())
	}
}

func TestMultipleTextBlocksConcatenated(t *testing.T) {
	client, _ := fakeModel(t, func(n int) string {
		var b strings.Builder
		sseEvent(&b, "message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"stop_reason":null,"usage":{"input_tokens":20,"output_tokens":1}}}`)
		sseEvent(&b, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		sseEvent(&b, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"first half, "}}`)
		sseEvent(&b, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		sseEvent(&b, "content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"text","text":""}}`)
		sseEvent(&b, "content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"second half"}}`)
		sseEvent(&b, "content_block_stop", `{"type":"content_block_stop","index":1}`)
		sseEvent(&b, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":10}}`)
		sseEvent(&b, "message_stop", `{"type":"message_stop"}`)
		return b.String()
	})

	d, err := New(testRegistry(t), WithAnthropicClient(client))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	res, err := d.Stream(context.Background(), Request{
		Agent:    testAgent(agentconfig.RoleWorker),
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, nil)
	if err != nil {
		t.Fatalf("Stream() = %v", err)
	}
	if res.Text != "first half, second half" {
		t.Errorf("Text = %q, want both blocks joined", res.Text)
	}
}

func TestStreamRetriesTransientFailure(t *testing.T) {
	// First attempt is rejected with an overload status; the retry must
	// recover, and the handler must see the answer's text exactly once.
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(529)
			fmt.Fprint(w, `{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, textTurn("ok"))
	}))
	t.Cleanup(srv.Close)
	client := anthropic.NewClient(
		anthropicoption.WithAPIKey("test-key"),
		anthropicoption.WithBaseURL(srv.URL),
		anthropicoption.WithMaxRetries(0),
	)

	d, err := New(testRegistry(t),
		WithAnthropicClient(client),
		WithRetryConfig(retry.Config{
			MaxRetries:  2,
			BaseBackoff: time.Millisecond,
			MaxBackoff:  5 * time.Millisecond,
			MaxJitter:   time.Millisecond,
		}))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	var texts []string
	res, err := d.Stream(context.Background(), Request{
		Agent:    testAgent(agentconfig.RoleWorker),
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, func(e Event) {
		if e.Type == EventTextDelta {
			texts = append(texts, e.Text)
		}
	})
	if err != nil {
		t.Fatalf("Stream() = %v, want recovery after retry", err)
	}
	if res.Text != "ok" {
		t.Errorf("Text = %q, want ok", res.Text)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("model requests = %d, want 2", got)
	}
	if len(texts) != 1 || texts[0] != "ok" {
		t.Errorf("delivered deltas = %q, want exactly one %q", texts, "ok")
	}
}

func TestStreamFailedAttemptDeliversNoText(t *testing.T) {
	// A stream that dies after producing deltas must not leak them to the
	// handler; partial attempts deliver nothing.
	client, _ := fakeModel(t, func(n int) string {
		var b strings.Builder
		sseEvent(&b, "message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"stop_reason":null,"usage":{"input_tokens":20,"output_tokens":1}}}`)
		sseEvent(&b, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		sseEvent(&b, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"partial answer"}}`)
		sseEvent(&b, "error", `{"type":"error","error":{"type":"api_error","message":"stream died"}}`)
		return b.String()
	})

	d, err := New(testRegistry(t), WithAnthropicClient(client))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	var texts []string
	_, err = d.Stream(context.Background(), Request{
		Agent:    testAgent(agentconfig.RoleWorker),
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, func(e Event) {
		if e.Type == EventTextDelta {
			texts = append(texts, e.Text)
		}
	})
	if err == nil {
		t.Fatal("Stream() = nil error for a dead stream")
	}
	if len(texts) != 0 {
		t.Errorf("handler saw deltas %q from a failed attempt", texts)
	}
}

func TestConversationLoopTruncatesAtStepBudget(t *testing.T) {
	// The model never stops asking for tools; the loop must cut it off at
	// the step budget and report truncation, not an error.
	client, calls := fakeModel(t, func(n int) string {
		return toolUseTurn(fmt.Sprintf("toolu_%d", n), "read_file", `{"path":"a.txt"}`)
	})

	d, err := New(testRegistry(t), WithAnthropicClient(client), WithMaxSteps(2))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	res, err := d.Stream(context.Background(), Request{
		Agent:    testAgent(agentconfig.RoleWorker),
		Messages: []Message{{Role: RoleUser, Content: "loop forever"}},
	}, nil)
	if err != nil {
		t.Fatalf("Stream() = %v, want truncation without error", err)
	}
	if !res.Truncated {
		t.Error("Truncated = false after exhausting the step budget")
	}
	if res.Steps != 2 {
		t.Errorf("Steps = %d, want 2", res.Steps)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("model requests = %d, want 2", got)
	}
}
