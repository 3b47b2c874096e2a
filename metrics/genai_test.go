/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestRecordingWithEnricher(t *testing.T) {
	g := NewGenAI("test.meter")

	var seen []attribute.KeyValue
	g.SetAttributeEnricher(func(_ context.Context, base []attribute.KeyValue) []attribute.KeyValue {
		seen = append(seen[:0], base...)
		return append(base, attribute.String("project", "demo"))
	})

	ctx := context.Background()
	g.RecordTokens(ctx, "claude-sonnet-4-5", 10, 20)
	if len(seen) != 1 || seen[0].Key != "model" {
		t.Errorf("token base attributes = %v, want just model", seen)
	}

	g.RecordToolCall(ctx, "claude-sonnet-4-5", "read_file")
	if len(seen) != 2 || seen[1].Key != "tool" {
		t.Errorf("tool call base attributes = %v, want model and tool", seen)
	}
}

func TestRecordingWithoutEnricher(t *testing.T) {
	g := NewGenAI("test.meter")

	// No enricher set: recording must still work against the base set.
	ctx := context.Background()
	g.RecordTokens(ctx, "gpt-5", 1, 2)
	g.RecordToolCall(ctx, "gpt-5", "write_file")

	if got := g.enrich(ctx, attribute.String("model", "gpt-5")); len(got) != 1 {
		t.Errorf("enrich without enricher = %v, want passthrough", got)
	}
}
