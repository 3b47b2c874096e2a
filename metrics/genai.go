/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics provides OpenTelemetry metrics for the agent runtime.
package metrics

import (
	"context"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// AttributeEnricher adds contextual attributes to metrics before recording.
// The enricher receives the base attributes and returns the enriched set.
type AttributeEnricher func(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue

// GenAI records token usage and tool-call counters for model runs. A
// counter that fails to initialize degrades to a no-op rather than
// disabling the run.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	toolCalls        metric.Int64Counter
	attrEnricher     AttributeEnricher
}

// NewGenAI creates the runtime's GenAI metrics under the given meter name.
// The meter name is shared across providers; the model is a dimension on
// each recorded metric.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))
	return &GenAI{
		promptTokens:     counter(meter, meterName, "genai.token.prompt", "The number of prompt tokens used", "{tokens}"),
		completionTokens: counter(meter, meterName, "genai.token.completion", "The number of completion tokens used", "{tokens}"),
		toolCalls:        counter(meter, meterName, "genai.tool.calls", "The number of tool calls made during execution", "{calls}"),
	}
}

func counter(meter metric.Meter, meterName, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name,
		metric.WithDescription(description),
		metric.WithUnit(unit))
	if err != nil {
		clog.Warn("Failed to create counter, metric will be disabled", "counter", name, "error", err, "meter", meterName)
		return noop.Int64Counter{}
	}
	return c
}

// SetAttributeEnricher sets the attribute enricher, called before
// recording each metric.
func (m *GenAI) SetAttributeEnricher(enricher AttributeEnricher) {
	m.attrEnricher = enricher
}

// RecordTokens records prompt and completion token usage for one model turn.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64) {
	attrs := m.enrich(ctx, attribute.String("model", model))
	m.promptTokens.Add(ctx, promptTokens, metric.WithAttributes(attrs...))
	m.completionTokens.Add(ctx, completionTokens, metric.WithAttributes(attrs...))
}

// RecordToolCall records one tool invocation.
func (m *GenAI) RecordToolCall(ctx context.Context, model, toolName string) {
	attrs := m.enrich(ctx,
		attribute.String("model", model),
		attribute.String("tool", toolName))
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *GenAI) enrich(ctx context.Context, base ...attribute.KeyValue) []attribute.KeyValue {
	if m.attrEnricher != nil {
		return m.attrEnricher(ctx, base)
	}
	return base
}
