/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// RunContext carries per-execution metadata for trace and metric
// enrichment: which agent is running, and whether it was reached through
// delegation rather than a direct user message.
type RunContext struct {
	AgentID   string `json:"agent_id,omitempty"`
	AgentName string `json:"agent_name,omitempty"`
	Delegated bool   `json:"delegated,omitempty"`
}

// EnrichAttributes adds run-context attributes to the provided base
// attributes. Only bounded labels are included: agent ids are generated
// per-project and stay small, so they are safe as metric dimensions.
func (r RunContext) EnrichAttributes(baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(baseAttrs), len(baseAttrs)+2)
	copy(attrs, baseAttrs)

	if r.AgentName != "" {
		attrs = append(attrs, attribute.String("agent", r.AgentName))
	}
	attrs = append(attrs, attribute.Bool("delegated", r.Delegated))

	return attrs
}

type runContextKey struct{}

// WithRunContext returns a context carrying the given run context.
func WithRunContext(ctx context.Context, rc RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// GetRunContext extracts the run context from ctx, or a zero value if none
// was set.
func GetRunContext(ctx context.Context) RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(RunContext); ok {
		return rc
	}
	return RunContext{}
}
