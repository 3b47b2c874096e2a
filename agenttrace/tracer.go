/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"github.com/chainguard-dev/clog"
)

// Tracer records completed traces.
type Tracer interface {
	// RecordTrace is called once when a trace completes.
	RecordTrace(trace *Trace)
}

// byCodeTracer invokes callbacks on trace completion.
type byCodeTracer struct {
	callbacks []func(*Trace)
}

// ByCode creates a tracer that invokes the given callbacks for each
// completed trace. Nil callbacks are skipped.
func ByCode(callbacks ...func(*Trace)) Tracer {
	return &byCodeTracer{callbacks: callbacks}
}

func (t *byCodeTracer) RecordTrace(trace *Trace) {
	for _, cb := range t.callbacks {
		if cb != nil {
			cb(trace)
		}
	}
}

// NewDefaultTracer creates a tracer that logs completed traces to clog.
func NewDefaultTracer(ctx context.Context) Tracer {
	logger := clog.FromContext(ctx)

	return ByCode(func(trace *Trace) {
		logger.With(
			"trace_id", trace.ID,
			"duration_ms", trace.Duration().Milliseconds(),
			"tool_calls", len(trace.ToolCalls),
		).Info("Agent trace completed")
	})
}
