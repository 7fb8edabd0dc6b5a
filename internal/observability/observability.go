// Package observability defines the metrics and tracing hooks record store
// operations report through, plus process-local and Prometheus exporters.
package observability

import (
	"context"
	"time"
)

// Recorder receives one observation per completed operation.
type Recorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts a span per operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, Span)
}

// Span is ended exactly once with the operation's error (nil on success).
type Span interface {
	End(err error)
}

// NopRecorder discards observations.
type NopRecorder struct{}

func (NopRecorder) Observe(context.Context, string, bool, time.Duration) {}

// NopTracer starts spans that record nothing.
type NopTracer struct{}

func (NopTracer) Start(ctx context.Context, _ string) (context.Context, Span) { return ctx, nopSpan{} }

type nopSpan struct{}

func (nopSpan) End(error) {}

// Recorders fans one observation out to several recorders.
type Recorders []Recorder

func (rs Recorders) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range rs {
		if r != nil {
			r.Observe(ctx, operation, success, duration)
		}
	}
}
