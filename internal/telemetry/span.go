package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Span is a wrapper around an OpenTelemetry span that tracks the number of
// in-flight operations of its [Recorder].
type Span struct {
	ctx      context.Context
	name     string
	span     trace.Span
	recorder *Recorder
}

// StartSpan starts a new span representing a single operation.
func (r *Recorder) StartSpan(
	ctx context.Context,
	name string,
	attrs ...Attr,
) (context.Context, *Span) {
	ctx, span := r.tracer.Start(
		ctx,
		name,
		trace.WithAttributes(asAttrKeyValues(attrs)...),
	)

	r.ops(ctx, 1, String("operation", name))
	r.inFlight(ctx, 1, String("operation", name))

	return ctx, &Span{ctx, name, span, r}
}

// SetAttributes adds attributes to the span.
func (s *Span) SetAttributes(attrs ...Attr) {
	s.span.SetAttributes(asAttrKeyValues(attrs)...)
}

// End completes the span.
func (s *Span) End() {
	s.recorder.inFlight(s.ctx, -1, String("operation", s.name))
	s.span.End()
}
