package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
)

// Debug logs a diagnostic message to the log and as a span event.
func (r *Recorder) Debug(ctx context.Context, event, message string, body ...Attr) {
	r.emit(ctx, log.SeverityDebug, event, message, nil, body)
}

// Info logs an informational message to the log and as a span event.
func (r *Recorder) Info(ctx context.Context, event, message string, body ...Attr) {
	r.emit(ctx, log.SeverityInfo, event, message, nil, body)
}

// Error logs an error message to the log and as a span event.
//
// It marks the span as an error and increments the "errors" metric.
func (r *Recorder) Error(ctx context.Context, event string, err error, body ...Attr) {
	r.emit(ctx, log.SeverityError, event, err.Error(), err, body)
	r.errors(ctx, 1, String("event", event))

	span := trace.SpanFromContext(ctx)
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}

func (r *Recorder) emit(
	ctx context.Context,
	severity log.Severity,
	event, message string,
	err error,
	body []Attr,
) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(
		event,
		trace.WithAttributes(attribute.String("message", message)),
		trace.WithAttributes(asAttrKeyValues(body)...),
	)

	if !r.logger.Enabled(ctx, log.EnabledParameters{Severity: severity}) {
		return
	}

	var rec log.Record
	rec.SetEventName(event)
	rec.SetSeverity(severity)
	rec.SetBody(log.StringValue(message))

	if err != nil {
		rec.AddAttributes(log.String("error", err.Error()))
	}

	rec.AddAttributes(asLogKeyValues(body)...)

	r.logger.Emit(ctx, rec)
}
