package telemetry

import (
	"fmt"

	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name for business spans
const TracerName = "freelancedesk-backend"

// StartSpan starts a span with the given name. The caller must call
// span.End().
//
//	ctx, span := telemetry.StartSpan(ctx, "invoice.create")
//	defer span.End()
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	opts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindInternal),
	}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return tracer.Start(ctx, spanName, opts...)
}

// RecordError marks the span as failed and records the error
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// String builds a string span attribute
func String(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// Int builds an int span attribute
func Int(key string, value int) attribute.KeyValue {
	return attribute.Int(key, value)
}

// Stringer builds a string attribute from any value
func Stringer(key string, value interface{}) attribute.KeyValue {
	return attribute.String(key, fmt.Sprintf("%v", value))
}
