package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/aussiebroadwan/bartender/internal/bartender/service")

// endSpan records the outcome kind, never the inputs, and ends span.
func endSpan(span trace.Span, err error) {
	defer span.End()

	if err == nil {
		span.SetAttributes(attribute.String("auth.outcome", "ok"))
		return
	}

	kind := KindOf(err)
	span.SetAttributes(attribute.String("auth.outcome", kind.String()))
	if kind == KindInternal {
		span.SetStatus(codes.Error, err.Error())
	}
}
