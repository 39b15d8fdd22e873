package metrics

import (
	"context"

	"github.com/Veraticus/amendment-desk/internal/generate"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/wizard"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracedGenerator wraps a generator in a span per generation.
type TracedGenerator struct {
	next   generate.Generator
	tracer trace.Tracer
}

// NewTracedGenerator wraps next. A nil provider uses the global one.
func NewTracedGenerator(next generate.Generator, provider trace.TracerProvider) *TracedGenerator {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &TracedGenerator{next: next, tracer: provider.Tracer(instrumentationName)}
}

// Generate implements generate.Generator.
func (g *TracedGenerator) Generate(ctx context.Context, info model.AddendumTypeInfo, details map[string]model.FieldValue) (string, error) {
	ctx, span := g.tracer.Start(ctx, "addendum.generate",
		trace.WithAttributes(
			attribute.String("addendum.type", string(info.Type)),
			attribute.Int("addendum.fields", len(details)),
		),
	)
	defer span.End()

	content, err := g.next.Generate(ctx, info, details)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return "", err
	}
	span.SetAttributes(attribute.Int("addendum.content_length", len(content)))
	return content, nil
}

// TracedSubmitter wraps a submitter in a span per submission.
type TracedSubmitter struct {
	next   wizard.Submitter
	tracer trace.Tracer
}

// NewTracedSubmitter wraps next. A nil provider uses the global one.
func NewTracedSubmitter(next wizard.Submitter, provider trace.TracerProvider) *TracedSubmitter {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &TracedSubmitter{next: next, tracer: provider.Tracer(instrumentationName)}
}

// Submit implements wizard.Submitter.
func (s *TracedSubmitter) Submit(ctx context.Context, addendum model.CompletedAddendum) error {
	ctx, span := s.tracer.Start(ctx, "addendum.submit",
		trace.WithAttributes(attribute.String("addendum.type", string(addendum.AddendumType))),
	)
	defer span.End()

	if err := s.next.Submit(ctx, addendum); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed")
		return err
	}
	return nil
}
