package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/amendment-desk/internal/generate"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type failingGenerator struct{ err error }

func (f failingGenerator) Generate(context.Context, model.AddendumTypeInfo, map[string]model.FieldValue) (string, error) {
	return "", f.err
}

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return rec, tp
}

func TestTracedGenerator(t *testing.T) {
	rec, tp := newRecorder(t)
	info := model.AddendumTypeInfo{
		Type:           model.AddendumClosingExtension,
		Label:          "Closing Date Extension",
		RequiredFields: []model.AddendumField{{Key: "reason", Label: "Reason", Type: model.FieldText}},
	}

	g := NewTracedGenerator(generate.TemplateGenerator{}, tp)
	content, err := g.Generate(context.Background(), info, map[string]model.FieldValue{
		"reason": model.TextValue("financing delay"),
	})
	require.NoError(t, err)
	assert.Contains(t, content, "financing delay")

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "addendum.generate", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestTracedGenerator_RecordsFailure(t *testing.T) {
	rec, tp := newRecorder(t)
	boom := errors.New("backend down")

	g := NewTracedGenerator(failingGenerator{err: boom}, tp)
	_, err := g.Generate(context.Background(), model.AddendumTypeInfo{Type: "other"}, nil)
	require.ErrorIs(t, err, boom)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Events(), 1)
}

func TestTracedSubmitter(t *testing.T) {
	rec, tp := newRecorder(t)
	var got model.CompletedAddendum

	s := NewTracedSubmitter(wizard.SubmitterFunc(func(_ context.Context, a model.CompletedAddendum) error {
		got = a
		return nil
	}), tp)

	payload := model.CompletedAddendum{AddendumType: "other", GeneratedContent: "body"}
	require.NoError(t, s.Submit(context.Background(), payload))
	assert.Equal(t, payload, got)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "addendum.submit", spans[0].Name())
}

func TestTracedSubmitter_RecordsFailure(t *testing.T) {
	rec, tp := newRecorder(t)

	s := NewTracedSubmitter(wizard.SubmitterFunc(func(context.Context, model.CompletedAddendum) error {
		return context.DeadlineExceeded
	}), tp)

	err := s.Submit(context.Background(), model.CompletedAddendum{AddendumType: "other"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, codes.Error, rec.Ended()[0].Status().Code)
}
