// Package metrics records wizard telemetry with OpenTelemetry.
package metrics

import (
	"context"
	"time"

	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/wizard"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/Veraticus/amendment-desk/internal/metrics"

// WizardMetrics implements wizard.Recorder on top of an OpenTelemetry meter.
type WizardMetrics struct {
	opened             metric.Int64Counter
	closed             metric.Int64Counter
	completed          metric.Int64Counter
	transitions        metric.Int64Counter
	generationFailures metric.Int64Counter
	submissionFailures metric.Int64Counter
	droppedTranscripts metric.Int64Counter
	generationDuration metric.Float64Histogram
	submissionDuration metric.Float64Histogram
}

var _ wizard.Recorder = (*WizardMetrics)(nil)

// NewWizardMetrics creates the wizard instruments. A nil provider uses the
// global meter provider.
func NewWizardMetrics(provider metric.MeterProvider) (*WizardMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(instrumentationName)

	m := &WizardMetrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.opened, "amend.wizard.opened", "Wizards opened", "{wizard}"},
		{&m.closed, "amend.wizard.closed", "Wizards closed without completing", "{wizard}"},
		{&m.completed, "amend.wizard.completed", "Addenda submitted successfully", "{addendum}"},
		{&m.transitions, "amend.wizard.step_transitions", "Wizard step transitions", "{transition}"},
		{&m.generationFailures, "amend.wizard.generation.failures", "Failed content generations", "{failure}"},
		{&m.submissionFailures, "amend.wizard.submission.failures", "Failed submissions", "{failure}"},
		{&m.droppedTranscripts, "amend.wizard.transcripts.dropped", "Transcripts ignored while processing", "{transcript}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	m.generationDuration, err = meter.Float64Histogram(
		"amend.wizard.generation.duration",
		metric.WithDescription("Duration of addendum content generation in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.submissionDuration, err = meter.Float64Histogram(
		"amend.wizard.submission.duration",
		metric.WithDescription("Duration of addendum submission in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Opened records a wizard being shown.
func (m *WizardMetrics) Opened(ctx context.Context) {
	m.opened.Add(ctx, 1)
}

// StepChanged records a step transition.
func (m *WizardMetrics) StepChanged(ctx context.Context, from, to wizard.Step) {
	m.transitions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("step.from", string(from)),
			attribute.String("step.to", string(to)),
		),
	)
}

// GenerationFinished records a generation duration and any failure.
func (m *WizardMetrics) GenerationFinished(ctx context.Context, t model.AddendumType, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("addendum.type", string(t)),
		attribute.String("status", status(err)),
	)
	m.generationDuration.Record(ctx, elapsed.Seconds(), attrs)
	if err != nil {
		m.generationFailures.Add(ctx, 1, attrs)
	}
}

// SubmissionFinished records a submission duration and any failure.
func (m *WizardMetrics) SubmissionFinished(ctx context.Context, t model.AddendumType, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("addendum.type", string(t)),
		attribute.String("status", status(err)),
	)
	m.submissionDuration.Record(ctx, elapsed.Seconds(), attrs)
	if err != nil {
		m.submissionFailures.Add(ctx, 1, attrs)
	}
}

// Completed records a successful submission.
func (m *WizardMetrics) Completed(ctx context.Context, t model.AddendumType) {
	m.completed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("addendum.type", string(t))),
	)
}

// Closed records a wizard closed by the user.
func (m *WizardMetrics) Closed(ctx context.Context, step wizard.Step) {
	m.closed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("step", string(step))),
	)
}

// TranscriptDropped records a transcript ignored while processing.
func (m *WizardMetrics) TranscriptDropped(ctx context.Context) {
	m.droppedTranscripts.Add(ctx, 1)
}

func status(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
