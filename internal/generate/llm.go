package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/llm"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const draftSystemPrompt = "You draft addenda to residential real estate purchase agreements. " +
	"Respond with the addendum text only, in plain text without markdown. " +
	"Do not invent terms that were not provided."

// Drafter is the language model seam used by LLMGenerator.
type Drafter interface {
	Draft(ctx context.Context, req llm.Request) (string, error)
}

// LLMGenerator drafts addenda with a language model behind a circuit
// breaker. When the breaker is open it falls back to another generator.
type LLMGenerator struct {
	drafter         Drafter
	fallback        Generator
	breaker         *gobreaker.CircuitBreaker
	logger          *slog.Logger
	tracer          trace.Tracer
	settings        gobreaker.Settings
	fallbackOnError bool
}

// LLMOption configures an LLMGenerator.
type LLMOption func(*LLMGenerator)

// WithFallback sets the generator used while the breaker is open.
func WithFallback(g Generator) LLMOption {
	return func(l *LLMGenerator) {
		l.fallback = g
	}
}

// WithFallbackOnError also falls back when a single draft fails.
func WithFallbackOnError(enabled bool) LLMOption {
	return func(l *LLMGenerator) {
		l.fallbackOnError = enabled
	}
}

// WithTripThreshold opens the breaker after n consecutive failures.
func WithTripThreshold(n uint32) LLMOption {
	return func(l *LLMGenerator) {
		if n == 0 {
			return
		}
		l.settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= n
		}
	}
}

// WithOpenTimeout sets how long the breaker stays open before probing.
func WithOpenTimeout(d time.Duration) LLMOption {
	return func(l *LLMGenerator) {
		l.settings.Timeout = d
	}
}

// WithGeneratorLogger sets the logger.
func WithGeneratorLogger(logger *slog.Logger) LLMOption {
	return func(l *LLMGenerator) {
		l.logger = common.LoggerOrDefault(logger)
	}
}

// NewLLMGenerator creates a generator around a drafter.
func NewLLMGenerator(d Drafter, opts ...LLMOption) *LLMGenerator {
	l := &LLMGenerator{
		drafter:  d,
		fallback: TemplateGenerator{},
		logger:   slog.Default(),
		tracer:   otel.Tracer("amendment-desk/generate"),
		settings: gobreaker.Settings{
			Name:        "addendum-drafter",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		},
	}

	for _, opt := range opts {
		opt(l)
	}

	l.settings.OnStateChange = func(name string, from, to gobreaker.State) {
		l.logger.Warn("Circuit breaker changed state",
			"breaker", name,
			"from", from.String(),
			"to", to.String())
	}
	l.breaker = gobreaker.NewCircuitBreaker(l.settings)

	return l
}

// Generate implements Generator.
func (l *LLMGenerator) Generate(ctx context.Context, info model.AddendumTypeInfo, details map[string]model.FieldValue) (string, error) {
	if err := requireType(info); err != nil {
		return "", err
	}

	ctx, span := l.tracer.Start(ctx, "generate.llm_draft")
	defer span.End()
	span.SetAttributes(attribute.String("addendum.type", string(info.Type)))

	result, err := l.breaker.Execute(func() (interface{}, error) {
		return l.drafter.Draft(ctx, BuildRequest(info, details))
	})
	if err == nil {
		return result.(string), nil
	}

	span.RecordError(err)

	breakerOpen := errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
	if l.fallback != nil && (breakerOpen || l.fallbackOnError) {
		l.logger.Warn("Drafting unavailable, using template",
			"addendum_type", info.Type,
			"breaker_state", l.breaker.State().String(),
			"error", err)
		span.SetAttributes(attribute.Bool("generate.fallback", true))
		return l.fallback.Generate(ctx, info, details)
	}

	span.SetStatus(codes.Error, err.Error())
	return "", fmt.Errorf("%w: %w", common.ErrGenerationFailed, err)
}

// State reports the breaker state for display.
func (l *LLMGenerator) State() string {
	return l.breaker.State().String()
}

// BuildRequest assembles the drafting prompt for an addendum.
func BuildRequest(info model.AddendumTypeInfo, details map[string]model.FieldValue) llm.Request {
	var b strings.Builder

	fmt.Fprintf(&b, "Draft a %s addendum.\n", info.Label)
	if info.Description != "" {
		fmt.Fprintf(&b, "Purpose: %s\n", info.Description)
	}

	b.WriteString("\nAgreed terms:\n")
	for _, field := range info.RequiredFields {
		value, ok := details[field.Key]
		if !ok || value.IsEmpty() {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", field.Label, value.String())
	}

	fmt.Fprintf(&b, "\nStart with the title %q on its own line. ", Header(info))
	fmt.Fprintf(&b, "End with this sentence exactly: %q", Boilerplate)

	return llm.Request{
		System: draftSystemPrompt,
		Prompt: b.String(),
	}
}
