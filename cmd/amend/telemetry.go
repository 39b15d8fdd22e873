package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// telemetry holds the providers handed to the wizard's decorators.
type telemetry struct {
	tracer   trace.TracerProvider
	meter    metric.MeterProvider
	reader   *sdkmetric.ManualReader
	shutdown []func(context.Context) error
}

// initTelemetry builds providers from telemetry.tracing and telemetry.metrics.
// Disabled signals fall back to the global (no-op) providers. Spans are
// pretty-printed to w.
func initTelemetry(tracing, metrics bool, w io.Writer) (*telemetry, error) {
	t := &telemetry{
		tracer: otel.GetTracerProvider(),
		meter:  otel.GetMeterProvider(),
	}

	if tracing {
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(w),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
		)
		otel.SetTracerProvider(tp)
		t.tracer = tp
		t.shutdown = append(t.shutdown, tp.Shutdown)
	}

	if metrics {
		t.reader = sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(t.reader))
		otel.SetMeterProvider(mp)
		t.meter = mp
		t.shutdown = append(t.shutdown, t.logMetrics, mp.Shutdown)
	}

	return t, nil
}

// Shutdown flushes spans and logs a metrics summary.
func (t *telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range t.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *telemetry) logMetrics(ctx context.Context) error {
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("failed to collect metrics: %w", err)
	}

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				slog.Info("metric", "name", m.Name, "value", total)
			case metricdata.Histogram[float64]:
				var count uint64
				var sum float64
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				slog.Info("metric", "name", m.Name, "count", count, "sum", sum, "unit", m.Unit)
			}
		}
	}
	return nil
}
