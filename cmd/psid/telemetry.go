package main

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/dogmatiq/psikit/internal/config"
)

// providers is the set of OpenTelemetry providers used by the service.
type providers struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	LoggerProvider log.LoggerProvider

	shutdown []func(context.Context) error
}

// newProviders returns the OpenTelemetry providers for the given
// configuration.
func newProviders(cfg config.TelemetryConfig) (*providers, error) {
	switch cfg.Exporter {
	case "", "none":
		return &providers{
			TracerProvider: tracenoop.NewTracerProvider(),
			MeterProvider:  metricnoop.NewMeterProvider(),
			LoggerProvider: lognoop.NewLoggerProvider(),
		}, nil

	case "stdout":
		traces, err := stdouttrace.New()
		if err != nil {
			return nil, fmt.Errorf("unable to build trace exporter: %w", err)
		}

		metrics, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("unable to build metric exporter: %w", err)
		}

		logs, err := stdoutlog.New()
		if err != nil {
			return nil, fmt.Errorf("unable to build log exporter: %w", err)
		}

		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traces))
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metrics)))
		lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(logs)))

		return &providers{
			TracerProvider: tp,
			MeterProvider:  mp,
			LoggerProvider: lp,
			shutdown: []func(context.Context) error{
				tp.Shutdown,
				mp.Shutdown,
				lp.Shutdown,
			},
		}, nil

	default:
		return nil, fmt.Errorf("telemetry exporter %q is not supported", cfg.Exporter)
	}
}

// Shutdown flushes and stops any providers that export telemetry.
func (p *providers) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdown {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}
