package telemetry

import (
	"runtime/debug"
	"sync"

	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Provider provides Recorder instances scoped to particular subsystems.
type Provider struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	LoggerProvider log.LoggerProvider
}

// Recorder records traces, metrics and logs for a particular subsystem.
type Recorder struct {
	tracer trace.Tracer
	meter  metric.Meter
	logger log.Logger

	errors   Instrument[int64]
	ops      Instrument[int64]
	inFlight Instrument[int64]
}

// Recorder returns a new Recorder instance.
//
// pkg is the path of the public package that is performing the
// instrumentation.
func (p *Provider) Recorder(pkg string, attrs ...Attr) *Recorder {
	kvs := asAttrKeyValues(attrs)
	version := moduleVersion()

	r := &Recorder{
		tracer: p.TracerProvider.Tracer(
			pkg,
			trace.WithInstrumentationVersion(version),
			trace.WithInstrumentationAttributes(kvs...),
		),
		meter: p.MeterProvider.Meter(
			pkg,
			metric.WithInstrumentationVersion(version),
			metric.WithInstrumentationAttributes(kvs...),
		),
		logger: p.LoggerProvider.Logger(
			pkg,
			log.WithInstrumentationVersion(version),
			log.WithInstrumentationAttributes(kvs...),
		),
	}

	r.errors = r.Counter("errors", "{error}", "The number of errors that have occurred.")
	r.ops = r.Counter("operations", "{operation}", "The number of operations that have been started.")
	r.inFlight = r.UpDownCounter("operations.in_flight", "{operation}", "The number of operations that are in progress.")

	return r
}

// moduleVersion returns the version of the psikit module linked into the
// running binary, or "unknown".
var moduleVersion = sync.OnceValue(func() string {
	const path = "github.com/dogmatiq/psikit"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	if info.Main.Path == path {
		return info.Main.Version
	}

	for _, dep := range info.Deps {
		if dep.Path == path {
			return dep.Version
		}
	}

	return "unknown"
})
