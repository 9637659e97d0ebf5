package aggregate

import (
	"context"

	"github.com/dogmatiq/psikit/internal/telemetry"
	"github.com/dogmatiq/psikit/internal/x/xtelemetry"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// WithTelemetry returns a [Store] that adds telemetry to s.
//
// Element values are never recorded, only their counts.
func WithTelemetry(
	s Store,
	p trace.TracerProvider,
	m metric.MeterProvider,
	l log.LoggerProvider,
) Store {
	provider := telemetry.Provider{
		TracerProvider: p,
		MeterProvider:  m,
		LoggerProvider: l,
	}

	telem := provider.Recorder(
		"github.com/dogmatiq/psikit/aggregate",
		telemetry.Type("aggregate.store", s),
		telemetry.String("aggregate.handle", xtelemetry.HandleID()),
	)

	return &instrumentedStore{
		Next:             s,
		Telemetry:        telem,
		Accepted:         telem.Counter("contributions.accepted", "{contribution}", "The number of contributions that were merged into an intersection."),
		Rejected:         telem.Counter("contributions.rejected", "{contribution}", "The number of contributions that were discarded."),
		ContributionSize: telem.Histogram("contribution.size", "{element}", "The number of elements in each contribution."),
		Freezes:          telem.Counter("freezes", "{set}", "The number of intersections that have been locked."),
		Misses:           telem.Counter("misses", "{operation}", "The number of retrievals of set IDs without any contributions."),
	}
}

// instrumentedStore is a decorator that adds instrumentation to a [Store].
type instrumentedStore struct {
	Next      Store
	Telemetry *telemetry.Recorder

	Accepted         telemetry.Instrument[int64]
	Rejected         telemetry.Instrument[int64]
	ContributionSize telemetry.Instrument[int64]
	Freezes          telemetry.Instrument[int64]
	Misses           telemetry.Instrument[int64]
}

func (s *instrumentedStore) Contribute(ctx context.Context, setID string, elements []string) (Contribution, error) {
	size := int64(len(elements))

	ctx, span := s.Telemetry.StartSpan(
		ctx,
		"aggregate.contribute",
		telemetry.Binary("set_id", []byte(setID)),
		telemetry.Int("element_count", size),
	)
	defer span.End()

	s.ContributionSize(ctx, size)

	c, err := s.Next.Contribute(ctx, setID, elements)
	if err != nil {
		s.Telemetry.Error(ctx, "contribute.error", err)
		return Contribution{}, err
	}

	span.SetAttributes(
		telemetry.Bool("accepted", c.Accepted),
		telemetry.Int("contributions", c.Count),
		telemetry.If(!c.Accepted, telemetry.Stringer("reason", c.Reason)),
	)

	if c.Accepted {
		s.Accepted(ctx, 1)
		s.Telemetry.Info(
			ctx,
			"contribute.accepted",
			"contribution merged into intersection",
			telemetry.Int("contributions", c.Count),
		)
	} else {
		s.Rejected(ctx, 1, telemetry.Stringer("reason", c.Reason))
		s.Telemetry.Info(
			ctx,
			"contribute.rejected",
			"contribution discarded",
			telemetry.Stringer("reason", c.Reason),
		)
	}

	return c, nil
}

func (s *instrumentedStore) Retrieve(ctx context.Context, setID string) (Retrieval, error) {
	ctx, span := s.Telemetry.StartSpan(
		ctx,
		"aggregate.retrieve",
		telemetry.Binary("set_id", []byte(setID)),
	)
	defer span.End()

	r, err := s.Next.Retrieve(ctx, setID)
	if err != nil {
		s.Telemetry.Error(ctx, "retrieve.error", err)
		return Retrieval{}, err
	}

	span.SetAttributes(
		telemetry.Bool("found", r.Found),
		telemetry.Bool("froze", r.Froze),
		telemetry.Int("intersection_size", len(r.Intersection)),
	)

	switch {
	case !r.Found:
		s.Misses(ctx, 1)
		s.Telemetry.Info(ctx, "retrieve.not_found", "set ID has no contributions")
	case r.Froze:
		s.Freezes(ctx, 1)
		s.Telemetry.Info(
			ctx,
			"retrieve.frozen",
			"intersection locked by first retrieval",
			telemetry.Int("intersection_size", len(r.Intersection)),
		)
	default:
		s.Telemetry.Debug(ctx, "retrieve.ok", "returned locked intersection")
	}

	return r, nil
}
