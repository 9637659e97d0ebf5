package aggregate_test

import (
	"testing"

	. "github.com/dogmatiq/psikit/aggregate"
	"github.com/dogmatiq/psikit/driver/memory/memoryaggregate"
	nooplog "go.opentelemetry.io/otel/log/noop"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

func TestWithTelemetry(t *testing.T) {
	RunTests(
		t,
		func(t *testing.T, threshold uint) Store {
			return WithTelemetry(
				memoryaggregate.NewStore(threshold),
				nooptrace.NewTracerProvider(),
				noopmetric.NewMeterProvider(),
				nooplog.NewLoggerProvider(),
			)
		},
	)

	t.Run("it records span events for each outcome", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()

		store := WithTelemetry(
			memoryaggregate.NewStore(1),
			sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)),
			noopmetric.NewMeterProvider(),
			nooplog.NewLoggerProvider(),
		)

		if _, err := store.Retrieve(t.Context(), "<set>"); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Contribute(t.Context(), "<set>", []string{"<secret>"}); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Contribute(t.Context(), "<set>", []string{"<secret>"}); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Retrieve(t.Context(), "<set>"); err != nil {
			t.Fatal(err)
		}

		want := map[string]bool{
			"retrieve.not_found":  false,
			"contribute.accepted": false,
			"contribute.rejected": false,
			"retrieve.frozen":     false,
		}

		for _, span := range recorder.Ended() {
			for _, ev := range span.Events() {
				if _, ok := want[ev.Name]; ok {
					want[ev.Name] = true
				}
			}
		}

		for name, seen := range want {
			if !seen {
				t.Errorf("expected a %s span event", name)
			}
		}
	})

	t.Run("it does not record element values", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()

		store := WithTelemetry(
			memoryaggregate.NewStore(1),
			sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)),
			noopmetric.NewMeterProvider(),
			nooplog.NewLoggerProvider(),
		)

		if _, err := store.Contribute(t.Context(), "<set>", []string{"<secret>"}); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Retrieve(t.Context(), "<set>"); err != nil {
			t.Fatal(err)
		}

		for _, span := range recorder.Ended() {
			for _, attr := range span.Attributes() {
				if attr.Value.Emit() == "<secret>" {
					t.Fatalf("span %s recorded an element value in %s", span.Name(), attr.Key)
				}
			}

			for _, ev := range span.Events() {
				for _, attr := range ev.Attributes {
					if attr.Value.Emit() == "<secret>" {
						t.Fatalf("event %s recorded an element value in %s", ev.Name, attr.Key)
					}
				}
			}
		}
	})
}
