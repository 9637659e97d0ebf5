package xtesting

import (
	"context"
	"testing"
	"time"
)

// Bench describes a benchmarked operation.
type Bench struct {
	// Setup is called once, before the first iteration. It is optional.
	Setup func(context.Context) error

	// Before is called before each iteration. It is optional.
	Before func(context.Context) error

	// Run is the operation being measured.
	Run func(context.Context) error
}

// stepTimeout bounds each untimed step of a benchmark.
const stepTimeout = 30 * time.Second

// Benchmark runs bench.Run once per iteration of b. Only the time spent in
// bench.Run is measured.
//
// The benchmark is skipped if the framework asks for an implausibly large
// number of iterations, which happens when the operation is too fast to
// measure.
func Benchmark(b *testing.B, bench Bench) {
	if b.N >= 1_000_000 {
		b.Skipf("benchmark skipped, too many iterations (%d)", b.N)
	}

	step(b, bench.Setup)

	for b.Loop() {
		b.StopTimer()
		step(b, bench.Before)
		b.StartTimer()

		if err := bench.Run(b.Context()); err != nil {
			b.Fatal(err)
		}
	}
}

func step(b *testing.B, fn func(context.Context) error) {
	if fn == nil {
		return
	}

	ctx, cancel := context.WithTimeout(b.Context(), stepTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		b.Fatal(err)
	}
}
