package aggregate

import (
	"context"
	"fmt"
	"testing"

	"github.com/dogmatiq/psikit/internal/x/xtesting"
)

// RunBenchmarks runs benchmarks against a [Store] implementation.
func RunBenchmarks(
	b *testing.B,
	newStore func(b *testing.B, threshold uint) Store,
) {
	elements := make([]string, 100)
	for i := range elements {
		elements[i] = fmt.Sprintf("<element-%d>", i)
	}

	b.Run("Contribute", func(b *testing.B) {
		b.Run("first contribution", func(b *testing.B) {
			s := newStore(b, 2)
			var id string

			xtesting.Benchmark(b, xtesting.Bench{
				Before: func(context.Context) error {
					id = xtesting.SequentialName("set")
					return nil
				},
				Run: func(ctx context.Context) error {
					_, err := s.Contribute(ctx, id, elements)
					return err
				},
			})
		})

		b.Run("intersecting contribution", func(b *testing.B) {
			s := newStore(b, 2)
			var id string

			xtesting.Benchmark(b, xtesting.Bench{
				Before: func(ctx context.Context) error {
					id = xtesting.SequentialName("set")
					_, err := s.Contribute(ctx, id, elements)
					return err
				},
				Run: func(ctx context.Context) error {
					_, err := s.Contribute(ctx, id, elements[:50])
					return err
				},
			})
		})

		b.Run("rejected contribution", func(b *testing.B) {
			s := newStore(b, 1)
			id := xtesting.SequentialName("set")

			xtesting.Benchmark(b, xtesting.Bench{
				Setup: func(ctx context.Context) error {
					_, err := s.Contribute(ctx, id, elements)
					return err
				},
				Run: func(ctx context.Context) error {
					_, err := s.Contribute(ctx, id, elements)
					return err
				},
			})
		})
	})

	b.Run("Retrieve", func(b *testing.B) {
		b.Run("first retrieval", func(b *testing.B) {
			s := newStore(b, 1)
			var id string

			xtesting.Benchmark(b, xtesting.Bench{
				Before: func(ctx context.Context) error {
					id = xtesting.SequentialName("set")
					_, err := s.Contribute(ctx, id, elements)
					return err
				},
				Run: func(ctx context.Context) error {
					_, err := s.Retrieve(ctx, id)
					return err
				},
			})
		})

		b.Run("locked retrieval", func(b *testing.B) {
			s := newStore(b, 1)
			id := xtesting.SequentialName("set")

			xtesting.Benchmark(b, xtesting.Bench{
				Setup: func(ctx context.Context) error {
					if _, err := s.Contribute(ctx, id, elements); err != nil {
						return err
					}
					_, err := s.Retrieve(ctx, id)
					return err
				},
				Run: func(ctx context.Context) error {
					_, err := s.Retrieve(ctx, id)
					return err
				},
			})
		})
	})
}
