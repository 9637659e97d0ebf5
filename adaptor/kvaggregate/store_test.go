package kvaggregate_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	. "github.com/dogmatiq/psikit/adaptor/kvaggregate"
	"github.com/dogmatiq/psikit/aggregate"
	"github.com/dogmatiq/psikit/driver/memory/memorykv"
	"github.com/dogmatiq/psikit/kv"
	"github.com/google/go-cmp/cmp"
)

func TestStore(t *testing.T) {
	newStore := func(t testing.TB, kvs kv.Store, threshold uint, options ...Option) *Store {
		t.Helper()

		s, err := NewStore(t.Context(), kvs, threshold, options...)
		if err != nil {
			t.Fatal(err)
		}

		t.Cleanup(func() {
			if err := s.Close(); err != nil {
				t.Error(err)
			}
		})

		return s
	}

	aggregate.RunTests(
		t,
		func(t *testing.T, threshold uint) aggregate.Store {
			return newStore(t, &memorykv.Store{}, threshold)
		},
	)

	t.Run("it retries a contribution that conflicts with a concurrent contribution", func(t *testing.T) {
		t.Parallel()

		base := &memorykv.Store{}
		other := newStore(t, base, 2)

		var in kv.Interceptor
		s := newStore(t, kv.WithInterceptor(base, &in), 2)

		var injected atomic.Bool
		in.BeforeSet(func(string, []byte, []byte, kv.Revision) error {
			if injected.CompareAndSwap(false, true) {
				_, err := other.Contribute(context.Background(), "<set>", []string{"a", "z"})
				return err
			}
			return nil
		})

		c, err := s.Contribute(t.Context(), "<set>", []string{"a", "b"})
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(aggregate.Contribution{Accepted: true, Count: 2}, c); diff != "" {
			t.Fatalf("unexpected contribution (-want +got):\n%s", diff)
		}

		r, err := s.Retrieve(t.Context(), "<set>")
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff([]string{"a"}, r.Intersection); diff != "" {
			t.Fatalf("unexpected intersection (-want +got):\n%s", diff)
		}
	})

	t.Run("it does not freeze twice when retrievals conflict", func(t *testing.T) {
		t.Parallel()

		base := &memorykv.Store{}
		other := newStore(t, base, 2)

		if _, err := other.Contribute(t.Context(), "<set>", []string{"a"}); err != nil {
			t.Fatal(err)
		}

		var in kv.Interceptor
		s := newStore(t, kv.WithInterceptor(base, &in), 2)

		var (
			injected   atomic.Bool
			otherFroze atomic.Bool
		)
		in.BeforeSet(func(string, []byte, []byte, kv.Revision) error {
			if injected.CompareAndSwap(false, true) {
				r, err := other.Retrieve(context.Background(), "<set>")
				otherFroze.Store(r.Froze)
				return err
			}
			return nil
		})

		r, err := s.Retrieve(t.Context(), "<set>")
		if err != nil {
			t.Fatal(err)
		}

		if !otherFroze.Load() {
			t.Fatal("expected the concurrent retrieval to freeze the intersection")
		}

		if r.Froze {
			t.Fatal("expected the conflicting retrieval not to report a freeze")
		}

		if diff := cmp.Diff([]string{"a"}, r.Intersection); diff != "" {
			t.Fatalf("unexpected intersection (-want +got):\n%s", diff)
		}
	})

	t.Run("it rejects a contribution that loses a race to the final slot", func(t *testing.T) {
		t.Parallel()

		base := &memorykv.Store{}
		other := newStore(t, base, 1)

		var in kv.Interceptor
		s := newStore(t, kv.WithInterceptor(base, &in), 1)

		var injected atomic.Bool
		in.BeforeSet(func(string, []byte, []byte, kv.Revision) error {
			if injected.CompareAndSwap(false, true) {
				_, err := other.Contribute(context.Background(), "<set>", []string{"x"})
				return err
			}
			return nil
		})

		c, err := s.Contribute(t.Context(), "<set>", []string{"a"})
		if err != nil {
			t.Fatal(err)
		}

		want := aggregate.Contribution{Count: 1, Reason: aggregate.ReasonThresholdReached}
		if diff := cmp.Diff(want, c); diff != "" {
			t.Fatalf("unexpected contribution (-want +got):\n%s", diff)
		}
	})

	t.Run("func WithMaxAttempts()", func(t *testing.T) {
		t.Parallel()

		t.Run("it returns a conflict error after the given number of attempts", func(t *testing.T) {
			t.Parallel()

			var in kv.Interceptor
			s := newStore(t, kv.WithInterceptor(&memorykv.Store{}, &in), 2, WithMaxAttempts(3))

			var attempts atomic.Int64
			in.BeforeSet(func(ks string, k []byte, _ []byte, r kv.Revision) error {
				attempts.Add(1)
				return kv.ConflictError{Keyspace: ks, Key: k, Revision: r}
			})

			_, err := s.Contribute(t.Context(), "<set>", []string{"a"})
			if !kv.IsConflict(err) {
				t.Fatalf("expected conflict error, got %v", err)
			}

			if got := attempts.Load(); got != 3 {
				t.Fatalf("unexpected number of attempts: got %d, want 3", got)
			}
		})

		t.Run("it stops retrying when the context is canceled", func(t *testing.T) {
			t.Parallel()

			var in kv.Interceptor
			s := newStore(t, kv.WithInterceptor(&memorykv.Store{}, &in), 2)

			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			in.BeforeSet(func(ks string, k []byte, _ []byte, r kv.Revision) error {
				cancel()
				return kv.ConflictError{Keyspace: ks, Key: k, Revision: r}
			})

			_, err := s.Contribute(ctx, "<set>", []string{"a"})
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("expected context.Canceled, got %v", err)
			}
		})
	})

	t.Run("it returns an error if the persisted record is corrupt", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			Desc  string
			Setup func(t *testing.T, base kv.Store)
		}{
			{
				"undecodable value",
				func(t *testing.T, base kv.Store) {
					ks, err := base.Open(t.Context(), KeyspaceName)
					if err != nil {
						t.Fatal(err)
					}
					defer ks.Close()

					if err := ks.Set(t.Context(), []byte("<set>"), []byte{0xff}, 0); err != nil {
						t.Fatal(err)
					}
				},
			},
			{
				"contribution count above the threshold",
				func(t *testing.T, base kv.Store) {
					s := newStore(t, base, 5)
					for range 3 {
						if _, err := s.Contribute(t.Context(), "<set>", []string{"a"}); err != nil {
							t.Fatal(err)
						}
					}
				},
			},
		}

		for _, c := range cases {
			t.Run(c.Desc, func(t *testing.T) {
				t.Parallel()

				base := &memorykv.Store{}
				c.Setup(t, base)

				s := newStore(t, base, 2)

				if _, err := s.Contribute(t.Context(), "<set>", []string{"a"}); !IsCorruptRecord(err) {
					t.Fatalf("expected corrupt record error, got %v", err)
				}

				if _, err := s.Retrieve(t.Context(), "<set>"); !IsCorruptRecord(err) {
					t.Fatalf("expected corrupt record error, got %v", err)
				}
			})
		}
	})

	t.Run("it persists records across store instances", func(t *testing.T) {
		t.Parallel()

		base := &memorykv.Store{}

		s1 := newStore(t, base, 2)
		if _, err := s1.Contribute(t.Context(), "<set>", []string{"a", "b"}); err != nil {
			t.Fatal(err)
		}
		if _, err := s1.Retrieve(t.Context(), "<set>"); err != nil {
			t.Fatal(err)
		}

		s2 := newStore(t, base, 2)

		c, err := s2.Contribute(t.Context(), "<set>", []string{"a"})
		if err != nil {
			t.Fatal(err)
		}

		if c.Reason != aggregate.ReasonLocked {
			t.Fatalf("unexpected rejection reason: got %s, want %s", c.Reason, aggregate.ReasonLocked)
		}
	})
}

func BenchmarkStore(b *testing.B) {
	aggregate.RunBenchmarks(
		b,
		func(b *testing.B, threshold uint) aggregate.Store {
			s, err := NewStore(b.Context(), &memorykv.Store{}, threshold)
			if err != nil {
				b.Fatal(err)
			}
			return s
		},
	)
}
