package aggregate

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/dogmatiq/psikit/internal/x/xtesting"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
	"pgregory.net/rapid"
)

// RunTests runs tests that confirm a [Store] implementation behaves correctly.
//
// newStore must return a store that accepts at most threshold contributions
// per set ID. It may return the same store for multiple calls with the same
// threshold, as each test uses its own set IDs.
func RunTests(
	t *testing.T,
	newStore func(t *testing.T, threshold uint) Store,
) {
	setID := func() string {
		return xtesting.SequentialName("set")
	}

	contribute := func(t *testing.T, s Store, id string, elements ...string) Contribution {
		t.Helper()

		c, err := s.Contribute(t.Context(), id, elements)
		if err != nil {
			t.Fatal(err)
		}

		return c
	}

	retrieve := func(t *testing.T, s Store, id string) Retrieval {
		t.Helper()

		r, err := s.Retrieve(t.Context(), id)
		if err != nil {
			t.Fatal(err)
		}

		return r
	}

	expect := func(t *testing.T, got, want any) {
		t.Helper()

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("unexpected result (-want +got):\n%s", diff)
		}
	}

	t.Run("Contribute", func(t *testing.T) {
		t.Parallel()

		t.Run("it accepts contributions up to the threshold", func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 3)
			id := setID()

			for i := range uint(3) {
				expect(
					t,
					contribute(t, s, id, "<element>"),
					Contribution{Accepted: true, Count: i + 1},
				)
			}
		})

		t.Run("it rejects contributions after the threshold is reached", func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 1)
			id := setID()

			contribute(t, s, id, "a", "b")

			expect(
				t,
				contribute(t, s, id, "a"),
				Contribution{Count: 1, Reason: ReasonThresholdReached},
			)

			expect(
				t,
				retrieve(t, s, id),
				Retrieval{Found: true, Intersection: []string{"a", "b"}, Froze: true},
			)
		})

		t.Run("it rejects contributions after the intersection is locked", func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 5)
			id := setID()

			contribute(t, s, id, "a", "b")
			retrieve(t, s, id)

			expect(
				t,
				contribute(t, s, id, "a"),
				Contribution{Count: 1, Reason: ReasonLocked},
			)

			expect(
				t,
				retrieve(t, s, id),
				Retrieval{Found: true, Intersection: []string{"a", "b"}},
			)
		})

		t.Run("it reports a locked record as locked even when it is full", func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 1)
			id := setID()

			contribute(t, s, id, "a")
			retrieve(t, s, id)

			expect(
				t,
				contribute(t, s, id, "a"),
				Contribution{Count: 1, Reason: ReasonLocked},
			)
		})

		t.Run("it collapses duplicate elements within a contribution", func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 2)
			id := setID()

			contribute(t, s, id, "a", "a", "b")
			contribute(t, s, id, "b", "a", "b")

			expect(
				t,
				retrieve(t, s, id),
				Retrieval{Found: true, Intersection: []string{"a", "b"}, Froze: true},
			)
		})

		t.Run("it accepts an empty contribution", func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 2)
			id := setID()

			contribute(t, s, id, "a")

			expect(
				t,
				contribute(t, s, id),
				Contribution{Accepted: true, Count: 2},
			)

			expect(
				t,
				retrieve(t, s, id),
				Retrieval{Found: true, Intersection: []string{}, Froze: true},
			)
		})

		t.Run("it keeps set IDs isolated from one another", func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 2)
			id1 := setID()
			id2 := setID()

			contribute(t, s, id1, "a", "b")
			contribute(t, s, id2, "c")
			contribute(t, s, id1, "b")
			retrieve(t, s, id1)

			expect(
				t,
				contribute(t, s, id2, "c", "d"),
				Contribution{Accepted: true, Count: 2},
			)

			expect(
				t,
				retrieve(t, s, id2),
				Retrieval{Found: true, Intersection: []string{"c"}, Froze: true},
			)
		})

		t.Run("it does not keep a reference to the elements slice", func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 1)
			id := setID()

			elements := []string{"a", "b"}
			contribute(t, s, id, elements...)
			elements[0] = "X"

			expect(
				t,
				retrieve(t, s, id),
				Retrieval{Found: true, Intersection: []string{"a", "b"}, Froze: true},
			)
		})

		t.Run("it accepts exactly threshold contributions from concurrent callers", func(t *testing.T) {
			t.Parallel()

			const (
				threshold = 5
				callers   = 20
			)

			s := newStore(t, threshold)
			id := setID()

			var accepted, rejected atomic.Int64
			g, ctx := errgroup.WithContext(t.Context())

			for i := range callers {
				g.Go(func() error {
					c, err := s.Contribute(ctx, id, []string{"common", fmt.Sprintf("<unique-%d>", i)})
					if err != nil {
						return err
					}

					if c.Accepted {
						accepted.Add(1)
					} else if c.Reason == ReasonThresholdReached {
						rejected.Add(1)
					} else {
						return fmt.Errorf("unexpected rejection reason: %s", c.Reason)
					}

					return nil
				})
			}

			if err := g.Wait(); err != nil {
				t.Fatal(err)
			}

			if got := accepted.Load(); got != threshold {
				t.Fatalf("unexpected number of accepted contributions: got %d, want %d", got, threshold)
			}

			if got := rejected.Load(); got != callers-threshold {
				t.Fatalf("unexpected number of rejected contributions: got %d, want %d", got, callers-threshold)
			}

			expect(
				t,
				retrieve(t, s, id),
				Retrieval{Found: true, Intersection: []string{"common"}, Froze: true},
			)
		})
	})

	t.Run("Retrieve", func(t *testing.T) {
		t.Parallel()

		t.Run("it reports an unknown set ID as not found", func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 2)

			expect(
				t,
				retrieve(t, s, setID()),
				Retrieval{},
			)
		})

		t.Run("it does not create a record for an unknown set ID", func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 2)
			id := setID()

			retrieve(t, s, id)

			expect(
				t,
				contribute(t, s, id, "a"),
				Contribution{Accepted: true, Count: 1},
			)

			expect(
				t,
				retrieve(t, s, id),
				Retrieval{Found: true, Intersection: []string{"a"}, Froze: true},
			)
		})

		t.Run("it allows retrieval before the threshold is reached", func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 10)
			id := setID()

			contribute(t, s, id, "b", "a", "c")

			expect(
				t,
				retrieve(t, s, id),
				Retrieval{Found: true, Intersection: []string{"a", "b", "c"}, Froze: true},
			)
		})

		t.Run("it returns the same intersection on every retrieval", func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 2)
			id := setID()

			contribute(t, s, id, "a", "b", "c")
			contribute(t, s, id, "c", "b", "z")

			first := retrieve(t, s, id)

			for range 3 {
				r := retrieve(t, s, id)
				expect(t, r.Intersection, first.Intersection)

				if r.Froze {
					t.Fatal("expected only the first retrieval to freeze the intersection")
				}
			}
		})

		t.Run("it reports exactly one freeze among concurrent retrievals", func(t *testing.T) {
			t.Parallel()

			const callers = 20

			s := newStore(t, 3)
			id := setID()

			contribute(t, s, id, "a", "b")
			contribute(t, s, id, "b")

			var froze atomic.Int64
			g, ctx := errgroup.WithContext(t.Context())

			for range callers {
				g.Go(func() error {
					r, err := s.Retrieve(ctx, id)
					if err != nil {
						return err
					}

					if !r.Found {
						return fmt.Errorf("expected set ID to be found")
					}

					if diff := cmp.Diff([]string{"b"}, r.Intersection); diff != "" {
						return fmt.Errorf("unexpected intersection (-want +got):\n%s", diff)
					}

					if r.Froze {
						froze.Add(1)
					}

					return nil
				})
			}

			if err := g.Wait(); err != nil {
				t.Fatal(err)
			}

			if got := froze.Load(); got != 1 {
				t.Fatalf("unexpected number of freezing retrievals: got %d, want 1", got)
			}
		})

		t.Run("it linearizes concurrent contributions and retrievals", func(t *testing.T) {
			t.Parallel()

			const callers = 10

			s := newStore(t, callers)
			id := setID()

			contribute(t, s, id, "a", "b")

			g, ctx := errgroup.WithContext(t.Context())
			results := make(chan Contribution, callers)

			for range callers {
				g.Go(func() error {
					c, err := s.Contribute(ctx, id, []string{"b"})
					if err != nil {
						return err
					}
					results <- c
					return nil
				})
			}

			var r Retrieval
			g.Go(func() error {
				var err error
				r, err = s.Retrieve(ctx, id)
				return err
			})

			if err := g.Wait(); err != nil {
				t.Fatal(err)
			}
			close(results)

			var accepted uint
			for c := range results {
				if c.Accepted {
					accepted++
				} else if c.Reason != ReasonLocked {
					t.Fatalf("unexpected rejection reason: %s", c.Reason)
				}
			}

			if accepted == 0 {
				expect(t, r.Intersection, []string{"a", "b"})
			} else {
				expect(t, r.Intersection, []string{"b"})
			}

			if !r.Froze {
				t.Fatal("expected the only retrieval to freeze the intersection")
			}
		})
	})

	t.Run("it behaves as described in the protocol walkthrough", func(t *testing.T) {
		t.Parallel()

		s := newStore(t, 2)
		id := setID()

		expect(t, contribute(t, s, id, "a", "b", "c"), Contribution{Accepted: true, Count: 1})
		expect(t, contribute(t, s, id, "b", "c", "d"), Contribution{Accepted: true, Count: 2})
		expect(t, contribute(t, s, id, "b"), Contribution{Count: 2, Reason: ReasonThresholdReached})
		expect(t, retrieve(t, s, id), Retrieval{Found: true, Intersection: []string{"b", "c"}, Froze: true})
		expect(t, contribute(t, s, id, "x"), Contribution{Count: 2, Reason: ReasonLocked})
		expect(t, retrieve(t, s, id), Retrieval{Found: true, Intersection: []string{"b", "c"}})
	})

	t.Run("property-based", func(t *testing.T) {
		t.Parallel()

		rapid.Check(t, func(rt *rapid.T) {
			threshold := rapid.UintRange(1, 4).Draw(rt, "threshold")
			s := newStore(t, threshold)

			// Each check uses its own set IDs so that a shared store does
			// not leak state between checks.
			ids := make([]string, 3)
			for i := range ids {
				ids[i] = setID()
			}

			idGen := rapid.SampledFrom(ids)
			elementGen := rapid.SampledFrom([]string{"a", "b", "c", "d", "e"})
			elementsGen := rapid.SliceOfN(elementGen, 0, 5)

			model := map[string]*Record{}

			// accepted and locked form a second model that does not use
			// [Record] or [Elements]. The intersection is computed directly
			// from the accepted contributions.
			accepted := map[string][][]string{}
			locked := map[string]bool{}

			rt.Repeat(
				map[string]func(*rapid.T){
					"Contribute": func(rt *rapid.T) {
						id := idGen.Draw(rt, "set ID")
						elements := elementsGen.Draw(rt, "elements")

						rec, ok := model[id]
						if !ok {
							rec = &Record{}
							model[id] = rec
						}

						want := rec.Contribute(NewElements(elements...), threshold)

						got, err := s.Contribute(context.Background(), id, elements)
						if err != nil {
							rt.Fatal(err)
						}

						if diff := cmp.Diff(want, got); diff != "" {
							rt.Fatalf("unexpected contribution (-want +got):\n%s", diff)
						}

						open := !locked[id] && uint(len(accepted[id])) < threshold
						if got.Accepted != open {
							rt.Fatalf("unexpected acceptance: got %t, want %t", got.Accepted, open)
						}

						if got.Accepted {
							accepted[id] = append(accepted[id], elements)
						}

						if got.Count != uint(len(accepted[id])) {
							rt.Fatalf("unexpected count: got %d, want %d", got.Count, len(accepted[id]))
						}
					},
					"Retrieve": func(rt *rapid.T) {
						id := idGen.Draw(rt, "set ID")

						var want Retrieval
						if rec, ok := model[id]; ok {
							want = rec.Retrieve()
						}

						got, err := s.Retrieve(context.Background(), id)
						if err != nil {
							rt.Fatal(err)
						}

						if diff := cmp.Diff(want, got); diff != "" {
							rt.Fatalf("unexpected retrieval (-want +got):\n%s", diff)
						}

						var independent Retrieval
						if contributions := accepted[id]; len(contributions) != 0 {
							independent = Retrieval{
								Found:        true,
								Intersection: intersect(contributions),
								Froze:        !locked[id],
							}
							locked[id] = true
						}

						if diff := cmp.Diff(independent, got); diff != "" {
							rt.Fatalf("retrieval does not match the intersection of accepted contributions (-want +got):\n%s", diff)
						}
					},
				},
			)
		})
	})
}

// intersect returns the sorted elements present in every one of the given
// contributions.
func intersect(contributions [][]string) []string {
	counts := map[string]int{}
	for _, c := range contributions {
		seen := map[string]bool{}
		for _, e := range c {
			if !seen[e] {
				seen[e] = true
				counts[e]++
			}
		}
	}

	result := []string{}
	for e, n := range counts {
		if n == len(contributions) {
			result = append(result, e)
		}
	}
	slices.Sort(result)

	return result
}
