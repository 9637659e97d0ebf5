package aggregate_test

import (
	"testing"

	. "github.com/dogmatiq/psikit/aggregate"
	"github.com/google/go-cmp/cmp"
)

func TestElements(t *testing.T) {
	t.Run("func NewElements()", func(t *testing.T) {
		t.Run("it collapses duplicate values", func(t *testing.T) {
			e := NewElements("a", "b", "a")

			if e.Len() != 2 {
				t.Fatalf("unexpected length: got %d, want 2", e.Len())
			}
		})
	})

	t.Run("func Intersect()", func(t *testing.T) {
		cases := []struct {
			Desc  string
			Left  Elements
			Right Elements
			Want  []string
		}{
			{"overlapping", NewElements("a", "b", "c"), NewElements("b", "c", "d"), []string{"b", "c"}},
			{"disjoint", NewElements("a"), NewElements("b"), []string{}},
			{"empty left", NewElements(), NewElements("a"), []string{}},
			{"nil right", NewElements("a"), nil, []string{}},
			{"identical", NewElements("a", "b"), NewElements("b", "a"), []string{"a", "b"}},
		}

		for _, c := range cases {
			t.Run(c.Desc, func(t *testing.T) {
				got := c.Left.Intersect(c.Right).Sorted()
				if diff := cmp.Diff(c.Want, got); diff != "" {
					t.Fatalf("unexpected intersection (-want +got):\n%s", diff)
				}

				got = c.Right.Intersect(c.Left).Sorted()
				if diff := cmp.Diff(c.Want, got); diff != "" {
					t.Fatalf("intersection is not commutative (-want +got):\n%s", diff)
				}
			})
		}

		t.Run("it does not modify its operands", func(t *testing.T) {
			left := NewElements("a", "b")
			right := NewElements("b")

			left.Intersect(right)

			if !left.Has("a") || left.Len() != 2 {
				t.Fatal("expected left operand to be unchanged")
			}
		})
	})

	t.Run("func Clone()", func(t *testing.T) {
		t.Run("it returns an independent copy", func(t *testing.T) {
			orig := NewElements("a")
			clone := orig.Clone()
			clone["b"] = struct{}{}

			if orig.Has("b") {
				t.Fatal("expected original to be unchanged")
			}
		})

		t.Run("it returns a non-nil set when cloning nil", func(t *testing.T) {
			var e Elements
			if e.Clone() == nil {
				t.Fatal("expected non-nil set")
			}
		})
	})

	t.Run("func Sorted()", func(t *testing.T) {
		t.Run("it returns members in lexical order", func(t *testing.T) {
			got := NewElements("c", "a", "b").Sorted()
			if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
				t.Fatalf("unexpected members (-want +got):\n%s", diff)
			}
		})

		t.Run("it returns an empty non-nil slice for an empty set", func(t *testing.T) {
			if got := NewElements().Sorted(); got == nil || len(got) != 0 {
				t.Fatalf("unexpected result: %#v", got)
			}
		})
	})
}
