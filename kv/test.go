package kv

import (
	"bytes"
	"context"
	"testing"

	"github.com/dogmatiq/psikit/internal/x/xtesting"
	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

// RunTests runs tests that confirm a [Store] implementation behaves correctly.
func RunTests(
	t *testing.T,
	store Store,
) {
	setup := func(t *testing.T) Keyspace {
		name := xtesting.SequentialName("keyspace")

		ks, err := store.Open(t.Context(), name)
		if err != nil {
			t.Fatal(err)
		}

		t.Cleanup(func() {
			if err := ks.Close(); err != nil {
				t.Error(err)
			}
		})

		if ks.Name() != name {
			t.Fatalf("unexpected keyspace name: got %q, want %q", ks.Name(), name)
		}

		return ks
	}

	t.Run("Store", func(t *testing.T) {
		t.Parallel()

		t.Run("Open", func(t *testing.T) {
			t.Parallel()

			t.Run("allows keyspaces to be opened multiple times", func(t *testing.T) {
				t.Parallel()

				name := xtesting.SequentialName("keyspace")

				ks1, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer ks1.Close()

				ks2, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer ks2.Close()

				want := []byte("<value>")
				if err := ks1.Set(t.Context(), []byte("<key>"), want, 0); err != nil {
					t.Fatal(err)
				}

				got, rev, err := ks2.Get(t.Context(), []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}

				if !bytes.Equal(got, want) {
					t.Fatalf("unexpected value: got %q, want %q", got, want)
				}

				if rev != 1 {
					t.Fatalf("unexpected revision: got %d, want 1", rev)
				}
			})

			t.Run("isolates keyspaces with different names", func(t *testing.T) {
				t.Parallel()

				ks1 := setup(t)
				ks2 := setup(t)

				if err := ks1.Set(t.Context(), []byte("<key>"), []byte("<value>"), 0); err != nil {
					t.Fatal(err)
				}

				v, rev, err := ks2.Get(t.Context(), []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}

				if len(v) != 0 || rev != 0 {
					t.Fatalf("expected key to be absent from other keyspace, got %q at revision %d", v, rev)
				}
			})
		})
	})

	t.Run("Keyspace", func(t *testing.T) {
		t.Parallel()

		t.Run("Get", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns an empty value and zero revision if the key doesn't exist", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				v, rev, err := ks.Get(t.Context(), []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}
				if len(v) != 0 {
					t.Fatal("expected zero-length value")
				}
				if rev != 0 {
					t.Fatalf("unexpected revision: got %d, want 0", rev)
				}
			})

			t.Run("it returns the latest value and revision", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)
				k := []byte("<key>")

				var rev Revision
				for _, v := range []string{"<value-1>", "<value-2>", "<value-3>"} {
					if err := ks.Set(t.Context(), k, []byte(v), rev); err != nil {
						t.Fatal(err)
					}
					rev++
				}

				v, r, err := ks.Get(t.Context(), k)
				if err != nil {
					t.Fatal(err)
				}

				if got, want := string(v), "<value-3>"; got != want {
					t.Fatalf("unexpected value: got %q, want %q", got, want)
				}

				if r != 3 {
					t.Fatalf("unexpected revision: got %d, want 3", r)
				}
			})

			t.Run("it does not return its internal byte slice", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)
				k := []byte("<key>")

				if err := ks.Set(t.Context(), k, []byte("<value>"), 0); err != nil {
					t.Fatal(err)
				}

				v, _, err := ks.Get(t.Context(), k)
				if err != nil {
					t.Fatal(err)
				}

				v[0] = 'X'

				v, _, err = ks.Get(t.Context(), k)
				if err != nil {
					t.Fatal(err)
				}

				if got, want := string(v), "<value>"; got != want {
					t.Fatalf("unexpected value: got %q, want %q", got, want)
				}
			})
		})

		t.Run("Set", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns a conflict error if a new key already exists", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)
				k := []byte("<key>")

				if err := ks.Set(t.Context(), k, []byte("<value-1>"), 0); err != nil {
					t.Fatal(err)
				}

				err := ks.Set(t.Context(), k, []byte("<value-2>"), 0)
				if !IsConflict(err) {
					t.Fatalf("expected conflict error, got %v", err)
				}

				v, rev, err := ks.Get(t.Context(), k)
				if err != nil {
					t.Fatal(err)
				}

				if got, want := string(v), "<value-1>"; got != want {
					t.Fatalf("unexpected value: got %q, want %q", got, want)
				}

				if rev != 1 {
					t.Fatalf("unexpected revision: got %d, want 1", rev)
				}
			})

			t.Run("it returns a conflict error if the revision is stale", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)
				k := []byte("<key>")

				if err := ks.Set(t.Context(), k, []byte("<value-1>"), 0); err != nil {
					t.Fatal(err)
				}
				if err := ks.Set(t.Context(), k, []byte("<value-2>"), 1); err != nil {
					t.Fatal(err)
				}

				err := ks.Set(t.Context(), k, []byte("<value-3>"), 1)
				if !IsConflict(err) {
					t.Fatalf("expected conflict error, got %v", err)
				}
			})

			t.Run("it returns a conflict error if the key does not exist", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)

				err := ks.Set(t.Context(), []byte("<key>"), []byte("<value>"), 1)
				if !IsConflict(err) {
					t.Fatalf("expected conflict error, got %v", err)
				}
			})

			t.Run("it does not keep a reference to the key slice", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)
				k := []byte("<key>")

				if err := ks.Set(t.Context(), k, []byte("<value>"), 0); err != nil {
					t.Fatal(err)
				}

				k[0] = 'X'

				v, _, err := ks.Get(t.Context(), []byte("<key>"))
				if err != nil {
					t.Fatal(err)
				}

				if got, want := string(v), "<value>"; got != want {
					t.Fatalf("unexpected value: got %q, want %q", got, want)
				}
			})

			t.Run("it does not keep a reference to the value slice", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)
				k := []byte("<key>")
				v := []byte("<value>")

				if err := ks.Set(t.Context(), k, v, 0); err != nil {
					t.Fatal(err)
				}

				v[0] = 'X'

				got, _, err := ks.Get(t.Context(), k)
				if err != nil {
					t.Fatal(err)
				}

				if string(got) != "<value>" {
					t.Fatalf("unexpected value: got %q, want %q", got, "<value>")
				}
			})

			t.Run("it allows exactly one of several concurrent writers to succeed", func(t *testing.T) {
				t.Parallel()

				ks := setup(t)
				k := []byte("<key>")

				const writers = 10
				results := make(chan error, writers)

				for range writers {
					go func() {
						results <- ks.Set(context.WithoutCancel(t.Context()), k, []byte("<value>"), 0)
					}()
				}

				succeeded := 0
				for range writers {
					err := <-results
					if err == nil {
						succeeded++
					} else if !IsConflict(err) {
						t.Fatal(err)
					}
				}

				if succeeded != 1 {
					t.Fatalf("unexpected number of successful writers: got %d, want 1", succeeded)
				}
			})
		})
	})

	t.Run("property-based", func(t *testing.T) {
		t.Parallel()

		rapid.Check(t, func(t *rapid.T) {
			ks, err := store.Open(t.Context(), xtesting.SequentialName("keyspace"))
			if err != nil {
				t.Fatal(err)
			}
			defer ks.Close()

			type pair struct {
				Value    string
				Revision Revision
			}

			keyGen := rapid.SampledFrom([]string{"a", "b", "c", "d"})
			valueGen := rapid.StringN(1, 16, -1)
			model := map[string]pair{}

			t.Repeat(
				map[string]func(*rapid.T){
					"Get": func(t *rapid.T) {
						k := keyGen.Draw(t, "key")

						v, r, err := ks.Get(t.Context(), []byte(k))
						if err != nil {
							t.Fatal(err)
						}

						got := pair{string(v), r}
						if diff := cmp.Diff(model[k], got); diff != "" {
							t.Fatalf("unexpected pair for key %q (-want +got):\n%s", k, diff)
						}
					},
					"Set (current revision)": func(t *rapid.T) {
						k := keyGen.Draw(t, "key")
						v := valueGen.Draw(t, "value")
						p := model[k]

						if err := ks.Set(t.Context(), []byte(k), []byte(v), p.Revision); err != nil {
							t.Fatal(err)
						}

						model[k] = pair{v, p.Revision + 1}
					},
					"Set (wrong revision)": func(t *rapid.T) {
						k := keyGen.Draw(t, "key")
						v := valueGen.Draw(t, "value")
						p := model[k]
						r := p.Revision + Revision(rapid.Uint64Range(1, 3).Draw(t, "offset"))

						err := ks.Set(t.Context(), []byte(k), []byte(v), r)
						if !IsConflict(err) {
							t.Fatalf("expected conflict error, got %v", err)
						}
					},
				},
			)
		})
	})
}
