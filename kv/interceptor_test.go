package kv_test

import (
	"errors"
	"testing"

	"github.com/dogmatiq/psikit/driver/memory/memorykv"
	. "github.com/dogmatiq/psikit/kv"
)

func TestWithInterceptor(t *testing.T) {
	t.Parallel()

	setup := func() (Store, *Interceptor) {
		var in Interceptor
		return WithInterceptor(&memorykv.Store{}, &in), &in
	}

	RunTests(t, WithInterceptor(&memorykv.Store{}, &Interceptor{}))

	t.Run("it returns the given store if no interceptor is provided", func(t *testing.T) {
		t.Parallel()

		underlying := &memorykv.Store{}
		store := WithInterceptor(underlying, nil)

		if store != underlying {
			t.Fatalf("unexpected store: got %T, want %T", store, underlying)
		}
	})

	t.Run("it invokes the BeforeOpen function", func(t *testing.T) {
		t.Parallel()

		store, in := setup()

		want := errors.New("<error>")
		in.BeforeOpen(func(string) error {
			return want
		})

		_, got := store.Open(t.Context(), "<keyspace>")
		if got != want {
			t.Fatalf("unexpected error: got %v, want %v", got, want)
		}
	})

	t.Run("it invokes the BeforeSet function", func(t *testing.T) {
		t.Parallel()

		store, in := setup()

		want := errors.New("<error>")
		in.BeforeSet(func(ks string, k, v []byte, r Revision) error {
			if ks != "<keyspace>" {
				t.Errorf("unexpected keyspace: got %q, want %q", ks, "<keyspace>")
			}
			return want
		})

		ks, err := store.Open(t.Context(), "<keyspace>")
		if err != nil {
			t.Fatal(err)
		}
		defer ks.Close()

		if got := ks.Set(t.Context(), []byte("<key>"), []byte("<value>"), 0); got != want {
			t.Fatalf("unexpected error: got %v, want %v", got, want)
		}

		v, _, err := ks.Get(t.Context(), []byte("<key>"))
		if err != nil {
			t.Fatal(err)
		}

		if len(v) != 0 {
			t.Fatal("did not expect value to be set")
		}
	})

	t.Run("it invokes the AfterSet function", func(t *testing.T) {
		t.Parallel()

		store, in := setup()

		want := errors.New("<error>")
		in.AfterSet(func(string, []byte, []byte, Revision) error {
			return want
		})

		ks, err := store.Open(t.Context(), "<keyspace>")
		if err != nil {
			t.Fatal(err)
		}
		defer ks.Close()

		if got := ks.Set(t.Context(), []byte("<key>"), []byte("<value>"), 0); got != want {
			t.Fatalf("unexpected error: got %v, want %v", got, want)
		}

		v, _, err := ks.Get(t.Context(), []byte("<key>"))
		if err != nil {
			t.Fatal(err)
		}

		if string(v) != "<value>" {
			t.Fatal("expected value to be set")
		}
	})

	t.Run("it stops invoking a function once it is cleared", func(t *testing.T) {
		t.Parallel()

		store, in := setup()

		in.BeforeSet(func(string, []byte, []byte, Revision) error {
			return errors.New("<error>")
		})
		in.BeforeSet(nil)

		ks, err := store.Open(t.Context(), "<keyspace>")
		if err != nil {
			t.Fatal(err)
		}
		defer ks.Close()

		if err := ks.Set(t.Context(), []byte("<key>"), []byte("<value>"), 0); err != nil {
			t.Fatal(err)
		}
	})
}
