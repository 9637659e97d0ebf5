package kv

import (
	"context"
	"sync/atomic"
)

// Interceptor defines functions that are invoked around keyspace operations.
//
// The functions may be changed at any time, including while the store is in
// use.
type Interceptor struct {
	beforeOpen hook[func(string) error]
	beforeSet  hook[func(string, []byte, []byte, Revision) error]
	afterSet   hook[func(string, []byte, []byte, Revision) error]
}

// BeforeOpen sets the function that is invoked before a [Keyspace] is opened.
func (i *Interceptor) BeforeOpen(fn func(name string) error) {
	i.beforeOpen.set(fn)
}

// BeforeSet sets the function that is invoked before a key/value pair is set.
//
// If fn returns an error the pair is not set and the error is returned to the
// caller.
func (i *Interceptor) BeforeSet(fn func(keyspace string, k, v []byte, r Revision) error) {
	i.beforeSet.set(fn)
}

// AfterSet sets the function that is invoked after a key/value pair is set
// successfully.
func (i *Interceptor) AfterSet(fn func(keyspace string, k, v []byte, r Revision) error) {
	i.afterSet.set(fn)
}

// hook holds a function that may be replaced while it is being called.
type hook[F any] struct {
	p atomic.Pointer[F]
}

func (h *hook[F]) set(fn F) {
	h.p.Store(&fn)
}

// get returns the current function, or the zero value if none has been set.
func (h *hook[F]) get() (fn F) {
	if p := h.p.Load(); p != nil {
		fn = *p
	}
	return fn
}

// WithInterceptor returns a [Store] that invokes the functions defined by the
// given [Interceptor] when performing operations on s.
func WithInterceptor(s Store, in *Interceptor) Store {
	if in == nil {
		return s
	}

	return &interceptedStore{
		Next:        s,
		Interceptor: in,
	}
}

type interceptedStore struct {
	Next        Store
	Interceptor *Interceptor
}

func (s *interceptedStore) Open(ctx context.Context, name string) (Keyspace, error) {
	if fn := s.Interceptor.beforeOpen.get(); fn != nil {
		if err := fn(name); err != nil {
			return nil, err
		}
	}

	next, err := s.Next.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	return &interceptedKeyspace{
		Keyspace:    next,
		Interceptor: s.Interceptor,
	}, nil
}

type interceptedKeyspace struct {
	Keyspace
	Interceptor *Interceptor
}

func (ks *interceptedKeyspace) Set(ctx context.Context, k, v []byte, r Revision) error {
	name := ks.Keyspace.Name()

	if fn := ks.Interceptor.beforeSet.get(); fn != nil {
		if err := fn(name, k, v, r); err != nil {
			return err
		}
	}

	if err := ks.Keyspace.Set(ctx, k, v, r); err != nil {
		return err
	}

	if fn := ks.Interceptor.afterSet.get(); fn != nil {
		return fn(name, k, v, r)
	}

	return nil
}
