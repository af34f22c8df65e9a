// Package resource holds the remote-data state machine shared by every page:
// Idle → Loading → Success(T) | Failed(err), parameterized by a fetch function.
package resource

import (
	"context"
	"errors"
	"sync"
)

type State string

const (
	Idle    State = "idle"
	Loading State = "loading"
	Success State = "success"
	Failed  State = "failed"
)

// Fetcher loads the remote value.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Resource tracks one remote value. Safe for concurrent use.
type Resource[T any] struct {
	mu        sync.RWMutex
	fetch     Fetcher[T]
	transform func(T) T
	state     State
	data      T
	err       error
}

type Option[T any] func(*Resource[T])

// WithTransform post-processes every successfully fetched value.
func WithTransform[T any](fn func(T) T) Option[T] {
	return func(r *Resource[T]) {
		r.transform = fn
	}
}

func New[T any](fetch Fetcher[T], opts ...Option[T]) *Resource[T] {
	r := &Resource[T]{fetch: fetch, state: Idle}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load runs the fetcher. A failed load keeps the last good data.
func (r *Resource[T]) Load(ctx context.Context) error {
	r.mu.Lock()
	r.state = Loading
	r.err = nil
	r.mu.Unlock()

	data, err := r.fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.state = Failed
		r.err = err
		return err
	}

	if r.transform != nil {
		data = r.transform(data)
	}
	r.data = data
	r.state = Success
	return nil
}

func (r *Resource[T]) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Snapshot - сериализуемое состояние ресурса
type Snapshot[T any] struct {
	State State  `json:"state"`
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

func (r *Resource[T]) Snapshot() Snapshot[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot[T]{State: r.state, Data: r.data, Err: r.err}
	if r.err != nil {
		snap.Error = r.err.Error()
	}
	return snap
}

// Describe replaces the raw error text with a user-facing message.
func (s Snapshot[T]) Describe(message func(error) string) Snapshot[T] {
	if s.Err != nil {
		s.Error = message(s.Err)
	}
	return s
}

// Loader is satisfied by every Resource regardless of its type parameter.
type Loader interface {
	Load(ctx context.Context) error
}

// LoadAll loads every resource concurrently. A failure in one load never
// cancels the others; the returned error joins all failures.
func LoadAll(ctx context.Context, loaders ...Loader) error {
	var wg sync.WaitGroup
	errs := make([]error, len(loaders))

	for i, l := range loaders {
		wg.Add(1)
		go func(i int, l Loader) {
			defer wg.Done()
			errs[i] = l.Load(ctx)
		}(i, l)
	}
	wg.Wait()

	return errors.Join(errs...)
}
