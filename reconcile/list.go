// Package reconcile keeps a locally cached copy of a remote resource in step
// with the server after each confirmed mutation.
package reconcile

import (
	"context"
	"errors"
	"sync"
)

// ErrSubmitting is returned when a mutation or reload is attempted while
// another one is still in flight on the same list.
var ErrSubmitting = errors.New("a change is already being saved")

type State int

const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// List is a server-confirmed cache of a resource list keyed by K.
//
// Local state only changes after the server answered: a failed mutation
// leaves the list exactly as it was.
type List[T any, K comparable] struct {
	mu         sync.Mutex
	key        func(T) K
	fetch      FetchFunc[T]
	items      []T
	state      State
	err        error
	submitting bool
}

func NewList[T any, K comparable](key func(T) K, fetch FetchFunc[T]) *List[T, K] {
	return &List[T, K]{key: key, fetch: fetch, state: Loading}
}

// Load (re)runs the initial fetch and moves the list to Ready or Failed.
// It shares the submitting guard with the mutations, so a reload never
// races a change the server has not confirmed yet.
func (l *List[T, K]) Load(ctx context.Context) error {
	if err := l.begin(); err != nil {
		return err
	}
	defer l.end()

	l.mu.Lock()
	l.state = Loading
	l.err = nil
	l.mu.Unlock()

	items, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = Failed
		l.err = err
		return err
	}
	l.items = l.dedupe(items)
	l.state = Ready
	return nil
}

func (l *List[T, K]) State() (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.err
}

func (l *List[T, K]) Submitting() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.submitting
}

// Items returns a copy of the cached list.
func (l *List[T, K]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Get returns the cached item with the given key.
func (l *List[T, K]) Get(id K) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, item := range l.items {
		if l.key(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Filter returns the cached items matching pred. It never fetches.
func (l *List[T, K]) Filter(pred func(T) bool) []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, 0, len(l.items))
	for _, item := range l.items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

func (l *List[T, K]) begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.submitting {
		return ErrSubmitting
	}
	l.submitting = true
	return nil
}

func (l *List[T, K]) end() {
	l.mu.Lock()
	l.submitting = false
	l.mu.Unlock()
}

// Create runs create and prepends the item the server returned.
func (l *List[T, K]) Create(ctx context.Context, create func(ctx context.Context) (T, error)) (T, error) {
	if err := l.begin(); err != nil {
		var zero T
		return zero, err
	}
	defer l.end()

	item, err := create(ctx)
	if err != nil {
		return item, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]T{item}, l.without(l.key(item))...)
	return item, nil
}

// Update runs update and swaps the server's version of the item in place.
// An item missing from the cache is prepended.
func (l *List[T, K]) Update(ctx context.Context, update func(ctx context.Context) (T, error)) (T, error) {
	if err := l.begin(); err != nil {
		var zero T
		return zero, err
	}
	defer l.end()

	item, err := update(ctx)
	if err != nil {
		return item, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.replace(item)
	return item, nil
}

// Delete runs del and drops every cached copy of id.
func (l *List[T, K]) Delete(ctx context.Context, id K, del func(ctx context.Context) error) error {
	if err := l.begin(); err != nil {
		return err
	}
	defer l.end()

	if err := del(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = l.without(id)
	return nil
}

// Refresh runs mutate and then replaces the whole cache with a fresh fetch.
// If the mutation succeeded but the fetch failed, the old cache is kept and
// the fetch error is returned.
func (l *List[T, K]) Refresh(ctx context.Context, mutate func(ctx context.Context) error) error {
	if err := l.begin(); err != nil {
		return err
	}
	defer l.end()

	if err := mutate(ctx); err != nil {
		return err
	}
	items, err := l.fetch(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = l.dedupe(items)
	l.state = Ready
	l.err = nil
	return nil
}

// replace must be called with mu held.
func (l *List[T, K]) replace(item T) {
	id := l.key(item)
	out := make([]T, 0, len(l.items)+1)
	placed := false
	for _, existing := range l.items {
		if l.key(existing) != id {
			out = append(out, existing)
			continue
		}
		if !placed {
			out = append(out, item)
			placed = true
		}
	}
	if !placed {
		out = append([]T{item}, out...)
	}
	l.items = out
}

// without must be called with mu held.
func (l *List[T, K]) without(id K) []T {
	out := make([]T, 0, len(l.items))
	for _, existing := range l.items {
		if l.key(existing) != id {
			out = append(out, existing)
		}
	}
	return out
}

func (l *List[T, K]) dedupe(items []T) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		id := l.key(item)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, item)
	}
	return out
}
