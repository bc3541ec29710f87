package reconcile

import (
	"context"
	"sync"
)

// Value is the single-document counterpart of List.
type Value[T any] struct {
	mu         sync.Mutex
	fetch      func(ctx context.Context) (T, error)
	value      T
	state      State
	err        error
	submitting bool
}

func NewValue[T any](fetch func(ctx context.Context) (T, error)) *Value[T] {
	return &Value[T]{fetch: fetch, state: Loading}
}

// Load shares the submitting guard with Replace.
func (v *Value[T]) Load(ctx context.Context) error {
	if err := v.begin(); err != nil {
		return err
	}
	defer v.end()

	v.mu.Lock()
	v.state = Loading
	v.err = nil
	v.mu.Unlock()

	value, err := v.fetch(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.state = Failed
		v.err = err
		return err
	}
	v.value = value
	v.state = Ready
	return nil
}

func (v *Value[T]) Submitting() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.submitting
}

func (v *Value[T]) begin() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.submitting {
		return ErrSubmitting
	}
	v.submitting = true
	return nil
}

func (v *Value[T]) end() {
	v.mu.Lock()
	v.submitting = false
	v.mu.Unlock()
}

func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

func (v *Value[T]) State() (State, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state, v.err
}

// Replace runs mutate and stores the document the server returned.
func (v *Value[T]) Replace(ctx context.Context, mutate func(ctx context.Context) (T, error)) (T, error) {
	if err := v.begin(); err != nil {
		var zero T
		return zero, err
	}
	defer v.end()

	value, err := mutate(ctx)
	if err != nil {
		return value, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = value
	v.state = Ready
	v.err = nil
	return value, nil
}
