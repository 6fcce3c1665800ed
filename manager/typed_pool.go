package manager

import (
	"fmt"

	"github.com/AlexsanderHamir/gwizpool/pool"
)

// TypedPool provides type-safe access to the manager's pool for one type.
type TypedPool[T pool.Object] struct {
	m *Manager
	t pool.TypeID
}

// NewTypedPool creates a type-safe wrapper for t. The pool itself is created
// lazily on first use.
func NewTypedPool[T pool.Object](m *Manager, t pool.TypeID) *TypedPool[T] {
	return &TypedPool[T]{m: m, t: t}
}

func (tp *TypedPool[T]) Type() pool.TypeID {
	return tp.t
}

// Configure applies config to the underlying pool.
func (tp *TypedPool[T]) Configure(config pool.PoolConfig) error {
	return tp.m.ConfigurePool(tp.t, config)
}

// Acquire gets an object from the pool. An instance that is not a T is
// released back and reported as ErrTypeMismatch.
func (tp *TypedPool[T]) Acquire() (T, error) {
	var zero T

	obj, err := tp.m.AcquireObject(tp.t)
	if err != nil {
		return zero, err
	}

	typed, ok := obj.(T)
	if !ok {
		if err := tp.m.ReleaseObject(obj); err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%w: got %T", pool.ErrTypeMismatch, obj)
	}

	return typed, nil
}

// Release returns an object to the pool.
func (tp *TypedPool[T]) Release(obj T) error {
	return tp.m.ReleaseObject(obj)
}

// Pool returns the underlying pool.
func (tp *TypedPool[T]) Pool() (*pool.ObjectPool, error) {
	return tp.m.GetOrCreatePool(tp.t)
}
