// Package cache provides lazily built values that are rebuilt on demand
// after an explicit invalidation.
package cache

import "sync"

// Lazy holds a value produced by a build function. The value is built on
// the first Get and reused until Invalidate is called. A build that fails
// leaves the value dirty, so the next Get retries.
//
// Lazy is safe for concurrent use. Readers share the lock while the value
// is valid; a rebuild takes the write lock, so a completed build
// happens-before every Get that returns its result.
type Lazy[T any] struct {
	mu    sync.RWMutex
	build func() (T, error)
	value T
	valid bool
}

// NewLazy returns a dirty Lazy that builds its value with build.
func NewLazy[T any](build func() (T, error)) *Lazy[T] {
	return &Lazy[T]{build: build}
}

// Get returns the cached value, building it first if needed.
func (l *Lazy[T]) Get() (T, error) {
	l.mu.RLock()
	if l.valid {
		v := l.value
		l.mu.RUnlock()
		return v, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	// another writer may have built it while we waited
	if l.valid {
		return l.value, nil
	}
	v, err := l.build()
	if err != nil {
		var zero T
		return zero, err
	}
	l.value, l.valid = v, true
	return v, nil
}

// Invalidate marks the value dirty. The stale value is dropped.
func (l *Lazy[T]) Invalidate() {
	l.mu.Lock()
	var zero T
	l.value, l.valid = zero, false
	l.mu.Unlock()
}

// Valid reports whether a built value is cached.
func (l *Lazy[T]) Valid() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.valid
}
