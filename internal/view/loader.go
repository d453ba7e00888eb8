// Package view tracks the data-loading state of a view independently of how
// the view is rendered.
package view

import (
	"context"
	"sync"
	"time"
)

// State is the loading state of a view.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateError   State = "error"
)

// FetchFunc produces the data of a view.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Status is a point-in-time copy of a Loader.
type Status[T any] struct {
	State    State
	Key      string
	Data     T
	HasData  bool
	Err      error
	LoadedAt time.Time
}

// Loader moves through idle -> loading -> loaded | error. A failed load keeps
// the previously loaded data. Loads are serialized.
type Loader[T any] struct {
	mu       sync.Mutex
	state    State
	key      string
	data     T
	hasData  bool
	err      error
	loadedAt time.Time
	now      func() time.Time
}

// NewLoader returns an idle loader.
func NewLoader[T any]() *Loader[T] {
	return &Loader[T]{state: StateIdle, now: time.Now}
}

// Load returns the cached data when the loader is loaded for key, otherwise it
// calls fetch and records the outcome under key.
func (l *Loader[T]) Load(ctx context.Context, key string, fetch FetchFunc[T]) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateLoaded && l.key == key {
		return l.data, nil
	}

	l.state = StateLoading
	data, err := fetch(ctx)
	if err != nil {
		l.state = StateError
		l.err = err
		var zero T
		return zero, err
	}

	l.state = StateLoaded
	l.key = key
	l.data = data
	l.hasData = true
	l.err = nil
	l.loadedAt = l.now()
	return data, nil
}

// Invalidate forces the next Load to fetch. Data stays readable via Status.
func (l *Loader[T]) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateLoaded {
		l.state = StateIdle
	}
}

// Status returns the current state.
func (l *Loader[T]) Status() Status[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status[T]{
		State:    l.state,
		Key:      l.key,
		Data:     l.data,
		HasData:  l.hasData,
		Err:      l.err,
		LoadedAt: l.loadedAt,
	}
}
