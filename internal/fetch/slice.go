// Package fetch provides cancellation-safe remote data loading with
// fallback defaults.
//
// A Slice holds one unit of remotely fetched page data together with its
// loading and error status. Each trigger is tagged with a generation
// number; a resolution whose generation is no longer current is discarded,
// so with rapid re-triggers the latest issued request always wins,
// regardless of network arrival order. On failure the slice swaps in its
// fallback value, so consumers are never left without renderable data.
package fetch

import (
	"context"
	"log/slog"
	"sync"
)

// Producer fetches one value from a remote source.
type Producer[T any] func(ctx context.Context) (T, error)

// Snapshot is a point-in-time view of a slice's state.
type Snapshot[T any] struct {
	Value   T      `json:"value"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Slice is a fetched-or-fallback value with loading/error status.
// All methods are safe for concurrent use.
type Slice[T any] struct {
	name     string
	fallback T
	onChange func()

	mu      sync.Mutex
	value   T
	loading bool
	lastErr string
	gen     uint64
	closed  bool
}

// NewSlice creates a slice holding fallback as its initial value.
// onChange, if non-nil, is invoked after every observable state change.
func NewSlice[T any](name string, fallback T, onChange func()) *Slice[T] {
	return &Slice[T]{
		name:     name,
		fallback: fallback,
		onChange: onChange,
		value:    fallback,
	}
}

// Trigger starts a new fetch. The previous value is retained while the
// fetch is in flight, so the slice is never observably empty. Any earlier
// fetch still in flight is logically cancelled: its resolution will be
// discarded because its generation is stale.
func (s *Slice[T]) Trigger(ctx context.Context, produce Producer[T]) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
	s.notify()

	// Supersession is handled by the generation check, not by context
	// cancellation: the producer keeps the caller's context values but
	// outlives the triggering request, bounded by the producer's own
	// timeout.
	go func() {
		value, err := produce(context.WithoutCancel(ctx))
		s.resolve(gen, value, err)
	}()
}

func (s *Slice[T]) resolve(gen uint64, value T, err error) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		slog.Debug("Discarding stale fetch result", "slice", s.name, "generation", gen)
		return
	}
	if err != nil {
		s.value = s.fallback
		s.lastErr = err.Error()
		s.loading = false
		s.mu.Unlock()
		slog.Warn("Fetch failed, serving fallback data", "slice", s.name, "error", err)
		s.notify()
		return
	}
	s.value = value
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns the current value and status.
func (s *Slice[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot[T]{Value: s.value, Loading: s.loading, Error: s.lastErr}
}

// Close marks the slice unmounted. In-flight fetches are not aborted, but
// their resolutions are discarded, and further triggers are ignored.
func (s *Slice[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.gen++
	s.loading = false
	s.mu.Unlock()
}

func (s *Slice[T]) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
