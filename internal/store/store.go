package store

import (
	"context"
	"sync"
	"time"

	"github.com/persibuloi/kamenic/pkg/logger"
	"github.com/persibuloi/kamenic/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle of a store: idle until first use, loading while a fetch is in
// flight, then ready or error.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

const flightKey = "fetch"

// Fetcher loads the full list a store holds.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Snapshot is a consistent read of a store. Items is the last known good list and is
// kept after a failed refetch; Stale reports that case. Items must be treated as read-only.
type Snapshot[T any] struct {
	Items     []T       `json:"items"`
	Status    Status    `json:"status"`
	Loading   bool      `json:"loading"`
	Err       error     `json:"-"`
	Error     string    `json:"error,omitempty"`
	Stale     bool      `json:"stale"`
	FetchedAt time.Time `json:"fetchedAt,omitempty"`
}

// Options carries optional store collaborators.
type Options struct {
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
	Now     func() time.Time
}

// Store caches one Airtable-backed list and refreshes it on demand.
type Store[T any] struct {
	name    string
	fetch   Fetcher[T]
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
	now     func() time.Time
	flight  singleflight.Group

	mu        sync.RWMutex
	items     []T
	status    Status
	err       error
	fetchedAt time.Time
}

// New builds an idle store. Nothing is fetched until Ensure or Refetch is called.
func New[T any](name string, fetch Fetcher[T], opts Options) *Store[T] {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store[T]{
		name:    name,
		fetch:   fetch,
		logg:    opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
		status:  StatusIdle,
	}
}

func (s *Store[T]) Name() string {
	return s.name
}

// Ensure performs the single automatic load on first use and otherwise returns the
// current snapshot. A store that failed its first load stays in error until Refetch.
func (s *Store[T]) Ensure(ctx context.Context) Snapshot[T] {
	if snap := s.Snapshot(); snap.Status == StatusReady || snap.Status == StatusError {
		return snap
	}
	_, _, _ = s.flight.Do(flightKey, func() (any, error) {
		if s.loaded() {
			return nil, nil
		}
		return nil, s.load(ctx)
	})
	return s.Snapshot()
}

// Refetch reloads the list. Concurrent callers share one upstream fetch.
func (s *Store[T]) Refetch(ctx context.Context) Snapshot[T] {
	_, _, _ = s.flight.Do(flightKey, func() (any, error) {
		return nil, s.load(ctx)
	})
	return s.Snapshot()
}

// Refresh is Refetch for callers that only care about the outcome.
func (s *Store[T]) Refresh(ctx context.Context) error {
	return s.Refetch(ctx).Err
}

// Warm is Ensure for callers that only care about the outcome.
func (s *Store[T]) Warm(ctx context.Context) error {
	return s.Ensure(ctx).Err
}

// Snapshot returns the current state without triggering a fetch.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot[T]{
		Items:     s.items,
		Status:    s.status,
		Loading:   s.status == StatusLoading,
		Err:       s.err,
		FetchedAt: s.fetchedAt,
	}
	if s.err != nil {
		snap.Error = s.err.Error()
		snap.Stale = len(s.items) > 0
	}
	return snap
}

// Report summarizes the store for status endpoints.
func (s *Store[T]) Report() Report {
	snap := s.Snapshot()
	return Report{
		Name:      s.name,
		Status:    snap.Status,
		Items:     len(snap.Items),
		Error:     snap.Error,
		Stale:     snap.Stale,
		FetchedAt: snap.FetchedAt,
	}
}

func (s *Store[T]) loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status == StatusReady || s.status == StatusError
}

func (s *Store[T]) load(ctx context.Context) error {
	s.mu.Lock()
	s.status = StatusLoading
	s.mu.Unlock()

	// shared by every caller waiting on the flight
	fetchCtx := context.WithoutCancel(ctx)
	started := s.now()
	items, err := s.fetch(fetchCtx)
	s.metrics.ObserveRefresh(s.name, s.now().Sub(started), len(items), err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err
		s.status = StatusError
		logCtx := s.logg.WithFields(s.logg.WithStore(ctx, s.name), map[string]any{"kept_items": len(s.items)})
		s.logg.Error(logCtx, "store.refresh.failed", err)
		return err
	}
	s.items = items
	s.err = nil
	s.status = StatusReady
	s.fetchedAt = s.now()
	return nil
}
