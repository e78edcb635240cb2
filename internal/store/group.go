package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const maxParallelRefresh = 4

// Report is a store's status line.
type Report struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Items     int       `json:"items"`
	Error     string    `json:"error,omitempty"`
	Stale     bool      `json:"stale"`
	FetchedAt time.Time `json:"fetchedAt,omitempty"`
}

// Member is the type-erased view of a Store used by Group.
type Member interface {
	Name() string
	Warm(ctx context.Context) error
	Refresh(ctx context.Context) error
	Report() Report
}

// Group holds the independent stores of the storefront. Each member loads on its own;
// one failing never blocks the others.
type Group struct {
	mu      sync.RWMutex
	members []Member
}

func NewGroup(members ...Member) *Group {
	g := &Group{}
	for _, m := range members {
		g.Register(m)
	}
	return g
}

func (g *Group) Register(m Member) {
	if m == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members = append(g.members, m)
}

// WarmAll runs every member's first load concurrently.
func (g *Group) WarmAll(ctx context.Context) error {
	return g.each(ctx, func(ctx context.Context, m Member) error { return m.Warm(ctx) })
}

// RefreshAll refetches every member concurrently and returns the combined failures.
func (g *Group) RefreshAll(ctx context.Context) error {
	return g.each(ctx, func(ctx context.Context, m Member) error { return m.Refresh(ctx) })
}

// Reports lists the members in registration order.
func (g *Group) Reports() []Report {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Report, 0, len(g.members))
	for _, m := range g.members {
		out = append(out, m.Report())
	}
	return out
}

func (g *Group) each(ctx context.Context, fn func(context.Context, Member) error) error {
	g.mu.RLock()
	members := append([]Member(nil), g.members...)
	g.mu.RUnlock()

	var (
		eg   errgroup.Group
		mu   sync.Mutex
		errs error
	)
	eg.SetLimit(maxParallelRefresh)
	for _, m := range members {
		eg.Go(func() error {
			if err := fn(ctx, m); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", m.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()
	return errs
}
