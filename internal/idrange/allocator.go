package idrange

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/clubops/clubcore/internal/shared"
)

// Store persists range state. Advance must be atomic per kind: no two
// concurrent calls may observe the same identifier. Advancing one kind must
// not serialize against unrelated kinds.
type Store interface {
	List(ctx context.Context) ([]Range, error)
	Get(ctx context.Context, kind Kind) (Range, error)
	Upsert(ctx context.Context, r Range) error
	// Advance reserves and returns the next identifier. exhausted is true
	// when the window has no capacity left.
	Advance(ctx context.Context, kind Kind) (id int64, exhausted bool, err error)
}

// MetricsSink publishes allocator usage gauges.
type MetricsSink interface {
	SetRangeUsage(kind string, allocated, capacity int64)
}

// Allocator hands out unique identifiers per kind, each kind confined to
// its own disjoint window. Allocation order within a kind is total; across
// kinds no ordering exists.
type Allocator struct {
	store   Store
	metrics MetricsSink

	// mu guards Configure only. Next never takes it: per-kind mutual
	// exclusion lives in the store.
	mu sync.Mutex
}

// NewAllocator constructs an Allocator. Metrics may be nil.
func NewAllocator(store Store, metrics MetricsSink) *Allocator {
	return &Allocator{store: store, metrics: metrics}
}

// Configure establishes or resets the window for a kind. It fails with
// ErrInvalidRange when min > max, when the window overlaps another kind, or
// when the reconfiguration would lose already-issued identifiers.
func (a *Allocator) Configure(ctx context.Context, kind Kind, min, max int64) error {
	if kind == "" {
		return fmt.Errorf("%w: kind required", shared.ErrInvalidRange)
	}
	if min > max {
		return fmt.Errorf("%w: min %d exceeds max %d", shared.ErrInvalidRange, min, max)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing, err := a.store.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: list ranges: %v", shared.ErrStorageUnavailable, err)
	}

	next := Range{Kind: kind, Min: min, Max: max, Cursor: min}
	for _, r := range existing {
		if r.Kind == kind {
			// The cursor never moves backward below issued identifiers.
			if r.Cursor > next.Cursor {
				next.Cursor = r.Cursor
			}
			// Shrinking below the cursor would silently truncate
			// outstanding capacity.
			if max < r.Cursor {
				return fmt.Errorf("%w: max %d below cursor %d for kind %s", shared.ErrInvalidRange, max, r.Cursor, kind)
			}
			continue
		}
		if next.Overlaps(r) {
			return fmt.Errorf("%w: [%d,%d] overlaps kind %s [%d,%d]", shared.ErrInvalidRange, min, max, r.Kind, r.Min, r.Max)
		}
	}

	if err := a.store.Upsert(ctx, next); err != nil {
		if errors.Is(err, shared.ErrInvalidRange) {
			return err
		}
		return fmt.Errorf("%w: upsert range: %v", shared.ErrStorageUnavailable, err)
	}
	a.publish(next)
	return nil
}

// Next reserves the next identifier for the kind. It fails with
// ErrRangeExhausted when the window is spent; no wraparound, no borrowing
// from other kinds.
func (a *Allocator) Next(ctx context.Context, kind Kind) (int64, error) {
	id, exhausted, err := a.store.Advance(ctx, kind)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, fmt.Errorf("%w: kind %s not configured", shared.ErrInvalidRange, kind)
		}
		return 0, fmt.Errorf("%w: advance cursor: %v", shared.ErrStorageUnavailable, err)
	}
	if exhausted {
		return 0, fmt.Errorf("%w: kind %s", shared.ErrRangeExhausted, kind)
	}
	return id, nil
}

// Usage reports how much of the window has been consumed.
func (a *Allocator) Usage(ctx context.Context, kind Kind) (Usage, error) {
	r, err := a.store.Get(ctx, kind)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Usage{}, err
		}
		return Usage{}, fmt.Errorf("%w: get range: %v", shared.ErrStorageUnavailable, err)
	}
	a.publish(r)
	return Usage{Kind: kind, Allocated: r.Allocated(), Capacity: r.Capacity()}, nil
}

func (a *Allocator) publish(r Range) {
	if a.metrics == nil {
		return
	}
	a.metrics.SetRangeUsage(string(r.Kind), r.Allocated(), r.Capacity())
}
