package idrange

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/clubops/clubcore/internal/shared"
)

func newAllocator(t *testing.T) *Allocator {
	t.Helper()
	return NewAllocator(NewMemoryStore(), nil)
}

func TestConfigureRejectsInvertedWindow(t *testing.T) {
	a := newAllocator(t)
	err := a.Configure(context.Background(), KindOperator, 100, 10)
	if !errors.Is(err, shared.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestConfigureRejectsOverlap(t *testing.T) {
	a := newAllocator(t)
	ctx := context.Background()
	if err := a.Configure(ctx, KindOperator, 1, 999); err != nil {
		t.Fatalf("configure operator: %v", err)
	}
	err := a.Configure(ctx, KindMember, 500, 2000)
	if !errors.Is(err, shared.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for overlapping window, got %v", err)
	}
	// Disjoint window goes through.
	if err := a.Configure(ctx, KindMember, 1000, 2000); err != nil {
		t.Fatalf("configure member: %v", err)
	}
}

func TestNextUnconfiguredKind(t *testing.T) {
	a := newAllocator(t)
	_, err := a.Next(context.Background(), Kind("ghost"))
	if !errors.Is(err, shared.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestNextIssuesSequentiallyAndExhausts(t *testing.T) {
	a := newAllocator(t)
	ctx := context.Background()
	if err := a.Configure(ctx, KindMember, 1000, 1004); err != nil {
		t.Fatalf("configure: %v", err)
	}

	for want := int64(1000); want <= 1004; want++ {
		got, err := a.Next(ctx, KindMember)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got != want {
			t.Fatalf("expected id %d, got %d", want, got)
		}
	}

	_, err := a.Next(ctx, KindMember)
	if !errors.Is(err, shared.ErrRangeExhausted) {
		t.Fatalf("expected ErrRangeExhausted, got %v", err)
	}
	// Exhaustion is persistent: the window never wraps around.
	_, err = a.Next(ctx, KindMember)
	if !errors.Is(err, shared.ErrRangeExhausted) {
		t.Fatalf("expected ErrRangeExhausted on repeat, got %v", err)
	}
}

func TestNextConcurrentCallsAreUnique(t *testing.T) {
	a := newAllocator(t)
	ctx := context.Background()
	const workers = 64
	if err := a.Configure(ctx, KindOperator, 1, workers); err != nil {
		t.Fatalf("configure: %v", err)
	}

	ids := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := a.Next(ctx, KindOperator)
			if err != nil {
				t.Errorf("next: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, workers)
	for id := range ids {
		if id < 1 || id > workers {
			t.Fatalf("id %d outside window [1,%d]", id, workers)
		}
		if seen[id] {
			t.Fatalf("id %d issued twice", id)
		}
		seen[id] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d distinct ids, got %d", workers, len(seen))
	}
}

func TestReconfigurePreservesCursor(t *testing.T) {
	a := newAllocator(t)
	ctx := context.Background()
	if err := a.Configure(ctx, KindOperator, 1, 10); err != nil {
		t.Fatalf("configure: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := a.Next(ctx, KindOperator); err != nil {
			t.Fatalf("next: %v", err)
		}
	}

	// Widening keeps the cursor where it is.
	if err := a.Configure(ctx, KindOperator, 1, 100); err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	got, err := a.Next(ctx, KindOperator)
	if err != nil {
		t.Fatalf("next after widen: %v", err)
	}
	if got != 6 {
		t.Fatalf("expected cursor to survive reconfiguration, got %d", got)
	}
}

func TestReconfigureRejectsShrinkBelowCursor(t *testing.T) {
	a := newAllocator(t)
	ctx := context.Background()
	if err := a.Configure(ctx, KindOperator, 1, 10); err != nil {
		t.Fatalf("configure: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := a.Next(ctx, KindOperator); err != nil {
			t.Fatalf("next: %v", err)
		}
	}

	err := a.Configure(ctx, KindOperator, 1, 3)
	if !errors.Is(err, shared.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange shrinking below cursor, got %v", err)
	}
}

func TestUsageReflectsAllocation(t *testing.T) {
	a := newAllocator(t)
	ctx := context.Background()
	if err := a.Configure(ctx, KindMember, 1000, 1999); err != nil {
		t.Fatalf("configure: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := a.Next(ctx, KindMember); err != nil {
			t.Fatalf("next: %v", err)
		}
	}

	usage, err := a.Usage(ctx, KindMember)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if usage.Allocated != 3 {
		t.Fatalf("expected 3 allocated, got %d", usage.Allocated)
	}
	if usage.Capacity != 1000 {
		t.Fatalf("expected capacity 1000, got %d", usage.Capacity)
	}

	_, err = a.Usage(ctx, Kind("ghost"))
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type failingStore struct {
	Store
}

func (failingStore) Advance(ctx context.Context, kind Kind) (int64, bool, error) {
	return 0, false, errors.New("connection refused")
}

func TestNextStoreFailureMapsToStorageUnavailable(t *testing.T) {
	a := NewAllocator(failingStore{}, nil)
	_, err := a.Next(context.Background(), KindOperator)
	if !errors.Is(err, shared.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}
