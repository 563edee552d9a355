package idrange

import (
	"context"
	"sync"

	"github.com/clubops/clubcore/internal/shared"
)

// MemoryStore keeps range state in process memory. It is used by tests and
// by tooling that runs without a database; durability-sensitive deployments
// use PGStore. Each kind carries its own lock so allocation for unrelated
// kinds never contends.
type MemoryStore struct {
	mu     sync.Mutex // guards the map only
	ranges map[Kind]*memoryRange
}

type memoryRange struct {
	mu sync.Mutex
	r  Range
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ranges: make(map[Kind]*memoryRange)}
}

func (s *MemoryStore) entry(kind Kind) (*memoryRange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.ranges[kind]
	return e, ok
}

// List returns a snapshot of every configured range.
func (s *MemoryStore) List(ctx context.Context) ([]Range, error) {
	s.mu.Lock()
	entries := make([]*memoryRange, 0, len(s.ranges))
	for _, e := range s.ranges {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	ranges := make([]Range, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		ranges = append(ranges, e.r)
		e.mu.Unlock()
	}
	return ranges, nil
}

// Get fetches one range by kind.
func (s *MemoryStore) Get(ctx context.Context, kind Kind) (Range, error) {
	e, ok := s.entry(kind)
	if !ok {
		return Range{}, shared.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.r, nil
}

// Upsert writes the range, keeping the stored cursor when it is ahead.
func (s *MemoryStore) Upsert(ctx context.Context, r Range) error {
	s.mu.Lock()
	e, ok := s.ranges[r.Kind]
	if !ok {
		s.ranges[r.Kind] = &memoryRange{r: r}
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.r.Cursor > r.Cursor {
		r.Cursor = e.r.Cursor
	}
	e.r = r
	return nil
}

// Advance reserves the next identifier under the per-kind lock.
func (s *MemoryStore) Advance(ctx context.Context, kind Kind) (int64, bool, error) {
	e, ok := s.entry(kind)
	if !ok {
		return 0, false, shared.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.r.Cursor > e.r.Max {
		return 0, true, nil
	}
	id := e.r.Cursor
	e.r.Cursor++
	return id, false, nil
}

var _ Store = (*MemoryStore)(nil)
