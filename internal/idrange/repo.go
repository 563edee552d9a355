package idrange

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubops/clubcore/internal/shared"
)

// PGStore persists range cursors in the id_ranges table. The table carries
// an exclusion constraint over int8range(min_id, max_id) as a backstop
// against concurrent overlapping Configure calls.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// List returns every configured range.
func (s *PGStore) List(ctx context.Context) ([]Range, error) {
	rows, err := s.pool.Query(ctx, `SELECT kind, min_id, max_id, cursor FROM id_ranges ORDER BY min_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ranges []Range
	for rows.Next() {
		var r Range
		if err := rows.Scan(&r.Kind, &r.Min, &r.Max, &r.Cursor); err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, rows.Err()
}

// Get fetches one range by kind.
func (s *PGStore) Get(ctx context.Context, kind Kind) (Range, error) {
	var r Range
	err := s.pool.QueryRow(ctx, `SELECT kind, min_id, max_id, cursor FROM id_ranges WHERE kind = $1`, kind).
		Scan(&r.Kind, &r.Min, &r.Max, &r.Cursor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Range{}, shared.ErrNotFound
		}
		return Range{}, err
	}
	return r, nil
}

const upsertRangeSQL = `
INSERT INTO id_ranges (kind, min_id, max_id, cursor)
VALUES ($1, $2, $3, $4)
ON CONFLICT (kind) DO UPDATE
SET min_id = EXCLUDED.min_id,
    max_id = EXCLUDED.max_id,
    cursor = GREATEST(id_ranges.cursor, EXCLUDED.cursor)`

// Upsert writes the range, keeping the stored cursor when it is already
// ahead of the requested one.
func (s *PGStore) Upsert(ctx context.Context, r Range) error {
	_, err := s.pool.Exec(ctx, upsertRangeSQL, r.Kind, r.Min, r.Max, r.Cursor)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
			return fmt.Errorf("%w: window overlaps an existing kind", shared.ErrInvalidRange)
		}
		return err
	}
	return nil
}

// advanceSQL reserves the pre-advance cursor value in a single statement.
// The row lock taken by UPDATE serializes concurrent callers per kind while
// leaving other kinds untouched.
const advanceSQL = `
UPDATE id_ranges
SET cursor = cursor + 1
WHERE kind = $1 AND cursor <= max_id
RETURNING cursor - 1`

// Advance atomically reads-and-advances the cursor for the kind.
func (s *PGStore) Advance(ctx context.Context, kind Kind) (int64, bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx, advanceSQL, kind).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}
	// No row matched: either the kind is unknown or the window is spent.
	if _, getErr := s.Get(ctx, kind); getErr != nil {
		return 0, false, getErr
	}
	return 0, true, nil
}

var _ Store = (*PGStore)(nil)
