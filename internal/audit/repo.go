package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store on PostgreSQL. audit_events carries a bigserial
// primary key, so id order reflects true write order.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const insertEventSQL = `
INSERT INTO audit_events (actor_id, actor_name, action, entity_type, entity_id, description, source_ip, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`

// Insert appends one event and returns its surrogate id.
func (s *PGStore) Insert(ctx context.Context, event Event) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, insertEventSQL,
		optionalInt8(event.ActorID),
		event.ActorName,
		event.Action,
		event.EntityType,
		optionalInt8(event.EntityID),
		event.Description,
		event.SourceIP,
		event.UserAgent,
		pgtype.Timestamptz{Time: event.CreatedAt, Valid: true},
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

const selectEventsSQL = `
SELECT id, actor_id, actor_name, action, entity_type, entity_id, description, source_ip, user_agent, created_at
FROM audit_events
WHERE ($1::bigint IS NULL OR actor_id = $1)
  AND ($2::text = '' OR action = $2)
  AND ($3::text = '' OR entity_type = $3)
  AND ($4::bigint IS NULL OR entity_id = $4)
  AND ($5::timestamptz IS NULL OR created_at >= $5)
  AND ($6::timestamptz IS NULL OR created_at <= $6)
ORDER BY created_at DESC, id DESC`

// Window returns one page of events matching the filter.
func (s *PGStore) Window(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	rows, err := s.pool.Query(ctx, selectEventsSQL+" LIMIT $7 OFFSET $8",
		optionalInt8(filter.ActorID),
		filter.Action,
		filter.EntityType,
		optionalInt8(filter.EntityID),
		toPgTime(filter.From),
		toPgTime(filter.To),
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// All returns every event matching the filter.
func (s *PGStore) All(ctx context.Context, filter Filter) ([]Event, error) {
	rows, err := s.pool.Query(ctx, selectEventsSQL,
		optionalInt8(filter.ActorID),
		filter.Action,
		filter.EntityType,
		optionalInt8(filter.EntityID),
		toPgTime(filter.From),
		toPgTime(filter.To),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			event    Event
			actorID  pgtype.Int8
			entityID pgtype.Int8
			created  pgtype.Timestamptz
		)
		if err := rows.Scan(&event.ID, &actorID, &event.ActorName, &event.Action, &event.EntityType,
			&entityID, &event.Description, &event.SourceIP, &event.UserAgent, &created); err != nil {
			return nil, err
		}
		if actorID.Valid {
			id := actorID.Int64
			event.ActorID = &id
		}
		if entityID.Valid {
			id := entityID.Int64
			event.EntityID = &id
		}
		if created.Valid {
			event.CreatedAt = created.Time
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func optionalInt8(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

func toPgTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

var _ Store = (*PGStore)(nil)
