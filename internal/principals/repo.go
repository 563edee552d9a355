package principals

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubops/clubcore/internal/platform/db"
	"github.com/clubops/clubcore/internal/shared"
)

// Repository defines persistence operations for principal management.
type Repository interface {
	Create(ctx context.Context, p Principal, passwordHash string) error
	Get(ctx context.Context, id int64) (Principal, error)
	List(ctx context.Context) ([]Principal, error)
	SetActive(ctx context.Context, id int64, active bool) error
	UpdateRole(ctx context.Context, id int64, role string) error
	CountActiveSuperAdmins(ctx context.Context) (int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts the principal row and its credential in one transaction.
// The id comes pre-allocated from the range allocator; this insert never
// generates one.
func (r *PGRepository) Create(ctx context.Context, p Principal, passwordHash string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO principals (id, realm, login, display_name, role, member_kind, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NOW(), NOW())`,
			p.ID, p.Realm, p.Login, p.DisplayName, p.Role, string(p.MemberKind), p.IsActive)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
INSERT INTO credentials (principal_id, password_hash, algo_version, updated_at)
VALUES ($1, $2, 1, NOW())`, p.ID, passwordHash)
		return err
	})
}

const principalColumns = `id, realm, login, display_name, role, COALESCE(member_kind, ''), is_active, created_at, updated_at`

// Get fetches one principal by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (Principal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)
	return scanPrincipal(row)
}

// List returns every principal ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]Principal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+principalColumns+` FROM principals ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetActive flips the soft-disable flag.
func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE principals SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateRole stores a new role for the principal.
func (r *PGRepository) UpdateRole(ctx context.Context, id int64, role string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE principals SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountActiveSuperAdmins counts active super_admin operators.
func (r *PGRepository) CountActiveSuperAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM principals WHERE role = 'super_admin' AND is_active`).Scan(&count)
	return count, err
}

func scanPrincipal(row pgx.Row) (Principal, error) {
	var (
		p          Principal
		memberKind string
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)
	err := row.Scan(&p.ID, &p.Realm, &p.Login, &p.DisplayName, &p.Role, &memberKind, &p.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, shared.ErrNotFound
		}
		return Principal{}, err
	}
	p.MemberKind = MemberKind(memberKind)
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return p, nil
}

var _ Repository = (*PGRepository)(nil)
