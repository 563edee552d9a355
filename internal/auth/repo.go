package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubops/clubcore/internal/shared"
)

// Repository defines the read-only lookups authentication needs.
type Repository interface {
	FindByLogin(ctx context.Context, realm Realm, login string) (*Account, error)
	FindByID(ctx context.Context, id int64) (*Account, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `p.id, p.realm, p.login, p.display_name, p.role, c.password_hash, p.is_active, p.created_at, p.updated_at`

// FindByLogin fetches an account with its credential by realm and login.
func (r *PGRepository) FindByLogin(ctx context.Context, realm Realm, login string) (*Account, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+accountColumns+`
FROM principals p
JOIN credentials c ON c.principal_id = p.id
WHERE p.realm = $1 AND p.login = $2`, realm, login)
	return scanAccount(row)
}

// FindByID fetches an account by principal id. Used for the fresh
// deactivation check on sensitive paths.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+accountColumns+`
FROM principals p
JOIN credentials c ON c.principal_id = p.id
WHERE p.id = $1`, id)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		account   Account
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&account.ID, &account.Realm, &account.Login, &account.DisplayName,
		&account.Role, &account.PasswordHash, &account.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time
	return &account, nil
}

var _ Repository = (*PGRepository)(nil)
