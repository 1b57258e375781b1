package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klinika-id/klinika/internal/shared"
)

// PGRepository implements CredentialStore using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByIdentifier fetches a user by national ID.
func (r *PGRepository) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT id, national_id, name, password_hash, is_active, created_at, updated_at
		 FROM users WHERE national_id = $1`, identifier).
		Scan(&user.ID, &user.NationalID, &user.Name, &user.PasswordHash, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

var _ CredentialStore = (*PGRepository)(nil)
