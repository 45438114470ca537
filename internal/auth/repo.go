package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusgive/campusgive/internal/platform/db"
	"github.com/campusgive/campusgive/internal/shared"
)

const emailConstraint = "users_email_key"

// Repository defines the credential store.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Insert(ctx context.Context, user User) (string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectUser = `SELECT id::text, name, email, password_hash, created_at FROM users`

// FindByEmail fetches a user by exact email match.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, selectUser+` WHERE email = $1`, email)
}

// FindByID fetches a user by identifier.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, selectUser+` WHERE id = $1`, id)
}

// Insert persists a new user and returns its identifier. A concurrent
// registration of the same email surfaces as shared.ErrDuplicateEmail.
func (r *PGRepository) Insert(ctx context.Context, user User) (string, error) {
	id := uuid.NewString()
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, user.Name, user.Email, user.PasswordHash, createdAt)
	if err != nil {
		if db.IsUniqueViolation(err, emailConstraint) {
			return "", shared.ErrDuplicateEmail
		}
		return "", fmt.Errorf("%w: insert user: %v", shared.ErrStoreFailure, err)
	}
	return id, nil
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg string) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find user: %v", shared.ErrStoreFailure, err)
	}
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
