package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-magic-auth/internal/domain"
	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts the user. The UNIQUE constraint on email turns a concurrent
// duplicate into domain.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (user_id, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, u.UserID, u.Email, u.Name, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", u.Email, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return r.getBy(ctx, "user_id", userID)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

// getBy is only called with the column names above.
func (r *UserRepo) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	query := `SELECT user_id, email, name, created_at, updated_at FROM users WHERE ` + column + ` = $1`
	var u domain.User
	err := r.db.QueryRow(ctx, query, value).Scan(&u.UserID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
