package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-magic-auth/internal/domain"
	"github.com/jackc/pgx/v5"
)

type SessionRepo struct {
	db DBTX
}

func NewSessionRepo(db DBTX) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (session_id, user_id, expiration_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE SET
			expiration_date = EXCLUDED.expiration_date,
			updated_at      = EXCLUDED.updated_at`
	if _, err := r.db.Exec(ctx, query, s.SessionID, s.UserID, s.ExpirationDate, s.CreatedAt, s.UpdatedAt); err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	query := `
		SELECT session_id, user_id, expiration_date, created_at, updated_at
		FROM sessions
		WHERE session_id = $1`
	var s domain.Session
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&s.SessionID, &s.UserID, &s.ExpirationDate, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepo) DeleteByUser(ctx context.Context, userID, exceptSessionID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND session_id <> $2`,
		userID, exceptSessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// ListByUser returns the user's sessions, newest first.
func (r *SessionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT session_id, user_id, expiration_date, created_at, updated_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Session, error) {
		var s domain.Session
		err := row.Scan(&s.SessionID, &s.UserID, &s.ExpirationDate, &s.CreatedAt, &s.UpdatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return sessions, nil
}
