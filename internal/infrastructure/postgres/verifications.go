package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-magic-auth/internal/domain"
	"github.com/jackc/pgx/v5"
)

// VerificationRepo keeps one row per (type, target) in the verifications table.
type VerificationRepo struct {
	db DBTX
}

func NewVerificationRepo(db DBTX) *VerificationRepo {
	return &VerificationRepo{db: db}
}

func (r *VerificationRepo) Save(ctx context.Context, v *domain.Verification) error {
	query := `
		INSERT INTO verifications (type, target, secret, algorithm, digits, period, char_set, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (type, target) DO UPDATE SET
			secret     = EXCLUDED.secret,
			algorithm  = EXCLUDED.algorithm,
			digits     = EXCLUDED.digits,
			period     = EXCLUDED.period,
			char_set   = EXCLUDED.char_set,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at`
	_, err := r.db.Exec(ctx, query,
		v.Type, v.Target, v.Secret, v.Algorithm, v.Digits, v.Period, v.CharSet, v.ExpiresAt, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save verification: %w", err)
	}
	return nil
}

func (r *VerificationRepo) FindByTypeAndTarget(ctx context.Context, verType, target string) (*domain.Verification, error) {
	query := `
		SELECT type, target, secret, algorithm, digits, period, char_set, expires_at, created_at
		FROM verifications
		WHERE type = $1 AND target = $2`
	var v domain.Verification
	err := r.db.QueryRow(ctx, query, verType, target).Scan(
		&v.Type, &v.Target, &v.Secret, &v.Algorithm, &v.Digits, &v.Period, &v.CharSet, &v.ExpiresAt, &v.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find verification: %w", err)
	}
	return &v, nil
}

func (r *VerificationRepo) DeleteByTypeAndTarget(ctx context.Context, verType, target string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM verifications WHERE type = $1 AND target = $2`, verType, target); err != nil {
		return fmt.Errorf("failed to delete verification: %w", err)
	}
	return nil
}

// Consume deletes the row only while it still holds secret.
func (r *VerificationRepo) Consume(ctx context.Context, verType, target, secret string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM verifications WHERE type = $1 AND target = $2 AND secret = $3`,
		verType, target, secret,
	)
	if err != nil {
		return fmt.Errorf("failed to consume verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("verification already consumed: %w", domain.ErrNotFound)
	}
	return nil
}
