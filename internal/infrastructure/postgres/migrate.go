package postgres

import (
	"context"
	"fmt"
)

// schema is applied on every startup; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id    TEXT PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id      TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
		expiration_date TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_user_id_idx ON sessions (user_id)`,
	`CREATE TABLE IF NOT EXISTS verifications (
		type       TEXT NOT NULL,
		target     TEXT NOT NULL,
		secret     TEXT NOT NULL,
		algorithm  TEXT NOT NULL,
		digits     INTEGER NOT NULL,
		period     INTEGER NOT NULL,
		char_set   TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (type, target)
	)`,
}

// Migrate creates the tables the repositories need if they don't already exist.
func Migrate(ctx context.Context, db DBTX) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
