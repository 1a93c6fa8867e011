package http

import (
	"context"

	"github.com/go-magic-auth/internal/application/auth"
	"github.com/go-magic-auth/internal/application/session"
	"github.com/go-magic-auth/internal/domain"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	auth.UserStore
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// SessionRepository is the minimal interface the router requires from a session store.
type SessionRepository interface {
	session.Store
}

// VerificationRepository is the minimal interface the router requires from a verification store.
type VerificationRepository interface {
	auth.VerificationStore
}
