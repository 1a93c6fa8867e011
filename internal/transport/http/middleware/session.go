package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-magic-auth/internal/domain"
)

// Cookie names shared by the middleware and the handlers.
const (
	SessionCookie    = "session"
	OnboardingCookie = "onboarding"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionTokenVerifier extracts the session id from a signed session cookie.
type SessionTokenVerifier interface {
	VerifySession(token string) (string, error)
}

// SessionResolver loads a live session, deleting it when expired.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Session returns middleware that requires a valid session cookie and injects
// the resolved session into the request context.
func Session(tokens SessionTokenVerifier, sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil || c.Value == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing session")
				return
			}
			sessionID, err := tokens.VerifySession(c.Value)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			sess, err := sessions.ResolveSession(r.Context(), sessionID)
			if errors.Is(err, domain.ErrNotFound) {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			if err != nil {
				slog.Error("failed to resolve session", "err", err)
				writeJSONError(w, http.StatusInternalServerError, "internal error")
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session injected by Session.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*domain.Session)
	return s, ok
}

// WithSession stores s in ctx the same way Session does.
func WithSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}
