package handler

import (
	"context"
	"net/http"

	"github.com/go-magic-auth/internal/application/session"
	"github.com/go-magic-auth/internal/domain"
	"github.com/go-magic-auth/internal/transport/http/middleware"
)

// UserReader loads a user by id.
type UserReader interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// AccountHandler serves the signed-in user's account and session endpoints.
type AccountHandler struct {
	sessions session.Service
	users    UserReader
	cookies  *Cookies
}

func NewAccountHandler(sessions session.Service, users UserReader, cookies *Cookies) *AccountHandler {
	return &AccountHandler{sessions: sessions, users: users, cookies: cookies}
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.users.Get(r.Context(), sess.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MeEnvelope{User: u, Session: sess})
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.sessions.DestroySession(r.Context(), sess.SessionID); err != nil {
		httpError(w, err)
		return
	}
	h.cookies.clear(w, middleware.SessionCookie)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

// LogoutOthers ends every session of the user except the current one.
func (h *AccountHandler) LogoutOthers(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.sessions.DestroyOtherSessions(r.Context(), sess.UserID, sess.SessionID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "other sessions logged out"})
}

// Sessions lists the user's signed-in devices and marks the current one.
func (h *AccountHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := h.sessions.ListSessions(r.Context(), sess.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	views := make([]SessionView, 0, len(list))
	for _, s := range list {
		views = append(views, SessionView{
			Current:   s.SessionID == sess.SessionID,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpirationDate,
		})
	}
	writeJSON(w, http.StatusOK, SessionsEnvelope{Sessions: views})
}
