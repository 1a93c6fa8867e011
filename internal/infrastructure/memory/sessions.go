package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-magic-auth/internal/domain"
)

type SessionRepo struct {
	mu    sync.Mutex
	items map[string]domain.Session
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{items: make(map[string]domain.Session)}
}

func (r *SessionRepo) Put(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.SessionID] = *s
	return nil
}

func (r *SessionRepo) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	return &s, nil
}

func (r *SessionRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, sessionID)
	return nil
}

func (r *SessionRepo) DeleteByUser(_ context.Context, userID, exceptSessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sid, s := range r.items {
		if s.UserID == userID && sid != exceptSessionID {
			delete(r.items, sid)
		}
	}
	return nil
}

// ListByUser returns the sessions owned by userID in no particular order.
func (r *SessionRepo) ListByUser(_ context.Context, userID string) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	for _, s := range r.items {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}
