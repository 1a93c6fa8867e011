package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-magic-auth/internal/domain"
	"github.com/go-magic-auth/internal/pkg/clock"
	pkgtoken "github.com/go-magic-auth/internal/pkg/token"
)

// DefaultExpiryDays is the session horizon when none is configured.
const DefaultExpiryDays = 30

// Store is the persistence the issuer needs.
type Store interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteByUser(ctx context.Context, userID, exceptSessionID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
}

type Service interface {
	CreateSession(ctx context.Context, userID string) (*domain.Session, error)
	ResolveSession(ctx context.Context, sessionID string) (*domain.Session, error)
	DestroySession(ctx context.Context, sessionID string) error
	DestroyOtherSessions(ctx context.Context, userID, keepSessionID string) error
	ListSessions(ctx context.Context, userID string) ([]domain.Session, error)
}

// ServiceDeps groups the collaborators of NewService.
type ServiceDeps struct {
	SessionRepo Store
	Clock       clock.Clock
	ExpiryDays  int
}

type service struct {
	sessionRepo Store
	clock       clock.Clock
	expiryDays  int
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		sessionRepo: deps.SessionRepo,
		clock:       deps.Clock,
		expiryDays:  deps.ExpiryDays,
	}
	if s.clock == nil {
		s.clock = clock.System
	}
	if s.expiryDays <= 0 {
		s.expiryDays = DefaultExpiryDays
	}
	return s
}

// ComputeExpiry returns now plus the given number of whole days.
func ComputeExpiry(daysFromNow int, now time.Time) time.Time {
	return domain.ExpiryFrom(now, time.Duration(daysFromNow)*24*time.Hour)
}

func (s *service) CreateSession(ctx context.Context, userID string) (*domain.Session, error) {
	sessionID, err := pkgtoken.NewSessionID()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	sess := &domain.Session{
		SessionID:      sessionID,
		UserID:         userID,
		ExpirationDate: ComputeExpiry(s.expiryDays, now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// ResolveSession returns the live session for sessionID. An expired session is
// deleted on sight and reported as not found.
func (s *service) ResolveSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if domain.IsExpired(sess.ExpirationDate, s.clock.Now()) {
		if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
			slog.Warn("failed to delete expired session", "user_id", sess.UserID, "err", err)
		}
		return nil, fmt.Errorf("session expired: %w", domain.ErrNotFound)
	}
	return sess, nil
}

func (s *service) DestroySession(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (s *service) DestroyOtherSessions(ctx context.Context, userID, keepSessionID string) error {
	if err := s.sessionRepo.DeleteByUser(ctx, userID, keepSessionID); err != nil {
		return fmt.Errorf("destroy other sessions: %w", err)
	}
	return nil
}

// ListSessions returns the user's live sessions, newest first.
func (s *service) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	all, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	now := s.clock.Now()
	live := slices.DeleteFunc(all, func(sess domain.Session) bool {
		return domain.IsExpired(sess.ExpirationDate, now)
	})
	slices.SortFunc(live, func(a, b domain.Session) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return live, nil
}
