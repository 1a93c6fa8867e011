package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-magic-auth/internal/domain"
	"github.com/go-magic-auth/internal/passcode"
	"github.com/go-magic-auth/internal/pkg/clock"
	"github.com/go-magic-auth/internal/pkg/id"
)

// DefaultCodeTTL bounds how long an issued login code can be redeemed.
const DefaultCodeTTL = 10 * time.Minute

// VerificationStore persists at most one verification per (type, target).
type VerificationStore interface {
	// Save atomically inserts or replaces the row for (v.Type, v.Target).
	Save(ctx context.Context, v *domain.Verification) error
	FindByTypeAndTarget(ctx context.Context, verType, target string) (*domain.Verification, error)
	// DeleteByTypeAndTarget is for callers outside the login flow and cleanup
	// jobs; redemption goes through Consume.
	DeleteByTypeAndTarget(ctx context.Context, verType, target string) error
	// Consume deletes the row only if it still holds secret. It returns
	// domain.ErrNotFound when nothing was deleted.
	Consume(ctx context.Context, verType, target, secret string) error
}

// UserStore looks up and creates accounts. Create returns domain.ErrConflict
// when the email is already taken.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// SessionIssuer mints login sessions.
type SessionIssuer interface {
	CreateSession(ctx context.Context, userID string) (*domain.Session, error)
}

// CodeEngine issues and checks one-time codes.
type CodeEngine interface {
	Issue() (*passcode.Issued, error)
	Verify(p passcode.Params, code string) (bool, error)
}

// CodeSender delivers a code and its magic link to target. Best effort.
type CodeSender interface {
	SendCode(ctx context.Context, target, code, link string) error
}

type Service interface {
	// Handle runs one intent to completion.
	Handle(ctx context.Context, in Intent) (*Outcome, error)
}

// ServiceDeps groups the collaborators of NewService.
type ServiceDeps struct {
	VerificationRepo VerificationStore
	UserRepo         UserStore
	Sessions         SessionIssuer
	Engine           CodeEngine
	Sender           CodeSender
	Clock            clock.Clock
	BaseURL          string
	CodeTTL          time.Duration
}

type service struct {
	verificationRepo VerificationStore
	userRepo         UserStore
	sessions         SessionIssuer
	engine           CodeEngine
	sender           CodeSender
	clock            clock.Clock
	baseURL          string
	codeTTL          time.Duration
}

var _ intentHandler = (*service)(nil)

func NewService(deps ServiceDeps) Service {
	s := &service{
		verificationRepo: deps.VerificationRepo,
		userRepo:         deps.UserRepo,
		sessions:         deps.Sessions,
		engine:           deps.Engine,
		sender:           deps.Sender,
		clock:            deps.Clock,
		baseURL:          deps.BaseURL,
		codeTTL:          deps.CodeTTL,
	}
	if s.clock == nil {
		s.clock = clock.System
	}
	if s.codeTTL <= 0 {
		s.codeTTL = DefaultCodeTTL
	}
	return s
}

func (s *service) Handle(ctx context.Context, in Intent) (*Outcome, error) {
	if in == nil {
		return nil, fmt.Errorf("nil intent: %w", domain.ErrBadRequest)
	}
	return in.dispatch(ctx, s)
}

func (s *service) sendCode(ctx context.Context, in SendCode) (*Outcome, error) {
	email, code := ValidateEmail(in.Email)
	if code != "" {
		return fail(code), nil
	}

	issued, err := s.engine.Issue()
	if err != nil {
		return nil, fmt.Errorf("issue code: %w", err)
	}
	now := s.clock.Now()
	v := &domain.Verification{
		Type:      domain.VerificationTypeLogin,
		Target:    email,
		Secret:    issued.Secret,
		Algorithm: issued.Algorithm,
		Digits:    issued.Digits,
		Period:    issued.Period,
		CharSet:   issued.CharSet,
		ExpiresAt: domain.ExpiryFrom(now, s.codeTTL),
		CreatedAt: now,
	}
	if err := s.verificationRepo.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("save verification: %w", err)
	}

	out := redirect(PathVerify, url.Values{"target": {email}, "type": {v.Type}}, nil)
	link := s.magicLink(v.Type, email, issued.Code)
	if err := s.sender.SendCode(ctx, email, issued.Code, link); err != nil {
		// The verification stays valid; the user can resend.
		slog.Error("failed to deliver verification code", "target", email, "type", v.Type, "err", err)
		out.DeliveryErr = err
	}
	return out, nil
}

func (s *service) verifyCode(ctx context.Context, in VerifyCode) (*Outcome, error) {
	v, err := s.verificationRepo.FindByTypeAndTarget(ctx, in.Type, normalizeTarget(in.Target))
	if errors.Is(err, domain.ErrNotFound) {
		return fail(CodeInvalidCode), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find verification: %w", err)
	}
	// An expired row is left in place; the next SendCode overwrites it.
	if domain.IsExpired(v.ExpiresAt, s.clock.Now()) {
		return fail(CodeCodeExpired), nil
	}

	ok, err := s.engine.Verify(paramsOf(v), in.Code)
	if err != nil {
		return nil, fmt.Errorf("verify code for %s/%s: %w", v.Type, v.Target, err)
	}
	if !ok {
		return fail(CodeInvalidCode), nil
	}
	// One-time use: only the caller that actually deletes the row proceeds.
	if err := s.verificationRepo.Consume(ctx, v.Type, v.Target, v.Secret); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fail(CodeInvalidCode), nil
		}
		return nil, fmt.Errorf("consume verification: %w", err)
	}

	u, err := s.userRepo.GetByEmail(ctx, v.Target)
	if errors.Is(err, domain.ErrNotFound) {
		return redirect(PathOnboarding, url.Values{"email": {v.Target}}, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return s.login(ctx, u)
}

func (s *service) onboard(ctx context.Context, in Onboard) (*Outcome, error) {
	email, code := ValidateEmail(in.Email)
	if code != "" {
		return fail(code), nil
	}
	name, code := ValidateName(in.Name)
	if code != "" {
		return fail(code), nil
	}

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return s.login(ctx, u)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := s.clock.Now()
	u = &domain.User{
		UserID:    id.New(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("create user: %w", err)
		}
		// A concurrent onboarding won; log into the account it created.
		if u, err = s.userRepo.GetByEmail(ctx, email); err != nil {
			return nil, fmt.Errorf("find user after conflict: %w", err)
		}
	}
	return s.login(ctx, u)
}

func (s *service) login(ctx context.Context, u *domain.User) (*Outcome, error) {
	sess, err := s.sessions.CreateSession(ctx, u.UserID)
	if err != nil {
		return nil, err
	}
	return redirect(PathHome, nil, sess), nil
}

// magicLink points at the HTTP verify endpoint with everything needed to redeem the code.
func (s *service) magicLink(verType, target, code string) string {
	q := url.Values{"type": {verType}, "target": {target}, "code": {code}}
	return s.baseURL + "/v1/verify?" + q.Encode()
}

func paramsOf(v *domain.Verification) passcode.Params {
	return passcode.Params{
		Secret:    v.Secret,
		Algorithm: v.Algorithm,
		Digits:    v.Digits,
		Period:    v.Period,
		CharSet:   v.CharSet,
	}
}
