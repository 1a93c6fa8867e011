package jwtinfra

import (
	"fmt"
	"time"

	"github.com/go-magic-auth/internal/domain"
	"github.com/go-magic-auth/internal/pkg/clock"
	"github.com/golang-jwt/jwt/v5"
)

// Audiences keep a session token from being replayed as an onboarding token and vice versa.
const (
	AudienceSession    = "session"
	AudienceOnboarding = "onboarding"
)

// MinSecretLength is the shortest HS256 key the provider accepts.
const MinSecretLength = 32

const issuer = "go-magic-auth"

// Provider signs and verifies the HS256 JWTs carried in the session and
// onboarding cookies. The subject is the session id or the verified email.
type Provider struct {
	secret []byte
	clock  clock.Clock
}

func NewProvider(secret []byte, clk clock.Clock) (*Provider, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	if clk == nil {
		clk = clock.System
	}
	return &Provider{secret: secret, clock: clk}, nil
}

// SignSession issues a token for sessionID that expires with the session.
func (p *Provider) SignSession(sessionID string, expiresAt time.Time) (string, error) {
	return p.sign(AudienceSession, sessionID, expiresAt)
}

// VerifySession returns the session id carried by token.
func (p *Provider) VerifySession(token string) (string, error) {
	return p.verify(AudienceSession, token)
}

// SignOnboarding proves that email completed code verification within ttl.
func (p *Provider) SignOnboarding(email string, ttl time.Duration) (string, error) {
	return p.sign(AudienceOnboarding, email, p.clock.Now().Add(ttl))
}

// VerifyOnboarding returns the verified email carried by token.
func (p *Provider) VerifyOnboarding(token string) (string, error) {
	return p.verify(AudienceOnboarding, token)
}

func (p *Provider) sign(audience, subject string, expiresAt time.Time) (string, error) {
	now := p.clock.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func (p *Provider) verify(audience, tokenStr string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.clock.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%s token: %v: %w", audience, err, domain.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%s token: missing subject: %w", audience, domain.ErrUnauthorized)
	}
	return claims.Subject, nil
}
