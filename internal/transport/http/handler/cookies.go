package handler

import (
	"net/http"
	"time"

	"github.com/go-magic-auth/internal/domain"
	"github.com/go-magic-auth/internal/transport/http/middleware"
)

// TokenSigner mints the signed values stored in the auth cookies.
type TokenSigner interface {
	SignSession(sessionID string, expiresAt time.Time) (string, error)
	SignOnboarding(email string, ttl time.Duration) (string, error)
	VerifyOnboarding(token string) (string, error)
}

// Cookies writes and reads the session and onboarding cookies.
type Cookies struct {
	tokens        TokenSigner
	secure        bool
	onboardingTTL time.Duration
}

func NewCookies(tokens TokenSigner, secure bool, onboardingTTL time.Duration) *Cookies {
	return &Cookies{tokens: tokens, secure: secure, onboardingTTL: onboardingTTL}
}

func (c *Cookies) setSession(w http.ResponseWriter, s *domain.Session) error {
	tok, err := c.tokens.SignSession(s.SessionID, s.ExpirationDate)
	if err != nil {
		return err
	}
	http.SetCookie(w, c.cookie(middleware.SessionCookie, tok, s.ExpirationDate))
	return nil
}

func (c *Cookies) setOnboarding(w http.ResponseWriter, email string) error {
	tok, err := c.tokens.SignOnboarding(email, c.onboardingTTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, c.cookie(middleware.OnboardingCookie, tok, time.Now().Add(c.onboardingTTL)))
	return nil
}

// onboardingEmail returns the verified email carried by the onboarding cookie.
func (c *Cookies) onboardingEmail(r *http.Request) (string, bool) {
	ck, err := r.Cookie(middleware.OnboardingCookie)
	if err != nil || ck.Value == "" {
		return "", false
	}
	email, err := c.tokens.VerifyOnboarding(ck.Value)
	if err != nil {
		return "", false
	}
	return email, true
}

func (c *Cookies) clear(w http.ResponseWriter, name string) {
	ck := c.cookie(name, "", time.Unix(0, 0))
	ck.MaxAge = -1
	http.SetCookie(w, ck)
}

func (c *Cookies) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
