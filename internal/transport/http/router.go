package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-magic-auth/internal/application/auth"
	"github.com/go-magic-auth/internal/application/session"
	"github.com/go-magic-auth/internal/config"
	jwtinfra "github.com/go-magic-auth/internal/infrastructure/jwt"
	"github.com/go-magic-auth/internal/pkg/clock"
	"github.com/go-magic-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-magic-auth/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         UserRepository
	SessionRepo      SessionRepository
	VerificationRepo VerificationRepository
	Engine           auth.CodeEngine
	Sender           auth.CodeSender
	Tokens           *jwtinfra.Provider
	Clock            clock.Clock
	// RateLimiter guards POST /v1/auth. Built from cfg when nil.
	RateLimiter *appmiddleware.RateLimiter
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authRL := deps.RateLimiter
	if authRL == nil {
		authRL = appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	sessionSvc := session.NewService(session.ServiceDeps{
		SessionRepo: deps.SessionRepo,
		Clock:       deps.Clock,
		ExpiryDays:  cfg.SessionExpiryDays,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		VerificationRepo: deps.VerificationRepo,
		UserRepo:         deps.UserRepo,
		Sessions:         sessionSvc,
		Engine:           deps.Engine,
		Sender:           deps.Sender,
		Clock:            deps.Clock,
		BaseURL:          cfg.AppBaseURL,
		CodeTTL:          cfg.VerificationTTL,
	})

	cookies := handler.NewCookies(deps.Tokens, cfg.CookieSecure, cfg.OnboardingTTL)
	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, cookies)
	accountH := handler.NewAccountHandler(sessionSvc, deps.UserRepo, cookies)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes ────────────────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(authRL.Limit).Post("/auth", authH.Submit)
		r.With(authRL.Limit).Get("/verify", authH.Verify)

		// ── Session routes ───────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Session(deps.Tokens, sessionSvc))

			r.Get("/me", accountH.Me)
			r.Post("/logout", accountH.Logout)
			r.Get("/sessions", accountH.Sessions)
			r.Post("/sessions/logout-others", accountH.LogoutOthers)
		})
	})

	return r
}
