package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-magic-auth/internal/application/auth"
	"github.com/go-magic-auth/internal/config"
	"github.com/go-magic-auth/internal/infrastructure/console"
	"github.com/go-magic-auth/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-magic-auth/internal/infrastructure/jwt"
	"github.com/go-magic-auth/internal/infrastructure/memory"
	"github.com/go-magic-auth/internal/infrastructure/postgres"
	"github.com/go-magic-auth/internal/infrastructure/smtp"
	"github.com/go-magic-auth/internal/infrastructure/sns"
	"github.com/go-magic-auth/internal/passcode"
	"github.com/go-magic-auth/internal/pkg/clock"
	transporthttp "github.com/go-magic-auth/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.close()

	sender, err := newSender(cfg)
	if err != nil {
		log.Fatalf("code dispatcher: %v", err)
	}

	var engineOpts []passcode.Option
	if cfg.CodeCharSet != "" {
		engineOpts = append(engineOpts, passcode.WithCharSet(cfg.CodeCharSet))
	}
	engine, err := passcode.NewEngine(clock.System, engineOpts...)
	if err != nil {
		log.Fatalf("passcode engine: %v", err)
	}

	secret, err := sessionSecret(cfg)
	if err != nil {
		log.Fatalf("session secret: %v", err)
	}
	tokens, err := jwtinfra.NewProvider(secret, clock.System)
	if err != nil {
		log.Fatalf("token provider: %v", err)
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		UserRepo:         st.users,
		SessionRepo:      st.sessions,
		VerificationRepo: st.verifications,
		Engine:           engine,
		Sender:           sender,
		Tokens:           tokens,
		Clock:            clock.System,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, store=%s, dispatcher=%s)", cfg.AppPort, cfg.AppEnv, cfg.StoreDriver, cfg.CodeDispatcher)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

type stores struct {
	users         transporthttp.UserRepository
	sessions      transporthttp.SessionRepository
	verifications transporthttp.VerificationRepository
	close         func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDynamo:
		// Bootstrap DynamoDB tables (creates them if they don't exist).
		client := dynamo.NewClient(cfg)
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		return &stores{
			users:         dynamo.NewUserRepo(client, cfg.DynamoTables.Users),
			sessions:      dynamo.NewSessionRepo(client, cfg.DynamoTables.Sessions),
			verifications: dynamo.NewVerificationRepo(client, cfg.DynamoTables.Verifications),
			close:         func() {},
		}, nil
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			users:         postgres.NewUserRepo(pool),
			sessions:      postgres.NewSessionRepo(pool),
			verifications: postgres.NewVerificationRepo(pool),
			close:         pool.Close,
		}, nil
	case config.StoreMemory:
		log.Println("WARN: using in-memory store; all data is lost on restart")
		return &stores{
			users:         memory.NewUserRepo(),
			sessions:      memory.NewSessionRepo(),
			verifications: memory.NewVerificationRepo(),
			close:         func() {},
		}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func newSender(cfg *config.Config) (auth.CodeSender, error) {
	switch cfg.CodeDispatcher {
	case config.DispatchSMTP:
		return smtp.NewMailer(cfg), nil
	case config.DispatchSNS:
		return sns.NewSender(cfg)
	case config.DispatchConsole:
		return console.NewSender(slog.Default()), nil
	default:
		return nil, fmt.Errorf("unknown CODE_DISPATCHER %q", cfg.CodeDispatcher)
	}
}

// sessionSecret returns SESSION_SECRET, or a random per-process key outside
// production. A random key invalidates every cookie on restart.
func sessionSecret(cfg *config.Config) ([]byte, error) {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret), nil
	}
	if cfg.AppEnv == "production" {
		return nil, errors.New("SESSION_SECRET is required in production")
	}
	log.Println("WARN: SESSION_SECRET not set; using a random key for this process")
	b := make([]byte, jwtinfra.MinSecretLength)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
