package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-magic-auth/internal/application/session"
	"github.com/go-magic-auth/internal/domain"
	"github.com/go-magic-auth/internal/infrastructure/memory"
	"github.com/go-magic-auth/internal/passcode"
	"github.com/go-magic-auth/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingSender records the last code it was asked to deliver.
type capturingSender struct {
	mu     sync.Mutex
	target string
	code   string
	link   string
}

func (c *capturingSender) SendCode(_ context.Context, target, code, link string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target, c.code, c.link = target, code, link
	return nil
}

type flow struct {
	svc           Service
	sender        *capturingSender
	verifications *memory.VerificationRepo
	users         *memory.UserRepo
	sessions      *memory.SessionRepo
	now           *time.Time
}

func newFlow(t *testing.T) *flow {
	t.Helper()
	now := testNow
	clk := clock.Func(func() time.Time { return now })
	engine, err := passcode.NewEngine(clk)
	require.NoError(t, err)

	f := &flow{
		sender:        &capturingSender{},
		verifications: memory.NewVerificationRepo(),
		users:         memory.NewUserRepo(),
		sessions:      memory.NewSessionRepo(),
		now:           &now,
	}
	f.svc = NewService(ServiceDeps{
		VerificationRepo: f.verifications,
		UserRepo:         f.users,
		Sessions:         session.NewService(session.ServiceDeps{SessionRepo: f.sessions, Clock: clk}),
		Engine:           engine,
		Sender:           f.sender,
		Clock:            clk,
		BaseURL:          "http://localhost:3000",
	})
	return f
}

func TestFlow_SendThenVerifyNewUserGoesToOnboarding(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t)

	out, err := f.svc.Handle(ctx, SendCode{Email: "alice@example.com"})
	require.NoError(t, err)
	require.True(t, out.OK())

	v, err := f.verifications.FindByTypeAndTarget(ctx, "login", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(10*time.Minute), v.ExpiresAt)
	assert.Equal(t, "alice@example.com", f.sender.target)
	assert.Contains(t, f.sender.link, "code="+f.sender.code)

	*f.now = testNow.Add(2 * time.Minute)
	out, err = f.svc.Handle(ctx, VerifyCode{Code: f.sender.code, Target: "alice@example.com", Type: "login"})
	require.NoError(t, err)
	require.True(t, out.OK())
	assert.Equal(t, "/onboarding?email=alice%40example.com", out.Redirect.Location())

	assert.Equal(t, 0, f.verifications.Len(), "verification must be one-time use")
	_, err = f.users.GetByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound, "no user is created before onboarding")
}

func TestFlow_CodeCannotBeRedeemedTwice(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t)

	_, err := f.svc.Handle(ctx, SendCode{Email: "alice@example.com"})
	require.NoError(t, err)
	code := f.sender.code

	_, err = f.svc.Handle(ctx, VerifyCode{Code: code, Target: "alice@example.com", Type: "login"})
	require.NoError(t, err)

	out, err := f.svc.Handle(ctx, VerifyCode{Code: code, Target: "alice@example.com", Type: "login"})
	require.NoError(t, err)
	assert.Equal(t, CodeInvalidCode, out.Failure.Code)
}

func TestFlow_VerifyAcceptsTargetInAnyCase(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t)

	_, err := f.svc.Handle(ctx, SendCode{Email: "  Alice@Example.COM "})
	require.NoError(t, err)

	out, err := f.svc.Handle(ctx, VerifyCode{Code: f.sender.code, Target: " Alice@Example.COM", Type: "login"})
	require.NoError(t, err)
	require.True(t, out.OK(), "failure: %+v", out.Failure)
	assert.Equal(t, "/onboarding?email=alice%40example.com", out.Redirect.Location())
	assert.Equal(t, 0, f.verifications.Len())
}

func TestFlow_ResendReplacesPreviousCode(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t)

	_, err := f.svc.Handle(ctx, SendCode{Email: "alice@example.com"})
	require.NoError(t, err)
	first := f.sender.code
	_, err = f.svc.Handle(ctx, SendCode{Email: "alice@example.com"})
	require.NoError(t, err)
	second := f.sender.code

	assert.Equal(t, 1, f.verifications.Len())
	if first != second {
		out, err := f.svc.Handle(ctx, VerifyCode{Code: first, Target: "alice@example.com", Type: "login"})
		require.NoError(t, err)
		assert.Equal(t, CodeInvalidCode, out.Failure.Code)
	}
	out, err := f.svc.Handle(ctx, VerifyCode{Code: second, Target: "alice@example.com", Type: "login"})
	require.NoError(t, err)
	assert.True(t, out.OK())
}

func TestFlow_ExpiredCode(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t)

	_, err := f.svc.Handle(ctx, SendCode{Email: "alice@example.com"})
	require.NoError(t, err)

	*f.now = testNow.Add(10 * time.Minute)
	out, err := f.svc.Handle(ctx, VerifyCode{Code: f.sender.code, Target: "alice@example.com", Type: "login"})
	require.NoError(t, err)
	assert.Equal(t, CodeCodeExpired, out.Failure.Code)
	assert.Equal(t, 1, f.verifications.Len(), "expired rows are left for the next send to overwrite")
}

func TestFlow_OnboardFreshDatabase(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t)

	out, err := f.svc.Handle(ctx, Onboard{Email: "alice@example.com", Name: "Alice"})
	require.NoError(t, err)
	require.True(t, out.OK())
	assert.Equal(t, PathHome, out.Redirect.Location())
	require.NotNil(t, out.Redirect.Session)

	u, err := f.users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)

	sessions, err := f.sessions.ListByUser(ctx, u.UserID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, out.Redirect.Session.SessionID, sessions[0].SessionID)
	assert.Equal(t, testNow.Add(30*24*time.Hour), sessions[0].ExpirationDate)
}

func TestFlow_ReturningUserLogsIn(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t)

	_, err := f.svc.Handle(ctx, Onboard{Email: "alice@example.com", Name: "Alice"})
	require.NoError(t, err)

	_, err = f.svc.Handle(ctx, SendCode{Email: "ALICE@example.com"})
	require.NoError(t, err)
	out, err := f.svc.Handle(ctx, VerifyCode{Code: f.sender.code, Target: "alice@example.com", Type: "login"})
	require.NoError(t, err)

	require.True(t, out.OK())
	assert.Equal(t, PathHome, out.Redirect.Path)
	require.NotNil(t, out.Redirect.Session)
}

func TestFlow_UnknownTargetTouchesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t)

	out, err := f.svc.Handle(ctx, VerifyCode{Code: "ABC234", Target: "ghost@example.com", Type: "login"})
	require.NoError(t, err)
	assert.Equal(t, CodeInvalidCode, out.Failure.Code)

	_, err = f.users.GetByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	sessions, err := f.sessions.ListByUser(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
