package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-magic-auth/internal/domain"
	"github.com/go-magic-auth/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) CreateSession(ctx context.Context, userID string) (*domain.Session, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*domain.Session)
	return s, args.Error(1)
}
func (m *mockSessionSvc) ResolveSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(*domain.Session)
	return s, args.Error(1)
}
func (m *mockSessionSvc) DestroySession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}
func (m *mockSessionSvc) DestroyOtherSessions(ctx context.Context, userID, keepSessionID string) error {
	return m.Called(ctx, userID, keepSessionID).Error(0)
}
func (m *mockSessionSvc) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).([]domain.Session)
	return s, args.Error(1)
}

type mockUserReader struct{ mock.Mock }

func (m *mockUserReader) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func newAccountHandler(t *testing.T) (*AccountHandler, *mockSessionSvc, *mockUserReader) {
	sessions := &mockSessionSvc{}
	users := &mockUserReader{}
	return NewAccountHandler(sessions, users, NewCookies(newTestTokens(t), true, time.Minute)), sessions, users
}

func authedReq(method, target string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	sess := &domain.Session{SessionID: "s1", UserID: "u1"}
	return r.WithContext(middleware.WithSession(r.Context(), sess))
}

func TestMe_WithoutSession(t *testing.T) {
	h, _, _ := newAccountHandler(t)
	rr := httptest.NewRecorder()
	h.Me(rr, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMe_ReturnsUserAndSession(t *testing.T) {
	h, _, users := newAccountHandler(t)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "alice@example.com", Name: "Alice"}, nil)
	rr := httptest.NewRecorder()

	h.Me(rr, authedReq(http.MethodGet, "/v1/me"))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp MeEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Alice", resp.User.Name)
	assert.Equal(t, "s1", resp.Session.SessionID)
}

func TestMe_UserGoneIs404(t *testing.T) {
	h, _, users := newAccountHandler(t)
	users.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)
	rr := httptest.NewRecorder()

	h.Me(rr, authedReq(http.MethodGet, "/v1/me"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLogout_DestroysAndClearsCookie(t *testing.T) {
	h, sessions, _ := newAccountHandler(t)
	sessions.On("DestroySession", mock.Anything, "s1").Return(nil)
	rr := httptest.NewRecorder()

	h.Logout(rr, authedReq(http.MethodPost, "/v1/logout"))

	assert.Equal(t, http.StatusOK, rr.Code)
	c := cookieByName(rr, middleware.SessionCookie)
	require.NotNil(t, c)
	assert.Equal(t, "", c.Value)
	assert.True(t, c.Secure)
	sessions.AssertExpectations(t)
}

func TestLogoutOthers_KeepsCurrent(t *testing.T) {
	h, sessions, _ := newAccountHandler(t)
	sessions.On("DestroyOtherSessions", mock.Anything, "u1", "s1").Return(nil)
	rr := httptest.NewRecorder()

	h.LogoutOthers(rr, authedReq(http.MethodPost, "/v1/sessions/logout-others"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, cookieByName(rr, middleware.SessionCookie))
	sessions.AssertExpectations(t)
}

func TestLogoutOthers_StoreFailure(t *testing.T) {
	h, sessions, _ := newAccountHandler(t)
	sessions.On("DestroyOtherSessions", mock.Anything, "u1", "s1").Return(errors.New("boom"))
	rr := httptest.NewRecorder()

	h.LogoutOthers(rr, authedReq(http.MethodPost, "/v1/sessions/logout-others"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSessions_MarksCurrent(t *testing.T) {
	h, sessions, _ := newAccountHandler(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sessions.On("ListSessions", mock.Anything, "u1").Return([]domain.Session{
		{SessionID: "s2", UserID: "u1", CreatedAt: created.Add(time.Hour), ExpirationDate: created.Add(48 * time.Hour)},
		{SessionID: "s1", UserID: "u1", CreatedAt: created, ExpirationDate: created.Add(24 * time.Hour)},
	}, nil)
	rr := httptest.NewRecorder()

	h.Sessions(rr, authedReq(http.MethodGet, "/v1/sessions"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), `"s2"`)
	var resp SessionsEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Sessions, 2)
	assert.False(t, resp.Sessions[0].Current)
	assert.True(t, resp.Sessions[1].Current)
	assert.True(t, created.Add(24*time.Hour).Equal(resp.Sessions[1].ExpiresAt))
}

func TestSessions_StoreFailure(t *testing.T) {
	h, sessions, _ := newAccountHandler(t)
	sessions.On("ListSessions", mock.Anything, "u1").Return(nil, errors.New("boom"))
	rr := httptest.NewRecorder()

	h.Sessions(rr, authedReq(http.MethodGet, "/v1/sessions"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
