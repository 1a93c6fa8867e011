package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-magic-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) VerifySession(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) ResolveSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(v *mockVerifier, res *mockResolver, cookie string) (*httptest.ResponseRecorder, *domain.Session) {
	var seen *domain.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}
	rr := httptest.NewRecorder()
	Session(v, res)(next).ServeHTTP(rr, req)
	return rr, seen
}

func TestSession_MissingCookie(t *testing.T) {
	rr, _ := serve(&mockVerifier{}, &mockResolver{}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestSession_BadToken(t *testing.T) {
	v := &mockVerifier{}
	v.On("VerifySession", "garbage").Return("", domain.ErrUnauthorized)
	res := &mockResolver{}

	rr, _ := serve(v, res, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	res.AssertNotCalled(t, "ResolveSession", mock.Anything, mock.Anything)
}

func TestSession_ExpiredOrDeletedSession(t *testing.T) {
	v := &mockVerifier{}
	v.On("VerifySession", "tok").Return("s1", nil)
	res := &mockResolver{}
	res.On("ResolveSession", mock.Anything, "s1").Return(nil, domain.ErrNotFound)

	rr, _ := serve(v, res, "tok")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSession_StoreFailureIs500(t *testing.T) {
	v := &mockVerifier{}
	v.On("VerifySession", "tok").Return("s1", nil)
	res := &mockResolver{}
	res.On("ResolveSession", mock.Anything, "s1").Return(nil, errors.New("dynamo down"))

	rr, _ := serve(v, res, "tok")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSession_InjectsSession(t *testing.T) {
	v := &mockVerifier{}
	v.On("VerifySession", "tok").Return("s1", nil)
	res := &mockResolver{}
	sess := &domain.Session{SessionID: "s1", UserID: "u1"}
	res.On("ResolveSession", mock.Anything, "s1").Return(sess, nil)

	rr, seen := serve(v, res, "tok")
	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.UserID)
}
