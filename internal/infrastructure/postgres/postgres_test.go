package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-magic-auth/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDB struct{ mock.Mock }

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	a := m.Called(ctx, sql, args)
	tag, _ := a.Get(0).(pgconn.CommandTag)
	return tag, a.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	a := m.Called(ctx, sql, args)
	rows, _ := a.Get(0).(pgx.Rows)
	return rows, a.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.Called(ctx, sql, args).Get(0).(pgx.Row)
}

// errRow is a pgx.Row whose Scan always fails with err.
type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
}

func TestVerificationRepo_ConsumeZeroRowsIsNotFound(t *testing.T) {
	db := &mockDB{}
	db.On("Exec", mock.Anything, mock.Anything, []any{"login", "a@b.com", "S1"}).
		Return(pgconn.NewCommandTag("DELETE 0"), nil)

	err := NewVerificationRepo(db).Consume(context.Background(), "login", "a@b.com", "S1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerificationRepo_ConsumeOneRow(t *testing.T) {
	db := &mockDB{}
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.NewCommandTag("DELETE 1"), nil)

	require.NoError(t, NewVerificationRepo(db).Consume(context.Background(), "login", "a@b.com", "S1"))
}

func TestVerificationRepo_FindNoRowsIsNotFound(t *testing.T) {
	db := &mockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(errRow{err: pgx.ErrNoRows})

	_, err := NewVerificationRepo(db).FindByTypeAndTarget(context.Background(), "login", "a@b.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_CreateDuplicateEmailIsConflict(t *testing.T) {
	db := &mockDB{}
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.CommandTag{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := NewUserRepo(db).Create(context.Background(), &domain.User{UserID: "u1", Email: "a@b.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepo_CreateOtherErrorIsNotConflict(t *testing.T) {
	db := &mockDB{}
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, errors.New("connection reset"))

	err := NewUserRepo(db).Create(context.Background(), &domain.User{UserID: "u1", Email: "a@b.com"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrConflict))
}

func TestMigrate_StopsAtFirstFailure(t *testing.T) {
	db := &mockDB{}
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, errors.New("permission denied")).Once()

	err := Migrate(context.Background(), db)
	assert.ErrorContains(t, err, "permission denied")
	db.AssertNumberOfCalls(t, "Exec", 1)
}
