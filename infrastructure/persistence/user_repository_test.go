package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{"id", "name", "email", "email_verified", "image", "created_at", "updated_at"}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	createdAt := time.Date(2025, 9, 4, 1, 2, 10, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + userColumns + ` FROM users WHERE id=$1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("user-1", "Lambok Tulus", "lambok@example.com", true, nil, createdAt, createdAt))

	u, err := repo.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, u.Name)
	assert.Equal(t, "Lambok Tulus", *u.Name)
	assert.Equal(t, "lambok@example.com", *u.Email)
	assert.True(t, u.EmailVerified)
	assert.Nil(t, u.Image)
	assert.Equal(t, createdAt, u.CreatedAt)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id=$1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_GetByEmail_Normalizes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email=$1`)).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("u1", nil, "alice@example.com", false, nil, now, now))

	u, err := repo.GetByEmail(context.Background(), "  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Nil(t, u.Name)
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	name := "Alice"
	email := "Alice@Example.com"

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (id, name, email, email_verified, image, created_at, updated_at)`)).
		WithArgs(sqlmock.AnyArg(), "Alice", "alice@example.com", false, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &model.User{Name: &name, Email: &email}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@example.com", *u.Email)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	email := "dup@example.com"

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &model.User{Email: &email})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestUserRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email ILIKE $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`)).
		WithArgs("%example%", dto.DefaultLimit, 0).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "A", "a@example.com", false, nil, now, now).
			AddRow("u2", "B", "b@example.com", true, nil, now, now))

	list, err := repo.List(context.Background(), dto.UserFilter{EmailContains: "example"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "u2", list[1].ID)
}

func TestUserRepository_Delete_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id=$1`)).
		WithArgs("nobody").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "nobody"), model.ErrNotFound)
}
