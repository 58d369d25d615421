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

func TestPostRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO posts (name, created_by_id, created_at, updated_at) VALUES ($1,$2,$3,$3) RETURNING id`)).
		WithArgs("hello", "user-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	p := &model.Post{Name: "hello", CreatedByID: "user-1"}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, int64(42), p.ID)
}

func TestPostRepository_Create_UnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO posts`)).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "posts_created_by_id_fkey"})

	err := repo.Create(context.Background(), &model.Post{Name: "x", CreatedByID: "ghost"})
	assert.ErrorIs(t, err, model.ErrForeignKey)
}

func TestPostRepository_GetLatest(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE created_by_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_by_id", "created_at", "updated_at"}).
			AddRow(int64(7), "latest", "user-1", now, now))

	p, err := repo.GetLatest(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "latest", p.Name)
}

func TestPostRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM posts WHERE created_by_id=$1`)).
		WithArgs("user-1", 5, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_by_id", "created_at", "updated_at"}))

	list, err := repo.List(context.Background(), dto.PostFilter{CreatedByID: "user-1", Pagination: dto.Pagination{Limit: 5, Offset: 10}})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPostRepository_Update_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE posts SET name=$1, updated_at=$2 WHERE id=$3`)).
		WithArgs("renamed", sqlmock.AnyArg(), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.Post{ID: 9, Name: "renamed"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}
