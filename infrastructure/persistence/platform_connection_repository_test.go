package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"video-publisher/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var connectionRowColumns = []string{"id", "user_id", "platform", "platform_user_id", "platform_username", "access_token",
	"refresh_token", "token_expires_at", "metadata", "is_active", "created_at", "updated_at"}

func TestPlatformConnectionRepository_GetByUserAndPlatform(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlatformConnectionRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM platform_connections WHERE user_id=$1 AND platform=$2`)).
		WithArgs("user-1", "YOUTUBE").
		WillReturnRows(sqlmock.NewRows(connectionRowColumns).
			AddRow("conn-1", "user-1", "YOUTUBE", "UC123", "My Channel", "access", "refresh", now, []byte(`{"channel_title":"My Channel"}`), true, now, now))

	c, err := repo.GetByUserAndPlatform(context.Background(), "user-1", model.PlatformYouTube)
	require.NoError(t, err)
	assert.Equal(t, model.PlatformYouTube, c.Platform)
	assert.Equal(t, "access", c.AccessToken)
	require.NotNil(t, c.RefreshToken)
	assert.Equal(t, "refresh", *c.RefreshToken)
	assert.Equal(t, "My Channel", c.Metadata["channel_title"])
}

func TestPlatformConnectionRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlatformConnectionRepository(db)
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (user_id, platform) DO UPDATE SET`)).
		WithArgs(sqlmock.AnyArg(), "user-1", "RUMBLE", nil, nil, "tok", nil, nil, []byte(`{}`), true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("existing-id", created, updated))

	c := &model.PlatformConnection{UserID: "user-1", Platform: model.PlatformRumble, AccessToken: "tok", IsActive: true}
	require.NoError(t, repo.Upsert(context.Background(), c))
	assert.Equal(t, "existing-id", c.ID)
	assert.Equal(t, created, c.CreatedAt)
}

func TestPlatformConnectionRepository_UpdateTokens(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlatformConnectionRepository(db)
	exp := time.Now().Add(time.Hour).UTC()

	mock.ExpectExec(regexp.QuoteMeta(`refresh_token=COALESCE($2, refresh_token)`)).
		WithArgs("new-access", nil, exp, sqlmock.AnyArg(), "conn-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateTokens(context.Background(), "conn-1", model.Credentials{AccessToken: "new-access", ExpiresAt: &exp})
	require.NoError(t, err)
}

func TestPlatformConnectionRepository_SetActive_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlatformConnectionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE platform_connections SET is_active=$1`)).
		WithArgs(false, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SetActive(context.Background(), "missing", false), model.ErrNotFound)
}
