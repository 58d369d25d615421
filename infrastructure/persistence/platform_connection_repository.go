package persistence

import (
	"context"
	"database/sql"
	"encoding/json"

	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"
	"video-publisher/infrastructure/utils"
)

const connectionColumns = `id, user_id, platform, platform_user_id, platform_username, access_token, refresh_token, token_expires_at, metadata, is_active, created_at, updated_at`

// PlatformConnectionRepository stores one OAuth credential set per (user, platform).
type PlatformConnectionRepository struct{ db DBTX }

func NewPlatformConnectionRepository(db DBTX) *PlatformConnectionRepository {
	return &PlatformConnectionRepository{db: db}
}

func (r *PlatformConnectionRepository) WithTx(tx *sql.Tx) *PlatformConnectionRepository {
	return &PlatformConnectionRepository{db: tx}
}

func scanConnection(row rowScanner) (*model.PlatformConnection, error) {
	c := &model.PlatformConnection{}
	var platformUserID, platformUsername, refresh sql.NullString
	var expires sql.NullTime
	var metadata []byte
	if err := row.Scan(&c.ID, &c.UserID, &c.Platform, &platformUserID, &platformUsername, &c.AccessToken, &refresh,
		&expires, &metadata, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.PlatformUserID = nullStringPtr(platformUserID)
	c.PlatformUsername = nullStringPtr(platformUsername)
	c.RefreshToken = nullStringPtr(refresh)
	c.TokenExpiresAt = nullTimePtr(expires)
	c.Metadata = map[string]interface{}{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			logger.GetLogger().WithField("connection_id", c.ID).WithField("error", err).Warn("invalid connection metadata")
		}
	}
	return c, nil
}

func (r *PlatformConnectionRepository) GetByID(ctx context.Context, id string) (*model.PlatformConnection, error) {
	c, err := scanConnection(r.db.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM platform_connections WHERE id=$1`, id))
	if err != nil {
		return nil, mapError("get connection", err)
	}
	return c, nil
}

func (r *PlatformConnectionRepository) GetByUserAndPlatform(ctx context.Context, userID string, platform model.Platform) (*model.PlatformConnection, error) {
	c, err := scanConnection(r.db.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM platform_connections WHERE user_id=$1 AND platform=$2`, userID, string(platform)))
	if err != nil {
		return nil, mapError("get connection by platform", err)
	}
	return c, nil
}

func (r *PlatformConnectionRepository) ListByUser(ctx context.Context, userID string) ([]*model.PlatformConnection, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+connectionColumns+` FROM platform_connections WHERE user_id=$1 ORDER BY platform`, userID)
	if err != nil {
		return nil, mapError("list connections", err)
	}
	defer rows.Close()
	list := []*model.PlatformConnection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, mapError("scan connection", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *PlatformConnectionRepository) Upsert(ctx context.Context, c *model.PlatformConnection) error {
	if c.ID == "" {
		c.ID = utils.NewID()
	}
	if c.Metadata == nil {
		c.Metadata = map[string]interface{}{}
	}
	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return mapError("encode connection metadata", err)
	}
	now := utils.GetCurrentTime()
	q := `INSERT INTO platform_connections (` + connectionColumns + `)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			platform_user_id=EXCLUDED.platform_user_id,
			platform_username=EXCLUDED.platform_username,
			access_token=EXCLUDED.access_token,
			refresh_token=COALESCE(EXCLUDED.refresh_token, platform_connections.refresh_token),
			token_expires_at=EXCLUDED.token_expires_at,
			metadata=EXCLUDED.metadata,
			is_active=EXCLUDED.is_active,
			updated_at=EXCLUDED.updated_at
		  RETURNING id, created_at, updated_at`
	err = r.db.QueryRowContext(ctx, q, c.ID, c.UserID, string(c.Platform), c.PlatformUserID, c.PlatformUsername, c.AccessToken,
		c.RefreshToken, c.TokenExpiresAt, metadata, c.IsActive, now).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapError("upsert connection", err)
}

// UpdateTokens stores refreshed credentials. A nil refresh token keeps the stored one.
func (r *PlatformConnectionRepository) UpdateTokens(ctx context.Context, id string, creds model.Credentials) error {
	res, err := r.db.ExecContext(ctx, `UPDATE platform_connections SET access_token=$1, refresh_token=COALESCE($2, refresh_token), token_expires_at=$3, updated_at=$4 WHERE id=$5`,
		creds.AccessToken, creds.RefreshToken, creds.ExpiresAt, utils.GetCurrentTime(), id)
	if err != nil {
		return mapError("update connection tokens", err)
	}
	return expectOne("update connection tokens", res, model.ErrNotFound)
}

func (r *PlatformConnectionRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE platform_connections SET is_active=$1, updated_at=$2 WHERE id=$3`, active, utils.GetCurrentTime(), id)
	if err != nil {
		return mapError("set connection active", err)
	}
	return expectOne("set connection active", res, model.ErrNotFound)
}

func (r *PlatformConnectionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM platform_connections WHERE id=$1`, id)
	if err != nil {
		return mapError("delete connection", err)
	}
	return expectOne("delete connection", res, model.ErrNotFound)
}

var _ repository.IPlatformConnection = (*PlatformConnectionRepository)(nil)
