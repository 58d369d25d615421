package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"video-publisher/infrastructure/logger"
)

var schemaTables = []struct {
	name string
	ddl  string
}{
	{"users", `CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT,
		email TEXT UNIQUE,
		email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		image TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"posts", `CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		created_by_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"videos", `CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		tags TEXT[] NOT NULL DEFAULT '{}',
		privacy TEXT NOT NULL DEFAULT 'PRIVATE' CHECK (privacy IN ('PUBLIC','UNLISTED','PRIVATE')),
		s3_key TEXT NOT NULL,
		s3_bucket TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_size BIGINT NOT NULL,
		mime_type TEXT NOT NULL,
		duration DOUBLE PRECISION,
		thumbnail_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"platform_connections", `CREATE TABLE IF NOT EXISTS platform_connections (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		platform TEXT NOT NULL CHECK (platform IN ('YOUTUBE','RUMBLE')),
		platform_user_id TEXT,
		platform_username TEXT,
		access_token TEXT NOT NULL,
		refresh_token TEXT,
		token_expires_at TIMESTAMPTZ,
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT platform_connections_user_platform_key UNIQUE (user_id, platform)
	)`},
	{"publish_jobs", `CREATE TABLE IF NOT EXISTS publish_jobs (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		platform_connection_id TEXT NOT NULL REFERENCES platform_connections(id) ON DELETE CASCADE,
		created_by_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING','PROCESSING','COMPLETED','FAILED','CANCELLED')),
		title TEXT,
		description TEXT,
		tags TEXT[],
		privacy TEXT CHECK (privacy IS NULL OR privacy IN ('PUBLIC','UNLISTED','PRIVATE')),
		scheduled_for TIMESTAMPTZ,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		platform_video_id TEXT,
		platform_video_url TEXT,
		error_message TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		is_update BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
}

// Columns added after the first release; older databases get them through ALTER TABLE.
var schemaUpgrades = []struct {
	table  string
	column string
	ddl    string
}{
	{"publish_jobs", "is_update", "ALTER TABLE publish_jobs ADD COLUMN is_update BOOLEAN NOT NULL DEFAULT FALSE"},
	{"videos", "thumbnail_url", "ALTER TABLE videos ADD COLUMN thumbnail_url TEXT"},
}

var schemaIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_posts_name ON posts(name)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_by_id ON posts(created_by_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_user_id ON videos(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_platform_connections_user_id ON platform_connections(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_publish_jobs_due ON publish_jobs(status, scheduled_for)`,
	`CREATE INDEX IF NOT EXISTS idx_publish_jobs_video_id ON publish_jobs(video_id)`,
	`CREATE INDEX IF NOT EXISTS idx_publish_jobs_connection_id ON publish_jobs(platform_connection_id)`,
	`CREATE INDEX IF NOT EXISTS idx_publish_jobs_created_by_id ON publish_jobs(created_by_id, created_at DESC)`,
}

// EnsureSchema creates every table and index if missing. It is safe to call on each start.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, t := range schemaTables {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create %s table: %w", t.name, err)
		}
	}
	for _, u := range schemaUpgrades {
		exists, err := columnExists(ctx, db, u.table, u.column)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.ExecContext(ctx, u.ddl); err != nil {
				return fmt.Errorf("adding column %s.%s failed: %w", u.table, u.column, err)
			}
		}
	}
	for _, ddl := range schemaIndexes {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			logger.GetLogger().WithField("error", err).WithField("ddl", ddl).Warn("failed creating index")
		}
	}
	return nil
}

func columnExists(ctx context.Context, db DBTX, table, column string) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.columns WHERE table_name=$1 AND column_name=$2`, table, column)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
