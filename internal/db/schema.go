package db

import (
	"context"
	"fmt"
)

// schema holds the table and index definitions, applied in order.
// Statements are idempotent so Migrate is safe to run at every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		refresh_token TEXT,
		scope TEXT NOT NULL DEFAULT '',
		last_synced TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (email)`,

	`CREATE TABLE IF NOT EXISTS artists (
		id UUID PRIMARY KEY,
		spotify_id TEXT,
		uri TEXT,
		name TEXT NOT NULL,
		popularity INT NOT NULL DEFAULT 0,
		genres TEXT[] NOT NULL DEFAULT '{}',
		follower_count INT NOT NULL DEFAULT 0,
		images JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS artists_name_idx ON artists (name)`,

	`CREATE TABLE IF NOT EXISTS user_artists (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users (id),
		artist_id UUID NOT NULL REFERENCES artists (id),
		rank INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, rank)
	)`,
	`CREATE INDEX IF NOT EXISTS user_artists_user_idx ON user_artists (user_id)`,

	`CREATE TABLE IF NOT EXISTS related_artists (
		id UUID PRIMARY KEY,
		root_artist_id UUID NOT NULL REFERENCES artists (id),
		related_artist_id UUID NOT NULL REFERENCES artists (id),
		rank INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (root_artist_id, related_artist_id)
	)`,
	`CREATE INDEX IF NOT EXISTS related_artists_root_idx ON related_artists (root_artist_id)`,
	`CREATE INDEX IF NOT EXISTS related_artists_related_idx ON related_artists (related_artist_id)`,
	`CREATE INDEX IF NOT EXISTS related_artists_updated_idx ON related_artists (updated_at)`,

	`CREATE TABLE IF NOT EXISTS logins (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS logins_username_idx ON logins (username)`,
}

// Migrate creates missing tables and indexes.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
