package db

import (
	"context"
	"fmt"
)

// schema is applied in order on startup. Every statement must be idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		user_name     TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token      TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS commutes (
		id                         TEXT PRIMARY KEY,
		user_id                    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date_commuted              DATE NOT NULL,
		start_time                 TEXT NOT NULL DEFAULT '',
		end_time                   TEXT NOT NULL DEFAULT '',
		duration_minutes           INTEGER NOT NULL,
		estimated_duration_minutes INTEGER,
		distance_km                DOUBLE PRECISION NOT NULL DEFAULT 0,
		start_location             TEXT NOT NULL DEFAULT '',
		end_location               TEXT NOT NULL DEFAULT '',
		start_lat                  DOUBLE PRECISION NOT NULL,
		start_lng                  DOUBLE PRECISION NOT NULL,
		end_lat                    DOUBLE PRECISION NOT NULL,
		end_lng                    DOUBLE PRECISION NOT NULL,
		traffic_level              TEXT NOT NULL DEFAULT '',
		notes                      TEXT NOT NULL DEFAULT '',
		created_at                 TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS commutes_user_date_idx ON commutes (user_id, date_commuted DESC)`,
	`CREATE TABLE IF NOT EXISTS user_settings (
		user_id           TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		location_access   BOOLEAN NOT NULL DEFAULT false,
		commute_reminders BOOLEAN NOT NULL DEFAULT false,
		ai_suggestions    BOOLEAN NOT NULL DEFAULT false,
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS saved_places (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		label      TEXT NOT NULL,
		address    TEXT NOT NULL DEFAULT '',
		lat        DOUBLE PRECISION NOT NULL,
		lng        DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, label)
	)`,
	`CREATE TABLE IF NOT EXISTS track_sessions (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		started_at       TIMESTAMPTZ NOT NULL,
		ended_at         TIMESTAMPTZ,
		status           TEXT NOT NULL,
		total_distance_m DOUBLE PRECISION NOT NULL DEFAULT 0,
		path_wkt         TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS track_points (
		id          BIGSERIAL PRIMARY KEY,
		session_id  TEXT NOT NULL REFERENCES track_sessions(id) ON DELETE CASCADE,
		lat         DOUBLE PRECISION NOT NULL,
		lng         DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		speed_mps   DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables the services expect.
func EnsureSchema(ctx context.Context, q Querier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
