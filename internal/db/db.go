// Package db provides PostgreSQL connection handling and the schema used by
// the venue, profile and feedback repositories.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

// Pool defaults.
const (
	DefaultMaxOpenConns    = 20
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 30 * time.Minute
)

// Open connects to PostgreSQL and verifies the connection with a ping.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open(DriverName, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(DefaultMaxOpenConns)
	conn.SetMaxIdleConns(DefaultMaxIdleConns)
	conn.SetConnMaxLifetime(DefaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// Schema creates every table the service reads or writes. Statements are
// idempotent so EnsureSchema can run on each startup.
const Schema = `
CREATE TABLE IF NOT EXISTS venues (
	id         TEXT PRIMARY KEY,
	slug       TEXT UNIQUE,
	name       TEXT NOT NULL,
	category   TEXT,
	address    TEXT,
	lat        DOUBLE PRECISION,
	lng        DOUBLE PRECISION,
	avg_price  DOUBLE PRECISION,
	rating     DOUBLE PRECISION,
	is_active  BOOLEAN DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_venues_name ON venues(name);

CREATE TABLE IF NOT EXISTS features (
	id    TEXT PRIMARY KEY,
	slug  TEXT NOT NULL UNIQUE,
	label TEXT
);

CREATE TABLE IF NOT EXISTS venue_features (
	venue_id   TEXT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
	feature_id TEXT NOT NULL REFERENCES features(id) ON DELETE CASCADE,
	PRIMARY KEY (venue_id, feature_id)
);

CREATE TABLE IF NOT EXISTS profiles (
	id              TEXT PRIMARY KEY,
	budget_level    DOUBLE PRECISION,
	home_lat        DOUBLE PRECISION,
	home_lng        DOUBLE PRECISION,
	max_distance_km DOUBLE PRECISION,
	fav_categories  TEXT[]
);

CREATE TABLE IF NOT EXISTS user_feature_prefs (
	user_id    TEXT NOT NULL,
	feature_id TEXT NOT NULL REFERENCES features(id) ON DELETE CASCADE,
	weight     DOUBLE PRECISION,
	PRIMARY KEY (user_id, feature_id)
);

CREATE TABLE IF NOT EXISTS feedback (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at);
`

// EnsureSchema applies Schema.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
