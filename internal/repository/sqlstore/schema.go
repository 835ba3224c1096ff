package sqlstore

import (
	"context"
	"fmt"
)

// Column types are chosen so the same DDL runs on SQLite and PostgreSQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		phone         TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS volunteers (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		email               TEXT NOT NULL UNIQUE,
		phone               TEXT NOT NULL DEFAULT '',
		city                TEXT NOT NULL DEFAULT '',
		password_hash       TEXT NOT NULL,
		is_verified         BOOLEAN NOT NULL DEFAULT FALSE,
		is_active           BOOLEAN NOT NULL DEFAULT TRUE,
		latitude            DOUBLE PRECISION,
		longitude           DOUBLE PRECISION,
		location_updated_at TIMESTAMP,
		created_at          TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_volunteers_verified ON volunteers(is_verified, created_at)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id          TEXT PRIMARY KEY,
		reporter_id TEXT,
		code        TEXT NOT NULL,
		message     TEXT NOT NULL DEFAULT '',
		level       TEXT NOT NULL CHECK (level IN ('green', 'yellow', 'red')),
		category    TEXT NOT NULL,
		panic_level INTEGER NOT NULL DEFAULT 1 CHECK (panic_level >= 1),
		status      TEXT NOT NULL CHECK (status IN ('active', 'resolved')),
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL,
		resolved_at TIMESTAMP,
		CHECK ((status = 'resolved') = (resolved_at IS NOT NULL))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_reporter
		ON alerts(reporter_id) WHERE status = 'active' AND reporter_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_status_created ON alerts(status, created_at)`,
	`CREATE TABLE IF NOT EXISTS response_assignments (
		id           TEXT PRIMARY KEY,
		alert_id     TEXT NOT NULL REFERENCES alerts(id),
		volunteer_id TEXT NOT NULL REFERENCES volunteers(id),
		status       TEXT NOT NULL CHECK (status IN ('pending', 'accepted', 'rejected')),
		distance_km  DOUBLE PRECISION NOT NULL DEFAULT 0,
		assigned_at  TIMESTAMP NOT NULL,
		responded_at TIMESTAMP,
		UNIQUE (alert_id, volunteer_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_volunteer ON response_assignments(volunteer_id, assigned_at)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id          TEXT PRIMARY KEY,
		reporter_id TEXT,
		description TEXT NOT NULL,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		risk_level  TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS live_locations (
		id          TEXT PRIMARY KEY,
		alert_id    TEXT NOT NULL REFERENCES alerts(id),
		sender_id   TEXT NOT NULL,
		sender_role TEXT NOT NULL,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_live_locations_alert ON live_locations(alert_id, recorded_at)`,
	`CREATE INDEX IF NOT EXISTS idx_live_locations_recorded ON live_locations(recorded_at)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
