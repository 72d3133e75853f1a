package database

import (
	"context"
	"fmt"
	"log"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS fra_claims (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		village_name TEXT NOT NULL,
		district TEXT NOT NULL,
		state TEXT NOT NULL,
		claim_type TEXT NOT NULL CHECK (claim_type IN ('IFR', 'CR', 'CFR')),
		area_hectares DOUBLE PRECISION NOT NULL CHECK (area_hectares > 0),
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fra_claims_status_locality ON fra_claims (status, state, district)`,
	`CREATE TABLE IF NOT EXISTS asset_maps (
		id UUID PRIMARY KEY,
		village_name TEXT NOT NULL,
		district TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT '',
		asset_type TEXT NOT NULL CHECK (asset_type IN ('agriculture', 'forest', 'water_body', 'homestead')),
		geojson JSONB,
		source TEXT NOT NULL DEFAULT '',
		last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_asset_maps_locality ON asset_maps (village_name, district)`,
	`CREATE TABLE IF NOT EXISTS scheme_recommendations (
		id UUID PRIMARY KEY,
		fra_claim_id UUID NOT NULL UNIQUE REFERENCES fra_claims (id) ON DELETE CASCADE,
		recommended_schemes JSONB NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		engine_version TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS logs (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT,
		action TEXT NOT NULL,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_action ON logs (action, created_at)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS fra_claims (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		village_name TEXT NOT NULL,
		district TEXT NOT NULL,
		state TEXT NOT NULL,
		claim_type TEXT NOT NULL CHECK (claim_type IN ('IFR', 'CR', 'CFR')),
		area_hectares REAL NOT NULL CHECK (area_hectares > 0),
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
		submitted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fra_claims_status_locality ON fra_claims (status, state, district)`,
	`CREATE TABLE IF NOT EXISTS asset_maps (
		id TEXT PRIMARY KEY,
		village_name TEXT NOT NULL,
		district TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT '',
		asset_type TEXT NOT NULL CHECK (asset_type IN ('agriculture', 'forest', 'water_body', 'homestead')),
		geojson TEXT,
		source TEXT NOT NULL DEFAULT '',
		last_updated DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_asset_maps_locality ON asset_maps (village_name, district)`,
	`CREATE TABLE IF NOT EXISTS scheme_recommendations (
		id TEXT PRIMARY KEY,
		fra_claim_id TEXT NOT NULL UNIQUE REFERENCES fra_claims (id) ON DELETE CASCADE,
		recommended_schemes TEXT NOT NULL,
		generated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		engine_version TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT,
		action TEXT NOT NULL,
		metadata TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_action ON logs (action, created_at)`,
}

// Migrate creates the tables the service needs. It is idempotent.
func (c *Client) Migrate(ctx context.Context) error {
	stmts := postgresSchema
	if c.Driver == DriverSQLite {
		stmts = sqliteSchema
	}

	for i, stmt := range stmts {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed applying migration step %d: %w", i+1, err)
		}
	}

	log.Println("✅ Database migrations applied")
	return nil
}
