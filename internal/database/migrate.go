package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id               TEXT PRIMARY KEY,
		balance          NUMERIC(30, 10) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		total_wagered    NUMERIC(30, 10) NOT NULL DEFAULT 0 CHECK (total_wagered >= 0),
		vip_tier         TEXT NOT NULL DEFAULT 'None',
		bonus_due        NUMERIC(30, 10) NOT NULL DEFAULT 0 CHECK (bonus_due >= 0),
		claim_code_hash  TEXT,
		claim_amount     NUMERIC(30, 10) NOT NULL DEFAULT 0,
		claim_claimed_at TIMESTAMPTZ,
		version          INTEGER NOT NULL DEFAULT 1,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id         BIGSERIAL PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		kind       TEXT NOT NULL,
		amount     NUMERIC(30, 10) NOT NULL,
		metadata   JSONB NOT NULL DEFAULT '{}',
		status     TEXT NOT NULL DEFAULT 'completed',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_account_created
		ON ledger_entries (account_id, created_at, id)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_pending_redemptions
		ON ledger_entries (created_at) WHERE kind = 'redemption' AND status = 'pending'`,
}

// Migrate creates the ledger tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	log.Info().Int("statements", len(schema)).Msg("Database schema up to date")
	return nil
}
