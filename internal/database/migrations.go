package database

import (
	"context"
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations(ctx context.Context) error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createSessionAuditTable,
		createSessionAuditAccountIndex,
	}

	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully", "count", len(migrations))
	return nil
}

const createSessionAuditTable = `
CREATE TABLE IF NOT EXISTS session_audit (
    id BIGSERIAL PRIMARY KEY,
    event_type VARCHAR(32) NOT NULL,
    session_id VARCHAR(64) NOT NULL,
    account VARCHAR(100) NOT NULL,
    role VARCHAR(32) NOT NULL DEFAULT '',
    occurred_at TIMESTAMPTZ NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE (session_id, event_type),
    CHECK (event_type IN ('login', 'logout', 'token_expired'))
);`

const createSessionAuditAccountIndex = `
CREATE INDEX IF NOT EXISTS session_audit_account_occurred_idx
ON session_audit (account, occurred_at DESC);`
