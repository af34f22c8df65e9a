package repository

import (
	"context"
	"fmt"

	"cinebook/internal/database"
	"cinebook/internal/models"
)

// AuditRepository - архив переходов сессий в Postgres
type AuditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert archives ev. A session_id+type already archived is skipped, so a
// redelivered message leaves one row.
func (r *AuditRepository) Insert(ctx context.Context, ev models.SessionEventMessage) error {
	query := `
		INSERT INTO session_audit (event_type, session_id, account, role, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, event_type) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, ev.Type, ev.SessionID, ev.Account, ev.Role, ev.Timestamp); err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}
