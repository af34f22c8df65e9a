package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/stan.go"

	"cinebook/internal/models"
	"cinebook/internal/repository"
)

// Archive - долговременное хранилище аудита (Postgres)
type Archive interface {
	Insert(ctx context.Context, ev models.SessionEventMessage) error
}

// Handlers - обработчики событий сессий
type Handlers struct {
	log     *repository.SessionAuditLog
	archive Archive
}

// NewHandlers creates the handlers. archive may be nil, then only the Redis
// log is kept.
func NewHandlers(log *repository.SessionAuditLog, archive Archive) *Handlers {
	return &Handlers{log: log, archive: archive}
}

// HandleSessionEvent records a session transition. A message that fails to
// process is left unacked and redelivered.
func (h *Handlers) HandleSessionEvent(m *stan.Msg) {
	if err := h.processSessionEvent(context.Background(), m.Data); err != nil {
		slog.Error("Failed to process session event", "error", err)
		return
	}

	if err := m.Ack(); err != nil {
		slog.Error("Failed to ack session event", "error", err)
	}
}

// processSessionEvent writes the archive first, then the Redis log. Both
// writes ignore a session_id+type they already hold, so a redelivery after
// a partial failure completes the missing write without counting twice.
func (h *Handlers) processSessionEvent(ctx context.Context, data []byte) error {
	var event models.SessionEventMessage
	if err := json.Unmarshal(data, &event); err != nil {
		// a malformed message will never succeed, drop it
		slog.Error("Failed to unmarshal session event", "error", err)
		return nil
	}

	slog.Info("Processing session event",
		"event", event.Type, "session_id", event.SessionID, "account", event.Account)

	if h.archive != nil {
		if err := h.archive.Insert(ctx, event); err != nil {
			return err
		}
	}

	written, err := h.log.Append(ctx, event)
	if err != nil {
		return err
	}
	if !written {
		slog.Info("Session event already recorded", "event", event.Type, "session_id", event.SessionID)
	}
	return nil
}
