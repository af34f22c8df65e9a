package messaging

import (
	"context"

	"cinebook/internal/logger"
	"cinebook/internal/models"
	"cinebook/internal/session"
)

// AsyncPublisher is satisfied by *NATSClient.
type AsyncPublisher interface {
	PublishAsync(subject string, data interface{}) error
}

// SessionEventPublisher forwards session transitions to NATS for the audit
// consumer.
type SessionEventPublisher struct {
	pub AsyncPublisher
}

func NewSessionEventPublisher(pub AsyncPublisher) *SessionEventPublisher {
	return &SessionEventPublisher{pub: pub}
}

// OnSessionEvent implements session.Subscriber. Publish failures never fail
// the login or logout that caused them.
func (p *SessionEventPublisher) OnSessionEvent(ctx context.Context, ev session.Event) {
	msg := models.SessionEventMessage{
		Type:      string(ev.Type),
		SessionID: ev.SessionID,
		Account:   ev.User.Account,
		Role:      ev.User.Role,
		Timestamp: ev.At,
	}

	if err := p.pub.PublishAsync(models.SubjectSessionEvents, msg); err != nil {
		logger.WithContext(ctx).Error("Failed to publish session event", "event", msg.Type, "error", err)
	}
}
