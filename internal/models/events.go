package models

import "time"

// NATS subjects
const (
	SubjectSessionEvents = "session.events"
)

// SessionEventMessage - сообщение о смене состояния сессии, публикуется в NATS
type SessionEventMessage struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Account   string    `json:"account"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}
