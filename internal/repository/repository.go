package repository

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Repositories - серверное состояние приложения в Redis. Бизнес-данные
// (фильмы, пользователи, места) живут только в апстриме.
type Repositories struct {
	Sessions *SessionRepository
	Visits   *VisitRepository
	Audit    *SessionAuditLog
}

func NewRepositories(client *redis.Client, visitTTL time.Duration) *Repositories {
	return &Repositories{
		Sessions: NewSessionRepository(client),
		Visits:   NewVisitRepository(client, visitTTL),
		Audit:    NewSessionAuditLog(client),
	}
}
