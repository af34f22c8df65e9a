package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/models"
)

// SessionRepository stores every session under the single key session:<id>.
type SessionRepository struct {
	client *redis.Client
	prefix string
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{
		client: client,
		prefix: "session:",
	}
}

// Save writes the session with a TTL matching its ExpiresAt.
func (r *SessionRepository) Save(ctx context.Context, s *models.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return apperrors.ErrSessionNotFound
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return r.client.Set(ctx, r.prefix+s.ID, data, ttl).Err()
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if s.ExpiresAt.Before(time.Now()) {
		r.client.Del(ctx, r.prefix+id)
		return nil, apperrors.ErrSessionNotFound
	}

	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}
