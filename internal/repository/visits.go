package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"cinebook/internal/booking"
	apperrors "cinebook/internal/errors"
)

// VisitRepository keeps the seat selection of one booking page visit, keyed
// by session and showtime.
type VisitRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewVisitRepository(client *redis.Client, ttl time.Duration) *VisitRepository {
	return &VisitRepository{
		client: client,
		prefix: "visit:",
		ttl:    ttl,
	}
}

func (r *VisitRepository) key(sessionID string, showtimeID int64) string {
	return r.prefix + sessionID + ":" + strconv.FormatInt(showtimeID, 10)
}

// Save writes the visit and restarts its TTL.
func (r *VisitRepository) Save(ctx context.Context, v *booking.Visit) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal visit: %w", err)
	}

	return r.client.Set(ctx, r.key(v.SessionID, v.ShowtimeID), data, r.ttl).Err()
}

func (r *VisitRepository) Get(ctx context.Context, sessionID string, showtimeID int64) (*booking.Visit, error) {
	data, err := r.client.Get(ctx, r.key(sessionID, showtimeID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrVisitNotFound
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}

	var v booking.Visit
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal visit: %w", err)
	}
	return &v, nil
}

func (r *VisitRepository) Delete(ctx context.Context, sessionID string, showtimeID int64) error {
	return r.client.Del(ctx, r.key(sessionID, showtimeID)).Err()
}

// DeleteForSession drops every visit of a session.
func (r *VisitRepository) DeleteForSession(ctx context.Context, sessionID string) error {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+sessionID+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan visits: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
