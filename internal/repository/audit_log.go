package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"cinebook/internal/models"
)

const (
	AuditLogKey    = "audit:sessions"
	AuditCountsKey = "audit:session_counts"
	AuditSeenKey   = "audit:seen"

	AuditLogSize = 1000
	// Сколько помним обработанные события для защиты от повторной доставки
	auditSeenTTL = 24 * time.Hour
)

// appendScript records one transition unless session_id+type was already
// recorded. Returns 1 when written, 0 for a duplicate.
var appendScript = redis.NewScript(`
if redis.call('SADD', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('EXPIRE', KEYS[1], ARGV[5])
redis.call('LPUSH', KEYS[2], ARGV[2])
redis.call('LTRIM', KEYS[2], 0, tonumber(ARGV[3]) - 1)
redis.call('HINCRBY', KEYS[3], ARGV[4], 1)
return 1
`)

// SessionAuditLog - журнал переходов сессий в Redis: последние события и
// счетчики по типу. Пишет consumer, читает админка.
type SessionAuditLog struct {
	client *redis.Client
}

func NewSessionAuditLog(client *redis.Client) *SessionAuditLog {
	return &SessionAuditLog{client: client}
}

// Append records ev once per session and type. A redelivered message is
// reported as not written.
func (l *SessionAuditLog) Append(ctx context.Context, ev models.SessionEventMessage) (bool, error) {
	entry, err := json.Marshal(ev)
	if err != nil {
		return false, fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	written, err := appendScript.Run(ctx, l.client,
		[]string{AuditSeenKey, AuditLogKey, AuditCountsKey},
		ev.SessionID+":"+ev.Type, entry, AuditLogSize, ev.Type, int(auditSeenTTL.Seconds()),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to write audit entry: %w", err)
	}
	return written == 1, nil
}

// Recent returns up to n latest entries, newest first.
func (l *SessionAuditLog) Recent(ctx context.Context, n int64) ([]models.SessionEventMessage, error) {
	raw, err := l.client.LRange(ctx, AuditLogKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	events := make([]models.SessionEventMessage, 0, len(raw))
	for _, item := range raw {
		var ev models.SessionEventMessage
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Counts returns the number of recorded transitions per type.
func (l *SessionAuditLog) Counts(ctx context.Context) (map[string]int64, error) {
	raw, err := l.client.HGetAll(ctx, AuditCountsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit counts: %w", err)
	}

	counts := make(map[string]int64, len(raw))
	for typ, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		counts[typ] = n
	}
	return counts, nil
}
