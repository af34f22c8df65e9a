package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinebook/internal/models"
	"cinebook/internal/session"
)

type fakePublisher struct {
	subjects []string
	messages []interface{}
	err      error
}

func (f *fakePublisher) PublishAsync(subject string, data interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.messages = append(f.messages, data)
	return nil
}

func TestSessionEventPublisher(t *testing.T) {
	pub := &fakePublisher{}
	p := NewSessionEventPublisher(pub)
	at := time.Date(2024, 5, 10, 19, 0, 0, 0, time.UTC)

	p.OnSessionEvent(context.Background(), session.Event{
		Type:      session.EventTokenExpired,
		SessionID: "sid",
		User:      models.User{Account: "khach01", Role: models.RoleCustomer},
		At:        at,
	})

	require.Len(t, pub.messages, 1)
	assert.Equal(t, models.SubjectSessionEvents, pub.subjects[0])
	assert.Equal(t, models.SessionEventMessage{
		Type:      "token_expired",
		SessionID: "sid",
		Account:   "khach01",
		Role:      models.RoleCustomer,
		Timestamp: at,
	}, pub.messages[0])
}

func TestSessionEventPublisherSwallowsErrors(t *testing.T) {
	p := NewSessionEventPublisher(&fakePublisher{err: errors.New("nats down")})

	assert.NotPanics(t, func() {
		p.OnSessionEvent(context.Background(), session.Event{Type: session.EventLogin})
	})
}
