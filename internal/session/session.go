// Package session owns the authenticated state of a browser: the upstream
// user record and bearer token, kept server side and referenced by a signed
// cookie. Every state change goes through Manager and is announced as an
// Event to the subscribers of a Notifier.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/logger"
	"cinebook/internal/models"
)

// Config - настройки сессий
type Config struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	SecureCookie bool
}

type EventType string

const (
	EventLogin        EventType = "login"
	EventLogout       EventType = "logout"
	EventTokenExpired EventType = "token_expired"
)

// Event - переход состояния сессии
type Event struct {
	Type      EventType
	SessionID string
	User      models.User
	At        time.Time
}

type Subscriber interface {
	OnSessionEvent(ctx context.Context, ev Event)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, ev Event)

func (f SubscriberFunc) OnSessionEvent(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// Notifier fans session events out to its subscribers, synchronously and in
// subscription order.
type Notifier struct {
	mu          sync.RWMutex
	subscribers []Subscriber
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Subscribe(s Subscriber) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribers = append(n.subscribers, s)
}

func (n *Notifier) Notify(ctx context.Context, ev Event) {
	n.mu.RLock()
	subs := append([]Subscriber(nil), n.subscribers...)
	n.mu.RUnlock()

	for _, s := range subs {
		s.OnSessionEvent(ctx, ev)
	}
}

// Store persists sessions.
type Store interface {
	Save(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// VisitCleaner drops per-session booking state when a session ends.
type VisitCleaner interface {
	DeleteForSession(ctx context.Context, sessionID string) error
}

type Manager struct {
	cfg      Config
	store    Store
	visits   VisitCleaner
	notifier *Notifier
	secret   []byte
}

func NewManager(cfg Config, store Store, visits VisitCleaner, notifier *Notifier) *Manager {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "cinebook_session"
	}
	if notifier == nil {
		notifier = NewNotifier()
	}

	return &Manager{
		cfg:      cfg,
		store:    store,
		visits:   visits,
		notifier: notifier,
		secret:   []byte(cfg.Secret),
	}
}

func (m *Manager) Config() Config {
	return m.cfg
}

func (m *Manager) Notifier() *Notifier {
	return m.notifier
}

// Login starts a session for user and returns it with the signed cookie value.
func (m *Manager) Login(ctx context.Context, user models.User, accessToken string) (*models.Session, string, error) {
	now := time.Now()
	s := &models.Session{
		ID:          uuid.New().String(),
		User:        user,
		AccessToken: accessToken,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.cfg.TTL),
	}

	if err := m.store.Save(ctx, s); err != nil {
		return nil, "", fmt.Errorf("failed to save session: %w", err)
	}

	cookie, err := m.sign(s)
	if err != nil {
		return nil, "", err
	}

	m.notify(ctx, EventLogin, s)
	return s, cookie, nil
}

func (m *Manager) sign(s *models.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		Subject:   s.User.Account,
		IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// Resolve returns the session referenced by a cookie value. Any invalid,
// expired or unknown cookie yields ErrSessionNotFound.
func (m *Manager) Resolve(ctx context.Context, cookie string) (*models.Session, error) {
	if cookie == "" {
		return nil, apperrors.ErrSessionNotFound
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(cookie, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		logger.WithContext(ctx).Debug("Rejected session cookie", "error", err)
		return nil, apperrors.ErrSessionNotFound
	}

	s, err := m.store.Get(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if s.User.Account != claims.Subject {
		return nil, apperrors.ErrSessionNotFound
	}
	return s, nil
}

// Update stores a changed user record in an existing session.
func (m *Manager) Update(ctx context.Context, s *models.Session) error {
	return m.store.Save(ctx, s)
}

// Logout ends the session at the user's request.
func (m *Manager) Logout(ctx context.Context, s *models.Session) error {
	return m.end(ctx, EventLogout, s)
}

// Expire ends the session because the upstream rejected its token.
func (m *Manager) Expire(ctx context.Context, s *models.Session) error {
	return m.end(ctx, EventTokenExpired, s)
}

func (m *Manager) end(ctx context.Context, typ EventType, s *models.Session) error {
	if s == nil {
		return nil
	}

	var errs []error
	if err := m.store.Delete(ctx, s.ID); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete session: %w", err))
	}
	if m.visits != nil {
		if err := m.visits.DeleteForSession(ctx, s.ID); err != nil {
			errs = append(errs, err)
		}
	}

	m.notify(ctx, typ, s)
	return errors.Join(errs...)
}

func (m *Manager) notify(ctx context.Context, typ EventType, s *models.Session) {
	m.notifier.Notify(ctx, Event{Type: typ, SessionID: s.ID, User: s.User, At: time.Now()})
}

// LogSubscriber writes every session transition to the structured log.
func LogSubscriber() Subscriber {
	return SubscriberFunc(func(ctx context.Context, ev Event) {
		logger.WithContext(ctx).Info("Session event",
			"event", string(ev.Type),
			"session_id", ev.SessionID,
			"account", ev.User.Account,
			"role", ev.User.Role,
		)
	})
}
