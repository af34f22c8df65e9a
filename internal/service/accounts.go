package service

import (
	"context"
	"fmt"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/external"
	"cinebook/internal/logger"
	"cinebook/internal/models"
	"cinebook/internal/session"
)

type AccountService struct {
	client   *external.MovieAPIClient
	sessions *session.Manager
}

func NewAccountService(client *external.MovieAPIClient, sessions *session.Manager) *AccountService {
	return &AccountService{client: client, sessions: sessions}
}

// Login authenticates against the upstream and starts a session. prev is the
// session the request came with, if any; it is ended once the new login is
// accepted. Returns the session and the signed cookie value.
func (s *AccountService) Login(ctx context.Context, prev *models.Session, req models.LoginRequest) (*models.Session, string, error) {
	user, token, err := s.client.Login(ctx, req.Account, req.Password)
	if err != nil {
		return nil, "", err
	}
	s.endPrevious(ctx, prev)
	return s.sessions.Login(ctx, user, token)
}

// AdminLogin is Login restricted to admin accounts. A valid customer login
// is rejected with ErrForbidden; no session is created and prev stays.
func (s *AccountService) AdminLogin(ctx context.Context, prev *models.Session, req models.LoginRequest) (*models.Session, string, error) {
	user, token, err := s.client.Login(ctx, req.Account, req.Password)
	if err != nil {
		return nil, "", err
	}
	if !user.IsAdmin() {
		logger.WithContext(ctx).Warn("Non-admin account tried the admin login", "account", user.Account)
		return nil, "", apperrors.ErrForbidden
	}
	s.endPrevious(ctx, prev)
	return s.sessions.Login(ctx, user, token)
}

// endPrevious logs out prev with its visits. A failure does not block the
// new login; the old session then runs out on its TTL.
func (s *AccountService) endPrevious(ctx context.Context, prev *models.Session) {
	if prev == nil {
		return
	}
	if err := s.sessions.Logout(ctx, prev); err != nil {
		logger.WithContext(ctx).Error("Failed to end previous session", "session_id", prev.ID, "error", err)
	}
}

func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	return s.client.Register(ctx, req)
}

func (s *AccountService) Logout(ctx context.Context, sess *models.Session) error {
	return s.sessions.Logout(ctx, sess)
}

// Profile returns the session user with their ticket history.
func (s *AccountService) Profile(ctx context.Context, sess *models.Session) (models.Account, error) {
	acc, err := clientFor(s.client, sess).AccountInfo(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to get account info: %w", err)
	}
	acc.User.Password = ""
	return acc, nil
}

// UpdateProfile changes the session user's contact data and, when given, the
// password. The upstream needs the current password on every update, so it
// is read back first.
func (s *AccountService) UpdateProfile(ctx context.Context, sess *models.Session, in models.ProfileInput) (models.User, error) {
	client := clientFor(s.client, sess)

	acc, err := client.AccountInfo(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get account info: %w", err)
	}

	user := acc.User
	user.Name = in.Name
	user.Email = in.Email
	user.Phone = in.Phone
	if in.Password != "" && in.Password != models.PasswordPlaceholder {
		user.Password = in.Password
	}

	if err := client.UpdateProfile(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("failed to update profile: %w", err)
	}

	user.Password = ""
	sess.User = user
	if err := s.sessions.Update(ctx, sess); err != nil {
		return models.User{}, err
	}
	return user, nil
}
