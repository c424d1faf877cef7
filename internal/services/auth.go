package services

import (
	"context"
	"errors"

	"github.com/transportmanager/apiserver/internal/logger"
	"github.com/transportmanager/apiserver/internal/store"
	"github.com/transportmanager/apiserver/types"
)

// CredentialStore is the slice of the user repository used for login.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (types.UserRecord, error)
	TouchLastLogin(ctx context.Context, id int) error
}

// AuthService verifies credentials. It keeps no session state.
type AuthService struct {
	users     CredentialStore
	passwords PasswordScheme
	log       *logger.Logger
}

func NewAuthService(users CredentialStore, passwords PasswordScheme, log *logger.Logger) *AuthService {
	if passwords == nil {
		passwords = PlaintextScheme{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AuthService{users: users, passwords: passwords, log: log}
}

// Authenticate returns the identity of the active user matching email and
// password. An unknown email and a wrong password fail identically.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (types.AuthUser, error) {
	if email == "" || password == "" {
		return types.AuthUser{}, ValidationError(MsgMissingLogin)
	}

	record, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.AuthUser{}, newError(KindUnauthorized, MsgBadCredentials)
		}
		return types.AuthUser{}, internalError(err, MsgAuthenticateFail)
	}

	if !s.passwords.Matches(record.Password, password) {
		return types.AuthUser{}, newError(KindUnauthorized, MsgBadCredentials)
	}

	if err := s.users.TouchLastLogin(ctx, record.ID); err != nil {
		s.log.Warn(s.log.WithUserID(ctx, record.ID), "auth.last_login_touch_failed", err)
	}

	return types.AuthUser{
		ID:    record.ID,
		Name:  record.Name,
		Email: record.Email,
		Role:  record.Role,
	}, nil
}
