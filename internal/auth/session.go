// Package auth issues and checks the time-bound admin credential used by door
// staff and scoreboard operators.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/logger"

	"github.com/google/uuid"
)

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SessionManager struct {
	password []byte
	secret   []byte
	ttl      time.Duration
	store    SessionStore
	logger   *logger.Logger
	now      func() time.Time
}

// NewSessionManager needs a non-empty password and signing secret. store may be
// nil, in which case tokens are valid until they expire and Logout is a no-op.
func NewSessionManager(password, secret string, ttl time.Duration, store SessionStore, log *logger.Logger) (*SessionManager, error) {
	if password == "" {
		return nil, errors.New("ADMIN_PASSWORD is not configured")
	}
	if len(secret) < 32 {
		return nil, errors.New("ADMIN_JWT_SECRET must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("admin session TTL must be positive")
	}
	return &SessionManager{
		password: []byte(password),
		secret:   []byte(secret),
		ttl:      ttl,
		store:    store,
		logger:   log,
		now:      time.Now,
	}, nil
}

// Login exchanges the shared admin password for a signed session token.
func (m *SessionManager) Login(ctx context.Context, password string) (*Session, error) {
	if subtle.ConstantTimeCompare([]byte(password), m.password) != 1 {
		m.logger.LogSecurity("ADMIN_LOGIN_FAILED", "admin login rejected")
		return nil, apperr.Unauthorized("invalid credentials")
	}

	now := m.now()
	jti := uuid.NewString()
	expiresAt := now.Add(m.ttl)

	token, err := signToken(m.secret, jti, now, expiresAt)
	if err != nil {
		return nil, apperr.Internal("sign admin token", err)
	}
	if m.store != nil {
		if err := m.store.Save(ctx, jti, m.ttl); err != nil {
			return nil, apperr.Internal("register admin session", err)
		}
	}

	m.logger.Info("AUTH", fmt.Sprintf("Admin session %s issued, expires %s", jti, expiresAt.Format(time.RFC3339)))
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Validate checks signature, expiry and that the session was not revoked.
func (m *SessionManager) Validate(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, apperr.Unauthorized("missing admin credential")
	}
	claims, err := parseToken(m.secret, token, m.now)
	if err != nil {
		m.logger.LogSecurity("ADMIN_TOKEN_REJECTED", err.Error())
		return nil, apperr.Unauthorized("invalid or expired admin credential")
	}
	if m.store != nil {
		live, err := m.store.Exists(ctx, claims.ID)
		if err != nil {
			return nil, apperr.Internal("check admin session", err)
		}
		if !live {
			m.logger.LogSecurity("ADMIN_SESSION_REVOKED", claims.ID)
			return nil, apperr.Unauthorized("admin session has ended")
		}
	}
	return claims, nil
}

func (m *SessionManager) Logout(ctx context.Context, token string) error {
	claims, err := m.Validate(ctx, token)
	if err != nil {
		return err
	}
	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(ctx, claims.ID); err != nil {
		return apperr.Internal("revoke admin session", err)
	}
	m.logger.Info("AUTH", fmt.Sprintf("Admin session %s revoked", claims.ID))
	return nil
}
