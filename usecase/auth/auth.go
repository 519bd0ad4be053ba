package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/pkg/token"
	"github.com/fastygo/todo/repository"
)

// TokenPair is handed to the client after login or refresh. Refresh is the
// session id.
type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type UseCase struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	tokens     *token.Manager
	refreshTTL time.Duration
	logger     *zap.Logger
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *token.Manager,
	refreshTTL time.Duration,
	logger *zap.Logger,
) *UseCase {
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// Login checks credentials and opens a session. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (uc *UseCase) Login(ctx context.Context, username, password string, metadata map[string]string) (*TokenPair, error) {
	log := logger.WithRequestID(ctx, uc.logger)

	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Info("login rejected", zap.String("username", username), zap.String("reason", "unknown user"))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		log.Info("login rejected", zap.String("user_id", user.ID), zap.String("reason", "password mismatch"))
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.refreshTTL),
		Metadata:  metadata,
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	pair, err := uc.issue(session)
	if err != nil {
		return nil, err
	}
	log.Info("logged in", zap.String("user_id", user.ID), zap.String("session_id", session.ID))
	return pair, nil
}

// Refresh extends the session behind refreshToken and issues a new access token.
func (uc *UseCase) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	session, err := uc.sessions.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, session.ID, uc.refreshTTL); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	session.ExpiresAt = time.Now().Add(uc.refreshTTL)
	return uc.issue(session)
}

// Revoke ends a session; access tokens bound to it stop authenticating.
func (uc *UseCase) Revoke(ctx context.Context, sessionID string) error {
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Info("session revoked", zap.String("session_id", sessionID))
	return nil
}

// Authenticate resolves an access token to the calling principal.
func (uc *UseCase) Authenticate(ctx context.Context, accessToken string) (*domain.Principal, error) {
	claims, err := uc.tokens.Parse(accessToken)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid access token", err)
	}
	session, err := uc.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.NewError(domain.ErrCodeUnauthorized, "session expired or revoked")
		}
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, domain.ErrUnauthorized
	}
	return &domain.Principal{UserID: claims.UserID, SessionID: session.ID}, nil
}

func (uc *UseCase) issue(session *domain.Session) (*TokenPair, error) {
	access, expiresAt, err := uc.tokens.Issue(session.UserID, session.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		Access:           access,
		Refresh:          session.ID,
		AccessExpiresAt:  expiresAt,
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}
