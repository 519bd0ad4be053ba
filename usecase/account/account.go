package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/repository"
)

type UseCase struct {
	users  repository.UserRepository
	params *argon2id.Params
	logger *zap.Logger
}

// New builds the account use case. params controls password hashing cost and
// defaults to argon2id.DefaultParams.
func New(users repository.UserRepository, params *argon2id.Params, logger *zap.Logger) *UseCase {
	if params == nil {
		params = argon2id.DefaultParams
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		params: params,
		logger: logger,
	}
}

// Register creates an account. Duplicate usernames yield domain.ErrUsernameTaken.
func (uc *UseCase) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	hash, err := argon2id.CreateHash(reg.Password, uc.params)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(reg.Username),
		Email:        strings.TrimSpace(reg.Email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username))
	return user, nil
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(user); err != nil {
		return nil, err
	}
	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
