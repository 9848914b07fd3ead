// Package users implements account registration and login.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/vikinglab/contentvault/internal/common"
	"github.com/vikinglab/contentvault/internal/logging"
	"github.com/vikinglab/contentvault/internal/server/auth"
	"github.com/vikinglab/contentvault/internal/server/models"
	repo "github.com/vikinglab/contentvault/internal/server/repositories/users"
)

type Service struct {
	users         repo.Repository
	secretKey     []byte
	tokenValidity time.Duration
	logger        logging.Logger
}

func NewService(users repo.Repository, secretKey []byte, tokenValidity time.Duration, logger logging.Logger) *Service {
	return &Service{
		users:         users,
		secretKey:     secretKey,
		tokenValidity: tokenValidity,
		logger:        logger.With("module", "users"),
	}
}

// Register creates an account and returns a fresh access token. A taken
// username surfaces as common.ErrorAlreadyExists.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: username and password are required", common.ErrorUnauthorized)
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.users.Create(ctx, &models.User{UserName: username, PasswordHash: hash})
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "user registered", "username", user.UserName)
	return auth.GenerateToken(user.UserName, s.secretKey, s.tokenValidity)
}

// Login verifies the credentials and returns an access token. Unknown
// usernames and wrong passwords both surface as common.ErrorUnauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", common.ErrorUnauthorized
	}

	match, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !match {
		return "", common.ErrorUnauthorized
	}

	s.logger.Info(ctx, "user logged in", "username", username)
	return auth.GenerateToken(username, s.secretKey, s.tokenValidity)
}
