// Package users stores registered user accounts.
package users

import (
	"context"

	"github.com/vikinglab/contentvault/internal/server/models"
)

type Repository interface {
	// Create persists a new user; returns common.ErrorAlreadyExists when the
	// username is taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the user or common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
