// Package users persists registered accounts. Stores serialize their own
// writes and are safe for concurrent use.
package users

import (
	"context"
	"errors"

	"houseprice/internal/models"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

// Store is the account persistence contract. Emails are expected to be
// normalized by the caller.
type Store interface {
	Get(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, user models.User) error
	Count(ctx context.Context) (int, error)
}
