package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists dashboard accounts.
// Lookups return shared.ErrNotFound when no user matches.
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
}
