package repository

import (
	"context"

	"bearer-auth/internal/domain"
)

// UserRepository is the credential store. Create must fail with
// domain.ErrUserAlreadyExists when the username is taken, and lookups with
// domain.ErrUserNotFound when it is absent.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	AddRole(ctx context.Context, username, role string) error
}
