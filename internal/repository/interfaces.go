package repository

import (
	"context"

	"github.com/hackforge/platform/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateRole(ctx context.Context, userID string, role domain.Role) error
	UpdateLastLogin(ctx context.Context, userID string) error
}

// LinkedAccountRepository defines methods for linked account operations.
// It is the only surface through which LinkedAccount rows are created or
// mutated.
type LinkedAccountRepository interface {
	Create(ctx context.Context, account *domain.LinkedAccount) error
	GetByProvider(ctx context.Context, provider, providerAccountID string) (*domain.LinkedAccount, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.LinkedAccount, error)
	Delete(ctx context.Context, accountID string) error
}
