package service

import (
	"context"

	"github.com/hackforge/platform/internal/domain"
	"github.com/hackforge/platform/internal/dto"
)

// AuthService defines credential verification, session issuance, and the
// user operations the auth boundary needs.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*AuthResult, error)
	IssueSession(user *domain.User) (*AuthResult, error)
	ValidateToken(token string) (*domain.SessionClaims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateUserRole(ctx context.Context, actor *domain.SessionClaims, targetID string, role domain.Role) error
}

// AccountLinker resolves external identities to local users and manages
// provider links. It is the only component that creates or mutates
// LinkedAccount rows.
type AccountLinker interface {
	Resolve(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, error)
	Link(ctx context.Context, userID string, req *dto.LinkAccountRequest) (LinkOutcome, error)
	Unlink(ctx context.Context, userID, provider string) error
	Accounts(ctx context.Context, userID string) ([]*domain.LinkedAccount, error)
}

// LinkOutcome describes the result of an explicit link request.
type LinkOutcome int

const (
	LinkCreated LinkOutcome = iota
	LinkNoop
)
