package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hackforge/platform/internal/domain"
	"github.com/hackforge/platform/internal/dto"
	"github.com/hackforge/platform/internal/repository"
	"github.com/hackforge/platform/internal/utils"
)

// authService implements AuthService interface
type authService struct {
	userRepo     repository.UserRepository
	tokenManager *utils.SessionTokenManager
	bcryptCost   int
	logger       *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	tokenManager *utils.SessionTokenManager,
	bcryptCost int,
	logger *zap.Logger,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		tokenManager: tokenManager,
		bcryptCost:   bcryptCost,
		logger:       logger,
	}
}

// AuthResult carries the signed session token alongside the user it was
// minted for.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresIn int // seconds
}

// Register creates a user with a password. New users always start as
// STUDENT; role changes go through UpdateUserRole.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*AuthResult, error) {
	if !utils.ValidateEmail(req.Email) {
		return nil, ErrInvalidEmail
	}

	if !utils.ValidatePassword(req.Password) {
		return nil, ErrWeakPassword
	}

	email := utils.SanitizeEmail(req.Email)

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         req.Name,
		PasswordHash: passwordHash,
		Role:         domain.RoleStudent,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent sign-up for the same email won the insert.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.IssueSession(user)
}

// Login verifies credentials and mints a session. The error taxonomy
// distinguishes unknown email, OAuth-only accounts, and bad passwords;
// handlers decide how much of that reaches the client.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(req.Password)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		utils.BurnPasswordCheck(req.Password)
		return nil, ErrNoPasswordSet
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// Fire-and-forget: a failed timestamp write must not fail the sign-in.
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record last login",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	return s.IssueSession(user)
}

// IssueSession mints a session token whose claims are exactly
// {subject: user.id, role: user.role}.
func (s *authService) IssueSession(user *domain.User) (*AuthResult, error) {
	token, err := s.tokenManager.Generate(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresIn: int(s.tokenManager.Expiry().Seconds()),
	}, nil
}

// ValidateToken decodes a session token, failing closed.
func (s *authService) ValidateToken(token string) (*domain.SessionClaims, error) {
	return s.tokenManager.Validate(token)
}

// GetUser gets a user record by id
func (s *authService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateUserRole changes another user's role. Only admins may change roles,
// and never their own; the staleness window of outstanding tokens means the
// change takes effect at next session issuance.
func (s *authService) UpdateUserRole(ctx context.Context, actor *domain.SessionClaims, targetID string, role domain.Role) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}

	if actor.UserID == targetID {
		return fmt.Errorf("%w: cannot change own role", ErrForbidden)
	}

	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}

	if err := s.userRepo.UpdateRole(ctx, targetID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update role: %w", err)
	}

	return nil
}
