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

// accountLinker implements AccountLinker interface
type accountLinker struct {
	userRepo    repository.UserRepository
	accountRepo repository.LinkedAccountRepository
	logger      *zap.Logger
}

// NewAccountLinker creates a new account linker
func NewAccountLinker(
	userRepo repository.UserRepository,
	accountRepo repository.LinkedAccountRepository,
	logger *zap.Logger,
) AccountLinker {
	return &accountLinker{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// Resolve maps an external identity assertion to a local user, creating or
// attaching as needed.
//
// Policy: identities sharing an email are auto-merged without a
// confirmation step, matching the platform's account model where the
// provider (Google) verifies emails. To require explicit confirmation
// instead, the auto-link branch below would return ErrAccountNotLinked.
func (l *accountLinker) Resolve(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, error) {
	email := utils.SanitizeEmail(identity.Email)
	if email == "" {
		return nil, fmt.Errorf("identity assertion carries no email")
	}

	// Fast path: the provider identity is already linked.
	if account, err := l.accountRepo.GetByProvider(ctx, identity.Provider, identity.ProviderAccountID); err == nil {
		return l.touchAndReturn(ctx, account.UserID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up provider identity: %w", err)
	}

	user, err := l.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// Auto-link by email (see policy note above).
		if err := l.attach(ctx, user.ID, identity); err != nil {
			return nil, err
		}
		return l.touchAndReturn(ctx, user.ID)

	case errors.Is(err, repository.ErrNotFound):
		return l.createWithLink(ctx, email, identity)

	default:
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
}

// createWithLink creates a fresh STUDENT user with no password and links
// the provider identity to it.
func (l *accountLinker) createWithLink(ctx context.Context, email string, identity domain.ExternalIdentity) (*domain.User, error) {
	user := &domain.User{
		Email: email,
		Name:  identity.Name,
		Role:  domain.RoleStudent,
	}
	if identity.AvatarURL != "" {
		user.AvatarURL = &identity.AvatarURL
	}

	err := l.userRepo.Create(ctx, user)
	if err != nil {
		// Lost the first-creation race: another sign-in attempt created
		// the user between our lookup and insert. Fall back to
		// lookup-and-link instead of failing.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			existing, lookupErr := l.userRepo.GetByEmail(ctx, email)
			if lookupErr != nil {
				return nil, fmt.Errorf("failed to resolve creation race: %w", lookupErr)
			}
			if attachErr := l.attach(ctx, existing.ID, identity); attachErr != nil {
				return nil, attachErr
			}
			return l.touchAndReturn(ctx, existing.ID)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := l.attach(ctx, user.ID, identity); err != nil {
		return nil, err
	}

	return l.touchAndReturn(ctx, user.ID)
}

// attach creates the LinkedAccount row, treating a concurrent duplicate for
// the same user as a no-op and a duplicate owned by someone else as a
// conflict.
func (l *accountLinker) attach(ctx context.Context, userID string, identity domain.ExternalIdentity) error {
	account := &domain.LinkedAccount{
		UserID:            userID,
		Provider:          identity.Provider,
		ProviderAccountID: identity.ProviderAccountID,
		Type:              domain.AccountTypeOAuth,
	}

	err := l.accountRepo.Create(ctx, account)
	if err == nil {
		return nil
	}

	if errors.Is(err, repository.ErrDuplicateLinkedAccount) {
		existing, lookupErr := l.accountRepo.GetByProvider(ctx, identity.Provider, identity.ProviderAccountID)
		if lookupErr != nil {
			if errors.Is(lookupErr, repository.ErrNotFound) {
				// The user already holds a different account on this
				// provider; this identity needs an explicit link step.
				return ErrAccountNotLinked
			}
			return fmt.Errorf("failed to resolve linking race: %w", lookupErr)
		}
		if existing.UserID != userID {
			return ErrProviderAlreadyClaimed
		}
		return nil // re-linking the same provider is a no-op
	}

	return fmt.Errorf("failed to link account: %w", err)
}

// touchAndReturn records the sign-in time and loads the user. The
// timestamp write is fire-and-forget.
func (l *accountLinker) touchAndReturn(ctx context.Context, userID string) (*domain.User, error) {
	if err := l.userRepo.UpdateLastLogin(ctx, userID); err != nil {
		l.logger.Warn("failed to record last login",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	user, err := l.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Link attaches a provider identity to an already-authenticated user.
// Re-linking the same provider pair is a no-op; a pair owned by a
// different user is rejected.
func (l *accountLinker) Link(ctx context.Context, userID string, req *dto.LinkAccountRequest) (LinkOutcome, error) {
	existing, err := l.accountRepo.GetByProvider(ctx, req.Provider, req.ProviderAccountID)
	if err == nil {
		if existing.UserID == userID {
			return LinkNoop, nil
		}
		return 0, ErrProviderAlreadyClaimed
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("failed to look up provider identity: %w", err)
	}

	account := &domain.LinkedAccount{
		UserID:            userID,
		Provider:          req.Provider,
		ProviderAccountID: req.ProviderAccountID,
		Type:              domain.AccountTypeOAuth,
	}

	if err := l.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateLinkedAccount) {
			// Concurrent link, or the user already holds a link for this
			// provider. Decide no-op vs conflict by current owner.
			current, lookupErr := l.accountRepo.GetByProvider(ctx, req.Provider, req.ProviderAccountID)
			if lookupErr == nil && current.UserID != userID {
				return 0, ErrProviderAlreadyClaimed
			}
			return LinkNoop, nil
		}
		return 0, fmt.Errorf("failed to link account: %w", err)
	}

	return LinkCreated, nil
}

// Unlink removes a user's link for a provider. A passwordless user may
// not remove their only link, since that would leave no way to sign in.
func (l *accountLinker) Unlink(ctx context.Context, userID, provider string) error {
	user, err := l.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	accounts, err := l.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list linked accounts: %w", err)
	}

	var target *domain.LinkedAccount
	for _, a := range accounts {
		if a.Provider == provider {
			target = a
			break
		}
	}
	if target == nil {
		return ErrAccountNotLinked
	}

	if !user.HasPassword() && len(accounts) == 1 {
		return ErrLastSignInMethod
	}

	if err := l.accountRepo.Delete(ctx, target.ID); err != nil {
		// A concurrent unlink already removed the row.
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to unlink account: %w", err)
	}

	return nil
}

// Accounts lists the provider links for a user.
func (l *accountLinker) Accounts(ctx context.Context, userID string) ([]*domain.LinkedAccount, error) {
	accounts, err := l.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked accounts: %w", err)
	}
	return accounts, nil
}
