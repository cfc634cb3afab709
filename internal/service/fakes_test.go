package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackforge/platform/internal/domain"
	"github.com/hackforge/platform/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository enforcing the email
// uniqueness constraint the schema provides.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // keyed by id

	failLastLogin bool
	// createHook runs before each Create, letting tests interleave a
	// concurrent writer.
	createHook func()
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if f.createHook != nil {
		f.createHook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, u := range f.users {
		if u.Email == email {
			return fmt.Errorf("duplicate: %w", repository.ErrDuplicateEmail)
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = domain.RoleStudent
	}
	user.Email = email
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := f.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, userID string, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, userID string) error {
	if f.failLastLogin {
		return fmt.Errorf("storage unavailable")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

// fakeAccountRepo is an in-memory LinkedAccountRepository enforcing both
// uniqueness constraints of the schema.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.LinkedAccount // keyed by id

	createHook func()
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[string]*domain.LinkedAccount{}}
}

func (f *fakeAccountRepo) Create(_ context.Context, account *domain.LinkedAccount) error {
	if f.createHook != nil {
		f.createHook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.accounts {
		samePair := a.Provider == account.Provider && a.ProviderAccountID == account.ProviderAccountID
		sameUserProvider := a.UserID == account.UserID && a.Provider == account.Provider
		if samePair || sameUserProvider {
			return fmt.Errorf("duplicate: %w", repository.ErrDuplicateLinkedAccount)
		}
	}

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.Type == "" {
		account.Type = domain.AccountTypeOAuth
	}
	account.CreatedAt = time.Now()

	clone := *account
	f.accounts[account.ID] = &clone
	return nil
}

func (f *fakeAccountRepo) GetByProvider(_ context.Context, provider, providerAccountID string) (*domain.LinkedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.accounts {
		if a.Provider == provider && a.ProviderAccountID == providerAccountID {
			clone := *a
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAccountRepo) GetByUserID(_ context.Context, userID string) ([]*domain.LinkedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*domain.LinkedAccount
	for _, a := range f.accounts {
		if a.UserID == userID {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) Delete(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.accounts[accountID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.accounts, accountID)
	return nil
}

func (f *fakeAccountRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts)
}
