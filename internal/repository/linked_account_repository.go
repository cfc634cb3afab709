package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hackforge/platform/internal/domain"
	"github.com/hackforge/platform/pkg/database"
)

// linkedAccountRepository implements LinkedAccountRepository interface
type linkedAccountRepository struct {
	db *database.Postgres
}

// NewLinkedAccountRepository creates a new linked account repository
func NewLinkedAccountRepository(db *database.Postgres) LinkedAccountRepository {
	return &linkedAccountRepository{db: db}
}

// Create creates a new linked account. Uniqueness of both
// (provider, provider_account_id) and (user_id, provider) is enforced by
// the schema; concurrent duplicate inserts surface as
// ErrDuplicateLinkedAccount.
func (r *linkedAccountRepository) Create(ctx context.Context, account *domain.LinkedAccount) error {
	query := `
		INSERT INTO linked_accounts (id, user_id, provider, provider_account_id, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.Type == "" {
		account.Type = domain.AccountTypeOAuth
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		account.ID,
		account.UserID,
		account.Provider,
		account.ProviderAccountID,
		account.Type,
		account.CreatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("account link for provider %s exists: %w", account.Provider, ErrDuplicateLinkedAccount)
			}
		}
		return fmt.Errorf("failed to create linked account: %w", err)
	}

	return nil
}

// GetByProvider retrieves a linked account by provider and provider account ID
func (r *linkedAccountRepository) GetByProvider(ctx context.Context, provider, providerAccountID string) (*domain.LinkedAccount, error) {
	query := `
		SELECT id, user_id, provider, provider_account_id, type, created_at
		FROM linked_accounts
		WHERE provider = $1 AND provider_account_id = $2
	`

	account := &domain.LinkedAccount{}
	var accountType string

	err := r.db.DB.QueryRowContext(ctx, query, provider, providerAccountID).Scan(
		&account.ID,
		&account.UserID,
		&account.Provider,
		&account.ProviderAccountID,
		&accountType,
		&account.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("linked account not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get linked account: %w", err)
	}

	account.Type = domain.AccountType(accountType)

	return account, nil
}

// GetByUserID retrieves all linked accounts for a user
func (r *linkedAccountRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.LinkedAccount, error) {
	query := `
		SELECT id, user_id, provider, provider_account_id, type, created_at
		FROM linked_accounts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get linked accounts by user id: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.LinkedAccount
	for rows.Next() {
		account := &domain.LinkedAccount{}
		var accountType string

		err := rows.Scan(
			&account.ID,
			&account.UserID,
			&account.Provider,
			&account.ProviderAccountID,
			&accountType,
			&account.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan linked account: %w", err)
		}

		account.Type = domain.AccountType(accountType)
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate linked accounts: %w", err)
	}

	return accounts, nil
}

// Delete deletes a linked account by ID
func (r *linkedAccountRepository) Delete(ctx context.Context, accountID string) error {
	query := `DELETE FROM linked_accounts WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete linked account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("linked account with id %s not found: %w", accountID, ErrNotFound)
	}

	return nil
}
