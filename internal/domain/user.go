package domain

import "time"

// User represents a user in the system. Email is the natural key used to
// merge identities across sign-in methods. PasswordHash is empty for users
// who have only ever authenticated through an external provider.
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	AvatarURL    *string    `json:"avatar_url" db:"avatar_url"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
}

// HasPassword reports whether the user can sign in with credentials.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// AccountType distinguishes how a linked account authenticates.
type AccountType string

const (
	AccountTypeOAuth       AccountType = "oauth"
	AccountTypeCredentials AccountType = "credentials"
)

// LinkedAccount connects an external identity to a local user. The pair
// (Provider, ProviderAccountID) is unique across the whole system, and a
// user holds at most one LinkedAccount per provider.
type LinkedAccount struct {
	ID                string      `json:"id" db:"id"`
	UserID            string      `json:"user_id" db:"user_id"`
	Provider          string      `json:"provider" db:"provider"` // e.g. "google"
	ProviderAccountID string      `json:"provider_account_id" db:"provider_account_id"`
	Type              AccountType `json:"type" db:"type"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
}

// ExternalIdentity is the assertion received from an identity provider
// after a successful OAuth exchange. It only lives for the duration of the
// callback request.
type ExternalIdentity struct {
	Provider          string
	ProviderAccountID string
	Email             string
	Name              string
	AvatarURL         string
}
