package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an
	// existing email. Callers racing on first-time identity creation use
	// this to convert their losing insert into a lookup-and-link.
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateLinkedAccount is returned when the (provider,
	// provider_account_id) pair or the (user_id, provider) pair already
	// exists
	ErrDuplicateLinkedAccount = errors.New("linked account already exists")
)
