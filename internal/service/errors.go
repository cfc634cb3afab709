package service

import (
	"errors"

	"github.com/hackforge/platform/internal/utils"
)

// Sign-in and authorization failures. Handlers match these with errors.Is
// and render user-facing guidance; raw storage or crypto errors never cross
// the HTTP boundary.
var (
	// ErrUserNotFound: no user holds the given email.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoPasswordSet: the user exists but only ever authenticated via an
	// external provider; the caller should be pointed at the OAuth path.
	ErrNoPasswordSet = errors.New("no password set for this account")

	// ErrInvalidCredentials: the password did not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken: a credential sign-up hit an existing email.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidEmail: the sign-up email failed format validation.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword: the sign-up password failed the strength policy.
	ErrWeakPassword = errors.New("password must be at least 8 characters long and contain uppercase, lowercase, and number")

	// ErrAccountNotLinked: the email matched a local user but the provider
	// is not linked, and policy requires an explicit link step.
	ErrAccountNotLinked = errors.New("account exists but provider is not linked")

	// ErrProviderAlreadyClaimed: the provider identity belongs to a
	// different local user.
	ErrProviderAlreadyClaimed = errors.New("provider account is linked to another user")

	// ErrLastSignInMethod: unlinking would leave a passwordless user with
	// no way to sign in.
	ErrLastSignInMethod = errors.New("cannot remove the only sign-in method")

	// ErrForbidden: authenticated, but the role does not permit the action.
	ErrForbidden = errors.New("insufficient role")

	// ErrTokenInvalid: malformed, expired, or unsigned session token,
	// treated identically to no session.
	ErrTokenInvalid = utils.ErrTokenInvalid
)
