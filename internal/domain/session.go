package domain

import "time"

// SessionClaims are the facts embedded in a session token. They are the
// sole source of truth for identity and role between issuance and expiry;
// the user record is not re-fetched per request.
type SessionClaims struct {
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Age returns how long ago the token was issued.
func (c SessionClaims) Age() time.Duration {
	return time.Since(c.IssuedAt)
}
