package dto

// RegisterRequest represents a credential sign-up request
type RegisterRequest struct {
	Name     string `json:"name" binding:"required" validate:"required"`
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=8" validate:"required,min=8"`
}

// LoginRequest represents a credential sign-in request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// LinkAccountRequest asks to attach a provider identity to the current user
type LinkAccountRequest struct {
	Provider          string `json:"provider" binding:"required" validate:"required"`
	ProviderAccountID string `json:"providerAccountId" binding:"required" validate:"required"`
}

// UpdateRoleRequest changes another user's role (admin only)
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=ADMIN TEACHER STUDENT"`
}

// UserInfo represents user information in responses
type UserInfo struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// AuthResponse represents a successful sign-in
type AuthResponse struct {
	User     UserInfo `json:"user"`
	Redirect string   `json:"redirect"`
}

// SessionResponse represents the decoded session claims, consumed by UI
// shells that need the role without re-deriving it
type SessionResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *UserInfo `json:"user,omitempty"`
	Providers     []string  `json:"providers,omitempty"`
	ExpiresAt     string    `json:"expires_at,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
