package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewState generates the anti-forgery value binding an outbound redirect to
// its expected callback.
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
