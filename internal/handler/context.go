package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hackforge/platform/internal/domain"
)

// claimsKey is the gin context key under which the gatekeeper stores the
// decoded session claims. Handlers receive claims through
// ClaimsFromContext, never through a global.
const claimsKey = "session_claims"

func setClaims(c *gin.Context, claims *domain.SessionClaims) {
	c.Set(claimsKey, claims)
}

// ClaimsFromContext returns the decoded session claims for the request, or
// nil when the request is unauthenticated.
func ClaimsFromContext(c *gin.Context) *domain.SessionClaims {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil
	}
	claims, ok := v.(*domain.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
