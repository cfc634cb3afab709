package handler

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hackforge/platform/internal/domain"
	"github.com/hackforge/platform/internal/dto"
	"github.com/hackforge/platform/internal/service"
	"github.com/hackforge/platform/internal/utils"
)

// RoutePolicy maps a path prefix to the set of roles allowed past it.
type RoutePolicy struct {
	Prefix string
	Roles  []domain.Role
}

// PolicyTable is the single, ordered authorization table the gatekeeper
// consults once per request. It stays data; handlers never re-implement
// these checks.
type PolicyTable struct {
	// Public are paths reachable without a session. Entries ending in "/"
	// match as prefixes, others match exactly.
	Public []string
	// Policies is evaluated in order; first prefix match wins. Paths
	// matching no entry are open to any authenticated role.
	Policies []RoutePolicy
	// StaticPrefixes are skipped entirely.
	StaticPrefixes []string
}

// DefaultPolicyTable returns the platform's route policy: admin paths for
// admins, teacher paths for teachers and admins, student paths for any
// signed-in role, and a fixed allow-list of unauthenticated paths.
func DefaultPolicyTable() PolicyTable {
	admin := []domain.Role{domain.RoleAdmin}
	teacher := []domain.Role{domain.RoleTeacher, domain.RoleAdmin}
	student := []domain.Role{domain.RoleStudent, domain.RoleTeacher, domain.RoleAdmin}

	return PolicyTable{
		Public: []string{
			"/",
			"/auth/login",
			"/auth/signup",
			"/auth/error",
			"/auth/unauthorized",
			"/api/auth/",
			"/health",
			"/metrics",
		},
		Policies: []RoutePolicy{
			{Prefix: "/admin", Roles: admin},
			{Prefix: "/api/admin", Roles: admin},
			{Prefix: "/teacher", Roles: teacher},
			{Prefix: "/api/teacher", Roles: teacher},
			{Prefix: "/student", Roles: student},
			{Prefix: "/api/student", Roles: student},
		},
		StaticPrefixes: []string{
			"/static/",
			"/assets/",
			"/favicon.ico",
		},
	}
}

func (t PolicyTable) isStatic(path string) bool {
	for _, p := range t.StaticPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (t PolicyTable) isPublic(path string) bool {
	for _, p := range t.Public {
		if strings.HasSuffix(p, "/") && p != "/" {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

// requiredRoles returns the allowed role set for a path, or nil when any
// authenticated role passes.
func (t PolicyTable) requiredRoles(path string) []domain.Role {
	for _, p := range t.Policies {
		if strings.HasPrefix(path, p.Prefix) {
			return p.Roles
		}
	}
	return nil
}

func roleAllowed(role domain.Role, allowed []domain.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// isAPIPath decides redirect-vs-JSON by path namespace, not content
// negotiation.
func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// GatekeeperConfig groups the gatekeeper's dependencies.
type GatekeeperConfig struct {
	Tokens  *utils.SessionTokenManager
	Cookies CookieConfig
	// RefreshAfter is the token age past which a still-valid token is
	// re-minted, sliding the 30-day window forward.
	RefreshAfter time.Duration
	Table        PolicyTable
	Logger       *zap.Logger
}

// Gatekeeper evaluates every inbound request against the policy table
// before any domain handler runs. It is a pure function of (session token,
// requested path): decoded claims go into the request context, and the
// request is passed through, redirected, or rejected.
func Gatekeeper(cfg GatekeeperConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if cfg.Table.isStatic(path) {
			c.Next()
			return
		}

		// Decode the session, failing closed: malformed, expired, or
		// badly signed tokens are identical to no session.
		var claims *domain.SessionClaims
		if token, err := c.Cookie(cfg.Cookies.SessionName); err == nil && token != "" {
			claims, err = cfg.Tokens.Validate(token)
			if err != nil {
				claims = nil
				cfg.Cookies.ClearSession(c)
			}
		}

		if claims != nil {
			setClaims(c, claims)

			// Sliding renewal inside the validity window. The re-mint
			// also picks up nothing new: claims are copied as-is, so a
			// role change still waits for a fresh sign-in.
			if claims.Age() > cfg.RefreshAfter {
				if token, err := cfg.Tokens.Generate(claims.UserID, claims.Role); err == nil {
					cfg.Cookies.SetSession(c, token)
				}
			}
		}

		if cfg.Table.isPublic(path) {
			c.Next()
			return
		}

		if claims == nil {
			redirectToLogin(c, path)
			return
		}

		allowed := cfg.Table.requiredRoles(path)
		if allowed != nil && !roleAllowed(claims.Role, allowed) {
			cfg.Logger.Info("request forbidden",
				zap.String("path", path),
				zap.String("role", claims.Role.String()),
			)
			if isAPIPath(path) {
				c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
					Error:   "Forbidden",
					Message: "Your role does not permit this action.",
				})
				return
			}
			c.Redirect(http.StatusFound, service.UnauthorizedPath)
			c.Abort()
			return
		}

		c.Next()
	}
}

// redirectToLogin preserves the originally requested path so the role
// router can send the browser back after sign-in.
func redirectToLogin(c *gin.Context, path string) {
	target := service.LoginPath + "?redirect_uri=" + url.QueryEscape(path)
	if isAPIPath(path) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Authentication required.",
			Details: gin.H{"login": target},
		})
		return
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
}
