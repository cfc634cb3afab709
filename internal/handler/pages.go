package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The page handlers back the browser-facing routes the gatekeeper and role
// router point at. The real platform UI is served separately; these return
// enough for shells and tests to work against.

// LandingPage is the public landing page.
func LandingPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "landing"})
}

// LoginPage renders the sign-in page, echoing the preserved redirect
// target.
func LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":         "login",
		"redirect_uri": c.Query("redirect_uri"),
	})
}

// SignupPage renders the registration page.
func SignupPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "signup"})
}

// ErrorPage surfaces sign-in failures with their guidance code.
func ErrorPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":  "error",
		"error": c.Query("error"),
	})
}

// UnauthorizedPage is where authenticated users with insufficient role
// land.
func UnauthorizedPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "unauthorized"})
}

// DashboardPage returns the role-gated dashboard shell for a namespace.
func DashboardPage(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{"page": section + "/dashboard"}
		if claims := ClaimsFromContext(c); claims != nil {
			resp["user_id"] = claims.UserID
			resp["role"] = claims.Role.String()
		}
		c.JSON(http.StatusOK, resp)
	}
}
