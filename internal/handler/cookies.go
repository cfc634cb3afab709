package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Cookie names for the transient OAuth correlation values.
const (
	stateCookie    = "oauth_state"
	redirectCookie = "post_login_redirect"
)

// CookieConfig is the cookie policy shared by every auth endpoint: HttpOnly
// and SameSite=Lax across the board, Secure in production, 30-day session
// cookie, 15-minute state cookies.
type CookieConfig struct {
	SessionName string
	SessionTTL  time.Duration
	StateTTL    time.Duration
	Secure      bool
}

func (cc CookieConfig) set(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", cc.Secure, true)
}

func (cc CookieConfig) clear(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", cc.Secure, true)
}

// SetSession writes the session token cookie.
func (cc CookieConfig) SetSession(c *gin.Context, token string) {
	cc.set(c, cc.SessionName, token, cc.SessionTTL)
}

// ClearSession removes the session cookie; this is the entirety of logout
// since the token is never stored server-side.
func (cc CookieConfig) ClearSession(c *gin.Context) {
	cc.clear(c, cc.SessionName)
}

// SetOAuthState writes the anti-forgery state and the post-login redirect
// target, both bounded by the state TTL.
func (cc CookieConfig) SetOAuthState(c *gin.Context, state, redirect string) {
	cc.set(c, stateCookie, state, cc.StateTTL)
	cc.set(c, redirectCookie, redirect, cc.StateTTL)
}

// ClearOAuthState removes the transient OAuth cookies after the callback.
func (cc CookieConfig) ClearOAuthState(c *gin.Context) {
	cc.clear(c, stateCookie)
	cc.clear(c, redirectCookie)
}
