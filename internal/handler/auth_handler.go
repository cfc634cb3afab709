package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hackforge/platform/internal/domain"
	"github.com/hackforge/platform/internal/dto"
	"github.com/hackforge/platform/internal/service"
)

// OAuthProvider is the slice of the provider adapter the handlers need.
type OAuthProvider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.ExternalIdentity, error)
}

// StateGenerator produces anti-forgery state values.
type StateGenerator func() (string, error)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
	linker      service.AccountLinker
	provider    OAuthProvider
	newState    StateGenerator
	cookies     CookieConfig
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService service.AuthService,
	linker service.AccountLinker,
	provider OAuthProvider,
	newState StateGenerator,
	cookies CookieConfig,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		linker:      linker,
		provider:    provider,
		newState:    newState,
		cookies:     cookies,
		logger:      logger,
	}
}

func userInfo(user *domain.User) dto.UserInfo {
	return dto.UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role.String(),
		AvatarURL: user.AvatarURL,
	}
}

// Register handles credential sign-up. New accounts always start as
// STUDENT.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.renderRegisterError(c, err)
		return
	}

	h.cookies.SetSession(c, result.Token)

	c.JSON(http.StatusCreated, dto.AuthResponse{
		User:     userInfo(result.User),
		Redirect: service.Landing(result.User.Role),
	})
}

// renderRegisterError maps sign-up failures to responses. Only the
// sentinel taxonomy reaches the client; anything else is logged and
// rendered as a generic failure.
func (h *AuthHandler) renderRegisterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   "Conflict",
			Message: "An account with this email already exists. Sign in instead.",
		})
	case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
	default:
		h.logger.Error("registration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "Sign-up failed. Try again later.",
		})
	}
}

// Login handles credential sign-in. Failures surface the taxonomy as
// user-facing guidance, never storage or crypto detail.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.renderLoginError(c, err)
		return
	}

	h.cookies.SetSession(c, result.Token)

	c.JSON(http.StatusOK, dto.AuthResponse{
		User:     userInfo(result.User),
		Redirect: service.Landing(result.User.Role),
	})
}

func (h *AuthHandler) renderLoginError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "No account found for this email. Create an account first.",
		})
	case errors.Is(err, service.ErrNoPasswordSet):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "This account signs in with Google. Use Google sign-in instead.",
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Invalid email or password.",
		})
	default:
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "Sign-in failed. Try again later.",
		})
	}
}

// OAuthBegin starts the OAuth sign-in flow: a fresh anti-forgery state is
// set in a bounded cookie and the browser is sent to the provider.
func (h *AuthHandler) OAuthBegin(c *gin.Context) {
	if h.provider == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:   "Unavailable",
			Message: "OAuth sign-in is not configured.",
		})
		return
	}

	state, err := h.newState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "Sign-in failed. Try again later.",
		})
		return
	}

	redirect := service.SafeRedirect(c.Query("redirect_uri"), "")
	h.cookies.SetOAuthState(c, state, redirect)

	c.Redirect(http.StatusFound, h.provider.AuthURL(state))
}

// OAuthCallback completes the OAuth flow: validates the anti-forgery
// state, exchanges the code, resolves the identity to a local user, and
// mints the session.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	if h.provider == nil {
		c.Redirect(http.StatusFound, errorPage("Configuration"))
		return
	}

	defer h.cookies.ClearOAuthState(c)

	if providerErr := c.Query("error"); providerErr != "" {
		c.Redirect(http.StatusFound, errorPage("AccessDenied"))
		return
	}

	state := c.Query("state")
	cookieState, err := c.Cookie(stateCookie)
	if err != nil || state == "" || cookieState != state {
		// Missing or mismatched state is indistinguishable from forgery;
		// the 15-minute cookie expiry also lands here.
		c.Redirect(http.StatusFound, errorPage("StateMismatch"))
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, errorPage("MissingCode"))
		return
	}

	identity, err := h.provider.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("oauth exchange failed", zap.Error(err))
		c.Redirect(http.StatusFound, errorPage("ExchangeFailed"))
		return
	}

	user, err := h.linker.Resolve(c.Request.Context(), *identity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotLinked):
			c.Redirect(http.StatusFound, errorPage("AccountNotLinked"))
		case errors.Is(err, service.ErrProviderAlreadyClaimed):
			c.Redirect(http.StatusFound, errorPage("ProviderAlreadyClaimed"))
		default:
			h.logger.Error("identity resolution failed",
				zap.String("provider", identity.Provider),
				zap.Error(err),
			)
			c.Redirect(http.StatusFound, errorPage("SignInFailed"))
		}
		return
	}

	result, err := h.authService.IssueSession(user)
	if err != nil {
		h.logger.Error("session issuance failed", zap.Error(err))
		c.Redirect(http.StatusFound, errorPage("SignInFailed"))
		return
	}

	h.cookies.SetSession(c, result.Token)

	redirect, _ := c.Cookie(redirectCookie)
	c.Redirect(http.StatusFound, service.SafeRedirect(redirect, service.Landing(user.Role)))
}

func errorPage(code string) string {
	return "/auth/error?error=" + url.QueryEscape(code)
}

// Logout destroys the session client-side; the token itself is stateless
// and simply expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.ClearSession(c)

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Logged out successfully",
	})
}

// Session is the introspection endpoint: the decoded claims plus the
// user's linked providers, or authenticated=false.
func (h *AuthHandler) Session(c *gin.Context) {
	claims := ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusOK, dto.SessionResponse{Authenticated: false})
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		// The subject vanished from storage; treat as signed out.
		h.cookies.ClearSession(c)
		c.JSON(http.StatusOK, dto.SessionResponse{Authenticated: false})
		return
	}

	var providers []string
	if accounts, err := h.linker.Accounts(c.Request.Context(), claims.UserID); err == nil {
		for _, a := range accounts {
			providers = append(providers, a.Provider)
		}
	}

	info := userInfo(user)
	c.JSON(http.StatusOK, dto.SessionResponse{
		Authenticated: true,
		User:          &info,
		Providers:     providers,
		ExpiresAt:     claims.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// SessionRedirect sends the browser to its role-derived home, honoring a
// same-origin redirect_uri when supplied.
func (h *AuthHandler) SessionRedirect(c *gin.Context) {
	claims := ClaimsFromContext(c)
	if claims == nil {
		c.Redirect(http.StatusFound, service.LoginPath)
		return
	}

	target := service.SafeRedirect(c.Query("redirect_uri"), service.LandingForClaims(claims))
	c.Redirect(http.StatusFound, target)
}

// LinkAccount attaches a provider identity to the authenticated user.
func (h *AuthHandler) LinkAccount(c *gin.Context) {
	claims := ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Sign in before linking accounts.",
		})
		return
	}

	var req dto.LinkAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	outcome, err := h.linker.Link(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		if errors.Is(err, service.ErrProviderAlreadyClaimed) {
			c.JSON(http.StatusConflict, dto.ErrorResponse{
				Error:   "Conflict",
				Message: "This provider account is already linked to a different user.",
			})
			return
		}
		h.logger.Error("account linking failed",
			zap.String("user_id", claims.UserID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "Failed to link account. Try again later.",
		})
		return
	}

	if outcome == service.LinkNoop {
		c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Account already linked"})
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Account linked successfully"})
}

// UnlinkAccount removes a provider link from the authenticated user.
func (h *AuthHandler) UnlinkAccount(c *gin.Context) {
	claims := ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Sign in before unlinking accounts.",
		})
		return
	}

	provider := c.Param("provider")

	err := h.linker.Unlink(c.Request.Context(), claims.UserID, provider)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotLinked):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "Not found",
				Message: "No linked account for this provider.",
			})
		case errors.Is(err, service.ErrLastSignInMethod):
			c.JSON(http.StatusConflict, dto.ErrorResponse{
				Error:   "Conflict",
				Message: "Set a password before removing your only sign-in method.",
			})
		default:
			h.logger.Error("account unlinking failed",
				zap.String("user_id", claims.UserID),
				zap.String("provider", provider),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "Internal server error",
				Message: "Failed to unlink account. Try again later.",
			})
		}
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Account unlinked successfully"})
}
