package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackforge/platform/internal/domain"
	"github.com/hackforge/platform/internal/dto"
	"github.com/hackforge/platform/internal/service"
)

type stubAuthService struct {
	registerResult *service.AuthResult
	registerErr    error
	loginResult    *service.AuthResult
	loginErr       error
	issueResult    *service.AuthResult
	issueErr       error
	user           *domain.User
	getUserErr     error
	updateRoleErr  error
}

func (s *stubAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*service.AuthResult, error) {
	return s.registerResult, s.registerErr
}

func (s *stubAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*service.AuthResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubAuthService) IssueSession(user *domain.User) (*service.AuthResult, error) {
	return s.issueResult, s.issueErr
}

func (s *stubAuthService) ValidateToken(token string) (*domain.SessionClaims, error) {
	return nil, service.ErrTokenInvalid
}

func (s *stubAuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.user, s.getUserErr
}

func (s *stubAuthService) UpdateUserRole(ctx context.Context, actor *domain.SessionClaims, targetID string, role domain.Role) error {
	return s.updateRoleErr
}

type stubLinker struct {
	resolveUser *domain.User
	resolveErr  error
	linkOutcome service.LinkOutcome
	linkErr     error
	unlinkErr   error
	accounts    []*domain.LinkedAccount
}

func (s *stubLinker) Resolve(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, error) {
	return s.resolveUser, s.resolveErr
}

func (s *stubLinker) Link(ctx context.Context, userID string, req *dto.LinkAccountRequest) (service.LinkOutcome, error) {
	return s.linkOutcome, s.linkErr
}

func (s *stubLinker) Unlink(ctx context.Context, userID, provider string) error {
	return s.unlinkErr
}

func (s *stubLinker) Accounts(ctx context.Context, userID string) ([]*domain.LinkedAccount, error) {
	return s.accounts, nil
}

type stubProvider struct {
	identity    *domain.ExternalIdentity
	exchangeErr error
}

func (s *stubProvider) Name() string { return "google" }

func (s *stubProvider) AuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (s *stubProvider) Exchange(ctx context.Context, code string) (*domain.ExternalIdentity, error) {
	return s.identity, s.exchangeErr
}

func fixedState() (string, error) { return "state-token", nil }

func testUser(role domain.Role) *domain.User {
	return &domain.User{
		ID:    "user-1",
		Email: "dev@example.com",
		Name:  "Dev",
		Role:  role,
	}
}

func testResult(role domain.Role) *service.AuthResult {
	return &service.AuthResult{
		User:      testUser(role),
		Token:     "session-token",
		ExpiresIn: int(30 * 24 * time.Hour / time.Second),
	}
}

func newAuthTestHandler(auth *stubAuthService, linker *stubLinker, provider OAuthProvider) *AuthHandler {
	return NewAuthHandler(auth, linker, provider, fixedState, testCookieConfig(), zap.NewNop())
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginSetsSessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&stubAuthService{loginResult: testResult(domain.RoleTeacher)}, &stubLinker{}, nil)
	router := gin.New()
	router.POST("/api/auth/login", h.Login)

	w := postJSON(router, "/api/auth/login", `{"email":"dev@example.com","password":"password123"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), service.TeacherLanding)

	ck := findCookie(w, "hf_session")
	require.NotNil(t, ck)
	assert.Equal(t, "session-token", ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
}

func TestLoginErrorGuidance(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		err     error
		message string
	}{
		{"unknown email", service.ErrUserNotFound, "No account found"},
		{"oauth-only account", service.ErrNoPasswordSet, "signs in with Google"},
		{"wrong password", service.ErrInvalidCredentials, "Invalid email or password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newAuthTestHandler(&stubAuthService{loginErr: tc.err}, &stubLinker{}, nil)
			router := gin.New()
			router.POST("/api/auth/login", h.Login)

			w := postJSON(router, "/api/auth/login", `{"email":"dev@example.com","password":"password123"}`)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tc.message)
			assert.Nil(t, findCookie(w, "hf_session"))
		})
	}
}

func TestRegisterConflictOnTakenEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&stubAuthService{registerErr: service.ErrEmailTaken}, &stubLinker{}, nil)
	router := gin.New()
	router.POST("/api/auth/register", h.Register)

	w := postJSON(router, "/api/auth/register", `{"name":"Dev","email":"dev@example.com","password":"password123"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Sign in instead")
}

func TestRegisterStorageFailureStaysOpaque(t *testing.T) {
	gin.SetMode(gin.TestMode)

	storageErr := fmt.Errorf("failed to check user existence: %w", errors.New("pq: connection refused"))
	h := newAuthTestHandler(&stubAuthService{registerErr: storageErr}, &stubLinker{}, nil)
	router := gin.New()
	router.POST("/api/auth/register", h.Register)

	w := postJSON(router, "/api/auth/register", `{"name":"Dev","email":"dev@example.com","password":"password123"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
	assert.NotContains(t, w.Body.String(), "user existence")
	assert.Contains(t, w.Body.String(), "Try again later")
}

func TestRegisterValidationErrorsAreBadRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := newAuthTestHandler(&stubAuthService{registerErr: service.ErrWeakPassword}, &stubLinker{}, nil)
	router := gin.New()
	router.POST("/api/auth/register", h.Register)

	w := postJSON(router, "/api/auth/register", `{"name":"Dev","email":"dev@example.com","password":"password123"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "uppercase")
}

func TestRegisterIssuesSessionAndStudentLanding(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&stubAuthService{registerResult: testResult(domain.RoleStudent)}, &stubLinker{}, nil)
	router := gin.New()
	router.POST("/api/auth/register", h.Register)

	w := postJSON(router, "/api/auth/register", `{"name":"Dev","email":"dev@example.com","password":"password123"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), service.StudentLanding)
	require.NotNil(t, findCookie(w, "hf_session"))
}

func TestOAuthBeginSetsStateAndRedirects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&stubAuthService{}, &stubLinker{}, &stubProvider{})
	router := gin.New()
	router.GET("/api/auth/google", h.OAuthBegin)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google?redirect_uri=/teacher/dashboard", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "state=state-token")

	state := findCookie(w, "oauth_state")
	require.NotNil(t, state)
	assert.Equal(t, "state-token", state.Value)
	assert.True(t, state.HttpOnly)

	redirect := findCookie(w, "post_login_redirect")
	require.NotNil(t, redirect)
	assert.Equal(t, "/teacher/dashboard", redirect.Value)
}

func TestOAuthCallbackStateMismatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&stubAuthService{}, &stubLinker{}, &stubProvider{})
	router := gin.New()
	router.GET("/api/auth/google/callback", h.OAuthCallback)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=forged&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-token"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/error?error=StateMismatch", w.Header().Get("Location"))
	assert.Nil(t, findCookie(w, "hf_session"))
}

func TestOAuthCallbackMissingStateCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&stubAuthService{}, &stubLinker{}, &stubProvider{})
	router := gin.New()
	router.GET("/api/auth/google/callback", h.OAuthCallback)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=state-token&code=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/error?error=StateMismatch", w.Header().Get("Location"))
}

func TestOAuthCallbackSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)

	identity := &domain.ExternalIdentity{
		Provider:          "google",
		ProviderAccountID: "google-sub-1",
		Email:             "dev@example.com",
		Name:              "Dev",
	}
	auth := &stubAuthService{issueResult: testResult(domain.RoleAdmin)}
	linker := &stubLinker{resolveUser: testUser(domain.RoleAdmin)}
	h := newAuthTestHandler(auth, linker, &stubProvider{identity: identity})
	router := gin.New()
	router.GET("/api/auth/google/callback", h.OAuthCallback)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=state-token&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-token"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, service.AdminLanding, w.Header().Get("Location"))
	require.NotNil(t, findCookie(w, "hf_session"))

	// The one-shot state cookie is consumed.
	state := findCookie(w, "oauth_state")
	require.NotNil(t, state)
	assert.Equal(t, -1, state.MaxAge)
}

func TestOAuthCallbackHonorsStoredRedirect(t *testing.T) {
	gin.SetMode(gin.TestMode)

	identity := &domain.ExternalIdentity{Provider: "google", ProviderAccountID: "g-1", Email: "dev@example.com"}
	auth := &stubAuthService{issueResult: testResult(domain.RoleStudent)}
	linker := &stubLinker{resolveUser: testUser(domain.RoleStudent)}
	h := newAuthTestHandler(auth, linker, &stubProvider{identity: identity})
	router := gin.New()
	router.GET("/api/auth/google/callback", h.OAuthCallback)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=state-token&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-token"})
	req.AddCookie(&http.Cookie{Name: "post_login_redirect", Value: "/student/hackathons/7"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/student/hackathons/7", w.Header().Get("Location"))
}

func TestOAuthCallbackLinkConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)

	identity := &domain.ExternalIdentity{Provider: "google", ProviderAccountID: "g-1", Email: "dev@example.com"}
	linker := &stubLinker{resolveErr: service.ErrProviderAlreadyClaimed}
	h := newAuthTestHandler(&stubAuthService{}, linker, &stubProvider{identity: identity})
	router := gin.New()
	router.GET("/api/auth/google/callback", h.OAuthCallback)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=state-token&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-token"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/error?error=ProviderAlreadyClaimed", w.Header().Get("Location"))
}

func TestOAuthCallbackProviderDenied(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&stubAuthService{}, &stubLinker{}, &stubProvider{})
	router := gin.New()
	router.GET("/api/auth/google/callback", h.OAuthCallback)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?error=access_denied", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/error?error=AccessDenied", w.Header().Get("Location"))
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&stubAuthService{}, &stubLinker{}, nil)
	router := gin.New()
	router.POST("/api/auth/logout", h.Logout)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "hf_session", Value: "session-token"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	ck := findCookie(w, "hf_session")
	require.NotNil(t, ck)
	assert.Equal(t, -1, ck.MaxAge)
}

func TestSessionIntrospection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	auth := &stubAuthService{user: testUser(domain.RoleTeacher)}
	linker := &stubLinker{accounts: []*domain.LinkedAccount{{Provider: "google"}}}
	h := newAuthTestHandler(auth, linker, nil)

	claims := &domain.SessionClaims{
		UserID:    "user-1",
		Role:      domain.RoleTeacher,
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	router := gin.New()
	router.GET("/api/auth/session", func(c *gin.Context) {
		setClaims(c, claims)
		h.Session(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)
	assert.Contains(t, w.Body.String(), `"role":"TEACHER"`)
	assert.Contains(t, w.Body.String(), `"google"`)
}

func TestSessionAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&stubAuthService{}, &stubLinker{}, nil)
	router := gin.New()
	router.GET("/api/auth/session", h.Session)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}

func TestSessionVanishedSubjectSignsOut(t *testing.T) {
	gin.SetMode(gin.TestMode)

	auth := &stubAuthService{getUserErr: service.ErrUserNotFound}
	h := newAuthTestHandler(auth, &stubLinker{}, nil)

	claims := &domain.SessionClaims{UserID: "gone", Role: domain.RoleStudent, ExpiresAt: time.Now().Add(time.Hour)}
	router := gin.New()
	router.GET("/api/auth/session", func(c *gin.Context) {
		setClaims(c, claims)
		h.Session(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), `"authenticated":false`)
	ck := findCookie(w, "hf_session")
	require.NotNil(t, ck)
	assert.Equal(t, -1, ck.MaxAge)
}

func TestLinkAccountConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)

	linker := &stubLinker{linkErr: service.ErrProviderAlreadyClaimed}
	h := newAuthTestHandler(&stubAuthService{}, linker, nil)

	claims := &domain.SessionClaims{UserID: "user-1", Role: domain.RoleStudent, ExpiresAt: time.Now().Add(time.Hour)}
	router := gin.New()
	router.POST("/api/auth/link", func(c *gin.Context) {
		setClaims(c, claims)
		h.LinkAccount(c)
	})

	w := postJSON(router, "/api/auth/link", `{"provider":"google","providerAccountId":"g-1"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already linked to a different user")
}

func TestLinkAccountRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&stubAuthService{}, &stubLinker{}, nil)
	router := gin.New()
	router.POST("/api/auth/link", h.LinkAccount)

	w := postJSON(router, "/api/auth/link", `{"provider":"google","providerAccountId":"g-1"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLinkAccountNoop(t *testing.T) {
	gin.SetMode(gin.TestMode)

	linker := &stubLinker{linkOutcome: service.LinkNoop}
	h := newAuthTestHandler(&stubAuthService{}, linker, nil)

	claims := &domain.SessionClaims{UserID: "user-1", Role: domain.RoleStudent, ExpiresAt: time.Now().Add(time.Hour)}
	router := gin.New()
	router.POST("/api/auth/link", func(c *gin.Context) {
		setClaims(c, claims)
		h.LinkAccount(c)
	})

	w := postJSON(router, "/api/auth/link", `{"provider":"google","providerAccountId":"g-1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already linked")
}

func TestUnlinkAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)

	claims := &domain.SessionClaims{UserID: "user-1", Role: domain.RoleStudent, ExpiresAt: time.Now().Add(time.Hour)}

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"success", nil, http.StatusOK, "unlinked"},
		{"unknown provider", service.ErrAccountNotLinked, http.StatusNotFound, "No linked account"},
		{"last sign-in method", service.ErrLastSignInMethod, http.StatusConflict, "Set a password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newAuthTestHandler(&stubAuthService{}, &stubLinker{unlinkErr: tc.err}, nil)
			router := gin.New()
			router.DELETE("/api/auth/link/:provider", func(c *gin.Context) {
				setClaims(c, claims)
				h.UnlinkAccount(c)
			})

			req := httptest.NewRequest(http.MethodDelete, "/api/auth/link/google", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.message)
		})
	}
}

func TestUnlinkAccountRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&stubAuthService{}, &stubLinker{}, nil)
	router := gin.New()
	router.DELETE("/api/auth/link/:provider", h.UnlinkAccount)

	req := httptest.NewRequest(http.MethodDelete, "/api/auth/link/google", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
