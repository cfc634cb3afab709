package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/hackforge/platform/internal/config"
	"github.com/hackforge/platform/internal/handler"
	"github.com/hackforge/platform/internal/oauth"
	"github.com/hackforge/platform/internal/repository"
	"github.com/hackforge/platform/internal/service"
	"github.com/hackforge/platform/internal/utils"
	"github.com/hackforge/platform/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(ctx context.Context, infra Infrastructure, cfg *config.Config) *App {
	repos := repository.NewRepositories(infra.Postgres())

	tokenManager := utils.NewSessionTokenManager(
		cfg.Session.Secret,
		cfg.Session.TokenExpiry.Duration,
	)

	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authService := service.NewAuthService(
		repos.User,
		tokenManager,
		cfg.Security.BCryptCost,
		infra.Logger(),
	)

	linker := service.NewAccountLinker(repos.User, repos.LinkedAccount, infra.Logger())

	// OIDC discovery needs the provider to be reachable; without credentials
	// the OAuth endpoints answer 503 and credential sign-in still works.
	var provider handler.OAuthProvider
	if cfg.OAuth.ClientID != "" {
		p, err := oauth.NewGoogleProvider(ctx, cfg.OAuth)
		if err != nil {
			infra.Logger().Warn("OAuth provider unavailable", zap.Error(err))
		} else {
			provider = p
		}
	}

	cookies := handler.CookieConfig{
		SessionName: cfg.Session.CookieName,
		SessionTTL:  cfg.Session.TokenExpiry.Duration,
		StateTTL:    cfg.OAuth.StateExpiry.Duration,
		Secure:      cfg.IsProduction(),
	}

	authHandler := handler.NewAuthHandler(authService, linker, provider, oauth.NewState, cookies, infra.Logger())
	usersHandler := handler.NewUsersHandler(authService, infra.Logger())

	router := gin.Default()
	router.Use(otelgin.Middleware("hackforge-platform"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))
	router.Use(handler.Gatekeeper(handler.GatekeeperConfig{
		Tokens:       tokenManager,
		Cookies:      cookies,
		RefreshAfter: cfg.Session.RefreshAfter.Duration,
		Table:        handler.DefaultPolicyTable(),
		Logger:       infra.Logger(),
	}))

	setupRoutes(router, cfg, authHandler, usersHandler, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	usersHandler *handler.UsersHandler,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	// Page shells; the gatekeeper has already decided who may see them.
	router.GET("/", handler.LandingPage)
	router.GET("/auth/login", handler.LoginPage)
	router.GET("/auth/signup", handler.SignupPage)
	router.GET("/auth/error", handler.ErrorPage)
	router.GET("/auth/unauthorized", handler.UnauthorizedPage)
	router.GET("/admin/dashboard", handler.DashboardPage("admin"))
	router.GET("/teacher/dashboard", handler.DashboardPage("teacher"))
	router.GET("/student/dashboard", handler.DashboardPage("student"))

	auth := router.Group("/api/auth")
	{
		credentialLimit := handler.RateLimitMiddleware(
			rateLimiter,
			cfg.Security.RateLimitRequests,
			cfg.Security.RateLimitWindow.Duration,
			handler.IPBasedKey,
		)

		auth.POST("/register", credentialLimit, authHandler.Register)
		auth.POST("/login", credentialLimit, authHandler.Login)
		auth.GET("/google", authHandler.OAuthBegin)
		auth.GET("/google/callback", authHandler.OAuthCallback)
		auth.POST("/link", authHandler.LinkAccount)
		auth.DELETE("/link/:provider", authHandler.UnlinkAccount)
		auth.GET("/session", authHandler.Session)
		auth.GET("/session-redirect", authHandler.SessionRedirect)
		auth.POST("/logout", authHandler.Logout)
	}

	admin := router.Group("/api/admin")
	{
		admin.PATCH("/users/:id/role", usersHandler.UpdateRole)
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
