package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/auth/handler"
	"messaging-service/internal/auth/provider"
	"messaging-service/internal/auth/provider/github"
	"messaging-service/internal/auth/provider/google"
	"messaging-service/internal/auth/resolver"
	"messaging-service/internal/auth/token"
	"messaging-service/internal/config"
	"messaging-service/internal/logger"
	"messaging-service/internal/message"
	"messaging-service/internal/middleware"
	"messaging-service/internal/session"
	"messaging-service/internal/user"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	userStore := user.NewStore(infra.DB)
	messageStore := message.NewStore(infra.DB)

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	sessions := session.NewAuthority(sessionStore, cfg.SessionSecret, cfg.SessionTTL)

	tokens, err := token.NewAuthority(token.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, nil, err
	}

	identityResolver := resolver.NewDBResolver(userStore)

	var providers []provider.OAuthProvider

	if cfg.GithubEnabled() {
		githubProvider, err := github.New(
			cfg.GithubClientID,
			cfg.GithubClientSecret,
			cfg.GithubCallbackURL,
		)
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, githubProvider)
	} else {
		logger.Info("github oauth not configured; routes answer 501", nil)
	}

	if cfg.GoogleEnabled() {
		googleProvider, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
		)
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, googleProvider)
	} else {
		logger.Info("google oauth not configured; routes answer 501", nil)
	}

	registry := provider.NewRegistry(providers...)

	authMiddleware := middleware.NewAuthMiddleware(sessions, tokens, userStore)

	authHandler := handler.NewHandler(
		registry,
		sessions,
		identityResolver,
		tokens,
		userStore,
		cfg.IsProduction(),
	)

	currentUser := func(c *gin.Context) (*user.User, bool) {
		return middleware.CurrentUser(c)
	}
	userHandler := user.NewHandler(userStore, currentUser)
	messageHandler := message.NewHandler(messageStore, userStore, currentUser)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	authHandler.RegisterRoutes(router, authMiddleware)
	userHandler.RegisterRoutes(router, authMiddleware.RequireAuth())
	messageHandler.RegisterRoutes(router, authMiddleware.RequireAuth())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		if err := infra.Redis.Close(); err != nil {
			logger.Warn("redis close failed", map[string]any{
				"error": err.Error(),
			})
		}
		return infra.DB.Close()
	}, nil
}
