package app

import (
	"context"

	"github.com/cswitzer/OverboardTodosApp/internal/auth/credentials"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/flow"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/handler"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/provider"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/provider/generic"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/provider/google"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/resolver"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/state"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/token"
	"github.com/cswitzer/OverboardTodosApp/internal/config"
	"github.com/cswitzer/OverboardTodosApp/internal/db"
	"github.com/cswitzer/OverboardTodosApp/internal/logger"
	"github.com/cswitzer/OverboardTodosApp/internal/middleware"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	codec, err := token.NewCodec(token.Config{
		Secret: cfg.SecretKey,
		Issuer: cfg.TokenIssuer,
	})
	if err != nil {
		return nil, nil, err
	}

	var guard state.Guard
	if infra.Redis != nil {
		guard = state.NewRedisGuard(infra.Redis.Client, cfg.StateTTL)
	} else {
		guard = state.NewMemoryGuard(cfg.StateTTL)
	}

	userStore := db.NewUserStore(infra.DB)
	identityResolver := resolver.New(userStore)
	credentialService := credentials.NewService(infra.DB)

	providers, err := buildProviders(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	orchestrator := flow.NewOrchestrator(
		providers,
		guard,
		identityResolver,
		codec,
		flow.Config{
			FrontendURL:     cfg.ClientURL,
			TokenTTL:        cfg.TokenTTL,
			ExchangeTimeout: cfg.ExchangeTimeout,
		},
	)

	authHandler := handler.NewHandler(
		orchestrator,
		credentialService,
		codec,
		cfg.TokenTTL,
		cfg.LoginURL,
	)

	authMiddleware := middleware.NewAuthMiddleware(codec)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	authHandler.RegisterRoutes(router, authMiddleware)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router, func() error {
		return infra.DB.Close()
	}, nil
}

// buildProviders assembles the registry from whatever IdPs the config
// enables. Password login works with an empty registry.
func buildProviders(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	var list []provider.OAuthProvider

	if cfg.GoogleEnabled() {
		googleProvider, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, googleProvider)
	}

	if cfg.GenericEnabled() {
		genericProvider, err := generic.New(generic.Config{
			Name:         cfg.OAuthProviderName,
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			AuthURL:      cfg.OAuthAuthURL,
			TokenURL:     cfg.OAuthTokenURL,
			UserInfoURL:  cfg.OAuthUserInfoURL,
			Scopes:       cfg.OAuthScopes,
		})
		if err != nil {
			return nil, err
		}
		list = append(list, genericProvider)
	}

	if len(list) == 0 {
		logger.Warn("no oauth providers configured", nil)
	}

	return provider.NewRegistry(list...), nil
}
