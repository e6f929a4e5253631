package routes

import (
	"account-service/internal/config"
	"account-service/internal/delivery/http/handler"
	"account-service/internal/logger"
	"account-service/internal/middleware"
	"account-service/internal/usecase/auth"
	"account-service/internal/usecase/passwordreset"

	"github.com/gin-gonic/gin"
)

const maxRequestBody = 1 << 20

// Dependencies are the services and probes the HTTP layer is built from.
type Dependencies struct {
	Auth          *auth.Service
	PasswordReset *passwordreset.Service
	DB            handler.Database
	Probes        []handler.Probe

	GeneralLimiter *middleware.RateLimiter
	AuthLimiter    *middleware.RateLimiter
}

func SetupRoutes(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if deps.GeneralLimiter == nil {
		deps.GeneralLimiter = middleware.NewRateLimiter(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)
	}
	if deps.AuthLimiter == nil {
		deps.AuthLimiter = middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)
	}

	router := gin.New()

	// Order: recovery, request ID, logging, security headers, CORS, body limit, general rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(maxRequestBody))
	router.Use(deps.GeneralLimiter.Middleware())

	handler.NewHealthHandler(deps.DB, deps.Probes...).RegisterRoutes(router)

	authHandler := handler.NewAuthHandler(deps.Auth)
	resetHandler := handler.NewPasswordResetHandler(deps.PasswordReset)
	credentialLimit := deps.AuthLimiter.Middleware()

	api := router.Group("/api/auth")
	{
		authHandler.RegisterPublicRoutes(api, credentialLimit)
		resetHandler.RegisterRoutes(api, credentialLimit)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(deps.Auth))
		{
			authHandler.RegisterProtectedRoutes(protected)
		}
	}

	logger.Info("All routes initialized")
	return router
}
