package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account-service/internal/config"
	"account-service/internal/delivery/http/handler"
	"account-service/internal/domain/notification"
	"account-service/internal/domain/token"
	"account-service/internal/infrastructure/cache"
	"account-service/internal/infrastructure/database/postgres"
	"account-service/internal/infrastructure/events"
	"account-service/internal/infrastructure/mail"
	"account-service/internal/infrastructure/security"
	"account-service/internal/logger"
	"account-service/internal/middleware"
	"account-service/internal/routes"
	"account-service/internal/usecase/auth"
	"account-service/internal/usecase/passwordreset"
	"account-service/pkg/mqtt"

	"go.uber.org/zap"
)

const limiterPruneInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	if env == "production" && cfg.Mail.Transport == "smtp" {
		logger.Warn("MAIL_TRANSPORT=smtp sends reset mail inline; use queue in production")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	userRepo := postgres.NewUserRepository(db)
	resetRepo := postgres.NewResetTokenRepository(db)
	var sessionRepo token.SessionRepository = postgres.NewSessionRepository(db)

	var probes []handler.Probe
	if cfg.Redis.Enabled {
		client, err := cache.New(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()

		sessionRepo = cache.NewBlacklistCache(sessionRepo, client, cfg.JWT.RefreshTTL)
		probes = append(probes, cache.NewProbe(client))
	}

	mailer, closeMailer, err := mail.New(cfg, logger.Named("mail"))
	if err != nil {
		logger.Fatal("Failed to configure mail transport", zap.Error(err))
	}
	defer func() {
		if err := closeMailer(); err != nil {
			logger.Error("Failed to close mail transport", zap.Error(err))
		}
	}()

	var publisher notification.EventPublisher = notification.NopPublisher{}
	if cfg.MQTT.Enabled() {
		client := mqtt.NewClient(mqtt.NewConfig(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Username, cfg.MQTT.Password))
		if err := client.Connect(); err != nil {
			logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer client.Disconnect()

		publisher = events.NewMQTTPublisher(client, cfg.MQTT.TopicPrefix)
	}

	authService := auth.NewService(
		userRepo,
		sessionRepo,
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		security.NewJWTIssuer(cfg.JWT),
		publisher,
		auth.Options{
			RotateRefreshTokens:            cfg.JWT.RotateRefreshTokens,
			RevokeSessionsOnPasswordChange: cfg.Auth.RevokeSessionsOnPasswordChange,
		},
	)

	resetService := passwordreset.NewService(
		userRepo,
		resetRepo,
		sessionRepo,
		authService,
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		mailer,
		publisher,
		passwordreset.Options{
			TokenTTL:       cfg.Auth.ResetTokenTTL,
			FrontendURL:    cfg.Auth.FrontendURL,
			RevokeSessions: cfg.Auth.RevokeSessionsOnPasswordChange,
		},
	)

	go resetService.StartCleanupJob(ctx, cfg.Auth.CleanupInterval)

	generalLimiter := middleware.NewRateLimiter(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)
	go generalLimiter.StartCleanup(ctx, limiterPruneInterval)
	go authLimiter.StartCleanup(ctx, limiterPruneInterval)

	router := routes.SetupRoutes(cfg, routes.Dependencies{
		Auth:           authService,
		PasswordReset:  resetService,
		DB:             db,
		Probes:         probes,
		GeneralLimiter: generalLimiter,
		AuthLimiter:    authLimiter,
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}

	log.Println("Server exited properly")
}
