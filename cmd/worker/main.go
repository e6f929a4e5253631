package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"account-service/internal/config"
	"account-service/internal/domain/notification"
	"account-service/internal/infrastructure/mail"
	"account-service/internal/logger"

	"go.uber.org/zap"
)

const concurrency = 5

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	var mailer notification.Mailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTP)
	} else {
		logger.Warn("SMTP_HOST not set, queued mail will only be logged")
		mailer = mail.NewLogMailer(logger.Named("mail"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := mail.NewWorker(mail.RedisOpts(cfg.Redis), concurrency, mailer)

	logger.Info("Mail worker starting", zap.String("redis", cfg.Redis.Addr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Mail worker failed", zap.Error(err))
	}
	logger.Info("Mail worker stopped")
}
