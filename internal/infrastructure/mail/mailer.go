package mail

import (
	"fmt"

	"account-service/internal/config"
	"account-service/internal/domain/notification"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpts converts the Redis section into asynq connection options.
func RedisOpts(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// New picks the transport named by cfg.Mail.Transport. The returned close
// func releases any client the transport holds.
func New(cfg *config.Config, log *zap.Logger) (notification.Mailer, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Mail.Transport {
	case "", "log":
		return NewLogMailer(log), noop, nil
	case "smtp":
		return NewSMTPMailer(cfg.SMTP), noop, nil
	case "queue":
		client := asynq.NewClient(RedisOpts(cfg.Redis))
		return NewQueueMailer(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown mail transport %q", cfg.Mail.Transport)
	}
}
