package mail

import (
	"context"

	"account-service/internal/domain/notification"

	"go.uber.org/zap"
)

// LogMailer writes outgoing mail to the log instead of delivering it.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg notification.Message) error {
	m.log.Info("Outgoing email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
