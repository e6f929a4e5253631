package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"account-service/internal/domain/notification"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue mail tasks are placed on.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// SendEmailPayload is the JSON body of a mail:send task.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an asynq task for msg.
func NewSendEmailTask(msg notification.Message) (*asynq.Task, error) {
	data, err := json.Marshal(SendEmailPayload{To: msg.To, Subject: msg.Subject, Body: msg.Body})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueMailer hands mail to the background worker.
type QueueMailer struct {
	client enqueuer
}

func NewQueueMailer(client *asynq.Client) *QueueMailer {
	return &QueueMailer{client: client}
}

func (m *QueueMailer) Send(ctx context.Context, msg notification.Message) error {
	task, err := NewSendEmailTask(msg)
	if err != nil {
		return fmt.Errorf("build mail task: %w", err)
	}

	if _, err := m.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	); err != nil {
		return fmt.Errorf("enqueue mail task: %w", err)
	}
	return nil
}

// NewSendEmailHandler returns the worker side of mail:send, delivering each
// task through mailer.
func NewSendEmailHandler(mailer notification.Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode mail task: %v: %w", err, asynq.SkipRetry)
		}
		return mailer.Send(ctx, notification.Message{
			To:      payload.To,
			Subject: payload.Subject,
			Body:    payload.Body,
		})
	}
}
