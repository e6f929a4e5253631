package mail

import (
	"context"
	"errors"

	"account-service/internal/domain/notification"

	"github.com/hibiken/asynq"
)

// Worker consumes mail:send tasks from Redis.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewWorker(redisOpts asynq.RedisClientOpt, concurrency int, mailer notification.Mailer) *Worker {
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeSendEmail, NewSendEmailHandler(mailer))

	return &Worker{server: srv, mux: mux}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()

	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
