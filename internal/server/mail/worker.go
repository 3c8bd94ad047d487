package mail

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/folio/internal/logging"
	"github.com/hibiken/asynq"
)

// Worker processes queued mail until its context is cancelled.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger logging.Logger
}

func NewWorker(redisOpts asynq.RedisClientOpt, sender Sender, logger logging.Logger) *Worker {
	srv := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: 2,
		Queues: map[string]int{
			QueueDefault: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error(ctx, "mail task failed", "type", task.Type(), "error", err)
		}),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeSendEmail, HandleSendEmail(sender))

	return &Worker{server: srv, mux: mux, logger: logger}
}

// Run processes tasks until ctx is done, then waits for in-flight tasks.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("mail: worker not configured")
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.logger.Info(ctx, "mail worker started")
	<-ctx.Done()
	w.server.Shutdown()
	w.logger.Info(context.Background(), "mail worker stopped")
	return nil
}
