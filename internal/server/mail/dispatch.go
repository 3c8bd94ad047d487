package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue mail tasks are put on.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for outgoing mail.
	TaskTypeSendEmail = "mail:send"
)

// Dispatcher hands a message over for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// DirectDispatcher delivers in the caller's goroutine.
type DirectDispatcher struct {
	sender Sender
}

func NewDirectDispatcher(sender Sender) *DirectDispatcher {
	return &DirectDispatcher{sender: sender}
}

func (d *DirectDispatcher) Dispatch(ctx context.Context, msg Message) error {
	return d.sender.Send(ctx, msg)
}

// Enqueuer is the part of *asynq.Client used by QueueDispatcher.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueDispatcher enqueues a TaskTypeSendEmail task per message.
type QueueDispatcher struct {
	client Enqueuer
	opts   []asynq.Option
}

func NewQueueDispatcher(client Enqueuer, opts ...asynq.Option) *QueueDispatcher {
	if len(opts) == 0 {
		opts = []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(5)}
	}
	return &QueueDispatcher{client: client, opts: opts}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, msg Message) error {
	task, err := NewSendEmailTask(msg)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task, d.opts...); err != nil {
		return fmt.Errorf("mail: enqueue: %w", err)
	}
	return nil
}

// NewSendEmailTask constructs an asynq task carrying msg.
func NewSendEmailTask(msg Message) (*asynq.Task, error) {
	if msg.To == "" {
		return nil, errNoRecipient
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmail returns the handler for TaskTypeSendEmail tasks. Payloads
// that cannot be decoded are not retried.
func HandleSendEmail(sender Sender) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var msg Message
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			return fmt.Errorf("mail: bad payload: %v: %w", err, asynq.SkipRetry)
		}
		return sender.Send(ctx, msg)
	}
}
