package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
)

// Enqueuer dispatches activation emails by enqueueing delivery tasks. It is
// the production implementation of the auth service's Notifier port: a failed
// enqueue is a failed dispatch.
type Enqueuer struct {
	client      *asynq.Client
	externalURL string
	logger      *slog.Logger
}

// NewEnqueuer constructs an Enqueuer. externalURL is the public base used to
// build activation links.
func NewEnqueuer(client *asynq.Client, externalURL string, logger *slog.Logger) *Enqueuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enqueuer{
		client:      client,
		externalURL: strings.TrimRight(externalURL, "/"),
		logger:      logger,
	}
}

// ActivationLink returns the link embedded in the activation email.
func (e *Enqueuer) ActivationLink(token string) string {
	return fmt.Sprintf("%s/auth/activate/%s", e.externalURL, token)
}

// SendActivationEmail enqueues the activation email for delivery.
func (e *Enqueuer) SendActivationEmail(ctx context.Context, email, token string) error {
	task, err := NewActivationEmailTask(ActivationEmailPayload{
		To:   email,
		Link: e.ActivationLink(token),
	})
	if err != nil {
		return err
	}
	info, err := e.client.EnqueueContext(ctx, task, asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("jobs: enqueue activation email: %w", err)
	}
	e.logger.Info("activation email enqueued",
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))
	return nil
}

// Close releases the underlying client.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}
