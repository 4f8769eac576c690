package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const activationMailSubject = "Account activation"

// Worker wraps the Asynq server handling mail delivery tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Mailer      Mailer
	Concurrency int
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	handler := &activationMailHandler{mailer: cfg.Mailer, logger: logger}
	mux.HandleFunc(TaskTypeActivationEmail, handler.Handle)
	return &Worker{server: srv, mux: mux, logger: logger}
}

// Run starts the worker and blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.logger.Info("stopping worker")
	w.server.Shutdown()
	return ctx.Err()
}

type activationMailHandler struct {
	mailer Mailer
	logger *slog.Logger
}

// Handle delivers one activation email.
func (h *activationMailHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ActivationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("activation mail payload invalid", slog.Any("error", err))
		return asynq.SkipRetry
	}
	body := activationMailBody(payload.Link)
	if err := h.mailer.Send(ctx, payload.To, activationMailSubject, body); err != nil {
		h.logger.Warn("activation mail delivery failed",
			slog.String("to", payload.To),
			slog.Any("error", err))
		return err
	}
	h.logger.Info("activation mail delivered", slog.String("to", payload.To))
	return nil
}

func activationMailBody(link string) string {
	return fmt.Sprintf("You are receiving this email because you (or someone else) have requested account activation.\n\n"+
		"Please click on the following link, or paste this into your browser to complete the process:\n\n"+
		"%s\n\n"+
		"If you did not request this, please ignore this email.\n", link)
}
