package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeActivationEmail is the task type for account activation emails.
	TaskTypeActivationEmail = "mail:activation"
)

// ActivationEmailPayload describes an activation email to deliver.
type ActivationEmailPayload struct {
	To   string `json:"to"`
	Link string `json:"link"`
}

// NewActivationEmailTask constructs an Asynq task.
func NewActivationEmailTask(payload ActivationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeActivationEmail, data, asynq.Queue(QueueDefault)), nil
}
