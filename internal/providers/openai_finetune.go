package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3/option"
)

const DefaultFineTuneEpochs = 10

// FineTuneJob is a fine-tuning job as reported by the API.
type FineTuneJob struct {
	ID             string         `json:"id"`
	Model          string         `json:"model"`
	Status         string         `json:"status"`
	TrainingFile   string         `json:"training_file"`
	FineTunedModel string         `json:"fine_tuned_model,omitempty"`
	CreatedAt      int64          `json:"created_at"`
	Error          *FineTuneError `json:"error,omitempty"`
}

// FineTuneError is set on failed jobs.
type FineTuneError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FineTuneParams configures CreateFineTuneJob.
type FineTuneParams struct {
	TrainingFile string
	Model        string
	Epochs       int
	Suffix       string
}

// CreateFineTuneJob submits a fine-tuning job for an uploaded JSONL file.
func (c *OpenAIClient) CreateFineTuneJob(ctx context.Context, p FineTuneParams) (*FineTuneJob, error) {
	if p.TrainingFile == "" {
		return nil, fmt.Errorf("training file id is required")
	}
	if p.Model == "" {
		p.Model = DefaultChatModel
	}
	if p.Epochs <= 0 {
		p.Epochs = DefaultFineTuneEpochs
	}

	body := map[string]any{
		"training_file": p.TrainingFile,
		"model":         p.Model,
		"hyperparameters": map[string]any{
			"n_epochs": p.Epochs,
		},
	}
	if p.Suffix != "" {
		body["suffix"] = p.Suffix
	}

	var job FineTuneJob
	err := c.call(ctx, "fine_tuning.jobs.create", func() error {
		return c.client.Post(ctx, "fine_tuning/jobs", body, &job)
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetFineTuneJob fetches the current state of a fine-tuning job. Like
// GetRun it is never retried.
func (c *OpenAIClient) GetFineTuneJob(ctx context.Context, jobID string) (*FineTuneJob, error) {
	var job FineTuneJob
	err := c.call(ctx, "fine_tuning.jobs.get", func() error {
		return c.client.Get(ctx, "fine_tuning/jobs/"+jobID, nil, &job, option.WithMaxRetries(0))
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}
