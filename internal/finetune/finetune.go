// Package finetune turns a restaurant document into a fine-tuned chat model:
// it generates a Q&A dataset from the document, uploads it, starts the
// training job and tracks the job until the model is ready.
package finetune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aicsr/concierge/internal/dataset"
	"github.com/aicsr/concierge/internal/pdftext"
	"github.com/aicsr/concierge/internal/poller"
	"github.com/aicsr/concierge/internal/providers"
	"github.com/aicsr/concierge/internal/store"
)

const (
	DefaultBaseModel    = "gpt-3.5-turbo"
	DefaultEpochs       = 10
	DefaultMaxTextChars = 50000

	DefaultPollInterval    = 30 * time.Second
	DefaultPollMaxAttempts = 240
)

// ErrTextTooLarge is returned for documents above the text limit.
var ErrTextTooLarge = errors.New("text too large, please reduce PDF size")

// ErrNoModel is returned by Chat when no fine-tuned model is known yet.
var ErrNoModel = errors.New("no fine-tuned model available")

// Client is the part of the OpenAI API fine-tuning needs.
type Client interface {
	providers.LLMClient
	UploadFile(ctx context.Context, data []byte, filename, purpose string) (*providers.File, error)
	CreateFineTuneJob(ctx context.Context, p providers.FineTuneParams) (*providers.FineTuneJob, error)
	GetFineTuneJob(ctx context.Context, jobID string) (*providers.FineTuneJob, error)
}

// JobStatus maps a fine-tuning job status to a poller status.
func JobStatus(raw string) poller.Status {
	switch raw {
	case "succeeded":
		return poller.StatusCompleted
	case "failed", "cancelled":
		return poller.StatusFailed
	default:
		// validating_files, queued, running
		return poller.StatusPending
	}
}

// Config configures a Service.
type Config struct {
	BaseModel    string
	Epochs       int
	Suffix       string
	ChunkSize    int
	MaxTextChars int

	// FineTunedModel answers Chat. Empty means the newest completed job in
	// the store.
	FineTunedModel string

	Generation GenerationConfig
	Dataset    dataset.Config
	Poll       poller.Config
	Logger     *slog.Logger
}

// Service runs the fine-tuning workflow.
type Service struct {
	client Client
	jobs   *store.Store
	cfg    Config
	loop   *dataset.Loop
	poller *poller.Poller
	logger *slog.Logger
}

// New creates a Service. jobs may be nil, in which case nothing is recorded.
func New(client Client, jobs *store.Store, cfg Config) *Service {
	if cfg.BaseModel == "" {
		cfg.BaseModel = DefaultBaseModel
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = DefaultEpochs
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = dataset.DefaultChunkSize
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = DefaultMaxTextChars
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Dataset.Logger == nil {
		cfg.Dataset.Logger = cfg.Logger
	}
	if cfg.Poll.Kind == "" {
		cfg.Poll.Kind = "fine_tune"
	}
	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = DefaultPollInterval
	}
	if cfg.Poll.MaxAttempts <= 0 {
		cfg.Poll.MaxAttempts = DefaultPollMaxAttempts
	}
	if cfg.Poll.Logger == nil {
		cfg.Poll.Logger = cfg.Logger
	}

	return &Service{
		client: client,
		jobs:   jobs,
		cfg:    cfg,
		loop:   dataset.NewLoop(cfg.Dataset),
		poller: poller.New(cfg.Poll),
		logger: cfg.Logger,
	}
}

// Prepare builds a training dataset from the PDF at path.
func (s *Service) Prepare(ctx context.Context, path string) (*dataset.Result, error) {
	text, err := pdftext.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from PDF: %w", err)
	}
	return s.PrepareText(ctx, text)
}

// PrepareText builds a training dataset from already extracted text.
func (s *Service) PrepareText(ctx context.Context, text string) (*dataset.Result, error) {
	n := utf8.RuneCountInString(text)
	if strings.TrimSpace(text) == "" {
		return nil, pdftext.ErrNoText
	}
	if n > s.cfg.MaxTextChars {
		return nil, fmt.Errorf("%w (%d characters, limit %d)", ErrTextTooLarge, n, s.cfg.MaxTextChars)
	}

	chunks := dataset.Split(text, s.cfg.ChunkSize)
	s.logger.Info("generating dataset", "characters", n, "chunks", len(chunks))

	gen := NewChatGenerator(s.client, s.cfg.Generation)
	return s.loop.Run(ctx, gen, chunks)
}

// Start prepares a dataset from the PDF at path, uploads it and submits a
// fine-tuning job. The job is recorded in the store.
func (s *Service) Start(ctx context.Context, path string) (*store.Job, error) {
	res, err := s.Prepare(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, res, filepath.Base(path))
}

// Submit uploads a prepared dataset and starts the fine-tuning job.
func (s *Service) Submit(ctx context.Context, res *dataset.Result, source string) (*store.Job, error) {
	name := fmt.Sprintf("fine_tune_dataset-%s.jsonl", uuid.NewString()[:8])
	file, err := s.client.UploadFile(ctx, []byte(res.JSONL), name, providers.PurposeFineTune)
	if err != nil {
		return nil, fmt.Errorf("failed to upload JSONL: %w", err)
	}

	remote, err := s.client.CreateFineTuneJob(ctx, providers.FineTuneParams{
		TrainingFile: file.ID,
		Model:        s.cfg.BaseModel,
		Epochs:       s.cfg.Epochs,
		Suffix:       s.cfg.Suffix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initiate fine-tuning: %w", err)
	}

	job := &store.Job{
		JobID:        remote.ID,
		FileID:       file.ID,
		Source:       source,
		BaseModel:    s.cfg.BaseModel,
		Status:       string(JobStatus(remote.Status)),
		RemoteStatus: remote.Status,
		Entries:      res.Unique,
	}
	if s.jobs != nil {
		if err := s.jobs.Save(ctx, job); err != nil {
			return nil, err
		}
	}

	s.logger.Info("fine-tuning job started",
		"job_id", job.JobID, "file_id", file.ID, "entries", res.Unique, "base_model", s.cfg.BaseModel)
	return job, nil
}

// Check looks at the job once. The outcome status is pending while the job
// is still running; on completion the payload is the fine-tuned model id.
func (s *Service) Check(ctx context.Context, jobID string) poller.Outcome {
	start := time.Now()
	out := poller.Outcome{Polls: 1}

	snap, err := s.fetchJob(ctx, poller.Handle{JobID: jobID})
	if err != nil {
		out.Status = poller.StatusFailed
		out.Detail = err.Error()
	} else {
		out.Status = snap.Status
		out.Detail = snap.Detail
		if snap.Status == poller.StatusCompleted {
			out.Payload = snap.Payload
		}
	}
	out.Elapsed = time.Since(start)
	return out
}

// Wait polls the job until it succeeds, fails or the poll budget runs out.
// A timeout leaves the stored job pending since training goes on remotely.
func (s *Service) Wait(ctx context.Context, jobID string) poller.Outcome {
	return s.poller.Poll(ctx, poller.Handle{JobID: jobID}, s.fetchJob)
}

// PollInterval returns the configured wait between status checks.
func (s *Service) PollInterval() time.Duration {
	return s.poller.Interval()
}

func (s *Service) fetchJob(ctx context.Context, h poller.Handle) (poller.Snapshot, error) {
	job, err := s.client.GetFineTuneJob(ctx, h.JobID)
	if err != nil {
		return poller.Snapshot{}, err
	}

	snap := poller.Snapshot{Status: JobStatus(job.Status)}
	switch snap.Status {
	case poller.StatusCompleted:
		snap.Payload = job.FineTunedModel
	case poller.StatusFailed:
		snap.Detail = "fine-tuning " + job.Status
		if job.Error != nil && job.Error.Message != "" {
			snap.Detail += ": " + job.Error.Message
		}
	}

	s.record(ctx, h.JobID, store.StatusUpdate{
		Status:         string(snap.Status),
		RemoteStatus:   job.Status,
		FineTunedModel: job.FineTunedModel,
		Detail:         snap.Detail,
	})
	return snap, nil
}

func (s *Service) record(ctx context.Context, jobID string, u store.StatusUpdate) {
	if s.jobs == nil {
		return
	}
	err := s.jobs.UpdateStatus(ctx, jobID, u)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.logger.Debug("status for unrecorded job", "job_id", jobID)
	case err != nil:
		s.logger.Warn("failed to record job status", "job_id", jobID, "error", err)
	}
}

// Jobs lists the recorded jobs, newest first.
func (s *Service) Jobs(ctx context.Context) ([]*store.Job, error) {
	if s.jobs == nil {
		return nil, nil
	}
	return s.jobs.List(ctx)
}

// Model returns the model Chat talks to.
func (s *Service) Model(ctx context.Context) (string, error) {
	if s.cfg.FineTunedModel != "" {
		return s.cfg.FineTunedModel, nil
	}
	jobs, err := s.Jobs(ctx)
	if err != nil {
		return "", err
	}
	for _, j := range jobs {
		if j.Status == string(poller.StatusCompleted) && j.FineTunedModel != "" {
			return j.FineTunedModel, nil
		}
	}
	return "", ErrNoModel
}
