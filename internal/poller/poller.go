package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/aicsr/concierge/internal/metrics"
)

const (
	DefaultInterval    = 500 * time.Millisecond
	DefaultMaxAttempts = 60
)

// errPending keeps retry-go looping while the job is not terminal.
var errPending = errors.New("job still pending")

// Config configures a Poller.
type Config struct {
	// Kind labels logs and metrics (e.g. "run", "fine_tune").
	Kind        string
	Interval    time.Duration
	MaxAttempts int
	Logger      *slog.Logger

	// Timer replaces the wall clock between polls. Tests use it to observe
	// waits without sleeping.
	Timer retry.Timer
}

// Poller checks a job's status until it completes, fails, or the attempt
// budget is spent. A Poller holds no per-job state and may be reused.
type Poller struct {
	kind        string
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger
	timer       retry.Timer
}

// New creates a Poller, filling zero values with the defaults.
func New(cfg Config) *Poller {
	if cfg.Kind == "" {
		cfg.Kind = "job"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Poller{
		kind:        cfg.Kind,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		logger:      cfg.Logger,
		timer:       cfg.Timer,
	}
}

// Interval returns the wait between two status calls.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// MaxAttempts returns the number of waits allowed after the immediate check.
func (p *Poller) MaxAttempts() int {
	return p.maxAttempts
}

// Poll checks the job once right away and returns if it is already terminal.
// Otherwise it waits Interval before each further check, for at most
// MaxAttempts checks, and then reports a timeout.
//
// A failing fetch ends the poll with StatusFailed; status checks are not
// retried. Poll never returns an error.
func (p *Poller) Poll(ctx context.Context, h Handle, fetch StatusFunc) Outcome {
	return p.run(ctx, h, nil, fetch)
}

// PollFrom is Poll for callers whose submit call already returned a status.
// The initial snapshot stands in for the immediate check, so fetch is only
// called after the first wait.
func (p *Poller) PollFrom(ctx context.Context, h Handle, initial Snapshot, fetch StatusFunc) Outcome {
	return p.run(ctx, h, &initial, fetch)
}

func (p *Poller) run(ctx context.Context, h Handle, seed *Snapshot, fetch StatusFunc) Outcome {
	start := time.Now()

	var (
		last     Snapshot
		seen     bool
		polls    int
		attempt  int
		fetchErr error
	)

	check := func() error {
		attempt++
		if attempt == 1 && seed != nil {
			last = *seed
		} else {
			polls++
			snap, err := fetch(ctx, h)
			if err != nil {
				fetchErr = err
				return retry.Unrecoverable(err)
			}
			last = snap
		}
		seen = true

		if last.Status == StatusCompleted || last.Status == StatusFailed {
			return nil
		}
		return errPending
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(p.maxAttempts) + 1),
		retry.Delay(p.interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if errors.Is(err, errPending) {
				p.logger.Debug("job not terminal yet",
					"kind", p.kind, "job_id", h.JobID, "attempt", n+1, "max_attempts", p.maxAttempts)
			}
		}),
	}
	if p.timer != nil {
		opts = append(opts, retry.WithTimer(p.timer))
	}

	_ = retry.Do(check, opts...)

	out := Outcome{Polls: polls, Elapsed: time.Since(start)}
	switch {
	case fetchErr != nil:
		out.Status = StatusFailed
		out.Detail = fetchErr.Error()
	case seen && last.Status == StatusCompleted:
		out.Status = StatusCompleted
		out.Payload = last.Payload
		out.Detail = last.Detail
	case seen && last.Status == StatusFailed:
		out.Status = StatusFailed
		out.Detail = last.Detail
	case ctx.Err() != nil:
		out.Status = StatusFailed
		out.Detail = ctx.Err().Error()
	default:
		out.Status = StatusTimeout
	}

	p.record(h, out)
	return out
}

func (p *Poller) record(h Handle, out Outcome) {
	metrics.ObservePoll(p.kind, string(out.Status), out.Polls)

	attrs := []any{
		"kind", p.kind,
		"job_id", h.JobID,
		"status", out.Status,
		"polls", out.Polls,
		"elapsed", out.Elapsed,
	}
	if h.ParentID != "" {
		attrs = append(attrs, "parent_id", h.ParentID)
	}
	switch out.Status {
	case StatusCompleted:
		p.logger.Info("job completed", attrs...)
	case StatusTimeout:
		p.logger.Warn("job poll timed out", attrs...)
	default:
		p.logger.Warn("job failed", append(attrs, "detail", out.Detail)...)
	}
}
