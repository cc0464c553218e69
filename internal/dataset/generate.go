// Package dataset builds fine-tuning datasets by repeatedly asking a model
// for question/answer pairs over overlapping chunks of a source text.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/aicsr/concierge/internal/metrics"
)

const (
	DefaultTargetCount     = 100
	DefaultMaxTotalCalls   = 30
	DefaultPerChunkRetries = 3
	DefaultRetryBackoff    = 2 * time.Second
)

var (
	// ErrNoEntries is returned when a run ends without a single usable record.
	ErrNoEntries = errors.New("no valid JSONL entries generated")

	// ErrNoChunks is returned when Run is given nothing to generate from.
	ErrNoChunks = errors.New("no text chunks to generate from")

	errCallBudget = errors.New("call budget exhausted")
)

// Generator makes one remote generation call for a chunk of source text.
// The call is not idempotent and may fail or return malformed output.
type Generator interface {
	GenerateOnce(ctx context.Context, chunk string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, chunk string) (string, error)

// GenerateOnce calls f.
func (f GeneratorFunc) GenerateOnce(ctx context.Context, chunk string) (string, error) {
	return f(ctx, chunk)
}

// Config bounds a generation run.
type Config struct {
	TargetCount     int
	MaxTotalCalls   int
	PerChunkRetries int
	// RetryBackoff is a flat delay between failed attempts on the same chunk.
	RetryBackoff time.Duration
	Logger       *slog.Logger

	// Timer replaces the wall clock between retries. Used by tests.
	Timer retry.Timer
}

// Result is what a run accumulated.
type Result struct {
	// JSONL holds the accepted lines verbatim, newline terminated.
	JSONL      string `json:"-"`
	Unique     int    `json:"unique"`
	Duplicates int    `json:"duplicates"`
	Invalid    int    `json:"invalid"`
	Calls      int    `json:"calls"`
	Failures   int    `json:"failures"`
	Chunks     int    `json:"chunks"`
	// ChunksVisited counts chunk turns, including revisits after wraparound.
	ChunksVisited int `json:"chunks_visited"`
}

// Loop runs the bounded generate/parse/dedupe cycle.
type Loop struct {
	target   int
	maxCalls int
	perChunk int
	backoff  time.Duration
	logger   *slog.Logger
	timer    retry.Timer
}

// NewLoop creates a Loop, filling zero values with the defaults.
func NewLoop(cfg Config) *Loop {
	if cfg.TargetCount <= 0 {
		cfg.TargetCount = DefaultTargetCount
	}
	if cfg.MaxTotalCalls <= 0 {
		cfg.MaxTotalCalls = DefaultMaxTotalCalls
	}
	if cfg.PerChunkRetries <= 0 {
		cfg.PerChunkRetries = DefaultPerChunkRetries
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = 0
	} else if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Loop{
		target:   cfg.TargetCount,
		maxCalls: cfg.MaxTotalCalls,
		perChunk: cfg.PerChunkRetries,
		backoff:  cfg.RetryBackoff,
		logger:   cfg.Logger,
		timer:    cfg.Timer,
	}
}

// Run cycles through chunks, one generation call per turn, until TargetCount
// unique records are collected or MaxTotalCalls calls have been made. A
// failed call is retried on the same chunk up to PerChunkRetries times with
// a flat RetryBackoff between attempts; after that the loop moves on to the
// next chunk. Falling short of the target is not an error. Run fails only
// when nothing usable was produced, in which case the returned Result still
// carries the call statistics.
func (l *Loop) Run(ctx context.Context, gen Generator, chunks []string) (*Result, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	set := NewEntrySet()
	res := &Result{Chunks: len(chunks)}

	for chunkIndex := 0; set.Len() < l.target && res.Calls < l.maxCalls; chunkIndex++ {
		if ctx.Err() != nil {
			break
		}
		idx := chunkIndex % len(chunks)
		res.ChunksVisited++
		l.runChunk(ctx, gen, idx, chunks[idx], set, res)
	}

	res.Unique = set.Len()
	res.JSONL = set.JSONL()

	if res.Unique < l.target {
		l.logger.Warn("dataset below target",
			"unique", res.Unique, "target", l.target, "calls", res.Calls)
	} else {
		l.logger.Info("dataset complete", "unique", res.Unique, "calls", res.Calls)
	}

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("dataset generation interrupted: %w", err)
	}
	if res.Unique == 0 {
		return res, ErrNoEntries
	}
	return res, nil
}

// runChunk makes up to perChunk attempts on one chunk. It stops early when
// the total call budget is spent.
func (l *Loop) runChunk(ctx context.Context, gen Generator, idx int, chunk string, set *EntrySet, res *Result) {
	attempt := 0
	budgetHit := false

	call := func() error {
		if res.Calls >= l.maxCalls {
			budgetHit = true
			return retry.Unrecoverable(errCallBudget)
		}
		attempt++
		res.Calls++
		l.logger.Debug("generation call",
			"call", res.Calls, "chunk", idx, "attempt", attempt)

		out, err := gen.GenerateOnce(ctx, chunk)
		if err != nil {
			res.Failures++
			metrics.ObserveDatasetCall(false)
			return err
		}
		metrics.ObserveDatasetCall(true)

		stats := set.AddOutput(out)
		res.Duplicates += stats.Duplicates
		res.Invalid += stats.Invalid
		metrics.AddDatasetLines(stats.Added, stats.Duplicates, stats.Invalid)

		l.logger.Info("generation call finished",
			"call", res.Calls,
			"chunk", idx,
			"added", stats.Added,
			"duplicates", stats.Duplicates,
			"invalid", stats.Invalid,
			"total", set.Len())
		return nil
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(l.perChunk)),
		retry.Delay(l.backoff),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if budgetHit {
				return
			}
			l.logger.Warn("generation call failed",
				"chunk", idx, "retries_remaining", l.perChunk-attempt, "error", err)
		}),
	}
	if l.timer != nil {
		opts = append(opts, retry.WithTimer(l.timer))
	}

	err := retry.Do(call, opts...)
	switch {
	case err == nil, budgetHit, ctx.Err() != nil:
	default:
		l.logger.Warn("chunk failed after retries",
			"chunk", idx, "attempts", attempt, "error", err)
	}
}
