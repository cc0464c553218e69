// Package assistant answers customer questions through an OpenAI assistant
// that has the restaurant's documents attached.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aicsr/concierge/internal/poller"
	"github.com/aicsr/concierge/internal/providers"
	"github.com/aicsr/concierge/internal/reply"
)

// Client is the part of the Assistants API a Session needs.
type Client interface {
	CreateThread(ctx context.Context) (*providers.Thread, error)
	AddMessage(ctx context.Context, threadID, content string) (*providers.ThreadMessage, error)
	CreateRun(ctx context.Context, threadID, assistantID string) (*providers.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*providers.Run, error)
	ListMessages(ctx context.Context, threadID string, limit int) ([]providers.ThreadMessage, error)
}

// RunStatus maps an Assistants run status to a poller status.
func RunStatus(raw string) poller.Status {
	switch raw {
	case "completed":
		return poller.StatusCompleted
	case "failed", "cancelled", "expired", "incomplete":
		return poller.StatusFailed
	default:
		// queued, in_progress, requires_action, cancelling
		return poller.StatusPending
	}
}

// Reply is the answer to one question.
type Reply struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Emotion  reply.Emotion `json:"emotion"`
	// Status is the terminal run status; empty when no run was started.
	Status   poller.Status `json:"status,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	ThreadID string        `json:"thread_id,omitempty"`
	RunID    string        `json:"run_id,omitempty"`
	Latency  time.Duration `json:"latency"`
}

// Config configures a Session.
type Config struct {
	AssistantID string
	Poll        poller.Config
	Logger      *slog.Logger
}

// Session is one conversation thread with an assistant. Questions asked on
// the same session share the thread and therefore its context. A Session
// serializes its questions.
type Session struct {
	client      Client
	assistantID string
	poller      *poller.Poller
	logger      *slog.Logger

	mu       sync.Mutex
	threadID string
}

// NewSession creates a Session. The thread is created on the first question.
func NewSession(client Client, cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Poll.Kind == "" {
		cfg.Poll.Kind = "assistant_run"
	}
	if cfg.Poll.Logger == nil {
		cfg.Poll.Logger = cfg.Logger
	}
	return &Session{
		client:      client,
		assistantID: cfg.AssistantID,
		poller:      poller.New(cfg.Poll),
		logger:      cfg.Logger,
	}
}

// ThreadID returns the session's thread, or "" before the first question.
func (s *Session) ThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID
}

// Ask sends question to the assistant and waits for its answer. The returned
// Reply is always usable: when the run fails or times out it carries the
// apology answer and the run status. A non-nil error additionally reports a
// request that could not be made.
func (s *Session) Ask(ctx context.Context, question string) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	question = strings.TrimSpace(question)
	if question == "" {
		return &Reply{Answer: reply.NoQuery, Emotion: reply.Neutral}, nil
	}

	r, err := s.ask(ctx, question)
	r.Question = question
	r.Latency = time.Since(start)
	if err != nil {
		s.logger.Warn("assistant request failed", "thread_id", s.threadID, "error", err)
	}
	return r, err
}

func (s *Session) ask(ctx context.Context, question string) (*Reply, error) {
	apology := func(status poller.Status, detail string) *Reply {
		a := reply.Apologize()
		return &Reply{Answer: a.Answer, Emotion: a.Emotion, Status: status, Detail: detail, ThreadID: s.threadID}
	}

	if s.threadID == "" {
		thread, err := s.client.CreateThread(ctx)
		if err != nil {
			return apology("", err.Error()), fmt.Errorf("create thread: %w", err)
		}
		s.threadID = thread.ID
		s.logger.Debug("thread created", "thread_id", s.threadID)
	}

	if _, err := s.client.AddMessage(ctx, s.threadID, question); err != nil {
		return apology("", err.Error()), fmt.Errorf("add message: %w", err)
	}

	run, err := s.client.CreateRun(ctx, s.threadID, s.assistantID)
	if err != nil {
		return apology(poller.StatusFailed, err.Error()), fmt.Errorf("create run: %w", err)
	}

	h := poller.Handle{JobID: run.ID, ParentID: s.threadID}
	out := s.poller.PollFrom(ctx, h, runSnapshot(run), s.fetchRun)
	if out.Status != poller.StatusCompleted {
		r := apology(out.Status, out.Detail)
		r.RunID = run.ID
		return r, nil
	}

	msgs, err := s.client.ListMessages(ctx, s.threadID, 10)
	if err != nil {
		r := apology(poller.StatusCompleted, err.Error())
		r.RunID = run.ID
		return r, fmt.Errorf("list messages: %w", err)
	}

	parsed := reply.ParseMessage(latestAnswer(msgs, run.ID), question)
	return &Reply{
		Answer:   parsed.Answer,
		Emotion:  parsed.Emotion,
		Status:   poller.StatusCompleted,
		ThreadID: s.threadID,
		RunID:    run.ID,
	}, nil
}

func (s *Session) fetchRun(ctx context.Context, h poller.Handle) (poller.Snapshot, error) {
	run, err := s.client.GetRun(ctx, h.ParentID, h.JobID)
	if err != nil {
		return poller.Snapshot{}, err
	}
	return runSnapshot(run), nil
}

func runSnapshot(run *providers.Run) poller.Snapshot {
	snap := poller.Snapshot{Status: RunStatus(run.Status)}
	if run.LastError != nil {
		snap.Detail = strings.TrimSpace(run.LastError.Code + ": " + run.LastError.Message)
	} else if snap.Status == poller.StatusFailed {
		snap.Detail = "run " + run.Status
	}
	return snap
}

// latestAnswer picks the newest assistant message, preferring one produced
// by runID. msgs are newest first.
func latestAnswer(msgs []providers.ThreadMessage, runID string) string {
	for _, m := range msgs {
		if m.Role == "assistant" && m.RunID == runID {
			return m.Text()
		}
	}
	for _, m := range msgs {
		if m.Role == "assistant" {
			return m.Text()
		}
	}
	return ""
}
