package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeTimer struct {
	waits []time.Duration
}

func (f *fakeTimer) After(d time.Duration) <-chan time.Time {
	f.waits = append(f.waits, d)
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func pair(i int) string {
	return fmt.Sprintf(`{"messages":[{"role":"user","content":"Question %d?"},{"role":"assistant","content":"Answer %d."}]}`, i, i)
}

func pairs(from, n int) string {
	lines := make([]string, 0, n)
	for i := from; i < from+n; i++ {
		lines = append(lines, pair(i))
	}
	return strings.Join(lines, "\n")
}

func newTestLoop(cfg Config) (*Loop, *fakeTimer) {
	timer := &fakeTimer{}
	cfg.Timer = timer
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLoop(cfg), timer
}

func TestRunDeduplicatesRepeatedOutput(t *testing.T) {
	loop, _ := newTestLoop(Config{})
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, chunk string) (string, error) {
		calls++
		return pairs(0, 10), nil
	})

	res, err := loop.Run(context.Background(), gen, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Unique != 10 {
		t.Fatalf("expected 10 unique entries, got %d", res.Unique)
	}
	if res.Calls != DefaultMaxTotalCalls || calls != DefaultMaxTotalCalls {
		t.Fatalf("expected %d calls, got res=%d gen=%d", DefaultMaxTotalCalls, res.Calls, calls)
	}
	if res.Duplicates != 10*(DefaultMaxTotalCalls-1) {
		t.Fatalf("unexpected duplicate count %d", res.Duplicates)
	}
	if got := strings.Count(res.JSONL, "\n"); got != 10 {
		t.Fatalf("expected 10 JSONL lines, got %d", got)
	}
}

func TestRunStopsAtTarget(t *testing.T) {
	loop, _ := newTestLoop(Config{TargetCount: 20})
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, chunk string) (string, error) {
		out := pairs(calls*10, 10)
		calls++
		return out, nil
	})

	res, err := loop.Run(context.Background(), gen, []string{"a"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls != 2 || res.Calls != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", calls)
	}
	if res.Unique != 20 {
		t.Fatalf("expected 20 entries, got %d", res.Unique)
	}
}

func TestRunRetriesChunkThenAdvances(t *testing.T) {
	loop, timer := newTestLoop(Config{TargetCount: 10})
	var seen []string
	gen := GeneratorFunc(func(ctx context.Context, chunk string) (string, error) {
		seen = append(seen, chunk)
		if chunk == "c0" {
			return "", errors.New("503 service unavailable")
		}
		return pairs(0, 10), nil
	})

	res, err := loop.Run(context.Background(), gen, []string{"c0", "c1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"c0", "c0", "c0", "c1"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Fatalf("call order = %v, want %v", seen, want)
	}
	if res.Failures != 3 || res.Calls != 4 {
		t.Fatalf("expected 3 failures over 4 calls, got %d over %d", res.Failures, res.Calls)
	}
	// No wait follows the final failed attempt.
	if len(timer.waits) != 2 {
		t.Fatalf("expected 2 backoff waits, got %v", timer.waits)
	}
	for _, w := range timer.waits {
		if w != DefaultRetryBackoff {
			t.Fatalf("expected flat %v backoff, got %v", DefaultRetryBackoff, w)
		}
	}
}

func TestRunWrapsAroundChunks(t *testing.T) {
	loop, _ := newTestLoop(Config{TargetCount: 5})
	var seen []string
	gen := GeneratorFunc(func(ctx context.Context, chunk string) (string, error) {
		seen = append(seen, chunk)
		return pair(len(seen)), nil
	})

	res, err := loop.Run(context.Background(), gen, []string{"c0", "c1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.Join(seen, ","); got != "c0,c1,c0,c1,c0" {
		t.Fatalf("unexpected chunk order %s", got)
	}
	if res.ChunksVisited != 5 || res.Chunks != 2 {
		t.Fatalf("unexpected chunk stats: visited=%d chunks=%d", res.ChunksVisited, res.Chunks)
	}
}

func TestRunAllInvalidOutput(t *testing.T) {
	loop, _ := newTestLoop(Config{})
	gen := GeneratorFunc(func(ctx context.Context, chunk string) (string, error) {
		return "Sure! Here are some pairs:\n```json\n{\"messages\":[]}\n```", nil
	})

	res, err := loop.Run(context.Background(), gen, []string{"menu"})
	if !errors.Is(err, ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
	if res == nil || res.Calls != DefaultMaxTotalCalls {
		t.Fatalf("expected the full call budget to be spent, got %+v", res)
	}
	if res.JSONL != "" {
		t.Fatalf("expected empty JSONL, got %q", res.JSONL)
	}
}

func TestRunCallBudgetHoldsDuringRetries(t *testing.T) {
	loop, _ := newTestLoop(Config{MaxTotalCalls: 4})
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, chunk string) (string, error) {
		calls++
		return "", errors.New("timeout")
	})

	res, err := loop.Run(context.Background(), gen, []string{"c0", "c1"})
	if !errors.Is(err, ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
	if calls != 4 || res.Calls != 4 {
		t.Fatalf("expected exactly 4 calls, got %d", calls)
	}
	if res.Failures != 4 {
		t.Fatalf("expected 4 failures, got %d", res.Failures)
	}
}

func TestRunKeepsLinesVerbatim(t *testing.T) {
	loop, _ := newTestLoop(Config{TargetCount: 2})
	spaced := `{"messages": [{"role": "user", "content": "Open on Fridays?"}, {"role": "assistant", "content": "Yes, until 11pm."}]}`
	gen := GeneratorFunc(func(ctx context.Context, chunk string) (string, error) {
		return spaced + "\nnot json\n" + pair(1), nil
	})

	res, err := loop.Run(context.Background(), gen, []string{"menu"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := spaced + "\n" + pair(1) + "\n"
	if res.JSONL != want {
		t.Fatalf("JSONL = %q, want %q", res.JSONL, want)
	}
	if res.Invalid != 1 {
		t.Fatalf("expected 1 invalid line, got %d", res.Invalid)
	}
}

func TestRunNoChunks(t *testing.T) {
	loop, _ := newTestLoop(Config{})
	_, err := loop.Run(context.Background(), GeneratorFunc(func(ctx context.Context, chunk string) (string, error) {
		t.Fatal("generator must not be called")
		return "", nil
	}), nil)
	if !errors.Is(err, ErrNoChunks) {
		t.Fatalf("expected ErrNoChunks, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	loop, _ := newTestLoop(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, chunk string) (string, error) {
		calls++
		cancel()
		return pair(calls), nil
	})

	res, err := loop.Run(ctx, gen, []string{"menu"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 || res.Unique != 1 {
		t.Fatalf("expected one call and one entry, got calls=%d unique=%d", calls, res.Unique)
	}
}
