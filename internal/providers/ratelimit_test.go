package providers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestRateLimiterConsumesBucket(t *testing.T) {
	rl := NewRateLimiter(3)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait() %d error = %v", i, err)
		}
	}
	st := rl.Status()
	if st.TotalConsumed != 3 {
		t.Fatalf("expected 3 consumed, got %d", st.TotalConsumed)
	}
	if st.TokensAvailable != 0 {
		t.Fatalf("expected empty bucket, got %d", st.TokensAvailable)
	}
}

func TestRateLimiterWaitHonoursContext(t *testing.T) {
	rl := NewRateLimiter(1)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRateLimiterRecord429Pauses(t *testing.T) {
	rl := NewRateLimiter(600)
	rl.Record429(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Fatal("expected Wait to block while paused")
	}
	if rl.Status().Last429Time.IsZero() {
		t.Fatal("expected last 429 time to be recorded")
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > 90*time.Second {
		t.Errorf("parseRetryAfter(http-date) = %v", got)
	}
}
