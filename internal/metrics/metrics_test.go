package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservePoll(t *testing.T) {
	before := testutil.ToFloat64(jobPollOutcomes.WithLabelValues("run", "timeout"))
	ObservePoll("run", "timeout", 61)
	ObservePoll("RUN", " Timeout ", 61)
	after := testutil.ToFloat64(jobPollOutcomes.WithLabelValues("run", "timeout"))
	if after-before != 2 {
		t.Fatalf("expected 2 new timeouts, got %v", after-before)
	}
}

func TestAddDatasetLines(t *testing.T) {
	before := testutil.ToFloat64(datasetLines.WithLabelValues("duplicate"))
	AddDatasetLines(10, 3, 1)
	if got := testutil.ToFloat64(datasetLines.WithLabelValues("duplicate")) - before; got != 3 {
		t.Fatalf("expected 3 duplicates, got %v", got)
	}
}

func TestObserveAICallEmptyLabels(t *testing.T) {
	ObserveAICall("", "", 5*time.Millisecond, true)
	if n := testutil.CollectAndCount(aiCallsLatencyMs); n == 0 {
		t.Fatal("expected at least one latency series")
	}
}

func TestNorm(t *testing.T) {
	if got := norm("  "); got != "unknown" {
		t.Fatalf("norm blank = %q", got)
	}
	if got := norm("OpenAI"); got != "openai" {
		t.Fatalf("norm = %q", got)
	}
}

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("post /answer", "200"))
	ObserveHTTP("POST /answer", 200, 20*time.Millisecond)
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("post /answer", "200")) - before; got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
}
