package assistant

import (
	"context"
	"time"

	"github.com/aicsr/concierge/internal/poller"
)

// BatchResult is one answered question of a batch.
type BatchResult struct {
	Reply
	Error string `json:"error,omitempty"`
}

// BatchReport summarizes a batch of questions asked in order.
type BatchReport struct {
	Results []BatchResult `json:"results"`
	Total   time.Duration `json:"total"`
	Average time.Duration `json:"average"`
	Failed  int           `json:"failed"`
}

// Batch asks every question on the session in order and reports the latency
// of each. It stops early only if ctx is done.
func (s *Session) Batch(ctx context.Context, questions []string) BatchReport {
	var report BatchReport
	for i, q := range questions {
		if ctx.Err() != nil {
			break
		}
		r, err := s.Ask(ctx, q)
		res := BatchResult{Reply: *r}
		if err != nil {
			res.Error = err.Error()
		}
		if err != nil || (r.Status != "" && r.Status != poller.StatusCompleted) {
			report.Failed++
		}
		report.Results = append(report.Results, res)
		report.Total += r.Latency
		s.logger.Info("batch question answered",
			"index", i+1, "of", len(questions), "status", r.Status, "latency", r.Latency)
	}
	if n := len(report.Results); n > 0 {
		report.Average = report.Total / time.Duration(n)
	}
	return report
}
