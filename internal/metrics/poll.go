package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobPollOutcomes, jobPollChecks) }

var (
	jobPollOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_poll_outcomes_total",
			Help: "Terminal poll outcomes per job kind.",
		},
		[]string{"kind", "status"}, // completed, failed, timeout
	)

	jobPollChecks = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_poll_checks",
			Help:    "Status checks needed to reach a terminal outcome.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		},
		[]string{"kind"},
	)
)

// ObservePoll records one finished poll.
func ObservePoll(kind, status string, checks int) {
	jobPollOutcomes.WithLabelValues(norm(kind), norm(status)).Inc()
	jobPollChecks.WithLabelValues(norm(kind)).Observe(float64(checks))
}
