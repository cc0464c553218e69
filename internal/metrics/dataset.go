package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(datasetCalls, datasetLines) }

var (
	datasetCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_generation_calls_total",
			Help: "Generation calls issued while building fine-tune datasets.",
		},
		[]string{"result"}, // ok, error
	)

	datasetLines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_generation_lines_total",
			Help: "Generated lines by disposition.",
		},
		[]string{"disposition"}, // accepted, duplicate, invalid
	)
)

// ObserveDatasetCall counts one generation call.
func ObserveDatasetCall(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	datasetCalls.WithLabelValues(result).Inc()
}

// AddDatasetLines counts the lines of one generation response.
func AddDatasetLines(accepted, duplicate, invalid int) {
	datasetLines.WithLabelValues("accepted").Add(float64(accepted))
	datasetLines.WithLabelValues("duplicate").Add(float64(duplicate))
	datasetLines.WithLabelValues("invalid").Add(float64(invalid))
}
