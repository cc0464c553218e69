package endpoints

import (
	"github.com/aicsr/concierge/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Assistant answers
		&AnswerEndpoint{},

		// Fine-tuning
		&ListFineTuneJobsEndpoint{},
		&GetFineTuneJobEndpoint{},
		&ChatEndpoint{},

		// Speech
		&SpeakEndpoint{},

		// Prometheus
		&MetricsEndpoint{},
	}
}
