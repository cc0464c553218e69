package config

import (
	"github.com/spf13/viper"
)

// Entry is one configuration key with its default value.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns every known configuration key with its default.
func DefaultEntries() []Entry {
	return []Entry{
		// ===================
		// OpenAI
		// ===================
		{
			Key:         "openai.api_key",
			Value:       "${OPENAI_API_KEY}",
			Description: "OpenAI API key (uses environment variable)",
		},
		{
			Key:         "openai.base_url",
			Value:       "",
			Description: "Override for the OpenAI API base URL",
		},
		{
			Key:         "openai.chat_model",
			Value:       "gpt-3.5-turbo",
			Description: "Model used for dataset generation and plain chat",
		},
		{
			Key:         "openai.requests_per_minute",
			Value:       60,
			Description: "Client-side rate limit for OpenAI requests",
		},
		{
			Key:         "openai.max_retries",
			Value:       2,
			Description: "SDK retry attempts for failed requests (-1 disables)",
		},
		{
			Key:         "openai.timeout_seconds",
			Value:       120,
			Description: "HTTP timeout in seconds for OpenAI requests",
		},
		{
			Key:         "openai.upload_attempts",
			Value:       3,
			Description: "Attempts for file uploads that fail with a 5xx status",
		},
		{
			Key:         "openai.upload_delay_ms",
			Value:       1000,
			Description: "Base delay in milliseconds between upload attempts, doubled each time",
		},

		// ===================
		// Assistant
		// ===================
		{
			Key:         "assistant.id",
			Value:       "",
			Description: "Assistant id used to answer questions",
		},
		{
			Key:         "assistant.name",
			Value:       "Restaurant Assistant",
			Description: "Name given to assistants created from a PDF",
		},
		{
			Key:         "assistant.model",
			Value:       "gpt-4o",
			Description: "Model for assistants created from a PDF",
		},

		// ===================
		// Run polling
		// ===================
		{
			Key:         "poll.interval_ms",
			Value:       500,
			Description: "Wait in milliseconds between assistant run status checks",
		},
		{
			Key:         "poll.max_attempts",
			Value:       60,
			Description: "Status checks after the first before a run times out",
		},

		// ===================
		// Fine-tuning
		// ===================
		{
			Key:         "finetune.base_model",
			Value:       "gpt-3.5-turbo",
			Description: "Base model for fine-tuning jobs",
		},
		{
			Key:         "finetune.model",
			Value:       "",
			Description: "Fine-tuned model used for chat (empty uses the newest completed job)",
		},
		{
			Key:         "finetune.epochs",
			Value:       10,
			Description: "Training epochs",
		},
		{
			Key:         "finetune.suffix",
			Value:       "",
			Description: "Optional suffix for the fine-tuned model name",
		},
		{
			Key:         "finetune.max_text_chars",
			Value:       50000,
			Description: "Largest PDF text accepted for dataset generation",
		},
		{
			Key:         "finetune.poll_interval_seconds",
			Value:       30,
			Description: "Wait in seconds between fine-tuning job status checks",
		},
		{
			Key:         "finetune.poll_max_attempts",
			Value:       240,
			Description: "Status checks after the first before waiting gives up",
		},

		// ===================
		// Dataset generation
		// ===================
		{
			Key:         "dataset.chunk_size",
			Value:       5000,
			Description: "Characters per chunk; chunks overlap by half",
		},
		{
			Key:         "dataset.target_count",
			Value:       100,
			Description: "Unique Q&A entries to collect",
		},
		{
			Key:         "dataset.max_total_calls",
			Value:       30,
			Description: "Ceiling on generation calls, retries included",
		},
		{
			Key:         "dataset.per_chunk_retries",
			Value:       3,
			Description: "Attempts per chunk before moving on",
		},
		{
			Key:         "dataset.retry_backoff_ms",
			Value:       2000,
			Description: "Wait in milliseconds between failed attempts on one chunk",
		},
		{
			Key:         "dataset.model",
			Value:       "gpt-3.5-turbo",
			Description: "Model that writes the Q&A pairs",
		},
		{
			Key:         "dataset.temperature",
			Value:       0.4,
			Description: "Sampling temperature for generation",
		},
		{
			Key:         "dataset.max_tokens",
			Value:       4096,
			Description: "Completion token limit for generation",
		},

		// ===================
		// Speech
		// ===================
		{
			Key:         "tts.model",
			Value:       "tts-1",
			Description: "OpenAI TTS model",
		},
		{
			Key:         "tts.voice",
			Value:       "alloy",
			Description: "OpenAI TTS voice",
		},
		{
			Key:         "tts.format",
			Value:       "mp3",
			Description: "Audio output format",
		},
		{
			Key:         "tts.speed",
			Value:       1.0,
			Description: "Speech speed",
		},
		{
			Key:         "tts.instructions",
			Value:       "",
			Description: "Optional voice instructions for gpt-4o-mini-tts",
		},
		{
			Key:         "tts.max_chars",
			Value:       4096,
			Description: "Largest text segment sent in one TTS request",
		},

		// ===================
		// Server and storage
		// ===================
		{
			Key:         "server.host",
			Value:       "127.0.0.1",
			Description: "Address the HTTP server listens on",
		},
		{
			Key:         "server.port",
			Value:       "8080",
			Description: "Port the HTTP server listens on",
		},
		{
			Key:         "store.path",
			Value:       "concierge.db",
			Description: "SQLite job database, relative to the home directory",
		},
	}
}

// GetDefault returns the default entry for key, or nil if the key is unknown.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	for _, e := range DefaultEntries() {
		v.SetDefault(e.Key, e.Value)
	}
}

// DefaultConfig returns configuration with every default applied.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}
