// Package config loads concierge settings from a YAML file, CONCIERGE_
// environment variables and built-in defaults, and reloads them when the
// file changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/aicsr/concierge/internal/dataset"
	"github.com/aicsr/concierge/internal/finetune"
	"github.com/aicsr/concierge/internal/poller"
	"github.com/aicsr/concierge/internal/providers"
)

// EnvPrefix prefixes environment overrides, e.g. CONCIERGE_ASSISTANT_ID.
const EnvPrefix = "CONCIERGE"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config. An empty
// cfgFile searches ./config.yaml and $HOME/.concierge/config.yaml; a missing
// file is not an error.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.concierge")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// File returns the config file in use, or "" when running on defaults.
func (cm *Manager) File() string {
	return cm.v.ConfigFileUsed()
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envRef.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// APIKey returns the OpenAI key with environment references resolved.
func (c *Config) APIKey() string {
	return ResolveEnvVars(c.OpenAI.APIKey)
}

// OpenAIConfig converts the openai section for providers.NewOpenAIClient.
func (c *Config) OpenAIConfig() providers.OpenAIConfig {
	return providers.OpenAIConfig{
		APIKey:            c.APIKey(),
		Model:             c.OpenAI.ChatModel,
		RequestsPerMinute: c.OpenAI.RequestsPerMinute,
		MaxRetries:        c.OpenAI.MaxRetries,
		Timeout:           time.Duration(c.OpenAI.TimeoutSeconds) * time.Second,
		UploadAttempts:    c.OpenAI.UploadAttempts,
		UploadDelay:       time.Duration(c.OpenAI.UploadDelayMS) * time.Millisecond,
		BaseURL:           c.OpenAI.BaseURL,
	}
}

// SpeechConfig converts the tts section for OpenAIClient.Speech.
func (c *Config) SpeechConfig() providers.SpeechConfig {
	return providers.SpeechConfig{
		Model:        c.TTS.Model,
		Voice:        c.TTS.Voice,
		Speed:        c.TTS.Speed,
		Instructions: c.TTS.Instructions,
	}
}

// RunPoll returns the poll settings for assistant runs.
func (c *Config) RunPoll() poller.Config {
	return poller.Config{
		Kind:        "assistant_run",
		Interval:    time.Duration(c.Poll.IntervalMS) * time.Millisecond,
		MaxAttempts: c.Poll.MaxAttempts,
	}
}

// FineTuneConfig converts the finetune and dataset sections.
func (c *Config) FineTuneConfig() finetune.Config {
	return finetune.Config{
		BaseModel:      c.FineTune.BaseModel,
		Epochs:         c.FineTune.Epochs,
		Suffix:         c.FineTune.Suffix,
		ChunkSize:      c.Dataset.ChunkSize,
		MaxTextChars:   c.FineTune.MaxTextChars,
		FineTunedModel: c.FineTune.Model,
		Generation: finetune.GenerationConfig{
			Model:       c.Dataset.Model,
			Temperature: providers.Ptr(c.Dataset.Temperature),
			MaxTokens:   c.Dataset.MaxTokens,
		},
		Dataset: dataset.Config{
			TargetCount:     c.Dataset.TargetCount,
			MaxTotalCalls:   c.Dataset.MaxTotalCalls,
			PerChunkRetries: c.Dataset.PerChunkRetries,
			RetryBackoff:    time.Duration(c.Dataset.RetryBackoffMS) * time.Millisecond,
		},
		Poll: poller.Config{
			Kind:        "fine_tune",
			Interval:    time.Duration(c.FineTune.PollIntervalSeconds) * time.Second,
			MaxAttempts: c.FineTune.PollMaxAttempts,
		},
	}
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Concierge configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set this in your shell: export OPENAI_API_KEY=xxx
# Any key can be overridden with CONCIERGE_<SECTION>_<KEY>, e.g. CONCIERGE_ASSISTANT_ID

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
