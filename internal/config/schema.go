package config

// Config holds concierge configuration.
// Stored at: {home}/config.yaml
type Config struct {
	OpenAI    OpenAICfg    `mapstructure:"openai" yaml:"openai"`
	Assistant AssistantCfg `mapstructure:"assistant" yaml:"assistant"`
	Poll      PollCfg      `mapstructure:"poll" yaml:"poll"`
	FineTune  FineTuneCfg  `mapstructure:"finetune" yaml:"finetune"`
	Dataset   DatasetCfg   `mapstructure:"dataset" yaml:"dataset"`
	TTS       TTSCfg       `mapstructure:"tts" yaml:"tts"`
	Server    ServerCfg    `mapstructure:"server" yaml:"server"`
	Store     StoreCfg     `mapstructure:"store" yaml:"store"`
}

// OpenAICfg configures the OpenAI client.
type OpenAICfg struct {
	APIKey            string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	BaseURL           string `mapstructure:"base_url" yaml:"base_url"`
	ChatModel         string `mapstructure:"chat_model" yaml:"chat_model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	MaxRetries        int    `mapstructure:"max_retries" yaml:"max_retries"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	UploadAttempts    int    `mapstructure:"upload_attempts" yaml:"upload_attempts"`
	UploadDelayMS     int    `mapstructure:"upload_delay_ms" yaml:"upload_delay_ms"`
}

// AssistantCfg selects and describes the answering assistant.
type AssistantCfg struct {
	ID    string `mapstructure:"id" yaml:"id"`
	Name  string `mapstructure:"name" yaml:"name"`
	Model string `mapstructure:"model" yaml:"model"`
}

// PollCfg controls assistant run polling.
type PollCfg struct {
	IntervalMS  int `mapstructure:"interval_ms" yaml:"interval_ms"`
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// FineTuneCfg configures fine-tuning jobs.
type FineTuneCfg struct {
	BaseModel           string `mapstructure:"base_model" yaml:"base_model"`
	Model               string `mapstructure:"model" yaml:"model"`
	Epochs              int    `mapstructure:"epochs" yaml:"epochs"`
	Suffix              string `mapstructure:"suffix" yaml:"suffix"`
	MaxTextChars        int    `mapstructure:"max_text_chars" yaml:"max_text_chars"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds" yaml:"poll_interval_seconds"`
	PollMaxAttempts     int    `mapstructure:"poll_max_attempts" yaml:"poll_max_attempts"`
}

// DatasetCfg configures Q&A dataset generation.
type DatasetCfg struct {
	ChunkSize       int     `mapstructure:"chunk_size" yaml:"chunk_size"`
	TargetCount     int     `mapstructure:"target_count" yaml:"target_count"`
	MaxTotalCalls   int     `mapstructure:"max_total_calls" yaml:"max_total_calls"`
	PerChunkRetries int     `mapstructure:"per_chunk_retries" yaml:"per_chunk_retries"`
	RetryBackoffMS  int     `mapstructure:"retry_backoff_ms" yaml:"retry_backoff_ms"`
	Model           string  `mapstructure:"model" yaml:"model"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// TTSCfg configures speech synthesis.
type TTSCfg struct {
	Model        string  `mapstructure:"model" yaml:"model"`
	Voice        string  `mapstructure:"voice" yaml:"voice"`
	Format       string  `mapstructure:"format" yaml:"format"`
	Speed        float64 `mapstructure:"speed" yaml:"speed"`
	Instructions string  `mapstructure:"instructions" yaml:"instructions"`
	MaxChars     int     `mapstructure:"max_chars" yaml:"max_chars"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// StoreCfg locates the job database.
type StoreCfg struct {
	Path string `mapstructure:"path" yaml:"path"`
}
