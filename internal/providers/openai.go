package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/aicsr/concierge/internal/metrics"
)

const (
	OpenAIName = "openai"

	DefaultChatModel      = "gpt-3.5-turbo"
	DefaultAssistantModel = "gpt-4o"
	DefaultUploadAttempts = 3
	DefaultUploadDelay    = time.Second
)

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey string
	Model  string // default chat model

	// RequestsPerMinute feeds the shared token bucket (default 60).
	RequestsPerMinute int
	// MaxRetries is the SDK transport retry count. Negative disables it.
	MaxRetries int
	Timeout    time.Duration

	// Upload retry on 5xx: UploadAttempts tries, UploadDelay doubling each time.
	UploadAttempts int
	UploadDelay    time.Duration

	BaseURL    string       // Optional (tests)
	HTTPClient *http.Client // Optional (tests)
	Logger     *slog.Logger
	// Timer replaces the wall clock between upload retries. Used by tests.
	Timer retry.Timer
}

// OpenAIClient wraps the official SDK for chat, files, audio, assistants and
// fine-tuning. The Assistants and fine-tuning endpoints go through the SDK's
// generic request methods with local wire types.
type OpenAIClient struct {
	client         openai.Client
	model          string
	limiter        *RateLimiter
	uploadAttempts int
	uploadDelay    time.Duration
	logger         *slog.Logger
	timer          retry.Timer
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	} else if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.UploadAttempts <= 0 {
		cfg.UploadAttempts = DefaultUploadAttempts
	}
	if cfg.UploadDelay <= 0 {
		cfg.UploadDelay = DefaultUploadDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client:         openai.NewClient(opts...),
		model:          cfg.Model,
		limiter:        NewRateLimiter(cfg.RequestsPerMinute),
		uploadAttempts: cfg.UploadAttempts,
		uploadDelay:    cfg.UploadDelay,
		logger:         cfg.Logger,
		timer:          cfg.Timer,
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Model returns the configured default chat model.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Limiter exposes the shared rate limiter.
func (c *OpenAIClient) Limiter() *RateLimiter {
	return c.limiter
}

// HealthCheck verifies the API is reachable and the key is valid.
func (c *OpenAIClient) HealthCheck(ctx context.Context) error {
	return c.call(ctx, "models.list", func() error {
		page, err := c.client.Models.List(ctx)
		if err != nil {
			return err
		}
		if page == nil {
			return fmt.Errorf("models list returned nil response")
		}
		return nil
	})
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("chat request needs at least one message")
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Seed != nil {
		params.Seed = openai.Int(*req.Seed)
	}

	var opts []option.RequestOption
	if req.NoRetry {
		opts = append(opts, option.WithMaxRetries(0))
	}

	start := time.Now()
	var completion *openai.ChatCompletion
	err := c.call(ctx, "chat", func() error {
		var err error
		completion, err = c.client.Chat.Completions.New(ctx, params, opts...)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	metrics.ObserveTokens(OpenAIName, completion.Model, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)

	return &ChatResult{
		Content:          completion.Choices[0].Message.Content,
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:      int(completion.Usage.TotalTokens),
		ExecutionTime:    time.Since(start),
		Provider:         OpenAIName,
		ModelUsed:        completion.Model,
		RequestID:        completion.ID,
	}, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// call waits for a rate limit token, runs fn and maps its error. Every
// request the client makes goes through here.
func (c *OpenAIClient) call(ctx context.Context, operation string, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	err := fn()
	metrics.ObserveAICall(OpenAIName, operation, time.Since(start), err == nil)
	if err == nil {
		return nil
	}

	err = mapOpenAIError(operation, err)
	if rle, ok := IsRateLimitError(err); ok {
		c.limiter.Record429(rle.RetryAfter)
	}
	c.logger.Debug("openai call failed", "operation", operation, "error", err)
	return err
}

var _ LLMClient = (*OpenAIClient)(nil)
var _ Transcriber = (*OpenAIClient)(nil)
