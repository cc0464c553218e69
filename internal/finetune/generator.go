package finetune

import (
	"context"

	"github.com/aicsr/concierge/internal/dataset"
	"github.com/aicsr/concierge/internal/providers"
)

const (
	DefaultGenerationModel       = "gpt-3.5-turbo"
	DefaultGenerationTemperature = 0.4
	DefaultGenerationMaxTokens   = 4096
)

// GenerationConfig tunes the dataset generation calls.
type GenerationConfig struct {
	Model       string
	Temperature *float64
	MaxTokens   int
}

// ChatGenerator asks a chat model for Q&A pairs about one chunk of text.
type ChatGenerator struct {
	llm providers.LLMClient
	cfg GenerationConfig
}

// NewChatGenerator creates a ChatGenerator with defaults for unset fields.
func NewChatGenerator(llm providers.LLMClient, cfg GenerationConfig) *ChatGenerator {
	if cfg.Model == "" {
		cfg.Model = DefaultGenerationModel
	}
	if cfg.Temperature == nil {
		cfg.Temperature = providers.Ptr(DefaultGenerationTemperature)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultGenerationMaxTokens
	}
	return &ChatGenerator{llm: llm, cfg: cfg}
}

// GenerateOnce makes one chat call and returns the raw completion text. The
// call is sent once; the dataset loop owns retries and the call budget.
func (g *ChatGenerator) GenerateOnce(ctx context.Context, chunk string) (string, error) {
	res, err := g.llm.Chat(ctx, &providers.ChatRequest{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
		NoRetry:     true,
		Messages: []providers.Message{
			{Role: "system", Content: dataset.SystemPrompt},
			{Role: "user", Content: chunk},
		},
	})
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

var _ dataset.Generator = (*ChatGenerator)(nil)
