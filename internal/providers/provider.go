package providers

import (
	"context"
	"io"
	"time"
)

// LLMClient is the chat completion surface the rest of the module depends on.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "openai").
	Name() string
}

// TTSProvider converts text to audio.
type TTSProvider interface {
	Name() string
	Generate(ctx context.Context, req *TTSRequest) (*TTSResult, error)
}

// Transcriber converts recorded speech to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	// Required
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters. Nil leaves the server default in place.
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`

	// NoRetry sends the request exactly once, for callers that count or
	// retry their own calls.
	NoRetry bool `json:"-"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	Content string `json:"content"`

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	RequestID string `json:"request_id"`
}

// TTSRequest is a request to synthesize speech.
type TTSRequest struct {
	Text         string
	Voice        string // Provider default if empty
	Format       string // "mp3" (default), "opus", "aac", "flac", "wav", "pcm"
	Instructions string // Only honoured by instruction-capable models
}

// TTSResult is the response from a TTS provider.
type TTSResult struct {
	Audio         []byte        `json:"-"`
	Format        string        `json:"format"`
	CharCount     int           `json:"char_count"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// Ptr returns a pointer to v. Used for optional request fields.
func Ptr[T any](v T) *T {
	return &v
}
