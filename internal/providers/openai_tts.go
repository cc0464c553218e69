package providers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
)

const (
	OpenAITTSName      = "openai-tts"
	DefaultSpeechModel = "tts-1"
	DefaultSpeechVoice = "alloy"

	// MaxTTSInputChars is the API's per-request input limit.
	MaxTTSInputChars = 4096
)

// SpeechConfig selects the voice used for spoken replies.
type SpeechConfig struct {
	Model        string  // "tts-1" (default), "tts-1-hd", "gpt-4o-mini-tts"
	Voice        string  // "alloy" (default)
	Speed        float64 // 0.25-4.0, default 1
	Instructions string  // only gpt-4o-mini-tts honours it
}

// SpeechClient is a TTSProvider on top of an OpenAIClient. It shares the
// client's rate limiter, metrics and error mapping.
type SpeechClient struct {
	api *OpenAIClient
	cfg SpeechConfig
}

// Speech returns a TTS provider that speaks with cfg.
func (c *OpenAIClient) Speech(cfg SpeechConfig) *SpeechClient {
	if cfg.Model == "" {
		cfg.Model = DefaultSpeechModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultSpeechVoice
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}
	return &SpeechClient{api: c, cfg: cfg}
}

// Name returns the provider identifier.
func (s *SpeechClient) Name() string {
	return OpenAITTSName
}

// Generate converts text to audio. Text longer than MaxTTSInputChars is
// rejected; callers split it first.
func (s *SpeechClient) Generate(ctx context.Context, req *TTSRequest) (*TTSResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	if n := len([]rune(text)); n > MaxTTSInputChars {
		return nil, fmt.Errorf("text has %d characters, limit is %d", n, MaxTTSInputChars)
	}

	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		voice = s.cfg.Voice
	}
	format := speechFormat(req.Format)

	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.cfg.Model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormat(format),
		Speed:          openai.Float(s.cfg.Speed),
	}
	instructions := strings.TrimSpace(req.Instructions)
	if instructions == "" {
		instructions = strings.TrimSpace(s.cfg.Instructions)
	}
	if instructions != "" && strings.HasPrefix(strings.ToLower(s.cfg.Model), "gpt-4o-mini-tts") {
		params.Instructions = openai.String(instructions)
	}

	start := time.Now()
	var audio []byte
	err := s.api.call(ctx, "audio.speech", func() error {
		resp, err := s.api.client.Audio.Speech.New(ctx, params)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		audio, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &TTSResult{
		Audio:         audio,
		Format:        format,
		CharCount:     len([]rune(text)),
		ExecutionTime: time.Since(start),
	}, nil
}

// Speak synthesizes text with the configured voice as MP3.
func (s *SpeechClient) Speak(ctx context.Context, text string) ([]byte, error) {
	res, err := s.Generate(ctx, &TTSRequest{Text: text})
	if err != nil {
		return nil, err
	}
	return res.Audio, nil
}

// speechFormat maps a requested format to one the API accepts, defaulting
// to mp3.
func speechFormat(format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "opus", "aac", "flac", "wav", "pcm":
		return f
	default:
		return "mp3"
	}
}

var _ TTSProvider = (*SpeechClient)(nil)
