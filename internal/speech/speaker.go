// Package speech turns assistant replies into audio and recorded questions
// into text.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aicsr/concierge/internal/providers"
)

// Speaker synthesizes replies of any length by splitting them into
// request-sized segments and concatenating the audio.
type Speaker struct {
	tts      providers.TTSProvider
	stt      providers.Transcriber
	voice    string
	format   string
	maxChars int
	logger   *slog.Logger
}

// Config configures a Speaker.
type Config struct {
	TTS         providers.TTSProvider
	Transcriber providers.Transcriber
	Voice       string
	// Format must be a concatenable stream format; mp3 (default) and
	// pcm are.
	Format   string
	MaxChars int
	Logger   *slog.Logger
}

// New creates a Speaker.
func New(cfg Config) *Speaker {
	if cfg.Format == "" {
		cfg.Format = "mp3"
	}
	if cfg.MaxChars <= 0 || cfg.MaxChars > providers.MaxTTSInputChars {
		cfg.MaxChars = providers.MaxTTSInputChars
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Speaker{
		tts:      cfg.TTS,
		stt:      cfg.Transcriber,
		voice:    cfg.Voice,
		format:   cfg.Format,
		maxChars: cfg.MaxChars,
		logger:   cfg.Logger,
	}
}

// Speak returns the audio for text.
func (s *Speaker) Speak(ctx context.Context, text string) ([]byte, error) {
	if s.tts == nil {
		return nil, fmt.Errorf("no text-to-speech provider configured")
	}
	segments := Segment(text, s.maxChars)
	if len(segments) == 0 {
		return nil, fmt.Errorf("nothing to speak")
	}

	start := time.Now()
	var buf bytes.Buffer
	for i, seg := range segments {
		res, err := s.tts.Generate(ctx, &providers.TTSRequest{
			Text:   seg,
			Voice:  s.voice,
			Format: s.format,
		})
		if err != nil {
			return nil, fmt.Errorf("segment %d/%d: %w", i+1, len(segments), err)
		}
		buf.Write(res.Audio)
	}

	s.logger.Debug("speech generated",
		"provider", s.tts.Name(), "segments", len(segments), "bytes", buf.Len(), "elapsed", time.Since(start))
	return buf.Bytes(), nil
}

// Transcribe returns the text spoken in audio.
func (s *Speaker) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if s.stt == nil {
		return "", fmt.Errorf("no transcription provider configured")
	}
	text, err := s.stt.Transcribe(ctx, audio, filename)
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", filename, err)
	}
	return text, nil
}
