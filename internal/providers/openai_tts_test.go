package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestSpeechGenerate(t *testing.T) {
	var payload map[string]any
	client, _ := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/audio/speech" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		payload = decodeBody(t, r)
		_, _ = w.Write([]byte("mp3-bytes"))
	})

	tts := client.Speech(SpeechConfig{
		Model:        "gpt-4o-mini-tts",
		Voice:        "nova",
		Instructions: "Speak warmly, like a host greeting guests.",
	})
	result, err := tts.Generate(context.Background(), &TTSRequest{
		Text:   "Welcome! Tonight's special is grilled sea bass.",
		Format: "WAV",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if string(result.Audio) != "mp3-bytes" {
		t.Fatalf("unexpected audio bytes: %q", result.Audio)
	}
	if result.Format != "wav" {
		t.Fatalf("expected wav, got %q", result.Format)
	}
	if got, _ := payload["response_format"].(string); got != "wav" {
		t.Fatalf("expected response_format wav, got %q", got)
	}
	if got, _ := payload["voice"].(string); got != "nova" {
		t.Fatalf("expected voice nova, got %q", got)
	}
	if got, _ := payload["instructions"].(string); got != "Speak warmly, like a host greeting guests." {
		t.Fatalf("expected instructions, got %q", got)
	}
	if client.Limiter().Status().TotalConsumed != 1 {
		t.Fatal("speech must go through the shared rate limiter")
	}
}

func TestSpeechSkipsInstructionsForTTS1(t *testing.T) {
	var payload map[string]any
	client, _ := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte("audio"))
	})

	audio, err := client.Speech(SpeechConfig{Instructions: "ignored"}).Speak(context.Background(), "Hello.")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if string(audio) != "audio" {
		t.Fatalf("unexpected audio %q", audio)
	}
	if _, ok := payload["instructions"]; ok {
		t.Fatal("tts-1 must not receive instructions")
	}
	if got, _ := payload["voice"].(string); got != DefaultSpeechVoice {
		t.Fatalf("expected default voice, got %q", got)
	}
	if got, _ := payload["model"].(string); got != DefaultSpeechModel {
		t.Fatalf("expected default model, got %q", got)
	}
}

func TestSpeechRateLimit(t *testing.T) {
	client, _ := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit","type":"rate_limit_error","param":"","code":"rate_limit"}}`))
	})

	_, err := client.Speech(SpeechConfig{}).Generate(context.Background(), &TTSRequest{Text: "Hello world."})
	rle, ok := IsRateLimitError(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rle.RetryAfter != 3*time.Second {
		t.Fatalf("expected RetryAfter=3s, got %v", rle.RetryAfter)
	}
	if client.Limiter().Status().Last429Time.IsZero() {
		t.Fatal("429 must pause the shared limiter")
	}
}

func TestSpeechValidation(t *testing.T) {
	tts := NewOpenAIClient(OpenAIConfig{APIKey: "test-key"}).Speech(SpeechConfig{})

	_, err := tts.Generate(context.Background(), &TTSRequest{Text: "  "})
	if err == nil || !strings.Contains(err.Error(), "text is required") {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = tts.Generate(context.Background(), &TTSRequest{Text: strings.Repeat("a", MaxTTSInputChars+1)})
	if err == nil || !strings.Contains(err.Error(), "limit is") {
		t.Fatalf("expected length error, got %v", err)
	}
}
