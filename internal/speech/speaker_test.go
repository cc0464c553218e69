package speech

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aicsr/concierge/internal/providers"
)

type recordingTTS struct {
	requests []providers.TTSRequest
	fail     bool
}

func (r *recordingTTS) Name() string { return "recording" }

func (r *recordingTTS) Generate(ctx context.Context, req *providers.TTSRequest) (*providers.TTSResult, error) {
	if r.fail {
		return nil, errors.New("tts down")
	}
	r.requests = append(r.requests, *req)
	return &providers.TTSResult{Audio: []byte("[" + req.Text + "]"), Format: req.Format}, nil
}

type stubTranscriber struct{ text string }

func (s stubTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	return s.text, nil
}

func TestSpeakConcatenatesSegments(t *testing.T) {
	tts := &recordingTTS{}
	s := New(Config{TTS: tts, Voice: "nova", MaxChars: 16})

	audio, err := s.Speak(context.Background(), "Welcome in. Table for two?")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if string(audio) != "[Welcome in.][Table for two?]" {
		t.Fatalf("unexpected audio %q", audio)
	}
	for _, req := range tts.requests {
		if req.Voice != "nova" || req.Format != "mp3" {
			t.Fatalf("unexpected request %+v", req)
		}
	}
}

func TestSpeakErrors(t *testing.T) {
	if _, err := New(Config{}).Speak(context.Background(), "hi"); err == nil {
		t.Fatal("expected error without provider")
	}
	if _, err := New(Config{TTS: &recordingTTS{}}).Speak(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty text")
	}
	_, err := New(Config{TTS: &recordingTTS{fail: true}}).Speak(context.Background(), "Hello.")
	if err == nil || !strings.Contains(err.Error(), "segment 1/1") {
		t.Fatalf("expected segment error, got %v", err)
	}
}

func TestTranscribe(t *testing.T) {
	s := New(Config{Transcriber: stubTranscriber{text: "Is the soup vegan?"}})
	text, err := s.Transcribe(context.Background(), strings.NewReader("audio"), "q.webm")
	if err != nil || text != "Is the soup vegan?" {
		t.Fatalf("Transcribe() = %q, %v", text, err)
	}
}
