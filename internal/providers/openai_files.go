package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// File purposes accepted by UploadFile.
const (
	PurposeFineTune   = "fine-tune"
	PurposeAssistants = "assistants"
)

// File is an uploaded file.
type File struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Purpose  string `json:"purpose"`
	Bytes    int64  `json:"bytes"`
}

// UploadFile uploads data under filename. Server errors (5xx, including
// gateway timeouts) are retried with a doubling delay; anything else fails
// at once.
func (c *OpenAIClient) UploadFile(ctx context.Context, data []byte, filename, purpose string) (*File, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("upload %s: empty file", filename)
	}
	if purpose == "" {
		purpose = PurposeAssistants
	}
	contentType := contentTypeFor(filename)

	var obj *openai.FileObject
	attempt := 0
	upload := func() error {
		attempt++
		return c.call(ctx, "files.create", func() error {
			var err error
			obj, err = c.client.Files.New(ctx, openai.FileNewParams{
				File:    openai.File(bytes.NewReader(data), filename, contentType),
				Purpose: openai.FilePurpose(purpose),
			}, option.WithMaxRetries(0))
			return err
		})
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(c.uploadAttempts)),
		retry.Delay(c.uploadDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return StatusCode(err) >= 500
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("file upload failed, retrying",
				"filename", filename, "attempt", n+1, "max_attempts", c.uploadAttempts, "error", err)
		}),
	}
	if c.timer != nil {
		opts = append(opts, retry.WithTimer(c.timer))
	}

	if err := retry.Do(upload, opts...); err != nil {
		return nil, fmt.Errorf("upload %s after %d attempt(s): %w", filename, attempt, err)
	}

	c.logger.Info("file uploaded", "filename", filename, "file_id", obj.ID, "purpose", purpose, "bytes", len(data))
	return &File{
		ID:       obj.ID,
		Filename: obj.Filename,
		Purpose:  purpose,
		Bytes:    obj.Bytes,
	}, nil
}

// Transcribe converts speech to text with Whisper.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var text string
	err := c.call(ctx, "audio.transcriptions", func() error {
		res, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
			File:  openai.File(audio, filename, contentTypeFor(filename)),
			Model: openai.AudioModelWhisper1,
		})
		if err != nil {
			return err
		}
		text = res.Text
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func contentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jsonl":
		return "application/jsonl"
	case ".pdf":
		return "application/pdf"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
