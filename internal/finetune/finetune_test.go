package finetune

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aicsr/concierge/internal/dataset"
	"github.com/aicsr/concierge/internal/poller"
	"github.com/aicsr/concierge/internal/providers"
	"github.com/aicsr/concierge/internal/reply"
	"github.com/aicsr/concierge/internal/store"
)

type fakeTimer struct {
	waits []time.Duration
}

func (f *fakeTimer) After(d time.Duration) <-chan time.Time {
	f.waits = append(f.waits, d)
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// fakeClient answers chat through the embedded mock and replays fine-tune
// job statuses for GetFineTuneJob (repeating the last).
type fakeClient struct {
	*providers.MockClient

	statuses  []string
	uploadErr error
	jobErr    error

	uploads []uploaded
	params  []providers.FineTuneParams
	gets    int
}

type uploaded struct {
	data     string
	filename string
	purpose  string
}

func (f *fakeClient) UploadFile(ctx context.Context, data []byte, filename, purpose string) (*providers.File, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads = append(f.uploads, uploaded{string(data), filename, purpose})
	return &providers.File{ID: "file-1", Filename: filename, Purpose: purpose}, nil
}

func (f *fakeClient) CreateFineTuneJob(ctx context.Context, p providers.FineTuneParams) (*providers.FineTuneJob, error) {
	if f.jobErr != nil {
		return nil, f.jobErr
	}
	f.params = append(f.params, p)
	return &providers.FineTuneJob{ID: "ftjob-1", Model: p.Model, Status: "validating_files", TrainingFile: p.TrainingFile}, nil
}

func (f *fakeClient) GetFineTuneJob(ctx context.Context, jobID string) (*providers.FineTuneJob, error) {
	i := f.gets
	f.gets++
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	job := &providers.FineTuneJob{ID: jobID, Status: f.statuses[i]}
	switch job.Status {
	case "succeeded":
		job.FineTunedModel = "ft:gpt-3.5-turbo:acme::abc123"
	case "failed":
		job.Error = &providers.FineTuneError{Message: "invalid training file"}
	}
	return job, nil
}

func qa(i int) string {
	return fmt.Sprintf(`{"messages":[{"role":"user","content":"Is dish %d vegan?"},{"role":"assistant","content":"Yes, dish %d is vegan."}]}`, i, i)
}

func newTestService(t *testing.T, client *fakeClient, jobs *store.Store) (*Service, *fakeTimer) {
	t.Helper()
	timer := &fakeTimer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(client, jobs, Config{
		Logger:  logger,
		Dataset: dataset.Config{Timer: timer, TargetCount: 3},
		Poll:    poller.Config{Interval: time.Second, MaxAttempts: 5, Timer: timer},
	})
	return svc, timer
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestJobStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want poller.Status
	}{
		{"succeeded", poller.StatusCompleted},
		{"failed", poller.StatusFailed},
		{"cancelled", poller.StatusFailed},
		{"validating_files", poller.StatusPending},
		{"queued", poller.StatusPending},
		{"running", poller.StatusPending},
		{"", poller.StatusPending},
	}
	for _, tt := range tests {
		if got := JobStatus(tt.raw); got != tt.want {
			t.Errorf("JobStatus(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestPrepareTextRejectsLargeText(t *testing.T) {
	client := &fakeClient{MockClient: providers.NewMockClient()}
	svc, _ := newTestService(t, client, nil)

	_, err := svc.PrepareText(context.Background(), strings.Repeat("a", DefaultMaxTextChars+1))
	if !errors.Is(err, ErrTextTooLarge) {
		t.Fatalf("expected ErrTextTooLarge, got %v", err)
	}
	if client.RequestCount() != 0 {
		t.Fatalf("no chat call expected, got %d", client.RequestCount())
	}
}

func TestPrepareTextGeneratesDataset(t *testing.T) {
	client := &fakeClient{MockClient: providers.NewMockClient()}
	n := 0
	client.Respond = func(req *providers.ChatRequest) (string, error) {
		n++
		return qa(n) + "\nnot json\n", nil
	}
	svc, _ := newTestService(t, client, nil)

	res, err := svc.PrepareText(context.Background(), "The menu has three vegan dishes.")
	if err != nil {
		t.Fatalf("PrepareText: %v", err)
	}
	if res.Unique != 3 || res.Calls != 3 {
		t.Fatalf("expected 3 unique entries from 3 calls, got %+v", res)
	}

	req := client.Requests()[0]
	if req.Model != DefaultGenerationModel || req.MaxTokens != DefaultGenerationMaxTokens {
		t.Fatalf("unexpected generation request: model=%s max_tokens=%d", req.Model, req.MaxTokens)
	}
	if req.Temperature == nil || *req.Temperature != DefaultGenerationTemperature {
		t.Fatalf("expected temperature %v", DefaultGenerationTemperature)
	}
	for i, r := range client.Requests() {
		if !r.NoRetry {
			t.Fatalf("generation call %d may be retried by the transport", i)
		}
	}
	if len(req.Messages) != 2 || req.Messages[0].Content != dataset.SystemPrompt || req.Messages[1].Content != "The menu has three vegan dishes." {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
}

func TestSubmitRecordsJob(t *testing.T) {
	client := &fakeClient{MockClient: providers.NewMockClient()}
	jobs := newStore(t)
	svc, _ := newTestService(t, client, jobs)

	res := &dataset.Result{JSONL: qa(1) + "\n", Unique: 1}
	job, err := svc.Submit(context.Background(), res, "menu.pdf")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(client.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(client.uploads))
	}
	up := client.uploads[0]
	if up.purpose != providers.PurposeFineTune || up.data != res.JSONL {
		t.Fatalf("unexpected upload: %+v", up)
	}
	if !strings.HasPrefix(up.filename, "fine_tune_dataset-") || !strings.HasSuffix(up.filename, ".jsonl") {
		t.Fatalf("unexpected filename %q", up.filename)
	}
	p := client.params[0]
	if p.TrainingFile != "file-1" || p.Model != DefaultBaseModel || p.Epochs != DefaultEpochs {
		t.Fatalf("unexpected job params: %+v", p)
	}

	stored, err := jobs.Get(context.Background(), job.JobID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != string(poller.StatusPending) || stored.RemoteStatus != "validating_files" {
		t.Fatalf("unexpected stored status: %+v", stored)
	}
	if stored.Source != "menu.pdf" || stored.Entries != 1 {
		t.Fatalf("unexpected stored job: %+v", stored)
	}
}

func TestSubmitUploadFailure(t *testing.T) {
	client := &fakeClient{MockClient: providers.NewMockClient(), uploadErr: errors.New("504 gateway timeout")}
	svc, _ := newTestService(t, client, nil)

	_, err := svc.Submit(context.Background(), &dataset.Result{JSONL: qa(1) + "\n", Unique: 1}, "menu.pdf")
	if err == nil || !strings.Contains(err.Error(), "failed to upload JSONL") {
		t.Fatalf("expected upload error, got %v", err)
	}
	if len(client.params) != 0 {
		t.Fatal("no job must be created after a failed upload")
	}
}

func TestCheckOnce(t *testing.T) {
	client := &fakeClient{MockClient: providers.NewMockClient(), statuses: []string{"running"}}
	svc, timer := newTestService(t, client, nil)

	out := svc.Check(context.Background(), "ftjob-1")
	if out.Status != poller.StatusPending || out.Polls != 1 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if client.gets != 1 || len(timer.waits) != 0 {
		t.Fatalf("expected one call and no waits, got %d and %v", client.gets, timer.waits)
	}
}

func TestWaitCompletesAndRecords(t *testing.T) {
	client := &fakeClient{MockClient: providers.NewMockClient()}
	jobs := newStore(t)
	svc, timer := newTestService(t, client, jobs)

	job, err := svc.Submit(context.Background(), &dataset.Result{JSONL: qa(1) + "\n", Unique: 1}, "menu.pdf")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	client.statuses = []string{"queued", "running", "succeeded"}

	out := svc.Wait(context.Background(), job.JobID)
	if out.Status != poller.StatusCompleted {
		t.Fatalf("expected completed, got %+v", out)
	}
	if out.Payload != "ft:gpt-3.5-turbo:acme::abc123" {
		t.Fatalf("unexpected payload %v", out.Payload)
	}
	if len(timer.waits) != 2 {
		t.Fatalf("expected 2 waits, got %v", timer.waits)
	}

	stored, err := jobs.Get(context.Background(), job.JobID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != string(poller.StatusCompleted) || stored.FineTunedModel != "ft:gpt-3.5-turbo:acme::abc123" {
		t.Fatalf("unexpected stored job: %+v", stored)
	}

	model, err := svc.Model(context.Background())
	if err != nil || model != stored.FineTunedModel {
		t.Fatalf("Model() = %q, %v", model, err)
	}
}

func TestWaitFailure(t *testing.T) {
	client := &fakeClient{MockClient: providers.NewMockClient(), statuses: []string{"running", "failed"}}
	svc, _ := newTestService(t, client, nil)

	out := svc.Wait(context.Background(), "ftjob-1")
	if out.Status != poller.StatusFailed {
		t.Fatalf("expected failed, got %s", out.Status)
	}
	if out.Detail != "fine-tuning failed: invalid training file" {
		t.Fatalf("unexpected detail %q", out.Detail)
	}
}

func TestWaitTimeout(t *testing.T) {
	client := &fakeClient{MockClient: providers.NewMockClient(), statuses: []string{"running"}}
	svc, _ := newTestService(t, client, nil)

	out := svc.Wait(context.Background(), "ftjob-1")
	if out.Status != poller.StatusTimeout {
		t.Fatalf("expected timeout, got %s", out.Status)
	}
	if client.gets != 6 {
		t.Fatalf("expected 6 status calls, got %d", client.gets)
	}
}

func TestChat(t *testing.T) {
	client := &fakeClient{MockClient: providers.NewMockClient()}
	client.ResponseText = "Answer: We open at 9am.\nEmotion: happy"
	timer := &fakeTimer{}
	svc := New(client, nil, Config{
		FineTunedModel: "ft:model",
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Dataset:        dataset.Config{Timer: timer},
	})

	got, err := svc.Chat(context.Background(), []providers.Message{{Role: "user", Content: "When do you open?"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.Answer != "We open at 9am." || got.Emotion != reply.Happy {
		t.Fatalf("unexpected reply %+v", got)
	}

	req := client.Requests()[0]
	if req.Model != "ft:model" {
		t.Fatalf("unexpected model %q", req.Model)
	}
	if req.Messages[0].Role != "system" || req.Messages[0].Content != reply.FineTunedSystemPrompt {
		t.Fatalf("system prompt not prepended: %+v", req.Messages[0])
	}
	if req.Temperature == nil || *req.Temperature != 0 || req.Seed == nil || *req.Seed != 1 {
		t.Fatal("expected temperature 0 and seed 1")
	}
}

func TestChatAnswerWithoutEmotion(t *testing.T) {
	client := &fakeClient{MockClient: providers.NewMockClient()}
	client.ResponseText = "Answer: Yes, we have a terrace.\nThanks for asking!"
	svc := New(client, nil, Config{FineTunedModel: "ft:model", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	got, err := svc.Chat(context.Background(), []providers.Message{{Role: "user", Content: "Can we sit outside?"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.Answer != "Yes, we have a terrace." || got.Emotion != reply.Happy {
		t.Fatalf("unexpected reply %+v", got)
	}
}

func TestChatFallback(t *testing.T) {
	client := &fakeClient{MockClient: providers.NewMockClient()}
	client.ShouldFail = true
	svc := New(client, nil, Config{FineTunedModel: "ft:model", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	got, err := svc.Chat(context.Background(), []providers.Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected the error to be returned with the fallback")
	}
	if got.Answer != ChatFallback || got.Emotion != reply.Neutral {
		t.Fatalf("unexpected fallback %+v", got)
	}
}

func TestChatWithoutModel(t *testing.T) {
	client := &fakeClient{MockClient: providers.NewMockClient()}
	svc := New(client, nil, Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	got, err := svc.Chat(context.Background(), []providers.Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel, got %v", err)
	}
	if got.Answer != ChatFallback || client.RequestCount() != 0 {
		t.Fatalf("unexpected reply %+v after %d calls", got, client.RequestCount())
	}
}
