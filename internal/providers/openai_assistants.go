package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3/option"
)

// The Assistants endpoints require the v2 beta header on every call.
var assistantsBeta = option.WithHeader("OpenAI-Beta", "assistants=v2")

// Thread is a conversation container on the Assistants API.
type Thread struct {
	ID string `json:"id"`
}

// Run is one assistant turn over a thread.
type Run struct {
	ID          string    `json:"id"`
	ThreadID    string    `json:"thread_id"`
	AssistantID string    `json:"assistant_id"`
	Status      string    `json:"status"`
	LastError   *RunError `json:"last_error,omitempty"`
}

// RunError describes why a run failed.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ThreadMessage is a message stored on a thread.
type ThreadMessage struct {
	ID        string           `json:"id"`
	Role      string           `json:"role"`
	RunID     string           `json:"run_id,omitempty"`
	CreatedAt int64            `json:"created_at"`
	Content   []MessageContent `json:"content"`
}

// MessageContent is one content part of a thread message.
type MessageContent struct {
	Type string       `json:"type"`
	Text *MessageText `json:"text,omitempty"`
}

// MessageText is the payload of a text content part.
type MessageText struct {
	Value string `json:"value"`
}

// Text joins the text parts of the message.
func (m ThreadMessage) Text() string {
	var parts []string
	for _, c := range m.Content {
		if c.Type == "text" && c.Text != nil {
			parts = append(parts, c.Text.Value)
		}
	}
	return strings.Join(parts, "\n")
}

// VectorStore indexes uploaded files for the file_search tool.
type VectorStore struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Assistant is a configured assistant.
type Assistant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// AssistantParams configures CreateAssistant.
type AssistantParams struct {
	Name           string
	Model          string
	Instructions   string
	VectorStoreIDs []string
}

type messageList struct {
	Data []ThreadMessage `json:"data"`
}

// CreateThread starts an empty thread.
func (c *OpenAIClient) CreateThread(ctx context.Context) (*Thread, error) {
	var thread Thread
	err := c.call(ctx, "threads.create", func() error {
		return c.client.Post(ctx, "threads", map[string]any{}, &thread, assistantsBeta)
	})
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// AddMessage posts a user message to a thread.
func (c *OpenAIClient) AddMessage(ctx context.Context, threadID, content string) (*ThreadMessage, error) {
	body := map[string]any{"role": "user", "content": content}
	var msg ThreadMessage
	err := c.call(ctx, "threads.messages.create", func() error {
		return c.client.Post(ctx, fmt.Sprintf("threads/%s/messages", threadID), body, &msg, assistantsBeta)
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateRun starts the assistant on a thread. The returned run carries the
// initial status.
func (c *OpenAIClient) CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	body := map[string]any{"assistant_id": assistantID}
	var run Run
	err := c.call(ctx, "threads.runs.create", func() error {
		return c.client.Post(ctx, fmt.Sprintf("threads/%s/runs", threadID), body, &run, assistantsBeta)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun fetches the current state of a run. The request is sent once: a
// failed status check ends the poll.
func (c *OpenAIClient) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	err := c.call(ctx, "threads.runs.get", func() error {
		return c.client.Get(ctx, fmt.Sprintf("threads/%s/runs/%s", threadID, runID), nil, &run,
			assistantsBeta, option.WithMaxRetries(0))
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListMessages returns up to limit messages of a thread, newest first.
func (c *OpenAIClient) ListMessages(ctx context.Context, threadID string, limit int) ([]ThreadMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	var list messageList
	err := c.call(ctx, "threads.messages.list", func() error {
		return c.client.Get(ctx, fmt.Sprintf("threads/%s/messages", threadID), nil, &list,
			assistantsBeta,
			option.WithQuery("order", "desc"),
			option.WithQuery("limit", strconv.Itoa(limit)),
		)
	})
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}

// CreateVectorStore indexes already uploaded files.
func (c *OpenAIClient) CreateVectorStore(ctx context.Context, name string, fileIDs []string) (*VectorStore, error) {
	body := map[string]any{"name": name, "file_ids": fileIDs}
	var store VectorStore
	err := c.call(ctx, "vector_stores.create", func() error {
		return c.client.Post(ctx, "vector_stores", body, &store, assistantsBeta)
	})
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// CreateAssistant creates an assistant with file_search over the given
// vector stores.
func (c *OpenAIClient) CreateAssistant(ctx context.Context, p AssistantParams) (*Assistant, error) {
	model := p.Model
	if model == "" {
		model = DefaultAssistantModel
	}
	body := map[string]any{
		"name":         p.Name,
		"model":        model,
		"instructions": p.Instructions,
		"tools":        []map[string]string{{"type": "file_search"}},
	}
	if len(p.VectorStoreIDs) > 0 {
		body["tool_resources"] = map[string]any{
			"file_search": map[string]any{"vector_store_ids": p.VectorStoreIDs},
		}
	}

	var asst Assistant
	err := c.call(ctx, "assistants.create", func() error {
		return c.client.Post(ctx, "assistants", body, &asst, assistantsBeta)
	})
	if err != nil {
		return nil, err
	}
	return &asst, nil
}
