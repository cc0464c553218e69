package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aicsr/concierge/internal/providers"
	"github.com/aicsr/concierge/internal/reply"
)

// Builder is the part of the API needed to set up a new assistant.
type Builder interface {
	UploadFile(ctx context.Context, data []byte, filename, purpose string) (*providers.File, error)
	CreateVectorStore(ctx context.Context, name string, fileIDs []string) (*providers.VectorStore, error)
	CreateAssistant(ctx context.Context, p providers.AssistantParams) (*providers.Assistant, error)
}

// Created describes a newly created assistant.
type Created struct {
	AssistantID   string `json:"assistant_id"`
	Name          string `json:"name"`
	FileID        string `json:"file_id"`
	VectorStoreID string `json:"vector_store_id"`
}

// CreateAssistant uploads the document at path, indexes it and creates an
// assistant that answers from it in the Answer/Emotion format.
func CreateAssistant(ctx context.Context, b Builder, name, model, path string, logger *slog.Logger) (*Created, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("assistant name is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	file, err := b.UploadFile(ctx, data, filepath.Base(path), providers.PurposeAssistants)
	if err != nil {
		return nil, err
	}

	store, err := b.CreateVectorStore(ctx, "Vector Store for "+name, []string{file.ID})
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}

	asst, err := b.CreateAssistant(ctx, providers.AssistantParams{
		Name:           name,
		Model:          model,
		Instructions:   reply.AssistantInstructions,
		VectorStoreIDs: []string{store.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("create assistant: %w", err)
	}

	logger.Info("assistant created",
		"assistant_id", asst.ID, "name", name, "file_id", file.ID, "vector_store_id", store.ID)
	return &Created{
		AssistantID:   asst.ID,
		Name:          name,
		FileID:        file.ID,
		VectorStoreID: store.ID,
	}, nil
}
