package config

import (
	"strings"
	"testing"
)

func TestDefaultEntries(t *testing.T) {
	entries := DefaultEntries()
	if len(entries) == 0 {
		t.Fatal("DefaultEntries() returned empty slice")
	}

	requiredKeys := []string{
		"openai.api_key",
		"assistant.id",
		"poll.interval_ms",
		"poll.max_attempts",
		"finetune.base_model",
		"finetune.epochs",
		"dataset.chunk_size",
		"dataset.target_count",
		"dataset.max_total_calls",
		"tts.voice",
		"server.port",
		"store.path",
	}

	keys := make(map[string]bool)
	for _, e := range entries {
		if keys[e.Key] {
			t.Errorf("duplicate key %s", e.Key)
		}
		keys[e.Key] = true
		if e.Description == "" {
			t.Errorf("key %s has no description", e.Key)
		}
		if !strings.Contains(e.Key, ".") {
			t.Errorf("key %s has no section", e.Key)
		}
	}
	for _, key := range requiredKeys {
		if !keys[key] {
			t.Errorf("DefaultEntries() missing required key: %s", key)
		}
	}
}

func TestGetDefault(t *testing.T) {
	t.Run("existing_key", func(t *testing.T) {
		entry := GetDefault("finetune.epochs")
		if entry == nil {
			t.Fatal("GetDefault() returned nil for existing key")
		}
		if entry.Value != 10 {
			t.Errorf("GetDefault() Value = %v, want 10", entry.Value)
		}
	})

	t.Run("non_existent_key", func(t *testing.T) {
		if entry := GetDefault("does.not.exist"); entry != nil {
			t.Errorf("GetDefault() = %v, want nil for non-existent key", entry)
		}
	})
}
