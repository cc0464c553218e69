package home

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-concierge")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-concierge" {
			t.Errorf("expected path /tmp/test-concierge, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-concierge")

	tests := []struct {
		name, got, want string
	}{
		{"ConfigPath", dir.ConfigPath(), "/tmp/test-concierge/config.yaml"},
		{"DatasetsDir", dir.DatasetsDir(), "/tmp/test-concierge/datasets"},
		{"AudioDir", dir.AudioDir(), "/tmp/test-concierge/audio"},
		{"StorePath relative", dir.StorePath("concierge.db"), "/tmp/test-concierge/concierge.db"},
		{"StorePath absolute", dir.StorePath("/var/lib/jobs.db"), "/var/lib/jobs.db"},
		{"StorePath memory", dir.StorePath(":memory:"), ":memory:"},
		{
			"DatasetPath",
			dir.DatasetPath("/docs/menu.pdf", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)),
			"/tmp/test-concierge/datasets/menu_20240301T123000.jsonl",
		},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, tt.got)
		}
	}
}

func TestDir_EnsureExists(t *testing.T) {
	dir, _ := New(filepath.Join(t.TempDir(), "home"))

	if dir.Exists() {
		t.Fatal("directory should not exist yet")
	}
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	for _, p := range []string{dir.DatasetsDir(), dir.AudioDir()} {
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", p)
		}
	}
	if dir.ConfigExists() {
		t.Error("config should not exist")
	}
}
