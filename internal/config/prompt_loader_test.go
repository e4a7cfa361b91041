package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPromptsFromFiles(t *testing.T) {
	dir := t.TempDir()
	systemPath := filepath.Join(dir, "system.txt")
	if err := os.WriteFile(systemPath, []byte("  You extract skills.  \n"), 0600); err != nil {
		t.Fatalf("failed to write prompt file: %v", err)
	}

	cfg := &Config{}
	cfg.Extract.Gemini.SystemPromptFile = systemPath

	if err := cfg.loadPromptsFromFiles(); err != nil {
		t.Fatalf("loadPromptsFromFiles failed: %v", err)
	}
	if got := cfg.Extract.Gemini.SystemPrompt; got != "You extract skills." {
		t.Errorf("expected trimmed prompt content, got %q", got)
	}
}

func TestLoadPromptsFromFilesInlineWins(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "user.txt")
	if err := os.WriteFile(userPath, []byte("from file"), 0600); err != nil {
		t.Fatalf("failed to write prompt file: %v", err)
	}

	cfg := &Config{}
	cfg.Extract.Gemini.UserPrompt = "inline"
	cfg.Extract.Gemini.UserPromptFile = userPath

	if err := cfg.loadPromptsFromFiles(); err != nil {
		t.Fatalf("loadPromptsFromFiles failed: %v", err)
	}
	if got := cfg.Extract.Gemini.UserPrompt; got != "inline" {
		t.Errorf("inline prompt should take precedence, got %q", got)
	}
}

func TestLoadPromptsFromFilesErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg := &Config{}
		cfg.Extract.Gemini.SystemPromptFile = filepath.Join(t.TempDir(), "missing.txt")
		if err := cfg.loadPromptsFromFiles(); err == nil {
			t.Error("expected error for missing prompt file")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		dir := t.TempDir()
		emptyPath := filepath.Join(dir, "empty.txt")
		if err := os.WriteFile(emptyPath, []byte("   \n"), 0600); err != nil {
			t.Fatalf("failed to write prompt file: %v", err)
		}
		cfg := &Config{}
		cfg.Extract.Gemini.SystemPromptFile = emptyPath
		if err := cfg.loadPromptsFromFiles(); err == nil {
			t.Error("expected error for empty prompt file")
		}
	})
}
