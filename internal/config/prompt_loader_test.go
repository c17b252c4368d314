package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writePrompt(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create prompt file %s: %v", name, err)
	}
}

func TestPromptStoreLoad(t *testing.T) {
	tempDir := t.TempDir()

	writePrompt(t, tempDir, "system.md", "  Custom system instruction  \n")
	writePrompt(t, tempDir, "Diagnosis.txt", "Diagnose {{resume}}")
	writePrompt(t, tempDir, "notes.json", "ignored")
	writePrompt(t, tempDir, ".hidden.md", "ignored")
	if err := os.Mkdir(filepath.Join(tempDir, "nested.md"), 0700); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	store := NewPromptStore(tempDir)
	if err := store.Load(); err != nil {
		t.Fatalf("Failed to load prompts: %v", err)
	}

	system, ok := store.System()
	if !ok || system != "Custom system instruction" {
		t.Errorf("Expected trimmed system prompt, got %q (found=%t)", system, ok)
	}

	diagnosis, ok := store.Template("diagnosis")
	if !ok || diagnosis != "Diagnose {{resume}}" {
		t.Errorf("Expected diagnosis template, got %q (found=%t)", diagnosis, ok)
	}

	if got, want := store.Names(), []string{"diagnosis", "system"}; !slices.Equal(got, want) {
		t.Errorf("Expected names %v, got %v", want, got)
	}

	if store.LoadedAt().IsZero() {
		t.Error("Expected LoadedAt to be set after a successful load")
	}
}

func TestPromptStoreEmptyDirDisabled(t *testing.T) {
	store := NewPromptStore("")
	if err := store.Load(); err != nil {
		t.Fatalf("Expected no error for an empty directory setting, got %v", err)
	}
	if _, ok := store.System(); ok {
		t.Error("Expected no system prompt")
	}
	if len(store.Names()) != 0 {
		t.Errorf("Expected no prompts, got %v", store.Names())
	}
}

func TestPromptStoreKeepsPreviousSetOnError(t *testing.T) {
	tempDir := t.TempDir()
	writePrompt(t, tempDir, "summary.md", "Summarize")

	store := NewPromptStore(tempDir)
	if err := store.Load(); err != nil {
		t.Fatalf("Failed to load prompts: %v", err)
	}

	// An empty file fails the whole reload.
	writePrompt(t, tempDir, "summary.md", "Summarize again")
	writePrompt(t, tempDir, "broken.md", "   ")

	if err := store.Load(); err == nil {
		t.Fatal("Expected error for empty prompt file")
	}

	got, ok := store.Template("summary")
	if !ok || got != "Summarize" {
		t.Errorf("Expected previous template to survive, got %q (found=%t)", got, ok)
	}
	if _, ok := store.Template("broken"); ok {
		t.Error("Expected broken template not to be loaded")
	}
}

func TestPromptStoreMissingDirectory(t *testing.T) {
	store := NewPromptStore(filepath.Join(t.TempDir(), "missing"))
	if err := store.Load(); err == nil {
		t.Error("Expected error for non-existent directory")
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()

	content := "Test prompt content"
	testFile := filepath.Join(tempDir, "test.md")
	writePrompt(t, tempDir, "test.md", content)

	loadedContent, err := loadPromptFromFile(testFile)
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}
	if loadedContent != content {
		t.Errorf("Expected content '%s', got '%s'", content, loadedContent)
	}

	writePrompt(t, tempDir, "empty.md", "")
	if _, err := loadPromptFromFile(filepath.Join(tempDir, "empty.md")); err == nil {
		t.Error("Expected error for empty file")
	}

	if _, err := loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md")); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestIsPromptFile(t *testing.T) {
	cases := map[string]bool{
		"diagnosis.md":   true,
		"SYSTEM.MD":      true,
		"summary.txt":    true,
		"questions.tmpl": true,
		"config.yaml":    false,
		".swap.md":       false,
		"README":         false,
	}
	for name, want := range cases {
		if got := isPromptFile(name); got != want {
			t.Errorf("isPromptFile(%q) = %t, want %t", name, got, want)
		}
	}
}
