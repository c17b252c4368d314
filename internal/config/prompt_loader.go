package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// SystemPromptName is the file stem that overrides the system instruction
const SystemPromptName = "system"

var promptExtensions = []string{".md", ".txt", ".tmpl"}

// PromptStore holds prompt templates loaded from a directory. Each file's
// stem names the section it overrides, e.g. "diagnosis.md". Reloads swap
// the whole set at once so readers never see a partial update.
type PromptStore struct {
	mu        sync.RWMutex
	dir       string
	templates map[string]string
	loadedAt  time.Time
}

// NewPromptStore creates an empty store for dir. An empty dir disables
// file-based prompts.
func NewPromptStore(dir string) *PromptStore {
	return &PromptStore{dir: dir, templates: map[string]string{}}
}

// Dir returns the watched directory
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load reads every prompt file in the directory, replacing the current set.
// On error the previous set is kept.
func (s *PromptStore) Load() error {
	if s.dir == "" {
		return nil
	}

	absDir, err := filepath.Abs(s.dir)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path for prompts directory '%s': %w", s.dir, err)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return fmt.Errorf("failed to read prompts directory '%s': %w", absDir, err)
	}

	loaded := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !isPromptFile(entry.Name()) {
			continue
		}
		path := filepath.Join(absDir, entry.Name())
		content, err := loadPromptFromFile(path)
		if err != nil {
			return err
		}
		loaded[promptName(entry.Name())] = content
	}

	s.mu.Lock()
	s.templates = loaded
	s.loadedAt = time.Now()
	s.mu.Unlock()

	logPromptLoadingSummary(absDir, loaded)
	return nil
}

// Template returns the override for a section, if any
func (s *PromptStore) Template(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[name]
	return t, ok
}

// System returns the system instruction override, if any
func (s *PromptStore) System() (string, bool) {
	return s.Template(SystemPromptName)
}

// Names returns the loaded prompt names in sorted order
func (s *PromptStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LoadedAt returns when the current set was loaded
func (s *PromptStore) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func isPromptFile(name string) bool {
	return !strings.HasPrefix(name, ".") && slices.Contains(promptExtensions, strings.ToLower(filepath.Ext(name)))
}

func promptName(file string) string {
	return strings.ToLower(strings.TrimSuffix(file, filepath.Ext(file)))
}

// loadPromptFromFile loads a prompt from a file with proper error handling
func loadPromptFromFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file '%s': %w", path, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("prompt file '%s' is empty", path)
	}

	return trimmed, nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func logPromptLoadingSummary(dir string, loaded map[string]string) {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")
	if len(loaded) == 0 {
		log.Printf("[CONFIG] No prompt files found in %s - using built-in defaults", dir)
	}
	for name, content := range loaded {
		log.Printf("[CONFIG] Prompt '%s' loaded from %s (%d characters)", name, dir, len(content))
	}
	log.Println("[CONFIG] ==========================================")
}
