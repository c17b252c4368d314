package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"neuromatch/internal/errors"
)

// PromptWatcher reloads a PromptStore when files in its directory change
type PromptWatcher struct {
	mu sync.Mutex

	store *PromptStore

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	doneChan   chan struct{}

	onReload func(names []string)
	logger   *errors.Logger

	running bool
}

// NewPromptWatcher creates a watcher for the store's directory. onReload is
// called after each successful reload and may be nil.
func NewPromptWatcher(store *PromptStore, debounceDelay time.Duration, onReload func(names []string), logger *errors.Logger) (*PromptWatcher, error) {
	if store == nil || store.Dir() == "" {
		return nil, fmt.Errorf("prompt watcher requires a prompts directory")
	}
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}

	return &PromptWatcher{
		store:         store,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		doneChan:      make(chan struct{}),
		onReload:      onReload,
		logger:        logger,
	}, nil
}

// Start begins watching the prompts directory
func (pw *PromptWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("prompt watcher is already running")
	}

	dir, err := filepath.Abs(pw.store.Dir())
	if err != nil {
		return fmt.Errorf("failed to resolve prompts directory: %w", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("prompts directory %s is not accessible", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watching the directory also catches editors that save through rename.
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	pw.fsWatcher = watcher
	pw.running = true
	go pw.watchLoop()

	if pw.logger != nil {
		pw.logger.Info("Prompt watcher started",
			"directory", dir,
			"debounce_delay", pw.debounceDelay)
	}
	return nil
}

// Stop stops the watcher and waits for its loop to exit
func (pw *PromptWatcher) Stop() error {
	pw.mu.Lock()
	if !pw.running {
		pw.mu.Unlock()
		return nil
	}
	pw.running = false
	close(pw.stopChan)
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	watcher := pw.fsWatcher
	pw.mu.Unlock()

	err := watcher.Close()
	<-pw.doneChan

	if err != nil {
		if pw.logger != nil {
			pw.logger.LogError(err, "Failed to close file system watcher")
		}
		return err
	}
	if pw.logger != nil {
		pw.logger.Info("Prompt watcher stopped")
	}
	return nil
}

// IsRunning returns whether the watcher is currently running
func (pw *PromptWatcher) IsRunning() bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.running
}

func (pw *PromptWatcher) watchLoop() {
	defer close(pw.doneChan)
	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}
			if shouldProcessEvent(event) {
				pw.scheduleReload()
			}

		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			if pw.logger != nil {
				pw.logger.LogError(err, "Prompt watcher error")
			}

		case <-pw.reloadChan:
			pw.reload()

		case <-pw.stopChan:
			return
		}
	}
}

func (pw *PromptWatcher) reload() {
	if err := pw.store.Load(); err != nil {
		if pw.logger != nil {
			pw.logger.LogError(err, "Prompt reload failed, keeping previous prompts",
				"directory", pw.store.Dir())
		}
		return
	}

	names := pw.store.Names()
	if pw.logger != nil {
		pw.logger.Info("Prompts reloaded", "directory", pw.store.Dir(), "prompts", names)
	}
	if pw.onReload != nil {
		pw.onReload(names)
	}
}

// shouldProcessEvent filters events down to prompt file writes, creations,
// removals and renames
func shouldProcessEvent(event fsnotify.Event) bool {
	if !isPromptFile(filepath.Base(event.Name)) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

// scheduleReload schedules a debounced reload
func (pw *PromptWatcher) scheduleReload() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}

	pw.debounceTimer = time.AfterFunc(pw.debounceDelay, func() {
		select {
		case pw.reloadChan <- struct{}{}:
		default:
			// reload already pending
		}
	})
}
