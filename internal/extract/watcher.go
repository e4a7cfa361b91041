package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"skillmatch/internal/errors"
)

// TaxonomyWatcher watches the taxonomy file and reloads it when it changes
type TaxonomyWatcher struct {
	mu sync.RWMutex

	taxonomy    *Taxonomy
	path        string
	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	logger *errors.Logger

	running bool
}

// NewTaxonomyWatcher creates a watcher for the taxonomy backing the given
// provider. The taxonomy must be file-backed.
func NewTaxonomyWatcher(taxonomy *Taxonomy, debounceDelay time.Duration, logger *errors.Logger) (*TaxonomyWatcher, error) {
	if taxonomy.Path() == "" {
		return nil, fmt.Errorf("taxonomy is not file-backed, nothing to watch")
	}
	if debounceDelay == 0 {
		debounceDelay = time.Second // Default 1 second debounce
	}

	return &TaxonomyWatcher{
		taxonomy:      taxonomy,
		path:          taxonomy.Path(),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		logger:        logger,
	}, nil
}

// Start begins watching the taxonomy file for changes
func (tw *TaxonomyWatcher) Start() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.running {
		return fmt.Errorf("taxonomy watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	tw.fsWatcher = watcher

	if stat, err := os.Stat(tw.path); err == nil {
		tw.lastModTime = stat.ModTime()
	}

	if err := tw.addFileToWatcher(); err != nil {
		if closeErr := tw.fsWatcher.Close(); closeErr != nil && tw.logger != nil {
			tw.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
		return err
	}

	tw.running = true
	go tw.watchLoop()

	if tw.logger != nil {
		tw.logger.Info("Taxonomy file watcher started",
			"file", tw.path,
			"debounce_delay", tw.debounceDelay)
	}
	return nil
}

// Stop stops the taxonomy file watcher
func (tw *TaxonomyWatcher) Stop() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if !tw.running {
		return nil
	}

	close(tw.stopChan)

	if tw.debounceTimer != nil {
		tw.debounceTimer.Stop()
	}

	if tw.fsWatcher != nil {
		if err := tw.fsWatcher.Close(); err != nil {
			if tw.logger != nil {
				tw.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	tw.running = false

	if tw.logger != nil {
		tw.logger.Info("Taxonomy file watcher stopped")
	}

	return nil
}

// addFileToWatcher adds the taxonomy file and its directory to the watcher
func (tw *TaxonomyWatcher) addFileToWatcher() error {
	if err := tw.fsWatcher.Add(tw.path); err != nil {
		// If the file doesn't exist, watch its directory instead
		if os.IsNotExist(err) {
			dir := filepath.Dir(tw.path)
			if err := tw.fsWatcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch directory %s: %w", dir, err)
			}
			if tw.logger != nil {
				tw.logger.Info("Watching directory for taxonomy file",
					"file", tw.path, "directory", dir)
			}
			return nil
		}
		return fmt.Errorf("failed to watch file %s: %w", tw.path, err)
	}

	// Also watch the directory to catch atomic writes (rename operations)
	dir := filepath.Dir(tw.path)
	if err := tw.fsWatcher.Add(dir); err != nil {
		if tw.logger != nil {
			tw.logger.Warn("Failed to watch directory for atomic writes",
				"directory", dir, "error", err)
		}
	}

	return nil
}

// hasFileChanged checks if the taxonomy file has been modified since last check
func (tw *TaxonomyWatcher) hasFileChanged() bool {
	stat, err := os.Stat(tw.path)
	if err != nil {
		return false
	}

	if stat.ModTime().After(tw.lastModTime) {
		tw.lastModTime = stat.ModTime()
		return true
	}

	return false
}

// watchLoop is the main event loop for file watching
func (tw *TaxonomyWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-tw.fsWatcher.Events:
			if !ok {
				return
			}

			if tw.shouldProcessEvent(event) {
				tw.scheduleReload()
			}

		case err, ok := <-tw.fsWatcher.Errors:
			if !ok {
				return
			}
			if tw.logger != nil {
				tw.logger.LogError(err, "Taxonomy watcher error")
			}

		case <-tw.reloadChan:
			// Debounced reload trigger
			if tw.hasFileChanged() {
				tw.reload()
			}

		case <-tw.stopChan:
			return
		}
	}
}

// reload re-reads the taxonomy file, keeping the previous entries on failure
func (tw *TaxonomyWatcher) reload() {
	if err := tw.taxonomy.Reload(); err != nil {
		if tw.logger != nil {
			tw.logger.LogError(err, "Taxonomy reload failed, keeping previous entries",
				"file", tw.path)
		}
		return
	}

	if tw.logger != nil {
		tw.logger.Info("Taxonomy reloaded",
			"file", tw.path,
			"entries", tw.taxonomy.Len())
	}
}

// shouldProcessEvent determines if a file system event should trigger a reload check
func (tw *TaxonomyWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Name != tw.path && filepath.Base(event.Name) != filepath.Base(tw.path) {
		return false
	}

	// Process write, create, and rename events
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// scheduleReload schedules a debounced reload
func (tw *TaxonomyWatcher) scheduleReload() {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	// Reset the debounce timer
	if tw.debounceTimer != nil {
		tw.debounceTimer.Stop()
	}

	tw.debounceTimer = time.AfterFunc(tw.debounceDelay, func() {
		select {
		case tw.reloadChan <- struct{}{}:
			// Reload scheduled
		default:
			// Channel is full, reload already scheduled
		}
	})
}

// IsRunning returns whether the watcher is currently running
func (tw *TaxonomyWatcher) IsRunning() bool {
	tw.mu.RLock()
	defer tw.mu.RUnlock()
	return tw.running
}
