package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// ConfigWatcher reloads the YAML config file when it changes and hands the
// new configuration to registered callbacks. Environment overrides are
// reapplied on every reload.
type ConfigWatcher struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	path      string
	debounce  time.Duration
	logger    *zap.Logger
}

// NewConfigWatcher creates a watcher for the file the initial config was
// read from.
func NewConfigWatcher(initial *Config, logger *zap.Logger) *ConfigWatcher {
	return &ConfigWatcher{
		config:   initial,
		path:     initial.File,
		debounce: debounceDelay,
		logger:   logger,
	}
}

// OnChange registers a callback to be called when configuration changes
func (w *ConfigWatcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// GetConfig returns the current configuration
func (w *ConfigWatcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Run watches the config file until ctx is cancelled. Hot reloading only
// happens in development and only when the config came from a file; in
// every other case Run just waits for ctx.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	if w.path == "" || !w.GetConfig().IsDevelopment() {
		w.logger.Info("Configuration hot reloading disabled",
			zap.String("environment", string(w.GetConfig().Environment)),
		)
		<-ctx.Done()
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsWatcher.Close()

	// Editors often replace the file, so watch the directory.
	dir := filepath.Dir(w.path)
	if err := fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("Configuration hot reloading enabled", zap.String("file", w.path))

	target := filepath.Clean(w.path)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			w.logger.Debug("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.Reload()

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// Reload rereads the config file and notifies callbacks. An invalid file is
// logged and the current configuration kept.
func (w *ConfigWatcher) Reload() {
	next, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("Failed to reload configuration", zap.Error(err))
		return
	}
	next.applyEnv()
	if err := next.Validate(); err != nil {
		w.logger.Error("Invalid configuration after reload", zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.config
	w.config = next
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	if old.Field.Params != next.Field.Params {
		w.logger.Info("Particle field parameters changed")
	}

	for _, cb := range callbacks {
		w.notify(cb, next)
	}
	w.logger.Info("Configuration reloaded", zap.Int("callbacks_notified", len(callbacks)))
}

func (w *ConfigWatcher) notify(cb func(*Config), cfg *Config) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Config callback panicked", zap.Any("panic", r))
		}
	}()
	cb(cfg)
}
