package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/embedmcp/embed-mcp/internal/config"
	"github.com/embedmcp/embed-mcp/internal/logger"
)

var log = logger.ForComponent("watcher")

// ConfigWatcher reloads the config file when it changes on disk and hands
// the fresh config to OnReload. Editors write config files with bursts of
// events, so changes are debounced before reloading.
type ConfigWatcher struct {
	path      string
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	onReload  func(*config.Config)

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(path string, onReload func(*config.Config)) (*ConfigWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &ConfigWatcher{
		path:      path,
		fsWatcher: fsWatcher,
		onReload:  onReload,
	}
	w.debouncer = NewDebouncer(300*time.Millisecond, w.reload)

	return w, nil
}

// Start begins watching. The parent directory is watched rather than the
// file itself so atomic rename-into-place saves are observed.
func (w *ConfigWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.running = true

	go w.loop()
	log.Info("watching config file", "path", w.path)
	return nil
}

func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	w.cancel()
	w.debouncer.Stop()
	w.fsWatcher.Close()
}

func (w *ConfigWatcher) loop() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("config file event", "op", event.Op.String(), "path", event.Name)
			w.debouncer.Trigger()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Error("watch error", "error", err)
		}
	}
}

func (w *ConfigWatcher) matches(path string) bool {
	if filepath.Clean(path) == filepath.Clean(w.path) {
		return true
	}
	// Some editors save through temp files matching the config name.
	match, _ := doublestar.Match(filepath.Base(w.path)+"*", filepath.Base(path))
	return match
}

func (w *ConfigWatcher) reload() {
	cfg, err := config.Load(w.path)
	if err != nil {
		log.Error("config reload failed, keeping previous config", "error", err)
		return
	}

	log.Info("config reloaded", "path", w.path)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
