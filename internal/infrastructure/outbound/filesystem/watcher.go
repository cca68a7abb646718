package filesystem

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sophialabs/mimicrab/internal/infrastructure/ports"
)

// Watcher watches a single expectations file and triggers a reload
// callback when it changes out of band (a hand-edit, a sibling process,
// a deployment tool overwriting it in place).
type Watcher struct {
	path     string
	debounce time.Duration
	logger   ports.Logger
	watcher  *fsnotify.Watcher
	onReload func()
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewWatcher creates a file watcher for the given expectations file path.
func NewWatcher(path string, debounce time.Duration, logger ports.Logger, onReload func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("watch directory %q: %w", dir, err)
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   logger,
		watcher:  fsWatcher,
		onReload: onReload,
		done:     make(chan struct{}),
	}
	return w, nil
}

// Start begins watching for file changes in a goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop terminates the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.watcher.Close()
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}

			w.logger.Debug("expectations file change detected", "file", event.Name, "op", event.Op.String())

			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-timerC:
			w.logger.Info("reloading expectations due to file change")
			w.onReload()
			timerC = nil
		}
	}
}
