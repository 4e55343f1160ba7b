package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher turns filesystem writes to a SQLite database file (and its
// -wal / -journal sidecars) into change notifications, so a process
// reading history sees visits appended by another process.
type Watcher struct {
	fw       *fsnotify.Watcher
	dbPath   string
	debounce time.Duration
	logger   *zap.Logger

	done    chan struct{}
	stopped bool
	mu      sync.Mutex
	timer   *time.Timer
}

// NewWatcher creates a watcher for the database at dbPath. Bursts of
// events closer together than debounce collapse into one notification.
func NewWatcher(dbPath string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		fw:       fw,
		dbPath:   abs,
		debounce: debounce,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Watch starts monitoring and calls onChange (from a background
// goroutine) after each debounced burst of writes.
func (w *Watcher) Watch(onChange func()) error {
	// The directory is watched because SQLite recreates sidecar files.
	if err := w.fw.Add(filepath.Dir(w.dbPath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.dbPath), err)
	}

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				if !w.relevant(event.Name) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					w.schedule(onChange)
				}

			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("history watcher error", zap.Error(err))

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// relevant reports whether path is the database file or one of its sidecars.
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(w.dbPath)
	name := filepath.Base(path)
	if filepath.Dir(path) != filepath.Dir(w.dbPath) {
		return false
	}
	return name == base || strings.HasPrefix(name, base+"-")
}

func (w *Watcher) schedule(onChange func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		stopped := w.stopped
		w.mu.Unlock()
		if !stopped {
			onChange()
		}
	})
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	return w.fw.Close()
}
