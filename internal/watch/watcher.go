// Package watch re-runs a blend when one of its input files changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches the burst of events editors and rsync produce for one save
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is invoked once per debounced batch of changes
type ReloadFunc func(ctx context.Context) error

// Watcher watches a fixed set of files. It watches their parent directories,
// so files that are replaced by rename (the usual way results are published)
// keep being tracked.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	reload   ReloadFunc
	logger   *zap.Logger

	mu      sync.Mutex
	reloads int
	errors  int
}

// New creates a Watcher for the given files. Nothing is watched until Run.
func New(files []string, debounce time.Duration, reload ReloadFunc, logger *zap.Logger) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if reload == nil {
		return nil, fmt.Errorf("reload function cannot be nil")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]struct{}, len(files)),
		debounce: debounce,
		reload:   reload,
		logger:   logger.Named("watch"),
	}

	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	return w, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
// Reload errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("failed to close file watcher", zap.Error(err))
		}
	}()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("input changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", zap.Error(err))
			w.mu.Lock()
			w.errors++
			w.mu.Unlock()

		case <-timerC:
			timerC = nil
			w.runReload(ctx, pending)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}

func (w *Watcher) runReload(ctx context.Context, trigger string) {
	err := w.reload(ctx)

	w.mu.Lock()
	w.reloads++
	if err != nil {
		w.errors++
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("reload failed", zap.String("trigger", trigger), zap.Error(err))
		return
	}
	w.logger.Info("reloaded after input change", zap.String("trigger", trigger))
}

// Stats returns how many reloads ran and how many errors were seen
func (w *Watcher) Stats() (reloads, errors int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads, w.errors
}
