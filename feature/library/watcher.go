package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher subscribes to filesystem change notifications on the content tree
// and reconciles the affected content unit incrementally.
//
// Events for the same directory arriving in rapid succession (an editor
// performing several writes per save) are coalesced with a per-directory
// debounce timer before the reconciler runs. Reconciliation is idempotent,
// so a duplicate invocation after the window is harmless.
type Watcher struct {
	rec      *Reconciler
	root     string
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer

	fsw *fsnotify.Watcher
}

// NewWatcher creates a change watcher over the given reconciler.
func NewWatcher(rec *Reconciler, root string, debounce time.Duration, logger *zap.Logger) *Watcher {
	return &Watcher{
		rec:      rec,
		root:     root,
		debounce: debounce,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
	}
}

// Start begins watching the content tree and returns once the watches are
// registered. The event loop runs until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw

	// fsnotify is not recursive; register the root and every existing
	// content unit directory. New directories are added as they appear.
	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fsw.Close()
		return err
	}

	go w.loop(ctx)
	w.logger.Info("Watching content tree", zap.String("root", w.root))
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer func() {
		_ = w.fsw.Close()
		w.cancelPending()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			w.trigger(ctx, event.Name)
			return
		}
	}

	// A payload or metadata write; the unit is the containing directory.
	dir := filepath.Dir(event.Name)
	if dir == filepath.Clean(w.root) {
		// Root-level files: only library.json is interesting.
		if filepath.Base(event.Name) == LibraryFile {
			w.triggerDefs(ctx)
		}
		return
	}
	w.trigger(ctx, dir)
}

// trigger schedules a debounced reconciliation of one content unit.
func (w *Watcher) trigger(ctx context.Context, dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[dir]; ok {
		timer.Stop()
	}
	w.pending[dir] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, dir)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(filepath.Join(dir, MetadataFile)); err != nil {
			// Not (yet) a content unit; the metadata write will retrigger.
			return
		}
		if _, err := w.rec.Reconcile(ctx, dir); err != nil {
			w.logger.Error("Incremental reconciliation failed", zap.String("dir", dir), zap.Error(err))
		}
	})
}

// triggerDefs schedules a debounced re-seed of library.json definitions.
func (w *Watcher) triggerDefs(ctx context.Context) {
	key := filepath.Join(w.root, LibraryFile)

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[key]; ok {
		timer.Stop()
	}
	w.pending[key] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, key)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		defs, err := ReadLibraryDefs(w.root)
		if err != nil || defs == nil {
			if err != nil {
				w.logger.Warn("Failed to re-read library definitions", zap.Error(err))
			}
			return
		}
		if err := w.rec.Deps().SeedFromDefs(ctx, defs); err != nil {
			w.logger.Warn("Failed to re-seed library definitions", zap.Error(err))
		}
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for dir, timer := range w.pending {
		timer.Stop()
		delete(w.pending, dir)
	}
}
