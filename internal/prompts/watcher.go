package prompts

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher logs edits to persona templates. Templates are still re-read on
// every turn; the watcher only makes hot edits visible to operators.
type Watcher struct {
	paths   map[string]bool
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	onEdit  func(path string)
}

// NewWatcher watches the directories containing paths.
func NewWatcher(paths []string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{paths: make(map[string]bool), watcher: fw, logger: logger}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		w.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			logger.Warn("cannot watch persona directory", zap.String("dir", dir), zap.Error(err))
		}
	}
	return w, nil
}

// OnEdit sets a callback invoked with the absolute path of each edited template.
func (w *Watcher) OnEdit(fn func(path string)) {
	w.onEdit = fn
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !w.paths[abs] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Info("persona template changed", zap.String("path", abs), zap.String("op", ev.Op.String()))
			if w.onEdit != nil {
				w.onEdit(abs)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("persona watcher error", zap.Error(err))
		}
	}
}
