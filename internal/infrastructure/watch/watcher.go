package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWindow is the quiet period before a batch is delivered.
const DefaultWindow = 300 * time.Millisecond

// Op is the kind of a change.
type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
	OpRename Op = "rename"
)

// Change is one changed board file. Path is relative to the board root.
type Change struct {
	Path string
	Op   Op
}

// Options configures a BoardWatcher.
type Options struct {
	Window time.Duration
	Filter *Filter
	Logger *slog.Logger
}

// BoardWatcher watches a board directory and its tasks directory.
type BoardWatcher struct {
	root    string
	watcher *fsnotify.Watcher
	window  time.Duration
	filter  *Filter
	logger  *slog.Logger
}

// New watches root and every directory below it.
func New(root string, opts Options) (*BoardWatcher, error) {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Filter == nil {
		opts.Filter = NewFilter(nil, nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &BoardWatcher{
		root:    root,
		watcher: fw,
		window:  opts.Window,
		filter:  opts.Filter,
		logger:  opts.Logger,
	}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *BoardWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run delivers batches to fn until ctx is done. It closes the watcher on
// return; a BoardWatcher runs once.
func (w *BoardWatcher) Run(ctx context.Context, fn func([]Change)) error {
	defer w.watcher.Close()

	batcher := NewBatcher(w.window, fn)
	defer batcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			op := opOf(event.Op)
			if op == "" {
				continue
			}
			if op == OpCreate {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.WarnContext(ctx, "cannot watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !w.filter.Matches(event.Name) {
				continue
			}
			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil {
				rel = event.Name
			}
			w.logger.DebugContext(ctx, "board file changed", "path", rel, "op", string(op))
			batcher.Add(Change{Path: filepath.ToSlash(rel), Op: op})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func opOf(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return ""
	}
}
