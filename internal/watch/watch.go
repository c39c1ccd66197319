// Package watch rebuilds a DB when its dump files change on local disk.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/plover"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// Rebuilder is the part of plover.DB the watcher drives.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// Options configures a Watcher.
type Options struct {
	// Debounce is how long the files must be quiet before a rebuild starts.
	Debounce time.Duration
	Logger   *plover.Logger
	// OnRebuild is called after every rebuild attempt. Used by tests.
	OnRebuild func(error)
}

// Watcher triggers a rebuild once a burst of writes to the watched files settles.
type Watcher struct {
	target Rebuilder
	opts   Options
	fsw    *fsnotify.Watcher
	files  map[string]struct{}
}

// New watches the given files. Their parent directories are watched so
// that atomic replace-by-rename is seen.
func New(target Rebuilder, files []string, opts Options) (*Watcher, error) {
	if len(files) == 0 {
		return nil, errors.New("watch: no files")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = plover.NoopLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		target: target,
		opts:   opts,
		fsw:    fsw,
		files:  make(map[string]struct{}, len(files)),
	}
	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}

// Run blocks until ctx is canceled, then closes the watcher.
// Rebuilds run on the calling goroutine, so at most one is in flight.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.opts.Logger.Debug("dump changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.opts.Debounce)
			pending = true
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watch error", "error", err)
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			w.opts.Logger.Info("rebuilding after dump change")
			err := w.target.Rebuild(ctx)
			if err != nil && ctx.Err() == nil {
				w.opts.Logger.Error("rebuild failed", "error", err)
			}
			if w.opts.OnRebuild != nil {
				w.opts.OnRebuild(err)
			}
		}
	}
}
