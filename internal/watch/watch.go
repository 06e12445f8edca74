// Package watch turns filesystem events under a scanned tree into debounced
// batches of changed directory IDs.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/bianoble/dirctx/internal/scan"
)

// DefaultDebounce is the quiet period before a batch is emitted.
const DefaultDebounce = 300 * time.Millisecond

// HandlerFunc receives the sorted IDs of directories that changed. It may
// return a new tree to watch (after a rescan); nil keeps the current one.
type HandlerFunc func(ctx context.Context, changed []string) (*scan.Target, error)

// Watcher watches every Target directory of a tree.
type Watcher struct {
	Debounce time.Duration
	// Ignored reports whether an event on the given base name is dirctx's
	// own output and must not trigger a batch.
	Ignored func(name string) bool
	Log     logrus.FieldLogger

	fw   *fsnotify.Watcher
	dirs map[string]string // absolute path -> Target ID
}

// Run blocks until ctx is done or fn returns an error. ctx cancellation is
// not an error.
func (w *Watcher) Run(ctx context.Context, tree *scan.Target, fn HandlerFunc) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	w.fw = fw
	w.dirs = make(map[string]string)
	if err := w.sync(tree); err != nil {
		return err
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ticker := time.NewTicker(debounce / 2)
	defer ticker.Stop()

	pending := make(map[string]bool)
	var last time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			id, relevant := w.classify(event)
			if !relevant {
				continue
			}
			pending[id] = true
			last = time.Now()

		case <-ticker.C:
			if len(pending) == 0 || time.Since(last) < debounce {
				continue
			}
			changed := make([]string, 0, len(pending))
			for id := range pending {
				changed = append(changed, id)
			}
			sort.Strings(changed)
			clear(pending)

			w.logger().WithField("targets", strings.Join(changed, ",")).Debug("change batch")
			next, err := fn(ctx, changed)
			if err != nil {
				return err
			}
			if next != nil {
				if err := w.sync(next); err != nil {
					return err
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			// Watch errors are non-fatal; an overflow just means a later
			// batch may be coarser.
			w.logger().WithError(err).Warn("watch error")
		}
	}
}

// classify maps an event to the ID of the directory whose contents changed.
func (w *Watcher) classify(event fsnotify.Event) (string, bool) {
	if event.Op == fsnotify.Chmod {
		return "", false
	}
	if w.ignored(filepath.Base(event.Name)) {
		return "", false
	}
	id, ok := w.dirs[filepath.Dir(event.Name)]
	return id, ok
}

func (w *Watcher) ignored(name string) bool {
	if strings.HasPrefix(name, ".dirctx-") || name == ".dirctx.lock" {
		return true
	}
	return w.Ignored != nil && w.Ignored(name)
}

// sync makes the watched set match tree.
func (w *Watcher) sync(tree *scan.Target) error {
	want := make(map[string]string)
	tree.Walk(func(t *scan.Target) bool {
		want[filepath.Clean(t.Path)] = t.ID
		return true
	})

	for path := range w.dirs {
		if _, ok := want[path]; !ok {
			_ = w.fw.Remove(path)
			delete(w.dirs, path)
		}
	}
	for path, id := range want {
		if _, ok := w.dirs[path]; ok {
			w.dirs[path] = id
			continue
		}
		if err := w.fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", id, err)
		}
		w.dirs[path] = id
	}
	return nil
}

func (w *Watcher) logger() logrus.FieldLogger {
	if w.Log != nil {
		return w.Log
	}
	return logrus.StandardLogger()
}
