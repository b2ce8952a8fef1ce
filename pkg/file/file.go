// Package file provides a levelsync.Watcher for a configuration file on disk.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher emits the contents of a file whenever it is written, created or
// replaced. It watches the parent directory so editors that save by renaming
// a temporary file over the original are picked up.
type Watcher struct {
	path string
}

// New creates a Watcher for path.
func New(path string) *Watcher {
	return &Watcher{path: path}
}

// Watch emits the current contents immediately, then once per change.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", w.path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("failed to watch file %s: %w", w.path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory of %s: %w", w.path, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer watcher.Close()

		emit := func() bool {
			data, err := os.ReadFile(abs)
			if err != nil {
				// Mid-replace; the next event carries the new file.
				return true
			}
			select {
			case out <- data:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if !emit() {
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}
