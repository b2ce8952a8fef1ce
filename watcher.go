package levelsync

import "context"

// Watcher observes a configuration source and emits its raw bytes whenever it
// changes. pkg/file watches a file on disk; pkg/redis watches a Redis key.
type Watcher interface {
	// Watch emits the current value immediately, then one value per change.
	// The channel is closed when ctx is cancelled or the source fails for good.
	Watch(ctx context.Context) (<-chan []byte, error)
}

// WatcherFunc adapts a function to Watcher.
type WatcherFunc func(ctx context.Context) (<-chan []byte, error)

// Watch calls f.
func (f WatcherFunc) Watch(ctx context.Context) (<-chan []byte, error) { return f(ctx) }
