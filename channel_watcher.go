package levelsync

import "context"

// ChannelWatcher feeds a Reloader from documents pushed over a channel. The
// test helpers drive reloaders through it; embedders that already hold
// config documents in memory can use it in place of a file watcher.
type ChannelWatcher struct {
	ch     <-chan []byte
	direct bool
}

// NewChannelWatcher relays documents from ch until the Watch context ends or
// ch is closed.
func NewChannelWatcher(ch <-chan []byte) *ChannelWatcher {
	return &ChannelWatcher{ch: ch}
}

// NewSyncChannelWatcher hands ch to the Reloader unchanged. Pair it with
// Reloader.SyncMode so each Process call consumes exactly one document.
func NewSyncChannelWatcher(ch <-chan []byte) *ChannelWatcher {
	return &ChannelWatcher{ch: ch, direct: true}
}

// Watch implements Watcher.
func (w *ChannelWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	if w.direct {
		return w.ch, nil
	}
	out := make(chan []byte)
	go relay(ctx, w.ch, out)
	return out, nil
}

// relay copies documents from in to out and closes out when either the
// context ends or in is closed.
func relay(ctx context.Context, in <-chan []byte, out chan<- []byte) {
	defer close(out)
	for {
		var doc []byte
		select {
		case <-ctx.Done():
			return
		case v, ok := <-in:
			if !ok {
				return
			}
			doc = v
		}
		select {
		case out <- doc:
		case <-ctx.Done():
			return
		}
	}
}
