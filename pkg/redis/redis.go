// Package redis provides a levelsync.Watcher for configuration stored in a
// Redis key, using keyspace notifications. It lets several machines share one
// centrally managed configuration.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Watcher watches a Redis key for changes using keyspace notifications.
// Requires Redis to have keyspace notifications enabled:
//
//	CONFIG SET notify-keyspace-events KEA
type Watcher struct {
	client *redis.Client
	key    string
	db     int
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDB overrides the database index used in the notification channel.
// By default it is taken from the client options.
func WithDB(db int) Option {
	return func(w *Watcher) { w.db = db }
}

// New creates a Watcher for key.
func New(client *redis.Client, key string, opts ...Option) *Watcher {
	w := &Watcher{
		client: client,
		key:    key,
		db:     client.Options().DB,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Channel is the keyspace notification channel the Watcher subscribes to.
func (w *Watcher) Channel() string {
	return fmt.Sprintf("__keyspace@%d__:%s", w.db, w.key)
}

// Put stores a configuration document under the watched key.
func (w *Watcher) Put(ctx context.Context, data []byte) error {
	if err := w.client.Set(ctx, w.key, data, 0).Err(); err != nil {
		return fmt.Errorf("store %s: %w", w.key, err)
	}
	return nil
}

// Watch emits the key's current value (if any) immediately, then the new
// value after every write to the key.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	pubsub := w.client.Subscribe(ctx, w.Channel())

	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to keyspace notifications: %w", err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer pubsub.Close()

		send := func() bool {
			val, err := w.client.Get(ctx, w.key).Bytes()
			if errors.Is(err, redis.Nil) {
				return true
			}
			if err != nil {
				return ctx.Err() == nil
			}
			select {
			case out <- val:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send() {
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				switch msg.Payload {
				case "set", "setex", "psetex", "setnx", "setrange", "append":
					if !send() {
						return
					}
				}
			}
		}
	}()

	return out, nil
}
