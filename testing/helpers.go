// Package testing provides test utilities and helpers for levelsync.
package testing

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/levelsync"
	"github.com/zoobzio/levelsync/pkg/memory"
)

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return condition()
}

// WaitForState waits until the reloader reaches the expected state or timeout occurs.
func WaitForState(t *testing.T, r *levelsync.Reloader, expected levelsync.FeedState, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return r.State() == expected
	})
}

// RequireState fails the test immediately if the reloader is not in the expected state.
func RequireState(t *testing.T, r *levelsync.Reloader, expected levelsync.FeedState) {
	t.Helper()
	if got := r.State(); got != expected {
		t.Fatalf("expected state %s, got %s", expected, got)
	}
}

// RequireConfig fails the test if Current() returns false or the config doesn't match.
func RequireConfig(t *testing.T, r *levelsync.Reloader, check func(levelsync.Config) bool) {
	t.Helper()
	cfg, ok := r.Current()
	if !ok {
		t.Fatal("expected config to be present, got none")
	}
	if !check(cfg) {
		t.Fatalf("config check failed: %+v", cfg)
	}
}

// NewTestReloader creates a sync-mode reloader over a channel watcher.
// Returns the reloader and a channel for sending documents.
func NewTestReloader(t *testing.T, fn levelsync.ApplyFunc, opts ...levelsync.Option) (*levelsync.Reloader, chan<- []byte) {
	t.Helper()
	ch := make(chan []byte, 10)
	r := levelsync.NewReloader(levelsync.NewSyncChannelWatcher(ch), fn, opts...).SyncMode()
	return r, ch
}

// FastConfig returns the defaults with every interval shortened so a real
// Session settles within a few tens of milliseconds.
func FastConfig() levelsync.Config {
	cfg := levelsync.Defaults()
	cfg.Logging.Enabled = false
	cfg.Settings.SyncInterval = 0.005
	cfg.Settings.ChangeTimeout = 0.03
	cfg.Settings.EchoWindow = 0.03
	cfg.Startup.DelaySeconds = 0
	cfg.Startup.RetryInterval = 0.005
	cfg.Startup.BootThreshold = 0
	cfg.Startup.ReadinessInterval = 0.005
	cfg.Startup.ReadinessTimeout = 0.05
	cfg.Status.PollInterval = 0.005
	return cfg
}

// MemoryFactory returns a SourceFactory that always hands out the same two
// in-memory sources.
func MemoryFactory(system, mixer *memory.Source) levelsync.SourceFactory {
	return func(levelsync.Config) (levelsync.Source, levelsync.Source, error) {
		return system, mixer, nil
	}
}

// WaitForStatus waits until the session status satisfies cond.
func WaitForStatus(t *testing.T, s *levelsync.Session, timeout time.Duration, cond func(levelsync.Status) bool) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return cond(s.Status())
	})
}

// StartSession starts s and stops it when the test ends.
func StartSession(t *testing.T, s *levelsync.Session) {
	t.Helper()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Stop(context.Background()) //nolint:errcheck // always nil
	})
}
