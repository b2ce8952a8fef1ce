// Package memory provides in-process level sources for simulation and tests.
// Faults can be scripted: failed connects, reads and writes, panics, and
// health or readiness flips.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/zoobzio/levelsync"
)

// Source is a levelsync.Source holding a single level in memory.
type Source struct {
	name string
	kind levelsync.Kind

	mu        sync.Mutex
	value     levelsync.Level
	connected bool
	healthy   bool
	ready     bool

	failConnects int
	failReads    int
	failWrites   int
	panicReads   int

	connectAttempts int
	writes          []levelsync.Level
}

// NewVolume creates a percentage source starting at v.
func NewVolume(name string, v int) *Source {
	return newSource(name, levelsync.Percent(v))
}

// NewGain creates a decibel source starting at db.
func NewGain(name string, db float64) *Source {
	return newSource(name, levelsync.Decibels(db))
}

func newSource(name string, l levelsync.Level) *Source {
	return &Source{name: name, kind: l.Kind, value: l, healthy: true, ready: true}
}

// Name implements levelsync.Source.
func (s *Source) Name() string { return s.name }

// Kind implements levelsync.Source.
func (s *Source) Kind() levelsync.Kind { return s.kind }

// Connect implements levelsync.Source.
func (s *Source) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectAttempts++
	if s.failConnects > 0 {
		s.failConnects--
		return fmt.Errorf("%s: %w: not running", s.name, levelsync.ErrConnect)
	}
	s.connected = true
	return nil
}

// Disconnect implements levelsync.Source.
func (s *Source) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

// Read implements levelsync.Source.
func (s *Source) Read(_ context.Context) (levelsync.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicReads > 0 {
		s.panicReads--
		panic(s.name + ": scripted panic")
	}
	if !s.connected {
		return levelsync.Level{}, fmt.Errorf("%s: %w", s.name, levelsync.ErrNotConnected)
	}
	if s.failReads > 0 {
		s.failReads--
		return levelsync.Level{}, fmt.Errorf("%s: %w", s.name, levelsync.ErrTransientRead)
	}
	return s.value, nil
}

// Write implements levelsync.Source. The level is converted to the source's
// kind range by clamping; writing the wrong kind fails.
func (s *Source) Write(_ context.Context, l levelsync.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return fmt.Errorf("%s: %w: %w", s.name, levelsync.ErrWrite, levelsync.ErrNotConnected)
	}
	if l.Kind != s.kind {
		return fmt.Errorf("%s: %w: %w", s.name, levelsync.ErrWrite, levelsync.ErrKindMismatch)
	}
	if s.failWrites > 0 {
		s.failWrites--
		return fmt.Errorf("%s: %w", s.name, levelsync.ErrWrite)
	}
	s.value = l
	s.writes = append(s.writes, l)
	return nil
}

// Healthy implements levelsync.Source.
func (s *Source) Healthy(_ context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected && s.healthy
}

// Probe implements levelsync.Prober.
func (s *Source) Probe(_ context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Set changes the level as a user would, without recording a write.
func (s *Source) Set(l levelsync.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = l
}

// Value returns the current level.
func (s *Source) Value() levelsync.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Writes returns every level written through Write, oldest first.
func (s *Source) Writes() []levelsync.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]levelsync.Level(nil), s.writes...)
}

// ResetWrites forgets recorded writes.
func (s *Source) ResetWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = nil
}

// Connected reports whether Connect succeeded and Disconnect was not called since.
func (s *Source) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// ConnectAttempts returns the number of Connect calls.
func (s *Source) ConnectAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectAttempts
}

// FailConnects makes the next n Connect calls fail.
func (s *Source) FailConnects(n int) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failConnects = n
	return s
}

// FailReads makes the next n Read calls fail.
func (s *Source) FailReads(n int) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReads = n
	return s
}

// FailWrites makes the next n Write calls fail.
func (s *Source) FailWrites(n int) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = n
	return s
}

// PanicReads makes the next n Read calls panic.
func (s *Source) PanicReads(n int) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panicReads = n
	return s
}

// SetHealthy flips the health reported while connected.
func (s *Source) SetHealthy(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = ok
}

// SetReady flips the readiness probe.
func (s *Source) SetReady(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ok
}

var (
	_ levelsync.Source = (*Source)(nil)
	_ levelsync.Prober = (*Source)(nil)
)
