package voicemeeter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zoobzio/levelsync"
	"github.com/zoobzio/levelsync/internal/logging"
)

// Source exposes the gain of one or more buses as a decibel level. Reads use
// the first bus; writes go to every bus.
type Source struct {
	remote   Remote
	channels []int
	logger   *slog.Logger

	mu       sync.Mutex
	loggedIn bool
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger used for per-bus write failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// New creates a Source for the given bus indices. An empty list means bus 0.
func New(remote Remote, channels []int, opts ...Option) *Source {
	if len(channels) == 0 {
		channels = []int{0}
	}
	s := &Source{
		remote:   remote,
		channels: append([]int(nil), channels...),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements levelsync.Source.
func (s *Source) Name() string { return "voicemeeter" }

// Kind implements levelsync.Source.
func (s *Source) Kind() levelsync.Kind { return levelsync.Decibel }

// Channels returns the configured bus indices.
func (s *Source) Channels() []int { return append([]int(nil), s.channels...) }

// Connect logs in to the Remote API.
func (s *Source) Connect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loggedIn {
		return nil
	}
	if err := s.remote.Login(); err != nil {
		return fmt.Errorf("%w: %w", levelsync.ErrConnect, err)
	}
	s.loggedIn = true
	return nil
}

// Disconnect logs out. Safe to call when not logged in.
func (s *Source) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return nil
	}
	s.loggedIn = false
	return s.remote.Logout()
}

// Read returns the gain of the first bus.
func (s *Source) Read(_ context.Context) (levelsync.Level, error) {
	if err := s.ready(); err != nil {
		return levelsync.Level{}, fmt.Errorf("%w: %w", levelsync.ErrTransientRead, err)
	}
	// Refreshes the parameter cache on the Voicemeeter side.
	if _, err := s.remote.IsParametersDirty(); err != nil {
		return levelsync.Level{}, fmt.Errorf("%w: %w", levelsync.ErrTransientRead, err)
	}
	v, err := s.remote.GetParameterFloat(GainParam(s.channels[0]))
	if err != nil {
		return levelsync.Level{}, fmt.Errorf("%w: %w", levelsync.ErrTransientRead, err)
	}
	return levelsync.Decibels(float64(v)), nil
}

// Write sets every configured bus. A failing bus does not stop the others;
// the failures are joined into the returned error, which also wraps
// levelsync.ErrPartialWrite when at least one bus took the gain.
func (s *Source) Write(_ context.Context, l levelsync.Level) error {
	if l.Kind != levelsync.Decibel {
		return fmt.Errorf("%w: %w", levelsync.ErrWrite, levelsync.ErrKindMismatch)
	}
	if err := s.ready(); err != nil {
		return fmt.Errorf("%w: %w", levelsync.ErrWrite, err)
	}
	var errs []error
	for _, bus := range s.channels {
		if err := s.remote.SetParameterFloat(GainParam(bus), float32(l.Value)); err != nil {
			s.logger.Warn("failed to set bus gain", "bus", bus, "error", err)
			errs = append(errs, fmt.Errorf("bus %d: %w", bus, err))
		}
	}
	switch {
	case len(errs) == 0:
		return nil
	case len(errs) < len(s.channels):
		return fmt.Errorf("%w: %w: %w", levelsync.ErrWrite, levelsync.ErrPartialWrite, errors.Join(errs...))
	default:
		return fmt.Errorf("%w: %w", levelsync.ErrWrite, errors.Join(errs...))
	}
}

// Healthy reports whether the first bus gain can be read.
func (s *Source) Healthy(_ context.Context) bool {
	if s.ready() != nil {
		return false
	}
	_, err := s.remote.GetParameterFloat(GainParam(s.channels[0]))
	return err == nil
}

func (s *Source) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return levelsync.ErrNotConnected
	}
	return nil
}

var _ levelsync.Source = (*Source)(nil)
