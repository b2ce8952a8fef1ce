package levelsync

import (
	"errors"
	"fmt"
)

// Sentinel errors. Concrete errors returned by sources and the supervisor
// wrap one of these so callers can classify them with errors.Is.
var (
	// ErrConnect reports that a backing system is absent or refused the
	// handshake. Retried by the Supervisor, then surfaced as disconnected.
	ErrConnect = errors.New("connect failed")

	// ErrTransientRead reports a single failed sample. The tick is skipped.
	ErrTransientRead = errors.New("transient read failure")

	// ErrWrite reports a failed write. Logged; the tick still completes.
	ErrWrite = errors.New("write failed")

	// ErrPartialWrite accompanies ErrWrite when a multi-channel write reached
	// some channels. The level counts as written.
	ErrPartialWrite = errors.New("partial write")

	// ErrConfig reports a malformed configuration value that was replaced by
	// its default.
	ErrConfig = errors.New("invalid configuration")

	// ErrNotConnected is returned by a Handle used after it was closed.
	ErrNotConnected = errors.New("not connected")

	// ErrUnsupported is returned by backends on platforms they do not serve.
	ErrUnsupported = errors.New("unsupported platform")

	// ErrRunning is returned by Session.Start when a session is already active.
	ErrRunning = errors.New("session already running")

	// ErrKindMismatch is returned when a source reports a level on the wrong scale.
	ErrKindMismatch = errors.New("level kind mismatch")
)

// ConnectError carries the source name and the number of attempts made.
type ConnectError struct {
	Source   string
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("%s: connect failed after %d attempt(s): %v", e.Source, e.Attempts, e.Err)
}

// Unwrap exposes both the sentinel and the last underlying cause.
func (e *ConnectError) Unwrap() []error {
	return []error{ErrConnect, e.Err}
}

// ConfigError names the field that fell back to its default.
type ConfigError struct {
	Field string
	Value any
	Rule  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s=%v violates %q, using default", e.Field, e.Value, e.Rule)
}

// Unwrap returns ErrConfig.
func (e *ConfigError) Unwrap() error {
	return ErrConfig
}
