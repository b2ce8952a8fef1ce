package levelsync

import "context"

// Source is one side of the synchronization: something with a level that can
// be read and written. Implementations must tolerate the backing system being
// absent at call time and report that as an error, never a panic.
type Source interface {
	// Name identifies the source in logs, metrics and events.
	Name() string

	// Kind is the scale Read returns and Write expects.
	Kind() Kind

	// Connect establishes the connection. Errors should wrap ErrConnect.
	Connect(ctx context.Context) error

	// Disconnect releases the connection. Safe to call when not connected.
	Disconnect() error

	// Read samples the current level. Errors should wrap ErrTransientRead.
	Read(ctx context.Context) (Level, error)

	// Write applies a level, best effort. Errors should wrap ErrWrite.
	Write(ctx context.Context, level Level) error

	// Healthy reports whether the backing system currently responds.
	Healthy(ctx context.Context) bool
}

// Prober is implemented by sources that expose a cheap readiness check used
// while waiting for the system to finish booting.
type Prober interface {
	Probe(ctx context.Context) bool
}

// Port is the read/write surface of a connected source. The Engine and the
// Monitor only ever see a Port; connection lifecycle stays with the Supervisor.
type Port interface {
	Name() string
	Kind() Kind
	Read(ctx context.Context) (Level, error)
	Write(ctx context.Context, level Level) error
	Healthy(ctx context.Context) bool
}
