package levelsync

import "github.com/zoobzio/capitan"

// Session lifecycle signals.
var (
	// SessionStarted is emitted when a Session spawns its engine and monitor.
	SessionStarted = capitan.NewSignal(
		"levelsync.session.started",
		"Sync session started",
	)

	// SessionStopped is emitted once a Session has joined (or abandoned) its goroutines.
	SessionStopped = capitan.NewSignal(
		"levelsync.session.stopped",
		"Sync session stopped",
	)

	// SessionAborted is emitted when the engine gives up because a source
	// could not be connected.
	SessionAborted = capitan.NewSignal(
		"levelsync.session.aborted",
		"Sync session aborted",
	)

	// StatusChanged carries every StatusEvent delivered by SignalPresenter.
	StatusChanged = capitan.NewSignal(
		"levelsync.status.changed",
		"Presentation status changed",
	)
)

// Connection signals.
var (
	// ConnStateChanged is emitted when a Handle transitions between states.
	ConnStateChanged = capitan.NewSignal(
		"levelsync.conn.state.changed",
		"Connection state transition",
	)

	// ConnectAttemptFailed is emitted for every failed connect attempt.
	ConnectAttemptFailed = capitan.NewSignal(
		"levelsync.conn.attempt.failed",
		"Connect attempt failed",
	)

	// ReadinessTimedOut is emitted when the boot readiness wait hits its cap.
	ReadinessTimedOut = capitan.NewSignal(
		"levelsync.conn.readiness.timeout",
		"Readiness wait timed out, proceeding",
	)
)

// Engine signals.
var (
	// LevelPropagated is emitted for every write the engine issues.
	LevelPropagated = capitan.NewSignal(
		"levelsync.engine.propagated",
		"Level propagated",
	)

	// EchoSuppressed is emitted when a target delta is treated as our own echo.
	EchoSuppressed = capitan.NewSignal(
		"levelsync.engine.echo.suppressed",
		"Echo suppressed",
	)

	// TickFailed is emitted when a tick returns an error other than a
	// transient read, or panics.
	TickFailed = capitan.NewSignal(
		"levelsync.engine.tick.failed",
		"Engine tick failed",
	)
)

// Config reload signals.
var (
	// ReloaderStarted is emitted when a Reloader begins watching.
	ReloaderStarted = capitan.NewSignal(
		"levelsync.reloader.started",
		"Config watching started",
	)

	// ReloaderStopped is emitted when a Reloader stops watching.
	ReloaderStopped = capitan.NewSignal(
		"levelsync.reloader.stopped",
		"Config watching stopped",
	)

	// ReloaderStateChanged is emitted when a Reloader transitions between states.
	ReloaderStateChanged = capitan.NewSignal(
		"levelsync.reloader.state.changed",
		"Reloader state transition",
	)

	// ConfigChangeReceived is emitted when raw data arrives from the watcher.
	ConfigChangeReceived = capitan.NewSignal(
		"levelsync.reloader.change.received",
		"Raw config change received",
	)

	// ConfigDecodeFailed is emitted when the codec rejects the data.
	ConfigDecodeFailed = capitan.NewSignal(
		"levelsync.reloader.decode.failed",
		"Config decode failed",
	)

	// ConfigFieldReset is emitted for each invalid field replaced by its default.
	ConfigFieldReset = capitan.NewSignal(
		"levelsync.reloader.field.reset",
		"Config field reset to default",
	)

	// ConfigApplyFailed is emitted when the apply pipeline fails.
	ConfigApplyFailed = capitan.NewSignal(
		"levelsync.reloader.apply.failed",
		"Config apply failed",
	)

	// ConfigApplied is emitted when a configuration is applied.
	ConfigApplied = capitan.NewSignal(
		"levelsync.reloader.applied",
		"Config applied",
	)
)
