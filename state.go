package levelsync

// ConnState is the lifecycle state of one Source as tracked by the Supervisor.
type ConnState int32

const (
	// Disconnected means no live connection exists, either because none was
	// attempted yet, retries were exhausted, or a failure was detected.
	Disconnected ConnState = iota

	// Connecting means the Supervisor is waiting for readiness or retrying.
	Connecting

	// Connected means the handle is live and may be read and written.
	Connected
)

// String returns the string representation of the state.
func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Direction records which side produced the last propagated change.
type Direction int32

const (
	// None means nothing was propagated since the engine primed.
	None Direction = iota

	// FromSource means the last change flowed source -> target.
	FromSource

	// FromTarget means the last change flowed target -> source.
	FromTarget
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case None:
		return "none"
	case FromSource:
		return "from_source"
	case FromTarget:
		return "from_target"
	default:
		return "unknown"
	}
}

// FeedState represents the current state of a config Reloader.
type FeedState int32

const (
	// FeedLoading indicates the Reloader has not yet processed any configuration.
	FeedLoading FeedState = iota

	// FeedHealthy indicates a valid configuration has been applied.
	FeedHealthy

	// FeedDegraded indicates the last change failed to decode or apply. The
	// previous configuration remains active.
	FeedDegraded

	// FeedEmpty indicates the initial load failed and no configuration was
	// ever applied. The Reloader keeps watching.
	FeedEmpty
)

// String returns the string representation of the state.
func (s FeedState) String() string {
	switch s {
	case FeedLoading:
		return "loading"
	case FeedHealthy:
		return "healthy"
	case FeedDegraded:
		return "degraded"
	case FeedEmpty:
		return "empty"
	default:
		return "unknown"
	}
}
