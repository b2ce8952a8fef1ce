package levelsync

import "github.com/zoobzio/capitan"

// Field keys for levelsync events.
var (
	// KeySource is the name of the source an event concerns.
	KeySource = capitan.NewStringKey("source")

	// KeyTarget is the name of the target side of a session.
	KeyTarget = capitan.NewStringKey("target")

	// KeyState is the current state of a Reloader or Handle.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyStatus is the StatusKind of a presentation event.
	KeyStatus = capitan.NewStringKey("status")

	// KeyDirection is the direction of a propagation.
	KeyDirection = capitan.NewStringKey("direction")

	// KeyFrom is the level before a propagation, formatted.
	KeyFrom = capitan.NewStringKey("from")

	// KeyTo is the level written by a propagation, formatted.
	KeyTo = capitan.NewStringKey("to")

	// KeyField is the config key of a reset field.
	KeyField = capitan.NewStringKey("field")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyAttempt is the 1-based connect attempt number.
	KeyAttempt = capitan.NewIntKey("attempt")

	// KeyDelay is the wait before the next attempt.
	KeyDelay = capitan.NewDurationKey("delay")

	// KeyDebounce is the configured debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyContentType is the codec content type used by a Reloader.
	KeyContentType = capitan.NewStringKey("content_type")
)
