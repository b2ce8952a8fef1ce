package levelsync

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus.
// Implement this interface to receive callbacks on engine, supervisor and
// reloader events. pkg/prometheus ships a ready implementation.
type MetricsProvider interface {
	// OnTick is called after every engine tick with its outcome and duration.
	OnTick(outcome Outcome, duration time.Duration)

	// OnPropagated is called for every write the engine issues.
	OnPropagated(dir Direction)

	// OnConnectAttempt is called after each connect attempt. err is nil on success.
	OnConnectAttempt(source string, err error)

	// OnConnStateChange is called when a Handle transitions between states.
	OnConnStateChange(source string, from, to ConnState)

	// OnHealthChange is called when the monitor observes a health transition.
	OnHealthChange(source string, healthy bool)

	// OnFeedStateChange is called when a Reloader transitions between states.
	OnFeedStateChange(from, to FeedState)

	// OnReload is called after a Reloader processed a change. Stage is empty on
	// success, otherwise "decode" or "apply".
	OnReload(stage string, duration time.Duration)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnTick(_ Outcome, _ time.Duration)          {}
func (NoOpMetricsProvider) OnPropagated(_ Direction)                   {}
func (NoOpMetricsProvider) OnConnectAttempt(_ string, _ error)         {}
func (NoOpMetricsProvider) OnConnStateChange(_ string, _, _ ConnState) {}
func (NoOpMetricsProvider) OnHealthChange(_ string, _ bool)            {}
func (NoOpMetricsProvider) OnFeedStateChange(_, _ FeedState)           {}
func (NoOpMetricsProvider) OnReload(_ string, _ time.Duration)         {}
