package levelsync

import (
	"context"
	"log/slog"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"

	"github.com/zoobzio/levelsync/internal/logging"
)

// Runtime carries the ambient dependencies every component needs. It is
// passed by value at construction; nothing in the package reads globals.
type Runtime struct {
	Logger    *slog.Logger
	Clock     clockz.Clock
	Metrics   MetricsProvider
	Presenter Presenter
}

// withDefaults fills unset fields: a discarding logger, the real clock, no-op
// metrics and the capitan-backed presenter.
func (r Runtime) withDefaults() Runtime {
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.Clock == nil {
		r.Clock = clockz.RealClock
	}
	if r.Metrics == nil {
		r.Metrics = NoOpMetricsProvider{}
	}
	if r.Presenter == nil {
		r.Presenter = SignalPresenter{}
	}
	return r
}

// StatusKind is a discrete presentation status.
type StatusKind string

const (
	StatusHealthy   StatusKind = "healthy"
	StatusUnhealthy StatusKind = "unhealthy"
	StatusStarted   StatusKind = "started"
	StatusStopped   StatusKind = "stopped"
)

// StatusEvent is what the presentation layer receives.
type StatusEvent struct {
	Kind   StatusKind
	Source string
	At     time.Time
	Detail string
}

// Presenter receives status events. Implementations must not block; the core
// never waits on presentation.
type Presenter interface {
	Present(ctx context.Context, ev StatusEvent)
}

// SignalPresenter publishes status events on the StatusChanged signal.
// capitan delivers them to hooks asynchronously.
type SignalPresenter struct{}

// Present emits ev.
func (SignalPresenter) Present(ctx context.Context, ev StatusEvent) {
	capitan.Emit(ctx, StatusChanged,
		KeyStatus.Field(string(ev.Kind)),
		KeySource.Field(ev.Source),
		KeyError.Field(ev.Detail),
	)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, ev StatusEvent)

// Present calls f.
func (f PresenterFunc) Present(ctx context.Context, ev StatusEvent) { f(ctx, ev) }

// Presenters fans an event out to several presenters in order.
type Presenters []Presenter

// Present delivers ev to each presenter.
func (ps Presenters) Present(ctx context.Context, ev StatusEvent) {
	for _, p := range ps {
		p.Present(ctx, ev)
	}
}
