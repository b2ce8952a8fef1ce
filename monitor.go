package levelsync

import (
	"context"
	"fmt"
	"time"
)

// DefaultMonitorInterval is how often the Monitor probes the target.
const DefaultMonitorInterval = time.Second

// Monitor probes a Port's health independently of the Engine and reports
// transitions to the presentation layer and the owning Handle. It never
// touches SyncState.
type Monitor struct {
	port     Port
	handle   *Handle
	interval time.Duration
	rt       Runtime

	last  bool
	known bool
}

// NewMonitor creates a Monitor for port. When port is a *Handle its
// connection state follows the observed health.
func NewMonitor(port Port, interval time.Duration, rt Runtime) *Monitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	m := &Monitor{port: port, interval: interval, rt: rt.withDefaults()}
	if h, ok := port.(*Handle); ok {
		m.handle = h
	}
	return m
}

// Check probes once and reports a transition. The first probe always
// reports. It returns the observed health.
func (m *Monitor) Check(ctx context.Context) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			m.rt.Logger.Error("health probe panicked", "source", m.port.Name(), "panic", fmt.Sprint(r))
			healthy = false
			m.report(ctx, false)
		}
	}()
	healthy = m.port.Healthy(ctx)
	m.report(ctx, healthy)
	return healthy
}

func (m *Monitor) report(ctx context.Context, healthy bool) {
	if m.known && m.last == healthy {
		return
	}
	m.known = true
	m.last = healthy

	kind := StatusUnhealthy
	if healthy {
		kind = StatusHealthy
	}
	m.rt.Logger.Info("status changed", "source", m.port.Name(), "status", kind)
	m.rt.Metrics.OnHealthChange(m.port.Name(), healthy)
	m.rt.Presenter.Present(ctx, StatusEvent{
		Kind:   kind,
		Source: m.port.Name(),
		At:     m.rt.Clock.Now(),
	})
	if m.handle != nil {
		m.handle.observe(ctx, healthy)
	}
}

// Run probes every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		m.Check(ctx)
		if err := sleep(ctx, m.rt.Clock, m.interval); err != nil {
			return nil
		}
	}
}
