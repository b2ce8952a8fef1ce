package levelsync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// DefaultConnectTimeout bounds a single Connect call.
const DefaultConnectTimeout = 10 * time.Second

var (
	connectID        = pipz.NewIdentity("levelsync:connect", "Connects a source")
	connectTimeoutID = pipz.NewIdentity("levelsync:connect-timeout", "Bounds a single connect attempt")
)

// Handle is a live connection to a Source. It implements Port so the Engine
// and the Monitor can borrow it without reaching Connect or Disconnect.
type Handle struct {
	source Source
	rt     Runtime
	state  atomic.Int32
	closed atomic.Bool
}

func newHandle(src Source, rt Runtime) *Handle {
	h := &Handle{source: src, rt: rt}
	h.state.Store(int32(Disconnected))
	return h
}

// Name returns the source name.
func (h *Handle) Name() string { return h.source.Name() }

// Kind returns the source scale.
func (h *Handle) Kind() Kind { return h.source.Kind() }

// State returns the current connection state.
func (h *Handle) State() ConnState { return ConnState(h.state.Load()) }

// Read samples the source.
func (h *Handle) Read(ctx context.Context) (Level, error) {
	if h.closed.Load() {
		return Level{}, fmt.Errorf("%s: %w", h.Name(), ErrNotConnected)
	}
	return h.source.Read(ctx)
}

// Write applies a level to the source.
func (h *Handle) Write(ctx context.Context, level Level) error {
	if h.closed.Load() {
		return fmt.Errorf("%s: %w", h.Name(), ErrNotConnected)
	}
	return h.source.Write(ctx, level)
}

// Healthy reports whether the source responds. A closed handle is never healthy.
func (h *Handle) Healthy(ctx context.Context) bool {
	if h.closed.Load() {
		return false
	}
	return h.source.Healthy(ctx)
}

// Close disconnects the source. Subsequent calls are no-ops.
func (h *Handle) Close(ctx context.Context) error {
	if h.closed.Swap(true) {
		return nil
	}
	err := h.source.Disconnect()
	h.transition(ctx, Disconnected)
	return err
}

// observe applies a health observation from the Monitor.
func (h *Handle) observe(ctx context.Context, healthy bool) {
	if h.closed.Load() {
		return
	}
	switch {
	case healthy && h.State() == Disconnected:
		h.transition(ctx, Connected)
	case !healthy && h.State() == Connected:
		h.transition(ctx, Disconnected)
	}
}

// transition updates the state and emits a state change event if changed.
func (h *Handle) transition(ctx context.Context, to ConnState) {
	from := ConnState(h.state.Swap(int32(to)))
	if from == to {
		return
	}
	capitan.Emit(ctx, ConnStateChanged,
		KeySource.Field(h.Name()),
		KeyOldState.Field(from.String()),
		KeyNewState.Field(to.String()),
	)
	h.rt.Metrics.OnConnStateChange(h.Name(), from, to)
	h.rt.Logger.Debug("connection state changed", "source", h.Name(), "from", from, "to", to)
}

// BootPolicy describes the readiness wait used when the process starts
// shortly after the machine booted.
type BootPolicy struct {
	// Threshold is the uptime below which the launch counts as a boot launch.
	Threshold time.Duration

	// Delay is waited once before the first connect attempt.
	Delay time.Duration

	// Interval and Timeout drive the readiness check loop.
	Interval time.Duration
	Timeout  time.Duration

	// Uptime reports system uptime. Nil disables boot detection.
	Uptime func() (time.Duration, error)

	// Readiness gates every source's connect attempts during a boot launch.
	// Nil falls back to the connecting source when it is a Prober.
	Readiness Prober
}

// BootPolicyFrom builds the policy described by the startup section.
func BootPolicyFrom(s Startup) BootPolicy {
	return BootPolicy{
		Threshold: seconds(s.BootThreshold),
		Delay:     seconds(s.DelaySeconds),
		Interval:  seconds(s.ReadinessInterval),
		Timeout:   seconds(s.ReadinessTimeout),
		Uptime:    SystemUptime,
	}
}

// Supervisor owns connection lifecycles: readiness wait, bounded retry and
// disconnect. It creates Handles; nothing else calls Connect on a Source.
type Supervisor struct {
	policy  RetryPolicy
	boot    BootPolicy
	timeout time.Duration
	rt      Runtime
	delayed atomic.Bool
}

// NewSupervisor creates a Supervisor.
func NewSupervisor(policy RetryPolicy, boot BootPolicy, rt Runtime) *Supervisor {
	return &Supervisor{
		policy:  policy,
		boot:    boot,
		timeout: DefaultConnectTimeout,
		rt:      rt.withDefaults(),
	}
}

// ConnectTimeout overrides the per-attempt timeout. Zero disables it.
func (s *Supervisor) ConnectTimeout(d time.Duration) *Supervisor {
	s.timeout = d
	return s
}

// Booting reports whether the process was launched within the boot threshold.
// Uptime errors count as not booting.
func (s *Supervisor) Booting() bool {
	if s.boot.Uptime == nil || s.boot.Threshold <= 0 {
		return false
	}
	up, err := s.boot.Uptime()
	if err != nil {
		s.rt.Logger.Debug("uptime unavailable, skipping boot wait", "error", err)
		return false
	}
	return up < s.boot.Threshold
}

// Connect establishes a connection to src, retrying per policy. During a boot
// launch the boot delay runs before the first Connect of this Supervisor only,
// and every attempt first waits for readiness. On success the
// returned Handle is Connected. On exhaustion the error is a *ConnectError and
// wraps ErrConnect; a cancelled ctx returns ctx.Err().
func (s *Supervisor) Connect(ctx context.Context, src Source) (*Handle, error) {
	h := newHandle(src, s.rt)
	h.transition(ctx, Connecting)

	booting := s.Booting()
	if booting && !s.delayed.Swap(true) {
		s.rt.Logger.Info("boot launch detected, waiting for system", "source", src.Name(), "delay", s.boot.Delay)
		if err := sleep(ctx, s.rt.Clock, s.boot.Delay); err != nil {
			h.transition(ctx, Disconnected)
			return nil, err
		}
	}

	attempts := s.policy.Attempts()
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if booting {
			if err := s.awaitReady(ctx, src); err != nil {
				h.transition(ctx, Disconnected)
				return nil, err
			}
		}

		last = s.attempt(ctx, src)
		s.rt.Metrics.OnConnectAttempt(src.Name(), last)
		if last == nil {
			s.rt.Logger.Info("connected", "source", src.Name(), "attempt", attempt)
			h.transition(ctx, Connected)
			return h, nil
		}
		if ctx.Err() != nil {
			h.transition(ctx, Disconnected)
			return nil, ctx.Err()
		}

		delay := s.policy.Delay(attempt)
		capitan.Emit(ctx, ConnectAttemptFailed,
			KeySource.Field(src.Name()),
			KeyAttempt.Field(attempt),
			KeyDelay.Field(delay),
			KeyError.Field(last.Error()),
		)
		s.rt.Logger.Warn("connect attempt failed",
			"source", src.Name(), "attempt", attempt, "of", attempts, "error", last)

		if err := sleep(ctx, s.rt.Clock, delay); err != nil {
			h.transition(ctx, Disconnected)
			return nil, err
		}
	}

	h.transition(ctx, Disconnected)
	return nil, &ConnectError{Source: src.Name(), Attempts: attempts, Err: last}
}

// attempt runs one Connect through a timeout pipeline.
func (s *Supervisor) attempt(ctx context.Context, src Source) error {
	var p pipz.Chainable[Source] = pipz.Effect(connectID, func(ctx context.Context, src Source) error {
		return src.Connect(ctx)
	})
	if s.timeout > 0 {
		p = pipz.NewTimeout(connectTimeoutID, p, s.timeout)
	}
	if _, err := p.Process(ctx, src); err != nil {
		if errors.Is(err, ErrConnect) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
	return nil
}

// awaitReady polls the boot readiness check until it passes or the timeout
// elapses. A timeout is not an error; the caller proceeds anyway.
func (s *Supervisor) awaitReady(ctx context.Context, src Source) error {
	prober := s.boot.Readiness
	if prober == nil {
		p, ok := src.(Prober)
		if !ok {
			return nil
		}
		prober = p
	}
	start := s.rt.Clock.Now()
	for {
		if prober.Probe(ctx) {
			return nil
		}
		remaining := s.boot.Timeout - s.rt.Clock.Since(start)
		if remaining <= 0 {
			capitan.Emit(ctx, ReadinessTimedOut,
				KeySource.Field(src.Name()),
				KeyDelay.Field(s.boot.Timeout),
			)
			s.rt.Logger.Warn("system readiness timeout reached, proceeding anyway", "source", src.Name())
			return nil
		}
		wait := min(s.boot.Interval, remaining)
		if wait <= 0 {
			wait = remaining
		}
		if err := sleep(ctx, s.rt.Clock, wait); err != nil {
			return err
		}
	}
}
