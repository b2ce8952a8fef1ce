package levelsync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
)

// DefaultJoinTimeout is how long Stop waits for each goroutine.
const DefaultJoinTimeout = 2 * time.Second

// DefaultErrorHistory is the number of incidents a Session retains.
const DefaultErrorHistory = 16

// SourceFactory builds fresh, unconnected sources for a configuration. It is
// called on every Start so a reload picks up new settings.
type SourceFactory func(cfg Config) (source, target Source, err error)

// ConfigLoader re-reads configuration for Reload.
type ConfigLoader func() (Config, error)

// Status is a point-in-time view of a Session.
type Status struct {
	Running  bool
	Healthy  bool
	Source   ConnState
	Target   ConnState
	Snapshot Snapshot
}

// Session owns one run of the Supervisor, Engine and Monitor. Start and Stop
// may be called repeatedly; each Start gets a fresh SyncState.
type Session struct {
	factory     SourceFactory
	loader      ConfigLoader
	uptime      func() (time.Duration, error)
	joinTimeout time.Duration
	rt          Runtime

	mu     sync.Mutex
	cfg    Config
	cancel context.CancelFunc
	done   []chan struct{}

	running atomic.Bool
	healthy atomic.Bool
	engine  atomic.Pointer[Engine]
	source  atomic.Pointer[Handle]
	target  atomic.Pointer[Handle]

	errorHistory *errorRing
}

// NewSession creates a stopped Session.
//
// Example:
//
//	session := levelsync.NewSession(cfg, factory, rt).
//	    Loader(func() (levelsync.Config, error) { ... }).
//	    ErrorHistorySize(20)
//	if err := session.Start(ctx); err != nil { ... }
func NewSession(cfg Config, factory SourceFactory, rt Runtime) *Session {
	return &Session{
		factory:      factory,
		uptime:       SystemUptime,
		joinTimeout:  DefaultJoinTimeout,
		rt:           rt.withDefaults(),
		cfg:          cfg,
		errorHistory: newErrorRing(DefaultErrorHistory),
	}
}

// Loader sets the function Reload uses to re-read configuration.
func (s *Session) Loader(fn ConfigLoader) *Session {
	s.loader = fn
	return s
}

// Uptime overrides boot detection. Nil disables it.
func (s *Session) Uptime(fn func() (time.Duration, error)) *Session {
	s.uptime = fn
	return s
}

// JoinTimeout sets how long Stop waits for each goroutine before abandoning it.
func (s *Session) JoinTimeout(d time.Duration) *Session {
	s.joinTimeout = d
	return s
}

// ErrorHistorySize sets the number of recent incidents to retain.
func (s *Session) ErrorHistorySize(n int) *Session {
	s.errorHistory = newErrorRing(n)
	return s
}

// Running reports whether the session is active.
func (s *Session) Running() bool { return s.running.Load() }

// Config returns the configuration of the current (or next) run.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// ErrorHistory returns recent incidents, oldest first.
func (s *Session) ErrorHistory() []Incident {
	return s.errorHistory.all()
}

// Status returns the current view.
func (s *Session) Status() Status {
	st := Status{
		Running: s.running.Load(),
		Healthy: s.healthy.Load(),
	}
	if h := s.source.Load(); h != nil {
		st.Source = h.State()
	}
	if h := s.target.Load(); h != nil {
		st.Target = h.State()
	}
	if e := s.engine.Load(); e != nil {
		st.Snapshot = e.Snapshot()
	}
	return st
}

// Start builds sources from the configuration and spawns the engine and
// monitor goroutines. Connection happens in the background; Start returns
// ErrRunning if a run is already active.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return ErrRunning
	}
	// A previous run may have aborted on its own; make sure it is joined.
	s.stopLocked(ctx)

	src, tgt, err := s.factory(s.cfg)
	if err != nil {
		s.record("start", err)
		return fmt.Errorf("build sources: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	engineDone := make(chan struct{})
	monitorDone := make(chan struct{})
	ready := make(chan *Handle, 1)

	s.cancel = cancel
	s.done = []chan struct{}{engineDone, monitorDone}
	s.engine.Store(nil)
	s.source.Store(nil)
	s.target.Store(nil)
	s.healthy.Store(false)
	s.running.Store(true)

	go s.runEngine(runCtx, s.cfg, src, tgt, ready, engineDone)
	go s.runMonitor(runCtx, s.cfg, ready, monitorDone)

	capitan.Emit(ctx, SessionStarted,
		KeySource.Field(src.Name()),
		KeyTarget.Field(tgt.Name()),
	)
	s.rt.Logger.Info("sync session started", "source", src.Name(), "target", tgt.Name())
	s.rt.Presenter.Present(ctx, StatusEvent{Kind: StatusStarted, At: s.rt.Clock.Now()})
	return nil
}

// Stop cancels the run and joins each goroutine with a bounded wait.
// Stragglers are abandoned with a warning. Stop on a stopped session is a no-op.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return nil
	}
	s.stopLocked(ctx)
	return nil
}

func (s *Session) stopLocked(ctx context.Context) {
	if s.cancel == nil {
		return
	}
	s.running.Store(false)
	s.cancel()

	names := []string{"engine", "monitor"}
	for i, done := range s.done {
		if !s.join(done) {
			s.rt.Logger.Warn("goroutine did not stop in time, abandoning", "goroutine", names[i], "timeout", s.joinTimeout)
		}
	}
	s.cancel = nil
	s.done = nil
	s.healthy.Store(false)

	capitan.Emit(ctx, SessionStopped)
	s.rt.Logger.Info("sync session stopped")
	s.rt.Presenter.Present(ctx, StatusEvent{Kind: StatusStopped, At: s.rt.Clock.Now()})
}

func (s *Session) join(done <-chan struct{}) bool {
	if s.joinTimeout <= 0 {
		<-done
		return true
	}
	timer := s.rt.Clock.NewTimer(s.joinTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C():
		return false
	}
}

// Reload stops the session, re-reads configuration through the Loader and
// starts again with fresh sources and state. A loader failure keeps the
// previous configuration.
func (s *Session) Reload(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	if s.loader != nil {
		cfg, err := s.loader()
		if err != nil {
			s.record("reload", err)
			s.rt.Logger.Error("reload config failed, keeping previous", "error", err)
		} else {
			s.mu.Lock()
			s.cfg = cfg
			s.mu.Unlock()
		}
	}
	return s.Start(ctx)
}

// Apply replaces the configuration and restarts the session if it is running.
// It is the callback a Reloader drives.
func (s *Session) Apply(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	s.cfg = cfg
	wasRunning := s.cancel != nil
	s.stopLocked(ctx)
	s.mu.Unlock()
	if !wasRunning {
		return nil
	}
	return s.Start(ctx)
}

func (s *Session) runEngine(ctx context.Context, cfg Config, src, tgt Source, ready chan<- *Handle, done chan<- struct{}) {
	defer close(done)
	published := false
	defer func() {
		if r := recover(); r != nil {
			s.abort(ctx, fmt.Errorf("panic in engine: %v", r))
		}
		if !published {
			ready <- nil
		}
	}()

	boot := BootPolicyFrom(cfg.Startup)
	boot.Uptime = s.uptime
	boot.Readiness = readiness(src, tgt)
	sup := NewSupervisor(RetryPolicyFrom(cfg.Startup), boot, s.rt)

	target, err := sup.Connect(ctx, tgt)
	if err != nil {
		s.abort(ctx, err)
		return
	}
	s.target.Store(target)
	defer s.closeHandle(target)

	source, err := sup.Connect(ctx, src)
	if err != nil {
		s.abort(ctx, err)
		return
	}
	s.source.Store(source)
	defer s.closeHandle(source)

	ready <- target
	published = true

	engine := NewEngine(source, target, cfg.Settings, s.rt)
	s.engine.Store(engine)
	s.rt.Logger.Info("sync active, monitoring")
	_ = engine.Run(ctx) //nolint:errcheck // returns nil on cancellation
}

// readiness returns the first of the sources that can report readiness.
func readiness(sources ...Source) Prober {
	for _, src := range sources {
		if p, ok := src.(Prober); ok {
			return p
		}
	}
	return nil
}

func (s *Session) runMonitor(ctx context.Context, cfg Config, ready <-chan *Handle, done chan<- struct{}) {
	defer close(done)

	var target *Handle
	select {
	case <-ctx.Done():
		return
	case target = <-ready:
	}
	if target == nil {
		return
	}

	rt := s.rt
	rt.Presenter = Presenters{PresenterFunc(s.track), s.rt.Presenter}
	_ = NewMonitor(target, seconds(cfg.Status.PollInterval), rt).Run(ctx) //nolint:errcheck // returns nil on cancellation
}

func (s *Session) track(_ context.Context, ev StatusEvent) {
	switch ev.Kind {
	case StatusHealthy:
		s.healthy.Store(true)
	case StatusUnhealthy:
		s.healthy.Store(false)
	}
}

func (s *Session) closeHandle(h *Handle) {
	if err := h.Close(context.Background()); err != nil {
		s.rt.Logger.Warn("disconnect failed", "source", h.Name(), "error", err)
	}
}

// abort ends the run after an unrecoverable failure. The process keeps running.
func (s *Session) abort(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	s.record("connect", err)
	s.running.Store(false)
	s.healthy.Store(false)
	capitan.Emit(ctx, SessionAborted, KeyError.Field(err.Error()))
	s.rt.Logger.Error("sync will not start", "error", err)
	s.rt.Presenter.Present(ctx, StatusEvent{
		Kind:   StatusUnhealthy,
		At:     s.rt.Clock.Now(),
		Detail: err.Error(),
	})
}

func (s *Session) record(op string, err error) {
	s.errorHistory.push(Incident{At: s.rt.Clock.Now(), Op: op, Err: err})
}
