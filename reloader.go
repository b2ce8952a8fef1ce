package levelsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"

	"github.com/zoobzio/levelsync/internal/logging"
)

// DefaultDebounce is the default debounce duration for config changes.
const DefaultDebounce = 250 * time.Millisecond

// ApplyFunc receives the previous and the new configuration.
type ApplyFunc func(ctx context.Context, prev, curr Config) error

// Reloader watches a configuration source, decodes and sanitizes each change
// and hands it to an apply callback, typically Session.Apply. On failure the
// previous configuration stays active and the Reloader keeps watching.
type Reloader struct {
	watcher  Watcher
	pipeline pipz.Chainable[*Request]
	debounce time.Duration
	syncMode bool
	clock    clockz.Clock
	codec    Codec
	metrics  MetricsProvider
	logger   *slog.Logger

	state        atomic.Int32
	current      atomic.Pointer[Config]
	lastError    atomic.Pointer[error]
	errorHistory *errorRing

	mu      sync.Mutex
	started bool

	// sync mode: changes are pulled by Process
	changes <-chan []byte
}

// NewReloader creates a Reloader. Pipeline options wrap fn; instance settings
// use the chainable methods before Start.
//
// Example:
//
//	reloader := levelsync.NewReloader(
//	    file.New("levelsync.yaml"),
//	    func(ctx context.Context, _, curr levelsync.Config) error {
//	        return session.Apply(ctx, curr)
//	    },
//	    levelsync.WithTimeout(10*time.Second),
//	).Codec(levelsync.YAMLCodec{})
func NewReloader(watcher Watcher, fn ApplyFunc, opts ...Option) *Reloader {
	terminal := pipz.Effect(applyID, func(ctx context.Context, req *Request) error {
		return fn(ctx, req.Previous, req.Current)
	})

	r := &Reloader{
		watcher:      watcher,
		pipeline:     buildPipeline(terminal, opts),
		debounce:     DefaultDebounce,
		clock:        clockz.RealClock,
		codec:        YAMLCodec{},
		metrics:      NoOpMetricsProvider{},
		logger:       logging.NewNop(),
		errorHistory: newErrorRing(0),
	}
	r.state.Store(int32(FeedLoading))
	return r
}

// Debounce sets how long changes are coalesced. Must be called before Start().
func (r *Reloader) Debounce(d time.Duration) *Reloader {
	r.debounce = d
	return r
}

// SyncMode processes changes only when Process is called. Must be called
// before Start().
func (r *Reloader) SyncMode() *Reloader {
	r.syncMode = true
	return r
}

// Clock sets the clock used for debouncing. Must be called before Start().
func (r *Reloader) Clock(clock clockz.Clock) *Reloader {
	r.clock = clock
	return r
}

// Codec sets the codec for decoding. Default: YAMLCodec. Must be called before Start().
func (r *Reloader) Codec(codec Codec) *Reloader {
	r.codec = codec
	return r
}

// Metrics sets a metrics provider. Must be called before Start().
func (r *Reloader) Metrics(provider MetricsProvider) *Reloader {
	r.metrics = provider
	return r
}

// Logger sets the logger. Must be called before Start().
func (r *Reloader) Logger(logger *slog.Logger) *Reloader {
	r.logger = logger
	return r
}

// ErrorHistorySize sets the number of recent errors to retain.
// Must be called before Start().
func (r *Reloader) ErrorHistorySize(n int) *Reloader {
	r.errorHistory = newErrorRing(n)
	return r
}

// State returns the current state.
func (r *Reloader) State() FeedState {
	return FeedState(r.state.Load())
}

// Current returns the last applied configuration and true, or the defaults
// and false if nothing was applied yet.
func (r *Reloader) Current() (Config, bool) {
	ptr := r.current.Load()
	if ptr == nil {
		return Defaults(), false
	}
	return *ptr, true
}

// LastError returns the last error encountered, or nil.
func (r *Reloader) LastError() error {
	ptr := r.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns recent failures, oldest first. Nil unless
// ErrorHistorySize was set.
func (r *Reloader) ErrorHistory() []Incident {
	return r.errorHistory.all()
}

// Start begins watching. It blocks until the first value is processed, then
// continues asynchronously (or waits for Process in sync mode). If the
// initial value fails Start returns the error but keeps watching.
func (r *Reloader) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return errors.New("reloader already started")
	}
	r.started = true
	r.mu.Unlock()

	capitan.Emit(ctx, ReloaderStarted,
		KeyDebounce.Field(r.debounce),
		KeyContentType.Field(r.codec.ContentType()),
	)

	changes, err := r.watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	var initialErr error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case raw, ok := <-changes:
		if !ok {
			return errors.New("watcher closed before emitting initial value")
		}
		r.received(ctx)
		initialErr = r.process(ctx, raw)
	}

	if r.syncMode {
		r.changes = changes
		return initialErr
	}

	go r.watch(ctx, changes)
	return initialErr
}

// Process reads and processes the next pending value in sync mode.
// It returns false if nothing was pending.
func (r *Reloader) Process(ctx context.Context) bool {
	if !r.syncMode {
		return false
	}
	select {
	case raw, ok := <-r.changes:
		if !ok {
			return false
		}
		r.received(ctx)
		_ = r.process(ctx, raw) //nolint:errcheck // Errors stored via setError
		return true
	default:
		return false
	}
}

func (r *Reloader) received(ctx context.Context) {
	capitan.Emit(ctx, ConfigChangeReceived)
}

// process decodes, sanitizes and applies a single configuration update.
func (r *Reloader) process(ctx context.Context, raw []byte) error {
	start := r.clock.Now()
	oldState := r.State()

	cfg, warnings, err := DecodeConfig(r.codec, raw)
	if err != nil {
		r.setError(err)
		r.transitionState(ctx, oldState, r.failureState())
		capitan.Emit(ctx, ConfigDecodeFailed, KeyError.Field(err.Error()))
		r.logger.Error("config rejected, keeping previous", "error", err)
		r.metrics.OnReload("decode", r.clock.Since(start))
		return err
	}
	for _, w := range warnings {
		var ce *ConfigError
		field := ""
		if errors.As(w, &ce) {
			field = ce.Field
		}
		capitan.Emit(ctx, ConfigFieldReset,
			KeyField.Field(field),
			KeyError.Field(w.Error()),
		)
		r.logger.Warn("config field reset to default", "field", field, "error", w)
	}

	prev, applied := r.Current()
	req := &Request{Previous: prev, Current: cfg, Initial: !applied, Warnings: warnings, Raw: raw}
	processed, err := r.pipeline.Process(ctx, req)
	if err != nil {
		r.setError(err)
		r.transitionState(ctx, oldState, r.failureState())
		capitan.Emit(ctx, ConfigApplyFailed, KeyError.Field(err.Error()))
		r.logger.Error("config apply failed", "error", err)
		r.metrics.OnReload("apply", r.clock.Since(start))
		return fmt.Errorf("apply failed: %w", err)
	}

	r.current.Store(&processed.Current)
	r.lastError.Store(nil)
	r.errorHistory.clear()
	r.transitionState(ctx, oldState, FeedHealthy)
	capitan.Emit(ctx, ConfigApplied)
	r.logger.Info("config applied", "warnings", len(warnings))
	r.metrics.OnReload("", r.clock.Since(start))
	return nil
}

// failureState is Empty until a configuration has been applied, Degraded after.
func (r *Reloader) failureState() FeedState {
	if r.current.Load() == nil {
		return FeedEmpty
	}
	return FeedDegraded
}

// transitionState updates the state and emits a state change event if changed.
func (r *Reloader) transitionState(ctx context.Context, oldState, newState FeedState) {
	if oldState == newState {
		return
	}
	r.state.Store(int32(newState))
	capitan.Emit(ctx, ReloaderStateChanged,
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
	r.metrics.OnFeedStateChange(oldState, newState)
}

func (r *Reloader) setError(err error) {
	e := err
	r.lastError.Store(&e)
	r.errorHistory.push(Incident{At: r.clock.Now(), Op: "reload", Err: err})
}

// watch processes changes with debouncing until ctx is done or the watcher
// closes its channel.
func (r *Reloader) watch(ctx context.Context, changes <-chan []byte) {
	defer func() {
		capitan.Emit(ctx, ReloaderStopped, KeyState.Field(r.State().String()))
	}()

	var (
		timer      clockz.Timer
		pending    []byte
		hasPending bool
	)

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case raw, ok := <-changes:
			if !ok {
				if hasPending {
					_ = r.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				}
				return
			}
			r.received(ctx)
			pending = raw
			hasPending = true

			if timer == nil {
				timer = r.clock.NewTimer(r.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(r.debounce)
			}

		case <-timerC:
			if hasPending {
				_ = r.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				hasPending = false
			}
		}
	}
}
