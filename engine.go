package levelsync

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
)

// tickBackoff is the pause after a failed or panicking tick.
const tickBackoff = time.Second

// readWarnAfter is the number of consecutive failed reads logged at debug
// before the engine starts warning.
const readWarnAfter = 5

// Outcome is what a single tick decided.
type Outcome int

const (
	// OutcomeIdle means nothing crossed a threshold.
	OutcomeIdle Outcome = iota

	// OutcomePrimed means the tick initialised SyncState.
	OutcomePrimed

	// OutcomeSkipped means a read failed and the tick was abandoned.
	OutcomeSkipped

	// OutcomeToTarget means a source change was written to the target.
	OutcomeToTarget

	// OutcomeToSource means a target change was applied to the source directly.
	OutcomeToSource

	// OutcomeGlide means a damped step toward the target was applied.
	OutcomeGlide

	// OutcomeSettling means a target change is waiting for the settle timeout.
	OutcomeSettling

	// OutcomeEchoSuppressed means a target delta was attributed to our own write.
	OutcomeEchoSuppressed

	// OutcomeWriteFailed means a propagation was attempted and failed.
	OutcomeWriteFailed
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomePrimed:
		return "primed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeToTarget:
		return "to_target"
	case OutcomeToSource:
		return "to_source"
	case OutcomeGlide:
		return "glide"
	case OutcomeSettling:
		return "settling"
	case OutcomeEchoSuppressed:
		return "echo_suppressed"
	case OutcomeWriteFailed:
		return "write_failed"
	default:
		return "unknown"
	}
}

// SyncState is the engine's memory between ticks. Only the engine goroutine
// mutates it.
type SyncState struct {
	LastSource int
	LastTarget float64
	LastChange time.Time
	Direction  Direction

	// Gliding is set while a damped target->source move is in progress.
	Gliding bool
	Goal    int
}

// Snapshot is a read-only view for presentation. It may be one tick stale.
type Snapshot struct {
	Source  Level
	Target  Level
	State   SyncState
	Outcome Outcome
	At      time.Time
	Primed  bool
}

// Engine runs the bidirectional sync state machine between a percentage
// source and a decibel target.
type Engine struct {
	source   Port
	target   Port
	mapper   Mapper
	settings Settings
	rt       Runtime

	state        SyncState
	primed       bool
	readFailures int

	snapshot atomic.Pointer[Snapshot]
}

// NewEngine creates an Engine. The source must report Percentage levels and
// the target Decibel levels.
func NewEngine(source, target Port, settings Settings, rt Runtime) *Engine {
	e := &Engine{
		source:   source,
		target:   target,
		mapper:   settings.Mapper(),
		settings: settings,
		rt:       rt.withDefaults(),
	}
	e.snapshot.Store(&Snapshot{})
	return e
}

// Snapshot returns the latest published view.
func (e *Engine) Snapshot() Snapshot {
	return *e.snapshot.Load()
}

// Prime reads both sides and initialises SyncState with Direction None.
func (e *Engine) Prime(ctx context.Context) error {
	src, tgt, err := e.read(ctx)
	if err != nil {
		return err
	}
	e.prime(src, tgt)
	return nil
}

func (e *Engine) prime(src, tgt Level) {
	now := e.rt.Clock.Now()
	e.state = SyncState{
		LastSource: src.Int(),
		LastTarget: tgt.Value,
		LastChange: now,
		Direction:  None,
	}
	e.primed = true
	e.publish(src, tgt, OutcomePrimed, now)
}

// Step runs one tick. It issues at most one propagation. Errors wrapping
// ErrTransientRead mean the tick was skipped without touching state; errors
// wrapping ErrWrite mean the propagation failed and will be retried.
func (e *Engine) Step(ctx context.Context) (Outcome, error) {
	src, tgt, err := e.read(ctx)
	if err != nil {
		return OutcomeSkipped, err
	}
	if !e.primed {
		e.prime(src, tgt)
		return OutcomePrimed, nil
	}

	now := e.rt.Clock.Now()
	outcome, err := e.decide(ctx, src, tgt, now)
	e.publish(src, tgt, outcome, now)
	return outcome, err
}

func (e *Engine) decide(ctx context.Context, src, tgt Level, now time.Time) (Outcome, error) {
	vol, gain := src.Int(), tgt.Value

	if abs(vol-e.state.LastSource) >= e.settings.VolumeThreshold {
		return e.toTarget(ctx, vol, now)
	}

	if e.state.Gliding {
		e.state.Goal = e.mapper.ToVolume(gain)
		e.state.LastTarget = gain
		return e.glide(ctx, vol, now)
	}

	if math.Abs(gain-e.state.LastTarget) < e.settings.GainThreshold {
		return OutcomeIdle, nil
	}

	since := now.Sub(e.state.LastChange)
	if since <= e.settings.SettleTimeout() {
		return OutcomeSettling, nil
	}

	if e.state.Direction == FromSource && since <= e.settings.SettleTimeout()+e.settings.EchoDuration() {
		capitan.Emit(ctx, EchoSuppressed,
			KeySource.Field(e.target.Name()),
			KeyFrom.Field(Decibels(e.state.LastTarget).String()),
			KeyTo.Field(tgt.String()),
		)
		e.rt.Logger.Debug("target delta attributed to own write", "last", e.state.LastTarget, "current", gain)
		return OutcomeEchoSuppressed, nil
	}

	goal := e.mapper.ToVolume(gain)
	if abs(goal-vol) > e.settings.CoarseThreshold {
		e.state.Gliding = true
		e.state.Goal = goal
		e.state.LastTarget = gain
		return e.glide(ctx, vol, now)
	}
	return e.toSource(ctx, vol, goal, gain, OutcomeToSource, now)
}

// toTarget propagates a source change. It cancels any glide. A partial write
// commits like a full one; only a write that reached nothing is retried on
// the next tick.
func (e *Engine) toTarget(ctx context.Context, vol int, now time.Time) (Outcome, error) {
	gain := e.mapper.ToGain(vol)
	if err := e.target.Write(ctx, Decibels(gain)); err != nil {
		if !errors.Is(err, ErrPartialWrite) {
			e.rt.Logger.Warn("write to target failed", "source", e.target.Name(), "error", err)
			return OutcomeWriteFailed, fmt.Errorf("%w: %w", ErrWrite, err)
		}
		e.rt.Logger.Warn("write to target partially failed", "source", e.target.Name(), "error", err)
	}
	e.emitPropagated(ctx, e.target.Name(), Decibels(e.state.LastTarget), Decibels(gain), FromSource)
	e.rt.Logger.Debug("source changed", "volume", vol, "gain", gain)

	e.state = SyncState{
		LastSource: vol,
		LastTarget: gain,
		LastChange: now,
		Direction:  FromSource,
	}
	return OutcomeToTarget, nil
}

// glide moves the source a damped step toward Goal, or straight to it once
// within the coarse threshold.
func (e *Engine) glide(ctx context.Context, vol int, now time.Time) (Outcome, error) {
	goal := e.state.Goal
	dist := goal - vol
	if abs(dist) <= e.settings.CoarseThreshold {
		e.state.Gliding = false
		return e.toSource(ctx, vol, goal, e.state.LastTarget, OutcomeToSource, now)
	}
	step := int(float64(dist) * e.settings.Damping)
	if step == 0 {
		step = sign(dist)
	}
	return e.toSource(ctx, vol, vol+step, e.state.LastTarget, OutcomeGlide, now)
}

func (e *Engine) toSource(ctx context.Context, from, to int, gain float64, outcome Outcome, now time.Time) (Outcome, error) {
	next := Percent(to)
	if err := e.source.Write(ctx, next); err != nil {
		e.rt.Logger.Warn("write to source failed", "source", e.source.Name(), "error", err)
		return OutcomeWriteFailed, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	e.emitPropagated(ctx, e.source.Name(), Percent(from), next, FromTarget)
	e.rt.Logger.Debug("target changed", "gain", gain, "from", from, "to", next.Int(), "outcome", outcome)

	e.state.LastSource = next.Int()
	e.state.LastTarget = gain
	e.state.LastChange = now
	e.state.Direction = FromTarget
	return outcome, nil
}

func (e *Engine) emitPropagated(ctx context.Context, name string, from, to Level, dir Direction) {
	capitan.Emit(ctx, LevelPropagated,
		KeySource.Field(name),
		KeyDirection.Field(dir.String()),
		KeyFrom.Field(from.String()),
		KeyTo.Field(to.String()),
	)
	e.rt.Metrics.OnPropagated(dir)
}

// read samples both sides. A failure on either returns an error wrapping
// ErrTransientRead.
func (e *Engine) read(ctx context.Context) (Level, Level, error) {
	src, err := e.source.Read(ctx)
	if err == nil && src.Kind != Percentage {
		err = fmt.Errorf("%s reported %s: %w", e.source.Name(), src.Kind, ErrKindMismatch)
	}
	if err != nil {
		return Level{}, Level{}, e.readFailed(e.source.Name(), err)
	}
	tgt, err := e.target.Read(ctx)
	if err == nil && tgt.Kind != Decibel {
		err = fmt.Errorf("%s reported %s: %w", e.target.Name(), tgt.Kind, ErrKindMismatch)
	}
	if err != nil {
		return Level{}, Level{}, e.readFailed(e.target.Name(), err)
	}
	e.readFailures = 0
	return src, tgt, nil
}

func (e *Engine) readFailed(name string, err error) error {
	e.readFailures++
	if e.readFailures >= readWarnAfter {
		e.rt.Logger.Warn("read failed", "source", name, "consecutive", e.readFailures, "error", err)
	} else {
		e.rt.Logger.Debug("read failed", "source", name, "error", err)
	}
	if errors.Is(err, ErrTransientRead) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransientRead, err)
}

func (e *Engine) publish(src, tgt Level, outcome Outcome, at time.Time) {
	e.snapshot.Store(&Snapshot{
		Source:  src,
		Target:  tgt,
		State:   e.state,
		Outcome: outcome,
		At:      at,
		Primed:  e.primed,
	})
}

// Run ticks until ctx is cancelled. A failing or panicking tick is logged and
// followed by a one second pause; Run itself only returns on cancellation.
func (e *Engine) Run(ctx context.Context) error {
	interval := e.settings.PollInterval()
	for {
		start := e.rt.Clock.Now()
		outcome, err := e.safeStep(ctx)
		e.rt.Metrics.OnTick(outcome, e.rt.Clock.Since(start))

		wait := interval
		if err != nil && !errors.Is(err, ErrTransientRead) && !errors.Is(err, ErrWrite) {
			capitan.Emit(ctx, TickFailed, KeyError.Field(err.Error()))
			e.rt.Logger.Error("sync tick failed", "error", err)
			wait = tickBackoff
		}
		if err := sleep(ctx, e.rt.Clock, wait); err != nil {
			return nil
		}
	}
}

func (e *Engine) safeStep(ctx context.Context) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeSkipped
			err = fmt.Errorf("panic in sync tick: %v", r)
		}
	}()
	return e.Step(ctx)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
