// Package endpoint exposes the master volume of the default audio output
// device as a levelsync.Source.
//
// COM objects are bound to the thread that created them, so every device
// call runs on one goroutine locked to its OS thread for the lifetime of the
// connection.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/zoobzio/levelsync"
)

// Device is the master volume of an output endpoint as a 0..1 scalar.
// Implementations are only ever called from a single locked thread.
type Device interface {
	Open() error
	Close()
	Scalar() (float32, error)
	SetScalar(v float32) error
}

// errStopped is returned for calls issued after the worker exited.
var errStopped = errors.New("endpoint worker stopped")

// Source reads and writes the default output device volume in percent.
type Source struct {
	newDevice func() Device

	mu     sync.Mutex
	worker *worker
}

// New returns a Source for the default render endpoint of this machine.
func New() *Source {
	return NewWithDevice(newSystemDevice)
}

// NewWithDevice returns a Source whose device is built by fn on the worker thread.
func NewWithDevice(fn func() Device) *Source {
	return &Source{newDevice: fn}
}

// Name implements levelsync.Source.
func (s *Source) Name() string { return "system" }

// Kind implements levelsync.Source.
func (s *Source) Kind() levelsync.Kind { return levelsync.Percentage }

// Connect acquires the default endpoint.
func (s *Source) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.worker != nil {
		return nil
	}
	w, err := start(ctx, s.newDevice)
	if err != nil {
		return fmt.Errorf("%w: %w", levelsync.ErrConnect, err)
	}
	s.worker = w
	return nil
}

// Disconnect releases the endpoint and its thread.
func (s *Source) Disconnect() error {
	s.mu.Lock()
	w := s.worker
	s.worker = nil
	s.mu.Unlock()
	if w != nil {
		w.stop()
	}
	return nil
}

// Read returns the master volume rounded to the nearest percent.
func (s *Source) Read(ctx context.Context) (levelsync.Level, error) {
	var scalar float32
	err := s.do(ctx, func(d Device) (err error) {
		scalar, err = d.Scalar()
		return err
	})
	if err != nil {
		return levelsync.Level{}, fmt.Errorf("%w: %w", levelsync.ErrTransientRead, err)
	}
	return levelsync.Percent(ToPercent(scalar)), nil
}

// Write sets the master volume.
func (s *Source) Write(ctx context.Context, l levelsync.Level) error {
	if l.Kind != levelsync.Percentage {
		return fmt.Errorf("%w: %w", levelsync.ErrWrite, levelsync.ErrKindMismatch)
	}
	err := s.do(ctx, func(d Device) error {
		return d.SetScalar(ToScalar(l.Int()))
	})
	if err != nil {
		return fmt.Errorf("%w: %w", levelsync.ErrWrite, err)
	}
	return nil
}

// Healthy reports whether the endpoint volume can be read.
func (s *Source) Healthy(ctx context.Context) bool {
	return s.do(ctx, func(d Device) error {
		_, err := d.Scalar()
		return err
	}) == nil
}

// Probe reports whether an endpoint can be opened right now. It does not
// require, or affect, a connection.
func (s *Source) Probe(ctx context.Context) bool {
	w, err := start(ctx, s.newDevice)
	if err != nil {
		return false
	}
	defer w.stop()
	return w.do(ctx, func(d Device) error {
		_, err := d.Scalar()
		return err
	}) == nil
}

func (s *Source) do(ctx context.Context, fn func(Device) error) error {
	s.mu.Lock()
	w := s.worker
	s.mu.Unlock()
	if w == nil {
		return levelsync.ErrNotConnected
	}
	return w.do(ctx, fn)
}

// ToPercent converts a device scalar to a percentage. Rounding keeps a
// written value stable when read back through float32.
func ToPercent(scalar float32) int {
	return int(math.Round(float64(scalar) * 100))
}

// ToScalar converts a percentage to a device scalar, clamped to 0..1.
func ToScalar(percent int) float32 {
	switch {
	case percent <= levelsync.MinPercent:
		return 0
	case percent >= levelsync.MaxPercent:
		return 1
	}
	return float32(percent) / 100
}

type call struct {
	fn  func(Device) error
	res chan error
}

// worker owns a Device on a locked OS thread.
type worker struct {
	calls chan call
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func start(ctx context.Context, newDevice func() Device) (*worker, error) {
	w := &worker{
		calls: make(chan call),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	ready := make(chan error, 1)
	go w.loop(newDevice, ready)

	select {
	case err := <-ready:
		if err != nil {
			return nil, err
		}
		return w, nil
	case <-ctx.Done():
		w.stop()
		return nil, ctx.Err()
	}
}

func (w *worker) loop(newDevice func() Device, ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.done)

	dev := newDevice()
	if err := dev.Open(); err != nil {
		ready <- err
		return
	}
	defer dev.Close()
	ready <- nil

	for {
		select {
		case <-w.quit:
			return
		case c := <-w.calls:
			c.res <- w.invoke(dev, c.fn)
		}
	}
}

func (*worker) invoke(dev Device, fn func(Device) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("endpoint call panicked: %v", r)
		}
	}()
	return fn(dev)
}

func (w *worker) do(ctx context.Context, fn func(Device) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := call{fn: fn, res: make(chan error, 1)}
	select {
	case w.calls <- c:
	case <-w.done:
		return errStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *worker) stop() {
	w.once.Do(func() { close(w.quit) })
	<-w.done
}

var (
	_ levelsync.Source = (*Source)(nil)
	_ levelsync.Prober = (*Source)(nil)
)
