package integration

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/zoobzio/levelsync"
	lstesting "github.com/zoobzio/levelsync/testing"
)

func TestSession_VolumeToMixer(t *testing.T) {
	cfg := lstesting.FastConfig()
	s, system, mixer := newSession(t, cfg)
	lstesting.StartSession(t, s)

	if !lstesting.WaitForStatus(t, s, time.Second, func(st levelsync.Status) bool { return st.Snapshot.Primed }) {
		t.Fatal("engine never primed")
	}

	system.Set(levelsync.Percent(80))
	want := levelsync.NewMapper(cfg.Settings.CurvePower).ToGain(80)
	if !lstesting.WaitFor(t, time.Second, func() bool { return mixer.Value().Value == want }) {
		t.Fatalf("expected mixer at %.2f, got %s", want, mixer.Value())
	}
}

func TestSession_MixerToVolume(t *testing.T) {
	cfg := lstesting.FastConfig()
	s, system, mixer := newSession(t, cfg)
	lstesting.StartSession(t, s)

	if !lstesting.WaitForStatus(t, s, time.Second, func(st levelsync.Status) bool { return st.Snapshot.Primed }) {
		t.Fatal("engine never primed")
	}

	// Small move: applied directly once the settle timeout has passed.
	mixer.Set(levelsync.Decibels(-6))
	want := levelsync.NewMapper(cfg.Settings.CurvePower).ToVolume(-6)
	if !lstesting.WaitFor(t, 2*time.Second, func() bool { return system.Value().Int() == want }) {
		t.Fatalf("expected volume %d, got %s", want, system.Value())
	}

	// The mixer must not have been rewritten by an echo.
	if got := mixer.Value().Value; math.Abs(got-(-6)) > 1e-9 {
		t.Errorf("mixer moved to %.2f", got)
	}
}

func TestSession_GlideToDistantGain(t *testing.T) {
	cfg := lstesting.FastConfig()
	s, system, mixer := newSession(t, cfg)
	lstesting.StartSession(t, s)

	if !lstesting.WaitForStatus(t, s, time.Second, func(st levelsync.Status) bool { return st.Snapshot.Primed }) {
		t.Fatal("engine never primed")
	}

	mixer.Set(levelsync.Decibels(levelsync.MaxGain))
	if !lstesting.WaitFor(t, 2*time.Second, func() bool { return system.Value().Int() == 100 }) {
		t.Fatalf("expected volume 100, got %s", system.Value())
	}
	if len(system.Writes()) < 2 {
		t.Errorf("expected a multi-step glide, got %d writes", len(system.Writes()))
	}
}

func TestSession_ConnectRetry(t *testing.T) {
	cfg := lstesting.FastConfig()
	s, _, mixer := newSession(t, cfg)
	mixer.FailConnects(2)
	lstesting.StartSession(t, s)

	if !lstesting.WaitForStatus(t, s, time.Second, func(st levelsync.Status) bool {
		return st.Target == levelsync.Connected && st.Healthy
	}) {
		t.Fatalf("target never connected: %+v", s.Status())
	}
	if got := mixer.ConnectAttempts(); got != 3 {
		t.Errorf("expected 3 connect attempts, got %d", got)
	}
}

func TestSession_ReloadFromFile(t *testing.T) {
	cfg := lstesting.FastConfig()
	s, system, mixer := newSession(t, cfg)

	reloader, ch := lstesting.NewTestReloader(t, func(ctx context.Context, _, curr levelsync.Config) error {
		return s.Apply(ctx, curr)
	})

	data, err := levelsync.YAMLCodec{}.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	ch <- data
	if err := reloader.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	lstesting.RequireState(t, reloader, levelsync.FeedHealthy)
	lstesting.StartSession(t, s)

	// A steeper curve takes effect after the restart.
	next := cfg
	next.Settings.CurvePower = 1
	data, err = levelsync.YAMLCodec{}.Marshal(next)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	ch <- data
	if !reloader.Process(context.Background()) {
		t.Fatal("expected a pending change")
	}
	lstesting.RequireConfig(t, reloader, func(c levelsync.Config) bool { return c.Settings.CurvePower == 1 })

	if !lstesting.WaitForStatus(t, s, time.Second, func(st levelsync.Status) bool { return st.Running && st.Snapshot.Primed }) {
		t.Fatal("session did not restart")
	}
	system.Set(levelsync.Percent(25))
	want := levelsync.NewMapper(1).ToGain(25)
	if !lstesting.WaitFor(t, time.Second, func() bool { return mixer.Value().Value == want }) {
		t.Fatalf("expected mixer at %.2f, got %s", want, mixer.Value())
	}
}
