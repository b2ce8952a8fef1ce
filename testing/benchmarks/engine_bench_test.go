package benchmarks

import (
	"context"
	"testing"

	"github.com/zoobzio/clockz"

	"github.com/zoobzio/levelsync"
	"github.com/zoobzio/levelsync/pkg/memory"
)

func BenchmarkMapper_ToGain(b *testing.B) {
	m := levelsync.NewMapper(levelsync.DefaultCurve)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.ToGain(i % 101)
	}
}

func BenchmarkMapper_ToVolume(b *testing.B) {
	m := levelsync.NewMapper(levelsync.DefaultCurve)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.ToVolume(float64(i%73) - 60)
	}
}

func newEngine(b *testing.B) (*levelsync.Engine, *memory.Source, *memory.Source) {
	b.Helper()
	ctx := context.Background()
	system := memory.NewVolume("system", 50)
	mixer := memory.NewGain("voicemeeter", -10.82)
	if err := system.Connect(ctx); err != nil {
		b.Fatalf("connect: %v", err)
	}
	if err := mixer.Connect(ctx); err != nil {
		b.Fatalf("connect: %v", err)
	}
	e := levelsync.NewEngine(system, mixer, levelsync.Defaults().Settings, levelsync.Runtime{
		Clock: clockz.NewFakeClock(),
	})
	if err := e.Prime(ctx); err != nil {
		b.Fatalf("Prime() error = %v", err)
	}
	return e, system, mixer
}

func BenchmarkEngine_StepIdle(b *testing.B) {
	e, _, _ := newEngine(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Step(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEngine_StepToTarget(b *testing.B) {
	e, system, mixer := newEngine(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		system.Set(levelsync.Percent(10 + i%2*80))
		if _, err := e.Step(ctx); err != nil {
			b.Fatal(err)
		}
		mixer.ResetWrites()
	}
}
