package levelsync

import (
	"math"
	"testing"
)

func TestPercent_Clamps(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{150, 100},
	}
	for _, tt := range tests {
		l := Percent(tt.in)
		if l.Kind != Percentage {
			t.Errorf("Percent(%d) kind = %s", tt.in, l.Kind)
		}
		if l.Int() != tt.want {
			t.Errorf("Percent(%d) = %d, want %d", tt.in, l.Int(), tt.want)
		}
	}
}

func TestDecibels_Clamps(t *testing.T) {
	if got := Decibels(-80).Value; got != MinGain {
		t.Errorf("expected %v, got %v", MinGain, got)
	}
	if got := Decibels(20).Value; got != MaxGain {
		t.Errorf("expected %v, got %v", MaxGain, got)
	}
	if got := Decibels(math.NaN()).Value; got != MinGain {
		t.Errorf("expected NaN to clamp to %v, got %v", MinGain, got)
	}
	if got := Decibels(-6.5).Value; got != -6.5 {
		t.Errorf("expected -6.5, got %v", got)
	}
}

func TestLevel_String(t *testing.T) {
	if got := Percent(50).String(); got != "50%" {
		t.Errorf("expected 50%%, got %s", got)
	}
	if got := Decibels(-10.82).String(); got != "-10.82dB" {
		t.Errorf("expected -10.82dB, got %s", got)
	}
}

func TestKind_String(t *testing.T) {
	if Percentage.String() != "percent" || Decibel.String() != "decibel" {
		t.Errorf("unexpected kind names %s, %s", Percentage, Decibel)
	}
	if Kind(9).String() != "unknown" {
		t.Errorf("expected unknown, got %s", Kind(9))
	}
}
