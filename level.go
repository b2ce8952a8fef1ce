package levelsync

import (
	"fmt"
	"math"
)

// Domain bounds shared by every backend.
const (
	MinPercent = 0
	MaxPercent = 100

	MinGain = -60.0
	MaxGain = 12.0
)

// Kind tags the scale a Level is expressed in.
type Kind uint8

const (
	// Percentage is a linear 0..100 scale (system output volume).
	Percentage Kind = iota

	// Decibel is a logarithmic -60..+12 dB scale (mixer bus gain).
	Decibel
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case Percentage:
		return "percent"
	case Decibel:
		return "decibel"
	default:
		return "unknown"
	}
}

// Level is a single sample taken from a Source.
type Level struct {
	Kind  Kind
	Value float64
}

// Percent builds a Percentage level, clamped to 0..100.
func Percent(v int) Level {
	return Level{Kind: Percentage, Value: float64(clampInt(v, MinPercent, MaxPercent))}
}

// Decibels builds a Decibel level, clamped to -60..+12.
func Decibels(db float64) Level {
	if math.IsNaN(db) {
		db = MinGain
	}
	return Level{Kind: Decibel, Value: math.Max(MinGain, math.Min(MaxGain, db))}
}

// Int returns the value of a Percentage level.
func (l Level) Int() int {
	return int(l.Value)
}

// String returns a human readable form such as "50%" or "-11.27dB".
func (l Level) String() string {
	if l.Kind == Decibel {
		return fmt.Sprintf("%.2fdB", l.Value)
	}
	return fmt.Sprintf("%d%%", l.Int())
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
