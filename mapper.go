package levelsync

import "math"

// DefaultCurve is the default exponent of the volume/gain power curve.
const DefaultCurve = 0.55

// Mapper converts between the percentage and decibel domains along a power
// curve. Both directions clamp at the domain bounds; away from the bounds the
// two functions are close to, but not exactly, inverses of each other.
type Mapper struct {
	Curve float64
}

// NewMapper returns a Mapper for the given exponent. Non-positive or
// non-finite exponents fall back to DefaultCurve.
func NewMapper(curve float64) Mapper {
	if curve <= 0 || math.IsNaN(curve) || math.IsInf(curve, 0) {
		curve = DefaultCurve
	}
	return Mapper{Curve: curve}
}

// ToGain maps a volume percentage to a bus gain in dB, rounded to 2 decimals.
func (m Mapper) ToGain(volume int) float64 {
	if volume <= MinPercent {
		return MinGain
	}
	if volume >= MaxPercent {
		return MaxGain
	}
	gain := math.Pow(float64(volume)/100, m.curve())*(MaxGain-MinGain) + MinGain
	return math.Round(gain*100) / 100
}

// ToVolume maps a bus gain in dB to a volume percentage, truncating.
func (m Mapper) ToVolume(gain float64) int {
	if gain <= MinGain || math.IsNaN(gain) {
		return MinPercent
	}
	if gain >= MaxGain {
		return MaxPercent
	}
	volume := math.Pow((gain-MinGain)/(MaxGain-MinGain), 1/m.curve()) * 100
	return int(math.Floor(volume))
}

func (m Mapper) curve() float64 {
	if m.Curve <= 0 {
		return DefaultCurve
	}
	return m.Curve
}
