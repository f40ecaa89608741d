package core

import "math"

const defaultEpsilon = 1e-12

// SilenceDB is the level at and below which DBToGain returns exact silence.
const SilenceDB = -60.0

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// FlushDenormals converts tiny denormal-like values to exact zero.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// DBToGain converts a fader level in dB to a linear gain.
// Levels at or below SilenceDB map to exactly 0.
func DBToGain(db float64) float64 {
	if db <= SilenceDB {
		return 0
	}

	return DBToLinear(db)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// MapRange maps a normalized value in [0,1] linearly onto [lo, hi].
// The value is not clamped; hi may be smaller than lo.
func MapRange(norm, lo, hi float64) float64 {
	return lo + norm*(hi-lo)
}

// MIDINoteToHz converts a MIDI note number to frequency, A4 (69) = 440 Hz.
func MIDINoteToHz(note int) float64 {
	return 440 * math.Exp2(float64(note-69)/12)
}
