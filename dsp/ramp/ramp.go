// Package ramp provides a linear parameter smoother.
//
// A Ramp moves from its current value to a target in a fixed number of
// samples derived from the ramp time and sample rate. Retargeting mid-ramp
// restarts the ramp from wherever the value currently is.
package ramp

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// DefaultTime is the ramp time used by most smoothed parameters, in seconds.
const DefaultTime = 0.05

// Ramp is a linear smoother. The zero value holds 0 and never ramps.
type Ramp struct {
	seconds   float64
	steps     int
	current   float64
	target    float64
	increment float64
	remaining int
}

// New returns a ramp with the given ramp time in seconds.
func New(seconds float64) Ramp {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	return Ramp{seconds: seconds}
}

// Prepare sets the sample rate. With force the value jumps to init and any
// ramp in progress is dropped; otherwise only the ramp length changes.
func (r *Ramp) Prepare(sampleRate float64, force bool, init float64) {
	r.steps = int(math.Round(r.seconds * sampleRate))
	if force {
		r.jump(init)
		return
	}
	if r.remaining > r.steps {
		r.SetTarget(r.target, false)
	}
}

// SetTarget starts a ramp toward v, or jumps straight to it with force.
func (r *Ramp) SetTarget(v float64, force bool) {
	if force || r.steps <= 0 {
		r.jump(v)
		return
	}
	if v == r.target && r.remaining == 0 {
		return
	}

	r.target = v
	r.remaining = r.steps
	r.increment = (v - r.current) / float64(r.steps)
}

func (r *Ramp) jump(v float64) {
	r.current = v
	r.target = v
	r.increment = 0
	r.remaining = 0
}

// Next advances one sample and returns the new value.
func (r *Ramp) Next() float64 {
	if r.remaining > 0 {
		r.remaining--
		if r.remaining == 0 {
			r.current = r.target
		} else {
			r.current += r.increment
		}
	}
	return r.current
}

// Skip advances n samples at once.
func (r *Ramp) Skip(n int) {
	if n >= r.remaining {
		if r.remaining > 0 {
			r.jump(r.target)
		}
		return
	}
	r.remaining -= n
	r.current += r.increment * float64(n)
}

// Value returns the current value without advancing.
func (r *Ramp) Value() float64 { return r.current }

// Target returns the value the ramp is heading to.
func (r *Ramp) Target() float64 { return r.target }

// IsRamping reports whether the value is still moving.
func (r *Ramp) IsRamping() bool { return r.remaining > 0 }

// Fill writes n successive ramp values into dst.
func (r *Ramp) Fill(dst []float64) {
	if !r.IsRamping() {
		for i := range dst {
			dst[i] = r.current
		}
		return
	}
	for i := range dst {
		dst[i] = r.Next()
	}
}

// ApplyGain multiplies the first n samples of every channel by the ramp,
// advancing it once per frame.
func (r *Ramp) ApplyGain(channels [][]float64, n int) {
	if !r.IsRamping() {
		if r.current == 1 {
			return
		}
		for _, ch := range channels {
			vecmath.ScaleBlockInPlace(ch[:n], r.current)
		}
		return
	}

	for i := 0; i < n; i++ {
		g := r.Next()
		for _, ch := range channels {
			ch[i] *= g
		}
	}
}

// ApplySum adds the ramp to dst, advancing it once per sample.
func (r *Ramp) ApplySum(dst []float64) {
	for i := range dst {
		dst[i] += r.Next()
	}
}
