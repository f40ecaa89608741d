// Package osc provides a phase-accumulator oscillator with naive and
// anti-aliased waveform shapes.
//
// Phase is normalized to [0, 1). Each call to Process returns the sample at
// the current phase and then advances by frequency/sampleRate, so a new
// frequency takes effect on the next generated sample. The anti-aliased
// shapes apply polyBLEP (saw) and polyBLAMP (triangle) residuals around
// the waveform discontinuities.
package osc

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-retrofox/dsp/core"
)

// Type selects the waveform.
type Type int

const (
	Sine Type = iota
	Triangle
	Saw
	TriangleAA
	SawAA
)

func (t Type) String() string {
	switch t {
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	case Saw:
		return "saw"
	case TriangleAA:
		return "triangle-aa"
	case SawAA:
		return "saw-aa"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType maps a name produced by Type.String back to a Type.
func ParseType(name string) (Type, error) {
	for t := Sine; t <= SawAA; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return Sine, fmt.Errorf("osc: unknown waveform %q", name)
}

// Option configures an Oscillator.
type Option func(*Oscillator) error

// WithType sets the initial waveform.
func WithType(t Type) Option {
	return func(o *Oscillator) error { return o.SetType(t) }
}

// WithFrequency sets the initial frequency in Hz.
func WithFrequency(hz float64) Option {
	return func(o *Oscillator) error { return o.SetFrequency(hz) }
}

// Oscillator generates one waveform sample per call.
type Oscillator struct {
	sampleRate float64
	typ        Type
	freq       float64
	phase      float64
	inc        float64
}

// New creates an oscillator at 440 Hz sine.
func New(sampleRate float64, opts ...Option) (*Oscillator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("osc: sample rate must be > 0 and finite: %f", sampleRate)
	}

	o := &Oscillator{sampleRate: sampleRate, typ: Sine}
	if err := o.SetFrequency(440); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Prepare changes the sample rate and resets the phase.
func (o *Oscillator) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("osc: sample rate must be > 0 and finite: %f", sampleRate)
	}
	o.sampleRate = sampleRate
	o.inc = o.freq / sampleRate
	o.phase = 0
	return nil
}

// SetType changes the waveform. The phase is kept.
func (o *Oscillator) SetType(t Type) error {
	if t < Sine || t > SawAA {
		return fmt.Errorf("osc: invalid waveform: %d", int(t))
	}
	o.typ = t
	return nil
}

// SetFrequency sets the frequency in Hz, clamped to [0, sampleRate/2].
func (o *Oscillator) SetFrequency(hz float64) error {
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return fmt.Errorf("osc: frequency must be finite: %f", hz)
	}
	o.setFrequency(hz)
	return nil
}

// setFrequency clamps a finite hz to [0, sampleRate/2].
func (o *Oscillator) setFrequency(hz float64) {
	o.freq = min(max(hz, 0), o.sampleRate/2)
	o.inc = o.freq / o.sampleRate
}

// SetNote tunes to an equal-tempered MIDI note, A4 = 69 = 440 Hz.
// Every integer note maps to a finite frequency, so there is no error path.
func (o *Oscillator) SetNote(note int) {
	o.setFrequency(core.MIDINoteToHz(note))
}

// SetPhase sets the normalized phase; values wrap into [0, 1).
func (o *Oscillator) SetPhase(phase float64) {
	phase -= math.Floor(phase)
	o.phase = phase
}

// Reset restarts at phase 0.
func (o *Oscillator) Reset() { o.phase = 0 }

// Type returns the current waveform.
func (o *Oscillator) Type() Type { return o.typ }

// Frequency returns the clamped frequency in Hz.
func (o *Oscillator) Frequency() float64 { return o.freq }

// Phase returns the normalized phase in [0, 1).
func (o *Oscillator) Phase() float64 { return o.phase }

// SampleRate returns the rate set by New or Prepare.
func (o *Oscillator) SampleRate() float64 { return o.sampleRate }

// Process returns one sample and advances the phase.
func (o *Oscillator) Process() float64 {
	p := o.phase
	dt := o.inc

	var y float64
	switch o.typ {
	case Sine:
		y = math.Sin(2 * math.Pi * p)
	case Triangle:
		y = triangle(p)
	case Saw:
		y = 2*p - 1
	case TriangleAA:
		y = triangle(p)
		y += 8 * dt * polyBLAMP(p, dt)
		y -= 8 * dt * polyBLAMP(wrap(p+0.5), dt)
	case SawAA:
		y = 2*p - 1
		y -= polyBLEP(p, dt)
	}

	o.phase += dt
	if o.phase >= 1 {
		o.phase -= 1
	}
	return y
}

// ProcessBlock fills dst with successive samples.
func (o *Oscillator) ProcessBlock(dst []float64) {
	for i := range dst {
		dst[i] = o.Process()
	}
}

// ProcessBlockFM fills dst like ProcessBlock, with a per-sample frequency
// offset in Hz added to the base frequency.
func (o *Oscillator) ProcessBlockFM(dst, offsetHz []float64) {
	base := o.freq
	for i := range dst {
		f := min(max(base+offsetHz[i], 0), o.sampleRate/2)
		o.inc = f / o.sampleRate
		dst[i] = o.Process()
	}
	o.inc = base / o.sampleRate
}

// triangle rises from -1 at phase 0 to +1 at phase 0.5.
func triangle(p float64) float64 {
	return 1 - 4*math.Abs(p-0.5)
}

func wrap(p float64) float64 {
	if p >= 1 {
		return p - 1
	}
	return p
}

// polyBLEP is the two-sample residual of a unit step at phase 0.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

// polyBLAMP is the residual of a slope change of one per sample at phase 0.
func polyBLAMP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t = t/dt - 1
		return -t * t * t / 6
	}
	if t > 1-dt {
		t = (t-1)/dt + 1
		return t * t * t / 6
	}
	return 0
}
