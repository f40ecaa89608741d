// Package svf implements a two-integrator state-variable filter with
// simultaneous low-pass, band-pass and high-pass outputs.
//
// The integrators are trapezoidal (topology-preserving transform), so the
// response stays stable under per-sample cutoff and resonance modulation
// up to Nyquist. Resonance is expressed as Q; damping is k = 1/Q and the
// outputs satisfy hp = x - k*bp - lp exactly.
package svf

import (
	"fmt"
	"math"
)

const (
	defaultCutoffHz = 1000.0
	defaultQ        = 0.7071067811865476

	minCutoffHz = 1.0
	// nyquistGuard keeps tan(π f/fs) finite.
	nyquistGuard = 0.49
	minQ         = 0.05
	maxQ         = 100.0
)

// Mode selects a single output for in-place filtering.
type Mode int

const (
	LowPass Mode = iota
	BandPass
	HighPass
)

func (m Mode) String() string {
	switch m {
	case LowPass:
		return "lowpass"
	case BandPass:
		return "bandpass"
	case HighPass:
		return "highpass"
	default:
		return "unknown"
	}
}

// ParseMode maps "lowpass", "bandpass" or "highpass" to a Mode.
func ParseMode(name string) (Mode, error) {
	for m := LowPass; m <= HighPass; m++ {
		if m.String() == name {
			return m, nil
		}
	}

	return LowPass, fmt.Errorf("svf: unknown mode %q", name)
}

// ModeMix returns crossfade weights for a continuous mode control in
// [-1, 1]: -1 is pure low-pass, 0 pure band-pass, +1 pure high-pass.
func ModeMix(m float64) (lp, bp, hp float64) {
	lp = math.Max(-m, 0)
	bp = math.Max(1-math.Abs(m), 0)
	hp = math.Max(m, 0)

	return lp, bp, hp
}

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	cutoffHz float64
	q        float64
}

// WithCutoffHz sets the initial cutoff frequency.
func WithCutoffHz(hz float64) Option {
	return func(cfg *config) error {
		if math.IsNaN(hz) || math.IsInf(hz, 0) || hz < minCutoffHz {
			return fmt.Errorf("svf: cutoff must be finite and >= %g: %f", minCutoffHz, hz)
		}

		cfg.cutoffHz = hz

		return nil
	}
}

// WithQ sets the initial resonance.
func WithQ(q float64) Option {
	return func(cfg *config) error {
		if math.IsNaN(q) || q < minQ || q > maxQ {
			return fmt.Errorf("svf: Q must be in [%g, %g]: %f", minQ, maxQ, q)
		}

		cfg.q = q

		return nil
	}
}

// Filter is a single-channel state-variable filter.
type Filter struct {
	sampleRate float64
	cutoffHz   float64
	q          float64

	// coefficient cache, valid for (cutoffHz, q)
	g, k, a1, a2, a3 float64

	ic1, ic2 float64
}

// New creates a filter at sampleRate.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("svf: sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := config{cutoffHz: defaultCutoffHz, q: defaultQ}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	f := &Filter{sampleRate: sampleRate}
	f.setCoefficients(cfg.cutoffHz, cfg.q)

	return f, nil
}

// Prepare changes the sample rate and clears the state.
func (f *Filter) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("svf: sample rate must be > 0 and finite: %f", sampleRate)
	}

	f.sampleRate = sampleRate
	f.setCoefficients(f.cutoffHz, f.q)
	f.Reset()

	return nil
}

// Reset clears both integrators.
func (f *Filter) Reset() {
	f.ic1 = 0
	f.ic2 = 0
}

// SetCutoffHz sets the cutoff, clamped below Nyquist.
func (f *Filter) SetCutoffHz(hz float64) error {
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return fmt.Errorf("svf: cutoff must be finite: %f", hz)
	}

	f.setCoefficients(hz, f.q)

	return nil
}

// SetQ sets the resonance, clamped to [0.05, 100].
func (f *Filter) SetQ(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return fmt.Errorf("svf: Q must be finite: %f", q)
	}

	f.setCoefficients(f.cutoffHz, q)

	return nil
}

// CutoffHz returns the effective (clamped) cutoff.
func (f *Filter) CutoffHz() float64 { return f.cutoffHz }

// Q returns the effective resonance.
func (f *Filter) Q() float64 { return f.q }

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

func (f *Filter) setCoefficients(hz, q float64) {
	hz = min(max(hz, minCutoffHz), nyquistGuard*f.sampleRate)
	q = min(max(q, minQ), maxQ)

	f.cutoffHz = hz
	f.q = q
	f.g = math.Tan(math.Pi * hz / f.sampleRate)
	f.k = 1 / q
	f.a1 = 1 / (1 + f.g*(f.g+f.k))
	f.a2 = f.g * f.a1
	f.a3 = f.g * f.a2
}

// ProcessSample filters one sample with the current coefficients.
func (f *Filter) ProcessSample(x float64) (lp, bp, hp float64) {
	v3 := x - f.ic2
	v1 := f.a1*f.ic1 + f.a2*v3
	v2 := f.ic2 + f.a2*f.ic1 + f.a3*v3

	f.ic1 = 2*v1 - f.ic1
	f.ic2 = 2*v2 - f.ic2

	return v2, v1, x - f.k*v1 - v2
}

// ProcessSampleMod filters one sample at the given cutoff and Q.
// Coefficients are recomputed only when either value changes.
func (f *Filter) ProcessSampleMod(x, cutoffHz, q float64) (lp, bp, hp float64) {
	if cutoffHz != f.cutoffHz || q != f.q {
		f.setCoefficients(cutoffHz, q)
	}

	return f.ProcessSample(x)
}

// Process filters in with per-sample cutoff and Q and writes the three
// responses. Any of lp, bp, hp may be nil; cutoffHz and q may be nil to
// keep the current setting. Non-nil slices must be at least len(in) long.
func (f *Filter) Process(lp, bp, hp, in, cutoffHz, q []float64) {
	for i, x := range in {
		c, r := f.cutoffHz, f.q
		if cutoffHz != nil {
			c = cutoffHz[i]
		}
		if q != nil {
			r = q[i]
		}

		l, b, h := f.ProcessSampleMod(x, c, r)
		if lp != nil {
			lp[i] = l
		}
		if bp != nil {
			bp[i] = b
		}
		if hp != nil {
			hp[i] = h
		}
	}
}

// ProcessInPlace replaces buf with one response.
func (f *Filter) ProcessInPlace(buf []float64, mode Mode) {
	for i, x := range buf {
		l, b, h := f.ProcessSample(x)
		switch mode {
		case BandPass:
			buf[i] = b
		case HighPass:
			buf[i] = h
		default:
			buf[i] = l
		}
	}
}
