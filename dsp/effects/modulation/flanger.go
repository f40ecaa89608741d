package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/delay"
	"github.com/cwbudde/algo-retrofox/dsp/ramp"
)

const (
	defaultFlangerRateHz     = 0.5
	defaultFlangerDepthMs    = 2.0
	defaultFlangerOffsetMs   = 2.0
	defaultFlangerFeedback   = 0.0
	defaultFlangerMix        = 1.0
	defaultFlangerMaxDelayMs = 20.0
	defaultFlangerChannels   = 2

	maxFlangerRateHz = 20.0
)

// FlangerOption mutates flanger construction parameters.
type FlangerOption func(*flangerConfig) error

type flangerConfig struct {
	rateHz     float64
	depthMs    float64
	offsetMs   float64
	feedback   float64
	mix        float64
	maxDelayMs float64
	channels   int
}

func defaultFlangerConfig() flangerConfig {
	return flangerConfig{
		rateHz:     defaultFlangerRateHz,
		depthMs:    defaultFlangerDepthMs,
		offsetMs:   defaultFlangerOffsetMs,
		feedback:   defaultFlangerFeedback,
		mix:        defaultFlangerMix,
		maxDelayMs: defaultFlangerMaxDelayMs,
		channels:   defaultFlangerChannels,
	}
}

// WithFlangerRateHz sets modulation speed in Hz, range [0, 20].
func WithFlangerRateHz(rateHz float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if err := validateFlangerRate(rateHz); err != nil {
			return err
		}

		cfg.rateHz = rateHz

		return nil
	}
}

// WithFlangerDepthMs sets the sweep depth in milliseconds.
func WithFlangerDepthMs(depth float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if depth < 0 || math.IsNaN(depth) || math.IsInf(depth, 0) {
			return fmt.Errorf("flanger depth must be >= 0 and finite: %f", depth)
		}

		cfg.depthMs = depth

		return nil
	}
}

// WithFlangerOffsetMs sets the minimum delay in milliseconds.
func WithFlangerOffsetMs(offset float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if offset < 0 || math.IsNaN(offset) || math.IsInf(offset, 0) {
			return fmt.Errorf("flanger offset must be >= 0 and finite: %f", offset)
		}

		cfg.offsetMs = offset

		return nil
	}
}

// WithFlangerFeedback sets feedback amount in [-0.99, 0.99].
func WithFlangerFeedback(feedback float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if err := validateFlangerFeedback(feedback); err != nil {
			return err
		}

		cfg.feedback = feedback

		return nil
	}
}

// WithFlangerMix sets wet amount in [0, 1].
func WithFlangerMix(mix float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if err := validateFlangerMix(mix); err != nil {
			return err
		}

		cfg.mix = mix

		return nil
	}
}

// WithFlangerMaxDelayMs sizes the delay lines.
func WithFlangerMaxDelayMs(ms float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return fmt.Errorf("flanger max delay must be > 0 and finite: %f", ms)
		}

		cfg.maxDelayMs = ms

		return nil
	}
}

// WithFlangerChannels sets the number of delay lines.
func WithFlangerChannels(n int) FlangerOption {
	return func(cfg *flangerConfig) error {
		if n < 1 {
			return fmt.Errorf("flanger channels must be >= 1: %d", n)
		}

		cfg.channels = n

		return nil
	}
}

// Flanger is a modulated delay with one circular line per channel.
//
// The delay swept by the LFO is offset + depth*(0.5+0.5*sin(phase)) ms and
// is read with Hermite interpolation. Offset, depth and rate are linear
// ramps of 50 ms advanced once per frame, so parameter changes never jump.
// Each line receives x + feedback*d; the output is (1-mix)*x + mix*d.
type Flanger struct {
	sampleRate float64
	maxDelayMs float64

	lines []*delay.Line

	offsetMs ramp.Ramp
	depthMs  ramp.Ramp
	rateHz   ramp.Ramp

	feedback float64
	mix      float64

	phase float64
}

// NewFlanger creates a stereo flanger with practical defaults and optional
// overrides.
func NewFlanger(sampleRate float64, opts ...FlangerOption) (*Flanger, error) {
	cfg := defaultFlangerConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	f := &Flanger{
		maxDelayMs: cfg.maxDelayMs,
		lines:      make([]*delay.Line, cfg.channels),
		offsetMs:   ramp.New(ramp.DefaultTime),
		depthMs:    ramp.New(ramp.DefaultTime),
		rateHz:     ramp.New(ramp.DefaultTime),
		feedback:   cfg.feedback,
		mix:        cfg.mix,
	}
	f.offsetMs.SetTarget(cfg.offsetMs, true)
	f.depthMs.SetTarget(cfg.depthMs, true)
	f.rateHz.SetTarget(cfg.rateHz, true)

	err := f.Prepare(sampleRate, cfg.channels)
	if err != nil {
		return nil, err
	}

	return f, nil
}

// Prepare reallocates the delay lines for sampleRate and channels, clears
// them and settles every ramp at its target.
func (f *Flanger) Prepare(sampleRate float64, channels int) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("flanger sample rate must be > 0 and finite: %f", sampleRate)
	}

	if channels < 1 {
		return fmt.Errorf("flanger channels must be >= 1: %d", channels)
	}

	size := int(math.Ceil(f.maxDelayMs*0.001*sampleRate)) + 4

	lines := make([]*delay.Line, channels)
	for i := range lines {
		line, err := delay.New(size)
		if err != nil {
			return err
		}

		lines[i] = line
	}

	f.sampleRate = sampleRate
	f.lines = lines
	f.offsetMs.Prepare(sampleRate, true, f.offsetMs.Target())
	f.depthMs.Prepare(sampleRate, true, f.depthMs.Target())
	f.rateHz.Prepare(sampleRate, true, f.rateHz.Target())
	f.phase = 0

	return nil
}

// SetRateHz ramps the LFO rate.
func (f *Flanger) SetRateHz(rateHz float64) error {
	if err := validateFlangerRate(rateHz); err != nil {
		return err
	}

	f.rateHz.SetTarget(rateHz, false)

	return nil
}

// SetDepthMs ramps the sweep depth.
func (f *Flanger) SetDepthMs(depth float64) error {
	if depth < 0 || math.IsNaN(depth) || math.IsInf(depth, 0) {
		return fmt.Errorf("flanger depth must be >= 0 and finite: %f", depth)
	}

	f.depthMs.SetTarget(depth, false)

	return nil
}

// SetOffsetMs ramps the minimum delay.
func (f *Flanger) SetOffsetMs(offset float64) error {
	if offset < 0 || math.IsNaN(offset) || math.IsInf(offset, 0) {
		return fmt.Errorf("flanger offset must be >= 0 and finite: %f", offset)
	}

	f.offsetMs.SetTarget(offset, false)

	return nil
}

// SetFeedback sets feedback amount in [-0.99, 0.99].
func (f *Flanger) SetFeedback(feedback float64) error {
	if err := validateFlangerFeedback(feedback); err != nil {
		return err
	}

	f.feedback = feedback

	return nil
}

// SetMix sets wet amount in [0, 1].
func (f *Flanger) SetMix(mix float64) error {
	if err := validateFlangerMix(mix); err != nil {
		return err
	}

	f.mix = mix

	return nil
}

// Clear empties the delay lines and rewinds the LFO.
func (f *Flanger) Clear() {
	for _, line := range f.lines {
		line.Reset()
	}

	f.phase = 0
}

// Reset is an alias for Clear.
func (f *Flanger) Reset() { f.Clear() }

// advance steps the modulators one frame and returns the delay in samples.
func (f *Flanger) advance() float64 {
	offset := f.offsetMs.Next()
	depth := f.depthMs.Next()
	rate := f.rateHz.Next()

	lfo := 0.5 + 0.5*math.Sin(f.phase)

	f.phase += 2 * math.Pi * rate / f.sampleRate
	if f.phase >= 2*math.Pi {
		f.phase -= 2 * math.Pi
	}

	return max((offset+depth*lfo)*f.sampleRate/1000, 1)
}

func (f *Flanger) tick(line *delay.Line, x, delaySamples float64) float64 {
	d := line.ReadFractional(delaySamples)
	line.Write(x + f.feedback*d)

	return (1-f.mix)*x + f.mix*d
}

// ProcessSample runs one sample through the first line and advances the
// modulators.
func (f *Flanger) ProcessSample(x float64) float64 {
	return f.tick(f.lines[0], x, f.advance())
}

// Process reads in and writes out, frame by frame; out and in may alias.
// Channels beyond the configured line count are copied through.
func (f *Flanger) Process(out, in [][]float64) {
	n := min(core.Frames(out), core.Frames(in))
	nch := min(len(out), len(in))
	lines := min(nch, len(f.lines))

	for i := 0; i < n; i++ {
		delaySamples := f.advance()
		for ch := 0; ch < lines; ch++ {
			out[ch][i] = f.tick(f.lines[ch], in[ch][i], delaySamples)
		}
	}

	for ch := lines; ch < nch; ch++ {
		copy(out[ch][:n], in[ch][:n])
	}
}

// ProcessInPlace flanges channels in place.
func (f *Flanger) ProcessInPlace(channels [][]float64) {
	f.Process(channels, channels)
}

// SampleRate returns sample rate in Hz.
func (f *Flanger) SampleRate() float64 { return f.sampleRate }

// Channels returns the number of delay lines.
func (f *Flanger) Channels() int { return len(f.lines) }

// RateHz returns the LFO rate target.
func (f *Flanger) RateHz() float64 { return f.rateHz.Target() }

// DepthMs returns the depth target.
func (f *Flanger) DepthMs() float64 { return f.depthMs.Target() }

// OffsetMs returns the offset target.
func (f *Flanger) OffsetMs() float64 { return f.offsetMs.Target() }

// Feedback returns feedback amount.
func (f *Flanger) Feedback() float64 { return f.feedback }

// Mix returns wet amount in [0, 1].
func (f *Flanger) Mix() float64 { return f.mix }

func validateFlangerRate(rateHz float64) error {
	if rateHz < 0 || rateHz > maxFlangerRateHz || math.IsNaN(rateHz) {
		return fmt.Errorf("flanger rate must be in [0, %g]: %f", maxFlangerRateHz, rateHz)
	}

	return nil
}

func validateFlangerFeedback(feedback float64) error {
	if feedback < -0.99 || feedback > 0.99 || math.IsNaN(feedback) {
		return fmt.Errorf("flanger feedback must be in [-0.99, 0.99]: %f", feedback)
	}

	return nil
}

func validateFlangerMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) {
		return fmt.Errorf("flanger mix must be in [0, 1]: %f", mix)
	}

	return nil
}
