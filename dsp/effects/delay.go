package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/ramp"
)

const (
	defaultDelayTimeMs   = 500.0
	defaultDelayFeedback = 0.5
	defaultDelayWet      = 0.5
	defaultDelayDry      = 0.5
	defaultDelayChannels = 2
	minDelayTimeMs       = 1.0
	maxDelayTimeMs       = 2000.0
	maxDelayFeedback     = 0.95
)

// DelayOption mutates delay construction parameters.
type DelayOption func(*delayConfig) error

type delayConfig struct {
	timeMs   float64
	feedback float64
	wet      float64
	dry      float64
	channels int
}

// WithDelayTimeMs sets the delay time in [1, 2000] ms.
func WithDelayTimeMs(ms float64) DelayOption {
	return func(cfg *delayConfig) error {
		if err := validateDelayTime(ms); err != nil {
			return err
		}
		cfg.timeMs = ms
		return nil
	}
}

// WithDelayFeedback sets the feedback amount in [0, 0.95].
func WithDelayFeedback(fb float64) DelayOption {
	return func(cfg *delayConfig) error {
		if err := validateUnit("delay feedback", fb, maxDelayFeedback); err != nil {
			return err
		}
		cfg.feedback = fb
		return nil
	}
}

// WithDelayWet sets the wet level in [0, 1].
func WithDelayWet(wet float64) DelayOption {
	return func(cfg *delayConfig) error {
		if err := validateUnit("delay wet", wet, 1); err != nil {
			return err
		}
		cfg.wet = wet
		return nil
	}
}

// WithDelayDry sets the dry level in [0, 1].
func WithDelayDry(dry float64) DelayOption {
	return func(cfg *delayConfig) error {
		if err := validateUnit("delay dry", dry, 1); err != nil {
			return err
		}
		cfg.dry = dry
		return nil
	}
}

// WithDelayChannels sets the number of independent delay lines.
func WithDelayChannels(n int) DelayOption {
	return func(cfg *delayConfig) error {
		if n < 1 {
			return fmt.Errorf("delay channels must be >= 1: %d", n)
		}
		cfg.channels = n
		return nil
	}
}

// Delay is a multi-channel feedback delay with separate wet and dry levels.
//
// Per channel, with y the sample D frames back:
//
//	out  = wet*(y + fb*y) + dry*x
//	line = x + fb*y
//
// Time, feedback, wet and dry are linear ramps of 50 ms; the ramped time is
// truncated to whole samples. All channels share one write head.
type Delay struct {
	sampleRate float64

	lines [][]float64
	write int
	mono  [1][]float64

	delaySamples ramp.Ramp
	feedback     ramp.Ramp
	wet          ramp.Ramp
	dry          ramp.Ramp

	timeMs float64
}

// NewDelay creates a stereo delay with 500 ms time and 0.5 feedback/wet/dry.
func NewDelay(sampleRate float64, opts ...DelayOption) (*Delay, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("delay sample rate must be > 0: %f", sampleRate)
	}

	cfg := delayConfig{
		timeMs:   defaultDelayTimeMs,
		feedback: defaultDelayFeedback,
		wet:      defaultDelayWet,
		dry:      defaultDelayDry,
		channels: defaultDelayChannels,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	d := &Delay{
		timeMs:       cfg.timeMs,
		lines:        make([][]float64, cfg.channels),
		delaySamples: ramp.New(ramp.DefaultTime),
		feedback:     ramp.New(ramp.DefaultTime),
		wet:          ramp.New(ramp.DefaultTime),
		dry:          ramp.New(ramp.DefaultTime),
	}
	d.feedback.Prepare(sampleRate, true, cfg.feedback)
	d.wet.Prepare(sampleRate, true, cfg.wet)
	d.dry.Prepare(sampleRate, true, cfg.dry)
	if err := d.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return d, nil
}

// SetSampleRate reallocates the lines for 2 s of history, clears them and
// settles every ramp at its target.
func (d *Delay) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("delay sample rate must be > 0: %f", sampleRate)
	}
	d.sampleRate = sampleRate

	size := int(math.Ceil(maxDelayTimeMs*0.001*sampleRate)) + 1
	for i := range d.lines {
		d.lines[i] = make([]float64, size)
	}
	d.write = 0

	d.delaySamples.Prepare(sampleRate, true, d.msToSamples(d.timeMs))
	d.feedback.Prepare(sampleRate, true, d.feedback.Target())
	d.wet.Prepare(sampleRate, true, d.wet.Target())
	d.dry.Prepare(sampleRate, true, d.dry.Target())
	return nil
}

// SetTimeMs jumps to a new delay time.
func (d *Delay) SetTimeMs(ms float64) error {
	if err := validateDelayTime(ms); err != nil {
		return err
	}
	d.timeMs = ms
	d.delaySamples.SetTarget(d.msToSamples(ms), true)
	return nil
}

// SetTargetTimeMs ramps to a new delay time.
func (d *Delay) SetTargetTimeMs(ms float64) error {
	if err := validateDelayTime(ms); err != nil {
		return err
	}
	d.timeMs = ms
	d.delaySamples.SetTarget(d.msToSamples(ms), false)
	return nil
}

// SetFeedback ramps the feedback amount toward fb in [0, 0.95].
func (d *Delay) SetFeedback(fb float64) error {
	if err := validateUnit("delay feedback", fb, maxDelayFeedback); err != nil {
		return err
	}
	d.feedback.SetTarget(fb, false)
	return nil
}

// SetWet ramps the wet level.
func (d *Delay) SetWet(wet float64) error {
	if err := validateUnit("delay wet", wet, 1); err != nil {
		return err
	}
	d.wet.SetTarget(wet, false)
	return nil
}

// SetDry ramps the dry level.
func (d *Delay) SetDry(dry float64) error {
	if err := validateUnit("delay dry", dry, 1); err != nil {
		return err
	}
	d.dry.SetTarget(dry, false)
	return nil
}

// Reset clears delay state.
func (d *Delay) Reset() {
	for _, line := range d.lines {
		clear(line)
	}
	d.write = 0
}

// Process runs the delay over every channel in place. Channels beyond the
// configured line count pass through untouched.
func (d *Delay) Process(channels [][]float64) {
	n := core.Frames(channels)
	nch := min(len(channels), len(d.lines))
	size := len(d.lines[0])

	for i := 0; i < n; i++ {
		delay := max(int(d.delaySamples.Next()), 1)
		fb := d.feedback.Next()
		wet := d.wet.Next()
		dry := d.dry.Next()

		read := (d.write - delay + size) % size
		for ch := 0; ch < nch; ch++ {
			line := d.lines[ch]
			x := channels[ch][i]
			y := line[read]

			channels[ch][i] = wet*(y+fb*y) + dry*x
			line[d.write] = x + fb*y
		}

		d.write++
		if d.write >= size {
			d.write = 0
		}
	}
}

// ProcessInPlace runs buf through the first delay line.
func (d *Delay) ProcessInPlace(buf []float64) {
	d.mono[0] = buf
	d.Process(d.mono[:])
	d.mono[0] = nil
}

// SampleRate returns sample rate in Hz.
func (d *Delay) SampleRate() float64 { return d.sampleRate }

// TimeMs returns the target delay time.
func (d *Delay) TimeMs() float64 { return d.timeMs }

// CurrentDelaySamples returns the ramped delay in samples before truncation.
func (d *Delay) CurrentDelaySamples() float64 { return d.delaySamples.Value() }

// Feedback returns the feedback target.
func (d *Delay) Feedback() float64 { return d.feedback.Target() }

// Wet returns the wet target.
func (d *Delay) Wet() float64 { return d.wet.Target() }

// Dry returns the dry target.
func (d *Delay) Dry() float64 { return d.dry.Target() }

// Channels returns the number of delay lines.
func (d *Delay) Channels() int { return len(d.lines) }

func (d *Delay) msToSamples(ms float64) float64 {
	return ms * 0.001 * d.sampleRate
}

func validateDelayTime(ms float64) error {
	if ms < minDelayTimeMs || ms > maxDelayTimeMs || math.IsNaN(ms) {
		return fmt.Errorf("delay time must be in [%g, %g] ms: %f", minDelayTimeMs, maxDelayTimeMs, ms)
	}
	return nil
}

func validateUnit(name string, v, hi float64) error {
	if v < 0 || v > hi || math.IsNaN(v) {
		return fmt.Errorf("%s must be in [0, %g]: %f", name, hi, v)
	}
	return nil
}
