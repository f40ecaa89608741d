package effects

import (
	"fmt"
	"math"
)

const (
	defaultTremoloRateHz = 1.0
	defaultTremoloDepth  = 0.0
	defaultTremoloMix    = 1.0
	minTremoloRateHz     = 0.1
	maxTremoloRateHz     = 20.0

	// Depths at or below this are treated as off and leave the LFO parked.
	tremoloDepthFloor = 0.001
)

// TremoloOption mutates tremolo construction parameters.
type TremoloOption func(*tremoloConfig) error

type tremoloConfig struct {
	rateHz  float64
	depth   float64
	mix     float64
	enabled bool
}

func defaultTremoloConfig() tremoloConfig {
	return tremoloConfig{
		rateHz:  defaultTremoloRateHz,
		depth:   defaultTremoloDepth,
		mix:     defaultTremoloMix,
		enabled: true,
	}
}

// WithTremoloRateHz sets modulation speed in Hz, range [0.1, 20].
func WithTremoloRateHz(rateHz float64) TremoloOption {
	return func(cfg *tremoloConfig) error {
		if err := validateTremoloRate(rateHz); err != nil {
			return err
		}
		cfg.rateHz = rateHz
		return nil
	}
}

// WithTremoloDepth sets modulation depth in [0, 1].
func WithTremoloDepth(depth float64) TremoloOption {
	return func(cfg *tremoloConfig) error {
		if depth < 0 || depth > 1 || math.IsNaN(depth) {
			return fmt.Errorf("tremolo depth must be in [0, 1]: %f", depth)
		}
		cfg.depth = depth
		return nil
	}
}

// WithTremoloMix sets wet amount in [0, 1].
func WithTremoloMix(mix float64) TremoloOption {
	return func(cfg *tremoloConfig) error {
		if mix < 0 || mix > 1 || math.IsNaN(mix) {
			return fmt.Errorf("tremolo mix must be in [0, 1]: %f", mix)
		}
		cfg.mix = mix
		return nil
	}
}

// WithTremoloEnabled switches the effect on or off.
func WithTremoloEnabled(enabled bool) TremoloOption {
	return func(cfg *tremoloConfig) error {
		cfg.enabled = enabled
		return nil
	}
}

// Tremolo applies sine LFO amplitude modulation. The gain runs from 1 at
// the LFO trough down to 1-depth at its crest. One LFO is shared by all
// channels of a block.
type Tremolo struct {
	sampleRate float64
	rateHz     float64
	depth      float64
	mix        float64
	enabled    bool

	phase float64
	inc   float64
}

// NewTremolo creates a tremolo with a 1 Hz rate and zero depth.
func NewTremolo(sampleRate float64, opts ...TremoloOption) (*Tremolo, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("tremolo sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultTremoloConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	t := &Tremolo{
		sampleRate: sampleRate,
		rateHz:     cfg.rateHz,
		depth:      cfg.depth,
		mix:        cfg.mix,
		enabled:    cfg.enabled,
	}
	t.updateIncrement()
	return t, nil
}

// SetSampleRate updates sample rate.
func (t *Tremolo) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("tremolo sample rate must be > 0 and finite: %f", sampleRate)
	}
	t.sampleRate = sampleRate
	t.updateIncrement()
	return nil
}

// SetRateHz sets modulation speed in Hz.
func (t *Tremolo) SetRateHz(rateHz float64) error {
	if err := validateTremoloRate(rateHz); err != nil {
		return err
	}
	t.rateHz = rateHz
	t.updateIncrement()
	return nil
}

// SetDepth sets modulation depth, clamped to [0, 1].
func (t *Tremolo) SetDepth(depth float64) error {
	if math.IsNaN(depth) {
		return fmt.Errorf("tremolo depth must not be NaN")
	}
	t.depth = min(max(depth, 0), 1)
	return nil
}

// SetMix sets wet amount in [0, 1].
func (t *Tremolo) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) {
		return fmt.Errorf("tremolo mix must be in [0, 1]: %f", mix)
	}
	t.mix = mix
	return nil
}

// SetEnabled switches the effect on or off.
func (t *Tremolo) SetEnabled(enabled bool) { t.enabled = enabled }

// Active reports whether processing changes the signal.
func (t *Tremolo) Active() bool { return t.enabled && t.depth > tremoloDepthFloor }

// Reset rewinds the LFO.
func (t *Tremolo) Reset() {
	t.phase = 0
}

func (t *Tremolo) nextGain() float64 {
	lfo := 0.5 + 0.5*math.Sin(t.phase)
	t.phase += t.inc
	if t.phase >= 2*math.Pi {
		t.phase -= 2 * math.Pi
	}

	g := 1 - t.depth*lfo
	return (1 - t.mix) + g*t.mix
}

// Process processes one sample and advances the LFO.
func (t *Tremolo) Process(sample float64) float64 {
	if !t.Active() {
		return sample
	}
	return sample * t.nextGain()
}

// ProcessInPlace applies tremolo to buf in place.
func (t *Tremolo) ProcessInPlace(buf []float64) {
	if !t.Active() {
		return
	}
	for i := range buf {
		buf[i] *= t.nextGain()
	}
}

// ProcessChannels applies one shared LFO to the first n samples of each channel.
func (t *Tremolo) ProcessChannels(channels [][]float64, n int) {
	if !t.Active() {
		return
	}
	for i := 0; i < n; i++ {
		g := t.nextGain()
		for _, ch := range channels {
			ch[i] *= g
		}
	}
}

// SampleRate returns sample rate in Hz.
func (t *Tremolo) SampleRate() float64 { return t.sampleRate }

// RateHz returns LFO speed in Hz.
func (t *Tremolo) RateHz() float64 { return t.rateHz }

// Depth returns modulation depth in [0, 1].
func (t *Tremolo) Depth() float64 { return t.depth }

// Mix returns wet amount in [0, 1].
func (t *Tremolo) Mix() float64 { return t.mix }

// Enabled reports the enable switch.
func (t *Tremolo) Enabled() bool { return t.enabled }

func (t *Tremolo) updateIncrement() {
	t.inc = 2 * math.Pi * t.rateHz / t.sampleRate
}

func validateTremoloRate(rateHz float64) error {
	if rateHz < minTremoloRateHz || rateHz > maxTremoloRateHz || math.IsNaN(rateHz) {
		return fmt.Errorf("tremolo rate must be in [%g, %g]: %f", minTremoloRateHz, maxTremoloRateHz, rateHz)
	}
	return nil
}
