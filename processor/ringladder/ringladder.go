// Package ringladder implements a ladder-filter ring modulator.
//
// Signal flow per block:
//
//	ladder (mode, cutoff, resonance, drive) → diode ring modulator → DC blocker → post gain
//
// The enabled switch bypasses both the ladder and the ring modulator. The
// DC blocker and post gain always run, since the diode ring leaves an
// offset whenever the carrier is slow.
package ringladder

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/effects/modulation"
	"github.com/cwbudde/algo-retrofox/dsp/filter/dcblock"
	"github.com/cwbudde/algo-retrofox/dsp/filter/ladder"
	"github.com/cwbudde/algo-retrofox/dsp/ramp"
)

const (
	gainRampSeconds = 0.01
	diodeDrive      = 1.5
)

// Params is the control surface.
type Params struct {
	Enabled    bool    `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Drive      float64 `json:"drive" mapstructure:"drive" yaml:"drive"`
	CutoffHz   float64 `json:"cutoffHz" mapstructure:"cutoffHz" yaml:"cutoffHz"`
	Resonance  float64 `json:"resonance" mapstructure:"resonance" yaml:"resonance"`
	Mode       string  `json:"mode" mapstructure:"mode" yaml:"mode"`
	PostGainDb float64 `json:"postGainDb" mapstructure:"postGainDb" yaml:"postGainDb"`
	CarrierHz  float64 `json:"carrierHz" mapstructure:"carrierHz" yaml:"carrierHz"`
}

// DefaultParams returns an enabled 24 dB low-pass at 1 kHz with a 30 Hz
// carrier.
func DefaultParams() Params {
	return Params{
		Enabled:   true,
		Drive:     1,
		CutoffHz:  1000,
		Mode:      ladder.LPF24.String(),
		CarrierHz: 30,
	}
}

// Validate checks the mode name and every range.
func (p Params) Validate() error {
	if _, err := ladder.ParseMode(p.Mode); err != nil {
		return fmt.Errorf("ringladder: %w", err)
	}

	checks := []struct {
		name   string
		v      float64
		lo, hi float64
	}{
		{"drive", p.Drive, 1, 10},
		{"cutoff", p.CutoffHz, 20, 20000},
		{"resonance", p.Resonance, 0, 1},
		{"post gain", p.PostGainDb, -60, 12},
		{"carrier", p.CarrierHz, 0.1, 2000},
	}

	for _, c := range checks {
		if math.IsNaN(c.v) || c.v < c.lo || c.v > c.hi {
			return fmt.Errorf("ringladder: %s must be in [%g, %g]: %f", c.name, c.lo, c.hi, c.v)
		}
	}

	return nil
}

// Option configures a Processor.
type Option func(*config) error

type config struct {
	channels int
	params   Params
	logger   logrus.FieldLogger
}

// WithChannels sets the channel count.
func WithChannels(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("ringladder: channels must be > 0: %d", n)
		}

		cfg.channels = n

		return nil
	}
}

// WithParams sets the initial parameters.
func WithParams(p Params) Option {
	return func(cfg *config) error {
		err := p.Validate()
		if err != nil {
			return err
		}

		cfg.params = p

		return nil
	}
}

// WithLogger sets the logger used for parameter changes.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errors.New("ringladder: nil logger")
		}

		cfg.logger = l

		return nil
	}
}

// Processor is the ladder ring modulator graph.
type Processor struct {
	sampleRate float64
	channels   int
	params     Params

	filter *ladder.Filter
	ring   *modulation.RingModulator
	dc     *dcblock.Filter
	gain   ramp.Ramp

	log logrus.FieldLogger
}

// New builds a processor at sampleRate.
func New(sampleRate float64, opts ...Option) (*Processor, error) {
	cfg := config{
		channels: core.DefaultProcessorConfig().Channels,
		params:   DefaultParams(),
		logger:   logrus.StandardLogger(),
	}

	for _, opt := range opts {
		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("ringladder: sample rate must be positive and finite: %f", sampleRate)
	}

	p := &Processor{
		params: cfg.params,
		gain:   ramp.New(gainRampSeconds),
		log:    cfg.logger,
	}

	mode, _ := ladder.ParseMode(cfg.params.Mode)

	var err error

	p.filter, err = ladder.New(sampleRate,
		ladder.WithMode(mode),
		ladder.WithCutoffHz(cfg.params.CutoffHz),
		ladder.WithResonance(cfg.params.Resonance),
		ladder.WithDrive(cfg.params.Drive),
		ladder.WithEnabled(cfg.params.Enabled),
		ladder.WithChannels(cfg.channels),
	)
	if err != nil {
		return nil, err
	}

	p.ring, err = modulation.NewRingModulator(sampleRate,
		modulation.WithRingModCarrierHz(cfg.params.CarrierHz),
		modulation.WithRingModDrive(diodeDrive),
		modulation.WithRingModMix(1),
	)
	if err != nil {
		return nil, err
	}

	err = p.Prepare(sampleRate, cfg.channels)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Prepare resizes every stage and clears all signal state.
func (p *Processor) Prepare(sampleRate float64, channels int) error {
	err := p.filter.Prepare(sampleRate, channels)
	if err != nil {
		return err
	}

	err = p.ring.SetSampleRate(sampleRate)
	if err != nil {
		return err
	}

	p.dc, err = dcblock.New(sampleRate, channels)
	if err != nil {
		return err
	}

	p.sampleRate = sampleRate
	p.channels = channels
	p.gain.Prepare(sampleRate, true, core.DBToGain(p.params.PostGainDb))
	p.Reset()

	p.log.WithFields(logrus.Fields{
		"sampleRate": sampleRate,
		"channels":   channels,
	}).Debug("ringladder: prepared")

	return nil
}

// Reset clears filter state and rewinds the carrier.
func (p *Processor) Reset() {
	p.filter.Reset()
	p.ring.Reset()
	p.dc.Reset()
	p.gain.SetTarget(p.gain.Target(), true)
}

// Params returns the current parameters.
func (p *Processor) Params() Params { return p.params }

// SampleRate returns the current sample rate.
func (p *Processor) SampleRate() float64 { return p.sampleRate }

// Channels returns the prepared channel count.
func (p *Processor) Channels() int { return p.channels }

// SetParams validates next and applies every field that differs.
func (p *Processor) SetParams(next Params) error {
	err := next.Validate()
	if err != nil {
		return err
	}

	cur := p.params

	if next.Enabled != cur.Enabled {
		p.filter.SetEnabled(next.Enabled)
		p.changed("enabled", next.Enabled)
	}

	if next.Drive != cur.Drive {
		err = p.filter.SetDrive(next.Drive)
		if err != nil {
			return err
		}

		p.changed("drive", next.Drive)
	}

	if next.CutoffHz != cur.CutoffHz {
		err = p.filter.SetCutoffHz(next.CutoffHz)
		if err != nil {
			return err
		}

		p.changed("cutoffHz", next.CutoffHz)
	}

	if next.Resonance != cur.Resonance {
		err = p.filter.SetResonance(next.Resonance)
		if err != nil {
			return err
		}

		p.changed("resonance", next.Resonance)
	}

	if next.Mode != cur.Mode {
		mode, _ := ladder.ParseMode(next.Mode)

		err = p.filter.SetMode(mode)
		if err != nil {
			return err
		}

		p.changed("mode", next.Mode)
	}

	if next.PostGainDb != cur.PostGainDb {
		p.gain.SetTarget(core.DBToGain(next.PostGainDb), false)
		p.changed("postGainDb", next.PostGainDb)
	}

	if next.CarrierHz != cur.CarrierHz {
		err = p.ring.SetCarrierHz(next.CarrierHz)
		if err != nil {
			return err
		}

		p.changed("carrierHz", next.CarrierHz)
	}

	p.params = next

	return nil
}

func (p *Processor) changed(name string, v any) {
	p.log.WithFields(logrus.Fields{"param": name, "value": v}).Debug("ringladder: parameter changed")
}

// Process runs the graph in place. Channels beyond the prepared count pass
// through unchanged.
func (p *Processor) Process(channels [][]float64) {
	n := core.Frames(channels)
	if n == 0 {
		return
	}

	if len(channels) > p.channels {
		channels = channels[:p.channels]
	}

	p.filter.Process(channels)

	if p.params.Enabled {
		p.ring.ProcessChannels(channels)
	}

	p.dc.Process(channels)
	p.gain.ApplyGain(channels, n)
}
