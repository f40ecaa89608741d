package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-retrofox/dsp/core"
)

const (
	defaultRingModCarrierHz = 30.0
	defaultRingModMix       = 1.0
	defaultRingModDrive     = 1.5

	minRingModCarrierHz = 0.1
	maxRingModCarrierHz = 2000.0
)

// RingModulatorOption mutates ring modulator construction parameters.
type RingModulatorOption func(*ringModConfig) error

type ringModConfig struct {
	carrierHz float64
	mix       float64
	drive     float64
}

func defaultRingModConfig() ringModConfig {
	return ringModConfig{
		carrierHz: defaultRingModCarrierHz,
		mix:       defaultRingModMix,
		drive:     defaultRingModDrive,
	}
}

// WithRingModCarrierHz sets the carrier frequency in Hz, range [0.1, 2000].
func WithRingModCarrierHz(carrierHz float64) RingModulatorOption {
	return func(cfg *ringModConfig) error {
		if err := validateRingModCarrier(carrierHz); err != nil {
			return err
		}

		cfg.carrierHz = carrierHz

		return nil
	}
}

// WithRingModMix sets the dry/wet mix in [0, 1], where 0 is fully dry and 1 is fully wet.
func WithRingModMix(mix float64) RingModulatorOption {
	return func(cfg *ringModConfig) error {
		if mix < 0 || mix > 1 || math.IsNaN(mix) || math.IsInf(mix, 0) {
			return fmt.Errorf("ring modulator mix must be in [0, 1]: %f", mix)
		}

		cfg.mix = mix

		return nil
	}
}

// WithRingModDrive sets the diode saturation factor.
func WithRingModDrive(drive float64) RingModulatorOption {
	return func(cfg *ringModConfig) error {
		if drive <= 0 || math.IsNaN(drive) || math.IsInf(drive, 0) {
			return fmt.Errorf("ring modulator drive must be > 0 and finite: %f", drive)
		}

		cfg.drive = drive

		return nil
	}
}

// RingModulator is a diode-style ring modulator. Two saturating branches
// fed with the sum and the difference of input and carrier are subtracted.
// The result is even in x and odd in the carrier, so silent input still
// passes a soft-clipped carrier of amplitude 2*tanh(drive):
//
//	m   = cos(2π * carrierHz * t)
//	wet = tanh(drive*(x+m)) - tanh(drive*(x-m))
//	y   = x*(1-mix) + wet*mix
type RingModulator struct {
	sampleRate float64
	carrierHz  float64
	mix        float64
	drive      float64

	phase    float64
	phaseInc float64
}

// NewRingModulator creates a ring modulator with the given sample rate and
// optional configuration overrides.
func NewRingModulator(sampleRate float64, opts ...RingModulatorOption) (*RingModulator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("ring modulator sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultRingModConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	r := &RingModulator{
		sampleRate: sampleRate,
		carrierHz:  cfg.carrierHz,
		mix:        cfg.mix,
		drive:      cfg.drive,
	}
	r.updatePhaseInc()

	return r, nil
}

// SetSampleRate updates the sample rate and keeps the carrier phase.
func (r *RingModulator) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("ring modulator sample rate must be > 0 and finite: %f", sampleRate)
	}

	r.sampleRate = sampleRate
	r.updatePhaseInc()

	return nil
}

// SetCarrierHz sets the carrier frequency in Hz.
func (r *RingModulator) SetCarrierHz(carrierHz float64) error {
	if err := validateRingModCarrier(carrierHz); err != nil {
		return err
	}

	r.carrierHz = carrierHz
	r.updatePhaseInc()

	return nil
}

// SetMix sets the dry/wet mix in [0, 1].
func (r *RingModulator) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) || math.IsInf(mix, 0) {
		return fmt.Errorf("ring modulator mix must be in [0, 1]: %f", mix)
	}

	r.mix = mix

	return nil
}

// Reset rewinds the carrier to phase zero.
func (r *RingModulator) Reset() {
	r.phase = 0
}

func (r *RingModulator) carrier() float64 {
	m := math.Cos(r.phase)

	r.phase += r.phaseInc
	if r.phase >= 2*math.Pi {
		r.phase -= 2 * math.Pi
	}

	return m
}

func (r *RingModulator) shape(x, m float64) float64 {
	wet := math.Tanh(r.drive*(x+m)) - math.Tanh(r.drive*(x-m))
	return x*(1-r.mix) + wet*r.mix
}

// ProcessSample modulates one sample and advances the carrier.
func (r *RingModulator) ProcessSample(x float64) float64 {
	return r.shape(x, r.carrier())
}

// ProcessInPlace modulates a mono buffer in place.
func (r *RingModulator) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = r.ProcessSample(buf[i])
	}
}

// ProcessChannels modulates every channel with one shared carrier.
func (r *RingModulator) ProcessChannels(channels [][]float64) {
	n := core.Frames(channels)

	for i := 0; i < n; i++ {
		m := r.carrier()
		for _, ch := range channels {
			ch[i] = r.shape(ch[i], m)
		}
	}
}

// SampleRate returns the sample rate in Hz.
func (r *RingModulator) SampleRate() float64 { return r.sampleRate }

// CarrierHz returns the carrier frequency in Hz.
func (r *RingModulator) CarrierHz() float64 { return r.carrierHz }

// Mix returns the dry/wet mix.
func (r *RingModulator) Mix() float64 { return r.mix }

// Drive returns the diode saturation factor.
func (r *RingModulator) Drive() float64 { return r.drive }

func (r *RingModulator) updatePhaseInc() {
	r.phaseInc = 2 * math.Pi * r.carrierHz / r.sampleRate
}

func validateRingModCarrier(carrierHz float64) error {
	if carrierHz < minRingModCarrierHz || carrierHz > maxRingModCarrierHz || math.IsNaN(carrierHz) {
		return fmt.Errorf("ring modulator carrier frequency must be in [%g, %g]: %f",
			minRingModCarrierHz, maxRingModCarrierHz, carrierHz)
	}

	return nil
}
