package effects

import (
	"fmt"
	"math"
)

const (
	defaultBitCrusherBitDepth   = 8.0
	defaultBitCrusherDownsample = 1
	defaultBitCrusherMix        = 1.0
	minBitCrusherBitDepth       = 1.0
	maxBitCrusherBitDepth       = 32.0
	maxBitCrusherDownsample     = 256
)

// BitCrusherOption mutates bit crusher construction parameters.
type BitCrusherOption func(*bitCrusherConfig) error

type bitCrusherConfig struct {
	bitDepth   float64
	downsample int
	mix        float64
}

func defaultBitCrusherConfig() bitCrusherConfig {
	return bitCrusherConfig{
		bitDepth:   defaultBitCrusherBitDepth,
		downsample: defaultBitCrusherDownsample,
		mix:        defaultBitCrusherMix,
	}
}

// WithBitCrusherBitDepth sets the quantization bit depth. Depths below 1 act
// as 1 and depths above 32 disable quantization.
func WithBitCrusherBitDepth(bitDepth float64) BitCrusherOption {
	return func(cfg *bitCrusherConfig) error {
		if math.IsNaN(bitDepth) {
			return fmt.Errorf("bit crusher bit depth must not be NaN")
		}
		cfg.bitDepth = bitDepth
		return nil
	}
}

// WithBitCrusherDownsample sets the sample-and-hold factor, clamped to [1, 256].
func WithBitCrusherDownsample(factor int) BitCrusherOption {
	return func(cfg *bitCrusherConfig) error {
		cfg.downsample = clampDownsample(factor)
		return nil
	}
}

// WithBitCrusherMix sets the dry/wet mix in [0, 1].
func WithBitCrusherMix(mix float64) BitCrusherOption {
	return func(cfg *bitCrusherConfig) error {
		if mix < 0 || mix > 1 || math.IsNaN(mix) || math.IsInf(mix, 0) {
			return fmt.Errorf("bit crusher mix must be in [0, 1]: %f", mix)
		}
		cfg.mix = mix
		return nil
	}
}

// BitCrusher is a quantize-and-hold lo-fi processor.
//
// Each sample first passes a sample-and-hold stage: with a downsample
// factor N > 1 the input is captured on every Nth tick and held in between.
// The result is then rounded to the nearest multiple of the quantization
// step 2/2^bitDepth. There is no anti-aliasing; the aliasing is the effect.
type BitCrusher struct {
	sampleRate float64
	bitDepth   float64
	downsample int
	mix        float64

	step float64

	holdCounter int
	holdValue   float64
}

// NewBitCrusher creates a bit crusher with the given sample rate and optional
// configuration overrides.
func NewBitCrusher(sampleRate float64, opts ...BitCrusherOption) (*BitCrusher, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("bit crusher sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultBitCrusherConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	bc := &BitCrusher{
		sampleRate: sampleRate,
		downsample: cfg.downsample,
		mix:        cfg.mix,
	}
	bc.setStep(cfg.bitDepth)
	return bc, nil
}

// SetSampleRate updates the sample rate.
func (bc *BitCrusher) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("bit crusher sample rate must be > 0 and finite: %f", sampleRate)
	}
	bc.sampleRate = sampleRate
	return nil
}

// SetBitDepth sets the quantization bit depth.
func (bc *BitCrusher) SetBitDepth(bitDepth float64) error {
	if math.IsNaN(bitDepth) {
		return fmt.Errorf("bit crusher bit depth must not be NaN")
	}
	bc.setStep(bitDepth)
	return nil
}

// SetDownsample sets the hold factor, clamped to [1, 256]. A changed factor
// restarts the hold counter.
func (bc *BitCrusher) SetDownsample(factor int) {
	factor = clampDownsample(factor)
	if factor != bc.downsample {
		bc.downsample = factor
		bc.holdCounter = 0
	}
}

// SetMix sets the dry/wet mix in [0, 1].
func (bc *BitCrusher) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) || math.IsInf(mix, 0) {
		return fmt.Errorf("bit crusher mix must be in [0, 1]: %f", mix)
	}
	bc.mix = mix
	return nil
}

// Reset clears the sample-and-hold state.
func (bc *BitCrusher) Reset() {
	bc.holdCounter = 0
	bc.holdValue = 0
}

// ProcessSample processes one sample through the bit crusher.
func (bc *BitCrusher) ProcessSample(input float64) float64 {
	v := input
	if bc.downsample > 1 {
		if bc.holdCounter == 0 {
			bc.holdValue = input
		}
		v = bc.holdValue
		bc.holdCounter = (bc.holdCounter + 1) % bc.downsample
	} else {
		bc.holdCounter = 0
	}

	if bc.step > 0 {
		v = bc.step * math.Floor(v/bc.step+0.5)
	}

	if bc.mix == 1 {
		return v
	}
	return input*(1-bc.mix) + v*bc.mix
}

// ProcessInPlace applies the bit crusher to buf in place.
func (bc *BitCrusher) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = bc.ProcessSample(buf[i])
	}
}

// SampleRate returns the sample rate in Hz.
func (bc *BitCrusher) SampleRate() float64 { return bc.sampleRate }

// BitDepth returns the effective bit depth; values above 32 mean no quantization.
func (bc *BitCrusher) BitDepth() float64 { return bc.bitDepth }

// Step returns the quantization step, or 0 when quantization is off.
func (bc *BitCrusher) Step() float64 { return bc.step }

// Downsample returns the hold factor.
func (bc *BitCrusher) Downsample() int { return bc.downsample }

// Mix returns the dry/wet mix in [0, 1].
func (bc *BitCrusher) Mix() float64 { return bc.mix }

func (bc *BitCrusher) setStep(bitDepth float64) {
	bitDepth = max(bitDepth, minBitCrusherBitDepth)
	bc.bitDepth = bitDepth
	if bitDepth > maxBitCrusherBitDepth {
		bc.step = 0
		return
	}
	bc.step = 2 / math.Exp2(bitDepth)
}

func clampDownsample(factor int) int {
	return min(max(factor, 1), maxBitCrusherDownsample)
}
