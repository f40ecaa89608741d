package effects

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/filter/svf"
)

const (
	defaultVinylCutoffHz = 3000.0
	defaultVinylQ        = 0.7071067811865476

	// Full-scale noise is attenuated by this before the level is applied.
	vinylHeadroom = 0.1

	vinylLevelFloor = 0.001
)

// VinylOption mutates vinyl noise construction parameters.
type VinylOption func(*vinylConfig) error

type vinylConfig struct {
	level    float64
	seed     uint64
	seeded   bool
	cutoffHz float64
}

// WithVinylLevel sets the noise level in [0, 1].
func WithVinylLevel(level float64) VinylOption {
	return func(cfg *vinylConfig) error {
		if level < 0 || level > 1 || math.IsNaN(level) {
			return fmt.Errorf("vinyl level must be in [0, 1]: %f", level)
		}

		cfg.level = level

		return nil
	}
}

// WithVinylSeed makes the noise sequence reproducible.
func WithVinylSeed(seed uint64) VinylOption {
	return func(cfg *vinylConfig) error {
		cfg.seed = seed
		cfg.seeded = true

		return nil
	}
}

// WithVinylCutoffHz sets the low-pass corner that colors the hiss.
func WithVinylCutoffHz(hz float64) VinylOption {
	return func(cfg *vinylConfig) error {
		if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
			return fmt.Errorf("vinyl cutoff must be > 0 and finite: %f", hz)
		}

		cfg.cutoffHz = hz

		return nil
	}
}

// VinylNoise adds low-passed uniform noise to every channel. One noise
// sample per frame is shared by all channels:
//
//	n = lowpass(uniform(-1, 1)) * level * 0.1
//
// Levels at or below 0.001 bypass the generator and leave the filter idle.
type VinylNoise struct {
	level  float64
	seed   uint64
	rng    *rand.Rand
	filter *svf.Filter
}

// NewVinylNoise creates a silent noise source unless WithVinylLevel is given.
func NewVinylNoise(sampleRate float64, opts ...VinylOption) (*VinylNoise, error) {
	cfg := vinylConfig{cutoffHz: defaultVinylCutoffHz}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	// Keep the corner below Nyquist for low sample rates.
	cutoff := min(cfg.cutoffHz, 0.45*sampleRate)

	filter, err := svf.New(sampleRate, svf.WithCutoffHz(cutoff), svf.WithQ(defaultVinylQ))
	if err != nil {
		return nil, fmt.Errorf("vinyl: %w", err)
	}

	seed := cfg.seed
	if !cfg.seeded {
		seed = rand.Uint64()
	}

	return &VinylNoise{
		level:  cfg.level,
		seed:   seed,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		filter: filter,
	}, nil
}

// SetLevel sets the noise level in [0, 1].
func (v *VinylNoise) SetLevel(level float64) error {
	if level < 0 || level > 1 || math.IsNaN(level) {
		return fmt.Errorf("vinyl level must be in [0, 1]: %f", level)
	}

	v.level = level

	return nil
}

// Level returns the noise level.
func (v *VinylNoise) Level() float64 { return v.level }

// Active reports whether Process adds anything.
func (v *VinylNoise) Active() bool { return v.level > vinylLevelFloor }

// Prepare re-tunes the filter for a new sample rate and clears its state.
func (v *VinylNoise) Prepare(sampleRate float64) error {
	err := v.filter.Prepare(sampleRate)
	if err != nil {
		return fmt.Errorf("vinyl: %w", err)
	}

	return nil
}

// Reset clears the filter and restarts the noise sequence.
func (v *VinylNoise) Reset() {
	v.filter.Reset()
	v.rng = rand.New(rand.NewPCG(v.seed, v.seed^0x9e3779b97f4a7c15))
}

// Next returns one scaled noise sample.
func (v *VinylNoise) Next() float64 {
	x := v.rng.Float64()*2 - 1
	lp, _, _ := v.filter.ProcessSample(x)

	return lp * v.level * vinylHeadroom
}

// Process adds noise to every channel in place.
func (v *VinylNoise) Process(channels [][]float64) {
	if !v.Active() {
		return
	}

	n := core.Frames(channels)
	for i := 0; i < n; i++ {
		s := v.Next()
		for _, ch := range channels {
			ch[i] += s
		}
	}
}
