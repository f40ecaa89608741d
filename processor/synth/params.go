package synth

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-retrofox/dsp/filter/svf"
	"github.com/cwbudde/algo-retrofox/dsp/osc"
)

// Params is the synthesizer control surface.
type Params struct {
	OscType   string  `json:"oscType" mapstructure:"oscType" yaml:"oscType"`
	OscGainDb float64 `json:"oscGainDb" mapstructure:"oscGainDb" yaml:"oscGainDb"`

	FilterEnabled bool    `json:"filterEnabled" mapstructure:"filterEnabled" yaml:"filterEnabled"`
	FilterType    string  `json:"filterType" mapstructure:"filterType" yaml:"filterType"`
	CutoffHz      float64 `json:"cutoffHz" mapstructure:"cutoffHz" yaml:"cutoffHz"`
	Resonance     float64 `json:"resonance" mapstructure:"resonance" yaml:"resonance"`

	// LFORateHz of 0 leaves the cutoff static.
	LFORateHz      float64 `json:"lfoRateHz" mapstructure:"lfoRateHz" yaml:"lfoRateHz"`
	LFODepthOctave float64 `json:"lfoDepthOctaves" mapstructure:"lfoDepthOctaves" yaml:"lfoDepthOctaves"`

	AttackMs  float64 `json:"attackMs" mapstructure:"attackMs" yaml:"attackMs"`
	DecayMs   float64 `json:"decayMs" mapstructure:"decayMs" yaml:"decayMs"`
	Sustain   float64 `json:"sustain" mapstructure:"sustain" yaml:"sustain"`
	ReleaseMs float64 `json:"releaseMs" mapstructure:"releaseMs" yaml:"releaseMs"`
	EnvAnalog bool    `json:"envAnalog" mapstructure:"envAnalog" yaml:"envAnalog"`

	MasterGainDb float64 `json:"masterGainDb" mapstructure:"masterGainDb" yaml:"masterGainDb"`
}

// DefaultParams returns a plain sine voice through a 1 kHz low-pass.
func DefaultParams() Params {
	return Params{
		OscType:       osc.Sine.String(),
		FilterEnabled: true,
		FilterType:    svf.LowPass.String(),
		CutoffHz:      1000,
		Resonance:     0.5,
		AttackMs:      10,
		DecayMs:       100,
		Sustain:       0.7,
		ReleaseMs:     500,
	}
}

// Validate checks names and ranges.
func (p Params) Validate() error {
	if _, err := osc.ParseType(p.OscType); err != nil {
		return fmt.Errorf("synth: %w", err)
	}

	if _, err := svf.ParseMode(p.FilterType); err != nil {
		return fmt.Errorf("synth: %w", err)
	}

	checks := []struct {
		name   string
		v      float64
		lo, hi float64
	}{
		{"osc gain", p.OscGainDb, -60, 12},
		{"cutoff", p.CutoffHz, 20, 20000},
		{"resonance", p.Resonance, 0.1, 10},
		{"lfo rate", p.LFORateHz, 0, 50},
		{"lfo depth", p.LFODepthOctave, 0, 4},
		{"attack", p.AttackMs, 0.1, 5000},
		{"decay", p.DecayMs, 0.1, 5000},
		{"sustain", p.Sustain, 0, 1},
		{"release", p.ReleaseMs, 0.1, 5000},
		{"master gain", p.MasterGainDb, -60, 12},
	}

	for _, c := range checks {
		if math.IsNaN(c.v) || c.v < c.lo || c.v > c.hi {
			return fmt.Errorf("synth: %s must be in [%g, %g]: %f", c.name, c.lo, c.hi, c.v)
		}
	}

	return nil
}
