package retrofox

import (
	"fmt"
	"math"
)

// Params is the full RetroFoX control surface. Percentages run 0..100.
type Params struct {
	Drive            float64 `json:"drive" mapstructure:"drive" yaml:"drive"`
	BitDepth         float64 `json:"bitDepth" mapstructure:"bitDepth" yaml:"bitDepth"`
	RateReduce       int     `json:"rateReduce" mapstructure:"rateReduce" yaml:"rateReduce"`
	FlangerIntensity float64 `json:"flangerIntensity" mapstructure:"flangerIntensity" yaml:"flangerIntensity"`
	PostGainDb       float64 `json:"postGainDb" mapstructure:"postGainDb" yaml:"postGainDb"`
	TremoloEnabled   bool    `json:"tremoloEnabled" mapstructure:"tremoloEnabled" yaml:"tremoloEnabled"`
	TremoloRateHz    float64 `json:"tremoloRateHz" mapstructure:"tremoloRateHz" yaml:"tremoloRateHz"`
	TremoloDepth     float64 `json:"tremoloDepth" mapstructure:"tremoloDepth" yaml:"tremoloDepth"`
	VinylNoise       float64 `json:"vinylNoise" mapstructure:"vinylNoise" yaml:"vinylNoise"`
}

// DefaultParams returns the power-on settings: clean 16-bit signal, no
// flanger, tremolo armed at 1 Hz with zero depth, no vinyl noise.
func DefaultParams() Params {
	return Params{
		Drive:          1,
		BitDepth:       16,
		RateReduce:     1,
		TremoloEnabled: true,
		TremoloRateHz:  1,
	}
}

// Validate checks every field against its range.
func (p Params) Validate() error {
	checks := []struct {
		name   string
		v      float64
		lo, hi float64
	}{
		{"drive", p.Drive, 1, 10},
		{"bit depth", p.BitDepth, 1, 24},
		{"rate reduce", float64(p.RateReduce), 1, 64},
		{"flanger intensity", p.FlangerIntensity, 0, 100},
		{"post gain", p.PostGainDb, -60, 12},
		{"tremolo rate", p.TremoloRateHz, 0.1, 20},
		{"tremolo depth", p.TremoloDepth, 0, 100},
		{"vinyl noise", p.VinylNoise, 0, 100},
	}

	for _, c := range checks {
		if math.IsNaN(c.v) || c.v < c.lo || c.v > c.hi {
			return fmt.Errorf("retrofox: %s must be in [%g, %g]: %f", c.name, c.lo, c.hi, c.v)
		}
	}

	return nil
}

// flangerSettings maps intensity (percent) onto the flanger: deeper, faster
// and with a shorter base delay as intensity rises. on reports whether the
// wet path should be faded in.
func flangerSettings(intensityPct float64) (offsetMs, depthMs, rateHz float64, on bool) {
	i := math.Max(0, math.Min(intensityPct/100, 1))

	depthMs = i * maxFlangerDepthMs
	rateHz = lerp(i, minFlangerRateHz, maxFlangerRateHz)
	offsetMs = lerp(i, maxFlangerOffsetMs, minFlangerOffsetMs)

	if i < 0.01 {
		rateHz = 0
		offsetMs = maxFlangerOffsetMs
	}

	return offsetMs, depthMs, rateHz, i > 0.001
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}
