// Package dcblock removes DC offset with a second-order Butterworth
// high-pass at 20 Hz, one section per channel.
package dcblock

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-retrofox/dsp/filter/biquad"
	"github.com/cwbudde/algo-retrofox/dsp/filter/design"
)

// DefaultCutoffHz is the corner frequency of the blocker.
const DefaultCutoffHz = 20.0

// Filter is a multi-channel DC blocker.
type Filter struct {
	sampleRate float64
	cutoffHz   float64
	sections   []biquad.Section
}

// New creates a blocker with the given channel count at DefaultCutoffHz.
func New(sampleRate float64, channels int) (*Filter, error) {
	return NewWithCutoff(sampleRate, channels, DefaultCutoffHz)
}

// NewWithCutoff creates a blocker with an explicit corner frequency.
func NewWithCutoff(sampleRate float64, channels int, cutoffHz float64) (*Filter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("dcblock: sample rate must be > 0 and finite: %f", sampleRate)
	}
	if channels < 1 {
		return nil, fmt.Errorf("dcblock: channels must be >= 1: %d", channels)
	}
	if cutoffHz <= 0 || cutoffHz >= sampleRate/2 || math.IsNaN(cutoffHz) {
		return nil, fmt.Errorf("dcblock: cutoff must be in (0, %f): %f", sampleRate/2, cutoffHz)
	}

	f := &Filter{
		sampleRate: sampleRate,
		cutoffHz:   cutoffHz,
		sections:   make([]biquad.Section, channels),
	}
	c := design.Highpass(cutoffHz, design.ButterworthQ, sampleRate)
	for i := range f.sections {
		f.sections[i].Coefficients = c
	}

	return f, nil
}

// Channels returns the number of independent sections.
func (f *Filter) Channels() int { return len(f.sections) }

// CutoffHz returns the corner frequency.
func (f *Filter) CutoffHz() float64 { return f.cutoffHz }

// Coefficients returns the shared section coefficients.
func (f *Filter) Coefficients() biquad.Coefficients { return f.sections[0].Coefficients }

// Reset clears every channel.
func (f *Filter) Reset() {
	for i := range f.sections {
		f.sections[i].Reset()
	}
}

// ProcessSample filters one sample of channel ch.
func (f *Filter) ProcessSample(ch int, x float64) float64 {
	return f.sections[ch].ProcessSample(x)
}

// Process filters every channel in place. Channels beyond Channels() are
// left untouched.
func (f *Filter) Process(channels [][]float64) {
	for ch := 0; ch < min(len(channels), len(f.sections)); ch++ {
		f.sections[ch].ProcessBlock(channels[ch])
	}
}
