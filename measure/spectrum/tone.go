package spectrum

import (
	"fmt"
	"math"
)

// Tone is a single-bin Goertzel detector.
type Tone struct {
	coeff  float64
	s1, s2 float64
	n      int
}

// NewTone creates a detector for frequency at sampleRate.
func NewTone(frequency, sampleRate float64) (*Tone, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) {
		return nil, fmt.Errorf("spectrum: sample rate must be > 0: %f", sampleRate)
	}
	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("spectrum: tone frequency must be in [0, %f]: %f", sampleRate/2, frequency)
	}
	return &Tone{coeff: 2 * math.Cos(2*math.Pi*frequency/sampleRate)}, nil
}

// Process feeds a block of samples.
func (t *Tone) Process(block []float64) {
	s1, s2 := t.s1, t.s2
	for _, x := range block {
		s0 := x + t.coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	t.s1, t.s2 = s1, s2
	t.n += len(block)
}

// Amplitude returns the estimated sinusoid amplitude seen so far.
func (t *Tone) Amplitude() float64 {
	if t.n == 0 {
		return 0
	}
	p := t.s1*t.s1 + t.s2*t.s2 - t.coeff*t.s1*t.s2
	if p < 0 {
		p = 0
	}
	return 2 * math.Sqrt(p) / float64(t.n)
}

// Reset clears the accumulator.
func (t *Tone) Reset() {
	t.s1, t.s2, t.n = 0, 0, 0
}

// ToneAmplitude measures one frequency over a whole block.
func ToneAmplitude(block []float64, frequency, sampleRate float64) (float64, error) {
	t, err := NewTone(frequency, sampleRate)
	if err != nil {
		return 0, err
	}
	t.Process(block)
	return t.Amplitude(), nil
}
