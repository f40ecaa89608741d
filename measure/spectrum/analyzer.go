package spectrum

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-retrofox/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// ErrSize is returned for FFT sizes that are not a power of two >= 16.
var ErrSize = errors.New("spectrum: fft size must be a power of two >= 16")

// Analyzer owns an FFT plan, a Hann window and scratch buffers for one size.
type Analyzer struct {
	size   int
	plan   *algofft.Plan[complex128]
	window []float64
	frame  []float64
	in     []complex128
	out    []complex128
	re     []float64
	im     []float64
}

// NewAnalyzer prepares an analyzer for frames of the given size.
func NewAnalyzer(size int) (*Analyzer, error) {
	if size < 16 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrSize, size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum: fft plan: %w", err)
	}

	win, err := window.Hann(size, window.WithPeriodic())
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}

	bins := size/2 + 1
	return &Analyzer{
		size:   size,
		plan:   plan,
		window: win,
		frame:  make([]float64, size),
		in:     make([]complex128, size),
		out:    make([]complex128, size),
		re:     make([]float64, bins),
		im:     make([]float64, bins),
	}, nil
}

// Size returns the FFT length.
func (a *Analyzer) Size() int { return a.size }

// Bins returns the number of non-negative frequency bins.
func (a *Analyzer) Bins() int { return a.size/2 + 1 }

// Power writes |X[k]|² of the windowed signal into dst, which must hold
// Bins() values. Signals shorter than Size are zero padded, longer ones
// are truncated.
func (a *Analyzer) Power(dst, signal []float64) error {
	if len(dst) != a.Bins() {
		return fmt.Errorf("spectrum: dst has %d bins, want %d", len(dst), a.Bins())
	}

	n := copy(a.frame, signal)
	for i := n; i < a.size; i++ {
		a.frame[i] = 0
	}
	vecmath.MulBlockInPlace(a.frame, a.window)

	for i, v := range a.frame {
		a.in[i] = complex(v, 0)
	}
	if err := a.plan.Forward(a.out, a.in); err != nil {
		return fmt.Errorf("spectrum: forward fft: %w", err)
	}

	for k := range a.re {
		a.re[k] = real(a.out[k])
		a.im[k] = imag(a.out[k])
	}
	vecmath.Power(dst, a.re, a.im)
	return nil
}

// BinFrequency returns the centre frequency of bin k.
func BinFrequency(k, size int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(size)
}

// PeakBin returns the index of the largest value, skipping DC.
func PeakBin(power []float64) int {
	best := 0
	for k := 1; k < len(power); k++ {
		if best == 0 || power[k] > power[best] {
			best = k
		}
	}
	return best
}

// AliasRatio returns the fraction of non-DC energy that lies more than
// guard bins away from every harmonic of f0. For a band-limited periodic
// signal it is close to 0; folded partials raise it.
func AliasRatio(power []float64, f0, sampleRate float64, guard int) float64 {
	if len(power) < 2 || f0 <= 0 {
		return 0
	}

	size := 2 * (len(power) - 1)
	binHz := sampleRate / float64(size)
	harmonic := make([]bool, len(power))
	for f := f0; f < sampleRate/2; f += f0 {
		c := int(math.Round(f / binHz))
		for k := max(c-guard, 1); k <= min(c+guard, len(power)-1); k++ {
			harmonic[k] = true
		}
	}

	total := vecmath.Sum(power[1:])
	if total == 0 {
		return 0
	}

	var alias float64
	for k := 1; k < len(power); k++ {
		if !harmonic[k] {
			alias += power[k]
		}
	}
	return alias / total
}

// BandEnergy sums power over bins whose centre lies in [loHz, hiHz].
func BandEnergy(power []float64, sampleRate, loHz, hiHz float64) float64 {
	size := 2 * (len(power) - 1)
	var e float64
	for k := range power {
		f := BinFrequency(k, size, sampleRate)
		if f >= loHz && f <= hiHz {
			e += power[k]
		}
	}
	return e
}
