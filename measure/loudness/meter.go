// Package loudness measures programme loudness after ITU-R BS.1770:
// K-weighting, 400 ms momentary and 3 s short-term windows and the gated
// integrated value of EBU R128.
package loudness

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/filter/biquad"
	"github.com/cwbudde/algo-retrofox/dsp/filter/design"
)

const (
	shelfHz     = 1500.0
	shelfGainDb = 4.0
	highpassHz  = 38.0

	momentarySeconds = 0.4
	shortTermSeconds = 3.0
	// Gating blocks overlap by 75 %.
	blockStepSeconds = momentarySeconds / 4

	absoluteGate = -70.0
	relativeGate = -10.0

	// Floor reports for windows holding no energy.
	Floor = -120.0
)

// Meter accumulates K-weighted power over planar blocks.
type Meter struct {
	sampleRate float64
	channels   int

	shelf []*biquad.Section
	hp    []*biquad.Section

	mom   window
	short window

	step, sinceStep int
	blocks          []float64
	maxMomentary    float64
}

// window is a sliding sum of squares over n frames, summed across
// channels.
type window struct {
	hist []float64
	pos  int
	sum  float64
}

func newWindow(n int) window {
	return window{hist: make([]float64, n)}
}

func (w *window) push(v float64) {
	w.sum += v - w.hist[w.pos]
	if w.sum < 0 {
		w.sum = 0
	}

	w.hist[w.pos] = v
	w.pos++

	if w.pos == len(w.hist) {
		w.pos = 0
	}
}

func (w *window) mean() float64 {
	return w.sum / float64(len(w.hist))
}

func (w *window) reset() {
	clear(w.hist)
	w.pos = 0
	w.sum = 0
}

// New returns a meter for the given rate and channel count. All channels
// are weighted equally.
func New(sampleRate float64, channels int) (*Meter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("loudness: sample rate must be > 0: %f", sampleRate)
	}

	if channels < 1 {
		return nil, fmt.Errorf("loudness: channels must be > 0: %d", channels)
	}

	shelf := design.HighShelf(shelfHz, shelfGainDb, design.ButterworthQ, sampleRate)
	hp := design.Highpass(highpassHz, design.ButterworthQ, sampleRate)

	m := &Meter{
		sampleRate: sampleRate,
		channels:   channels,
		shelf:      make([]*biquad.Section, channels),
		hp:         make([]*biquad.Section, channels),
		mom:        newWindow(int(math.Round(momentarySeconds * sampleRate))),
		short:      newWindow(int(math.Round(shortTermSeconds * sampleRate))),
		step:       max(1, int(math.Round(blockStepSeconds*sampleRate))),
	}

	for ch := range channels {
		m.shelf[ch] = biquad.NewSection(shelf)
		m.hp[ch] = biquad.NewSection(hp)
	}

	m.Reset()

	return m, nil
}

// Reset clears filter state, windows and gating blocks.
func (m *Meter) Reset() {
	for ch := range m.channels {
		m.shelf[ch].Reset()
		m.hp[ch].Reset()
	}

	m.mom.reset()
	m.short.reset()
	m.sinceStep = 0
	m.blocks = m.blocks[:0]
	m.maxMomentary = math.Inf(-1)
}

// Process measures one planar block. Channels beyond the meter's count
// are ignored; missing channels count as silence.
func (m *Meter) Process(channels [][]float64) {
	n := core.Frames(channels)
	used := min(len(channels), m.channels)

	for i := range n {
		var power float64

		for ch := range used {
			v := m.hp[ch].ProcessSample(m.shelf[ch].ProcessSample(channels[ch][i]))
			power += v * v
		}

		m.mom.push(power)
		m.short.push(power)

		m.sinceStep++
		if m.sinceStep < m.step {
			continue
		}

		m.sinceStep = 0

		ms := m.mom.mean()
		m.blocks = append(m.blocks, ms)
		m.maxMomentary = math.Max(m.maxMomentary, toLUFS(ms))
	}
}

// Momentary returns the loudness of the last 400 ms in LUFS.
func (m *Meter) Momentary() float64 { return toLUFS(m.mom.mean()) }

// ShortTerm returns the loudness of the last 3 s in LUFS.
func (m *Meter) ShortTerm() float64 { return toLUFS(m.short.mean()) }

// MaxMomentary returns the highest momentary loudness seen at a block
// boundary, or -Inf before the first block.
func (m *Meter) MaxMomentary() float64 { return m.maxMomentary }

// Integrated returns the gated loudness since Reset in LUFS, or -Inf when
// every block falls below the gates.
func (m *Meter) Integrated() float64 {
	sum, n := gatedMean(m.blocks, absoluteGate)
	if n == 0 {
		return math.Inf(-1)
	}

	sum, n = gatedMean(m.blocks, toLUFS(sum)+relativeGate)
	if n == 0 {
		return math.Inf(-1)
	}

	return toLUFS(sum)
}

// gatedMean averages the blocks louder than gate.
func gatedMean(blocks []float64, gate float64) (float64, int) {
	var (
		sum float64
		n   int
	)

	for _, b := range blocks {
		if toLUFS(b) > gate {
			sum += b
			n++
		}
	}

	if n == 0 {
		return 0, 0
	}

	return sum / float64(n), n
}

func toLUFS(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return Floor
	}

	return -0.691 + 10*math.Log10(meanSquare)
}
