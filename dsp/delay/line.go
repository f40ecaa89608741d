// Package delay provides a circular delay line with fractional reads.
package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-retrofox/dsp/interp"
)

// Option configures a Line.
type Option func(*Line)

// WithMode selects the fractional read interpolation.
func WithMode(m interp.Mode) Option {
	return func(d *Line) { d.mode = m }
}

// Line is a circular delay line.
type Line struct {
	buffer   []float64
	writePos int
	mode     interp.Mode
}

// New returns a delay line of fixed size.
func New(size int, opts ...Option) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}
	d := &Line{buffer: make([]float64, size), mode: interp.Hermite}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads an integer delay in samples. Read(1) is the last written sample.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	readPos := (d.writePos - delay%size + size) % size
	return d.buffer[readPos]
}

// ReadFractional reads a fractional delay, clamped to [0, Len()-3].
func (d *Line) ReadFractional(delay float64) float64 {
	delay = min(max(delay, 0), float64(len(d.buffer)-3))

	p := int(math.Floor(delay))
	t := delay - float64(p)

	if d.mode == interp.Linear {
		return interp.Linear2(t, d.Read(p), d.Read(p+1))
	}

	xm1 := d.Read(max(0, p-1))
	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	x2 := d.Read(p + 2)
	return interp.Hermite4(t, xm1, x0, x1, x2)
}

// Reset clears line state.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}
