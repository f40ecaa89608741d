package gru

import (
	"fmt"

	"github.com/cwbudde/algo-retrofox/dsp/neural"
	"github.com/cwbudde/algo-retrofox/internal/vecmath"
	extvec "github.com/cwbudde/algo-vecmath"
)

// Option configures a Cell at construction time.
type Option func(*Cell) error

// WithParams loads p into the new cell.
func WithParams(p *Params) Option {
	return func(c *Cell) error {
		return c.Load(p)
	}
}

// WithState sets the initial hidden state.
func WithState(h []float64) Option {
	return func(c *Cell) error {
		return c.SetState(h)
	}
}

// Cell is a stateful GRU layer with a linear output projection.
type Cell struct {
	dims   Dims
	params *Params
	state  []float64
	warm   bool

	// per-step scratch, no state carried between steps
	r  []float64
	z  []float64
	n  []float64
	nh []float64
}

// New creates a cell with zeroed parameters and zeroed state.
func New(d Dims, opts ...Option) (*Cell, error) {
	p, err := NewParams(d)
	if err != nil {
		return nil, err
	}

	c := &Cell{
		dims:   d,
		params: p,
		state:  make([]float64, d.Hidden),
		r:      make([]float64, d.Hidden),
		z:      make([]float64, d.Hidden),
		n:      make([]float64, d.Hidden),
		nh:     make([]float64, d.Hidden),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Dims returns the fixed layer sizes.
func (c *Cell) Dims() Dims { return c.dims }

// Params returns the parameter bundle currently owned by the cell.
// The caller must not modify it while the cell is streaming.
func (c *Cell) Params() *Params { return c.params }

// Load copies every tensor of p into the cell's own storage.
// The previous parameters are fully overwritten; p is not retained.
func (c *Cell) Load(p *Params) error {
	if err := p.Validate(c.dims); err != nil {
		return err
	}
	c.params.copyFrom(p)
	return nil
}

// Swap installs p as the cell's parameter bundle without copying and
// returns the bundle it replaces. The cell takes ownership of p.
func (c *Cell) Swap(p *Params) (*Params, error) {
	if err := p.Validate(c.dims); err != nil {
		return nil, err
	}
	old := c.params
	c.params = p
	return old, nil
}

// Reset clears the hidden state to exactly zero.
func (c *Cell) Reset() {
	for i := range c.state {
		c.state[i] = 0
	}
	c.warm = false
}

// Warm reports whether the state reflects processed history, i.e. a step
// ran or a state was restored since the last Reset.
func (c *Cell) Warm() bool { return c.warm }

// State appends a copy of the hidden state to dst[:0] and returns it.
func (c *Cell) State(dst []float64) []float64 {
	return append(dst[:0], c.state...)
}

// SetState restores a hidden state previously captured with State.
func (c *Cell) SetState(h []float64) error {
	if len(h) != c.dims.Hidden {
		return fmt.Errorf("%w: state has %d values, want %d", ErrShapeMismatch, len(h), c.dims.Hidden)
	}
	copy(c.state, h)
	c.warm = true
	return nil
}

// Step advances the cell by one frame: in must hold Input values and out
// must hold Output values. Lengths are not checked.
func (c *Cell) Step(out, in []float64) {
	p := c.params
	h := c.state
	ni := c.dims.Input
	nh := c.dims.Hidden

	// Gate pre-activations accumulate input bias, input weights, hidden
	// bias and hidden weights, in that order.
	c.preActivation(c.r, p.BiasIHR, p.WeightIHR, in, ni)
	extvec.AddBlockInPlace(c.r, p.BiasHHR)
	vecmath.MatVecAcc(c.r, p.WeightHHR, h, nh)

	c.preActivation(c.z, p.BiasIHZ, p.WeightIHZ, in, ni)
	extvec.AddBlockInPlace(c.z, p.BiasHHZ)
	vecmath.MatVecAcc(c.z, p.WeightHHZ, h, nh)

	// Candidate keeps the input path (n) and hidden path (nh) apart so the
	// reset gate scales the hidden path only.
	c.preActivation(c.n, p.BiasIHN, p.WeightIHN, in, ni)
	c.preActivation(c.nh, p.BiasHHN, p.WeightHHN, h, nh)

	for i := range h {
		r := neural.Sigmoid(c.r[i])
		z := neural.Sigmoid(c.z[i])
		n := neural.Tanh(c.n[i] + r*c.nh[i])
		h[i] = (1-z)*n + z*h[i]
	}

	out = out[:c.dims.Output]
	copy(out, p.BiasOut)
	vecmath.MatVecAcc(out, p.WeightOut, h, nh)

	c.warm = true
}

func (c *Cell) preActivation(dst, bias, w, x []float64, cols int) {
	copy(dst, bias)
	vecmath.MatVecAcc(dst, w, x, cols)
}
