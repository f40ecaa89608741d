package gru

import "fmt"

// Params is the full weight set of one GRU layer plus its linear readout.
// Matrices are row-major: row i of WeightIHR holds the Input weights
// feeding hidden unit i.
type Params struct {
	WeightIHR, WeightIHZ, WeightIHN []float64 // Hidden × Input
	WeightHHR, WeightHHZ, WeightHHN []float64 // Hidden × Hidden
	BiasIHR, BiasIHZ, BiasIHN       []float64 // Hidden
	BiasHHR, BiasHHZ, BiasHHN       []float64 // Hidden
	WeightOut                       []float64 // Output × Hidden
	BiasOut                         []float64 // Output
}

// NewParams returns a zeroed bundle shaped for d.
func NewParams(d Dims) (*Params, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	ih := d.Hidden * d.Input
	hh := d.Hidden * d.Hidden
	return &Params{
		WeightIHR: make([]float64, ih),
		WeightIHZ: make([]float64, ih),
		WeightIHN: make([]float64, ih),
		WeightHHR: make([]float64, hh),
		WeightHHZ: make([]float64, hh),
		WeightHHN: make([]float64, hh),
		BiasIHR:   make([]float64, d.Hidden),
		BiasIHZ:   make([]float64, d.Hidden),
		BiasIHN:   make([]float64, d.Hidden),
		BiasHHR:   make([]float64, d.Hidden),
		BiasHHZ:   make([]float64, d.Hidden),
		BiasHHN:   make([]float64, d.Hidden),
		WeightOut: make([]float64, d.Output*d.Hidden),
		BiasOut:   make([]float64, d.Output),
	}, nil
}

type tensor struct {
	name string
	data []float64
	want int
}

func (p *Params) tensors(d Dims) []tensor {
	ih := d.Hidden * d.Input
	hh := d.Hidden * d.Hidden
	return []tensor{
		{"weight_ih_r", p.WeightIHR, ih},
		{"weight_ih_z", p.WeightIHZ, ih},
		{"weight_ih_n", p.WeightIHN, ih},
		{"weight_hh_r", p.WeightHHR, hh},
		{"weight_hh_z", p.WeightHHZ, hh},
		{"weight_hh_n", p.WeightHHN, hh},
		{"bias_ih_r", p.BiasIHR, d.Hidden},
		{"bias_ih_z", p.BiasIHZ, d.Hidden},
		{"bias_ih_n", p.BiasIHN, d.Hidden},
		{"bias_hh_r", p.BiasHHR, d.Hidden},
		{"bias_hh_z", p.BiasHHZ, d.Hidden},
		{"bias_hh_n", p.BiasHHN, d.Hidden},
		{"weight_out", p.WeightOut, d.Output * d.Hidden},
		{"bias_out", p.BiasOut, d.Output},
	}
}

// Validate checks that every tensor has exactly the length implied by d.
func (p *Params) Validate(d Dims) error {
	if p == nil {
		return fmt.Errorf("%w: nil params", ErrShapeMismatch)
	}
	if err := d.Validate(); err != nil {
		return err
	}

	for _, t := range p.tensors(d) {
		if len(t.data) != t.want {
			return fmt.Errorf("%w: %s has %d values, want %d (dims %s)",
				ErrShapeMismatch, t.name, len(t.data), t.want, d)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	c := func(s []float64) []float64 { return append([]float64(nil), s...) }
	return &Params{
		WeightIHR: c(p.WeightIHR), WeightIHZ: c(p.WeightIHZ), WeightIHN: c(p.WeightIHN),
		WeightHHR: c(p.WeightHHR), WeightHHZ: c(p.WeightHHZ), WeightHHN: c(p.WeightHHN),
		BiasIHR: c(p.BiasIHR), BiasIHZ: c(p.BiasIHZ), BiasIHN: c(p.BiasIHN),
		BiasHHR: c(p.BiasHHR), BiasHHZ: c(p.BiasHHZ), BiasHHN: c(p.BiasHHN),
		WeightOut: c(p.WeightOut), BiasOut: c(p.BiasOut),
	}
}

// copyFrom overwrites p with src. Both must already have identical shapes.
func (p *Params) copyFrom(src *Params) {
	copy(p.WeightIHR, src.WeightIHR)
	copy(p.WeightIHZ, src.WeightIHZ)
	copy(p.WeightIHN, src.WeightIHN)
	copy(p.WeightHHR, src.WeightHHR)
	copy(p.WeightHHZ, src.WeightHHZ)
	copy(p.WeightHHN, src.WeightHHN)
	copy(p.BiasIHR, src.BiasIHR)
	copy(p.BiasIHZ, src.BiasIHZ)
	copy(p.BiasIHN, src.BiasIHN)
	copy(p.BiasHHR, src.BiasHHR)
	copy(p.BiasHHZ, src.BiasHHZ)
	copy(p.BiasHHN, src.BiasHHN)
	copy(p.WeightOut, src.WeightOut)
	copy(p.BiasOut, src.BiasOut)
}
