package gru

import (
	"math"
	"math/rand"
)

func randomParams(d Dims, seed int64, scale float64) *Params {
	p, err := NewParams(d)
	if err != nil {
		panic(err)
	}
	rng := rand.New(rand.NewSource(seed))
	for _, t := range p.tensors(d) {
		for i := range t.data {
			t.data[i] = (rng.Float64()*2 - 1) * scale
		}
	}
	return p
}

// referenceStep is a direct transcription of the recurrence with explicit
// loops, used to cross-check Cell.Step.
func referenceStep(d Dims, p *Params, h, x []float64) []float64 {
	sig := func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }
	gate := func(bi, wi, bh, wh []float64, i int) (float64, float64) {
		a := bi[i]
		for j := 0; j < d.Input; j++ {
			a += wi[i*d.Input+j] * x[j]
		}
		b := bh[i]
		for j := 0; j < d.Hidden; j++ {
			b += wh[i*d.Hidden+j] * h[j]
		}
		return a, b
	}

	next := make([]float64, d.Hidden)
	for i := range next {
		ra, rb := gate(p.BiasIHR, p.WeightIHR, p.BiasHHR, p.WeightHHR, i)
		za, zb := gate(p.BiasIHZ, p.WeightIHZ, p.BiasHHZ, p.WeightHHZ, i)
		na, nb := gate(p.BiasIHN, p.WeightIHN, p.BiasHHN, p.WeightHHN, i)
		r := sig(ra + rb)
		z := sig(za + zb)
		n := math.Tanh(na + r*nb)
		next[i] = (1-z)*n + z*h[i]
	}
	copy(h, next)

	out := make([]float64, d.Output)
	for k := range out {
		out[k] = p.BiasOut[k]
		for j := 0; j < d.Hidden; j++ {
			out[k] += p.WeightOut[k*d.Hidden+j] * h[j]
		}
	}
	return out
}
