//go:build fastmath

package gru

// The approximated activations drift from the exact reference by about
// 1e-7 per gate, which accumulates through the recurrent state.
const (
	stepTol       = 1e-5
	activationTol = 1e-6
)
