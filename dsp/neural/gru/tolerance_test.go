//go:build !fastmath

package gru

// Tolerances against the exact math.Exp/math.Tanh reference.
const (
	stepTol       = 1e-12
	activationTol = 1e-15
)
