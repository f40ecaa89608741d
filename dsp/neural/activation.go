//go:build !fastmath

package neural

import "math"

// Sigmoid returns 1 / (1 + exp(-x)).
// Large negative inputs saturate to 0 and large positive inputs to 1
// through exp's own overflow behavior.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Tanh returns the hyperbolic tangent of x.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}
