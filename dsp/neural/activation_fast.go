//go:build fastmath

package neural

import "github.com/meko-christian/algo-approx"

// saturation beyond which tanh is ±1 in float64.
const tanhLimit = 19.0

// Sigmoid returns 1 / (1 + exp(-x)) using a fast exponential.
func Sigmoid(x float64) float64 {
	return 1 / (1 + approx.FastExp(-x))
}

// Tanh returns tanh(x) as 1 - 2/(exp(2x)+1) using a fast exponential.
func Tanh(x float64) float64 {
	if x > tanhLimit {
		return 1
	}
	if x < -tanhLimit {
		return -1
	}
	return 1 - 2/(approx.FastExp(2*x)+1)
}
