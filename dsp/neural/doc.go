// Package neural provides the scalar activation primitives shared by the
// recurrent network inference code in neural/gru.
//
// Builds default to exact math-package implementations. Building with the
// fastmath tag swaps in approximations based on algo-approx; those trade a
// few ULP of accuracy for speed and are not bit-compatible with the default.
package neural
