// Package gru implements single-layer gated recurrent unit inference with an
// affine output projection, sized for real-time per-sample amplifier models.
//
// A Cell owns a fixed Dims triple, a parameter bundle and a hidden-state
// vector. Per step it evaluates the reset gate r, the update gate z and the
// candidate n in the PyTorch gate layout:
//
//	r = σ(b_ir + W_ir·x + b_hr + W_hr·h)
//	z = σ(b_iz + W_iz·x + b_hz + W_hz·h)
//	n = tanh(b_in + W_in·x + r ⊙ (b_hn + W_hn·h))
//	h = (1 − z) ⊙ n + z ⊙ h
//	y = b_o + W_o·h
//
// The reset gate scales only the hidden-path candidate term. Shapes are
// validated once in New, Load and Swap; Step and Process do no length checks
// and never allocate. Accumulation runs in a fixed order, so identical input
// sequences produce bit-identical outputs.
//
// A Cell is not safe for concurrent use. Load and Swap must not overlap a
// Step or Process call on the same Cell.
package gru
