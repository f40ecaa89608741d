// Package ladder provides a multi-mode, drive-saturated transistor ladder
// filter with five state taps.
//
// Supported modes:
//   - LPF12 / LPF24: 2-pole and 4-pole low-pass.
//   - HPF12 / HPF24: 2-pole and 4-pole high-pass.
//   - BPF12 / BPF24: 2-pole and 4-pole band-pass.
//
// Each mode is a weighted sum of the input node and the four one-pole
// stages. Cutoff and resonance glide linearly over 50 ms; drive applies a
// tanh saturation to the input and the resonance path with automatic gain
// compensation. All channels share one cutoff and resonance trajectory but
// keep independent stage state.
package ladder
