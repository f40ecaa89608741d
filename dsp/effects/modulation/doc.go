// Package modulation provides the time-varying effects of the RetroFoX chain.
//
// Included processors:
//   - Flanger: Short modulated delay with feedback, one line per channel.
//   - RingModulator: Diode-style carrier modulation with dry/wet blend.
package modulation
