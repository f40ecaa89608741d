// Package spectrum measures processor output in the frequency domain.
//
// Analyzer computes Hann-windowed power spectra with a reusable FFT plan and
// reports how much energy falls outside the harmonic series of a known
// fundamental, which is how oscillator anti-aliasing and bitcrusher
// imaging are quantified. Tone is a single-bin Goertzel detector for
// checking modulation sidebands without a full transform.
package spectrum
