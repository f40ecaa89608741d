// Package effects provides the lo-fi effect kernels used by the RetroFoX
// processor and the effect chain:
//
//   - BitCrusher: bit-depth and sample-rate reduction.
//   - Delay: feedback delay with dry/wet mix.
//   - Tremolo: sine LFO amplitude modulation with a smoothed depth.
//   - VinylNoise: seeded crackle and hiss.
//
// Modulation effects (flanger, ring modulator) live in the modulation
// subpackage. Per-sample paths do not allocate.
package effects
