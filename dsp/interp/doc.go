// Package interp provides the fractional interpolation used by delay-based
// blocks.
//
//   - [Linear2]:  2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite (default for modulated delays)
package interp
