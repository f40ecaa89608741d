// Package biquad provides the second-order IIR section used by the
// fixed-coefficient filters of the module.
//
// A [Section] implements Direct Form II Transposed processing for one set
// of [Coefficients]. Coefficient design lives in dsp/filter/design.
package biquad
