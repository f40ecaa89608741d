// Package design computes biquad coefficients (RBJ cookbook forms).
package design
