package gru

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDims is returned for non-positive layer sizes.
	ErrInvalidDims = errors.New("gru: invalid dimensions")
	// ErrShapeMismatch is returned when a parameter bundle or state vector
	// does not match the cell's dimensions.
	ErrShapeMismatch = errors.New("gru: shape mismatch")
)

// Dims fixes the layer sizes of a cell for its whole lifetime.
type Dims struct {
	Input  int `json:"input_size"`
	Hidden int `json:"hidden_size"`
	Output int `json:"output_size"`
}

// Validate reports whether all sizes are positive.
func (d Dims) Validate() error {
	if d.Input <= 0 || d.Hidden <= 0 || d.Output <= 0 {
		return fmt.Errorf("%w: input=%d hidden=%d output=%d", ErrInvalidDims, d.Input, d.Hidden, d.Output)
	}
	return nil
}

// StepCost returns the multiply-accumulate count of one step.
func (d Dims) StepCost() int {
	return 3*d.Hidden*(d.Input+d.Hidden) + d.Output*d.Hidden
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", d.Input, d.Hidden, d.Output)
}
