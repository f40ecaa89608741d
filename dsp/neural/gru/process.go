package gru

import "fmt"

// Process runs one Step per frame, strictly in order: outputs[n] receives
// the result for inputs[n]. outputs must have at least len(inputs) frames.
func (c *Cell) Process(outputs, inputs [][]float64) {
	for n, in := range inputs {
		c.Step(outputs[n], in)
	}
}

// ProcessInterleaved runs numFrames steps over contiguous frame-major
// buffers: frame n reads in[n*Input:] and writes out[n*Output:].
func (c *Cell) ProcessInterleaved(out, in []float64, numFrames int) {
	ni := c.dims.Input
	no := c.dims.Output
	for n := 0; n < numFrames; n++ {
		c.Step(out[n*no:(n+1)*no], in[n*ni:(n+1)*ni])
	}
}

// CheckFrames validates a planar frame batch against the cell dimensions.
// Callers run it once per batch, outside the hot loop.
func (c *Cell) CheckFrames(outputs, inputs [][]float64) error {
	if len(outputs) < len(inputs) {
		return fmt.Errorf("%w: %d output frames for %d input frames", ErrShapeMismatch, len(outputs), len(inputs))
	}
	for n, in := range inputs {
		if len(in) != c.dims.Input {
			return fmt.Errorf("%w: input frame %d has %d values, want %d", ErrShapeMismatch, n, len(in), c.dims.Input)
		}
		if len(outputs[n]) != c.dims.Output {
			return fmt.Errorf("%w: output frame %d has %d values, want %d", ErrShapeMismatch, n, len(outputs[n]), c.dims.Output)
		}
	}
	return nil
}
