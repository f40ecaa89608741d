package effectchain

// Runtime is the per-node processing and configuration contract.
//
// Configure is called when the node is created, whenever its parameters
// change and after every context change. Process runs on the audio path
// and must neither allocate nor block; channels are equal-length, planar
// and processed in place.
type Runtime interface {
	Configure(ctx Context, params Params) error
	Process(channels [][]float64)
}

// Resetter is an optional interface for runtimes holding signal state.
type Resetter interface {
	Reset()
}
