package effectchain

// stubRuntime is a minimal Runtime implementation for testing.
type stubRuntime struct {
	configureErr   error
	configureCalls int
	processCalls   int
	resetCalls     int
	lastCtx        Context
	lastParams     Params
}

func (s *stubRuntime) Configure(ctx Context, params Params) error {
	s.configureCalls++
	s.lastCtx = ctx
	s.lastParams = params

	return s.configureErr
}

func (s *stubRuntime) Process(_ [][]float64) {
	s.processCalls++
}

func (s *stubRuntime) Reset() {
	s.resetCalls++
}

// scaleRuntime multiplies every sample by a fixed gain.
type scaleRuntime struct {
	gain float64
}

func (g *scaleRuntime) Configure(_ Context, params Params) error {
	g.gain = params.GetNum("gain", 1.0)

	return nil
}

func (g *scaleRuntime) Process(channels [][]float64) {
	for _, block := range channels {
		for i := range block {
			block[i] *= g.gain
		}
	}
}

// addRuntime adds a constant to every sample (for testing multi-parent mixing).
type addRuntime struct {
	value float64
}

func (a *addRuntime) Configure(_ Context, params Params) error {
	a.value = params.GetNum("value", 0)

	return nil
}

func (a *addRuntime) Process(channels [][]float64) {
	for _, block := range channels {
		for i := range block {
			block[i] += a.value
		}
	}
}

// testRegistry creates a registry with simple test effects.
func testRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister("stub", func(_ Context) (Runtime, error) {
		return &stubRuntime{}, nil
	})
	r.MustRegister("scale", func(_ Context) (Runtime, error) {
		return &scaleRuntime{gain: 1.0}, nil
	})
	r.MustRegister("add", func(_ Context) (Runtime, error) {
		return &addRuntime{}, nil
	})

	return r
}
