package effectchain

import (
	"github.com/cwbudde/algo-retrofox/dsp/effects"
	"github.com/cwbudde/algo-retrofox/dsp/effects/modulation"
	"github.com/cwbudde/algo-retrofox/dsp/filter/ladder"
	"github.com/cwbudde/algo-retrofox/dsp/ramp"
)

// DefaultRegistry returns a Registry pre-populated with all built-in effect
// runtimes. Processors with heavier dependencies (the neural amp) register
// themselves on top of it.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister("bitcrusher", func(_ Context) (Runtime, error) {
		return &bitCrusherRuntime{}, nil
	})
	r.MustRegister("tremolo", func(ctx Context) (Runtime, error) {
		fx, err := effects.NewTremolo(ctx.SampleRate)
		if err != nil {
			return nil, err
		}

		return &tremoloRuntime{fx: fx}, nil
	})
	r.MustRegister("delay", func(_ Context) (Runtime, error) {
		return &delayRuntime{}, nil
	})
	r.MustRegister("vinyl", func(_ Context) (Runtime, error) {
		return &vinylRuntime{}, nil
	})
	r.MustRegister("gain", func(_ Context) (Runtime, error) {
		return &gainRuntime{gain: ramp.New(gainRampSeconds)}, nil
	})
	r.MustRegister("ladder", func(ctx Context) (Runtime, error) {
		fx, err := ladder.New(ctx.SampleRate, ladder.WithChannels(ctx.ChannelCount()))
		if err != nil {
			return nil, err
		}

		return &ladderRuntime{fx: fx}, nil
	})
	r.MustRegister("svf", func(_ Context) (Runtime, error) {
		return &svfRuntime{}, nil
	})
	r.MustRegister("dcblock", func(_ Context) (Runtime, error) {
		return &dcBlockRuntime{}, nil
	})
	r.MustRegister("flanger", func(ctx Context) (Runtime, error) {
		fx, err := modulation.NewFlanger(ctx.SampleRate, modulation.WithFlangerChannels(ctx.ChannelCount()))
		if err != nil {
			return nil, err
		}

		return &flangerRuntime{fx: fx}, nil
	})
	r.MustRegister("ringmod", func(ctx Context) (Runtime, error) {
		fx, err := modulation.NewRingModulator(ctx.SampleRate)
		if err != nil {
			return nil, err
		}

		return &ringModRuntime{fx: fx}, nil
	})

	return r
}
