package effectchain

import (
	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/effects/modulation"
)

// flangerRuntime handles the "flanger" node type.
type flangerRuntime struct {
	fx         *modulation.Flanger
	configured bool
}

func (r *flangerRuntime) Configure(ctx Context, p Params) error {
	err := r.fx.SetOffsetMs(core.Clamp(p.GetNum("offsetMs", 2), 0, 10))
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetDepthMs(core.Clamp(p.GetNum("depthMs", 2), 0, 10))
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetRateHz(core.Clamp(p.GetNum("rateHz", 0.5), 0, 20))
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetFeedback(core.Clamp(p.GetNum("feedback", 0), -0.99, 0.99))
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetMix(core.Clamp(p.GetNum("mix", 0.5), 0, 1))
	if err != nil {
		return wrapConfigureErr(err)
	}

	// Prepare settles the ramps, so it runs after the targets are set.
	if !r.configured || r.fx.SampleRate() != ctx.SampleRate || r.fx.Channels() != ctx.ChannelCount() {
		r.configured = true
		return wrapConfigureErr(r.fx.Prepare(ctx.SampleRate, ctx.ChannelCount()))
	}

	return nil
}

func (r *flangerRuntime) Process(channels [][]float64) {
	r.fx.ProcessInPlace(channels)
}

func (r *flangerRuntime) Reset() { r.fx.Clear() }

// ringModRuntime handles the "ringmod" node type.
type ringModRuntime struct {
	fx *modulation.RingModulator
}

func (r *ringModRuntime) Configure(ctx Context, p Params) error {
	err := r.fx.SetSampleRate(ctx.SampleRate)
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetCarrierHz(core.Clamp(p.GetNum("carrierHz", 30), 0.1, 2000))
	if err != nil {
		return wrapConfigureErr(err)
	}

	return wrapConfigureErr(r.fx.SetMix(core.Clamp(p.GetNum("mix", 1), 0, 1)))
}

func (r *ringModRuntime) Process(channels [][]float64) {
	r.fx.ProcessChannels(channels)
}

func (r *ringModRuntime) Reset() { r.fx.Reset() }
