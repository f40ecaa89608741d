package effectchain

import (
	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/filter/dcblock"
	"github.com/cwbudde/algo-retrofox/dsp/filter/ladder"
	"github.com/cwbudde/algo-retrofox/dsp/filter/svf"
)

// ladderRuntime handles the "ladder" node type. The mode is a name such
// as "lpf24" or a numeric index.
type ladderRuntime struct {
	fx         *ladder.Filter
	configured bool
}

func (r *ladderRuntime) Configure(ctx Context, p Params) error {
	if r.fx.SampleRate() != ctx.SampleRate || r.fx.Channels() != ctx.ChannelCount() {
		err := r.fx.Prepare(ctx.SampleRate, ctx.ChannelCount())
		if err != nil {
			return wrapConfigureErr(err)
		}
	}

	mode, err := ladderMode(p)
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetMode(mode)
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetCutoffHz(core.Clamp(p.GetNum("cutoffHz", 1000), 20, 20000))
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetResonance(core.Clamp(p.GetNum("resonance", 0), 0, 1))
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetDrive(core.Clamp(p.GetNum("drive", 1), 1, 10))
	if err != nil {
		return wrapConfigureErr(err)
	}

	r.fx.SetEnabled(p.GetBool("enabled", true))

	// The first configuration starts from the requested settings without a glide.
	if !r.configured {
		r.fx.Reset()
		r.configured = true
	}

	return nil
}

func ladderMode(p Params) (ladder.Mode, error) {
	if name := p.GetStr("mode", ""); name != "" {
		return ladder.ParseMode(name)
	}

	return ladder.ModeFromIndex(p.GetNum("mode", float64(ladder.LPF24)))
}

func (r *ladderRuntime) Process(channels [][]float64) {
	r.fx.Process(channels)
}

func (r *ladderRuntime) Reset() { r.fx.Reset() }

// svfRuntime handles the "svf" node type with one filter per channel.
type svfRuntime struct {
	sampleRate float64
	filters    []*svf.Filter
	mode       svf.Mode
}

func (r *svfRuntime) Configure(ctx Context, p Params) error {
	n := ctx.ChannelCount()
	if len(r.filters) != n || r.sampleRate != ctx.SampleRate {
		filters := make([]*svf.Filter, n)
		for i := range filters {
			f, err := svf.New(ctx.SampleRate)
			if err != nil {
				return wrapConfigureErr(err)
			}

			filters[i] = f
		}

		r.filters = filters
		r.sampleRate = ctx.SampleRate
	}

	mode, err := svf.ParseMode(p.GetStr("mode", svf.LowPass.String()))
	if err != nil {
		return wrapConfigureErr(err)
	}

	r.mode = mode

	cutoff := core.Clamp(p.GetNum("cutoffHz", 1000), 20, 20000)
	q := core.Clamp(p.GetNum("q", 0.7071), 0.1, 10)

	for _, f := range r.filters {
		err = f.SetCutoffHz(cutoff)
		if err != nil {
			return wrapConfigureErr(err)
		}

		err = f.SetQ(q)
		if err != nil {
			return wrapConfigureErr(err)
		}
	}

	return nil
}

func (r *svfRuntime) Process(channels [][]float64) {
	for ch := 0; ch < min(len(channels), len(r.filters)); ch++ {
		r.filters[ch].ProcessInPlace(channels[ch], r.mode)
	}
}

func (r *svfRuntime) Reset() {
	for _, f := range r.filters {
		f.Reset()
	}
}

// dcBlockRuntime handles the "dcblock" node type.
type dcBlockRuntime struct {
	sampleRate float64
	fx         *dcblock.Filter
}

func (r *dcBlockRuntime) Configure(ctx Context, p Params) error {
	cutoff := core.Clamp(p.GetNum("cutoffHz", dcblock.DefaultCutoffHz), 1, 200)

	if r.fx != nil && r.sampleRate == ctx.SampleRate &&
		r.fx.Channels() == ctx.ChannelCount() && r.fx.CutoffHz() == cutoff {
		return nil
	}

	fx, err := dcblock.NewWithCutoff(ctx.SampleRate, ctx.ChannelCount(), cutoff)
	if err != nil {
		return wrapConfigureErr(err)
	}

	r.fx = fx
	r.sampleRate = ctx.SampleRate

	return nil
}

func (r *dcBlockRuntime) Process(channels [][]float64) {
	r.fx.Process(channels)
}

func (r *dcBlockRuntime) Reset() { r.fx.Reset() }
