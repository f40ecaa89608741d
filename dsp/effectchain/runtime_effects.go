package effectchain

import (
	"fmt"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/effects"
	"github.com/cwbudde/algo-retrofox/dsp/ramp"
)

func wrapConfigureErr(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("effectchain: configure: %w", err)
}

// bitCrusherRuntime handles the "bitcrusher" node type with one crusher
// per channel so sample-and-hold phase runs across blocks.
type bitCrusherRuntime struct {
	sampleRate float64
	crushers   []*effects.BitCrusher
}

func (r *bitCrusherRuntime) Configure(ctx Context, p Params) error {
	n := ctx.ChannelCount()
	if len(r.crushers) != n || r.sampleRate != ctx.SampleRate {
		crushers := make([]*effects.BitCrusher, n)
		for i := range crushers {
			bc, err := effects.NewBitCrusher(ctx.SampleRate)
			if err != nil {
				return wrapConfigureErr(err)
			}

			crushers[i] = bc
		}

		r.crushers = crushers
		r.sampleRate = ctx.SampleRate
	}

	bits := core.Clamp(p.GetNum("bitDepth", 16), 1, 32)
	down := p.GetInt("downsample", 1)
	mix := core.Clamp(p.GetNum("mix", 1), 0, 1)

	for _, bc := range r.crushers {
		err := bc.SetBitDepth(bits)
		if err != nil {
			return wrapConfigureErr(err)
		}

		bc.SetDownsample(down)

		err = bc.SetMix(mix)
		if err != nil {
			return wrapConfigureErr(err)
		}
	}

	return nil
}

func (r *bitCrusherRuntime) Process(channels [][]float64) {
	for ch := 0; ch < min(len(channels), len(r.crushers)); ch++ {
		r.crushers[ch].ProcessInPlace(channels[ch])
	}
}

func (r *bitCrusherRuntime) Reset() {
	for _, bc := range r.crushers {
		bc.Reset()
	}
}

// tremoloRuntime handles the "tremolo" node type.
type tremoloRuntime struct {
	fx *effects.Tremolo
}

func (r *tremoloRuntime) Configure(ctx Context, p Params) error {
	err := r.fx.SetSampleRate(ctx.SampleRate)
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetRateHz(core.Clamp(p.GetNum("rateHz", 1), 0.1, 20))
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetDepth(core.Clamp(p.GetNum("depth", 0), 0, 1))
	if err != nil {
		return wrapConfigureErr(err)
	}

	r.fx.SetEnabled(p.GetBool("enabled", true))

	return wrapConfigureErr(r.fx.SetMix(core.Clamp(p.GetNum("mix", 1), 0, 1)))
}

func (r *tremoloRuntime) Process(channels [][]float64) {
	r.fx.ProcessChannels(channels, core.Frames(channels))
}

func (r *tremoloRuntime) Reset() { r.fx.Reset() }

// delayRuntime handles the "delay" node type.
type delayRuntime struct {
	fx *effects.Delay
}

func (r *delayRuntime) Configure(ctx Context, p Params) error {
	timeMs := core.Clamp(p.GetNum("timeMs", 500), 1, 2000)
	feedback := core.Clamp(p.GetNum("feedback", 0.5), 0, 0.95)
	wet := core.Clamp(p.GetNum("wet", 0.5), 0, 1)
	dry := core.Clamp(p.GetNum("dry", 0.5), 0, 1)

	if r.fx == nil || r.fx.Channels() != ctx.ChannelCount() || r.fx.SampleRate() != ctx.SampleRate {
		fx, err := effects.NewDelay(ctx.SampleRate,
			effects.WithDelayChannels(ctx.ChannelCount()),
			effects.WithDelayTimeMs(timeMs),
			effects.WithDelayFeedback(feedback),
			effects.WithDelayWet(wet),
			effects.WithDelayDry(dry),
		)
		if err != nil {
			return wrapConfigureErr(err)
		}

		r.fx = fx

		return nil
	}

	err := r.fx.SetTargetTimeMs(timeMs)
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetFeedback(feedback)
	if err != nil {
		return wrapConfigureErr(err)
	}

	err = r.fx.SetWet(wet)
	if err != nil {
		return wrapConfigureErr(err)
	}

	return wrapConfigureErr(r.fx.SetDry(dry))
}

func (r *delayRuntime) Process(channels [][]float64) {
	r.fx.Process(channels)
}

func (r *delayRuntime) Reset() { r.fx.Reset() }

// vinylRuntime handles the "vinyl" node type.
type vinylRuntime struct {
	sampleRate float64
	fx         *effects.VinylNoise
}

func (r *vinylRuntime) Configure(ctx Context, p Params) error {
	if r.fx == nil || r.sampleRate != ctx.SampleRate {
		opts := []effects.VinylOption{}
		if seed := p.GetInt("seed", -1); seed >= 0 {
			opts = append(opts, effects.WithVinylSeed(uint64(seed)))
		}

		fx, err := effects.NewVinylNoise(ctx.SampleRate, opts...)
		if err != nil {
			return wrapConfigureErr(err)
		}

		r.fx = fx
		r.sampleRate = ctx.SampleRate
	}

	return wrapConfigureErr(r.fx.SetLevel(core.Clamp(p.GetNum("level", 0), 0, 1)))
}

func (r *vinylRuntime) Process(channels [][]float64) {
	r.fx.Process(channels)
}

func (r *vinylRuntime) Reset() { r.fx.Reset() }

// gainRuntime handles the "gain" node type: a ramped gain in dB where
// -60 dB and below is silence.
type gainRuntime struct {
	sampleRate float64
	gain       ramp.Ramp
}

const gainRampSeconds = 0.01

func (r *gainRuntime) Configure(ctx Context, p Params) error {
	target := core.DBToGain(core.Clamp(p.GetNum("gainDb", 0), -60, 24))

	if r.sampleRate != ctx.SampleRate {
		first := r.sampleRate == 0
		r.sampleRate = ctx.SampleRate
		r.gain.Prepare(ctx.SampleRate, first, target)
	}

	r.gain.SetTarget(target, false)

	return nil
}

func (r *gainRuntime) Process(channels [][]float64) {
	r.gain.ApplyGain(channels, core.Frames(channels))
}
