package retrofox

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-retrofox/dsp/effectchain"
)

// NodeType is the effect-chain type name of the RetroFoX runtime.
const NodeType = "retrofox"

// Register adds the "retrofox" node type to reg.
func Register(reg *effectchain.Registry, logger logrus.FieldLogger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return reg.Register(NodeType, func(_ effectchain.Context) (effectchain.Runtime, error) {
		return &runtime{log: logger}, nil
	})
}

// ParamsFromNode reads node parameters on top of DefaultParams.
func ParamsFromNode(p effectchain.Params) Params {
	d := DefaultParams()

	return Params{
		Drive:            p.GetNum("drive", d.Drive),
		BitDepth:         p.GetNum("bitDepth", d.BitDepth),
		RateReduce:       p.GetInt("rateReduce", d.RateReduce),
		FlangerIntensity: p.GetNum("flangerIntensity", d.FlangerIntensity),
		PostGainDb:       p.GetNum("postGainDb", d.PostGainDb),
		TremoloEnabled:   p.GetBool("tremoloEnabled", d.TremoloEnabled),
		TremoloRateHz:    p.GetNum("tremoloRateHz", d.TremoloRateHz),
		TremoloDepth:     p.GetNum("tremoloDepth", d.TremoloDepth),
		VinylNoise:       p.GetNum("vinylNoise", d.VinylNoise),
	}
}

type runtime struct {
	proc *Processor
	log  logrus.FieldLogger
}

func (r *runtime) Configure(ctx effectchain.Context, p effectchain.Params) error {
	params := ParamsFromNode(p)

	if r.proc == nil {
		opts := []Option{
			WithChannels(ctx.ChannelCount()),
			WithParams(params),
			WithLogger(r.log.WithField("node", p.ID)),
		}

		if seed := p.GetInt("seed", -1); seed >= 0 {
			opts = append(opts, WithSeed(uint64(seed)))
		}

		proc, err := New(ctx.SampleRate, opts...)
		if err != nil {
			return fmt.Errorf("retrofox: node %q: %w", p.ID, err)
		}

		r.proc = proc

		return nil
	}

	if r.proc.SampleRate() != ctx.SampleRate || r.proc.Channels() != ctx.ChannelCount() {
		err := r.proc.Prepare(ctx.SampleRate, ctx.ChannelCount())
		if err != nil {
			return fmt.Errorf("retrofox: node %q: %w", p.ID, err)
		}
	}

	err := r.proc.SetParams(params)
	if err != nil {
		return fmt.Errorf("retrofox: node %q: %w", p.ID, err)
	}

	return nil
}

func (r *runtime) Process(channels [][]float64) {
	r.proc.Process(channels)
}

func (r *runtime) Reset() {
	r.proc.Reset()
}
