package ringladder

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-retrofox/dsp/effectchain"
)

// NodeType is the effect-chain type name of the ring ladder runtime.
const NodeType = "ringladder"

// Register adds the "ringladder" node type to reg.
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
		Enabled:    p.GetBool("enabled", d.Enabled),
		Drive:      p.GetNum("drive", d.Drive),
		CutoffHz:   p.GetNum("cutoffHz", d.CutoffHz),
		Resonance:  p.GetNum("resonance", d.Resonance),
		Mode:       p.GetStr("mode", d.Mode),
		PostGainDb: p.GetNum("postGainDb", d.PostGainDb),
		CarrierHz:  p.GetNum("carrierHz", d.CarrierHz),
	}
}

type runtime struct {
	proc *Processor
	log  logrus.FieldLogger
}

func (r *runtime) Configure(ctx effectchain.Context, p effectchain.Params) error {
	params := ParamsFromNode(p)

	if r.proc == nil {
		proc, err := New(ctx.SampleRate,
			WithChannels(ctx.ChannelCount()),
			WithParams(params),
			WithLogger(r.log.WithField("node", p.ID)),
		)
		if err != nil {
			return fmt.Errorf("ringladder: node %q: %w", p.ID, err)
		}

		r.proc = proc

		return nil
	}

	if r.proc.SampleRate() != ctx.SampleRate || r.proc.Channels() != ctx.ChannelCount() {
		err := r.proc.Prepare(ctx.SampleRate, ctx.ChannelCount())
		if err != nil {
			return fmt.Errorf("ringladder: node %q: %w", p.ID, err)
		}
	}

	err := r.proc.SetParams(params)
	if err != nil {
		return fmt.Errorf("ringladder: node %q: %w", p.ID, err)
	}

	return nil
}

func (r *runtime) Process(channels [][]float64) {
	r.proc.Process(channels)
}

func (r *runtime) Reset() {
	r.proc.Reset()
}
