package amp

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/effectchain"
)

// NodeType is the effect-chain type name of the amp runtime.
const NodeType = "amp"

// maxConditions bounds the cond0, cond1, ... keys read from node params.
const maxConditions = 8

// Register adds the "amp" node type to reg. The node resolves its weights
// by the "model" string parameter through the chain context's ModelProvider.
func Register(reg *effectchain.Registry, logger logrus.FieldLogger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return reg.Register(NodeType, func(_ effectchain.Context) (effectchain.Runtime, error) {
		return &runtime{log: logger}, nil
	})
}

type runtime struct {
	proc      *Processor
	modelName string
	log       logrus.FieldLogger
}

func (r *runtime) Configure(ctx effectchain.Context, p effectchain.Params) error {
	if ctx.Models == nil {
		return fmt.Errorf("amp: node %q: %w: no model provider", p.ID, effectchain.ErrUnknownModel)
	}

	name := p.GetStr("model", "")

	model, err := ctx.Models.Model(name)
	if err != nil {
		return fmt.Errorf("amp: node %q: %w", p.ID, err)
	}

	inDb := core.Clamp(p.GetNum("inputGainDb", 0), minGainDb, maxGainDb)
	outDb := core.Clamp(p.GetNum("outputGainDb", 0), minGainDb, maxGainDb)

	switch {
	case r.proc == nil || r.proc.Channels() != ctx.ChannelCount():
		proc, err := New(model, ctx.SampleRate,
			WithChannels(ctx.ChannelCount()),
			WithInputGainDb(inDb),
			WithOutputGainDb(outDb),
			WithLogger(r.log.WithField("node", p.ID)),
		)
		if err != nil {
			return fmt.Errorf("amp: node %q: %w", p.ID, err)
		}

		r.proc = proc
	default:
		if name != r.modelName {
			err = r.proc.LoadModel(model)
			if err != nil {
				return fmt.Errorf("amp: node %q: %w", p.ID, err)
			}
		}

		if r.proc.SampleRate() != ctx.SampleRate {
			r.proc.Prepare(ctx.SampleRate)
		}

		err = r.proc.SetInputGainDb(inDb)
		if err != nil {
			return err
		}

		err = r.proc.SetOutputGainDb(outDb)
		if err != nil {
			return err
		}
	}

	r.modelName = name

	if _, ok := p.Num["skip"]; ok {
		r.proc.SetSkip(p.GetBool("skip", model.Skip))
	}

	for i := 0; i < min(r.proc.Conditions(), maxConditions); i++ {
		key := "cond" + strconv.Itoa(i)
		if _, ok := p.Num[key]; !ok {
			continue
		}

		err = r.proc.SetCondition(i, p.GetNum(key, 0))
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *runtime) Process(channels [][]float64) {
	r.proc.Process(channels)
}

func (r *runtime) Reset() {
	r.proc.Reset()
}
