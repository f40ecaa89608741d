package cli

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-retrofox/dsp/neural/gru"
	"github.com/cwbudde/algo-retrofox/processor/amp"
)

type ampOptions struct {
	model      string
	inputGain  float64
	outputGain float64
	skip       bool
	conditions []float64
	bits       int
}

func newAmpCmd(a *app) *cobra.Command {
	opts := &ampOptions{}

	cmd := &cobra.Command{
		Use:   "amp INPUT OUTPUT",
		Short: "Run a WAV file through a GRU amp model",
		Long: `Run every channel of a WAV file through its own GRU cell loaded from a
JSON weights file. Models with more than one input take the extra inputs
as conditioning values (--cond), in order.`,
		Example: `  retrofox amp di.wav amped.wav --model models/plexi.json --input-gain 6
  retrofox amp di.wav amped.wav --model models/knob.json --cond 0.7`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			skipSet := cmd.Flags().Changed("skip")
			return runAmp(a, opts, skipSet, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "GRU weights file (required)")
	cmd.Flags().Float64Var(&opts.inputGain, "input-gain", 0, "input gain in dB")
	cmd.Flags().Float64Var(&opts.outputGain, "output-gain", 0, "output gain in dB")
	cmd.Flags().BoolVar(&opts.skip, "skip", false, "add the input to the model output (default from the model file)")
	cmd.Flags().Float64SliceVar(&opts.conditions, "cond", nil, "conditioning inputs")
	cmd.Flags().IntVar(&opts.bits, "bits", 0, "output bit depth (16, 24, 32; 0 keeps the input depth)")

	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func runAmp(a *app, opts *ampOptions, skipSet bool, inPath, outPath string) error {
	if err := validBits(opts.bits); err != nil {
		return err
	}

	p, err := a.preset()
	if err != nil {
		return err
	}

	model, err := gru.LoadModelFile(opts.model)
	if err != nil {
		return err
	}

	a.log.WithField("model", model.Dims.String()).Info("model loaded")

	in, err := a.readWAV(inPath)
	if err != nil {
		return err
	}

	ampOpts := []amp.Option{
		amp.WithChannels(len(in.Channels)),
		amp.WithInputGainDb(opts.inputGain),
		amp.WithOutputGainDb(opts.outputGain),
		amp.WithLogger(a.log),
	}

	if skipSet {
		ampOpts = append(ampOpts, amp.WithSkip(opts.skip))
	}

	proc, err := amp.New(model, float64(in.SampleRate), ampOpts...)
	if err != nil {
		return err
	}

	for i, v := range opts.conditions {
		if err := proc.SetCondition(i, v); err != nil {
			return err
		}
	}

	processBlocks(in.Channels, p.BlockSize, proc.Process)

	return a.writeWAV(outPath, in, opts.bits)
}
