package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-retrofox/dsp/effectchain"
)

type fxOptions struct {
	stages []string
	bits   int
}

func newFxCmd(a *app) *cobra.Command {
	opts := &fxOptions{}

	cmd := &cobra.Command{
		Use:   "fx INPUT OUTPUT",
		Short: "Run a WAV file through an effect chain",
		Long: `Run a WAV file through a serial effect chain. Stages come from the
preset's stages list, or from repeated --stage flags which replace it.

Node types: bitcrusher, tremolo, delay, vinyl, gain, ladder, svf, dcblock,
flanger, ringmod, amp, retrofox, ringladder.`,
		Example: `  # Crush and flange with flags only
  retrofox fx in.wav out.wav --stage bitcrusher:bitDepth=6,downsample=4 --stage flanger:mix=0.5

  # Use the chain of a preset
  retrofox fx in.wav out.wav --preset lofi.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFx(a, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.stages, "stage", "s", nil, "stage as type:key=value,... (repeatable)")
	cmd.Flags().IntVar(&opts.bits, "bits", 0, "output bit depth (16, 24, 32; 0 keeps the input depth)")

	return cmd
}

// chainStages returns the --stage flags when given, else the preset's.
func chainStages(p *Preset, flags []string) ([]effectchain.Stage, error) {
	if len(flags) == 0 {
		return p.Stages, nil
	}

	stages := make([]effectchain.Stage, 0, len(flags))

	for _, arg := range flags {
		st, err := parseStage(arg)
		if err != nil {
			return nil, err
		}

		stages = append(stages, st)
	}

	return stages, nil
}

func runFx(a *app, opts *fxOptions, inPath, outPath string) error {
	if err := validBits(opts.bits); err != nil {
		return err
	}

	p, err := a.preset()
	if err != nil {
		return err
	}

	stages, err := chainStages(p, opts.stages)
	if err != nil {
		return err
	}

	if len(stages) == 0 {
		return errors.New("no stages: pass --stage or a preset with a stages list")
	}

	in, err := a.readWAV(inPath)
	if err != nil {
		return err
	}

	chain, err := a.newChain(p, float64(in.SampleRate), len(in.Channels), stages)
	if err != nil {
		return err
	}

	processBlocks(in.Channels, p.BlockSize, func(block [][]float64) {
		chain.Process(block)
	})

	return a.writeWAV(outPath, in, opts.bits)
}
