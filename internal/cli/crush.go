package cli

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-retrofox/processor/retrofox"
)

type crushOptions struct {
	seed uint64
	bits int
}

func newCrushCmd(a *app) *cobra.Command {
	opts := &crushOptions{}
	d := retrofox.DefaultParams()

	cmd := &cobra.Command{
		Use:   "crush INPUT OUTPUT",
		Short: "Run a WAV file through the RetroFoX lo-fi processor",
		Long: `Run a WAV file through RetroFoX: driven ladder filter, bit crusher with
sample-rate reduction, flanger, tremolo, vinyl crackle and post gain.

Parameters default to the preset's retrofox section and can be set with
RETROFOX_RETROFOX_<PARAM> environment variables or the flags below.`,
		Example: `  retrofox crush in.wav out.wav --bit-depth 8 --rate-reduce 4 --flanger 40
  retrofox crush in.wav out.wav --vinyl 30 --tremolo-depth 50 --seed 7`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seedSet := cmd.Flags().Changed("seed")
			return runCrush(a, opts, seedSet, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.Float64("drive", d.Drive, "ladder drive [1, 10]")
	f.Float64("bit-depth", d.BitDepth, "crusher resolution in bits [1, 24]")
	f.Int("rate-reduce", d.RateReduce, "sample-and-hold factor [1, 64]")
	f.Float64("flanger", d.FlangerIntensity, "flanger intensity in percent")
	f.Float64("post-gain", d.PostGainDb, "post gain in dB [-60, 12]")
	f.Bool("tremolo", d.TremoloEnabled, "enable the tremolo")
	f.Float64("tremolo-rate", d.TremoloRateHz, "tremolo rate in Hz [0.1, 20]")
	f.Float64("tremolo-depth", d.TremoloDepth, "tremolo depth in percent")
	f.Float64("vinyl", d.VinylNoise, "vinyl crackle level in percent")
	f.Uint64Var(&opts.seed, "seed", 0, "vinyl noise seed (random when unset)")
	f.IntVar(&opts.bits, "bits", 0, "output bit depth (16, 24, 32; 0 keeps the input depth)")

	a.bind("retrofox.drive", f.Lookup("drive"))
	a.bind("retrofox.bitDepth", f.Lookup("bit-depth"))
	a.bind("retrofox.rateReduce", f.Lookup("rate-reduce"))
	a.bind("retrofox.flangerIntensity", f.Lookup("flanger"))
	a.bind("retrofox.postGainDb", f.Lookup("post-gain"))
	a.bind("retrofox.tremoloEnabled", f.Lookup("tremolo"))
	a.bind("retrofox.tremoloRateHz", f.Lookup("tremolo-rate"))
	a.bind("retrofox.tremoloDepth", f.Lookup("tremolo-depth"))
	a.bind("retrofox.vinylNoise", f.Lookup("vinyl"))

	return cmd
}

func runCrush(a *app, opts *crushOptions, seedSet bool, inPath, outPath string) error {
	if err := validBits(opts.bits); err != nil {
		return err
	}

	p, err := a.preset()
	if err != nil {
		return err
	}

	in, err := a.readWAV(inPath)
	if err != nil {
		return err
	}

	foxOpts := []retrofox.Option{
		retrofox.WithChannels(len(in.Channels)),
		retrofox.WithBlockSize(p.BlockSize),
		retrofox.WithParams(p.RetroFoX),
		retrofox.WithLogger(a.log),
	}

	if seedSet {
		foxOpts = append(foxOpts, retrofox.WithSeed(opts.seed))
	}

	proc, err := retrofox.New(float64(in.SampleRate), foxOpts...)
	if err != nil {
		return err
	}

	a.log.WithField("params", p.RetroFoX).Debug("retrofox ready")

	processBlocks(in.Channels, p.BlockSize, proc.Process)

	return a.writeWAV(outPath, in, opts.bits)
}
