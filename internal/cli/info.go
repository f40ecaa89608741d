package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/internal/wavio"
	"github.com/cwbudde/algo-retrofox/measure/loudness"
	"github.com/cwbudde/algo-retrofox/measure/spectrum"
)

type infoOptions struct {
	fftSize int
}

func newInfoCmd(a *app) *cobra.Command {
	opts := &infoOptions{}

	cmd := &cobra.Command{
		Use:   "info INPUT",
		Short: "Print format, levels, loudness and dominant frequency of a WAV file",
		Example: `  retrofox info take.wav
  retrofox info tone.wav --fft 16384`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.readWAV(args[0])
			if err != nil {
				return err
			}

			return printInfo(a.out, args[0], in, opts.fftSize)
		},
	}

	cmd.Flags().IntVar(&opts.fftSize, "fft", 8192, "FFT size for the spectrum peak (power of two, 0 disables)")

	return cmd
}

// levels returns peak and RMS of buf in dBFS.
func levels(buf []float64) (peakDb, rmsDb float64) {
	var peak, sum float64

	for _, v := range buf {
		peak = math.Max(peak, math.Abs(v))
		sum += v * v
	}

	rms := 0.0
	if len(buf) > 0 {
		rms = math.Sqrt(sum / float64(len(buf)))
	}

	return core.LinearToDB(peak), core.LinearToDB(rms)
}

// dominantFrequency analyses the first fftSize frames of buf and returns the frequency of the strongest bin.
func dominantFrequency(buf []float64, sampleRate float64, fftSize int) (float64, error) {
	an, err := spectrum.NewAnalyzer(fftSize)
	if err != nil {
		return 0, err
	}

	power := make([]float64, an.Bins())

	if err := an.Power(power, buf); err != nil {
		return 0, err
	}

	return spectrum.BinFrequency(spectrum.PeakBin(power), fftSize, sampleRate), nil
}

func printInfo(w io.Writer, path string, in *wavio.Audio, fftSize int) error {
	fmt.Fprintf(w, "File:        %s\n", path)
	fmt.Fprintf(w, "Format:      %d Hz, %d-bit, %d channel(s)\n", in.SampleRate, in.BitDepth, len(in.Channels))
	fmt.Fprintf(w, "Duration:    %.3f s (%d frames)\n", in.Duration(), in.Frames())

	for ch, buf := range in.Channels {
		peak, rms := levels(buf)
		fmt.Fprintf(w, "Channel %d:   peak %.2f dBFS, rms %.2f dBFS\n", ch, peak, rms)
	}

	if in.SampleRate > 0 {
		m, err := loudness.New(float64(in.SampleRate), len(in.Channels))
		if err != nil {
			return err
		}

		m.Process(in.Channels)
		fmt.Fprintf(w, "Loudness:    %.1f LUFS integrated, %.1f LUFS max momentary\n", m.Integrated(), m.MaxMomentary())
	}

	if fftSize == 0 || in.Frames() == 0 {
		return nil
	}

	f, err := dominantFrequency(in.Channels[0], float64(in.SampleRate), fftSize)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Peak freq:   %.1f Hz (channel 0, %d-point FFT)\n", f, fftSize)

	return nil
}
