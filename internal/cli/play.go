package cli

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cwbudde/algo-retrofox/dsp/core"
)

type playOptions struct {
	stages []string
}

func newPlayCmd(a *app) *cobra.Command {
	opts := &playOptions{}

	cmd := &cobra.Command{
		Use:   "play INPUT",
		Short: "Play a WAV file, optionally through an effect chain",
		Long: `Play a WAV file on the default audio device. When the preset has a
stages list or --stage flags are given, the file is run through that chain
first. Builds with the headless tag decode and process without output.`,
		Example: `  retrofox play take.wav
  retrofox play take.wav --stage ringladder:carrierHz=60,cutoffHz=900`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, a, opts, args[0])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.stages, "stage", "s", nil, "stage as type:key=value,... (repeatable)")

	return cmd
}

func runPlay(cmd *cobra.Command, a *app, opts *playOptions, inPath string) error {
	p, err := a.preset()
	if err != nil {
		return err
	}

	stages, err := chainStages(p, opts.stages)
	if err != nil {
		return err
	}

	in, err := a.readWAV(inPath)
	if err != nil {
		return err
	}

	if len(stages) > 0 {
		chain, err := a.newChain(p, float64(in.SampleRate), len(in.Channels), stages)
		if err != nil {
			return err
		}

		processBlocks(in.Channels, p.BlockSize, func(block [][]float64) {
			chain.Process(block)
		})
	}

	r := newPCMReader(in.Channels)
	total := float64(r.frames) / float64(in.SampleRate)

	progress := func() {}
	if f, ok := a.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		progress = func() {
			played := float64(r.Position()) / float64(in.SampleRate)
			fmt.Fprintf(a.out, "\r%6.1f / %.1f s", played, total)
		}
		defer fmt.Fprintln(a.out)
	}

	a.log.WithFields(logrus.Fields{
		"file":    inPath,
		"seconds": total,
		"stages":  len(stages),
	}).Info("playing")

	return playPCM(cmd.Context(), r, in.SampleRate, len(in.Channels), progress)
}

// pcmReader streams planar channels as interleaved 32-bit float little
// endian frames. Reads always return whole frames.
type pcmReader struct {
	channels [][]float64
	frames   int
	pos      atomic.Int64
}

func newPCMReader(channels [][]float64) *pcmReader {
	return &pcmReader{channels: channels, frames: core.Frames(channels)}
}

// Position returns the number of frames handed out so far.
func (r *pcmReader) Position() int {
	return int(r.pos.Load())
}

func (r *pcmReader) Read(p []byte) (int, error) {
	pos := int(r.pos.Load())
	if pos >= r.frames || len(r.channels) == 0 {
		return 0, io.EOF
	}

	frameBytes := 4 * len(r.channels)

	n := min(len(p)/frameBytes, r.frames-pos)
	if n == 0 {
		return 0, io.ErrShortBuffer
	}

	off := 0

	for i := pos; i < pos+n; i++ {
		for _, ch := range r.channels {
			binary.LittleEndian.PutUint32(p[off:], math.Float32bits(float32(ch[i])))
			off += 4
		}
	}

	r.pos.Store(int64(pos + n))

	return off, nil
}
