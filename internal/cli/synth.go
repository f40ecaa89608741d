package cli

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/internal/wavio"
	"github.com/cwbudde/algo-retrofox/processor/synth"
)

type synthOptions struct {
	notes      []int
	noteMs     float64
	gapMs      float64
	sampleRate int
	channels   int
	bits       int
}

func newSynthCmd(a *app) *cobra.Command {
	opts := &synthOptions{}
	d := synth.DefaultParams()

	cmd := &cobra.Command{
		Use:   "synth OUTPUT",
		Short: "Render a note sequence with the subtractive synth",
		Long: `Render MIDI notes one after another with the monophonic synth and write
the result, including the release tail, to a WAV file.

Parameters default to the preset's synth section and can be set with
RETROFOX_SYNTH_<PARAM> environment variables or the flags below.`,
		Example: `  retrofox synth arp.wav --notes 48,55,60,64 --osc saw-aa --cutoff 800 --lfo-rate 3 --lfo-depth 1
  retrofox synth bass.wav --notes 36 --note-ms 1000 --filter-type bandpass --resonance 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(a, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.IntSliceVar(&opts.notes, "notes", []int{60}, "MIDI notes to play in sequence")
	f.Float64Var(&opts.noteMs, "note-ms", 400, "held time of each note in ms")
	f.Float64Var(&opts.gapMs, "gap-ms", 100, "silence between note off and the next note on in ms")
	f.IntVar(&opts.sampleRate, "sample-rate", 48000, "output sample rate")
	f.IntVar(&opts.channels, "channels", 1, "output channels")
	f.IntVar(&opts.bits, "bits", 16, "output bit depth (16, 24, 32)")

	f.String("osc", d.OscType, "waveform (sine, triangle, saw, triangle-aa, saw-aa)")
	f.Float64("osc-gain", d.OscGainDb, "oscillator gain in dB")
	f.Bool("filter", d.FilterEnabled, "enable the state-variable filter")
	f.String("filter-type", d.FilterType, "filter response (lowpass, bandpass, highpass)")
	f.Float64("cutoff", d.CutoffHz, "filter cutoff in Hz")
	f.Float64("resonance", d.Resonance, "filter Q [0.1, 10]")
	f.Float64("lfo-rate", d.LFORateHz, "cutoff LFO rate in Hz (0 disables)")
	f.Float64("lfo-depth", d.LFODepthOctave, "cutoff LFO depth in octaves")
	f.Float64("attack", d.AttackMs, "attack in ms")
	f.Float64("decay", d.DecayMs, "decay in ms")
	f.Float64("sustain", d.Sustain, "sustain level [0, 1]")
	f.Float64("release", d.ReleaseMs, "release in ms")
	f.Bool("analog", d.EnvAnalog, "exponential envelope curves")
	f.Float64("master-gain", d.MasterGainDb, "master gain in dB")

	for key, flag := range map[string]string{
		"synth.oscType":         "osc",
		"synth.oscGainDb":       "osc-gain",
		"synth.filterEnabled":   "filter",
		"synth.filterType":      "filter-type",
		"synth.cutoffHz":        "cutoff",
		"synth.resonance":       "resonance",
		"synth.lfoRateHz":       "lfo-rate",
		"synth.lfoDepthOctaves": "lfo-depth",
		"synth.attackMs":        "attack",
		"synth.decayMs":         "decay",
		"synth.sustain":         "sustain",
		"synth.releaseMs":       "release",
		"synth.envAnalog":       "analog",
		"synth.masterGainDb":    "master-gain",
	} {
		a.bind(key, f.Lookup(flag))
	}

	return cmd
}

// sequence lays notes out back to back and returns the events with
// absolute frame offsets plus the frame count including the release tail.
func sequence(notes []int, noteFrames, gapFrames, tailFrames int) ([]synth.Event, int) {
	events := make([]synth.Event, 0, 2*len(notes))
	pos := 0

	for _, note := range notes {
		events = append(events,
			synth.Event{Offset: pos, Kind: synth.NoteOn, Note: note},
			synth.Event{Offset: pos + noteFrames, Kind: synth.NoteOff, Note: note},
		)
		pos += noteFrames + gapFrames
	}

	total := pos - gapFrames + tailFrames
	if len(notes) == 0 {
		total = tailFrames
	}

	return events, total
}

// blockEvents appends the events falling into [start, start+n) to dst
// with offsets relative to start.
func blockEvents(dst, events []synth.Event, start, n int) []synth.Event {
	dst = dst[:0]

	for _, ev := range events {
		if ev.Offset >= start && ev.Offset < start+n {
			ev.Offset -= start
			dst = append(dst, ev)
		}
	}

	return dst
}

func msToFrames(ms float64, sampleRate int) int {
	return int(math.Round(ms * 0.001 * float64(sampleRate)))
}

func runSynth(a *app, opts *synthOptions, outPath string) error {
	if opts.sampleRate < 8000 || opts.sampleRate > 384000 {
		return fmt.Errorf("sample rate must be in [8000, 384000]: %d", opts.sampleRate)
	}

	if opts.channels < 1 {
		return fmt.Errorf("channels must be > 0: %d", opts.channels)
	}

	if opts.noteMs <= 0 || opts.gapMs < 0 {
		return errors.New("note-ms must be > 0 and gap-ms >= 0")
	}

	if opts.bits != 16 && opts.bits != 24 && opts.bits != 32 {
		return fmt.Errorf("bit depth must be 16, 24 or 32: %d", opts.bits)
	}

	for _, note := range opts.notes {
		if note < 0 || note > 127 {
			return fmt.Errorf("note out of MIDI range: %d", note)
		}
	}

	p, err := a.preset()
	if err != nil {
		return err
	}

	voice, err := synth.New(float64(opts.sampleRate), synth.WithParams(p.Synth), synth.WithLogger(a.log))
	if err != nil {
		return err
	}

	events, total := sequence(opts.notes,
		msToFrames(opts.noteMs, opts.sampleRate),
		msToFrames(opts.gapMs, opts.sampleRate),
		msToFrames(p.Synth.ReleaseMs, opts.sampleRate)+opts.sampleRate/100,
	)

	out := core.NewChannels(opts.channels, total)
	scratch := make([]synth.Event, 0, len(events))
	start := 0

	processBlocks(out, p.BlockSize, func(block [][]float64) {
		n := core.Frames(block)
		scratch = blockEvents(scratch, events, start, n)
		voice.Process(block, scratch)
		start += n
	})

	a.log.WithFields(logrus.Fields{
		"notes":  len(opts.notes),
		"frames": total,
	}).Debug("sequence rendered")

	return a.writeWAV(outPath, &wavio.Audio{
		SampleRate: opts.sampleRate,
		BitDepth:   opts.bits,
		Channels:   out,
	}, 0)
}
