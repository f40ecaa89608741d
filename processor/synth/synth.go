// Package synth implements a monophonic subtractive synthesizer voice.
//
// Signal flow per sample:
//
//	oscillator → osc gain → SVF (optional, LFO-modulated cutoff) → ADSR → master gain
//
// The mono result is written to every output channel. Note events carry a
// frame offset into the block and take effect exactly at that frame.
package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/envelope"
	"github.com/cwbudde/algo-retrofox/dsp/filter/svf"
	"github.com/cwbudde/algo-retrofox/dsp/osc"
	"github.com/cwbudde/algo-retrofox/dsp/ramp"
)

const (
	gainRampSeconds = 0.01

	minModCutoffHz = 20.0
	maxModCutoff   = 0.45 // fraction of the sample rate

	noNote = -1
)

// EventKind identifies a note event.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	AllNotesOff
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	case AllNotesOff:
		return "all-notes-off"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a note event at frame Offset of the block passed to Process.
// Note is a MIDI note number and is ignored for AllNotesOff.
type Event struct {
	Offset int
	Kind   EventKind
	Note   int
}

// Option configures a Synth.
type Option func(*config) error

type config struct {
	params Params
	logger logrus.FieldLogger
}

// WithParams sets the initial parameters.
func WithParams(p Params) Option {
	return func(cfg *config) error {
		err := p.Validate()
		if err != nil {
			return err
		}

		cfg.params = p

		return nil
	}
}

// WithLogger sets the logger used for parameter changes.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errors.New("synth: nil logger")
		}

		cfg.logger = l

		return nil
	}
}

// Synth is a single voice. Not safe for concurrent use.
type Synth struct {
	sampleRate float64
	params     Params

	osc    *osc.Oscillator
	lfo    *osc.Oscillator
	filter *svf.Filter
	env    *envelope.ADSR
	mode   svf.Mode

	oscGain ramp.Ramp
	master  ramp.Ramp

	note int

	log logrus.FieldLogger
}

// New builds a voice at sampleRate with DefaultParams unless overridden.
func New(sampleRate float64, opts ...Option) (*Synth, error) {
	cfg := config{
		params: DefaultParams(),
		logger: logrus.StandardLogger(),
	}

	for _, opt := range opts {
		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("synth: sample rate must be positive and finite: %f", sampleRate)
	}

	p := cfg.params
	typ, _ := osc.ParseType(p.OscType)
	mode, _ := svf.ParseMode(p.FilterType)

	s := &Synth{
		params:  p,
		mode:    mode,
		oscGain: ramp.New(gainRampSeconds),
		master:  ramp.New(gainRampSeconds),
		note:    noNote,
		log:     cfg.logger,
	}

	var err error

	s.osc, err = osc.New(sampleRate, osc.WithType(typ))
	if err != nil {
		return nil, err
	}

	s.lfo, err = osc.New(sampleRate, osc.WithFrequency(p.LFORateHz))
	if err != nil {
		return nil, err
	}

	s.filter, err = svf.New(sampleRate, svf.WithCutoffHz(p.CutoffHz), svf.WithQ(p.Resonance))
	if err != nil {
		return nil, err
	}

	s.env, err = envelope.New(sampleRate,
		envelope.WithAttackMs(p.AttackMs),
		envelope.WithDecayMs(p.DecayMs),
		envelope.WithSustain(p.Sustain),
		envelope.WithReleaseMs(p.ReleaseMs),
		envelope.WithAnalog(p.EnvAnalog),
	)
	if err != nil {
		return nil, err
	}

	err = s.Prepare(sampleRate)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Prepare changes the sample rate, silences the voice and snaps the gain
// ramps to their targets.
func (s *Synth) Prepare(sampleRate float64) error {
	err := errors.Join(
		s.osc.Prepare(sampleRate),
		s.lfo.Prepare(sampleRate),
		s.filter.Prepare(sampleRate),
		s.env.Prepare(sampleRate),
	)
	if err != nil {
		return err
	}

	s.sampleRate = sampleRate
	s.oscGain.Prepare(sampleRate, true, core.DBToGain(s.params.OscGainDb))
	s.master.Prepare(sampleRate, true, core.DBToGain(s.params.MasterGainDb))
	s.Reset()

	s.log.WithField("sampleRate", sampleRate).Debug("synth: prepared")

	return nil
}

// Reset silences the voice and clears oscillator and filter state.
func (s *Synth) Reset() {
	s.osc.Reset()
	s.lfo.Reset()
	s.filter.Reset()
	s.env.Reset()
	s.note = noNote
}

// SampleRate returns the current sample rate.
func (s *Synth) SampleRate() float64 { return s.sampleRate }

// Params returns the current parameters.
func (s *Synth) Params() Params { return s.params }

// CurrentNote returns the sounding note, or -1.
func (s *Synth) CurrentNote() int { return s.note }

// Active reports whether the envelope is producing output.
func (s *Synth) Active() bool { return s.env.Active() }

// SetParams validates next and applies every field that differs from the
// current settings. Gain changes are ramped.
func (s *Synth) SetParams(next Params) error {
	err := next.Validate()
	if err != nil {
		return err
	}

	cur := s.params

	if next.OscType != cur.OscType {
		typ, _ := osc.ParseType(next.OscType)

		err = s.osc.SetType(typ)
		if err != nil {
			return err
		}

		s.changed("oscType", next.OscType)
	}

	if next.OscGainDb != cur.OscGainDb {
		s.oscGain.SetTarget(core.DBToGain(next.OscGainDb), false)
		s.changed("oscGainDb", next.OscGainDb)
	}

	if next.FilterEnabled != cur.FilterEnabled {
		s.filter.Reset()
		s.changed("filterEnabled", next.FilterEnabled)
	}

	if next.FilterType != cur.FilterType {
		s.mode, _ = svf.ParseMode(next.FilterType)
		s.changed("filterType", next.FilterType)
	}

	if next.CutoffHz != cur.CutoffHz || next.Resonance != cur.Resonance {
		err = errors.Join(s.filter.SetCutoffHz(next.CutoffHz), s.filter.SetQ(next.Resonance))
		if err != nil {
			return err
		}

		s.log.WithFields(logrus.Fields{
			"cutoffHz":  next.CutoffHz,
			"resonance": next.Resonance,
		}).Debug("synth: filter changed")
	}

	if next.LFORateHz != cur.LFORateHz {
		err = s.lfo.SetFrequency(next.LFORateHz)
		if err != nil {
			return err
		}

		s.changed("lfoRateHz", next.LFORateHz)
	}

	if next.LFODepthOctave != cur.LFODepthOctave {
		s.changed("lfoDepthOctaves", next.LFODepthOctave)
	}

	if next.AttackMs != cur.AttackMs || next.DecayMs != cur.DecayMs ||
		next.Sustain != cur.Sustain || next.ReleaseMs != cur.ReleaseMs {
		err = errors.Join(
			s.env.SetAttackMs(next.AttackMs),
			s.env.SetDecayMs(next.DecayMs),
			s.env.SetSustain(next.Sustain),
			s.env.SetReleaseMs(next.ReleaseMs),
		)
		if err != nil {
			return err
		}

		s.log.WithFields(logrus.Fields{
			"attackMs":  next.AttackMs,
			"decayMs":   next.DecayMs,
			"sustain":   next.Sustain,
			"releaseMs": next.ReleaseMs,
		}).Debug("synth: envelope changed")
	}

	if next.EnvAnalog != cur.EnvAnalog {
		s.env.SetAnalog(next.EnvAnalog)
		s.changed("envAnalog", next.EnvAnalog)
	}

	if next.MasterGainDb != cur.MasterGainDb {
		s.master.SetTarget(core.DBToGain(next.MasterGainDb), false)
		s.changed("masterGainDb", next.MasterGainDb)
	}

	s.params = next

	return nil
}

func (s *Synth) changed(name string, v any) {
	s.log.WithFields(logrus.Fields{"param": name, "value": v}).Debug("synth: parameter changed")
}

// NoteOn starts note immediately. Notes outside 0..127 are ignored.
func (s *Synth) NoteOn(note int) {
	if note < 0 || note > 127 {
		return
	}

	s.osc.SetNote(note)
	s.env.Start()
	s.note = note
}

// NoteOff releases the voice if note is the sounding note.
func (s *Synth) NoteOff(note int) {
	if note != s.note || note == noNote {
		return
	}

	s.env.End()
	s.note = noNote
}

// AllNotesOff releases the voice whatever is sounding.
func (s *Synth) AllNotesOff() {
	s.env.End()
	s.note = noNote
}

func (s *Synth) handle(ev Event) {
	switch ev.Kind {
	case NoteOn:
		s.NoteOn(ev.Note)
	case NoteOff:
		s.NoteOff(ev.Note)
	case AllNotesOff:
		s.AllNotesOff()
	}
}

// Process renders one block into out, overwriting every channel with the
// same mono signal. Events must be sorted by Offset; an event applies
// before the frame at its offset is rendered, negative offsets apply at
// frame 0 and offsets past the block apply after the last frame.
func (s *Synth) Process(out [][]float64, events []Event) {
	n := core.Frames(out)
	ei := 0

	for i := range n {
		for ei < len(events) && events[ei].Offset <= i {
			s.handle(events[ei])
			ei++
		}

		y := s.next()
		for _, buf := range out {
			buf[i] = y
		}
	}

	for ; ei < len(events); ei++ {
		s.handle(events[ei])
	}
}

func (s *Synth) next() float64 {
	x := s.osc.Process() * s.oscGain.Next()

	if s.params.FilterEnabled {
		x = s.filtered(x)
	}

	return x * s.env.Next() * s.master.Next()
}

func (s *Synth) filtered(x float64) float64 {
	cutoff := s.params.CutoffHz

	if s.params.LFORateHz > 0 && s.params.LFODepthOctave > 0 {
		cutoff *= math.Exp2(s.params.LFODepthOctave * s.lfo.Process())
		cutoff = core.Clamp(cutoff, minModCutoffHz, maxModCutoff*s.sampleRate)
	} else {
		cutoff = math.Min(cutoff, maxModCutoff*s.sampleRate)
	}

	lp, bp, hp := s.filter.ProcessSampleMod(x, cutoff, s.params.Resonance)

	switch s.mode {
	case svf.BandPass:
		return bp
	case svf.HighPass:
		return hp
	default:
		return lp
	}
}
