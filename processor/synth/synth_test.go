package synth

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/cwbudde/algo-retrofox/dsp/core"
	"github.com/cwbudde/algo-retrofox/dsp/envelope"
	"github.com/cwbudde/algo-retrofox/internal/testutil"
)

const testRate = 48000.0

func quietLogger() logrus.FieldLogger {
	l, _ := logtest.NewNullLogger()
	return l
}

func newSynth(t *testing.T, p Params) *Synth {
	t.Helper()

	s, err := New(testRate, WithParams(p), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return s
}

// dryParams is an unfiltered sine with an instant attack held at full level.
func dryParams() Params {
	p := DefaultParams()
	p.FilterEnabled = false
	p.AttackMs = 0.1
	p.Sustain = 1
	p.ReleaseMs = 1

	return p
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("DefaultParams().Validate() = %v", err)
	}

	tests := []struct {
		name string
		set  func(*Params)
	}{
		{"osc type", func(p *Params) { p.OscType = "square" }},
		{"filter type", func(p *Params) { p.FilterType = "notch" }},
		{"osc gain", func(p *Params) { p.OscGainDb = 13 }},
		{"cutoff low", func(p *Params) { p.CutoffHz = 10 }},
		{"cutoff high", func(p *Params) { p.CutoffHz = 21000 }},
		{"resonance", func(p *Params) { p.Resonance = 0 }},
		{"lfo depth", func(p *Params) { p.LFODepthOctave = -1 }},
		{"attack", func(p *Params) { p.AttackMs = 0 }},
		{"sustain", func(p *Params) { p.Sustain = 1.5 }},
		{"release nan", func(p *Params) { p.ReleaseMs = math.NaN() }},
		{"master", func(p *Params) { p.MasterGainDb = -61 }},
	}

	for _, tt := range tests {
		p := DefaultParams()
		tt.set(&p)

		if err := p.Validate(); err == nil {
			t.Fatalf("%s: Validate() = nil, want error", tt.name)
		}
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("New(0) = nil error")
	}

	if _, err := New(testRate, WithLogger(nil)); err == nil {
		t.Fatal("New(WithLogger(nil)) = nil error")
	}

	bad := DefaultParams()
	bad.Sustain = -0.1

	if _, err := New(testRate, WithParams(bad)); err == nil {
		t.Fatal("New(WithParams(bad)) = nil error")
	}
}

func TestEventKindString(t *testing.T) {
	tests := map[EventKind]string{
		NoteOn:        "note-on",
		NoteOff:       "note-off",
		AllNotesOff:   "all-notes-off",
		EventKind(42): "EventKind(42)",
	}

	for k, want := range tests {
		if got := k.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestIdleIsSilent(t *testing.T) {
	s := newSynth(t, DefaultParams())
	out := core.NewChannels(2, 512)

	for ch := range out {
		for i := range out[ch] {
			out[ch][i] = 1
		}
	}

	s.Process(out, nil)

	for ch := range out {
		for i, v := range out[ch] {
			if v != 0 {
				t.Fatalf("out[%d][%d] = %g, want 0", ch, i, v)
			}
		}
	}
}

func TestNoteOnIsSampleAccurate(t *testing.T) {
	s := newSynth(t, dryParams())
	out := core.NewChannels(2, 1024)

	s.Process(out, []Event{{Offset: 300, Kind: NoteOn, Note: 69}})

	for i := range 300 {
		if out[0][i] != 0 {
			t.Fatalf("out[0][%d] = %g before note on, want 0", i, out[0][i])
		}
	}

	if r := testutil.RMS(out[0][400:]); r < 0.5 {
		t.Fatalf("rms after note on = %g, want > 0.5", r)
	}

	if s.CurrentNote() != 69 || !s.Active() {
		t.Fatalf("CurrentNote() = %d, Active() = %v", s.CurrentNote(), s.Active())
	}

	testutil.RequireSliceNearlyEqual(t, out[1], out[0], 0)
}

func TestNoteFrequency(t *testing.T) {
	s := newSynth(t, dryParams())
	out := [][]float64{make([]float64, int(testRate))}

	s.Process(out, []Event{{Kind: NoteOn, Note: 69}})

	crossings := 0
	for i := 1; i < len(out[0]); i++ {
		if out[0][i-1] < 0 && out[0][i] >= 0 {
			crossings++
		}
	}

	if crossings < 438 || crossings > 442 {
		t.Fatalf("rising zero crossings in 1 s = %d, want ~440", crossings)
	}
}

func TestNoteOffOnlyReleasesSoundingNote(t *testing.T) {
	s := newSynth(t, dryParams())
	out := core.NewChannels(1, 256)

	s.Process(out, []Event{
		{Offset: 0, Kind: NoteOn, Note: 60},
		{Offset: 10, Kind: NoteOff, Note: 61},
	})

	if s.CurrentNote() != 60 || s.env.Stage() != envelope.StageSustain {
		t.Fatalf("after foreign note off: note %d stage %v", s.CurrentNote(), s.env.Stage())
	}

	s.Process(out, []Event{{Offset: 5, Kind: NoteOff, Note: 60}})

	if s.CurrentNote() != -1 {
		t.Fatalf("CurrentNote() = %d, want -1", s.CurrentNote())
	}

	// 1 ms release at 48 kHz is 48 samples.
	for i := 5 + 49; i < len(out[0]); i++ {
		if out[0][i] != 0 {
			t.Fatalf("out[0][%d] = %g after release, want 0", i, out[0][i])
		}
	}

	if s.Active() {
		t.Fatal("voice still active after release")
	}
}

func TestAllNotesOff(t *testing.T) {
	s := newSynth(t, dryParams())
	out := core.NewChannels(1, 256)

	s.Process(out, []Event{
		{Offset: 0, Kind: NoteOn, Note: 72},
		{Offset: 100, Kind: AllNotesOff},
	})

	if s.CurrentNote() != -1 {
		t.Fatalf("CurrentNote() = %d, want -1", s.CurrentNote())
	}

	for i := 100 + 49; i < len(out[0]); i++ {
		if out[0][i] != 0 {
			t.Fatalf("out[0][%d] = %g, want 0", i, out[0][i])
		}
	}
}

func TestEventsPastBlockApplyAfterRender(t *testing.T) {
	s := newSynth(t, dryParams())
	out := core.NewChannels(1, 64)

	s.Process(out, []Event{{Offset: 64, Kind: NoteOn, Note: 60}})

	for i, v := range out[0] {
		if v != 0 {
			t.Fatalf("out[0][%d] = %g, want 0", i, v)
		}
	}

	if s.CurrentNote() != 60 {
		t.Fatalf("CurrentNote() = %d, want 60", s.CurrentNote())
	}
}

func TestInvalidNoteIgnored(t *testing.T) {
	s := newSynth(t, dryParams())

	s.NoteOn(128)
	s.NoteOn(-1)

	if s.CurrentNote() != -1 || s.Active() {
		t.Fatalf("invalid notes triggered the voice: note %d", s.CurrentNote())
	}

	s.NoteOff(-1)

	if s.Active() {
		t.Fatal("NoteOff(-1) changed state")
	}
}

func TestFilterTypeSelectsResponse(t *testing.T) {
	level := func(filterType string) float64 {
		p := dryParams()
		p.FilterEnabled = true
		p.FilterType = filterType
		p.CutoffHz = 2000
		p.Resonance = 0.7

		s := newSynth(t, p)
		out := [][]float64{make([]float64, 9600)}
		s.Process(out, []Event{{Kind: NoteOn, Note: 45}}) // 110 Hz

		return testutil.RMS(out[0][4800:])
	}

	lp := level("lowpass")
	hp := level("highpass")
	bp := level("bandpass")

	if lp < 0.6 {
		t.Fatalf("lowpass rms = %g, want > 0.6", lp)
	}

	if hp > lp/50 {
		t.Fatalf("highpass rms = %g, want well below lowpass %g", hp, lp)
	}

	if bp >= lp || bp <= hp {
		t.Fatalf("bandpass rms = %g, want between %g and %g", bp, hp, lp)
	}
}

func TestLFOModulatesCutoff(t *testing.T) {
	render := func(depth float64) []float64 {
		p := dryParams()
		p.OscType = "saw"
		p.FilterEnabled = true
		p.CutoffHz = 800
		p.LFORateHz = 5
		p.LFODepthOctave = depth

		s := newSynth(t, p)
		out := [][]float64{make([]float64, 4800)}
		s.Process(out, []Event{{Kind: NoteOn, Note: 48}})

		return out[0]
	}

	static := render(0)
	moving := render(2)

	testutil.RequireFinite(t, moving)

	diff, err := testutil.MaxAbsDiff(static, moving)
	if err != nil {
		t.Fatal(err)
	}

	if diff < 0.01 {
		t.Fatalf("LFO depth had no effect: max diff %g", diff)
	}
}

func TestMasterGainFloorMutes(t *testing.T) {
	p := dryParams()
	p.MasterGainDb = -60

	s := newSynth(t, p)
	out := core.NewChannels(1, 512)
	s.Process(out, []Event{{Kind: NoteOn, Note: 60}})

	for i, v := range out[0] {
		if v != 0 {
			t.Fatalf("out[0][%d] = %g, want 0", i, v)
		}
	}
}

func TestGainChangeIsRamped(t *testing.T) {
	s := newSynth(t, dryParams())
	out := [][]float64{make([]float64, 4800)}
	s.Process(out, []Event{{Kind: NoteOn, Note: 69}})

	p := s.Params()
	p.OscGainDb = -60

	if err := s.SetParams(p); err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}

	s.Process(out, nil)

	// 10 ms ramp: still audible during the first half, silent afterwards.
	if r := testutil.RMS(out[0][:200]); r < 0.1 {
		t.Fatalf("rms during ramp = %g, want audible", r)
	}

	for i := 480; i < len(out[0]); i++ {
		if out[0][i] != 0 {
			t.Fatalf("out[0][%d] = %g after ramp, want 0", i, out[0][i])
		}
	}
}

func TestSetParamsLogsChanges(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	s, err := New(testRate, WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	hook.Reset()

	p := s.Params()
	p.OscType = "saw-aa"
	p.CutoffHz = 3000

	if err := s.SetParams(p); err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("logged %d entries, want 2", len(entries))
	}

	if entries[0].Data["param"] != "oscType" || entries[1].Data["cutoffHz"] != 3000.0 {
		t.Fatalf("unexpected entries: %v, %v", entries[0].Data, entries[1].Data)
	}

	if err := s.SetParams(Params{}); err == nil {
		t.Fatal("SetParams(zero) = nil error")
	}

	if s.Params().OscType != "saw-aa" {
		t.Fatalf("invalid SetParams changed state: %+v", s.Params())
	}
}

func TestPrepareAndReset(t *testing.T) {
	s := newSynth(t, dryParams())
	out := core.NewChannels(1, 128)
	s.Process(out, []Event{{Kind: NoteOn, Note: 60}})

	s.Reset()

	if s.Active() || s.CurrentNote() != -1 {
		t.Fatal("Reset() left the voice sounding")
	}

	if err := s.Prepare(44100); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if s.SampleRate() != 44100 {
		t.Fatalf("SampleRate() = %g, want 44100", s.SampleRate())
	}

	if err := s.Prepare(-1); err == nil {
		t.Fatal("Prepare(-1) = nil error")
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	p := DefaultParams()
	p.LFORateHz = 3
	p.LFODepthOctave = 1

	s := newSynth(t, p)
	out := core.NewChannels(2, 256)
	events := []Event{{Offset: 10, Kind: NoteOn, Note: 64}, {Offset: 200, Kind: NoteOff, Note: 64}}

	allocs := testing.AllocsPerRun(50, func() {
		s.Process(out, events)
	})

	if allocs != 0 {
		t.Fatalf("Process allocated %v times per run", allocs)
	}
}

func BenchmarkProcess(b *testing.B) {
	p := DefaultParams()
	p.OscType = "saw-aa"
	p.LFORateHz = 2
	p.LFODepthOctave = 1

	s, err := New(testRate, WithParams(p), WithLogger(quietLogger()))
	if err != nil {
		b.Fatal(err)
	}

	out := core.NewChannels(2, 512)
	s.NoteOn(48)

	b.ResetTimer()

	for range b.N {
		s.Process(out, nil)
	}
}
