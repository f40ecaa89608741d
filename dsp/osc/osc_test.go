package osc

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-retrofox/internal/testutil"
	"github.com/cwbudde/algo-retrofox/measure/spectrum"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := New(48000, WithFrequency(math.NaN())); err == nil {
		t.Fatal("expected error for NaN frequency")
	}
	if _, err := New(48000, WithType(Type(42))); err == nil {
		t.Fatal("expected error for invalid type")
	}
}

func TestSineMatchesReference(t *testing.T) {
	o, err := New(48000, WithFrequency(1000))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got := make([]float64, 96)
	o.ProcessBlock(got)
	testutil.RequireSliceNearlyEqual(t, got, testutil.DeterministicSine(1000, 48000, 1, 96), 1e-9)
}

func TestNaiveShapes(t *testing.T) {
	tests := []struct {
		typ  Type
		want []float64
	}{
		{typ: Saw, want: []float64{-1, -0.5, 0, 0.5, -1}},
		{typ: Triangle, want: []float64{-1, 0, 1, 0, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			o, err := New(8, WithType(tt.typ), WithFrequency(2))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			got := make([]float64, len(tt.want))
			o.ProcessBlock(got)
			testutil.RequireSliceNearlyEqual(t, got, tt.want, 1e-12)
		})
	}
}

func TestFrequencyChangeTakesEffectNextSample(t *testing.T) {
	o, _ := New(100, WithType(Saw), WithFrequency(10))
	o.Process() // phase 0 -> 0.1
	if err := o.SetFrequency(20); err != nil {
		t.Fatalf("SetFrequency() error = %v", err)
	}

	// The sample at the current phase is unaffected; the step after it is.
	if got := o.Process(); math.Abs(got-(2*0.1-1)) > 1e-12 {
		t.Fatalf("sample = %v, want %v", got, 2*0.1-1)
	}
	if got := o.Phase(); math.Abs(got-0.3) > 1e-12 {
		t.Fatalf("phase = %v, want 0.3", got)
	}
}

func TestFrequencyClampedToNyquist(t *testing.T) {
	o, _ := New(48000, WithFrequency(1e6))
	if o.Frequency() != 24000 {
		t.Fatalf("frequency = %v, want 24000", o.Frequency())
	}
	if err := o.SetFrequency(-5); err != nil {
		t.Fatalf("SetFrequency() error = %v", err)
	}
	if o.Frequency() != 0 {
		t.Fatalf("frequency = %v, want 0", o.Frequency())
	}
}

func TestSetNote(t *testing.T) {
	o, _ := New(48000)

	tests := []struct {
		note int
		want float64
	}{
		{note: 69, want: 440},
		{note: 57, want: 220},
		{note: 81, want: 880},
		{note: 0, want: 8.175798915643707},
		{note: 127, want: 12543.853951415975},
	}

	for _, tt := range tests {
		o.SetNote(tt.note)
		if math.Abs(o.Frequency()-tt.want) > 1e-9 {
			t.Fatalf("note %d: frequency = %v, want %v", tt.note, o.Frequency(), tt.want)
		}
	}

	lo, _ := New(16000)
	lo.SetNote(127)
	if lo.Frequency() != 8000 {
		t.Fatalf("note 127 at 16 kHz: frequency = %v, want 8000", lo.Frequency())
	}
}

func TestResetAndSetPhase(t *testing.T) {
	o, _ := New(48000, WithType(Saw), WithFrequency(100))
	for i := 0; i < 17; i++ {
		o.Process()
	}
	o.Reset()
	if o.Phase() != 0 {
		t.Fatalf("phase = %v after Reset", o.Phase())
	}
	o.SetPhase(1.25)
	if o.Phase() != 0.25 {
		t.Fatalf("phase = %v, want 0.25", o.Phase())
	}
}

func TestParseType(t *testing.T) {
	for typ := Sine; typ <= SawAA; typ++ {
		got, err := ParseType(typ.String())
		if err != nil || got != typ {
			t.Fatalf("ParseType(%q) = %v, %v", typ.String(), got, err)
		}
	}
	if _, err := ParseType("square"); err == nil {
		t.Fatal("expected error for unknown waveform")
	}
}

func TestAntiAliasedShapesReduceAliasing(t *testing.T) {
	const (
		sr   = 48000.0
		size = 8192
	)
	// Bin-centred fundamental whose folded partials miss the harmonic bins.
	f0 := spectrum.BinFrequency(301, size, sr)

	a, err := spectrum.NewAnalyzer(size)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	ratio := func(typ Type) float64 {
		o, err := New(sr, WithType(typ), WithFrequency(f0))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		buf := make([]float64, size)
		o.ProcessBlock(buf)
		power := make([]float64, a.Bins())
		if err := a.Power(power, buf); err != nil {
			t.Fatalf("Power() error = %v", err)
		}
		return spectrum.AliasRatio(power, f0, sr, 3)
	}

	pairs := []struct{ naive, aa Type }{
		{Saw, SawAA},
		{Triangle, TriangleAA},
	}
	for _, p := range pairs {
		naive := ratio(p.naive)
		aa := ratio(p.aa)
		if !(aa < naive) {
			t.Fatalf("%s alias ratio %v not below %s %v", p.aa, aa, p.naive, naive)
		}
	}
}

func TestAntiAliasedOutputBounded(t *testing.T) {
	for _, typ := range []Type{TriangleAA, SawAA} {
		o, _ := New(44100, WithType(typ), WithFrequency(5000))
		buf := make([]float64, 2048)
		o.ProcessBlock(buf)
		testutil.RequireFinite(t, buf)
		for i, v := range buf {
			if math.Abs(v) > 1.5 {
				t.Fatalf("%s: sample %d = %v out of bounds", typ, i, v)
			}
		}
	}
}

func TestProcessBlockFM(t *testing.T) {
	o, _ := New(100, WithType(Saw), WithFrequency(10))
	dst := make([]float64, 3)
	o.ProcessBlockFM(dst, []float64{10, 10, 10})
	if math.Abs(o.Phase()-0.6) > 1e-12 {
		t.Fatalf("phase = %v, want 0.6", o.Phase())
	}
	if o.Frequency() != 10 {
		t.Fatalf("base frequency changed to %v", o.Frequency())
	}
	o.Process()
	if math.Abs(o.Phase()-0.7) > 1e-12 {
		t.Fatalf("phase = %v after FM block, want 0.7", o.Phase())
	}
}
