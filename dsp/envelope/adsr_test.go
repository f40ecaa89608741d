package envelope

import (
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := New(48000, WithSustain(1.5)); err == nil {
		t.Fatal("expected error for sustain > 1")
	}
	if _, err := New(48000, WithAttackMs(-1)); err == nil {
		t.Fatal("expected error for negative attack")
	}
	if _, err := New(48000, WithReleaseMs(math.NaN())); err == nil {
		t.Fatal("expected error for NaN release")
	}
}

func TestLinearSegments(t *testing.T) {
	// 1 kHz makes 1 ms one sample.
	e, err := New(1000,
		WithAttackMs(4), WithDecayMs(4), WithSustain(0.5), WithReleaseMs(5))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if e.Active() || e.Next() != 0 {
		t.Fatal("idle envelope should output 0")
	}

	e.Start()
	got := make([]float64, 10)
	e.Process(got)
	want := []float64{0.25, 0.5, 0.75, 1, 0.875, 0.75, 0.625, 0.5, 0.5, 0.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v (all %v)", i, got[i], want[i], got)
		}
	}
	if e.Stage() != StageSustain {
		t.Fatalf("stage = %v, want sustain", e.Stage())
	}

	e.End()
	rel := make([]float64, 6)
	e.Process(rel)
	wantRel := []float64{0.4, 0.3, 0.2, 0.1, 0, 0}
	for i := range wantRel {
		if math.Abs(rel[i]-wantRel[i]) > 1e-12 {
			t.Fatalf("release %d = %v, want %v", i, rel[i], wantRel[i])
		}
	}
	if e.Active() {
		t.Fatalf("stage = %v after release, want idle", e.Stage())
	}
}

func TestEndDuringAttackReleasesFromCurrentLevel(t *testing.T) {
	e, _ := New(1000, WithAttackMs(10), WithReleaseMs(2))
	e.Start()
	for i := 0; i < 4; i++ {
		e.Next()
	}
	level := e.Value()
	e.End()
	if got := e.Next(); math.Abs(got-level/2) > 1e-12 {
		t.Fatalf("first release sample = %v, want %v", got, level/2)
	}
}

func TestParameterChangeDuringRelease(t *testing.T) {
	e, _ := New(1000,
		WithAttackMs(4), WithDecayMs(4), WithSustain(0.5), WithReleaseMs(10))
	e.Start()
	e.Process(make([]float64, 10))
	e.End()

	// The slope set by End survives unrelated parameter changes.
	steps := []struct {
		name string
		set  func() error
		want float64
	}{
		{name: "none", set: func() error { return nil }, want: 0.45},
		{name: "sustain up", set: func() error { return e.SetSustain(0.9) }, want: 0.40},
		{name: "sustain down", set: func() error { return e.SetSustain(0.1) }, want: 0.35},
		{name: "attack", set: func() error { return e.SetAttackMs(50) }, want: 0.30},
		// A new release time spreads the remaining level over it.
		{name: "release", set: func() error { return e.SetReleaseMs(5) }, want: 0.24},
		{name: "after release", set: func() error { return nil }, want: 0.18},
	}
	for _, st := range steps {
		if err := st.set(); err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		if got := e.Next(); math.Abs(got-st.want) > 1e-12 {
			t.Fatalf("%s: level = %v, want %v", st.name, got, st.want)
		}
	}
	if e.Stage() != StageRelease {
		t.Fatalf("stage = %v, want release", e.Stage())
	}
}

func TestEndWhileIdleIsNoop(t *testing.T) {
	e, _ := New(48000)
	e.End()
	if e.Stage() != StageIdle {
		t.Fatalf("stage = %v, want idle", e.Stage())
	}
}

func TestAnalogCurveShape(t *testing.T) {
	const sr = 48000.0
	e, _ := New(sr, WithAnalog(true), WithAttackMs(10), WithDecayMs(50), WithSustain(0.6), WithReleaseMs(50))
	e.Start()

	attack := make([]float64, 480)
	e.Process(attack)

	// Concave rise: the first half covers more than half the distance.
	if attack[239] <= 0.5 {
		t.Fatalf("analog attack at half time = %v, want > 0.5", attack[239])
	}
	for i := 1; i < len(attack); i++ {
		if attack[i] < attack[i-1] {
			t.Fatalf("attack not monotonic at %d", i)
		}
	}

	// The attack reaches 1 at the nominal time.
	for i := 0; i < 4; i++ {
		e.Next()
	}
	if e.Stage() != StageDecay && e.Stage() != StageSustain {
		t.Fatalf("stage = %v after attack time, want decay", e.Stage())
	}

	for i := 0; i < int(sr); i++ {
		e.Next()
	}
	if e.Stage() != StageSustain || e.Value() != 0.6 {
		t.Fatalf("stage=%v value=%v, want sustain at 0.6", e.Stage(), e.Value())
	}

	e.End()
	for i := 0; i < int(sr) && e.Active(); i++ {
		e.Next()
	}
	if e.Active() || e.Value() != 0 {
		t.Fatalf("analog release did not finish: %v %v", e.Stage(), e.Value())
	}
}

func TestRetriggerKeepsLevel(t *testing.T) {
	e, _ := New(1000, WithAttackMs(4), WithReleaseMs(100))
	e.Start()
	for i := 0; i < 10; i++ {
		e.Next()
	}
	e.End()
	e.Next()
	before := e.Value()

	e.Start()
	if got := e.Next(); got < before {
		t.Fatalf("retrigger dropped level from %v to %v", before, got)
	}
}

func TestReset(t *testing.T) {
	e, _ := New(48000)
	e.Start()
	e.Next()
	e.Reset()
	if e.Active() || e.Value() != 0 {
		t.Fatalf("Reset left stage=%v value=%v", e.Stage(), e.Value())
	}
}
