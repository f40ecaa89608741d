package modulation

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-retrofox/internal/testutil"
)

func TestFlangerProcessInPlaceMatchesSample(t *testing.T) {
	f1, err := NewFlanger(48000, WithFlangerChannels(1), WithFlangerFeedback(0.3), WithFlangerMix(0.5))
	if err != nil {
		t.Fatalf("NewFlanger() error = %v", err)
	}

	f2, err := NewFlanger(48000, WithFlangerChannels(1), WithFlangerFeedback(0.3), WithFlangerMix(0.5))
	if err != nil {
		t.Fatalf("NewFlanger() error = %v", err)
	}

	input := testutil.DeterministicSine(1000, 48000, 0.8, 512)

	want := make([]float64, len(input))
	for i := range input {
		want[i] = f1.ProcessSample(input[i])
	}

	got := append([]float64(nil), input...)
	f2.ProcessInPlace([][]float64{got})

	testutil.RequireSliceNearlyEqual(t, got, want, 0)
}

func TestFlangerImpulseAtConfiguredDelayWhenDepthZero(t *testing.T) {
	f, err := NewFlanger(1000,
		WithFlangerOffsetMs(5),
		WithFlangerDepthMs(0),
		WithFlangerMix(1),
		WithFlangerFeedback(0),
		WithFlangerChannels(1),
	)
	if err != nil {
		t.Fatalf("NewFlanger() error = %v", err)
	}

	buf := testutil.Impulse(16, 0)
	f.ProcessInPlace([][]float64{buf})

	for i, v := range buf {
		want := 0.0
		if i == 5 {
			want = 1
		}

		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestFlangerFeedbackRecirculates(t *testing.T) {
	f, err := NewFlanger(1000,
		WithFlangerOffsetMs(4),
		WithFlangerDepthMs(0),
		WithFlangerMix(1),
		WithFlangerFeedback(0.5),
		WithFlangerChannels(1),
	)
	if err != nil {
		t.Fatalf("NewFlanger() error = %v", err)
	}

	buf := testutil.Impulse(13, 0)
	f.ProcessInPlace([][]float64{buf})

	for _, tc := range []struct {
		idx  int
		want float64
	}{{4, 1}, {8, 0.5}, {12, 0.25}} {
		if math.Abs(buf[tc.idx]-tc.want) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", tc.idx, buf[tc.idx], tc.want)
		}
	}
}

func TestFlangerParameterChangesRamp(t *testing.T) {
	f, err := NewFlanger(1000, WithFlangerOffsetMs(2), WithFlangerDepthMs(0), WithFlangerChannels(1))
	if err != nil {
		t.Fatalf("NewFlanger() error = %v", err)
	}

	if err := f.SetOffsetMs(12); err != nil {
		t.Fatalf("SetOffsetMs() error = %v", err)
	}

	// 50 ms ramp at 1 kHz moves 0.2 ms per frame.
	first := f.advance()
	if math.Abs(first-2.2) > 1e-9 {
		t.Fatalf("first ramped delay = %v samples, want 2.2", first)
	}

	for i := 0; i < 49; i++ {
		f.advance()
	}

	if got := f.advance(); math.Abs(got-12) > 1e-9 {
		t.Fatalf("settled delay = %v samples, want 12", got)
	}
}

func TestFlangerChannelsIndependent(t *testing.T) {
	f, err := NewFlanger(48000)
	if err != nil {
		t.Fatalf("NewFlanger() error = %v", err)
	}

	left := testutil.Impulse(256, 0)
	right := make([]float64, 256)
	out := [][]float64{make([]float64, 256), make([]float64, 256)}
	f.Process(out, [][]float64{left, right})

	for i, v := range out[1] {
		if v != 0 {
			t.Fatalf("right[%d] = %v, want 0", i, v)
		}
	}

	testutil.RequireFinite(t, out[0])
}

func TestFlangerClearRestoresState(t *testing.T) {
	f, err := NewFlanger(48000, WithFlangerChannels(1), WithFlangerFeedback(0.6))
	if err != nil {
		t.Fatalf("NewFlanger() error = %v", err)
	}

	in := testutil.DeterministicNoise(9, 0.5, 400)

	out1 := append([]float64(nil), in...)
	f.ProcessInPlace([][]float64{out1})

	f.Clear()

	out2 := append([]float64(nil), in...)
	f.ProcessInPlace([][]float64{out2})

	testutil.RequireSliceNearlyEqual(t, out2, out1, 0)
}

func TestFlangerValidation(t *testing.T) {
	cases := []FlangerOption{
		WithFlangerRateHz(-1),
		WithFlangerRateHz(50),
		WithFlangerDepthMs(-1),
		WithFlangerOffsetMs(math.Inf(1)),
		WithFlangerFeedback(1),
		WithFlangerMix(2),
		WithFlangerMaxDelayMs(0),
		WithFlangerChannels(0),
	}

	for i, opt := range cases {
		if _, err := NewFlanger(48000, opt); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}

	if _, err := NewFlanger(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func BenchmarkFlangerStereo(b *testing.B) {
	f, _ := NewFlanger(48000, WithFlangerFeedback(0.4))
	bufs := [][]float64{
		testutil.DeterministicNoise(1, 0.5, 512),
		testutil.DeterministicNoise(2, 0.5, 512),
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		f.ProcessInPlace(bufs)
	}
}
