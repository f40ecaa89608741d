package retrofox

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/cwbudde/algo-retrofox/internal/testutil"
)

const testRate = 48000.0

func quietLogger() logrus.FieldLogger {
	l, _ := logtest.NewNullLogger()
	return l
}

func newProc(t *testing.T, p Params, opts ...Option) *Processor {
	t.Helper()

	opts = append([]Option{WithParams(p), WithLogger(quietLogger()), WithSeed(1)}, opts...)

	proc, err := New(testRate, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return proc
}

func stereoSine(n int) [][]float64 {
	return [][]float64{
		testutil.DeterministicSine(110, testRate, 0.6, n),
		testutil.DeterministicSine(165, testRate, 0.6, n),
	}
}

func TestFlangerSettings(t *testing.T) {
	tests := []struct {
		pct                 float64
		offset, depth, rate float64
		on                  bool
	}{
		{pct: 0, offset: 7, depth: 0, rate: 0, on: false},
		{pct: 0.05, offset: 7, depth: 0.0025, rate: 0, on: false},
		{pct: 0.5, offset: 7, depth: 0.025, rate: 0, on: true},
		{pct: 50, offset: 4, depth: 2.5, rate: 0.55, on: true},
		{pct: 100, offset: 1, depth: 5, rate: 1, on: true},
		{pct: 150, offset: 1, depth: 5, rate: 1, on: true},
	}

	for _, tt := range tests {
		offset, depth, rate, on := flangerSettings(tt.pct)
		if math.Abs(offset-tt.offset) > 1e-12 || math.Abs(depth-tt.depth) > 1e-12 ||
			math.Abs(rate-tt.rate) > 1e-12 || on != tt.on {
			t.Fatalf("flangerSettings(%v) = (%v, %v, %v, %v), want (%v, %v, %v, %v)",
				tt.pct, offset, depth, rate, on, tt.offset, tt.depth, tt.rate, tt.on)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	bad := []func(*Params){
		func(p *Params) { p.Drive = 0.5 },
		func(p *Params) { p.BitDepth = 25 },
		func(p *Params) { p.RateReduce = 0 },
		func(p *Params) { p.RateReduce = 65 },
		func(p *Params) { p.FlangerIntensity = -1 },
		func(p *Params) { p.PostGainDb = 13 },
		func(p *Params) { p.TremoloRateHz = 0 },
		func(p *Params) { p.TremoloDepth = 101 },
		func(p *Params) { p.VinylNoise = math.NaN() },
	}

	for i, mutate := range bad {
		p := DefaultParams()
		mutate(&p)
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, p)
		}
		if _, err := New(testRate, WithParams(p)); err == nil {
			t.Fatalf("case %d: New accepted invalid params", i)
		}
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := New(testRate, WithChannels(0)); err == nil {
		t.Fatal("expected error for zero channels")
	}
	if _, err := New(testRate, WithBlockSize(0)); err == nil {
		t.Fatal("expected error for zero block size")
	}
	if _, err := New(testRate, WithLogger(nil)); err == nil {
		t.Fatal("expected error for nil logger")
	}
}

func TestSilenceStaysSilentAtDefaults(t *testing.T) {
	p := newProc(t, DefaultParams())

	block := [][]float64{make([]float64, 512), make([]float64, 512)}
	p.Process(block)

	for ch := range block {
		for i, v := range block[ch] {
			if v != 0 {
				t.Fatalf("ch %d sample %d = %v, want 0", ch, i, v)
			}
		}
	}
}

func TestPostGainFloorMutes(t *testing.T) {
	params := DefaultParams()
	params.PostGainDb = -60
	params.VinylNoise = 80

	p := newProc(t, params)

	block := stereoSine(256)
	p.Process(block)

	for ch := range block {
		for i, v := range block[ch] {
			if v != 0 {
				t.Fatalf("ch %d sample %d = %v, want silence", ch, i, v)
			}
		}
	}
}

func TestBitDepthQuantizesOutput(t *testing.T) {
	params := DefaultParams()
	params.BitDepth = 4

	p := newProc(t, params)

	block := stereoSine(1024)
	p.Process(block)

	const step = 2.0 / 16
	nonZero := 0
	for ch := range block {
		for i, v := range block[ch] {
			q := v / step
			if math.Abs(q-math.Round(q)) > 1e-9 {
				t.Fatalf("ch %d sample %d = %v is off the %v grid", ch, i, v, step)
			}
			if v != 0 {
				nonZero++
			}
		}
	}

	if nonZero == 0 {
		t.Fatal("output collapsed to silence")
	}
}

func TestRateReduceRestartsEveryBlock(t *testing.T) {
	params := DefaultParams()
	params.RateReduce = 4

	p := newProc(t, params)

	for _, n := range []int{10, 7, 16} {
		block := stereoSine(n)
		p.Process(block)

		for ch := range block {
			for i := range block[ch] {
				anchor := i - i%4
				if block[ch][i] != block[ch][anchor] {
					t.Fatalf("n=%d ch %d: sample %d = %v, want held %v from %d",
						n, ch, i, block[ch][i], block[ch][anchor], anchor)
				}
			}
		}
	}
}

func TestTremoloOnlyAttenuates(t *testing.T) {
	plain := newProc(t, DefaultParams())

	params := DefaultParams()
	params.TremoloDepth = 100
	params.TremoloRateHz = 5
	trem := newProc(t, params)

	params.TremoloEnabled = false
	disabled := newProc(t, params)

	a, b, c := stereoSine(4800), stereoSine(4800), stereoSine(4800)
	plain.Process(a)
	trem.Process(b)
	disabled.Process(c)

	differs := false
	for ch := range a {
		testutil.RequireSliceNearlyEqual(t, c[ch], a[ch], 0)

		for i := range a[ch] {
			if math.Abs(b[ch][i]) > math.Abs(a[ch][i])+1e-12 {
				t.Fatalf("ch %d sample %d: tremolo raised |%v| above |%v|", ch, i, b[ch][i], a[ch][i])
			}
			if b[ch][i] != a[ch][i] {
				differs = true
			}
		}
	}

	if !differs {
		t.Fatal("tremolo at full depth had no effect")
	}
}

func TestFlangerFadesIn(t *testing.T) {
	plain := newProc(t, DefaultParams())
	p := newProc(t, DefaultParams())

	if err := p.SetFlangerIntensity(100); err != nil {
		t.Fatalf("SetFlangerIntensity() error = %v", err)
	}
	if p.enable.Target() != 1 || !p.enable.IsRamping() {
		t.Fatalf("enable ramp target=%v ramping=%v, want fade toward 1", p.enable.Target(), p.enable.IsRamping())
	}

	// 50 ms at 48 kHz.
	n := 2400
	a, b := stereoSine(n+480), stereoSine(n+480)
	plain.Process(a)
	p.Process(b)

	if p.enable.IsRamping() || p.enable.Value() != 1 {
		t.Fatalf("enable ramp did not finish: %v", p.enable.Value())
	}

	maxDiff, err := testutil.MaxAbsDiff(a[0][n:], b[0][n:])
	if err != nil {
		t.Fatal(err)
	}
	if maxDiff < 1e-3 {
		t.Fatalf("flanger wet path inaudible after fade-in: max diff %v", maxDiff)
	}

	if err := p.SetFlangerIntensity(0); err != nil {
		t.Fatalf("SetFlangerIntensity(0) error = %v", err)
	}
	if p.enable.Target() != 0 {
		t.Fatalf("enable target = %v, want 0", p.enable.Target())
	}
}

func TestVinylNoiseIsSharedAndSeeded(t *testing.T) {
	params := DefaultParams()
	params.VinylNoise = 50

	run := func() [][]float64 {
		p := newProc(t, params)
		block := [][]float64{make([]float64, 512), make([]float64, 512)}
		p.Process(block)
		return block
	}

	first, second := run(), run()

	testutil.RequireSliceNearlyEqual(t, first[0], first[1], 0)
	testutil.RequireSliceNearlyEqual(t, first[0], second[0], 0)

	peak := 0.0
	for _, v := range first[0] {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak == 0 || peak > 0.1 {
		t.Fatalf("vinyl peak = %v, want in (0, 0.1]", peak)
	}
}

func TestSetParamsAppliesOnlyChanges(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	p, err := New(testRate, WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	hook.Reset()

	next := p.Params()
	next.BitDepth = 8
	next.TremoloDepth = 40

	if err := p.SetParams(next); err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}
	if got := len(hook.AllEntries()); got != 2 {
		t.Fatalf("logged %d entries, want 2", got)
	}
	if p.Params() != next {
		t.Fatalf("Params() = %+v, want %+v", p.Params(), next)
	}
	if p.crusher.BitDepth() != 8 || p.tremolo.Depth() != 0.4 {
		t.Fatalf("stages not updated: bits=%v depth=%v", p.crusher.BitDepth(), p.tremolo.Depth())
	}

	bad := next
	bad.Drive = 20
	if err := p.SetParams(bad); err == nil {
		t.Fatal("expected validation error")
	}
	if p.Params() != next {
		t.Fatal("failed SetParams must not change state")
	}
}

func TestSettersRejectOutOfRange(t *testing.T) {
	p := newProc(t, DefaultParams())

	if err := p.SetDrive(11); err == nil {
		t.Fatal("SetDrive(11) should fail")
	}
	if err := p.SetBitDepth(0); err == nil {
		t.Fatal("SetBitDepth(0) should fail")
	}
	if err := p.SetRateReduce(100); err == nil {
		t.Fatal("SetRateReduce(100) should fail")
	}
	if err := p.SetPostGainDb(-61); err == nil {
		t.Fatal("SetPostGainDb(-61) should fail")
	}
	if err := p.SetTremoloRateHz(30); err == nil {
		t.Fatal("SetTremoloRateHz(30) should fail")
	}
	if p.Params() != DefaultParams() {
		t.Fatalf("rejected setters changed params: %+v", p.Params())
	}
}

func TestResetRepeatsOutput(t *testing.T) {
	params := DefaultParams()
	params.FlangerIntensity = 60
	params.TremoloDepth = 50
	params.Drive = 4

	p := newProc(t, params)

	a := stereoSine(1024)
	p.Process(a)

	p.Reset()
	b := stereoSine(1024)
	p.Process(b)

	for ch := range a {
		testutil.RequireSliceNearlyEqual(t, b[ch], a[ch], 0)
	}
}

func TestPrepareChangesChannelCount(t *testing.T) {
	p := newProc(t, DefaultParams())

	if err := p.Prepare(44100, 1); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if p.Channels() != 1 || p.SampleRate() != 44100 {
		t.Fatalf("channels=%d rate=%v", p.Channels(), p.SampleRate())
	}

	// The second channel is outside the prepared layout and passes through.
	extra := testutil.DeterministicSine(300, 44100, 0.5, 128)
	block := [][]float64{testutil.DeterministicSine(300, 44100, 0.5, 128), append([]float64(nil), extra...)}
	p.Process(block)

	testutil.RequireFinite(t, block[0])
	testutil.RequireSliceNearlyEqual(t, block[1], extra, 0)
}

func TestProcessGrowsBeyondBlockSize(t *testing.T) {
	p := newProc(t, DefaultParams(), WithBlockSize(16))

	block := stereoSine(100)
	p.Process(block)

	for ch := range block {
		testutil.RequireFinite(t, block[ch])
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	params := DefaultParams()
	params.FlangerIntensity = 80
	params.TremoloDepth = 30
	params.VinylNoise = 20

	p := newProc(t, params, WithBlockSize(256))
	block := stereoSine(256)

	allocs := testing.AllocsPerRun(20, func() {
		p.Process(block)
	})
	if allocs != 0 {
		t.Fatalf("Process allocated %v times per run", allocs)
	}
}

func BenchmarkProcess(b *testing.B) {
	params := DefaultParams()
	params.FlangerIntensity = 50
	params.TremoloDepth = 50
	params.VinylNoise = 10

	p, err := New(testRate, WithParams(params), WithLogger(quietLogger()))
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	block := stereoSine(512)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Process(block)
	}
}
