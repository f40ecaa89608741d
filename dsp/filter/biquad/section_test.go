package biquad

import (
	"math"
	"math/cmplx"
	"testing"
)

const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNewSection(t *testing.T) {
	c := Coefficients{B0: 1, B1: 2, B2: 3, A1: 4, A2: 5}
	s := NewSection(c)
	if s.Coefficients != c {
		t.Fatalf("coefficients mismatch: got %v, want %v", s.Coefficients, c)
	}
	if st := s.State(); st != [2]float64{0, 0} {
		t.Fatalf("initial state not zero: %v", st)
	}
}

func TestProcessSample_DFIIT(t *testing.T) {
	// Hand-traced with x = [1, 0, 0, 0]:
	// n=0: y=0.25, d0=0.55, d1=0.24
	// n=1: y=0.55, d0=0.35, d1=-0.022
	// n=2: y=0.35, d0=0.048, d1=-0.014
	// n=3: y=0.048
	c := Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
	s := NewSection(c)

	want := []float64{0.25, 0.55, 0.35, 0.048}
	for i, w := range want {
		var x float64
		if i == 0 {
			x = 1
		}
		if y := s.ProcessSample(x); !almostEqual(y, w, eps) {
			t.Fatalf("n=%d: got %v, want %v", i, y, w)
		}
	}
}

func TestProcessBlockMatchesSample(t *testing.T) {
	c := Coefficients{B0: 0.3, B1: -0.1, B2: 0.2, A1: -0.5, A2: 0.1}
	a := NewSection(c)
	b := NewSection(c)

	buf := make([]float64, 37)
	for i := range buf {
		buf[i] = math.Sin(float64(i) * 0.3)
	}

	want := make([]float64, len(buf))
	for i, x := range buf {
		want[i] = a.ProcessSample(x)
	}
	b.ProcessBlock(buf)

	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("sample %d: block %v, sample %v", i, buf[i], want[i])
		}
	}
	if a.State() != b.State() {
		t.Fatalf("state mismatch: %v vs %v", a.State(), b.State())
	}
}

func TestReset(t *testing.T) {
	s := NewSection(Coefficients{B0: 1, B1: 1, B2: 1})
	s.ProcessSample(1)
	s.Reset()
	if s.State() != [2]float64{} {
		t.Fatalf("state after reset = %v", s.State())
	}
}

func TestMagnitudeSquaredMatchesResponse(t *testing.T) {
	c := Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
	sr := 48000.0

	for _, freq := range []float64{100, 500, 1000, 5000, 10000, 20000} {
		h := c.Response(freq, sr)
		fromResponse := real(h)*real(h) + imag(h)*imag(h)
		if got := c.MagnitudeSquared(freq, sr); !almostEqual(got, fromResponse, 1e-10) {
			t.Errorf("freq=%v: MagnitudeSquared=%.15f, |Response|^2=%.15f", freq, got, fromResponse)
		}
		if db := c.MagnitudeDB(freq, sr); !almostEqual(db, 10*math.Log10(fromResponse), 1e-9) {
			t.Errorf("freq=%v: MagnitudeDB=%v", freq, db)
		}
	}

	if mag := cmplx.Abs((&Coefficients{B0: 1}).Response(1234, sr)); !almostEqual(mag, 1, eps) {
		t.Fatalf("passthrough |H| = %v", mag)
	}
}
