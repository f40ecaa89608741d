package ramp

import (
	"math"
	"testing"
)

func TestRampReachesTargetInSteps(t *testing.T) {
	r := New(0.01)
	r.Prepare(1000, true, 0)
	r.SetTarget(1, false)

	if !r.IsRamping() {
		t.Fatal("expected ramp in progress")
	}
	for i := 1; i <= 10; i++ {
		got := r.Next()
		want := float64(i) / 10
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("step %d: got %v, want %v", i, got, want)
		}
	}
	if r.IsRamping() || r.Value() != 1 {
		t.Fatalf("ramp did not settle: value=%v ramping=%v", r.Value(), r.IsRamping())
	}
	if r.Next() != 1 {
		t.Fatal("value moved after settling")
	}
}

func TestRampForceJumps(t *testing.T) {
	r := New(0.05)
	r.Prepare(48000, true, 0.2)
	if r.Value() != 0.2 {
		t.Fatalf("value = %v, want 0.2", r.Value())
	}

	r.SetTarget(0.9, true)
	if r.IsRamping() || r.Value() != 0.9 {
		t.Fatalf("forced target: value=%v ramping=%v", r.Value(), r.IsRamping())
	}
}

func TestRampRetargetMidway(t *testing.T) {
	r := New(0.004)
	r.Prepare(1000, true, 0)
	r.SetTarget(4, false)
	r.Next()
	r.Next() // value 2

	r.SetTarget(0, false)
	for i := 0; i < 4; i++ {
		r.Next()
	}
	if r.Value() != 0 {
		t.Fatalf("value = %v, want 0", r.Value())
	}
}

func TestZeroTimeRampIsImmediate(t *testing.T) {
	r := New(0)
	r.Prepare(48000, true, 0)
	r.SetTarget(3, false)
	if r.IsRamping() || r.Value() != 3 {
		t.Fatalf("zero-time ramp: value=%v ramping=%v", r.Value(), r.IsRamping())
	}
}

func TestSkip(t *testing.T) {
	r := New(0.01)
	r.Prepare(1000, true, 0)
	r.SetTarget(1, false)
	r.Skip(4)
	if math.Abs(r.Value()-0.4) > 1e-12 {
		t.Fatalf("value = %v, want 0.4", r.Value())
	}
	r.Skip(100)
	if r.Value() != 1 || r.IsRamping() {
		t.Fatalf("value = %v after overshooting skip, want 1", r.Value())
	}
}

func TestApplyGain(t *testing.T) {
	r := New(0.004)
	r.Prepare(1000, true, 0)
	r.SetTarget(1, false)

	chans := [][]float64{{1, 1, 1, 1, 1, 1}, {2, 2, 2, 2, 2, 2}}
	r.ApplyGain(chans, 6)

	want := []float64{0.25, 0.5, 0.75, 1, 1, 1}
	for i := range want {
		if math.Abs(chans[0][i]-want[i]) > 1e-12 || math.Abs(chans[1][i]-2*want[i]) > 1e-12 {
			t.Fatalf("frame %d: got %v/%v, want %v", i, chans[0][i], chans[1][i], want[i])
		}
	}

	r.SetTarget(0.5, true)
	block := [][]float64{{2, 4}}
	r.ApplyGain(block, 2)
	if block[0][0] != 1 || block[0][1] != 2 {
		t.Fatalf("steady gain = %v, want [1 2]", block[0])
	}
}

func TestFillAndApplySum(t *testing.T) {
	r := New(0.002)
	r.Prepare(1000, true, 1)
	r.SetTarget(3, false)

	dst := make([]float64, 3)
	r.Fill(dst)
	if dst[0] != 2 || dst[1] != 3 || dst[2] != 3 {
		t.Fatalf("Fill() = %v, want [2 3 3]", dst)
	}

	sum := []float64{1, 1}
	r.ApplySum(sum)
	if sum[0] != 4 || sum[1] != 4 {
		t.Fatalf("ApplySum() = %v, want [4 4]", sum)
	}
}
