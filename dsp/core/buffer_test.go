package core

import "testing"

func TestEnsureLenReuse(t *testing.T) {
	buf := make([]float64, 4, 8)

	out := EnsureLen(buf, 6)
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}

	if cap(out) != cap(buf) {
		t.Fatalf("cap = %d, want %d", cap(out), cap(buf))
	}
}

func TestCopyInto(t *testing.T) {
	dst := make([]float64, 2)

	n := CopyInto(dst, []float64{1, 2, 3})
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}

	if dst[0] != 1 || dst[1] != 2 {
		t.Fatalf("unexpected dst: %#v", dst)
	}
}

func TestZero(t *testing.T) {
	buf := []float64{1, 2, 3}
	Zero(buf)

	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, v)
		}
	}
}

func TestNewChannelsContiguous(t *testing.T) {
	bufs := NewChannels(3, 4)
	if len(bufs) != 3 || Frames(bufs) != 4 {
		t.Fatalf("shape = %dx%d, want 3x4", len(bufs), Frames(bufs))
	}

	// Appending to one channel must not clobber its neighbour.
	bufs[0] = append(bufs[0], 9)
	if bufs[1][0] != 0 {
		t.Fatalf("channel 1 clobbered: %v", bufs[1])
	}

	if NewChannels(0, 4) != nil {
		t.Fatal("expected nil for zero channels")
	}
}

func TestFramesUsesShortest(t *testing.T) {
	bufs := [][]float64{make([]float64, 5), make([]float64, 3)}
	if got := Frames(bufs); got != 3 {
		t.Fatalf("Frames() = %d, want 3", got)
	}
	if got := Frames(nil); got != 0 {
		t.Fatalf("Frames(nil) = %d, want 0", got)
	}
}

func TestCopyChannels(t *testing.T) {
	src := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	dst := NewChannels(2, 2)
	CopyChannels(dst, src)
	if dst[0][1] != 2 || dst[1][0] != 3 {
		t.Fatalf("unexpected dst: %v", dst)
	}
}
