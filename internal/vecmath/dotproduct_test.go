package vecmath

import (
	"math"
	"testing"
)

func dotProductRef(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func TestDotProduct(t *testing.T) {
	cases := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{name: "empty", a: nil, b: nil, want: 0},
		{name: "one empty", a: []float64{1, 2}, b: nil, want: 0},
		{name: "single", a: []float64{3.5}, b: []float64{2.0}, want: 7.0},
		{name: "mixed signs", a: []float64{-1, 2, -3}, b: []float64{4, -5, 6}, want: -32},
		{name: "different lengths", a: []float64{1, 2, 3, 4}, b: []float64{2, 3}, want: 8},
		{name: "simple dot", a: []float64{1, 2, 3}, b: []float64{4, 5, 6}, want: 32},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DotProduct(tc.a, tc.b); got != tc.want {
				t.Fatalf("DotProduct() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDotProductAccMatchesSequentialSum(t *testing.T) {
	for _, n := range []int{1, 3, 7, 16, 33, 100} {
		a := make([]float64, n)
		b := make([]float64, n)
		for i := range a {
			a[i] = math.Sin(float64(i)*0.37) * 1e3
			b[i] = math.Cos(float64(i)*0.11) * 1e-3
		}

		got := DotProductAcc(0.25, a, b)
		want := 0.25
		for i := range a {
			want += a[i] * b[i]
		}
		if got != want {
			t.Fatalf("n=%d: DotProductAcc() = %v, want bit-exact %v", n, got, want)
		}
		if ref := dotProductRef(a, b); DotProduct(a, b) != ref {
			t.Fatalf("n=%d: DotProduct() = %v, want %v", n, DotProduct(a, b), ref)
		}
	}
}

func TestMatVecAcc(t *testing.T) {
	m := []float64{
		1, 2, 3,
		4, 5, 6,
	}
	x := []float64{1, 0, -1}
	dst := []float64{10, 20}

	MatVecAcc(dst, m, x, 3)

	if dst[0] != 8 || dst[1] != 18 {
		t.Fatalf("MatVecAcc() = %v, want [8 18]", dst)
	}
}

func BenchmarkMatVecAcc(b *testing.B) {
	const rows, cols = 40, 40
	m := make([]float64, rows*cols)
	x := make([]float64, cols)
	dst := make([]float64, rows)
	for i := range m {
		m[i] = float64(i%7) * 0.1
	}
	for i := range x {
		x[i] = float64(i) * 0.01
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MatVecAcc(dst, m, x, cols)
	}
}
