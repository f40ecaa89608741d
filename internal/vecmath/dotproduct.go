// Package vecmath holds the small scalar kernels used by the recurrent
// network hot loop. Accumulation order is strictly ascending so results are
// bit-for-bit reproducible across platforms.
package vecmath

// DotProduct returns sum(a[i] * b[i]) over the shorter of the two slices.
func DotProduct(a, b []float64) float64 {
	return DotProductAcc(0, a, b)
}

// DotProductAcc adds a[i]*b[i] to acc one term at a time, for i ascending.
// Only the minimum length of the two slices is used.
func DotProductAcc(acc float64, a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return acc
	}

	a = a[:n]
	b = b[:n]

	for i := range a {
		acc += a[i] * b[i]
	}

	return acc
}

// MatVecAcc computes dst[i] += sum_j m[i*cols+j] * x[j] for every row i.
// m is row-major with len(dst) rows and cols columns; x must hold at least cols values.
func MatVecAcc(dst, m, x []float64, cols int) {
	x = x[:cols]
	for i := range dst {
		row := m[i*cols : (i+1)*cols]
		dst[i] = DotProductAcc(dst[i], row, x)
	}
}
