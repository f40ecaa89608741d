package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// CopyInto copies src into dst and returns the number of copied elements.
func CopyInto(dst, src []float64) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	copy(dst[:n], src[:n])
	return n
}

// NewChannels allocates a planar multi-channel buffer backed by one contiguous array.
func NewChannels(channels, frames int) [][]float64 {
	if channels <= 0 {
		return nil
	}
	if frames < 0 {
		frames = 0
	}

	backing := make([]float64, channels*frames)
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = backing[ch*frames : (ch+1)*frames : (ch+1)*frames]
	}
	return out
}

// ZeroChannels clears every channel of a planar buffer.
func ZeroChannels(bufs [][]float64) {
	for _, b := range bufs {
		Zero(b)
	}
}

// CopyChannels copies channel-by-channel, up to the shorter channel count and length.
func CopyChannels(dst, src [][]float64) {
	n := min(len(dst), len(src))
	for ch := 0; ch < n; ch++ {
		CopyInto(dst[ch], src[ch])
	}
}

// Frames returns the shortest channel length of a planar buffer, or 0 if empty.
func Frames(bufs [][]float64) int {
	if len(bufs) == 0 {
		return 0
	}
	n := len(bufs[0])
	for _, b := range bufs[1:] {
		if len(b) < n {
			n = len(b)
		}
	}
	return n
}
