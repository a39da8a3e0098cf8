// Package dsp provides the small set of signal-processing primitives the
// feature extractor needs: an FFT, a window function, a mel filterbank, and
// a DCT. None of the seven retrieved example repositories (nor
// other_examples/) import an FFT or general DSP library — birdnet-go shells
// out to a TensorFlow-Lite model and an external ffmpeg binary rather than
// doing its own spectral analysis in Go, and the pack repos that do perform
// frequency-domain analysis in Go hand-roll their FFT. This package is therefore built on
// math/cmplx rather than a third-party dependency; see DESIGN.md for the
// per-function grounding notes.
package dsp

import "math/cmplx"

// FFT computes the discrete Fourier transform of x in place using an
// iterative radix-2 Cooley-Tukey algorithm. len(x) must be a power of two.
func FFT(x []complex128) {
	n := len(x)
	if n <= 1 {
		return
	}
	bitReverse(x)
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		angle := -2 * 3.141592653589793 / float64(size)
		wSize := cmplx.Exp(complex(0, angle))
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for i := 0; i < half; i++ {
				a := x[start+i]
				b := x[start+i+half] * w
				x[start+i] = a + b
				x[start+i+half] = a - b
				w *= wSize
			}
		}
	}
}

func bitReverse(x []complex128) {
	n := len(x)
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// PowerSpectrum returns |FFT(frame)|^2 for the first n/2+1 bins (real-input
// symmetry), padding frame to the next power of two first.
func PowerSpectrum(frame []float64) []float64 {
	n := NextPowerOfTwo(len(frame))
	buf := make([]complex128, n)
	for i, v := range frame {
		buf[i] = complex(v, 0)
	}
	FFT(buf)
	out := make([]float64, n/2+1)
	for i := range out {
		out[i] = real(buf[i])*real(buf[i]) + imag(buf[i])*imag(buf[i])
	}
	return out
}
