package dsp

import "math"

// HzToMel converts a frequency in Hz to the mel scale using the HTK formula
// 2595·log10(1 + hz/700).
func HzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

// MelToHz is the inverse of HzToMel.
func MelToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// MelFilterbank builds nFilters triangular filters spanning [0, sampleRate/2]
// over the nFFT/2+1 power-spectrum bins.
func MelFilterbank(nFilters, nFFT, sampleRate int) [][]float64 {
	nBins := nFFT/2 + 1
	lowMel := HzToMel(0)
	highMel := HzToMel(float64(sampleRate) / 2)

	points := make([]float64, nFilters+2)
	for i := range points {
		points[i] = lowMel + float64(i)*(highMel-lowMel)/float64(nFilters+1)
	}

	binFreqs := make([]int, nFilters+2)
	for i, m := range points {
		hz := MelToHz(m)
		bin := int(math.Floor((float64(nFFT) + 1) * hz / float64(sampleRate)))
		if bin >= nBins {
			bin = nBins - 1
		}
		binFreqs[i] = bin
	}

	filters := make([][]float64, nFilters)
	for m := 0; m < nFilters; m++ {
		filter := make([]float64, nBins)
		left, center, right := binFreqs[m], binFreqs[m+1], binFreqs[m+2]
		for k := left; k < center; k++ {
			if center != left {
				filter[k] = float64(k-left) / float64(center-left)
			}
		}
		for k := center; k < right; k++ {
			if right != center {
				filter[k] = float64(right-k) / float64(right-center)
			}
		}
		filters[m] = filter
	}
	return filters
}

// ApplyFilterbank projects a power spectrum through the filterbank.
func ApplyFilterbank(power []float64, filters [][]float64) []float64 {
	out := make([]float64, len(filters))
	for i, f := range filters {
		var sum float64
		n := len(f)
		if len(power) < n {
			n = len(power)
		}
		for k := 0; k < n; k++ {
			sum += power[k] * f[k]
		}
		out[i] = sum
	}
	return out
}

// DCT2 computes the first nCoeffs coefficients of the type-II discrete
// cosine transform of x (used to turn log-mel energies into MFCCs).
func DCT2(x []float64, nCoeffs int) []float64 {
	n := len(x)
	out := make([]float64, nCoeffs)
	for k := 0; k < nCoeffs; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += x[i] * math.Cos(math.Pi/float64(n)*(float64(i)+0.5)*float64(k))
		}
		out[k] = sum
	}
	return out
}
