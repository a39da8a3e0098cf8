package dsp

import "math"

// HannWindow returns a length-n Hann window.
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// Frames splits samples into overlapping windows of the given size and hop,
// applying win element-wise to each frame. Trailing samples that don't fill
// a full frame are dropped.
func Frames(samples []float64, frameSize, hop int, win []float64) [][]float64 {
	if frameSize <= 0 || hop <= 0 || len(samples) < frameSize {
		return nil
	}
	var frames [][]float64
	for start := 0; start+frameSize <= len(samples); start += hop {
		frame := make([]float64, frameSize)
		for i := 0; i < frameSize; i++ {
			frame[i] = samples[start+i] * win[i]
		}
		frames = append(frames, frame)
	}
	return frames
}
