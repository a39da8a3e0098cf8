package fingerprint

import (
	"math"

	"github.com/kuben-developer/fpmatch/internal/dsp"
	"github.com/kuben-developer/fpmatch/internal/errors"
)

// ExtractConfig carries the extractor's tunables, threaded as a value per
// spec.md §9 rather than a package-level singleton.
type ExtractConfig struct {
	SampleRate      int
	NMFCC           int
	NChroma         int
	NSpectralBands  int
}

const (
	frameSize = 2048
	hopSize   = 512
)

// Extract derives the four-feature bundle from a mono PCM head, per
// spec.md §4.B. Any failure inside extraction fails the whole bundle
// (FEATURE_FAILED) rather than emitting a partial one.
func Extract(cfg ExtractConfig, pcm PCM) (*Bundle, error) {
	if len(pcm.Samples) == 0 {
		return nil, errors.Newf("cannot extract features from empty PCM buffer").
			Component("fingerprint").Category(errors.CategoryFeature).Build()
	}

	samples := make([]float64, len(pcm.Samples))
	for i, s := range pcm.Samples {
		samples[i] = float64(s)
	}

	win := dsp.HannWindow(frameSize)
	frames := dsp.Frames(samples, frameSize, hopSize, win)
	if len(frames) == 0 {
		return nil, errors.Newf("audio head too short for a single analysis frame").
			Component("fingerprint").Category(errors.CategoryFeature).Build()
	}

	powerSpectra := make([][]float64, len(frames))
	for i, f := range frames {
		powerSpectra[i] = dsp.PowerSpectrum(f)
	}

	mfcc := computeMFCC(cfg, powerSpectra)
	chroma := computeChroma(cfg, powerSpectra)
	spectral := computeSpectralContrast(cfg, powerSpectra)

	tempo, beats := estimateTempo(samples, pcm.SampleRate)

	bundle := &Bundle{
		MFCC:             dsp.ToFloat32Matrix(mfcc),
		Chroma:           dsp.ToFloat32Matrix(chroma),
		SpectralContrast: dsp.ToFloat32Matrix(spectral),
		Tempo:            tempo,
		BeatFrames:       beats,
	}

	if !bundle.Valid() {
		return nil, errors.Newf("feature bundle has an empty or invalid matrix").
			Component("fingerprint").Category(errors.CategoryFeature).Build()
	}

	return bundle, nil
}

// computeMFCC projects each frame's power spectrum through a mel filterbank,
// takes the log, and applies a DCT-II to produce NMFCC coefficients per
// frame, then row-normalizes across time (spec.md §4.B).
func computeMFCC(cfg ExtractConfig, powerSpectra [][]float64) [][]float64 {
	filterbank := dsp.MelFilterbank(26, frameSize, cfg.SampleRate)
	out := make([][]float64, cfg.NMFCC)
	for i := range out {
		out[i] = make([]float64, len(powerSpectra))
	}

	for t, power := range powerSpectra {
		melEnergies := dsp.ApplyFilterbank(power, filterbank)
		logMel := make([]float64, len(melEnergies))
		for i, e := range melEnergies {
			logMel[i] = math.Log(e + 1e-10)
		}
		coeffs := dsp.DCT2(logMel, cfg.NMFCC)
		for i := 0; i < cfg.NMFCC; i++ {
			out[i][t] = coeffs[i]
		}
	}

	dsp.L2NormalizeRows(out)
	return out
}

// computeChroma buckets FFT bins into the 12 chromatic pitch classes
// (A4=440Hz reference) to build a constant-Q-flavored chroma (spec.md §4.B).
func computeChroma(cfg ExtractConfig, powerSpectra [][]float64) [][]float64 {
	out := make([][]float64, cfg.NChroma)
	for i := range out {
		out[i] = make([]float64, len(powerSpectra))
	}

	nBins := frameSize/2 + 1
	binToClass := make([]int, nBins)
	for k := 1; k < nBins; k++ {
		freq := float64(k) * float64(cfg.SampleRate) / float64(frameSize)
		if freq < 20 {
			binToClass[k] = -1
			continue
		}
		midi := 69 + 12*math.Log2(freq/440.0)
		class := int(math.Mod(midi, 12))
		if class < 0 {
			class += 12
		}
		binToClass[k] = class
	}

	for t, power := range powerSpectra {
		for k, cls := range binToClass {
			if cls < 0 {
				continue
			}
			out[cls][t] += power[k]
		}
	}

	dsp.L2NormalizeRows(out)
	return out
}

// computeSpectralContrast splits each frame's spectrum into NSpectralBands
// equal-width (linearly spaced) sub-bands and measures the log ratio of peak to valley energy
// in each, a lightweight analogue of the "texture" features the matched
// source pipeline derives (spec.md §4.B).
func computeSpectralContrast(cfg ExtractConfig, powerSpectra [][]float64) [][]float64 {
	nBins := frameSize/2 + 1
	nBands := cfg.NSpectralBands
	edges := make([]int, nBands+1)
	for i := range edges {
		frac := float64(i) / float64(nBands)
		edges[i] = int(frac * float64(nBins))
	}
	edges[nBands] = nBins

	out := make([][]float64, nBands)
	for i := range out {
		out[i] = make([]float64, len(powerSpectra))
	}

	for t, power := range powerSpectra {
		for b := 0; b < nBands; b++ {
			lo, hi := edges[b], edges[b+1]
			if hi <= lo {
				continue
			}
			peak, valley := power[lo], power[lo]
			for k := lo; k < hi; k++ {
				if power[k] > peak {
					peak = power[k]
				}
				if power[k] < valley {
					valley = power[k]
				}
			}
			out[b][t] = math.Log(peak+1e-10) - math.Log(valley+1e-10)
		}
	}

	dsp.L2NormalizeRows(out)
	return out
}

// estimateTempo runs a coarse onset-strength autocorrelation beat tracker.
// Returns (0, nil) when estimation fails, per spec.md §3's "0 denotes
// detection failed" contract — this is not itself an extraction failure.
func estimateTempo(samples []float64, sampleRate int) (float64, []int) {
	if sampleRate <= 0 || len(samples) < frameSize*2 {
		return 0, nil
	}

	win := dsp.HannWindow(frameSize)
	frames := dsp.Frames(samples, frameSize, hopSize, win)
	if len(frames) < 4 {
		return 0, nil
	}

	onset := make([]float64, len(frames))
	prevEnergy := 0.0
	for i, f := range frames {
		var energy float64
		for _, v := range f {
			energy += v * v
		}
		diff := energy - prevEnergy
		if diff > 0 {
			onset[i] = diff
		}
		prevEnergy = energy
	}

	framesPerSec := float64(sampleRate) / float64(hopSize)
	minLag := int(framesPerSec * 60.0 / 220.0) // 220 BPM upper bound
	maxLag := int(framesPerSec * 60.0 / 40.0)  // 40 BPM lower bound
	if maxLag >= len(onset) {
		maxLag = len(onset) - 1
	}
	if minLag < 1 {
		minLag = 1
	}
	if minLag >= maxLag {
		return 0, nil
	}

	bestLag := -1
	bestScore := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var score float64
		for i := 0; i+lag < len(onset); i++ {
			score += onset[i] * onset[i+lag]
		}
		if score > bestScore {
			bestScore, bestLag = score, lag
		}
	}

	if bestLag <= 0 || bestScore == 0 {
		return 0, nil
	}

	bpm := 60.0 * framesPerSec / float64(bestLag)

	var beats []int
	for i := bestLag; i < len(onset); i += bestLag {
		beats = append(beats, i)
	}

	return bpm, beats
}
