// Package fingerprint implements the audio-fingerprint matching core:
// media loading, feature extraction, DTW scoring, rhythm scoring, and
// fusion/confidence, per spec.md §4 (A-E) and §6 (catalog loader).
package fingerprint

import "time"

// PCM is a finite, mono, single-precision sample buffer at a fixed sample
// rate, per spec.md §3. Callers must not construct a PCM with NaN/Inf
// samples or zero length; loader.go enforces this at the decode boundary.
type PCM struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback duration of the buffer.
func (p PCM) Duration() time.Duration {
	if p.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(len(p.Samples)) / float64(p.SampleRate) * float64(time.Second))
}

// FeatureKind identifies one of the four scored features (§4.C/D).
type FeatureKind string

const (
	FeatureMFCC     FeatureKind = "mfcc"
	FeatureChroma   FeatureKind = "chroma"
	FeatureSpectral FeatureKind = "spectral"
	FeatureRhythm   FeatureKind = "rhythm"
)

// Matrix is a D×T feature matrix: one row per feature dimension, one column
// per time frame. Rows are stored independently so DTW and normalization
// can operate per-dimension without reshaping.
type Matrix [][]float32

// Cols returns the number of time frames (columns), or 0 for an empty matrix.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Rows returns the number of feature dimensions (rows).
func (m Matrix) Rows() int {
	return len(m)
}

// Valid reports whether m has at least one column and contains no NaN/Inf,
// per spec.md §3's bundle invariant.
func (m Matrix) Valid() bool {
	if m.Cols() == 0 {
		return false
	}
	for _, row := range m {
		for _, v := range row {
			if v != v || v > maxFinite32 || v < -maxFinite32 {
				return false
			}
		}
	}
	return true
}

const maxFinite32 = 3.4028235e38

// Bundle is the set of feature artifacts extracted from one audio head,
// per spec.md §3.
type Bundle struct {
	MFCC              Matrix
	Chroma            Matrix
	SpectralContrast  Matrix
	Tempo             float64
	BeatFrames        []int
}

// Valid reports whether every required matrix satisfies spec.md §3's
// bundle invariant (a bundle with any empty matrix is discarded entirely).
func (b *Bundle) Valid() bool {
	return b.MFCC.Valid() && b.Chroma.Valid() && b.SpectralContrast.Valid()
}

// Reference is one catalog entry: a known audio track with a stable
// identifier, its precomputed feature bundle, and its duration.
type Reference struct {
	RefID      string
	SourcePath string
	Bundle     *Bundle
	Duration   time.Duration
}

// FeatureScores is the per-feature similarity breakdown of one scored pair.
type FeatureScores struct {
	MFCC     float64 `json:"mfcc"`
	Chroma   float64 `json:"chroma"`
	Spectral float64 `json:"spectral"`
	Rhythm   float64 `json:"rhythm"`
}

// Confidence classifies how decisive a candidate's top match is, based on
// score gap to the runner-up (§4.E).
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)
