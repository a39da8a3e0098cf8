package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuben-developer/fpmatch/internal/conf"
)

func testSettings() *conf.Settings {
	return &conf.Settings{
		FeatureWeights: conf.FeatureWeights{MFCC: 0.20, Chroma: 0.45, Spectral: 0.20, Rhythm: 0.15},
		Scale:          conf.FeatureScales{MFCC: 0.24, Chroma: 1.52, Spectral: 0.73},
		SimilarityThreshold: 80.0,
		ConfidenceGaps:      conf.ConfidenceGaps{High: 15.0, Medium: 10.0},
		MaxFrames:           300,
		MaxCells:            90000,
		SakoeChibaBand:      20,
	}
}

func TestCombineIsWeightedSum(t *testing.T) {
	weights := conf.FeatureWeights{MFCC: 0.20, Chroma: 0.45, Spectral: 0.20, Rhythm: 0.15}
	scores := FeatureScores{MFCC: 100, Chroma: 100, Spectral: 100, Rhythm: 100}

	assert.InDelta(t, 100.0, Combine(weights, scores), 1e-9)

	scores = FeatureScores{MFCC: 0, Chroma: 0, Spectral: 0, Rhythm: 0}
	assert.InDelta(t, 0.0, Combine(weights, scores), 1e-9)
}

func TestFuseEmptyReturnsFalse(t *testing.T) {
	_, ok := Fuse(testSettings(), nil)
	assert.False(t, ok)
}

func TestFuseRanksByCombinedScoreAndClassifiesConfidence(t *testing.T) {
	refs := []scoredReference{
		{refID: "low", combined: 50},
		{refID: "best", combined: 95},
		{refID: "second", combined: 70},
	}

	result, ok := Fuse(testSettings(), refs)

	require.True(t, ok)
	assert.Equal(t, "best", result.RefID)
	assert.InDelta(t, 95.0, result.CombinedScore, 1e-9)
	assert.InDelta(t, 70.0, result.SecondBest, 1e-9)
	assert.InDelta(t, 25.0, result.ScoreGap, 1e-9)
	assert.Equal(t, ConfidenceHigh, result.Confidence)
	assert.True(t, result.Accepted)
}

func TestFuseRejectsBelowThreshold(t *testing.T) {
	refs := []scoredReference{
		{refID: "a", combined: 60},
		{refID: "b", combined: 40},
	}

	result, ok := Fuse(testSettings(), refs)

	require.True(t, ok)
	assert.False(t, result.Accepted)
}

func TestFuseLowConfidenceWhenGapIsSmall(t *testing.T) {
	refs := []scoredReference{
		{refID: "a", combined: 85},
		{refID: "b", combined: 84},
	}

	result, ok := Fuse(testSettings(), refs)

	require.True(t, ok)
	assert.Equal(t, ConfidenceLow, result.Confidence)
}

func TestScoreAgainstCatalogPrefersSelfOverUnrelatedReference(t *testing.T) {
	settings := testSettings()
	dtw := DTWConfig{MaxFrames: settings.MaxFrames, MaxCells: settings.MaxCells, SakoeChibaBand: settings.SakoeChibaBand}

	candidate := &Bundle{
		MFCC:             makeMatrix(20, 40, func(i, j int) float32 { return float32(i+j) * 0.05 }),
		Chroma:           makeMatrix(12, 40, func(i, j int) float32 { return float32(i*j) * 0.01 }),
		SpectralContrast: makeMatrix(7, 40, func(i, j int) float32 { return float32(i) * 0.1 }),
		Tempo:            120,
	}

	matching := &Bundle{
		MFCC:             candidate.MFCC,
		Chroma:           candidate.Chroma,
		SpectralContrast: candidate.SpectralContrast,
		Tempo:            120,
	}
	unrelated := &Bundle{
		MFCC:             makeMatrix(20, 40, func(i, j int) float32 { return float32(j) * 5 }),
		Chroma:           makeMatrix(12, 40, func(i, j int) float32 { return float32(i) * 3 }),
		SpectralContrast: makeMatrix(7, 40, func(i, j int) float32 { return float32(j) * 4 }),
		Tempo:            200,
	}

	refs := []Reference{
		{RefID: "matching", Bundle: matching},
		{RefID: "unrelated", Bundle: unrelated},
	}

	result, ok := ScoreAgainstCatalog(settings, dtw, candidate, refs)

	require.True(t, ok)
	assert.Equal(t, "matching", result.RefID)
}
