package fingerprint

import (
	"math"
	"sort"

	"github.com/kuben-developer/fpmatch/internal/conf"
)

// Candidate scoring against one reference, used both as fusion input and as
// the per-feature breakdown carried in the final match result.
type scoredReference struct {
	refID   string
	scores  FeatureScores
	combined float64
}

// Combine computes the weighted-sum combined score for one feature vector,
// per spec.md §4.E. Weights are assumed to sum to 1.0 (enforced by
// conf.Validate at load time).
func Combine(weights conf.FeatureWeights, s FeatureScores) float64 {
	return weights.MFCC*s.MFCC + weights.Chroma*s.Chroma + weights.Spectral*s.Spectral + weights.Rhythm*s.Rhythm
}

// FusionResult is the outcome of ranking a candidate against every catalog
// reference: the best match (if any), its score breakdown, and the
// diagnostic confidence/gap metadata of spec.md §4.E.
type FusionResult struct {
	RefID         string
	Scores        FeatureScores
	CombinedScore float64
	SecondBest    float64
	ScoreGap      float64
	Confidence    Confidence
	Accepted      bool
}

// Fuse ranks scoredReference entries by combined score and classifies
// confidence/acceptance per spec.md §4.E. Returns false if refs is empty.
func Fuse(settings *conf.Settings, refs []scoredReference) (FusionResult, bool) {
	if len(refs) == 0 {
		return FusionResult{}, false
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].combined > refs[j].combined
	})

	best := refs[0]
	secondBest := 0.0
	if len(refs) > 1 {
		secondBest = refs[1].combined
	}
	gap := best.combined - secondBest

	confidence := ConfidenceLow
	switch {
	case gap >= settings.ConfidenceGaps.High:
		confidence = ConfidenceHigh
	case gap >= settings.ConfidenceGaps.Medium:
		confidence = ConfidenceMedium
	}

	return FusionResult{
		RefID:         best.refID,
		Scores:        best.scores,
		CombinedScore: best.combined,
		SecondBest:    secondBest,
		ScoreGap:      gap,
		Confidence:    confidence,
		Accepted:      best.combined >= settings.SimilarityThreshold,
	}, true
}

// ScoreAgainstCatalog computes per-feature similarities between a candidate
// bundle and every reference in the catalog, then fuses them into a single
// FusionResult, per spec.md §4.C-§4.E.
func ScoreAgainstCatalog(settings *conf.Settings, dtw DTWConfig, candidate *Bundle, refs []Reference) (FusionResult, bool) {
	scored := make([]scoredReference, 0, len(refs))
	for _, ref := range refs {
		scores := FeatureScores{
			MFCC:     clampScore(dtw.Similarity(candidate.MFCC, ref.Bundle.MFCC, settings.Scale.MFCC)),
			Chroma:   clampScore(dtw.Similarity(candidate.Chroma, ref.Bundle.Chroma, settings.Scale.Chroma)),
			Spectral: clampScore(dtw.Similarity(candidate.SpectralContrast, ref.Bundle.SpectralContrast, settings.Scale.Spectral)),
			Rhythm:   clampScore(RhythmSimilarity(candidate.Tempo, ref.Bundle.Tempo)),
		}
		combined := clampScore(Combine(settings.FeatureWeights, scores))
		scored = append(scored, scoredReference{refID: ref.RefID, scores: scores, combined: combined})
	}
	return Fuse(settings, scored)
}

// clampScore keeps a fused score within [0, 100], guarding against floating
// point drift from the exponential decay conversions.
func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
