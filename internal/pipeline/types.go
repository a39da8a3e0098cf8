// Package pipeline implements the backlog pipeline of spec.md §4.F: it
// drives bounded-parallel fingerprint matching over the unmatched-candidate
// backlog, with checkpointed resume, per-item fault isolation, and
// immediate sink updates on accepted matches.
package pipeline

import (
	"github.com/kuben-developer/fpmatch/internal/fingerprint"
)

// MatchResult is produced exactly once per candidate processed in a run,
// per spec.md §3.
type MatchResult struct {
	CandidateID   string                  `json:"candidate_id"`
	RefID         string                  `json:"ref_id,omitempty"`
	CombinedScore float64                 `json:"combined_score"`
	PerFeature    fingerprint.FeatureScores `json:"per_feature_scores"`
	SecondBest    float64                 `json:"second_best"`
	ScoreGap      float64                 `json:"score_gap"`
	Confidence    fingerprint.Confidence  `json:"confidence,omitempty"`
	Accepted      bool                    `json:"accepted"`
	Error         string                  `json:"error,omitempty"`
	ErrorCategory string                  `json:"error_category,omitempty"`
	SinkFailed    bool                    `json:"sink_failed,omitempty"`
}

// IsError reports whether the candidate could not be scored at all.
func (r MatchResult) IsError() bool {
	return r.Error != ""
}
