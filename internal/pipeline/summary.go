package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kuben-developer/fpmatch/internal/errors"
	"github.com/kuben-developer/fpmatch/internal/fingerprint"
)

// Summary is the results.json artifact of spec.md §6: run totals, a
// confidence breakdown, average per-feature scores among accepted matches,
// and the accepted/rejected/error result lists themselves.
type Summary struct {
	TotalProcessed     int                 `json:"total_processed"`
	Accepted           int                 `json:"accepted"`
	Rejected           int                 `json:"rejected"`
	Errored            int                 `json:"errored"`
	SinkUpdateFailed   int                 `json:"sink_update_failed"`
	ConfidenceCounts   map[string]int      `json:"confidence_counts"`
	AverageAccepted    fingerprint.FeatureScores `json:"average_accepted_scores"`
	AcceptedResults    []MatchResult       `json:"accepted_results"`
	RejectedResults    []MatchResult       `json:"rejected_results"`
	ErroredResults     []MatchResult       `json:"errored_results"`
}

// Summarize aggregates a completed run's results into a Summary.
func Summarize(results []MatchResult) Summary {
	s := Summary{
		ConfidenceCounts: map[string]int{
			string(fingerprint.ConfidenceHigh):   0,
			string(fingerprint.ConfidenceMedium): 0,
			string(fingerprint.ConfidenceLow):     0,
		},
	}

	var sumScores fingerprint.FeatureScores
	for _, r := range results {
		s.TotalProcessed++

		if r.IsError() {
			s.Errored++
			s.ErroredResults = append(s.ErroredResults, r)
			continue
		}

		if r.SinkFailed {
			s.SinkUpdateFailed++
		}

		s.ConfidenceCounts[string(r.Confidence)]++

		if r.Accepted {
			s.Accepted++
			s.AcceptedResults = append(s.AcceptedResults, r)
			sumScores.MFCC += r.PerFeature.MFCC
			sumScores.Chroma += r.PerFeature.Chroma
			sumScores.Spectral += r.PerFeature.Spectral
			sumScores.Rhythm += r.PerFeature.Rhythm
		} else {
			s.Rejected++
			s.RejectedResults = append(s.RejectedResults, r)
		}
	}

	if s.Accepted > 0 {
		n := float64(s.Accepted)
		s.AverageAccepted = fingerprint.FeatureScores{
			MFCC:     sumScores.MFCC / n,
			Chroma:   sumScores.Chroma / n,
			Spectral: sumScores.Spectral / n,
			Rhythm:   sumScores.Rhythm / n,
		}
	}

	return s
}

// WriteSummary aggregates results and atomically writes them to path as
// results.json, matching checkpoint.go's write-then-rename discipline.
func WriteSummary(path string, results []MatchResult) error {
	summary := Summarize(results)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.New(err).Component("pipeline.summary").Category(errors.CategoryValidation).Build()
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).Component("pipeline.summary").Category(errors.CategoryFileIO).Build()
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.New(err).Component("pipeline.summary").Category(errors.CategoryFileIO).Build()
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.New(err).Component("pipeline.summary").Category(errors.CategoryFileIO).Build()
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.New(err).Component("pipeline.summary").Category(errors.CategoryFileIO).Build()
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.New(err).Component("pipeline.summary").Category(errors.CategoryFileIO).Build()
	}

	return nil
}
