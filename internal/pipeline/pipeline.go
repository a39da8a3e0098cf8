package pipeline

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/kuben-developer/fpmatch/internal/conf"
	"github.com/kuben-developer/fpmatch/internal/errors"
	"github.com/kuben-developer/fpmatch/internal/fingerprint"
	"github.com/kuben-developer/fpmatch/internal/logging"
	"github.com/kuben-developer/fpmatch/internal/store"
)

const checkpointFileName = "checkpoint.json"
const resultsFileName = "results.json"

// Driver runs one end-to-end backlog pass: load the catalog once, fetch the
// unmatched backlog, then fan candidates out across a bounded worker pool,
// per spec.md §4.F.
type Driver struct {
	settings *conf.Settings
	sink     store.Store
	checkpointPath string
	resultsPath    string
}

// New constructs a Driver against the given settings and store client.
func New(settings *conf.Settings, sink store.Store) *Driver {
	return &Driver{
		settings:       settings,
		sink:           sink,
		checkpointPath: filepath.Join(settings.OutputDir, checkpointFileName),
		resultsPath:    filepath.Join(settings.OutputDir, resultsFileName),
	}
}

// task is one unit of worker-pool input.
type task struct {
	candidate store.Candidate
}

// Run executes the full backlog pass. It returns when the backlog is
// exhausted or ctx is cancelled. On cancellation it stops dispatching new
// work; tasks already running see the cancelled context, and results that
// come back as errors after cancellation are not recorded, so the next run
// retries those candidates. Only the driver writes checkpoint state, and
// everything recorded is checkpointed before Run returns.
func (d *Driver) Run(ctx context.Context) error {
	cp, err := LoadCheckpoint(d.checkpointPath)
	if err != nil {
		return err
	}

	refs, err := fingerprint.LoadCatalog(ctx, d.settings.ReferenceDir, fingerprint.CatalogConfig{
		SampleRate:  d.settings.SampleRate,
		HeadSeconds: d.settings.HeadSeconds,
		FFmpegPath:  d.settings.FFmpegPath,
		Extract: fingerprint.ExtractConfig{
			SampleRate:     d.settings.SampleRate,
			NMFCC:          d.settings.NMFCC,
			NChroma:        d.settings.NChroma,
			NSpectralBands: d.settings.NSpectralBands,
		},
	})
	if err != nil {
		return err
	}
	logging.Info("catalog loaded", "reference_count", len(refs))

	candidates, err := d.sink.ListUnmatchedCandidates(ctx)
	if err != nil {
		return err
	}

	pending := make([]store.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !cp.Processed(c.ID) {
			pending = append(pending, c)
		}
	}
	logging.Info("backlog fetched", "total", len(candidates), "pending", len(pending), "already_processed", len(candidates)-len(pending))

	workers := conf.EffectiveMaxWorkers(d.settings)
	tasks := make(chan task)
	completed := make(chan MatchResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go d.worker(ctx, &wg, refs, tasks, completed)
	}

	go func() {
		defer close(tasks)
		for _, c := range pending {
			select {
			case tasks <- task{candidate: c}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(completed)
	}()

	sinceCheckpoint := 0
	for result := range completed {
		if ctx.Err() != nil && result.IsError() {
			// Cut short by cancellation: left unrecorded so the next run retries it.
			continue
		}
		cp.Record(result)
		sinceCheckpoint++

		if result.IsError() {
			logging.Warn("candidate failed", "candidate_id", result.CandidateID, "error", result.Error, "category", result.ErrorCategory)
		} else {
			logging.Info("candidate scored", "candidate_id", result.CandidateID, "accepted", result.Accepted,
				"ref_id", result.RefID, "combined_score", result.CombinedScore, "confidence", result.Confidence)
		}

		if cp.Count()%10 == 0 {
			logging.Info("progress", "processed", cp.Count(), "pending", len(pending))
		}

		if sinceCheckpoint >= d.settings.CheckpointInterval {
			if err := cp.Persist(); err != nil {
				logging.Error("checkpoint persist failed", "error", err.Error())
			}
			sinceCheckpoint = 0
		}
	}

	if err := cp.Persist(); err != nil {
		logging.Error("final checkpoint persist failed", "error", err.Error())
	}

	if err := WriteSummary(d.resultsPath, cp.Results()); err != nil {
		logging.Error("summary write failed", "error", err.Error())
	}

	return nil
}

// worker drains tasks, scores each candidate, and publishes one MatchResult
// per task, isolating any single candidate's failure from the rest of the
// run per spec.md §4.F/§5.
func (d *Driver) worker(ctx context.Context, wg *sync.WaitGroup, refs []fingerprint.Reference, tasks <-chan task, completed chan<- MatchResult) {
	defer wg.Done()

	httpClient := &http.Client{Timeout: d.settings.HTTPTimeout}
	loader := fingerprint.NewLoader(fingerprint.LoaderConfig{
		SampleRate:    d.settings.SampleRate,
		HeadSeconds:   d.settings.HeadSeconds,
		RetryAttempts: d.settings.RetryAttempts,
		RetryDelaySec: d.settings.RetryDelaySeconds,
		HTTPTimeout:   d.settings.HTTPTimeout,
		FFmpegPath:    d.settings.FFmpegPath,
	}, httpClient)

	dtwCfg := fingerprint.DTWConfig{
		MaxFrames:      d.settings.MaxFrames,
		MaxCells:       d.settings.MaxCells,
		SakoeChibaBand: d.settings.SakoeChibaBand,
	}

	extractCfg := fingerprint.ExtractConfig{
		SampleRate:     d.settings.SampleRate,
		NMFCC:          d.settings.NMFCC,
		NChroma:        d.settings.NChroma,
		NSpectralBands: d.settings.NSpectralBands,
	}

	for {
		select {
		case t, ok := <-tasks:
			if !ok {
				return
			}
			completed <- d.process(ctx, loader, dtwCfg, extractCfg, refs, t.candidate)
		case <-ctx.Done():
			return
		}
	}
}

// process runs one candidate through fetch -> extract -> score -> (accept ->
// sink) per spec.md §4.F step 3.
func (d *Driver) process(ctx context.Context, loader *fingerprint.Loader, dtwCfg fingerprint.DTWConfig,
	extractCfg fingerprint.ExtractConfig, refs []fingerprint.Reference, candidate store.Candidate) MatchResult {

	result := MatchResult{CandidateID: candidate.ID}

	pcm, err := loader.Load(ctx, candidate.MediaURL)
	if err != nil {
		return withError(result, err)
	}

	bundle, err := fingerprint.Extract(extractCfg, pcm)
	if err != nil {
		return withError(result, err)
	}

	fused, ok := fingerprint.ScoreAgainstCatalog(d.settings, dtwCfg, bundle, refs)
	if !ok {
		return withError(result, errors.Newf("no catalog references available to score against").
			Component("pipeline").Category(errors.CategoryCatalog).Build())
	}

	result.RefID = fused.RefID
	result.CombinedScore = fused.CombinedScore
	result.PerFeature = fused.Scores
	result.SecondBest = fused.SecondBest
	result.ScoreGap = fused.ScoreGap
	result.Confidence = fused.Confidence
	result.Accepted = fused.Accepted

	if result.Accepted {
		if err := d.sink.SetCandidateMatch(ctx, candidate.ID, result.RefID); err != nil {
			logging.Warn("sink update failed, candidate is still recorded as processed", "candidate_id", candidate.ID, "error", err.Error())
			result.SinkFailed = true
		}
	}

	return result
}

func withError(result MatchResult, err error) MatchResult {
	result.Error = err.Error()
	if ee, ok := asEnhanced(err); ok {
		result.ErrorCategory = string(ee.Category)
	}
	return result
}

func asEnhanced(err error) (*errors.EnhancedError, bool) {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
