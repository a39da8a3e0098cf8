package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kuben-developer/fpmatch/internal/errors"
)

// Checkpoint is the durable run state of spec.md §3/§6: the full set of
// processed candidate IDs and their results, written whole on each
// checkpoint event and read at most once per run at startup.
type Checkpoint struct {
	ProcessedVideos []string      `json:"processed_videos"`
	Results         []MatchResult `json:"results"`
	LastUpdated     int64         `json:"last_updated"`
}

// checkpointStore accumulates processed IDs/results in memory and persists
// them via atomic replace, owned exclusively by the pipeline driver (§3:
// "workers never write it").
type checkpointStore struct {
	mu        sync.Mutex
	path      string
	processed map[string]struct{}
	results   []MatchResult
}

// LoadCheckpoint reads an existing checkpoint file, or synthesizes an empty
// one if none exists, per spec.md §4.F step 1.
func LoadCheckpoint(path string) (*checkpointStore, error) {
	cs := &checkpointStore{
		path:      path,
		processed: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cs, nil
	}
	if err != nil {
		return nil, errors.New(err).Component("pipeline.checkpoint").Category(errors.CategoryFileIO).Build()
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, errors.New(err).Component("pipeline.checkpoint").Category(errors.CategoryValidation).
			Context("path", path).Build()
	}

	for _, id := range cp.ProcessedVideos {
		cs.processed[id] = struct{}{}
	}
	cs.results = cp.Results

	return cs, nil
}

// Processed reports whether a candidate has already been processed in a
// prior run.
func (cs *checkpointStore) Processed(candidateID string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	_, ok := cs.processed[candidateID]
	return ok
}

// Record marks a candidate processed and appends its result. Safe for
// concurrent callers, though in practice only the driver goroutine calls it.
func (cs *checkpointStore) Record(result MatchResult) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.processed[result.CandidateID] = struct{}{}
	cs.results = append(cs.results, result)
}

// Count returns the number of results recorded so far.
func (cs *checkpointStore) Count() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.results)
}

// Results returns a snapshot copy of the accumulated results.
func (cs *checkpointStore) Results() []MatchResult {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]MatchResult, len(cs.results))
	copy(out, cs.results)
	return out
}

// Persist atomically replaces the checkpoint file with the full
// accumulated state: write to a sibling temp path, then rename, so a crash
// mid-write never leaves a torn file (spec.md §5, §9).
func (cs *checkpointStore) Persist() error {
	cs.mu.Lock()
	ids := make([]string, 0, len(cs.processed))
	for id := range cs.processed {
		ids = append(ids, id)
	}
	results := make([]MatchResult, len(cs.results))
	copy(results, cs.results)
	cs.mu.Unlock()

	cp := Checkpoint{
		ProcessedVideos: ids,
		Results:         results,
		LastUpdated:     time.Now().Unix(),
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return errors.New(err).Component("pipeline.checkpoint").Category(errors.CategoryValidation).Build()
	}

	dir := filepath.Dir(cs.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).Component("pipeline.checkpoint").Category(errors.CategoryFileIO).Build()
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(cs.path)+".tmp-*")
	if err != nil {
		return errors.New(err).Component("pipeline.checkpoint").Category(errors.CategoryFileIO).Build()
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.New(err).Component("pipeline.checkpoint").Category(errors.CategoryFileIO).Build()
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.New(err).Component("pipeline.checkpoint").Category(errors.CategoryFileIO).Build()
	}

	if err := os.Rename(tmpPath, cs.path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.New(err).Component("pipeline.checkpoint").Category(errors.CategoryFileIO).Build()
	}

	return nil
}
