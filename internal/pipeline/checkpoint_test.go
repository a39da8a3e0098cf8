package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCheckpointMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	cp, err := LoadCheckpoint(path)

	require.NoError(t, err)
	assert.Equal(t, 0, cp.Count())
	assert.False(t, cp.Processed("anything"))
}

func TestCheckpointPersistAndReloadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	cp, err := LoadCheckpoint(path)
	require.NoError(t, err)

	cp.Record(MatchResult{CandidateID: "a", Accepted: true, RefID: "ref-1"})
	cp.Record(MatchResult{CandidateID: "b", Error: "fetch-failed"})

	require.NoError(t, cp.Persist())

	reloaded, err := LoadCheckpoint(path)
	require.NoError(t, err)

	assert.True(t, reloaded.Processed("a"))
	assert.True(t, reloaded.Processed("b"))
	assert.False(t, reloaded.Processed("c"))
	assert.Equal(t, 2, reloaded.Count())
}

func TestCheckpointPersistIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")

	cp, err := LoadCheckpoint(path)
	require.NoError(t, err)
	cp.Record(MatchResult{CandidateID: "a"})
	require.NoError(t, cp.Persist())

	entries, err := filepathGlobTmp(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no leftover temp files after a successful persist")
}

func filepathGlobTmp(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.tmp-*"))
}

func TestResultsSurviveResumeAcrossTwoRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	first, err := LoadCheckpoint(path)
	require.NoError(t, err)
	first.Record(MatchResult{CandidateID: "a", Accepted: true})
	require.NoError(t, first.Persist())

	second, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.True(t, second.Processed("a"))

	second.Record(MatchResult{CandidateID: "b", Accepted: false})
	require.NoError(t, second.Persist())

	final, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 2, final.Count())
}
