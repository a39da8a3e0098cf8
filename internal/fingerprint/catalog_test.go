package fingerprint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstAudioFileFindsRecognizedExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.MP3"), []byte("x"), 0o644))

	path, err := firstAudioFile(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "song.MP3"), path)
}

func TestFirstAudioFileIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "song.wav"), 0o755))

	_, err := firstAudioFile(dir)

	require.Error(t, err)
}

func TestFirstAudioFileErrorsWhenNoneRecognized(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("x"), 0o644))

	_, err := firstAudioFile(dir)

	require.Error(t, err)
}

func TestLoadCatalogRejectsUnreadableRoot(t *testing.T) {
	_, err := LoadCatalog(context.Background(), filepath.Join(t.TempDir(), "missing"), CatalogConfig{})

	require.Error(t, err)
}

func TestLoadCatalogSkipsDirectoriesWithNoAudioAndFatalsOnEmptyResult(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "ref-1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ref-1", "cover.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o644))

	_, err := LoadCatalog(context.Background(), root, CatalogConfig{})

	require.Error(t, err)
}
