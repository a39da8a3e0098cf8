package fingerprint

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kuben-developer/fpmatch/internal/errors"
	"github.com/kuben-developer/fpmatch/internal/logging"
)

// allowedReferenceExt is the set of audio container extensions recognized
// under the reference catalog root, per spec.md §6 (case-insensitive).
var allowedReferenceExt = map[string]bool{
	".mp3": true,
	".wav": true,
	".m4a": true,
}

// CatalogConfig carries settings needed to decode and feature-extract
// reference audio files.
type CatalogConfig struct {
	SampleRate     int
	HeadSeconds    int
	FFmpegPath     string
	Extract        ExtractConfig
}

// LoadCatalog scans root one level deep: each immediate subdirectory is a
// reference (its name is the stable ref_id). Within it, the first file with a
// recognized extension (in directory order) is decoded and feature-extracted
// once; further audio files in the same subdirectory are not used.
// Non-directory entries at the root are ignored, per spec.md §6. A
// subdirectory with no recognized file, or whose first recognized file fails
// to decode or extract, is skipped with a warning, not fatal.
// Returns CategoryCatalog if the resulting catalog is empty, a fatal
// condition per spec.md §7.
func LoadCatalog(ctx context.Context, root string, cfg CatalogConfig) ([]Reference, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.New(err).
			Component("fingerprint.catalog").Category(errors.CategoryFileIO).
			Context("root", root).Build()
	}

	var refs []Reference
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		refID := entry.Name()
		refDir := filepath.Join(root, refID)

		audioPath, findErr := firstAudioFile(refDir)
		if findErr != nil {
			logging.Warn("skipping reference with no usable audio file", "ref_id", refID, "error", findErr.Error())
			continue
		}

		pcm, duration, decodeErr := decodeReferenceFile(ctx, cfg, audioPath)
		if decodeErr != nil {
			logging.Warn("skipping reference that failed to decode", "ref_id", refID, "path", audioPath, "error", decodeErr.Error())
			continue
		}

		bundle, extractErr := Extract(cfg.Extract, pcm)
		if extractErr != nil {
			logging.Warn("skipping reference that failed feature extraction", "ref_id", refID, "path", audioPath, "error", extractErr.Error())
			continue
		}

		refs = append(refs, Reference{
			RefID:      refID,
			SourcePath: audioPath,
			Bundle:     bundle,
			Duration:   duration,
		})
	}

	if len(refs) == 0 {
		return nil, errors.Newf("reference catalog at %s produced zero usable entries", root).
			Component("fingerprint.catalog").Category(errors.CategoryCatalog).Build()
	}

	return refs, nil
}

func firstAudioFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if allowedReferenceExt[ext] {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", errors.Newf("no audio file with a recognized extension in %s", dir).
		Component("fingerprint.catalog").Category(errors.CategoryFileIO).Build()
}

// decodeReferenceFile decodes a local reference file via ffmpeg, the same
// way the loader decodes downloaded candidates, so references and
// candidates are feature-comparable.
func decodeReferenceFile(ctx context.Context, cfg CatalogConfig, path string) (PCM, time.Duration, error) {
	loader := &Loader{cfg: LoaderConfig{
		SampleRate:  cfg.SampleRate,
		HeadSeconds: cfg.HeadSeconds,
		FFmpegPath:  cfg.FFmpegPath,
	}}
	pcm, err := loader.decode(ctx, path)
	if err != nil {
		return PCM{}, 0, err
	}

	duration, err := probeDuration(ctx, cfg.FFmpegPath, path)
	if err != nil {
		duration = pcm.Duration()
	}
	return pcm, duration, nil
}

// probeDuration reads the full-file duration via ffprobe-style stderr
// parsing from ffmpeg itself (avoids depending on a separate ffprobe
// binary); falls back to the decoded head's duration if parsing fails.
func probeDuration(ctx context.Context, ffmpegPath, path string) (time.Duration, error) {
	// Deliberately omit "-v error" here: the Duration: HH:MM:SS.xx header is
	// only emitted at ffmpeg's default verbosity.
	cmd := exec.CommandContext(ctx, ffmpegPath, "-i", path, "-f", "null", "-")
	out, _ := cmd.CombinedOutput()
	return parseFFmpegDuration(string(out))
}
