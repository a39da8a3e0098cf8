package fingerprint

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/kuben-developer/fpmatch/internal/errors"
	"github.com/kuben-developer/fpmatch/internal/logging"
)

// minScratchBytes is the size-guard threshold of spec.md §4.A: scratch
// files smaller than this are treated as corrupted downloads.
const minScratchBytes = 1024

// LoaderConfig carries the media loader's tunables.
type LoaderConfig struct {
	SampleRate     int
	HeadSeconds    int
	RetryAttempts  int
	RetryDelaySec  int
	HTTPTimeout    time.Duration
	FFmpegPath     string
}

// HTTPDoer is the narrow interface the loader needs from an HTTP client,
// letting tests substitute httpmock's transport without pulling in the full
// internal/httpclient.Client surface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Loader fetches and decodes candidate media per spec.md §4.A.
type Loader struct {
	cfg    LoaderConfig
	client HTTPDoer
}

// NewLoader constructs a Loader around the given HTTP client (connection
// pooling/timeouts are the caller's responsibility, mirroring
// internal/httpclient.Client's design).
func NewLoader(cfg LoaderConfig, client HTTPDoer) *Loader {
	return &Loader{cfg: cfg, client: client}
}

// Load fetches mediaURL with retry, probe-decodes it, then fully decodes to
// mono PCM at SampleRate truncated to HeadSeconds, per spec.md §4.A.
// On any terminal failure the returned error is categorized FETCH_FAILED or
// DECODE_FAILED per spec.md §7, and no scratch file is left behind.
func (l *Loader) Load(ctx context.Context, mediaURL string) (PCM, error) {
	var lastErr error

	for attempt := 1; attempt <= l.cfg.RetryAttempts; attempt++ {
		pcm, err := l.attempt(ctx, mediaURL)
		if err == nil {
			return pcm, nil
		}
		lastErr = err

		logging.Warn("media fetch attempt failed",
			"url", mediaURL, "attempt", attempt, "max_attempts", l.cfg.RetryAttempts, "error", err.Error())

		if attempt < l.cfg.RetryAttempts {
			delay := time.Duration(l.cfg.RetryDelaySec) * time.Duration(attempt) * time.Second
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return PCM{}, wrapFetchErr(ctx.Err(), mediaURL)
			}
		}
	}

	if errors.IsCategory(lastErr, errors.CategoryDecode) {
		return PCM{}, lastErr
	}
	return PCM{}, wrapFetchErr(lastErr, mediaURL)
}

func wrapFetchErr(err error, url string) error {
	return errors.New(err).
		Component("fingerprint.loader").
		Category(errors.CategoryFetch).
		Context("media_url", url).
		Build()
}

// attempt performs one fetch+probe+decode cycle, guaranteeing the scratch
// file is deleted on every exit path (success, error, or panic), per
// spec.md §4.A's scoped-acquisition lifecycle.
func (l *Loader) attempt(ctx context.Context, mediaURL string) (pcm PCM, err error) {
	scratchPath, fetchErr := l.fetchToScratch(ctx, mediaURL)
	if fetchErr != nil {
		return PCM{}, fetchErr
	}

	defer func() {
		if rec := recover(); rec != nil {
			_ = os.Remove(scratchPath)
			panic(rec)
		}
		_ = os.Remove(scratchPath)
	}()

	if probeErr := l.probeDecode(ctx, scratchPath); probeErr != nil {
		return PCM{}, errors.New(probeErr).
			Component("fingerprint.loader").Category(errors.CategoryDecode).
			Context("stage", "probe").Build()
	}

	pcm, decodeErr := l.decode(ctx, scratchPath)
	if decodeErr != nil {
		return PCM{}, errors.New(decodeErr).
			Component("fingerprint.loader").Category(errors.CategoryDecode).
			Context("stage", "full").Build()
	}

	return pcm, nil
}

// fetchToScratch streams mediaURL's body to a temp file, applying the size
// guard of spec.md §4.A step 2.
func (l *Loader) fetchToScratch(ctx context.Context, mediaURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, l.cfg.HTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, mediaURL, http.NoBody)
	if err != nil {
		return "", errors.New(err).Component("fingerprint.loader").Category(errors.CategoryFetch).Build()
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", errors.New(err).Component("fingerprint.loader").Category(errors.CategoryFetch).Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Newf("unexpected status %d fetching media", resp.StatusCode).
			Component("fingerprint.loader").Category(errors.CategoryFetch).
			Context("status_code", resp.StatusCode).Build()
	}

	scratch, err := os.CreateTemp("", "fpmatch-"+uuid.NewString()+"-*.media")
	if err != nil {
		return "", errors.New(err).Component("fingerprint.loader").Category(errors.CategorySystem).Build()
	}
	scratchPath := scratch.Name()

	written, copyErr := io.Copy(scratch, resp.Body)
	closeErr := scratch.Close()

	if copyErr != nil {
		_ = os.Remove(scratchPath)
		return "", errors.New(copyErr).Component("fingerprint.loader").Category(errors.CategoryFetch).Build()
	}
	if closeErr != nil {
		_ = os.Remove(scratchPath)
		return "", errors.New(closeErr).Component("fingerprint.loader").Category(errors.CategorySystem).Build()
	}

	if written < minScratchBytes {
		_ = os.Remove(scratchPath)
		return "", errors.Newf("downloaded media too small (%d bytes), likely corrupted", written).
			Component("fingerprint.loader").Category(errors.CategoryFetch).
			Context("bytes", written).Build()
	}

	return scratchPath, nil
}

// probeDecode attempts to decode the first 0.1s via ffmpeg, matching
// spec.md §4.A step 3; a fast-failing sanity check before full decode.
func (l *Loader) probeDecode(ctx context.Context, path string) error {
	args := []string{
		"-v", "error",
		"-t", "0.1",
		"-i", path,
		"-f", "null", "-",
	}
	cmd := exec.CommandContext(ctx, l.cfg.FFmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg probe failed: %w (%s)", err, out)
	}
	return nil
}

// decode shells out to ffmpeg to produce mono f32le PCM at SampleRate,
// truncated to HeadSeconds, mirroring the exec.CommandContext + stdout-pipe
// pattern used elsewhere in the teacher's ffmpeg integration.
func (l *Loader) decode(ctx context.Context, path string) (PCM, error) {
	args := []string{
		"-v", "error",
		"-i", path,
		"-t", fmt.Sprintf("%d", l.cfg.HeadSeconds),
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", l.cfg.SampleRate),
		"-f", "f32le",
		"-",
	}
	cmd := exec.CommandContext(ctx, l.cfg.FFmpegPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return PCM{}, fmt.Errorf("create ffmpeg stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return PCM{}, fmt.Errorf("start ffmpeg: %w", err)
	}

	raw, readErr := io.ReadAll(stdout)
	waitErr := cmd.Wait()

	if waitErr != nil {
		return PCM{}, fmt.Errorf("ffmpeg decode failed: %w", waitErr)
	}
	if readErr != nil {
		return PCM{}, fmt.Errorf("read ffmpeg output: %w", readErr)
	}

	samples, err := bytesToFloat32(raw)
	if err != nil {
		return PCM{}, err
	}
	if len(samples) == 0 {
		return PCM{}, fmt.Errorf("decoded PCM is empty")
	}
	for _, s := range samples {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return PCM{}, fmt.Errorf("decoded PCM contains NaN/Inf")
		}
	}

	return PCM{Samples: samples, SampleRate: l.cfg.SampleRate}, nil
}
