package fingerprint

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)

	return NewLoader(LoaderConfig{
		SampleRate:    22050,
		HeadSeconds:   20,
		RetryAttempts: 2,
		RetryDelaySec: 0,
		HTTPTimeout:   5 * time.Second,
		FFmpegPath:    "ffmpeg",
	}, client)
}

func TestFetchToScratchRejectsNonSuccessStatus(t *testing.T) {
	l := newTestLoader(t)
	httpmock.RegisterResponder("GET", "https://cdn.example/video.mp4",
		httpmock.NewStringResponder(404, "not found"))

	_, err := l.fetchToScratch(context.Background(), "https://cdn.example/video.mp4")

	require.Error(t, err)
}

func TestFetchToScratchRejectsUndersizedDownload(t *testing.T) {
	l := newTestLoader(t)
	httpmock.RegisterResponder("GET", "https://cdn.example/tiny.mp4",
		httpmock.NewStringResponder(200, "too small"))

	_, err := l.fetchToScratch(context.Background(), "https://cdn.example/tiny.mp4")

	require.Error(t, err)
}

func TestFetchToScratchWritesAndCleansUpOnSuccess(t *testing.T) {
	l := newTestLoader(t)
	body := make([]byte, 4096)
	httpmock.RegisterResponder("GET", "https://cdn.example/video.mp4",
		httpmock.NewBytesResponder(200, body))

	path, err := l.fetchToScratch(context.Background(), "https://cdn.example/video.mp4")
	require.NoError(t, err)
	defer os.Remove(path)

	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	assert.Equal(t, int64(len(body)), info.Size())
}

func TestBytesToFloat32RejectsUnalignedInput(t *testing.T) {
	_, err := bytesToFloat32([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestBytesToFloat32DecodesLittleEndianSamples(t *testing.T) {
	// 1.0f32 little-endian
	raw := []byte{0x00, 0x00, 0x80, 0x3f}
	samples, err := bytesToFloat32(raw)

	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.InDelta(t, 1.0, float64(samples[0]), 1e-9)
}

func TestParseFFmpegDurationExtractsHMS(t *testing.T) {
	output := "Input #0, mov...\n  Duration: 00:01:23.45, start: 0.000000, bitrate: 128 kb/s\n"

	d, err := parseFFmpegDuration(output)

	require.NoError(t, err)
	assert.Equal(t, 83*time.Second+450*time.Millisecond, d)
}

func TestParseFFmpegDurationErrorsWhenMissing(t *testing.T) {
	_, err := parseFFmpegDuration("no duration line here")
	require.Error(t, err)
}
