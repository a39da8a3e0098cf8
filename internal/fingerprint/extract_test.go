package fingerprint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultExtractConfig() ExtractConfig {
	return ExtractConfig{SampleRate: 22050, NMFCC: 20, NChroma: 12, NSpectralBands: 7}
}

func syntheticTone(sampleRate int, seconds float64, freq float64) PCM {
	n := int(float64(sampleRate) * seconds)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return PCM{Samples: samples, SampleRate: sampleRate}
}

func TestExtractRejectsEmptyPCM(t *testing.T) {
	_, err := Extract(defaultExtractConfig(), PCM{})
	require.Error(t, err)
}

func TestExtractRejectsTooShortAudio(t *testing.T) {
	pcm := PCM{Samples: make([]float32, 100), SampleRate: 22050}
	_, err := Extract(defaultExtractConfig(), pcm)
	require.Error(t, err)
}

func TestExtractProducesValidBundleForToneSignal(t *testing.T) {
	pcm := syntheticTone(22050, 3.0, 440.0)

	bundle, err := Extract(defaultExtractConfig(), pcm)

	require.NoError(t, err)
	require.True(t, bundle.Valid())
	assert.Equal(t, 20, bundle.MFCC.Rows())
	assert.Equal(t, 12, bundle.Chroma.Rows())
	assert.Equal(t, 7, bundle.SpectralContrast.Rows())
}

func TestExtractIsDeterministicForSameInput(t *testing.T) {
	pcm := syntheticTone(22050, 2.0, 220.0)
	cfg := defaultExtractConfig()

	b1, err := Extract(cfg, pcm)
	require.NoError(t, err)
	b2, err := Extract(cfg, pcm)
	require.NoError(t, err)

	assert.Equal(t, b1.MFCC, b2.MFCC)
	assert.Equal(t, b1.Chroma, b2.Chroma)
	assert.Equal(t, b1.SpectralContrast, b2.SpectralContrast)
	assert.Equal(t, b1.Tempo, b2.Tempo)
}

func TestEstimateTempoReturnsZeroOnSilence(t *testing.T) {
	samples := make([]float64, 22050*3)
	bpm, beats := estimateTempo(samples, 22050)

	assert.Equal(t, 0.0, bpm)
	assert.Nil(t, beats)
}
