package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeViperSetter records SetDefault calls so defaults can be asserted
// without constructing a real viper.Viper.
type fakeViperSetter struct {
	values map[string]any
}

func newFakeViperSetter() *fakeViperSetter {
	return &fakeViperSetter{values: make(map[string]any)}
}

func (f *fakeViperSetter) SetDefault(key string, value any) {
	f.values[key] = value
}

func TestApplyDefaultsSeedsEveryKnownKey(t *testing.T) {
	f := newFakeViperSetter()
	applyDefaults(f)

	expected := []string{
		"sample_rate", "head_seconds",
		"n_mfcc", "n_chroma", "n_spectral_bands",
		"feature_weights.mfcc", "feature_weights.chroma", "feature_weights.spectral", "feature_weights.rhythm",
		"scale.mfcc", "scale.chroma", "scale.spectral",
		"similarity_threshold", "confidence_gaps.high", "confidence_gaps.medium",
		"max_frames", "max_cells", "sakoe_chiba_band",
		"max_workers", "retry_attempts", "retry_delay_sec", "checkpoint_interval", "http_timeout",
		"reference_dir", "output_dir", "ffmpeg_path",
		"store.base_url", "store.deploy_key",
		"debug",
	}

	for _, key := range expected {
		_, ok := f.values[key]
		assert.Truef(t, ok, "expected default for %s", key)
	}
}

func TestApplyDefaultsWeightsSumToOne(t *testing.T) {
	f := newFakeViperSetter()
	applyDefaults(f)

	sum := f.values["feature_weights.mfcc"].(float64) +
		f.values["feature_weights.chroma"].(float64) +
		f.values["feature_weights.spectral"].(float64) +
		f.values["feature_weights.rhythm"].(float64)

	assert.InDelta(t, 1.0, sum, 1e-9)
}
