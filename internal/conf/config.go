// Package conf defines the matcher's configuration surface: every tunable
// constant named in spec.md §6, loaded from an optional YAML file with
// environment variable overrides via viper, as a single immutable value
// threaded through the other components (no process-wide config singleton).
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FeatureWeights are the fixed convex combination weights for fusion (§4.E).
type FeatureWeights struct {
	MFCC      float64 `mapstructure:"mfcc" yaml:"mfcc"`
	Chroma    float64 `mapstructure:"chroma" yaml:"chroma"`
	Spectral  float64 `mapstructure:"spectral" yaml:"spectral"`
	Rhythm    float64 `mapstructure:"rhythm" yaml:"rhythm"`
}

// Sum returns the sum of all weights; fusion requires this to equal 1.0.
func (w FeatureWeights) Sum() float64 {
	return w.MFCC + w.Chroma + w.Spectral + w.Rhythm
}

// FeatureScales are the per-feature exponential-decay calibration constants
// for DTW distance→similarity conversion (§4.C). Marked tunable per spec.md
// §9's open question: these were calibrated for one transcode pipeline and
// should be re-tuned per deployment.
type FeatureScales struct {
	MFCC     float64 `mapstructure:"mfcc" yaml:"mfcc"`
	Chroma   float64 `mapstructure:"chroma" yaml:"chroma"`
	Spectral float64 `mapstructure:"spectral" yaml:"spectral"`
}

// ConfidenceGaps are the score-gap thresholds for confidence classification (§4.E).
type ConfidenceGaps struct {
	High   float64 `mapstructure:"high" yaml:"high"`
	Medium float64 `mapstructure:"medium" yaml:"medium"`
}

// Settings is the full set of deploy-time constants from spec.md §6.
type Settings struct {
	// Audio decode (§3, §4.A/B)
	SampleRate  int `mapstructure:"sample_rate" yaml:"sample_rate"`
	HeadSeconds int `mapstructure:"head_seconds" yaml:"head_seconds"`

	NMFCC           int `mapstructure:"n_mfcc" yaml:"n_mfcc"`
	NChroma         int `mapstructure:"n_chroma" yaml:"n_chroma"`
	NSpectralBands  int `mapstructure:"n_spectral_bands" yaml:"n_spectral_bands"`

	// Fusion (§4.E)
	FeatureWeights FeatureWeights `mapstructure:"feature_weights" yaml:"feature_weights"`
	Scale          FeatureScales  `mapstructure:"scale" yaml:"scale"`
	SimilarityThreshold float64   `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	ConfidenceGaps      ConfidenceGaps `mapstructure:"confidence_gaps" yaml:"confidence_gaps"`

	// DTW (§4.C)
	MaxFrames       int `mapstructure:"max_frames" yaml:"max_frames"`
	MaxCells        int `mapstructure:"max_cells" yaml:"max_cells"`
	SakoeChibaBand  int `mapstructure:"sakoe_chiba_band" yaml:"sakoe_chiba_band"`

	// Pipeline (§4.F, §5)
	MaxWorkers         int           `mapstructure:"max_workers" yaml:"max_workers"`
	RetryAttempts       int          `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryDelaySeconds    int         `mapstructure:"retry_delay_sec" yaml:"retry_delay_sec"`
	CheckpointInterval   int         `mapstructure:"checkpoint_interval" yaml:"checkpoint_interval"`
	HTTPTimeout          time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`

	// Paths & external services
	ReferenceDir string `mapstructure:"reference_dir" yaml:"reference_dir"`
	OutputDir    string `mapstructure:"output_dir" yaml:"output_dir"`
	FFmpegPath   string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`

	Store StoreSettings `mapstructure:"store" yaml:"store"`

	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// StoreSettings configures the external document-store client (§6).
type StoreSettings struct {
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	DeployKey string `mapstructure:"deploy_key" yaml:"deploy_key"`
}

// Load reads settings from an optional YAML config file, environment
// variables prefixed FPMATCH_, and defaults, mirroring the teacher's
// viper-based conf.Load wiring.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix("FPMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configPath, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&s); err != nil {
		return nil, err
	}

	return &s, nil
}
