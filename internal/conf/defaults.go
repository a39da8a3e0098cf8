package conf

import "time"

// Default values for every Settings field, per spec.md §6. Mirrors the
// teacher's conf/defaults.go pattern of seeding viper before any file/env
// overrides are applied.
func applyDefaults(v viperSetter) {
	v.SetDefault("sample_rate", 22050)
	v.SetDefault("head_seconds", 20)

	v.SetDefault("n_mfcc", 20)
	v.SetDefault("n_chroma", 12)
	v.SetDefault("n_spectral_bands", 7)

	v.SetDefault("feature_weights.mfcc", 0.20)
	v.SetDefault("feature_weights.chroma", 0.45)
	v.SetDefault("feature_weights.spectral", 0.20)
	v.SetDefault("feature_weights.rhythm", 0.15)

	v.SetDefault("scale.mfcc", 0.24)
	v.SetDefault("scale.chroma", 1.52)
	v.SetDefault("scale.spectral", 0.73)

	v.SetDefault("similarity_threshold", 80.0)
	v.SetDefault("confidence_gaps.high", 15.0)
	v.SetDefault("confidence_gaps.medium", 10.0)

	v.SetDefault("max_frames", 300)
	v.SetDefault("max_cells", 90000)
	v.SetDefault("sakoe_chiba_band", 20)

	v.SetDefault("max_workers", 4)
	v.SetDefault("retry_attempts", 3)
	v.SetDefault("retry_delay_sec", 1)
	v.SetDefault("checkpoint_interval", 10)
	v.SetDefault("http_timeout", 30*time.Second)

	v.SetDefault("reference_dir", "./catalog")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("ffmpeg_path", "ffmpeg")

	v.SetDefault("store.base_url", "")
	v.SetDefault("store.deploy_key", "")

	v.SetDefault("debug", false)
}

// viperSetter is the narrow slice of *viper.Viper this package depends on;
// declared as an interface purely so defaults_test.go can assert against a
// lightweight fake instead of constructing a real viper instance.
type viperSetter interface {
	SetDefault(key string, value any)
}
