package conf

import "context"

type settingsKey struct{}

// WithSettings attaches Settings to ctx, letting cobra subcommands pick up
// configuration resolved in the root command's PersistentPreRunE.
func WithSettings(ctx context.Context, s *Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

// FromContext retrieves Settings previously attached with WithSettings.
func FromContext(ctx context.Context) (*Settings, bool) {
	s, ok := ctx.Value(settingsKey{}).(*Settings)
	return s, ok
}
