package testsupport

import (
	"path/filepath"
	"testing"

	"coachcast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Speech.APIKey = "test-speech-key"
	cfgVal.Storage.URL = "https://storage.test"
	cfgVal.Storage.ServiceKey = "test-storage-key"
	cfgVal.HeyGen.APIKey = "test-heygen-key"
	cfgVal.DID.APIKey = "test-did-key"

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPollCadence overrides the D-ID polling interval and attempt budget.
func WithPollCadence(intervalSeconds, maxAttempts int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.PollIntervalSeconds = intervalSeconds
		b.cfg.Workflow.MaxPollAttempts = maxAttempts
	}
}

// WithDefaultProvider overrides the provider used for "auto" requests.
func WithDefaultProvider(provider string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Coaches.DefaultProvider = provider
	}
}

// WithCoachVoice binds a coach name to a voice id on the test config.
func WithCoachVoice(coach, voiceID string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Coaches.Voices[coach] = voiceID
	}
}

// WithAPIToken sets the daemon API bearer token on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}
