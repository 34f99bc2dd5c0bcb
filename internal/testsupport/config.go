package testsupport

import (
	"path/filepath"
	"testing"

	"callprep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ReportsDir = filepath.Join(base, "meeting-notes")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "state", "meeting_prep.db")
	cfgVal.Vapi.APIKey = "test-vapi-key"
	cfgVal.Summarizer.APIKey = "test-summarizer-key"
	cfgVal.Lifecycle.PollIntervalSeconds = 1
	cfgVal.Lifecycle.PollTimeoutSeconds = 5
	cfgVal.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithVapiBaseURL points the call service client at a test server.
func WithVapiBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Vapi.BaseURL = url
		b.cfg.Vapi.PhoneNumberID = "test-line"
	}
}

// WithAPIToken requires bearer auth on the daemon API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// WithNtfyTopic enables notifications against the given endpoint.
func WithNtfyTopic(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
