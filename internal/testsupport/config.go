package testsupport

import (
	"path/filepath"
	"testing"

	"locaudit/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Judge.APIKey = "test"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "locauditd.sock")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithJudgeEndpoint points the judge client at a test server.
func WithJudgeEndpoint(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Judge.BaseURL = baseURL
	}
}

// WithNtfyTopic enables notifications against a test endpoint.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}
