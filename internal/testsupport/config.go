package testsupport

import (
	"path/filepath"
	"testing"

	"stocksmith/internal/config"
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
	cfgVal.OpenRouter.APIKey = "test"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.ExportDir = filepath.Join(base, "exports")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

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

// WithAPIKey sets the OpenRouter API key on the test config.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenRouter.APIKey = key
	}
}

// WithBatchSize overrides the number of descriptions per generation request.
func WithBatchSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.BatchSize = size
	}
}

// WithMaxConcurrentBatches overrides the batch concurrency limit.
func WithMaxConcurrentBatches(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.MaxConcurrentBatches = limit
	}
}

// WithBatchTimeoutSeconds overrides the per-batch deadline.
func WithBatchTimeoutSeconds(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.BatchTimeoutSeconds = seconds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
