package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"bibleref/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The vault directory is created so callers can write notes immediately.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.VaultDir = filepath.Join(base, "vault")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.Paths.VaultDir, 0o755); err != nil {
		t.Fatalf("mkdir vault dir: %v", err)
	}
	return builder.cfg
}

// WithWriteToTags enables mirroring references into the tags list.
func WithWriteToTags() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.References.WriteToTags = true
	}
}

// WithTagPrefix overrides the reference tag prefix.
func WithTagPrefix(prefix string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.References.TagPrefix = prefix
	}
}

// WithCheckpointInterval overrides how many documents are processed between
// progress checkpoints.
func WithCheckpointInterval(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Migration.CheckpointInterval = n
	}
}

// WithNtfyTopic points notifications at the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
