package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"bibleref/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("BIBLEREF_VAULT_DIR", "")
	t.Setenv("BIBLEREF_NTFY_TOPIC", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.VaultDir != filepath.Join(tempHome, "vault") {
		t.Fatalf("unexpected vault dir: %q", cfg.Paths.VaultDir)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "bibleref")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.References.FrontmatterKey != "bible-refs" {
		t.Fatalf("unexpected frontmatter key: %q", cfg.References.FrontmatterKey)
	}
	if cfg.References.TagPrefix != "bible/" {
		t.Fatalf("unexpected tag prefix: %q", cfg.References.TagPrefix)
	}
	if cfg.References.WriteToTags {
		t.Fatal("expected write_to_tags disabled by default")
	}
	if cfg.Migration.CheckpointInterval != 10 {
		t.Fatalf("unexpected checkpoint interval: %d", cfg.Migration.CheckpointInterval)
	}
	if cfg.QueueDBPath() != filepath.Join(wantState, "migrations.db") {
		t.Fatalf("unexpected queue db path: %q", cfg.QueueDBPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("BIBLEREF_VAULT_DIR", "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "bibleref.toml")

	type payload struct {
		Paths struct {
			VaultDir string `toml:"vault_dir"`
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
		References struct {
			FrontmatterKey string `toml:"frontmatter_key"`
			TagPrefix      string `toml:"tag_prefix"`
			WriteToTags    bool   `toml:"write_to_tags"`
		} `toml:"references"`
		Migration struct {
			CheckpointInterval int `toml:"checkpoint_interval"`
		} `toml:"migration"`
	}
	custom := payload{}
	custom.Paths.VaultDir = filepath.Join(tempDir, "notes")
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	custom.References.FrontmatterKey = "verses"
	custom.References.TagPrefix = " scripture// "
	custom.References.WriteToTags = true
	custom.Migration.CheckpointInterval = 25
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.VaultDir != custom.Paths.VaultDir {
		t.Fatalf("expected vault dir from file, got %q", cfg.Paths.VaultDir)
	}
	if cfg.References.FrontmatterKey != "verses" {
		t.Fatalf("expected frontmatter key from file, got %q", cfg.References.FrontmatterKey)
	}
	if cfg.References.TagPrefix != "scripture/" {
		t.Fatalf("expected normalized tag prefix, got %q", cfg.References.TagPrefix)
	}
	if !cfg.References.WriteToTags || cfg.References.TagsKey != "tags" {
		t.Fatalf("unexpected tags settings: %+v", cfg.References)
	}
	if cfg.Migration.CheckpointInterval != 25 {
		t.Fatalf("expected checkpoint interval 25, got %d", cfg.Migration.CheckpointInterval)
	}
}

func TestEnvFileAndOverrides(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "bibleref.toml")
	envVault := filepath.Join(tempDir, "env-vault")

	if err := os.WriteFile(configPath, []byte("[paths]\nvault_dir = \"/srv/file-vault\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envFile := "BIBLEREF_VAULT_DIR=" + envVault + "\nBIBLEREF_NTFY_TOPIC=https://ntfy.example/vault\n"
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte(envFile), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// Register cleanup for variables the .env file introduces.
	t.Setenv("BIBLEREF_VAULT_DIR", "")
	t.Setenv("BIBLEREF_NTFY_TOPIC", "")
	os.Unsetenv("BIBLEREF_VAULT_DIR")
	os.Unsetenv("BIBLEREF_NTFY_TOPIC")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.VaultDir != envVault {
		t.Fatalf("expected vault dir from env file, got %q", cfg.Paths.VaultDir)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/vault" {
		t.Fatalf("expected ntfy topic from env file, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "frontmatter_key") {
		t.Fatalf("sample config missing references section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.References.TagPrefix != "bible" {
		t.Fatalf("expected raw sample prefix, got %q", cfg.References.TagPrefix)
	}
	if cfg.Migration.CheckpointInterval != 10 {
		t.Fatalf("expected sample checkpoint interval 10, got %d", cfg.Migration.CheckpointInterval)
	}
}

func TestNormalizeTagPrefix(t *testing.T) {
	tests := map[string]string{
		"bible":      "bible/",
		"bible/":     "bible/",
		" bible// ":  "bible/",
		"refs/bible": "refs/bible/",
		"":           "",
		"/":          "",
	}
	for input, want := range tests {
		if got := config.NormalizeTagPrefix(input); got != want {
			t.Errorf("NormalizeTagPrefix(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Default()
		cfg.Paths.VaultDir = "/srv/vault"
		cfg.Paths.StateDir = "/srv/state"
		return cfg
	}

	cases := map[string]func(*config.Config){
		"missing vault":      func(c *config.Config) { c.Paths.VaultDir = "" },
		"state equals vault": func(c *config.Config) { c.Paths.StateDir = c.Paths.VaultDir },
		"missing key":        func(c *config.Config) { c.References.FrontmatterKey = "" },
		"missing prefix":     func(c *config.Config) { c.References.TagPrefix = "" },
		"tags key collision": func(c *config.Config) { c.References.WriteToTags = true; c.References.TagsKey = c.References.FrontmatterKey },
		"zero checkpoint":    func(c *config.Config) { c.Migration.CheckpointInterval = 0 },
		"zero timeout":       func(c *config.Config) { c.Notifications.RequestTimeout = 0 },
		"bare topic":         func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" },
		"unknown log format": func(c *config.Config) { c.Logging.Format = "xml" },
		"unknown log level":  func(c *config.Config) { c.Logging.Level = "loud" },
	}

	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("expected baseline config to validate, got %v", err)
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
