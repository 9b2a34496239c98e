package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeReferences()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("BIBLEREF_VAULT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.VaultDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("BIBLEREF_API_TOKEN"); ok {
		c.Paths.APIToken = value
	}

	var err error
	if c.Paths.VaultDir, err = expandPath(strings.TrimSpace(c.Paths.VaultDir)); err != nil {
		return fmt.Errorf("paths.vault_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeReferences() {
	c.References.FrontmatterKey = strings.TrimSpace(c.References.FrontmatterKey)
	c.References.TagsKey = strings.TrimSpace(c.References.TagsKey)
	if c.References.TagsKey == "" {
		c.References.TagsKey = defaultTagsKey
	}
	c.References.TagPrefix = NormalizeTagPrefix(c.References.TagPrefix)
}

// NormalizeTagPrefix trims the prefix and guarantees exactly one trailing
// separator, so "bible", "bible/" and " bible// " all become "bible/".
// An empty prefix stays empty.
func NormalizeTagPrefix(prefix string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(prefix), "/")
	if trimmed == "" {
		return ""
	}
	return trimmed + "/"
}

func (c *Config) normalizeNotifications() {
	if value, ok := os.LookupEnv("BIBLEREF_NTFY_TOPIC"); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
