package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateReferences(); err != nil {
		return err
	}
	if err := c.validateMigration(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.VaultDir) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("paths.vault_dir is required. Set BIBLEREF_VAULT_DIR or edit %s (create with 'bibleref config init')", defaultPath)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.StateDir == c.Paths.VaultDir {
		return errors.New("paths.state_dir must differ from paths.vault_dir")
	}
	return nil
}

func (c *Config) validateReferences() error {
	if c.References.FrontmatterKey == "" {
		return errors.New("references.frontmatter_key must be set")
	}
	if c.References.TagPrefix == "" || c.References.TagPrefix == "/" {
		return errors.New("references.tag_prefix must be set")
	}
	if c.References.WriteToTags && c.References.TagsKey == c.References.FrontmatterKey {
		return errors.New("references.tags_key must differ from references.frontmatter_key when write_to_tags is enabled")
	}
	return nil
}

func (c *Config) validateMigration() error {
	if c.Migration.CheckpointInterval <= 0 {
		return errors.New("migration.checkpoint_interval must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
