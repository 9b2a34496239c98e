package config

const (
	defaultConfigPath         = "~/.config/bibleref/config.toml"
	defaultVaultDir           = "~/vault"
	defaultStateDir           = "~/.local/share/bibleref"
	defaultAPIBind            = "127.0.0.1:7491"
	defaultFrontmatterKey     = "bible-refs"
	defaultTagPrefix          = "bible/"
	defaultTagsKey            = "tags"
	defaultCheckpointInterval = 10
	defaultRequestTimeout     = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			VaultDir: defaultVaultDir,
			StateDir: defaultStateDir,
			APIBind:  defaultAPIBind,
		},
		References: References{
			FrontmatterKey: defaultFrontmatterKey,
			TagPrefix:      defaultTagPrefix,
			TagsKey:        defaultTagsKey,
		},
		Migration: Migration{
			CheckpointInterval: defaultCheckpointInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
			Queued:         true,
			Completed:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
