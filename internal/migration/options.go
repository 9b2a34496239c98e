package migration

import (
	"runtime"
	"time"

	"bibleref/internal/config"
)

const (
	defaultCheckpointInterval = 10
	defaultReferenceKey       = "bible-refs"
	defaultTagsKey            = "tags"
	defaultTagPrefix          = "bible/"
)

// Option configures optional Manager behavior.
type Option func(*options)

type options struct {
	checkpointInterval int
	yield              func()
	primaryKey         string
	tagsKey            string
	writeTags          bool
	tagPrefix          string
	now                func() time.Time
}

func defaultOptions() options {
	return options{
		checkpointInterval: defaultCheckpointInterval,
		yield:              runtime.Gosched,
		primaryKey:         defaultReferenceKey,
		tagsKey:            defaultTagsKey,
		tagPrefix:          defaultTagPrefix,
		now:                time.Now,
	}
}

// WithCheckpointInterval sets how many documents are processed between
// yields and progress checkpoints. Values below one are ignored.
func WithCheckpointInterval(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.checkpointInterval = n
		}
	}
}

// WithYield replaces the cooperative yield performed at each checkpoint.
func WithYield(fn func()) Option {
	return func(o *options) {
		if fn != nil {
			o.yield = fn
		}
	}
}

// WithReferenceFields names the frontmatter list holding references and the
// generic tags list, and whether the tags list is rewritten too.
func WithReferenceFields(primary, tags string, writeTags bool) Option {
	return func(o *options) {
		if primary != "" {
			o.primaryKey = primary
		}
		o.tagsKey = tags
		o.writeTags = writeTags
	}
}

// WithTagPrefix sets the namespace prefix shared by every reference tag.
func WithTagPrefix(prefix string) Option {
	return func(o *options) {
		o.tagPrefix = prefix
	}
}

// WithClock replaces the time source used for task timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// OptionsFromConfig translates the reference and migration settings.
func OptionsFromConfig(cfg *config.Config) []Option {
	if cfg == nil {
		return nil
	}
	return []Option{
		WithCheckpointInterval(cfg.Migration.CheckpointInterval),
		WithReferenceFields(cfg.References.FrontmatterKey, cfg.References.TagsKey, cfg.References.WriteToTags),
		WithTagPrefix(cfg.References.TagPrefix),
	}
}

func (o options) keys() []string {
	if o.writeTags && o.tagsKey != "" {
		return []string{o.primaryKey, o.tagsKey}
	}
	return []string{o.primaryKey}
}
