// Package config provides configuration loading and validation for revlog.
package config

import (
	"regexp"
	"time"

	"github.com/c2h5oh/datasize"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	LogSources      []string          `yaml:"log_sources"`
	TimestampFormat TimestampConfig   `yaml:"timestamp_format"`
	ChunkSize       datasize.ByteSize `yaml:"chunk_size,omitempty"`
	Encoding        string            `yaml:"encoding,omitempty"`
	Queries         []QueryConfig     `yaml:"queries"`
	Webhooks        []WebhookConfig   `yaml:"webhooks,omitempty"`
}

// ChunkBytes returns the configured chunk size in bytes.
func (c *Config) ChunkBytes() int {
	return int(c.ChunkSize.Bytes())
}

// TimestampConfig defines how to extract timestamps from log lines.
type TimestampConfig struct {
	// Pattern is a regex whose first capture group is the timestamp.
	Pattern string `yaml:"pattern"`

	// Layout is the Go time layout used to parse the captured timestamp.
	Layout string `yaml:"layout"`

	compiledPattern *regexp.Regexp
}

// CompiledPattern returns the regex compiled during validation.
func (t *TimestampConfig) CompiledPattern() *regexp.Regexp {
	return t.compiledPattern
}

// QueryConfig describes one "most recent entry" lookup.
type QueryConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Pattern is matched against every line, newest first.
	Pattern string `yaml:"pattern"`

	// Limit is how many of the most recent matches to keep. Defaults to 1.
	Limit int `yaml:"limit,omitempty"`

	// Within bounds the lookback: lines stamped earlier than now-Within end
	// the query. Zero means no bound.
	Within time.Duration `yaml:"within,omitempty"`

	compiledPattern *regexp.Regexp
}

// CompiledPattern returns the regex compiled during validation.
func (q *QueryConfig) CompiledPattern() *regexp.Regexp {
	return q.compiledPattern
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnMissing fires when at least one query found nothing (default).
	WebhookTriggerOnMissing WebhookTrigger = "on_missing"
	// WebhookTriggerAlways fires after every search.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines an endpoint that receives search reports.
type WebhookConfig struct {
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token; ${VAR} and $VAR are expanded.
	Token string `yaml:"token,omitempty"`

	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	Timeout time.Duration `yaml:"timeout,omitempty"`
}
