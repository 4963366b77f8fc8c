package config

import (
	"os"
	"time"

	"github.com/c2h5oh/datasize"
)

// Default values for configuration.
const (
	DefaultChunkSize        = 4 * datasize.KB
	DefaultQueryLimit       = 1
	DefaultWebhookTimeout   = 10 * time.Second
	DefaultTimestampPattern = `^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]`
	DefaultTimestampLayout  = "2006-01-02 15:04:05"

	// MaxChunkSize caps chunk_size so a typo cannot allocate gigabytes per read.
	MaxChunkSize = 64 * datasize.MB
)

// Environment variable names.
const (
	EnvChunkSize       = "REVLOG_CHUNK_SIZE"
	EnvTimestampLayout = "REVLOG_TIMESTAMP_LAYOUT"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogSources: []string{},
		TimestampFormat: TimestampConfig{
			Pattern: DefaultTimestampPattern,
			Layout:  DefaultTimestampLayout,
		},
		ChunkSize: DefaultChunkSize,
		Queries:   []QueryConfig{},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() error {
	if layout := os.Getenv(EnvTimestampLayout); layout != "" {
		c.TimestampFormat.Layout = layout
	}

	if raw := os.Getenv(EnvChunkSize); raw != "" {
		size, err := datasize.ParseString(raw)
		if err != nil {
			return err
		}
		c.ChunkSize = size
	}

	return nil
}
