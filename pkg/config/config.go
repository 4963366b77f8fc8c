package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/revlog/pkg/parser"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors, fills in defaults and compiles
// regex patterns.
func Validate(cfg *Config) error {
	if len(cfg.LogSources) == 0 {
		return errors.New("log_sources: at least one log source is required")
	}

	if err := ValidateTimestampFormat(&cfg.TimestampFormat); err != nil {
		return fmt.Errorf("timestamp_format: %w", err)
	}

	if err := validateChunkSize(cfg); err != nil {
		return fmt.Errorf("chunk_size: %w", err)
	}

	if cfg.Encoding != "" {
		if _, err := parser.NewDecoder(cfg.Encoding); err != nil {
			return fmt.Errorf("encoding: %w", err)
		}
	}

	if len(cfg.Queries) == 0 {
		return errors.New("queries: at least one query is required")
	}

	seen := make(map[string]bool, len(cfg.Queries))
	for i := range cfg.Queries {
		q := &cfg.Queries[i]
		if err := validateQuery(q); err != nil {
			return fmt.Errorf("queries[%d] (%s): %w", i, q.Name, err)
		}
		if seen[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		seen[q.Name] = true
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

// ValidateTimestampFormat compiles the timestamp pattern and checks the layout.
func ValidateTimestampFormat(tf *TimestampConfig) error {
	if tf.Pattern == "" {
		return errors.New("pattern is required")
	}

	re, err := regexp.Compile(tf.Pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	if re.NumSubexp() < 1 {
		return errors.New("pattern must have at least one capture group for the timestamp")
	}

	tf.compiledPattern = re

	if tf.Layout == "" {
		return errors.New("layout is required")
	}

	return nil
}

func validateChunkSize(cfg *Config) error {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%s exceeds the maximum of %s", cfg.ChunkSize, MaxChunkSize)
	}
	return nil
}

func validateQuery(q *QueryConfig) error {
	if q.Name == "" {
		return errors.New("name is required")
	}

	if q.Pattern == "" {
		return errors.New("pattern is required")
	}

	re, err := regexp.Compile(q.Pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	q.compiledPattern = re

	if q.Limit < 0 {
		return fmt.Errorf("limit must be >= 0, got %d", q.Limit)
	}
	if q.Limit == 0 {
		q.Limit = DefaultQueryLimit
	}

	if q.Within < 0 {
		return fmt.Errorf("within must not be negative, got %s", q.Within)
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnMissing
	case WebhookTriggerOnMissing, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_missing, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands a value of the form ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
