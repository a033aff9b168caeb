// Package config provides the configuration structure for the fishaudio-service.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Default values.
const (
	DefaultBaseURL        = "https://api.fish.audio"
	DefaultAPIKeyEnv      = "FISH_AUDIO_API_KEY"
	DefaultTimeoutSeconds = 120
	DefaultJobSubject     = "fishaudio.jobs"
	DefaultBinaryBucket   = "FISHAUDIO_BINARY"
)

// Static errors.
var (
	ErrAPIKeyNotSet    = errors.New("fish audio API key not set")
	ErrNATSURLEmpty    = errors.New("nats url cannot be empty")
	ErrTimeoutNegative = errors.New("timeout_seconds must be non-negative")
)

// FishAudioConfig holds the settings for the upstream Fish Audio API.
type FishAudioConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKeyEnv      string `toml:"api_key_env"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                     string `toml:"url"`
	JobSubject              string `toml:"job_subject"`
	BinaryObjectStoreBucket string `toml:"binary_object_store_bucket"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	FishAudio FishAudioConfig `toml:"fishaudio"`
	NATS      NATSConfig      `toml:"nats"`
	Paths     PathsConfig     `toml:"paths"`
}

// Load loads the configuration for the fishaudio-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	err = cfg.Normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Normalize fills in defaults for unset values and validates the rest.
func (c *Config) Normalize() error {
	if c.FishAudio.BaseURL == "" {
		c.FishAudio.BaseURL = DefaultBaseURL
	}

	if c.FishAudio.APIKeyEnv == "" {
		c.FishAudio.APIKeyEnv = DefaultAPIKeyEnv
	}

	if c.FishAudio.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: got %d", ErrTimeoutNegative, c.FishAudio.TimeoutSeconds)
	}

	if c.FishAudio.TimeoutSeconds == 0 {
		c.FishAudio.TimeoutSeconds = DefaultTimeoutSeconds
	}

	if c.NATS.JobSubject == "" {
		c.NATS.JobSubject = DefaultJobSubject
	}

	if c.NATS.BinaryObjectStoreBucket == "" {
		c.NATS.BinaryObjectStoreBucket = DefaultBinaryBucket
	}

	if c.Paths.BaseLogsDir == "" {
		c.Paths.BaseLogsDir = os.TempDir()
	}

	return nil
}

// Timeout returns the HTTP timeout for calls to the Fish Audio API.
func (c *FishAudioConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// APIKey reads the API key from the configured environment variable.
func (c *FishAudioConfig) APIKey() (string, error) {
	key := os.Getenv(c.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrAPIKeyNotSet, c.APIKeyEnv)
	}

	return key, nil
}

// ValidateNATS checks the settings the worker needs.
func (c *Config) ValidateNATS() error {
	if c.NATS.URL == "" {
		return ErrNATSURLEmpty
	}

	return nil
}
