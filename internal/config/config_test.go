// Package config_test tests the configuration loading for the fishaudio-service.
package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/book-expert/fishaudio-service/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[fishaudio]
base_url = "http://127.0.0.1:9000"
api_key_env = "TEST_FISH_KEY"
timeout_seconds = 30

[nats]
url = "nats://127.0.0.1:4222"
job_subject = "fishaudio.jobs.test"
binary_object_store_bucket = "BINARY_TEST"

[paths]
base_logs_dir = "/var/log/fishaudio"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)
	require.NoError(t, cfg.Normalize())

	assert.Equal(t, "http://127.0.0.1:9000", cfg.FishAudio.BaseURL)
	assert.Equal(t, "TEST_FISH_KEY", cfg.FishAudio.APIKeyEnv)
	assert.Equal(t, 30*time.Second, cfg.FishAudio.Timeout())
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "fishaudio.jobs.test", cfg.NATS.JobSubject)
	assert.Equal(t, "BINARY_TEST", cfg.NATS.BinaryObjectStoreBucket)
	assert.Equal(t, "/var/log/fishaudio", cfg.Paths.BaseLogsDir)
	assert.NoError(t, cfg.ValidateNATS())
}

func TestNormalize_Defaults(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	require.NoError(t, cfg.Normalize())

	assert.Equal(t, config.DefaultBaseURL, cfg.FishAudio.BaseURL)
	assert.Equal(t, config.DefaultAPIKeyEnv, cfg.FishAudio.APIKeyEnv)
	assert.Equal(t, config.DefaultTimeoutSeconds, cfg.FishAudio.TimeoutSeconds)
	assert.Equal(t, config.DefaultJobSubject, cfg.NATS.JobSubject)
	assert.Equal(t, config.DefaultBinaryBucket, cfg.NATS.BinaryObjectStoreBucket)
	assert.Equal(t, os.TempDir(), cfg.Paths.BaseLogsDir)
	assert.ErrorIs(t, cfg.ValidateNATS(), config.ErrNATSURLEmpty)
}

func TestNormalize_NegativeTimeout(t *testing.T) {
	t.Parallel()

	cfg := config.Config{FishAudio: config.FishAudioConfig{TimeoutSeconds: -1}}

	assert.ErrorIs(t, cfg.Normalize(), config.ErrTimeoutNegative)
}

func TestAPIKey(t *testing.T) {
	t.Setenv("FISHAUDIO_CONFIG_TEST_KEY", "secret")

	cfg := config.FishAudioConfig{APIKeyEnv: "FISHAUDIO_CONFIG_TEST_KEY"}

	key, err := cfg.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "secret", key)

	cfg.APIKeyEnv = "FISHAUDIO_CONFIG_TEST_KEY_UNSET"

	_, err = cfg.APIKey()
	assert.ErrorIs(t, err, config.ErrAPIKeyNotSet)
}
